package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/lost-and-found/pkg/lostfound"
)

func newItem(title string) lostfound.NewItem {
	return lostfound.NewItem{
		ItemFields: lostfound.ItemFields{
			Name:        "A",
			Email:       "a@x.com",
			PhoneNo:     "123",
			Title:       title,
			Description: "black leather",
		},
	}
}

func TestRepository_InsertAndFind(t *testing.T) {
	repo := New()
	ctx := context.Background()

	image := "1700000000000-abcdef012345.png"
	in := newItem("Lost wallet")
	in.Image = &image

	created, err := repo.Insert(ctx, in)
	require.NoError(t, err)
	assert.False(t, created.ID.IsZero())
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
	require.NotNil(t, created.Image)
	assert.Equal(t, image, *created.Image)

	found, err := repo.FindByID(ctx, created.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, created, found)

	// Mutating a returned copy does not leak into the store
	*found.Image = "changed.png"
	again, err := repo.FindByID(ctx, created.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, image, *again.Image)
}

func TestRepository_FindByID_Errors(t *testing.T) {
	repo := New()
	ctx := context.Background()

	_, err := repo.FindByID(ctx, "not-an-id")
	assert.ErrorIs(t, err, lostfound.ErrInvalidIdentifier)

	_, err = repo.FindByID(ctx, lostfound.NewItemID().Hex())
	assert.ErrorIs(t, err, lostfound.ErrItemNotFound)
}

func TestRepository_ListAll_NewestFirst(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	repo := New().WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		_, err := repo.Insert(ctx, newItem(title))
		require.NoError(t, err)
	}

	items, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "third", items[0].Title)
	assert.Equal(t, "second", items[1].Title)
	assert.Equal(t, "first", items[2].Title)
}

func TestRepository_DeleteByID(t *testing.T) {
	repo := New()
	ctx := context.Background()

	created, err := repo.Insert(ctx, newItem("umbrella"))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteByID(ctx, created.ID.Hex()))
	assert.ErrorIs(t, repo.DeleteByID(ctx, created.ID.Hex()), lostfound.ErrItemNotFound)
	assert.ErrorIs(t, repo.DeleteByID(ctx, "zzz"), lostfound.ErrInvalidIdentifier)

	items, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}
