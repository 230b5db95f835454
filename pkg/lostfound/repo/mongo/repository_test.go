package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/lost-and-found/pkg/lostfound"
)

// newTestRepository connects to TEST_MONGO_URI and uses a throwaway database.
func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	repo, err := Connect(ctx, uri, fmt.Sprintf("lostfound_test_%d", time.Now().UnixNano()))
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, repo.EnsureIndexes(ctx))

	t.Cleanup(func() {
		_ = repo.collection.Database().Drop(context.Background())
		_ = repo.Close(context.Background())
	})
	return repo
}

func TestRepository_Lifecycle(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	image := "1700000000000-abcdef012345.jpg"
	created, err := repo.Insert(ctx, lostfound.NewItem{
		ItemFields: lostfound.ItemFields{
			Name: "A", Email: "a@x.com", PhoneNo: "123",
			Title: "Lost wallet", Description: "black leather",
		},
		Image: &image,
	})
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, created.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "Lost wallet", found.Title)
	require.NotNil(t, found.Image)
	assert.Equal(t, image, *found.Image)
	assert.True(t, created.CreatedAt.Equal(found.CreatedAt))

	noImage, err := repo.Insert(ctx, lostfound.NewItem{
		ItemFields: lostfound.ItemFields{
			Name: "B", Email: "b@x.com", PhoneNo: "456",
			Title: "Keys", Description: "three keys",
		},
	})
	require.NoError(t, err)

	items, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, noImage.ID, items[0].ID)
	assert.Nil(t, items[0].Image)

	require.NoError(t, repo.DeleteByID(ctx, created.ID.Hex()))
	assert.ErrorIs(t, repo.DeleteByID(ctx, created.ID.Hex()), lostfound.ErrItemNotFound)

	_, err = repo.FindByID(ctx, created.ID.Hex())
	assert.ErrorIs(t, err, lostfound.ErrItemNotFound)
}

func TestRepository_InvalidIdentifierNeverQueries(t *testing.T) {
	// A repository with no live client: a query would panic or fail, so an
	// ErrInvalidIdentifier proves the check runs first.
	repo := &Repository{}

	_, err := repo.FindByID(context.Background(), "bogus")
	assert.ErrorIs(t, err, lostfound.ErrInvalidIdentifier)

	err = repo.DeleteByID(context.Background(), "bogus")
	assert.ErrorIs(t, err, lostfound.ErrInvalidIdentifier)
}
