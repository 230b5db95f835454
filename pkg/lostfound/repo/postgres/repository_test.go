package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/lost-and-found/pkg/lostfound"
)

// newTestRepository connects to TEST_DATABASE_URL and runs each test inside
// a transaction that is rolled back afterwards.
func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err, "Failed to connect to test database")
	t.Cleanup(pool.Close)

	require.NoError(t, pool.Ping(ctx), "Failed to ping test database")

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })

	repo := New(tx)
	require.NoError(t, repo.Migrate(ctx))
	_, err = tx.Exec(ctx, "DELETE FROM items")
	require.NoError(t, err)
	return repo
}

func TestRepository_Lifecycle(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	image := "1700000000000-abcdef012345.gif"
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
	assert.True(t, created.CreatedAt.Equal(found.CreatedAt))
	require.NotNil(t, found.Image)
	assert.Equal(t, image, *found.Image)

	second, err := repo.Insert(ctx, lostfound.NewItem{
		ItemFields: lostfound.ItemFields{
			Name: "B", Email: "b@x.com", PhoneNo: "456",
			Title: "Keys", Description: "three keys",
		},
	})
	require.NoError(t, err)

	items, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)
	assert.Nil(t, items[0].Image)

	require.NoError(t, repo.DeleteByID(ctx, created.ID.Hex()))
	assert.ErrorIs(t, repo.DeleteByID(ctx, created.ID.Hex()), lostfound.ErrItemNotFound)
	_, err = repo.FindByID(ctx, created.ID.Hex())
	assert.ErrorIs(t, err, lostfound.ErrItemNotFound)
}

func TestRepository_InvalidIdentifierNeverQueries(t *testing.T) {
	repo := New(nil)

	_, err := repo.FindByID(context.Background(), "bogus")
	assert.ErrorIs(t, err, lostfound.ErrInvalidIdentifier)
	assert.ErrorIs(t, repo.DeleteByID(context.Background(), "bogus"), lostfound.ErrInvalidIdentifier)
}
