package lostfound

import (
	"context"
	"io"
)

// AssetStore defines the interface for image storage backends
type AssetStore interface {
	// Accept validates originalName's extension, streams r into the store
	// under a freshly generated name and returns that name. Uploads over the
	// size limit fail with ErrAssetTooLarge and leave nothing behind.
	Accept(ctx context.Context, r io.Reader, originalName string) (string, error)

	// Open returns the asset content. Missing assets fail with ErrAssetNotFound.
	Open(ctx context.Context, filename string) (io.ReadCloser, *AssetInfo, error)

	// Delete removes an asset. Deleting a missing asset is not an error.
	Delete(ctx context.Context, filename string) error

	// List returns every stored asset.
	List(ctx context.Context) ([]AssetInfo, error)
}

// Repository defines the interface for item persistence
type Repository interface {
	// Insert assigns ID and timestamps and stores the item.
	Insert(ctx context.Context, item NewItem) (*Item, error)

	// FindByID fails with ErrInvalidIdentifier before querying when id is
	// malformed, and with ErrItemNotFound when it is absent.
	FindByID(ctx context.Context, id string) (*Item, error)

	// ListAll returns all items, newest first.
	ListAll(ctx context.Context) ([]*Item, error)

	// DeleteByID removes an item; ErrItemNotFound if nothing was removed.
	DeleteByID(ctx context.Context, id string) error

	// Ping checks connectivity to the underlying store.
	Ping(ctx context.Context) error

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// CachingRepository is a Repository that may serve reads from a cache.
// Uncached returns the store of record behind it.
type CachingRepository interface {
	Repository
	Uncached() Repository
}

// Service is the item-management API.
type Service interface {
	CreateItem(ctx context.Context, req CreateItemRequest) (*Item, error)
	GetItem(ctx context.Context, id string) (*Item, error)
	ListItems(ctx context.Context) ([]*Item, error)
	DeleteItem(ctx context.Context, id string) error

	// ReconcileAssets removes assets no item references and reports items
	// whose image is missing. Records are never modified.
	ReconcileAssets(ctx context.Context, opts ReconcileOptions) (*ReconcileReport, error)
}
