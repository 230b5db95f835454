package lostfound

import (
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Item is a lost-and-found listing.
type Item struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	Name        string             `json:"name" bson:"name"`
	Email       string             `json:"email" bson:"email"`
	PhoneNo     string             `json:"phoneno" bson:"phoneno"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	Image       *string            `json:"image" bson:"image"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// HasImage reports whether the item references an asset.
func (i *Item) HasImage() bool {
	return i.Image != nil && *i.Image != ""
}

// ItemFields are the submitter-provided text fields of an item.
type ItemFields struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNo     string `json:"phoneno"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// NewItem is what the service hands to Repository.Insert. ID and timestamps
// are assigned by the repository.
type NewItem struct {
	ItemFields
	Image *string
}

// Upload is an image attached to a create request.
type Upload struct {
	// Filename is the client-side name; only its extension is kept.
	Filename string
	Reader   io.Reader
}

// CreateItemRequest contains parameters for creating an item.
type CreateItemRequest struct {
	Fields ItemFields
	Upload *Upload
}

// AssetInfo describes a stored asset.
type AssetInfo struct {
	Name        string
	Size        int64
	ContentType string
	ModTime     time.Time
}

// ReconcileOptions controls ReconcileAssets.
type ReconcileOptions struct {
	// DryRun reports orphaned assets without removing them.
	DryRun bool
	// GracePeriod protects assets younger than this from removal so that
	// creates still in flight are not raced. Zero means DefaultReconcileGracePeriod.
	GracePeriod time.Duration
}

// DefaultReconcileGracePeriod is used when ReconcileOptions.GracePeriod is zero.
const DefaultReconcileGracePeriod = time.Hour

// DanglingReference is an item whose image is missing from the asset store.
type DanglingReference struct {
	ItemID string `json:"itemId"`
	Image  string `json:"image"`
}

// ReconcileReport is the outcome of ReconcileAssets.
type ReconcileReport struct {
	ItemsChecked  int                 `json:"itemsChecked"`
	AssetsChecked int                 `json:"assetsChecked"`
	Orphaned      []string            `json:"orphaned"`
	Removed       []string            `json:"removed"`
	Dangling      []DanglingReference `json:"dangling"`
}
