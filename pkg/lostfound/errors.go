package lostfound

import (
	"errors"
	"fmt"
	"strings"
)

// Error types
var (
	// ErrInvalidIdentifier indicates an item ID that is not a well-formed ObjectID
	ErrInvalidIdentifier = errors.New("invalid item ID")

	// ErrItemNotFound indicates a well-formed ID with no matching item
	ErrItemNotFound = errors.New("item not found")

	// ErrInvalidAssetType indicates an upload whose extension is not an allowed image type
	ErrInvalidAssetType = errors.New("only image files are allowed")

	// ErrAssetTooLarge indicates an upload over the size limit
	ErrAssetTooLarge = errors.New("file too large")

	// ErrAssetNotFound indicates a missing asset
	ErrAssetNotFound = errors.New("asset not found")

	// ErrInvalidAssetName indicates a filename that could escape the content directory
	ErrInvalidAssetName = errors.New("invalid asset name")
)

// ValidationError lists the required fields missing from a create request.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// ItemError represents a persistence failure for an item operation
type ItemError struct {
	ItemID string
	Op     string
	Err    error
}

func (e *ItemError) Error() string {
	if e.ItemID == "" {
		return fmt.Sprintf("item operation %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("item operation %s failed for item %s: %v", e.Op, e.ItemID, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// AssetError represents an error related to asset store operations
type AssetError struct {
	Filename string
	Op       string
	Err      error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("asset operation %s failed for %q: %v", e.Op, e.Filename, e.Err)
}

func (e *AssetError) Unwrap() error {
	return e.Err
}
