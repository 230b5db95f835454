package lostfound

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// service implements the Service interface
type service struct {
	repository Repository
	assets     AssetStore
	now        func() time.Time
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the item repository
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithAssetStore sets the image store
func WithAssetStore(store AssetStore) Option {
	return func(s *service) {
		s.assets = store
	}
}

// WithClock overrides the time source used for reconciliation.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		now: time.Now,
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.assets == nil {
		return nil, fmt.Errorf("asset store is required")
	}

	return s, nil
}

func (s *service) CreateItem(ctx context.Context, req CreateItemRequest) (*Item, error) {
	// Fields are checked before the upload touches the asset store so an
	// invalid submission never leaves a file behind.
	if err := req.Fields.Validate(); err != nil {
		return nil, err
	}

	var image *string
	if req.Upload != nil {
		filename, err := s.assets.Accept(ctx, req.Upload.Reader, req.Upload.Filename)
		if err != nil {
			return nil, &AssetError{Filename: req.Upload.Filename, Op: "accept", Err: err}
		}
		image = &filename
	}

	item, err := s.repository.Insert(ctx, NewItem{ItemFields: req.Fields, Image: image})
	if err != nil {
		if image != nil {
			if derr := s.assets.Delete(context.WithoutCancel(ctx), *image); derr != nil {
				slog.Error("Failed to remove asset after insert failure", "image", *image, "error", derr)
			} else {
				slog.Info("Removed asset after insert failure", "image", *image)
			}
		}
		return nil, &ItemError{Op: "create", Err: err}
	}

	slog.Info("Item created", "item_id", item.ID.Hex(), "has_image", image != nil)
	return item, nil
}

func (s *service) GetItem(ctx context.Context, id string) (*Item, error) {
	if _, err := ParseItemID(id); err != nil {
		return nil, err
	}

	item, err := s.repository.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) || errors.Is(err, ErrInvalidIdentifier) {
			return nil, err
		}
		return nil, &ItemError{ItemID: id, Op: "get", Err: err}
	}
	return item, nil
}

func (s *service) ListItems(ctx context.Context) ([]*Item, error) {
	items, err := s.repository.ListAll(ctx)
	if err != nil {
		return nil, &ItemError{Op: "list", Err: err}
	}
	if items == nil {
		items = []*Item{}
	}
	return items, nil
}

func (s *service) DeleteItem(ctx context.Context, id string) error {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return err
	}

	// The asset goes first: a crash after this point leaves a record whose
	// image is missing, which ReconcileAssets reports.
	if item.HasImage() {
		if err := s.assets.Delete(ctx, *item.Image); err != nil {
			slog.Warn("Failed to delete item image", "item_id", id, "image", *item.Image, "error", err)
		}
	}

	if err := s.repository.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return err
		}
		return &ItemError{ItemID: id, Op: "delete", Err: err}
	}

	slog.Info("Item deleted", "item_id", id)
	return nil
}
