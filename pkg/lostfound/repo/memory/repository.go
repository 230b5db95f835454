package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tendant/lost-and-found/pkg/lostfound"
)

// Repository implements lostfound.Repository using in-memory storage
type Repository struct {
	mu    sync.RWMutex
	items map[primitive.ObjectID]*lostfound.Item
	now   func() time.Time
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		items: make(map[primitive.ObjectID]*lostfound.Item),
		now:   time.Now,
	}
}

// WithClock overrides the insert timestamp source.
func (r *Repository) WithClock(now func() time.Time) *Repository {
	r.now = now
	return r
}

func (r *Repository) Insert(ctx context.Context, item lostfound.NewItem) (*lostfound.Item, error) {
	now := r.now().UTC()
	stored := &lostfound.Item{
		ID:          lostfound.NewItemID(),
		Name:        item.Name,
		Email:       item.Email,
		PhoneNo:     item.PhoneNo,
		Title:       item.Title,
		Description: item.Description,
		Image:       copyString(item.Image),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	r.mu.Lock()
	r.items[stored.ID] = stored
	r.mu.Unlock()

	return copyItem(stored), nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*lostfound.Item, error) {
	oid, err := lostfound.ParseItemID(id)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	item, exists := r.items[oid]
	if !exists {
		return nil, lostfound.ErrItemNotFound
	}
	return copyItem(item), nil
}

func (r *Repository) ListAll(ctx context.Context) ([]*lostfound.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*lostfound.Item, 0, len(r.items))
	for _, item := range r.items {
		result = append(result, copyItem(item))
	}

	// Sort by createdAt descending, newest ID first on ties
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID.Hex() > result[j].ID.Hex()
	})

	return result, nil
}

func (r *Repository) DeleteByID(ctx context.Context, id string) error {
	oid, err := lostfound.ParseItemID(id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[oid]; !exists {
		return lostfound.ErrItemNotFound
	}
	delete(r.items, oid)
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return nil
}

func (r *Repository) Close(ctx context.Context) error {
	return nil
}

func copyItem(item *lostfound.Item) *lostfound.Item {
	c := *item
	c.Image = copyString(item.Image)
	return &c
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
