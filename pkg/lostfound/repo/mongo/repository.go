package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/tendant/lost-and-found/pkg/lostfound"
)

// CollectionName is the collection holding item documents.
const CollectionName = "items"

// Repository implements lostfound.Repository on a MongoDB collection
type Repository struct {
	client     *mongo.Client
	collection *mongo.Collection
	now        func() time.Time
}

// New creates a repository on db's items collection.
func New(db *mongo.Database) *Repository {
	return &Repository{
		client:     db.Client(),
		collection: db.Collection(CollectionName),
		now:        time.Now,
	}
}

// Connect dials uri, verifies the connection and returns a repository on
// the named database. The repository owns the client; Close disconnects it.
func Connect(ctx context.Context, uri, database string) (*Repository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping failed: %w", err)
	}

	return New(client.Database(database)), nil
}

// EnsureIndexes creates the createdAt index backing ListAll.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("createdAt_desc"),
	})
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

func (r *Repository) Insert(ctx context.Context, item lostfound.NewItem) (*lostfound.Item, error) {
	// BSON dates carry millisecond precision
	now := r.now().UTC().Truncate(time.Millisecond)
	doc := &lostfound.Item{
		ID:          lostfound.NewItemID(),
		Name:        item.Name,
		Email:       item.Email,
		PhoneNo:     item.PhoneNo,
		Title:       item.Title,
		Description: item.Description,
		Image:       item.Image,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("database error in insert item: %w", err)
	}
	return doc, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*lostfound.Item, error) {
	oid, err := lostfound.ParseItemID(id)
	if err != nil {
		return nil, err
	}

	var item lostfound.Item
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, lostfound.ErrItemNotFound
		}
		return nil, fmt.Errorf("database error in find item: %w", err)
	}
	return &item, nil
}

func (r *Repository) ListAll(ctx context.Context) ([]*lostfound.Item, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "createdAt", Value: -1},
		{Key: "_id", Value: -1},
	})

	cursor, err := r.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("database error in list items: %w", err)
	}

	items := []*lostfound.Item{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("database error in list items: %w", err)
	}
	return items, nil
}

func (r *Repository) DeleteByID(ctx context.Context, id string) error {
	oid, err := lostfound.ParseItemID(id)
	if err != nil {
		return err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("database error in delete item: %w", err)
	}
	if result.DeletedCount == 0 {
		return lostfound.ErrItemNotFound
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

func (r *Repository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
