package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/lost-and-found/pkg/lostfound"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Schema creates the items table. IDs are ObjectID hex strings so the
// external identifier format matches the document store.
const Schema = `
CREATE TABLE IF NOT EXISTS items (
	id          CHAR(24) PRIMARY KEY,
	name        TEXT NOT NULL,
	email       TEXT NOT NULL,
	phoneno     TEXT NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL,
	image       TEXT,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS items_created_at_idx ON items (created_at DESC);
`

// Repository implements lostfound.Repository using PostgreSQL
type Repository struct {
	db   DBTX
	pool *pgxpool.Pool
	now  func() time.Time
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db, now: time.Now}
}

// NewWithPool creates a new PostgreSQL repository with connection pool.
// Close closes the pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool, pool: pool, now: time.Now}
}

// Migrate applies Schema.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return r.handlePostgresError("migrate", err)
	}
	return nil
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("item already exists")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

const selectColumns = `id, name, email, phoneno, title, description, image, created_at, updated_at`

func (r *Repository) Insert(ctx context.Context, item lostfound.NewItem) (*lostfound.Item, error) {
	// Postgres keeps microseconds
	now := r.now().UTC().Truncate(time.Microsecond)
	stored := &lostfound.Item{
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

	query := `
		INSERT INTO items (` + selectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		stored.ID.Hex(), stored.Name, stored.Email, stored.PhoneNo,
		stored.Title, stored.Description, stored.Image,
		stored.CreatedAt, stored.UpdatedAt)
	if err != nil {
		return nil, r.handlePostgresError("insert item", err)
	}

	return stored, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*lostfound.Item, error) {
	oid, err := lostfound.ParseItemID(id)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + selectColumns + ` FROM items WHERE id = $1`
	item, err := scanItem(r.db.QueryRow(ctx, query, oid.Hex()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, lostfound.ErrItemNotFound
		}
		return nil, r.handlePostgresError("find item", err)
	}
	return item, nil
}

func (r *Repository) ListAll(ctx context.Context) ([]*lostfound.Item, error) {
	query := `SELECT ` + selectColumns + ` FROM items ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, r.handlePostgresError("list items", err)
	}
	defer rows.Close()

	items := []*lostfound.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, r.handlePostgresError("list items", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list items", err)
	}

	return items, nil
}

func (r *Repository) DeleteByID(ctx context.Context, id string) error {
	oid, err := lostfound.ParseItemID(id)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM items WHERE id = $1`, oid.Hex())
	if err != nil {
		return r.handlePostgresError("delete item", err)
	}
	if tag.RowsAffected() == 0 {
		return lostfound.ErrItemNotFound
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	if r.pool == nil {
		return nil
	}
	return r.pool.Ping(ctx)
}

func (r *Repository) Close(ctx context.Context) error {
	if r.pool != nil {
		r.pool.Close()
	}
	return nil
}

func scanItem(row pgx.Row) (*lostfound.Item, error) {
	var (
		item lostfound.Item
		id   string
	)
	err := row.Scan(&id, &item.Name, &item.Email, &item.PhoneNo,
		&item.Title, &item.Description, &item.Image,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}

	oid, err := lostfound.ParseItemID(id)
	if err != nil {
		return nil, fmt.Errorf("corrupt item id %q: %w", id, err)
	}
	item.ID = oid
	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()
	return &item, nil
}
