package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// lookupChunk bounds the size of IN clauses.
const lookupChunk = 500

// Store groups the persistence collaborators of the sync engine. All stores
// created from one Store share the same connection or transaction.
type Store struct {
	db *gorm.DB

	Guilds      *Guilds
	Characters  *Characters
	Memberships *Memberships
	Ranks       *Ranks
	Tasks       *Tasks
}

// New creates a Store on top of db.
func New(db *gorm.DB) *Store {
	return &Store{
		db:          db,
		Guilds:      &Guilds{db: db},
		Characters:  &Characters{db: db},
		Memberships: &Memberships{db: db},
		Ranks:       &Ranks{db: db},
		Tasks:       &Tasks{db: db},
	}
}

// DB returns the underlying connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn against a Store bound to a single transaction. The
// transaction is rolled back if fn returns an error or panics.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func chunks[T any](items []T, size int) [][]T {
	var out [][]T
	for size < len(items) {
		items, out = items[size:], append(out, items[:size])
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}
