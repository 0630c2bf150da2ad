package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Repositories groups the repositories that share one database handle.
type Repositories struct {
	Users  UserRepository
	Items  ItemRepository
	Orders OrderRepository
}

// Transactor runs a unit of work atomically. Repositories handed to fn are
// bound to the transaction; fn returning an error rolls everything back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(repos Repositories) error) error
}

// GORMStore owns the gorm handle and builds repositories on top of it.
type GORMStore struct {
	db *gorm.DB
}

// NewGORMStore creates a new GORMStore.
func NewGORMStore(db *gorm.DB) *GORMStore {
	return &GORMStore{db: db}
}

// Repositories returns repositories bound to the store's root handle.
func (s *GORMStore) Repositories() Repositories {
	return newGORMRepositories(s.db)
}

// WithinTransaction implements Transactor.
func (s *GORMStore) WithinTransaction(ctx context.Context, fn func(repos Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newGORMRepositories(tx))
	})
}

func newGORMRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:  NewGORMUserRepository(db),
		Items:  NewGORMItemRepository(db),
		Orders: NewGORMOrderRepository(db),
	}
}
