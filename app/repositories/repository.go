// Package repositories persists accounts and orders. Every order operation
// is scoped by the owner id the caller passes in; an order owned by someone
// else is indistinguishable from a missing one.
package repositories

import (
	"context"
	"errors"

	"github.com/shashiranjanraj/fashioncraft/app/models"
)

// ErrDuplicateEmail is returned by AccountRepository.Create when the email
// is already registered, including when the store's unique index rejects
// a concurrent insert.
var ErrDuplicateEmail = errors.New("repositories: email already registered")

// AccountRepository is the credential store.
type AccountRepository interface {
	// FindByEmail returns nil, nil when no account has exactly this email.
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	// FindByID returns nil, nil when the account does not exist.
	FindByID(ctx context.Context, id string) (*models.Account, error)
	// Create stores acc and returns it with its assigned id.
	Create(ctx context.Context, acc models.Account) (*models.Account, error)
}

// OrderRepository is the owner-scoped order store.
type OrderRepository interface {
	// List returns the owner's orders, newest intake first. A non-empty
	// search keeps orders whose client name contains it, ignoring case.
	List(ctx context.Context, ownerID, search string) ([]models.Order, error)
	// Create stores o (already carrying its owner and defaults) and returns
	// it with its assigned id.
	Create(ctx context.Context, o models.Order) (*models.Order, error)
	// Get returns nil, nil when no order with id belongs to ownerID.
	Get(ctx context.Context, ownerID, id string) (*models.Order, error)
	// Update sets the patched leaves in one store operation and returns the
	// updated order, or nil, nil when no order with id belongs to ownerID.
	Update(ctx context.Context, ownerID, id string, patch models.OrderPatch) (*models.Order, error)
	// Delete reports whether an order was removed.
	Delete(ctx context.Context, ownerID, id string) (bool, error)
}

// Store bundles both repositories over one backend.
type Store interface {
	Driver() string
	Accounts() AccountRepository
	Orders() OrderRepository
	// Migrate creates indexes or tables. It is idempotent.
	Migrate(ctx context.Context) error
	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error
}
