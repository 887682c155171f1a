package repositories

import (
	"context"
	"time"

	"github.com/shashiranjanraj/fashioncraft/app/models"
	"github.com/shashiranjanraj/fashioncraft/pkg/metrics"
)

// Instrument wraps s so every repository call is timed into
// metrics.StoreDuration.
func Instrument(s Store) Store {
	return &instrumentedStore{
		Store:    s,
		accounts: &instrumentedAccounts{next: s.Accounts(), driver: s.Driver()},
		orders:   &instrumentedOrders{next: s.Orders(), driver: s.Driver()},
	}
}

type instrumentedStore struct {
	Store
	accounts AccountRepository
	orders   OrderRepository
}

func (s *instrumentedStore) Accounts() AccountRepository { return s.accounts }

func (s *instrumentedStore) Orders() OrderRepository { return s.orders }

func outcome(err error, found bool) string {
	switch {
	case err != nil:
		return "error"
	case !found:
		return "not_found"
	default:
		return "ok"
	}
}

type instrumentedAccounts struct {
	next   AccountRepository
	driver string
}

func (r *instrumentedAccounts) FindByEmail(ctx context.Context, email string) (acc *models.Account, err error) {
	defer func(start time.Time) {
		metrics.ObserveStore(r.driver, "account_find_email", outcome(err, acc != nil), start)
	}(time.Now())
	return r.next.FindByEmail(ctx, email)
}

func (r *instrumentedAccounts) FindByID(ctx context.Context, id string) (acc *models.Account, err error) {
	defer func(start time.Time) {
		metrics.ObserveStore(r.driver, "account_find_id", outcome(err, acc != nil), start)
	}(time.Now())
	return r.next.FindByID(ctx, id)
}

func (r *instrumentedAccounts) Create(ctx context.Context, in models.Account) (acc *models.Account, err error) {
	defer func(start time.Time) {
		metrics.ObserveStore(r.driver, "account_create", outcome(err, true), start)
	}(time.Now())
	return r.next.Create(ctx, in)
}

type instrumentedOrders struct {
	next   OrderRepository
	driver string
}

func (r *instrumentedOrders) List(ctx context.Context, ownerID, search string) (out []models.Order, err error) {
	defer func(start time.Time) {
		metrics.ObserveStore(r.driver, "order_list", outcome(err, true), start)
	}(time.Now())
	return r.next.List(ctx, ownerID, search)
}

func (r *instrumentedOrders) Create(ctx context.Context, o models.Order) (out *models.Order, err error) {
	defer func(start time.Time) {
		metrics.ObserveStore(r.driver, "order_create", outcome(err, true), start)
	}(time.Now())
	return r.next.Create(ctx, o)
}

func (r *instrumentedOrders) Get(ctx context.Context, ownerID, id string) (out *models.Order, err error) {
	defer func(start time.Time) {
		metrics.ObserveStore(r.driver, "order_get", outcome(err, out != nil), start)
	}(time.Now())
	return r.next.Get(ctx, ownerID, id)
}

func (r *instrumentedOrders) Update(ctx context.Context, ownerID, id string, patch models.OrderPatch) (out *models.Order, err error) {
	defer func(start time.Time) {
		metrics.ObserveStore(r.driver, "order_update", outcome(err, out != nil), start)
	}(time.Now())
	return r.next.Update(ctx, ownerID, id, patch)
}

func (r *instrumentedOrders) Delete(ctx context.Context, ownerID, id string) (deleted bool, err error) {
	defer func(start time.Time) {
		metrics.ObserveStore(r.driver, "order_delete", outcome(err, deleted), start)
	}(time.Now())
	return r.next.Delete(ctx, ownerID, id)
}
