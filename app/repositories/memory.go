package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/shashiranjanraj/fashioncraft/app/models"
)

// MemoryStore keeps everything in process memory. It backs tests and the
// "memory" driver for local runs; data is lost on restart.
type MemoryStore struct {
	accounts *MemoryAccountRepository
	orders   *MemoryOrderRepository
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: NewMemoryAccountRepository(),
		orders:   NewMemoryOrderRepository(),
	}
}

func (s *MemoryStore) Driver() string { return "memory" }

func (s *MemoryStore) Accounts() AccountRepository { return s.accounts }

func (s *MemoryStore) Orders() OrderRepository { return s.orders }

func (s *MemoryStore) Migrate(context.Context) error { return nil }

func (s *MemoryStore) Ping(context.Context) error { return nil }

// ─── Accounts ────────────────────────────────────────────────────────────────

type MemoryAccountRepository struct {
	mu      sync.RWMutex
	byID    map[string]models.Account
	byEmail map[string]string
}

func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		byID:    map[string]models.Account{},
		byEmail: map[string]string{},
	}
}

func (r *MemoryAccountRepository) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, nil
	}
	acc := r.byID[id]
	return &acc, nil
}

func (r *MemoryAccountRepository) FindByID(_ context.Context, id string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acc, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return &acc, nil
}

func (r *MemoryAccountRepository) Create(_ context.Context, acc models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[acc.Email]; taken {
		return nil, ErrDuplicateEmail
	}
	acc.ID = uuid.NewString()
	if acc.FontSizePreference == 0 {
		acc.FontSizePreference = models.DefaultFontSize
	}
	r.byID[acc.ID] = acc
	r.byEmail[acc.Email] = acc.ID
	return &acc, nil
}

// ─── Orders ──────────────────────────────────────────────────────────────────

type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]models.Order
	seq    map[string]int64 // insertion order, the tie-breaker for equal intake dates
	next   int64
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders: map[string]models.Order{},
		seq:    map[string]int64{},
	}
}

func clone(o models.Order) models.Order {
	o.Garment.Measurements = o.Garment.Measurements.Clone()
	if o.Garment.Measurements == nil {
		o.Garment.Measurements = models.Measurements{}
	}
	return o
}

func (r *MemoryOrderRepository) List(_ context.Context, ownerID, search string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := fold(search)
	out := []models.Order{}
	for _, o := range r.orders {
		if o.OwnerID != ownerID {
			continue
		}
		if search != "" && !strings.Contains(fold(o.Client.Name), needle) {
			continue
		}
		out = append(out, clone(o))
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Management.IntakeDate, out[j].Management.IntakeDate
		if !a.Equal(b) {
			return a.After(b)
		}
		return r.seq[out[i].ID] > r.seq[out[j].ID]
	})
	return out, nil
}

func (r *MemoryOrderRepository) Create(_ context.Context, o models.Order) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o = clone(o)
	o.ID = uuid.NewString()
	o.Management.IntakeDate = models.StoreTime(o.Management.IntakeDate)
	r.next++
	r.orders[o.ID] = o
	r.seq[o.ID] = r.next

	out := clone(o)
	return &out, nil
}

func (r *MemoryOrderRepository) Get(_ context.Context, ownerID, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok || o.OwnerID != ownerID {
		return nil, nil
	}
	out := clone(o)
	return &out, nil
}

func (r *MemoryOrderRepository) Update(_ context.Context, ownerID, id string, patch models.OrderPatch) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok || o.OwnerID != ownerID {
		return nil, nil
	}
	o = clone(o)
	patch.Apply(&o)
	r.orders[id] = o

	out := clone(o)
	return &out, nil
}

func (r *MemoryOrderRepository) Delete(_ context.Context, ownerID, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok || o.OwnerID != ownerID {
		return false, nil
	}
	delete(r.orders, id)
	delete(r.seq, id)
	return true, nil
}
