package services

import (
	"context"
	"strings"
	"time"

	"github.com/shashiranjanraj/fashioncraft/app/models"
	"github.com/shashiranjanraj/fashioncraft/app/repositories"
	"github.com/shashiranjanraj/fashioncraft/pkg/apperr"
	"github.com/shashiranjanraj/fashioncraft/pkg/bind"
	"github.com/shashiranjanraj/fashioncraft/pkg/metrics"
)

// DefaultInvoiceLabel heads invoices when no label is configured.
const DefaultInvoiceLabel = "Información de su taller"

// OrderService applies order rules for one owner at a time. The owner id
// always comes from the verified token, never from a payload.
type OrderService struct {
	orders       repositories.OrderRepository
	invoiceLabel string
	now          func() time.Time
}

func NewOrderService(orders repositories.OrderRepository, invoiceLabel string) *OrderService {
	if invoiceLabel == "" {
		invoiceLabel = DefaultInvoiceLabel
	}
	return &OrderService{orders: orders, invoiceLabel: invoiceLabel, now: time.Now}
}

// List returns the owner's orders, newest first, optionally filtered by a
// case-insensitive substring of the client name. A blank term means no
// filter, any other term is matched as given, spaces included. Never nil.
func (s *OrderService) List(ctx context.Context, ownerID, search string) ([]models.Order, error) {
	if strings.TrimSpace(search) == "" {
		search = ""
	}
	list, err := s.orders.List(ctx, ownerID, search)
	if err != nil {
		return nil, apperr.ErrStore.WithCause(err)
	}
	if list == nil {
		list = []models.Order{}
	}
	return list, nil
}

// Create stores a new order for ownerID with defaults applied.
func (s *OrderService) Create(ctx context.Context, ownerID string, in models.OrderInput) (*models.Order, error) {
	if errs := bind.Struct(in); len(errs) > 0 {
		return nil, apperr.ErrValidation.WithFields(errs)
	}

	created, err := s.orders.Create(ctx, models.NewOrder(ownerID, in, s.now()))
	if err != nil {
		return nil, apperr.ErrStore.WithCause(err)
	}
	metrics.RecordOrderMutation("create")
	return created, nil
}

// Get returns one order or ErrNotFound.
func (s *OrderService) Get(ctx context.Context, ownerID, id string) (*models.Order, error) {
	o, err := s.orders.Get(ctx, ownerID, id)
	if err != nil {
		return nil, apperr.ErrStore.WithCause(err)
	}
	if o == nil {
		return nil, apperr.ErrNotFound.WithMessage("Orden no encontrada")
	}
	return o, nil
}

// Update merges patch into the order. It returns nil, nil when the order
// does not exist or belongs to someone else.
func (s *OrderService) Update(ctx context.Context, ownerID, id string, patch models.OrderPatch) (*models.Order, error) {
	if err := patch.Validate(); err != nil {
		return nil, apperr.Validation("%v", err)
	}
	if errs := bind.Struct(patch); len(errs) > 0 {
		return nil, apperr.ErrValidation.WithFields(errs)
	}

	updated, err := s.orders.Update(ctx, ownerID, id, patch)
	if err != nil {
		return nil, apperr.ErrStore.WithCause(err)
	}
	if updated != nil && !patch.IsEmpty() {
		metrics.RecordOrderMutation("update")
	}
	return updated, nil
}

// Delete removes the order and reports whether one was removed.
func (s *OrderService) Delete(ctx context.Context, ownerID, id string) (bool, error) {
	deleted, err := s.orders.Delete(ctx, ownerID, id)
	if err != nil {
		return false, apperr.ErrStore.WithCause(err)
	}
	if deleted {
		metrics.RecordOrderMutation("delete")
	}
	return deleted, nil
}

// BuildInvoice projects an order for billing. It never modifies the order.
func (s *OrderService) BuildInvoice(ctx context.Context, ownerID, id string) (*models.InvoiceView, error) {
	o, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	inv := o.Invoice(s.invoiceLabel)
	return &inv, nil
}
