package models

import "time"

// Order is a work order ("card") for one garment, owned by one account.
type Order struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"ownerId"`
	Client     Client     `json:"client"`
	Garment    Garment    `json:"garment"`
	Management Management `json:"management"`
}

// Client is the customer the garment is made for.
type Client struct {
	Name  string `json:"name"  validate:"max=200"`
	Phone string `json:"phone" validate:"max=40"`
}

// Garment describes the job itself.
type Garment struct {
	Type             string       `json:"type"             validate:"max=120"`
	Measurements     Measurements `json:"measurements"`
	Description      string       `json:"description"      validate:"max=4000"`
	PreviewReference string       `json:"previewReference" validate:"max=2048"`
}

// Management holds price, status and intake date.
type Management struct {
	Value      float64   `json:"value"`
	Status     Status    `json:"status"`
	IntakeDate time.Time `json:"intakeDate"`
}

// OrderInput is the create payload. Owner and id are never read from it.
type OrderInput struct {
	Client     Client          `json:"client"`
	Garment    Garment         `json:"garment"`
	Management ManagementInput `json:"management"`
}

// ManagementInput leaves status and intake date optional so defaults apply.
type ManagementInput struct {
	Value      float64    `json:"value"      validate:"gte=0"`
	Status     Status     `json:"status"     validate:"omitempty,oneof=Pending InProgress Done"`
	IntakeDate *time.Time `json:"intakeDate"`
}

// NewOrder builds the record to persist for ownerID, applying defaults.
// Timestamps are truncated to milliseconds, the precision stores keep.
func NewOrder(ownerID string, in OrderInput, now time.Time) Order {
	o := Order{
		OwnerID: ownerID,
		Client:  in.Client,
		Garment: in.Garment,
		Management: Management{
			Value:  in.Management.Value,
			Status: in.Management.Status,
		},
	}
	o.Garment.Measurements = in.Garment.Measurements.Clone()
	if o.Garment.Measurements == nil {
		o.Garment.Measurements = Measurements{}
	}

	if o.Management.Status == "" {
		o.Management.Status = StatusPending
	}

	intake := now
	if in.Management.IntakeDate != nil && !in.Management.IntakeDate.IsZero() {
		intake = *in.Management.IntakeDate
	}
	o.Management.IntakeDate = StoreTime(intake)

	return o
}

// StoreTime normalises t to UTC millisecond precision.
func StoreTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// InvoiceView is the read-only billing projection of an order.
type InvoiceView struct {
	Workshop string    `json:"taller"`
	Client   Client    `json:"cliente"`
	Work     Garment   `json:"trabajo"`
	Total    float64   `json:"total"`
	Date     time.Time `json:"fecha"`
}

// Invoice projects o for billing. workshop is the header label.
func (o Order) Invoice(workshop string) InvoiceView {
	return InvoiceView{
		Workshop: workshop,
		Client:   o.Client,
		Work:     o.Garment,
		Total:    o.Management.Value,
		Date:     o.Management.IntakeDate,
	}
}
