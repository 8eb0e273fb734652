// Package transport defines the quotation domain models shared by the
// repository, service and chat layers.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle state of a quotation.
type State string

// Quotation lifecycle states. A quotation starts pending and moves to
// exactly one terminal state.
const (
	StatePending   State = "pending_confirmation"
	StateSent      State = "sent"
	StateCancelled State = "cancelled"
	StateExpired   State = "expired"
)

// Terminal reports whether no further transitions are allowed.
func (s State) Terminal() bool {
	return s != StatePending
}

// Item is one quotation line.
type Item struct {
	Name      string
	UnitPrice float64
	Quantity  int
	TaxRate   float64
	TaxAmount float64
	SortOrder int
}

// Quotation is a numbered offer to one customer.
type Quotation struct {
	ID           uuid.UUID
	Number       int64
	CustomerID   uuid.UUID
	State        State
	Subtotal     float64
	TaxTotal     float64
	Total        float64
	ValidityDays int
	ValidUntil   time.Time
	DocumentURL  string
	Items        []Item
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Totals carries the computed money amounts of a quotation.
type Totals struct {
	Subtotal float64
	TaxTotal float64
	Total    float64
}
