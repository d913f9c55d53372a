package model

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

// Purchase is the receipt written alongside a successful ticket purchase.
// Paid may exceed Price; overpayment is accepted without change.
type Purchase struct {
	ID          string          `json:"id"`
	Buyer       AccountID       `json:"buyer"`
	TicketCode  TicketCode      `json:"ticket_code"`
	Paid        decimal.Decimal `json:"paid"`
	Price       decimal.Decimal `json:"price"`
	PurchasedAt time.Time       `json:"purchased_at"`
}

// NewPurchase stamps a receipt with a time-ordered ULID.
func NewPurchase(buyer AccountID, code TicketCode, paid, price decimal.Decimal, at time.Time) *Purchase {
	id := ulid.MustNew(ulid.Timestamp(at), rand.Reader)
	return &Purchase{
		ID:          id.String(),
		Buyer:       buyer,
		TicketCode:  code,
		Paid:        paid,
		Price:       price,
		PurchasedAt: at,
	}
}

// Overpaid returns how much more than the price was attached.
func (p *Purchase) Overpaid() decimal.Decimal {
	if p.Paid.LessThanOrEqual(p.Price) {
		return decimal.Zero
	}
	return p.Paid.Sub(p.Price)
}
