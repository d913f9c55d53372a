package model

import (
	"time"

	"event-ticket-ledger/internal/domain"
)

// TicketCode is the 1-based sequential identifier of an issued ticket.
type TicketCode = uint64

const (
	MinIssueCount = 1
	MaxIssueCount = 100
)

// Ticket is a numbered ticket. IsUsed flips to true exactly once, when it is bought.
type Ticket struct {
	Code      TicketCode `json:"code"`
	IsUsed    bool       `json:"is_used"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewTicketBatch builds count unused tickets numbered after last.
func NewTicketBatch(last TicketCode, count int, at time.Time) ([]*Ticket, error) {
	if err := ValidateIssueCount(count); err != nil {
		return nil, err
	}
	out := make([]*Ticket, 0, count)
	for i := 1; i <= count; i++ {
		out = append(out, &Ticket{Code: last + TicketCode(i), CreatedAt: at})
	}
	return out, nil
}

func ValidateIssueCount(count int) error {
	if count < MinIssueCount || count > MaxIssueCount {
		return domain.ErrInvalidIssueCount
	}
	return nil
}

// Use transitions the ticket to used. It never reverses.
func (t *Ticket) Use() error {
	if t.IsUsed {
		return domain.ErrTicketAlreadyUsed
	}
	t.IsUsed = true
	return nil
}
