package model

import "github.com/shopspring/decimal"

// SchemaVersion is the persisted layout version this binary reads and writes.
// Bump it together with a new numbered migration.
const SchemaVersion = 1

// LedgerState holds the ledger's scalars: the fixed owner, the ticket price and the issue counter.
type LedgerState struct {
	Owner         AccountID       `json:"owner"`
	Price         decimal.Decimal `json:"price"`
	TicketCount   TicketCode      `json:"ticket_count"`
	SchemaVersion int             `json:"schema_version"`
}

func (s *LedgerState) IsZero() bool { return s == nil || s.Owner == "" }

// Stats summarizes ledger totals. Consistent is false if used tickets and ownership entries disagree.
type Stats struct {
	TicketsIssued uint64          `json:"tickets_issued"`
	TicketsUsed   uint64          `json:"tickets_used"`
	TicketsOwned  uint64          `json:"tickets_owned"`
	Members       uint64          `json:"members"`
	Admins        uint64          `json:"admins"`
	Price         decimal.Decimal `json:"price"`
	Consistent    bool            `json:"consistent"`
}
