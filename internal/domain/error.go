package domain

import "errors"

// Kind is the stable, machine-checkable category of a domain failure.
// Callers branch on Kind, never on message text.
type Kind string

const (
	KindInvalidInput        Kind = "invalid_input"
	KindNotFound            Kind = "not_found"
	KindAlreadyUsed         Kind = "already_used"
	KindInsufficientPayment Kind = "insufficient_payment"
	KindNotAuthorized       Kind = "not_authorized"
	KindAlreadyRegistered   Kind = "already_registered"
	KindConflict            Kind = "conflict"
	KindInternal            Kind = "internal"
)

// Error is a domain failure carrying a Kind and a human-readable message.
// Package-level values below are compared by identity with errors.Is.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func newErr(kind Kind, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

var (
	// Ledger errors
	ErrInvalidIssueCount   = newErr(KindInvalidInput, "number of tickets must be between 1 and 100")
	ErrTicketNotFound      = newErr(KindNotFound, "ticket not found")
	ErrTicketAlreadyUsed   = newErr(KindAlreadyUsed, "ticket already used")
	ErrInsufficientPayment = newErr(KindInsufficientPayment, "attached deposit is less than the ticket price")
	ErrNotAuthorized       = newErr(KindNotAuthorized, "caller is not allowed to call this method")
	ErrNotOwner            = newErr(KindNotAuthorized, "caller is not the ledger owner")
	ErrAlreadyRegistered   = newErr(KindAlreadyRegistered, "account already registered")
	ErrTicketBusy          = newErr(KindConflict, "ticket is locked by another purchase, retry later")
	ErrTxConflict          = newErr(KindConflict, "concurrent update conflict, retry later")

	// Lifecycle errors
	ErrLedgerNotInitialized = newErr(KindInternal, "ledger has no owner; bootstrap required")
	ErrOwnerMismatch        = newErr(KindConflict, "configured owner differs from persisted owner")
	ErrSchemaVersion        = newErr(KindInternal, "persisted schema version does not match binary")

	// Common errors
	ErrNotFound         = newErr(KindNotFound, "entity not found")
	ErrAlreadyExists    = newErr(KindConflict, "entity already exists")
	ErrInvalidArgument  = newErr(KindInvalidInput, "invalid argument")
	ErrInvalidAmount    = newErr(KindInvalidInput, "amount must be a non-negative integer within u128 range")
	ErrInvalidAccount   = newErr(KindInvalidInput, "invalid account id")
	ErrMissingIdentity  = newErr(KindNotAuthorized, "caller identity is required")
	ErrRateLimited      = newErr(KindConflict, "too many requests")

	// Store errors
	ErrInvalidExecContext = newErr(KindInternal, "invalid database execution context")
	ErrReadDatabaseRow    = newErr(KindInternal, "failed to read database row")
	ErrOperationFailed    = newErr(KindInternal, "database operation failed")
)

// KindOf returns the Kind of err, or KindInternal for errors that are not domain errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool { return err != nil && KindOf(err) == kind }
