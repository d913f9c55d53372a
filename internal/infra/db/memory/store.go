// Package memory is an in-process implementation of the ledger repositories.
//
// Transactions hold the store-wide write lock for their whole duration and journal an undo
// step for every write; a failed transaction replays the journal in reverse, so readers never
// observe partial state. Non-transactional calls take the lock per call.
package memory

import (
	"context"
	"sort"
	"sync"

	"event-ticket-ledger/internal/domain"
	"event-ticket-ledger/internal/domain/model"
	"event-ticket-ledger/internal/domain/ports/repository"
	"event-ticket-ledger/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
)

type Store struct {
	mu sync.RWMutex

	tickets     map[model.TicketCode]model.Ticket
	ticketCount model.TicketCode
	members     map[model.AccountID]model.Member
	owned       map[model.AccountID]map[model.TicketCode]struct{}
	ownerOf     map[model.TicketCode]model.AccountID
	admins      map[model.AccountID]struct{}
	state       *model.LedgerState
	purchases   []model.Purchase
}

func NewStore() *Store {
	return &Store{
		tickets: make(map[model.TicketCode]model.Ticket),
		members: make(map[model.AccountID]model.Member),
		owned:   make(map[model.AccountID]map[model.TicketCode]struct{}),
		ownerOf: make(map[model.TicketCode]model.AccountID),
		admins:  make(map[model.AccountID]struct{}),
	}
}

// Tx is the journal handle passed to repositories inside WithTx.
type Tx struct {
	s    *Store
	undo []func()
	done bool
}

func (t *Tx) record(fn func()) { t.undo = append(t.undo, fn) }

func (t *Tx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
	t.done = true
}

// access resolves the execution context. For NoTX it takes the lock itself and the returned
// release must be called; inside a transaction the lock is already held.
func (s *Store) access(tx repository.Tx, write bool) (*Tx, func(), error) {
	switch v := tx.(type) {
	case nil:
		if write {
			s.mu.Lock()
			return nil, s.mu.Unlock, nil
		}
		s.mu.RLock()
		return nil, s.mu.RUnlock, nil
	case *Tx:
		if v.s != s || v.done {
			return nil, nil, domain.ErrInvalidExecContext
		}
		return v, func() {}, nil
	default:
		return nil, nil, domain.ErrInvalidExecContext
	}
}

var _ repository.TransactionManager = (*TxManager)(nil)

// TxManager implements repository.TransactionManager over a Store.
// Isolation options are accepted for interface parity; every transaction is serializable.
type TxManager struct {
	s *Store
}

func NewTxManager(s *Store) *TxManager {
	return &TxManager{s: s}
}

func (m *TxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	tx := &Tx{s: m.s}
	defer func() {
		if rec := recover(); rec != nil {
			tx.rollback()
			metrics.IncTx("memory", "rollback")
			panic(rec)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		tx.rollback()
		metrics.IncTx("memory", "rollback")
		return err
	}
	if err := ctx.Err(); err != nil {
		tx.rollback()
		metrics.IncTx("memory", "rollback")
		return err
	}
	tx.undo = nil
	tx.done = true
	metrics.IncTx("memory", "commit")
	return nil
}

func sortedCodes(set map[model.TicketCode]struct{}) []model.TicketCode {
	out := make([]model.TicketCode, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
