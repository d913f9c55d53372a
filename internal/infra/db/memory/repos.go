package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"event-ticket-ledger/internal/domain"
	"event-ticket-ledger/internal/domain/model"
	"event-ticket-ledger/internal/domain/ports/repository"
)

var (
	_ repository.TicketRepository      = (*ticketRepo)(nil)
	_ repository.MemberRepository      = (*memberRepo)(nil)
	_ repository.OwnershipRepository   = (*ownershipRepo)(nil)
	_ repository.AdminRepository       = (*adminRepo)(nil)
	_ repository.LedgerStateRepository = (*stateRepo)(nil)
	_ repository.PurchaseRepository    = (*purchaseRepo)(nil)
)

func (s *Store) Tickets() repository.TicketRepository { return &ticketRepo{s} }
func (s *Store) Members() repository.MemberRepository { return &memberRepo{s} }
func (s *Store) Ownership() repository.OwnershipRepository { return &ownershipRepo{s} }
func (s *Store) Admins() repository.AdminRepository { return &adminRepo{s} }
func (s *Store) LedgerState() repository.LedgerStateRepository { return &stateRepo{s} }
func (s *Store) Purchases() repository.PurchaseRepository { return &purchaseRepo{s} }

// -----------------------------
// Tickets
// -----------------------------

type ticketRepo struct{ s *Store }

func (r *ticketRepo) Append(ctx context.Context, tx repository.Tx, count int, at time.Time) ([]*model.Ticket, error) {
	j, release, err := r.s.access(tx, true)
	if err != nil {
		return nil, err
	}
	defer release()

	if r.s.state == nil {
		return nil, domain.ErrLedgerNotInitialized
	}
	last := r.s.ticketCount
	batch, err := model.NewTicketBatch(last, count, at)
	if err != nil {
		return nil, err
	}
	for _, t := range batch {
		r.s.tickets[t.Code] = *t
	}
	r.s.ticketCount = last + model.TicketCode(len(batch))
	if j != nil {
		j.record(func() {
			for _, t := range batch {
				delete(r.s.tickets, t.Code)
			}
			r.s.ticketCount = last
		})
	}
	return batch, nil
}

func (r *ticketRepo) FindByCode(ctx context.Context, tx repository.Tx, code model.TicketCode) (*model.Ticket, error) {
	_, release, err := r.s.access(tx, false)
	if err != nil {
		return nil, err
	}
	defer release()

	t, ok := r.s.tickets[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (r *ticketRepo) MarkUsed(ctx context.Context, tx repository.Tx, code model.TicketCode) error {
	j, release, err := r.s.access(tx, true)
	if err != nil {
		return err
	}
	defer release()

	t, ok := r.s.tickets[code]
	if !ok {
		return domain.ErrNotFound
	}
	if err := t.Use(); err != nil {
		return err
	}
	r.s.tickets[code] = t
	if j != nil {
		j.record(func() {
			t.IsUsed = false
			r.s.tickets[code] = t
		})
	}
	return nil
}

func (r *ticketRepo) Count(ctx context.Context, tx repository.Tx) (uint64, error) {
	_, release, err := r.s.access(tx, false)
	if err != nil {
		return 0, err
	}
	defer release()
	return r.s.ticketCount, nil
}

func (r *ticketRepo) CountUsed(ctx context.Context, tx repository.Tx) (uint64, error) {
	_, release, err := r.s.access(tx, false)
	if err != nil {
		return 0, err
	}
	defer release()

	var n uint64
	for _, t := range r.s.tickets {
		if t.IsUsed {
			n++
		}
	}
	return n, nil
}

// -----------------------------
// Members
// -----------------------------

type memberRepo struct{ s *Store }

func (r *memberRepo) Insert(ctx context.Context, tx repository.Tx, m *model.Member) error {
	j, release, err := r.s.access(tx, true)
	if err != nil {
		return err
	}
	defer release()

	if _, ok := r.s.members[m.AccountID]; ok {
		return domain.ErrAlreadyExists
	}
	r.s.members[m.AccountID] = *m
	if j != nil {
		id := m.AccountID
		j.record(func() { delete(r.s.members, id) })
	}
	return nil
}

func (r *memberRepo) FindByAccount(ctx context.Context, tx repository.Tx, account model.AccountID) (*model.Member, error) {
	_, release, err := r.s.access(tx, false)
	if err != nil {
		return nil, err
	}
	defer release()

	m, ok := r.s.members[account]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &m, nil
}

func (r *memberRepo) Count(ctx context.Context, tx repository.Tx) (uint64, error) {
	_, release, err := r.s.access(tx, false)
	if err != nil {
		return 0, err
	}
	defer release()
	return uint64(len(r.s.members)), nil
}

// -----------------------------
// Ownership
// -----------------------------

type ownershipRepo struct{ s *Store }

func (r *ownershipRepo) AddTicket(ctx context.Context, tx repository.Tx, account model.AccountID, code model.TicketCode) error {
	j, release, err := r.s.access(tx, true)
	if err != nil {
		return err
	}
	defer release()

	if _, taken := r.s.ownerOf[code]; taken {
		return domain.ErrAlreadyExists
	}
	set, existed := r.s.owned[account]
	if !existed {
		set = make(map[model.TicketCode]struct{})
		r.s.owned[account] = set
	}
	set[code] = struct{}{}
	r.s.ownerOf[code] = account
	if j != nil {
		j.record(func() {
			delete(set, code)
			delete(r.s.ownerOf, code)
			if !existed {
				delete(r.s.owned, account)
			}
		})
	}
	return nil
}

func (r *ownershipRepo) ListTickets(ctx context.Context, tx repository.Tx, account model.AccountID) ([]model.TicketCode, error) {
	_, release, err := r.s.access(tx, false)
	if err != nil {
		return nil, err
	}
	defer release()
	return sortedCodes(r.s.owned[account]), nil
}

func (r *ownershipRepo) OwnerOf(ctx context.Context, tx repository.Tx, code model.TicketCode) (model.AccountID, error) {
	_, release, err := r.s.access(tx, false)
	if err != nil {
		return "", err
	}
	defer release()

	acct, ok := r.s.ownerOf[code]
	if !ok {
		return "", domain.ErrNotFound
	}
	return acct, nil
}

func (r *ownershipRepo) Count(ctx context.Context, tx repository.Tx) (uint64, error) {
	_, release, err := r.s.access(tx, false)
	if err != nil {
		return 0, err
	}
	defer release()
	return uint64(len(r.s.ownerOf)), nil
}

// -----------------------------
// Admins & ledger state
// -----------------------------

type adminRepo struct{ s *Store }

func (r *adminRepo) Add(ctx context.Context, tx repository.Tx, account model.AccountID) error {
	j, release, err := r.s.access(tx, true)
	if err != nil {
		return err
	}
	defer release()

	if _, ok := r.s.admins[account]; ok {
		return nil
	}
	r.s.admins[account] = struct{}{}
	if j != nil {
		j.record(func() { delete(r.s.admins, account) })
	}
	return nil
}

func (r *adminRepo) Contains(ctx context.Context, tx repository.Tx, account model.AccountID) (bool, error) {
	_, release, err := r.s.access(tx, false)
	if err != nil {
		return false, err
	}
	defer release()
	_, ok := r.s.admins[account]
	return ok, nil
}

func (r *adminRepo) List(ctx context.Context, tx repository.Tx) ([]model.AccountID, error) {
	_, release, err := r.s.access(tx, false)
	if err != nil {
		return nil, err
	}
	defer release()

	out := make([]model.AccountID, 0, len(r.s.admins))
	for a := range r.s.admins {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

type stateRepo struct{ s *Store }

func (r *stateRepo) Load(ctx context.Context, tx repository.Tx) (*model.LedgerState, error) {
	_, release, err := r.s.access(tx, false)
	if err != nil {
		return nil, err
	}
	defer release()

	if r.s.state == nil {
		return nil, domain.ErrNotFound
	}
	st := *r.s.state
	st.TicketCount = r.s.ticketCount
	return &st, nil
}

func (r *stateRepo) Init(ctx context.Context, tx repository.Tx, owner model.AccountID, schemaVersion int) error {
	j, release, err := r.s.access(tx, true)
	if err != nil {
		return err
	}
	defer release()

	if r.s.state != nil {
		return domain.ErrAlreadyExists
	}
	r.s.state = &model.LedgerState{Owner: owner, Price: decimal.Zero, SchemaVersion: schemaVersion}
	if j != nil {
		j.record(func() { r.s.state = nil })
	}
	return nil
}

func (r *stateRepo) SetPrice(ctx context.Context, tx repository.Tx, price decimal.Decimal) error {
	j, release, err := r.s.access(tx, true)
	if err != nil {
		return err
	}
	defer release()

	if r.s.state == nil {
		return domain.ErrNotFound
	}
	prev := r.s.state.Price
	r.s.state.Price = price
	if j != nil {
		j.record(func() { r.s.state.Price = prev })
	}
	return nil
}

// -----------------------------
// Purchases
// -----------------------------

type purchaseRepo struct{ s *Store }

func (r *purchaseRepo) Append(ctx context.Context, tx repository.Tx, p *model.Purchase) error {
	j, release, err := r.s.access(tx, true)
	if err != nil {
		return err
	}
	defer release()

	n := len(r.s.purchases)
	r.s.purchases = append(r.s.purchases, *p)
	if j != nil {
		j.record(func() { r.s.purchases = r.s.purchases[:n] })
	}
	return nil
}

func (r *purchaseRepo) ListByBuyer(ctx context.Context, tx repository.Tx, buyer model.AccountID) ([]*model.Purchase, error) {
	_, release, err := r.s.access(tx, false)
	if err != nil {
		return nil, err
	}
	defer release()

	out := make([]*model.Purchase, 0)
	for i := range r.s.purchases {
		if r.s.purchases[i].Buyer == buyer {
			p := r.s.purchases[i]
			out = append(out, &p)
		}
	}
	return out, nil
}
