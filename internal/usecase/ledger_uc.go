package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"event-ticket-ledger/internal/domain"
	"event-ticket-ledger/internal/domain/model"
	"event-ticket-ledger/internal/domain/ports/adapter"
	"event-ticket-ledger/internal/domain/ports/repository"
	ucport "event-ticket-ledger/internal/domain/ports/usecase"
	"event-ticket-ledger/internal/infra/logging"
	"event-ticket-ledger/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Compile-time check
var (
	_ LedgerUseCase      = (*ledgerUC)(nil)
	_ ucport.StatsReader = (*ledgerUC)(nil)
)

// LedgerUseCase is the single entry point of the ticket ledger. Every mutating call runs
// in one transaction; a failed call leaves no observable change.
type LedgerUseCase interface {
	Bootstrap(ctx context.Context, owner model.AccountID) error

	GetOwner(ctx context.Context) (model.AccountID, error)
	SetAdminAccount(ctx context.Context, caller, account model.AccountID) error
	ListAdmins(ctx context.Context) ([]model.AccountID, error)

	IssueTicket(ctx context.Context, caller model.AccountID, count int) ([]*model.Ticket, error)
	GetInfoTicket(ctx context.Context, code model.TicketCode) (*model.Ticket, error)

	Register(ctx context.Context, caller model.AccountID, email string) (model.RegisterResult, error)
	GetMember(ctx context.Context, account model.AccountID) (*model.Member, error)

	SetPriceTicket(ctx context.Context, caller model.AccountID, amount decimal.Decimal) error
	GetPrice(ctx context.Context) (decimal.Decimal, error)

	BuyTicket(ctx context.Context, caller model.AccountID, code model.TicketCode, paid decimal.Decimal) (*model.Purchase, error)
	GetTickets(ctx context.Context, account model.AccountID) ([]model.TicketCode, error)
	ListPurchases(ctx context.Context, account model.AccountID) ([]*model.Purchase, error)

	Stats(ctx context.Context) (*model.Stats, error)
}

// Repositories bundles the store a ledger runs on.
type Repositories struct {
	Tickets   repository.TicketRepository
	Members   repository.MemberRepository
	Ownership repository.OwnershipRepository
	Admins    repository.AdminRepository
	State     repository.LedgerStateRepository
	Purchases repository.PurchaseRepository
}

type LedgerOptions struct {
	// LockWait bounds how long BuyTicket waits for the per-ticket lock.
	LockWait time.Duration
	// RestrictIssue limits IssueTicket to the owner and admins.
	RestrictIssue bool
	// LockBackend labels lock-wait metrics ("redis" or "local").
	LockBackend string
	// Dev disables PII redaction in logs.
	Dev bool
	Now func() time.Time
}

type ledgerUC struct {
	tickets   TicketRegistry
	members   MemberRegistry
	owners    OwnershipIndex
	access    AccessControl
	state     repository.LedgerStateRepository
	purchases repository.PurchaseRepository

	tm     repository.TransactionManager
	locker adapter.Locker
	opts   LedgerOptions
	log    *zerolog.Logger
}

func NewLedgerUseCase(repos Repositories, tm repository.TransactionManager, locker adapter.Locker, opts LedgerOptions, logger *zerolog.Logger) *ledgerUC {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.LockWait <= 0 {
		opts.LockWait = 2 * time.Second
	}
	if opts.LockBackend == "" {
		opts.LockBackend = "local"
	}
	return &ledgerUC{
		tickets:   NewTicketRegistry(repos.Tickets),
		members:   NewMemberRegistry(repos.Members),
		owners:    NewOwnershipIndex(repos.Ownership),
		access:    NewAccessControl(repos.State, repos.Admins),
		state:     repos.State,
		purchases: repos.Purchases,
		tm:        tm,
		locker:    locker,
		opts:      opts,
		log:       logger,
	}
}

var readSnapshot = pgx.TxOptions{IsoLevel: pgx.RepeatableRead}

func loadState(ctx context.Context, repo repository.LedgerStateRepository, tx repository.Tx) (*model.LedgerState, error) {
	st, err := repo.Load(ctx, tx)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrLedgerNotInitialized
	}
	return st, err
}

// Bootstrap creates the ledger on first start: owner, owner-as-admin, schema version.
// On later starts it only verifies the persisted owner and version.
func (uc *ledgerUC) Bootstrap(ctx context.Context, owner model.AccountID) error {
	defer logging.TraceDuration(uc.log, "LedgerUC.Bootstrap")()

	if owner == "" {
		return domain.ErrMissingIdentity
	}
	created := false
	err := uc.tm.WithTx(ctx, repository.Serializable, func(ctx context.Context, tx repository.Tx) error {
		st, err := uc.state.Load(ctx, tx)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			if err := uc.state.Init(ctx, tx, owner, model.SchemaVersion); err != nil {
				return err
			}
			created = true
			return uc.access.AddAdmin(ctx, tx, owner, owner)
		case err != nil:
			return err
		}
		if st.Owner != owner {
			return fmt.Errorf("persisted owner %q, configured %q: %w", st.Owner, owner, domain.ErrOwnerMismatch)
		}
		if st.SchemaVersion != model.SchemaVersion {
			return fmt.Errorf("persisted schema version %d, binary %d: %w", st.SchemaVersion, model.SchemaVersion, domain.ErrSchemaVersion)
		}
		return nil
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("owner", string(owner)).Bool("created", created).Int("schema_version", model.SchemaVersion).Msg("ledger ready")
	return nil
}

func (uc *ledgerUC) GetOwner(ctx context.Context) (model.AccountID, error) {
	defer logging.TraceDuration(uc.log, "LedgerUC.GetOwner")()
	return uc.access.Owner(ctx, repository.NoTX)
}

func (uc *ledgerUC) SetAdminAccount(ctx context.Context, caller, account model.AccountID) error {
	defer logging.TraceDuration(uc.log, "LedgerUC.SetAdminAccount")()

	if account == "" {
		return domain.ErrInvalidAccount
	}
	err := uc.tm.WithTx(ctx, repository.Serializable, func(ctx context.Context, tx repository.Tx) error {
		return uc.access.AddAdmin(ctx, tx, caller, account)
	})
	metrics.IncPrivileged("add_admin", resultLabel(err))
	if err != nil {
		return err
	}
	logging.With(ctx, uc.log).Info().Str("admin", string(account)).Msg("admin added")
	return nil
}

func (uc *ledgerUC) ListAdmins(ctx context.Context) ([]model.AccountID, error) {
	defer logging.TraceDuration(uc.log, "LedgerUC.ListAdmins")()
	return uc.access.Admins(ctx, repository.NoTX)
}

func (uc *ledgerUC) IssueTicket(ctx context.Context, caller model.AccountID, count int) ([]*model.Ticket, error) {
	defer logging.TraceDuration(uc.log, "LedgerUC.IssueTicket")()

	if err := model.ValidateIssueCount(count); err != nil {
		return nil, err
	}
	var batch []*model.Ticket
	err := uc.tm.WithTx(ctx, repository.ReadCommitted, func(ctx context.Context, tx repository.Tx) error {
		if uc.opts.RestrictIssue {
			ok, err := uc.access.IsPrivileged(ctx, tx, caller)
			if err != nil {
				return err
			}
			if !ok {
				return domain.ErrNotAuthorized
			}
		}
		var err error
		batch, err = uc.tickets.Issue(ctx, tx, count, uc.opts.Now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.AddTicketsIssued(len(batch))
	logging.With(ctx, uc.log).Info().
		Int("count", len(batch)).
		Uint64("first", batch[0].Code).
		Uint64("last", batch[len(batch)-1].Code).
		Msg("tickets issued")
	return batch, nil
}

func (uc *ledgerUC) GetInfoTicket(ctx context.Context, code model.TicketCode) (*model.Ticket, error) {
	defer logging.TraceDuration(uc.log, "LedgerUC.GetInfoTicket")()
	return uc.tickets.Get(ctx, repository.NoTX, code)
}

func (uc *ledgerUC) Register(ctx context.Context, caller model.AccountID, email string) (model.RegisterResult, error) {
	defer logging.TraceDuration(uc.log, "LedgerUC.Register")()

	if caller == "" {
		return model.RegisterResult{}, domain.ErrMissingIdentity
	}
	var res model.RegisterResult
	err := uc.tm.WithTx(ctx, repository.Serializable, func(ctx context.Context, tx repository.Tx) error {
		var err error
		res, err = uc.members.Register(ctx, tx, caller, email, uc.opts.Now().UTC())
		return err
	})
	if err != nil {
		metrics.IncRegistration("error")
		return model.RegisterResult{}, err
	}
	if res.Success {
		metrics.IncRegistration("registered")
		logging.With(ctx, uc.log).Info().Str("email", logging.Redact(email, uc.opts.Dev)).Msg("member registered")
	} else {
		metrics.IncRegistration("already")
	}
	return res, nil
}

func (uc *ledgerUC) GetMember(ctx context.Context, account model.AccountID) (*model.Member, error) {
	defer logging.TraceDuration(uc.log, "LedgerUC.GetMember")()
	return uc.members.Get(ctx, repository.NoTX, account)
}

func (uc *ledgerUC) SetPriceTicket(ctx context.Context, caller model.AccountID, amount decimal.Decimal) error {
	defer logging.TraceDuration(uc.log, "LedgerUC.SetPriceTicket")()

	if err := model.ValidateAmount(amount); err != nil {
		return err
	}
	err := uc.tm.WithTx(ctx, repository.ReadCommitted, func(ctx context.Context, tx repository.Tx) error {
		ok, err := uc.access.IsPrivileged(ctx, tx, caller)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrNotAuthorized
		}
		return uc.state.SetPrice(ctx, tx, amount)
	})
	metrics.IncPrivileged("set_price", resultLabel(err))
	if err != nil {
		return err
	}
	logging.With(ctx, uc.log).Info().Str("price", amount.String()).Msg("ticket price updated")
	return nil
}

func (uc *ledgerUC) GetPrice(ctx context.Context) (decimal.Decimal, error) {
	defer logging.TraceDuration(uc.log, "LedgerUC.GetPrice")()
	st, err := loadState(ctx, uc.state, repository.NoTX)
	if err != nil {
		return decimal.Zero, err
	}
	return st.Price, nil
}

// BuyTicket pays for code and assigns it to caller. Marking the ticket used, recording the
// owner and writing the receipt happen in one transaction under a lock keyed by the code.
func (uc *ledgerUC) BuyTicket(ctx context.Context, caller model.AccountID, code model.TicketCode, paid decimal.Decimal) (*model.Purchase, error) {
	defer logging.TraceDuration(uc.log, "LedgerUC.BuyTicket")()
	log := logging.With(ctx, uc.log)

	if caller == "" {
		return nil, domain.ErrMissingIdentity
	}
	if err := model.ValidateAmount(paid); err != nil {
		return nil, err
	}

	// Fail fast on underpayment without contending for the lock.
	price, err := uc.GetPrice(ctx)
	if err != nil {
		return nil, err
	}
	if paid.LessThan(price) {
		metrics.IncPurchase(purchaseLabel(domain.ErrInsufficientPayment))
		return nil, domain.ErrInsufficientPayment
	}

	key := fmt.Sprintf("ticket:%d", code)
	start := time.Now()
	token, err := uc.locker.TryLock(ctx, key, uc.opts.LockWait)
	metrics.ObserveLockWait(uc.opts.LockBackend, err == nil, time.Since(start).Seconds())
	if err != nil {
		metrics.IncPurchase(purchaseLabel(err))
		return nil, err
	}
	defer func() {
		if err := uc.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("unlock failed")
		}
	}()

	var receipt *model.Purchase
	err = uc.tm.WithTx(ctx, repository.Serializable, func(ctx context.Context, tx repository.Tx) error {
		st, err := loadState(ctx, uc.state, tx)
		if err != nil {
			return err
		}
		if paid.LessThan(st.Price) {
			return domain.ErrInsufficientPayment
		}
		if err := uc.tickets.MarkUsed(ctx, tx, code); err != nil {
			return err
		}
		if err := uc.owners.AddTicket(ctx, tx, caller, code); err != nil {
			return err
		}
		receipt = model.NewPurchase(caller, code, paid, st.Price, uc.opts.Now().UTC())
		return uc.purchases.Append(ctx, tx, receipt)
	})
	metrics.IncPurchase(purchaseLabel(err))
	if err != nil {
		if domain.KindOf(err) == domain.KindInternal {
			log.Error().Err(err).Uint64("code", code).Msg("buy ticket failed")
		}
		return nil, err
	}
	metrics.AddRevenue(receipt.Paid.InexactFloat64())
	log.Info().
		Uint64("code", code).
		Str("receipt", receipt.ID).
		Str("paid", receipt.Paid.String()).
		Msg("ticket bought")
	return receipt, nil
}

func (uc *ledgerUC) GetTickets(ctx context.Context, account model.AccountID) ([]model.TicketCode, error) {
	defer logging.TraceDuration(uc.log, "LedgerUC.GetTickets")()
	return uc.owners.ListTickets(ctx, repository.NoTX, account)
}

func (uc *ledgerUC) ListPurchases(ctx context.Context, account model.AccountID) ([]*model.Purchase, error) {
	defer logging.TraceDuration(uc.log, "LedgerUC.ListPurchases")()
	list, err := uc.purchases.ListByBuyer(ctx, repository.NoTX, account)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*model.Purchase{}
	}
	return list, nil
}

// Stats reads every total from one snapshot. Consistent reports whether used tickets and
// ownership entries agree.
func (uc *ledgerUC) Stats(ctx context.Context) (*model.Stats, error) {
	defer logging.TraceDuration(uc.log, "LedgerUC.Stats")()

	var s model.Stats
	err := uc.tm.WithTx(ctx, readSnapshot, func(ctx context.Context, tx repository.Tx) error {
		st, err := loadState(ctx, uc.state, tx)
		if err != nil {
			return err
		}
		s.Price = st.Price
		if s.TicketsIssued, s.TicketsUsed, err = uc.tickets.Totals(ctx, tx); err != nil {
			return err
		}
		if s.TicketsOwned, err = uc.owners.Count(ctx, tx); err != nil {
			return err
		}
		if s.Members, err = uc.members.Count(ctx, tx); err != nil {
			return err
		}
		admins, err := uc.access.Admins(ctx, tx)
		if err != nil {
			return err
		}
		s.Admins = uint64(len(admins))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Consistent = s.TicketsUsed == s.TicketsOwned
	if !s.Consistent {
		uc.log.Error().Uint64("used", s.TicketsUsed).Uint64("owned", s.TicketsOwned).Msg("ledger inconsistent: used tickets and owners disagree")
	}
	return &s, nil
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return string(domain.KindOf(err))
}

func purchaseLabel(err error) string {
	if err == nil {
		return "success"
	}
	return string(domain.KindOf(err))
}
