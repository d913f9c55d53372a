package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"event-ticket-ledger/internal/domain"
	"event-ticket-ledger/internal/domain/model"
	"event-ticket-ledger/internal/domain/ports/repository"
)

var _ repository.TicketRepository = (*ticketRepo)(nil)

type ticketRepo struct {
	pool *pgxpool.Pool
}

func NewTicketRepo(pool *pgxpool.Pool) *ticketRepo {
	return &ticketRepo{pool: pool}
}

// Append bumps ledger_state.ticket_count and inserts the new range. The counter row stays
// locked until commit, so concurrent issuers get disjoint, contiguous ranges.
func (r *ticketRepo) Append(ctx context.Context, tx repository.Tx, count int, at time.Time) ([]*model.Ticket, error) {
	if err := model.ValidateIssueCount(count); err != nil {
		return nil, err
	}
	var batch []*model.Ticket
	err := withLocalTx(ctx, r.pool, tx, func(t pgx.Tx) error {
		var last int64
		err := t.QueryRow(ctx, `UPDATE ledger_state SET ticket_count = ticket_count + $1 WHERE id = 1 RETURNING ticket_count`, count).Scan(&last)
		if err == pgx.ErrNoRows {
			return domain.ErrLedgerNotInitialized
		}
		if err != nil {
			return err
		}
		first := last - int64(count)
		if _, err := t.Exec(ctx, `
INSERT INTO tickets (code, is_used, created_at)
SELECT g, FALSE, $3 FROM generate_series($1::bigint, $2::bigint) AS g`, first+1, last, at); err != nil {
			return err
		}
		batch, err = model.NewTicketBatch(model.TicketCode(first), count, at)
		return err
	})
	if err != nil {
		return nil, wrapErr(err)
	}
	return batch, nil
}

func (r *ticketRepo) FindByCode(ctx context.Context, tx repository.Tx, code model.TicketCode) (*model.Ticket, error) {
	q := `SELECT code, is_used, created_at FROM tickets WHERE code = $1`
	if inTx(tx) {
		q += ` FOR UPDATE`
	}
	var (
		c int64
		t model.Ticket
	)
	err := pickRow(ctx, r.pool, tx, q, int64(code)).Scan(&c, &t.IsUsed, &t.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr(err)
	}
	t.Code = model.TicketCode(c)
	return &t, nil
}

// MarkUsed is a compare-and-swap on is_used.
func (r *ticketRepo) MarkUsed(ctx context.Context, tx repository.Tx, code model.TicketCode) error {
	tag, err := execSQL(ctx, r.pool, tx, `UPDATE tickets SET is_used = TRUE WHERE code = $1 AND is_used = FALSE`, int64(code))
	if err != nil {
		return wrapErr(err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	t, err := r.FindByCode(ctx, tx, code)
	if err != nil {
		return err
	}
	if t.IsUsed {
		return domain.ErrTicketAlreadyUsed
	}
	return domain.ErrOperationFailed
}

func (r *ticketRepo) Count(ctx context.Context, tx repository.Tx) (uint64, error) {
	var n int64
	err := pickRow(ctx, r.pool, tx, `SELECT COALESCE((SELECT ticket_count FROM ledger_state WHERE id = 1), 0)`).Scan(&n)
	if err != nil {
		return 0, wrapErr(err)
	}
	return uint64(n), nil
}

func (r *ticketRepo) CountUsed(ctx context.Context, tx repository.Tx) (uint64, error) {
	var n int64
	if err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM tickets WHERE is_used`).Scan(&n); err != nil {
		return 0, wrapErr(err)
	}
	return uint64(n), nil
}
