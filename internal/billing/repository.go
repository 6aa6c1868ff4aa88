package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/parkdesk/parkdesk/internal/platform/db"
)

// advisoryLockKey serialises billing cycles across processes sharing the database.
const advisoryLockKey int64 = 0x5041524b42494c4c

// Repository is the PostgreSQL implementation of TxStore.
type Repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository over pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool, pool: pool}
}

// WithTx runs fn in a transaction holding the billing advisory lock. Read
// committed so statements issued after the lock see a previous cycle's commit.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, Store) error) error {
	return db.WithTxOptions(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, advisoryLockKey); err != nil {
			return fmt.Errorf("advisory lock: %w", err)
		}
		return fn(ctx, &Repository{db: tx, pool: r.pool})
	})
}

const listEligibleMonthlyPermitsSQL = `
	SELECT p.id, p.permit_number, p.car_id, c.client_id, p.permit_type,
	       p.start_date, p.end_date, p.daily_rate, p.total_cost, p.active
	FROM permits p
	JOIN cars c ON c.id = p.car_id
	JOIN clients cl ON cl.id = c.client_id
	WHERE p.permit_type = 'monthly' AND cl.active = TRUE
	ORDER BY p.id
	FOR UPDATE OF p`

const insertUnpaidPaymentSQL = `
	INSERT INTO payments (permit_id, client_id, amount, is_paid, billing_period, created_at, updated_at)
	VALUES ($1, $2, $3, FALSE, $4, $5, $5)`

func (r *Repository) ListEligibleMonthlyPermits(ctx context.Context, _ time.Time) ([]Permit, error) {
	rows, err := r.db.Query(ctx, listEligibleMonthlyPermitsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var permits []Permit
	for rows.Next() {
		var p Permit
		var permitType string
		if err := rows.Scan(
			&p.ID, &p.PermitNumber, &p.CarID, &p.ClientID, &permitType,
			&p.StartDate, &p.EndDate, &p.DailyRate, &p.TotalCost, &p.Active,
		); err != nil {
			return nil, err
		}
		p.Type = PermitType(permitType)
		permits = append(permits, p)
	}
	return permits, rows.Err()
}

func (r *Repository) ExtendPermit(ctx context.Context, id int64, newEndDate time.Time, newTotalCost decimal.Decimal) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE permits
		SET end_date = $2, total_cost = $3, updated_at = NOW()
		WHERE id = $1`,
		id, newEndDate, newTotalCost,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", ErrPermitNotFound, id)
	}
	return nil
}

func (r *Repository) SumPaymentsForPermit(ctx context.Context, id int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE permit_id = $1`, id,
	).Scan(&total)
	return total, err
}

func (r *Repository) HasPaymentInPeriod(ctx context.Context, permitID int64, period Period) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM payments WHERE permit_id = $1 AND billing_period = $2)`,
		permitID, string(period),
	).Scan(&exists)
	return exists, err
}

func (r *Repository) InsertUnpaidPayment(ctx context.Context, invoice Invoice) error {
	_, err := r.db.Exec(ctx, insertUnpaidPaymentSQL,
		invoice.PermitID, invoice.ClientID, invoice.Amount, string(invoice.Period), invoice.IssuedAt,
	)
	return insertError(err, invoice)
}

// insertError maps the (permit_id, billing_period) unique index violation to ErrDuplicateInvoice.
func insertError(err error, invoice Invoice) error {
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: permit %d period %s", ErrDuplicateInvoice, invoice.PermitID, invoice.Period)
	}
	return err
}
