package permits

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/parkdesk/parkdesk/internal/billing"
	"github.com/parkdesk/parkdesk/internal/platform/db"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	List(ctx context.Context) ([]Summary, error)
	CarOwner(ctx context.Context, carID int64) (int64, error)
	Create(ctx context.Context, p Permit) (*Permit, error)
	InsertPayment(ctx context.Context, permitID, clientID int64, amount decimal.Decimal, issuedAt time.Time) error
	DeletePayments(ctx context.Context, permitID int64) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

func (r *repository) List(ctx context.Context) ([]Summary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT p.id, p.permit_number, p.car_id, p.permit_type, p.start_date, p.end_date,
		       p.daily_rate, p.total_cost, p.active, p.created_at, p.updated_at,
		       c.license_plate, cl.first_name, cl.last_name, cl.active
		FROM permits p
		JOIN cars c ON c.id = p.car_id
		JOIN clients cl ON cl.id = c.client_id
		ORDER BY p.created_at DESC, p.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		var permitType string
		if err := rows.Scan(&s.ID, &s.PermitNumber, &s.CarID, &permitType, &s.StartDate.Time, &s.EndDate.Time,
			&s.DailyRate, &s.TotalCost, &s.Active, &s.CreatedAt, &s.UpdatedAt,
			&s.LicensePlate, &s.FirstName, &s.LastName, &s.ClientActive); err != nil {
			return nil, err
		}
		s.PermitType = billing.PermitType(permitType)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repository) CarOwner(ctx context.Context, carID int64) (int64, error) {
	var clientID int64
	err := r.db.QueryRow(ctx, `SELECT client_id FROM cars WHERE id = $1`, carID).Scan(&clientID)
	if db.IsNoRows(err) {
		return 0, ErrUnknownCar
	}
	return clientID, err
}

func (r *repository) Create(ctx context.Context, p Permit) (*Permit, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO permits (permit_number, car_id, permit_type, start_date, end_date, daily_rate, total_cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, active, created_at, updated_at`,
		p.PermitNumber, p.CarID, string(p.PermitType), p.StartDate.Time, p.EndDate.Time, p.DailyRate, p.TotalCost,
	).Scan(&p.ID, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) InsertPayment(ctx context.Context, permitID, clientID int64, amount decimal.Decimal, issuedAt time.Time) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO payments (permit_id, client_id, amount, is_paid, billing_period, created_at, updated_at)
		VALUES ($1, $2, $3, FALSE, $4, $5, $5)`,
		permitID, clientID, amount, string(billing.PeriodOf(issuedAt)), issuedAt,
	)
	return err
}

func (r *repository) DeletePayments(ctx context.Context, permitID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM payments WHERE permit_id = $1`, permitID)
	return err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM permits WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
