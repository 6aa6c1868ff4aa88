package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/parkdesk/parkdesk/internal/platform/db"
)

type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Summary, error)
	SetPaid(ctx context.Context, id int64, isPaid bool, paidDate *time.Time) (*Payment, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db db.DBTX
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Summary, error) {
	var conditions []string
	var args []any
	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		conditions = append(conditions, fmt.Sprintf("p.client_id = $%d", len(args)))
	}
	if filter.IsPaid != nil {
		args = append(args, *filter.IsPaid)
		conditions = append(conditions, fmt.Sprintf("p.is_paid = $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT p.id, p.permit_id, p.client_id, p.amount, p.is_paid, p.paid_date, p.billing_period,
		       p.created_at, p.updated_at,
		       per.permit_number, per.total_cost, per.start_date, per.end_date,
		       cl.first_name, cl.last_name
		FROM payments p
		JOIN permits per ON per.id = p.permit_id
		JOIN clients cl ON cl.id = p.client_id
		%s
		ORDER BY p.created_at DESC, p.id DESC`, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		var paidDate pgtype.Timestamptz
		if err := rows.Scan(&s.ID, &s.PermitID, &s.ClientID, &s.Amount, &s.IsPaid, &paidDate, &s.BillingPeriod,
			&s.CreatedAt, &s.UpdatedAt,
			&s.PermitNumber, &s.TotalCost, &s.StartDate.Time, &s.EndDate.Time,
			&s.FirstName, &s.LastName); err != nil {
			return nil, err
		}
		if paidDate.Valid {
			s.PaidDate = &paidDate.Time
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repository) SetPaid(ctx context.Context, id int64, isPaid bool, paidDate *time.Time) (*Payment, error) {
	var p Payment
	var paid pgtype.Timestamptz
	err := r.db.QueryRow(ctx, `
		UPDATE payments SET is_paid = $2, paid_date = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id, permit_id, client_id, amount, is_paid, paid_date, billing_period, created_at, updated_at`,
		id, isPaid, paidDate,
	).Scan(&p.ID, &p.PermitID, &p.ClientID, &p.Amount, &p.IsPaid, &paid, &p.BillingPeriod, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if paid.Valid {
		p.PaidDate = &paid.Time
	}
	return &p, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
