package reports

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/parkdesk/parkdesk/internal/platform/db"
)

type Repository interface {
	ClientReports(ctx context.Context, rng Range) ([]ClientReport, error)
}

type repository struct {
	db db.DBTX
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

// ClientReports lists every client. The range filter sits in the permit join
// so clients without matching permits still appear with zero totals.
func (r *repository) ClientReports(ctx context.Context, rng Range) ([]ClientReport, error) {
	query := `
		SELECT cl.id, cl.first_name, cl.last_name, cl.email, cl.client_type,
		       COUNT(DISTINCT c.id),
		       COUNT(DISTINCT per.id),
		       COALESCE(SUM(pay.amount) FILTER (WHERE pay.is_paid), 0),
		       COALESCE(SUM(pay.amount) FILTER (WHERE NOT pay.is_paid), 0)
		FROM clients cl
		LEFT JOIN cars c ON c.client_id = cl.id
		LEFT JOIN permits per ON per.car_id = c.id`
	var args []any
	if !rng.IsZero() {
		query += ` AND per.start_date BETWEEN $1 AND $2`
		args = append(args, rng.Start.Time, rng.End.Time)
	}
	query += `
		LEFT JOIN payments pay ON pay.permit_id = per.id
		GROUP BY cl.id
		ORDER BY cl.first_name, cl.id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ClientReport
	for rows.Next() {
		var rep ClientReport
		if err := rows.Scan(&rep.ID, &rep.FirstName, &rep.LastName, &rep.Email, &rep.ClientType,
			&rep.CarCount, &rep.PermitCount, &rep.TotalPaid, &rep.TotalPending); err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}
