package cars

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/parkdesk/parkdesk/internal/platform/db"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	List(ctx context.Context, filter ListFilter) ([]Summary, error)
	ClientExists(ctx context.Context, clientID int64) (bool, error)
	Create(ctx context.Context, req CreateCarRequest) (*Car, error)
	DeletePayments(ctx context.Context, carID int64) error
	DeletePermits(ctx context.Context, carID int64) error
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

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Summary, error) {
	var conditions []string
	args := []any{filter.AsOf}
	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		conditions = append(conditions, fmt.Sprintf("c.client_id = $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT c.id, c.client_id, c.license_plate, c.make, c.model, c.color, c.year,
		       c.created_at, c.updated_at, cl.first_name, cl.last_name,
		       (SELECT COUNT(*) FROM payments p WHERE p.client_id = c.client_id AND NOT p.is_paid),
		       EXISTS (SELECT 1 FROM permits pm WHERE pm.car_id = c.id AND pm.end_date >= $1)
		FROM cars c
		JOIN clients cl ON cl.id = c.client_id
		%s
		ORDER BY c.license_plate`, where)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		var color pgtype.Text
		var year pgtype.Int4
		if err := rows.Scan(&s.ID, &s.ClientID, &s.LicensePlate, &s.Make, &s.Model, &color, &year,
			&s.CreatedAt, &s.UpdatedAt, &s.FirstName, &s.LastName,
			&s.OutstandingPayments, &s.HasActivePermit); err != nil {
			return nil, err
		}
		if color.Valid {
			s.Color = &color.String
		}
		if year.Valid {
			s.Year = &year.Int32
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repository) ClientExists(ctx context.Context, clientID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM clients WHERE id = $1)`, clientID).Scan(&exists)
	return exists, err
}

func (r *repository) Create(ctx context.Context, req CreateCarRequest) (*Car, error) {
	var c Car
	var color pgtype.Text
	var year pgtype.Int4
	err := r.db.QueryRow(ctx, `
		INSERT INTO cars (client_id, license_plate, make, model, color, year)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, client_id, license_plate, make, model, color, year, created_at, updated_at`,
		req.ClientID, req.LicensePlate, req.Make, req.Model, req.Color, req.Year,
	).Scan(&c.ID, &c.ClientID, &c.LicensePlate, &c.Make, &c.Model, &color, &year, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	if color.Valid {
		c.Color = &color.String
	}
	if year.Valid {
		c.Year = &year.Int32
	}
	return &c, nil
}

func (r *repository) DeletePayments(ctx context.Context, carID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM payments WHERE permit_id IN (SELECT id FROM permits WHERE car_id = $1)`, carID)
	return err
}

func (r *repository) DeletePermits(ctx context.Context, carID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM permits WHERE car_id = $1`, carID)
	return err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM cars WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
