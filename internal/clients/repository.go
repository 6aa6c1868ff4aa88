package clients

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/parkdesk/parkdesk/internal/platform/db"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	List(ctx context.Context, asOf time.Time) ([]Summary, error)
	Get(ctx context.Context, id int64) (*Client, error)
	Create(ctx context.Context, in ClientInput) (*Client, error)
	Update(ctx context.Context, id int64, in ClientInput) (*Client, error)
	SetActive(ctx context.Context, id int64, active bool) error
	DeletePayments(ctx context.Context, clientID int64) error
	DeletePermits(ctx context.Context, clientID int64) error
	DeleteCars(ctx context.Context, clientID int64) error
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

const clientColumns = `id, first_name, last_name, email, phone, client_type, active, created_at, updated_at`

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	var phone pgtype.Text
	var clientType string
	if err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &phone, &clientType,
		&c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if phone.Valid {
		c.Phone = &phone.String
	}
	c.ClientType = ClientType(clientType)
	return &c, nil
}

func (r *repository) List(ctx context.Context, asOf time.Time) ([]Summary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.first_name, c.last_name, c.email, c.phone, c.client_type, c.active,
		       c.created_at, c.updated_at,
		       COALESCE(BOOL_OR(p.end_date >= $1), FALSE) AS has_active_permit
		FROM clients c
		LEFT JOIN cars car ON car.client_id = c.id
		LEFT JOIN permits p ON p.car_id = car.id
		GROUP BY c.id
		ORDER BY c.first_name, c.id`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		var phone pgtype.Text
		var clientType string
		if err := rows.Scan(&s.ID, &s.FirstName, &s.LastName, &s.Email, &phone, &clientType,
			&s.Active, &s.CreatedAt, &s.UpdatedAt, &s.HasActivePermit); err != nil {
			return nil, err
		}
		if phone.Valid {
			s.Phone = &phone.String
		}
		s.ClientType = ClientType(clientType)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (*Client, error) {
	return scanClient(r.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
}

func (r *repository) Create(ctx context.Context, in ClientInput) (*Client, error) {
	c, err := scanClient(r.db.QueryRow(ctx, `
		INSERT INTO clients (first_name, last_name, email, phone, client_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+clientColumns,
		in.FirstName, in.LastName, in.Email, in.Phone, string(in.ClientType),
	))
	if db.IsUniqueViolation(err) {
		return nil, ErrAlreadyExists
	}
	return c, err
}

func (r *repository) Update(ctx context.Context, id int64, in ClientInput) (*Client, error) {
	c, err := scanClient(r.db.QueryRow(ctx, `
		UPDATE clients
		SET first_name = $2, last_name = $3, email = $4, phone = $5, client_type = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING `+clientColumns,
		id, in.FirstName, in.LastName, in.Email, in.Phone, string(in.ClientType),
	))
	if db.IsUniqueViolation(err) {
		return nil, ErrAlreadyExists
	}
	return c, err
}

func (r *repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE clients SET active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) DeletePayments(ctx context.Context, clientID int64) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM payments
		WHERE client_id = $1
		   OR permit_id IN (SELECT p.id FROM permits p JOIN cars c ON c.id = p.car_id WHERE c.client_id = $1)`,
		clientID)
	return err
}

func (r *repository) DeletePermits(ctx context.Context, clientID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM permits WHERE car_id IN (SELECT id FROM cars WHERE client_id = $1)`, clientID)
	return err
}

func (r *repository) DeleteCars(ctx context.Context, clientID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM cars WHERE client_id = $1`, clientID)
	return err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
