package coupon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-kupon/internal/engine"
)

// ErrNotFound is returned when no coupon exists for the given id.
var ErrNotFound = errors.New("coupon not found")

const couponColumns = "id, kind, details, is_active, expires_at, created_at, updated_at"

// Store persists coupon records in Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

// CreateParams carries the fields of a new coupon.
type CreateParams struct {
	Kind      engine.Kind
	Details   json.RawMessage
	ExpiresAt *time.Time
}

// UpdateParams carries a partial update; nil fields are left untouched.
type UpdateParams struct {
	Kind      *engine.Kind
	Details   json.RawMessage
	IsActive  *bool
	ExpiresAt *time.Time
}

// Create inserts a coupon and returns the stored record.
func (s *Store) Create(ctx context.Context, arg CreateParams) (Coupon, error) {
	row := s.Pool.QueryRow(ctx,
		`INSERT INTO coupons (kind, details, expires_at) VALUES ($1, $2, $3) RETURNING `+couponColumns,
		string(arg.Kind), arg.Details, timestamptz(arg.ExpiresAt))
	return scanCoupon(row)
}

// Get fetches a coupon by id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Coupon, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE id = $1`, id)
	return scanCoupon(row)
}

// List returns a page of coupons ordered by creation time plus the total count.
func (s *Store) List(ctx context.Context, limit, offset int32) ([]Coupon, int64, error) {
	var total int64
	if err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM coupons`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count coupons: %w", err)
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()
	coupons, err := collectCoupons(rows)
	if err != nil {
		return nil, 0, err
	}
	return coupons, total, nil
}

// ListActive returns every active coupon. Expiry is checked by the caller so
// "active but expired" records can be reported with a reason.
func (s *Store) ListActive(ctx context.Context) ([]Coupon, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE is_active ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list active coupons: %w", err)
	}
	defer rows.Close()
	return collectCoupons(rows)
}

// Update applies a partial update and returns the stored record.
func (s *Store) Update(ctx context.Context, id uuid.UUID, arg UpdateParams) (Coupon, error) {
	var kind *string
	if arg.Kind != nil {
		v := string(*arg.Kind)
		kind = &v
	}
	row := s.Pool.QueryRow(ctx,
		`UPDATE coupons SET
			kind = COALESCE($2, kind),
			details = COALESCE($3, details),
			is_active = COALESCE($4, is_active),
			expires_at = COALESCE($5, expires_at),
			updated_at = now()
		WHERE id = $1
		RETURNING `+couponColumns,
		id, kind, arg.Details, arg.IsActive, timestamptz(arg.ExpiresAt))
	return scanCoupon(row)
}

// Delete removes a coupon by id.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCoupon(row pgx.Row) (Coupon, error) {
	var (
		c       Coupon
		kind    string
		expires pgtype.Timestamptz
	)
	if err := row.Scan(&c.ID, &kind, &c.Details, &c.IsActive, &expires, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return Coupon{}, mapStoreError(err)
	}
	c.Kind = engine.Kind(kind)
	if expires.Valid {
		t := expires.Time.UTC()
		c.ExpiresAt = &t
	}
	return c, nil
}

func collectCoupons(rows pgx.Rows) ([]Coupon, error) {
	var out []Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan coupons: %w", err)
	}
	return out, nil
}

func mapStoreError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	// 23514: the kind CHECK constraint, reached when a raw update bypasses
	// payload validation.
	if errors.As(err, &pgErr) && pgErr.Code == "23514" {
		return fmt.Errorf("%w: %s", ErrInvalidDetails, pgErr.ConstraintName)
	}
	return err
}

func timestamptz(v *time.Time) pgtype.Timestamptz {
	if v == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: v.UTC(), Valid: true}
}
