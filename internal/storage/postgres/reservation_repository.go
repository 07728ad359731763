package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cimillas/storefront/internal/domain"
)

type ReservationRepository struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

func (r *ReservationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *ReservationRepository) GetVariantForUpdate(ctx context.Context, variantID string) (domain.Variant, error) {
	const query = `SELECT id, product_id, price, stock, created_at FROM variants WHERE id = $1 FOR UPDATE`

	var v domain.Variant
	err := r.queryRow(ctx, query, variantID).Scan(&v.ID, &v.ProductID, &v.Price, &v.Stock, &v.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Variant{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Variant{}, domain.ErrVariantNotFound
		}
		return domain.Variant{}, fmt.Errorf("get variant: %w", err)
	}
	return v, nil
}

func (r *ReservationRepository) SumActiveReservations(ctx context.Context, variantID string, now time.Time) (int, error) {
	const query = `
SELECT COALESCE(SUM(quantity), 0)
FROM reservations
WHERE variant_id = $1 AND status = 'ACTIVE' AND expires_at > $2`

	var total int
	if err := r.queryRow(ctx, query, variantID, now).Scan(&total); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("sum active reservations: %w", err)
	}
	return total, nil
}

func (r *ReservationRepository) CreateReservation(ctx context.Context, res domain.Reservation) error {
	const stmt = `
INSERT INTO reservations (id, variant_id, quantity, session_id, user_id, status, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.exec(ctx, stmt,
		res.ID,
		res.VariantID,
		res.Quantity,
		res.SessionID,
		res.UserID,
		res.Status,
		res.ExpiresAt,
		res.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isForeignKeyViolation(err) {
			return domain.ErrVariantNotFound
		}
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

func (r *ReservationRepository) GetReservationForUpdate(ctx context.Context, reservationID string) (domain.Reservation, error) {
	const query = `
SELECT id, variant_id, quantity, session_id, user_id, status, expires_at, created_at
FROM reservations
WHERE id = $1
FOR UPDATE`

	var res domain.Reservation
	var status string
	err := r.queryRow(ctx, query, reservationID).
		Scan(&res.ID, &res.VariantID, &res.Quantity, &res.SessionID, &res.UserID, &status, &res.ExpiresAt, &res.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Reservation{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, fmt.Errorf("get reservation: %w", err)
	}
	res.Status = domain.ReservationStatus(status)
	return res, nil
}

func (r *ReservationRepository) UpdateReservationStatus(ctx context.Context, reservationID string, status domain.ReservationStatus) error {
	const stmt = `UPDATE reservations SET status = $2 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, reservationID, status)
	if err != nil {
		return fmt.Errorf("update reservation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

func (r *ReservationRepository) AddStock(ctx context.Context, variantID string, delta int) error {
	const stmt = `UPDATE variants SET stock = stock + $2 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, variantID, delta)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isCheckViolation(err) {
			return domain.ErrInsufficientStock
		}
		return fmt.Errorf("add stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVariantNotFound
	}
	return nil
}

// CancelActiveByOwner flips every ACTIVE reservation owned by the given user
// and/or session to CANCELLED. Empty keys are ignored; the caller guarantees
// at least one is set.
func (r *ReservationRepository) CancelActiveByOwner(ctx context.Context, userID, sessionID string) (int, error) {
	const stmt = `
UPDATE reservations
SET status = 'CANCELLED'
WHERE status = 'ACTIVE'
  AND (($1 <> '' AND user_id = $1) OR ($2 <> '' AND session_id = $2))`

	tag, err := r.exec(ctx, stmt, userID, sessionID)
	if err != nil {
		return 0, fmt.Errorf("cancel reservations by owner: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ExpireDue flips overdue ACTIVE reservations to EXPIRED in a single
// statement, so it cannot race a concurrent conversion into a double flip.
func (r *ReservationRepository) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	const stmt = `UPDATE reservations SET status = 'EXPIRED' WHERE status = 'ACTIVE' AND expires_at < $1`

	tag, err := r.exec(ctx, stmt, now)
	if err != nil {
		return 0, fmt.Errorf("expire reservations: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *ReservationRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *ReservationRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
