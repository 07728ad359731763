package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cimillas/storefront/internal/clock"
	"github.com/cimillas/storefront/internal/domain"
)

type ReservationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetVariantForUpdate(ctx context.Context, variantID string) (domain.Variant, error)
	SumActiveReservations(ctx context.Context, variantID string, now time.Time) (int, error)
	CreateReservation(ctx context.Context, r domain.Reservation) error
	GetReservationForUpdate(ctx context.Context, reservationID string) (domain.Reservation, error)
	UpdateReservationStatus(ctx context.Context, reservationID string, status domain.ReservationStatus) error
	AddStock(ctx context.Context, variantID string, delta int) error
	CancelActiveByOwner(ctx context.Context, userID, sessionID string) (int, error)
	ExpireDue(ctx context.Context, now time.Time) (int, error)
}

type ReservationService struct {
	repo  ReservationRepository
	clock clock.Clock
	ttl   time.Duration
}

const defaultReservationTTL = 30 * time.Minute

func NewReservationService(repo ReservationRepository, clk clock.Clock, opts ...ReservationServiceOption) *ReservationService {
	svc := &ReservationService{
		repo:  repo,
		clock: clk,
		ttl:   defaultReservationTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ReservationServiceOption func(*ReservationService)

// WithReservationTTL overrides the default TTL for new reservations.
func WithReservationTTL(d time.Duration) ReservationServiceOption {
	return func(s *ReservationService) {
		if d > 0 {
			s.ttl = d
		}
	}
}

type CreateReservationInput struct {
	VariantID string
	Quantity  int
	SessionID string
	UserID    string
	TTL       time.Duration // zero means the service default
}

// Create places a time-bounded hold on variant stock. The availability check
// and the insert run in one transaction with the variant row locked, so two
// concurrent reservers cannot both claim the last unit.
func (s *ReservationService) Create(ctx context.Context, in CreateReservationInput) (domain.Reservation, error) {
	if in.Quantity <= 0 {
		return domain.Reservation{}, domain.ErrInvalidQuantity
	}
	if in.SessionID == "" {
		return domain.Reservation{}, domain.ErrSessionRequired
	}

	ttl := s.ttl
	if in.TTL > 0 {
		ttl = in.TTL
	}

	now := s.clock.Now()
	var result domain.Reservation

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		variant, err := s.repo.GetVariantForUpdate(txCtx, in.VariantID)
		if err != nil {
			return err
		}
		held, err := s.repo.SumActiveReservations(txCtx, in.VariantID, now)
		if err != nil {
			return err
		}

		if in.Quantity > variant.Stock-held {
			return domain.ErrInsufficientStock
		}

		res := domain.Reservation{
			ID:        uuid.NewString(),
			VariantID: in.VariantID,
			Quantity:  in.Quantity,
			SessionID: in.SessionID,
			UserID:    in.UserID,
			Status:    domain.ReservationStatusActive,
			ExpiresAt: now.Add(ttl),
			CreatedAt: now,
		}
		if err := s.repo.CreateReservation(txCtx, res); err != nil {
			return err
		}

		result = res
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return result, nil
}

// Convert turns an active reservation into a permanent stock deduction. This
// is the only path by which a hold becomes a physical decrement. A
// reservation found expired is flipped to EXPIRED; the flip is committed even
// though the conversion itself is reported as failed.
func (s *ReservationService) Convert(ctx context.Context, reservationID string) (domain.Reservation, error) {
	now := s.clock.Now()
	var result domain.Reservation
	expired := false

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		res, err := s.repo.GetReservationForUpdate(txCtx, reservationID)
		if err != nil {
			return err
		}
		if res.Status != domain.ReservationStatusActive {
			return domain.ErrReservationNotActive
		}
		if res.ExpiredAt(now) {
			if err := s.repo.UpdateReservationStatus(txCtx, res.ID, domain.ReservationStatusExpired); err != nil {
				return err
			}
			expired = true
			res.Status = domain.ReservationStatusExpired
			result = res
			return nil
		}

		variant, err := s.repo.GetVariantForUpdate(txCtx, res.VariantID)
		if err != nil {
			return err
		}
		if variant.Stock < res.Quantity {
			return domain.ErrInsufficientStock
		}
		if err := s.repo.AddStock(txCtx, res.VariantID, -res.Quantity); err != nil {
			return err
		}
		if err := s.repo.UpdateReservationStatus(txCtx, res.ID, domain.ReservationStatusConverted); err != nil {
			return err
		}

		res.Status = domain.ReservationStatusConverted
		result = res
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	if expired {
		return result, domain.ErrReservationExpired
	}
	return result, nil
}

// Cancel releases an active hold. Terminal reservations are left untouched,
// so retried cancellations from duplicate network calls are safe. No stock
// mutation is needed: active reservations never touched physical stock.
func (s *ReservationService) Cancel(ctx context.Context, reservationID string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		res, err := s.repo.GetReservationForUpdate(txCtx, reservationID)
		if err != nil {
			return err
		}
		if res.Status != domain.ReservationStatusActive {
			return nil
		}
		return s.repo.UpdateReservationStatus(txCtx, res.ID, domain.ReservationStatusCancelled)
	})
}

// CancelAll bulk-cancels active reservations matching the given owner keys.
// At least one key is required.
func (s *ReservationService) CancelAll(ctx context.Context, userID, sessionID string) (int, error) {
	if userID == "" && sessionID == "" {
		return 0, domain.ErrOwnerKeyRequired
	}
	return s.repo.CancelActiveByOwner(ctx, userID, sessionID)
}

// CleanupExpired flips overdue ACTIVE reservations to EXPIRED and returns how
// many were flipped. Safe to run concurrently with Create and Convert;
// Convert re-checks expiry under its own lock.
func (s *ReservationService) CleanupExpired(ctx context.Context) (int, error) {
	return s.repo.ExpireDue(ctx, s.clock.Now())
}
