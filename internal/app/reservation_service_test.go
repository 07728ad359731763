package app

import (
	"context"
	"testing"
	"time"

	"github.com/cimillas/storefront/internal/clock"
	"github.com/cimillas/storefront/internal/domain"
)

func TestReservationService_Create(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ttl := 30 * time.Minute

	makeSvc := func(variants []domain.Variant, reservations []domain.Reservation) (*ReservationService, *fakeReservationRepo) {
		repo := newFakeReservationRepo(variants, reservations)
		svc := NewReservationService(repo, clock.NewFixed(now), WithReservationTTL(ttl))
		return svc, repo
	}

	t.Run("creates reservation when stock available", func(t *testing.T) {
		svc, repo := makeSvc(
			[]domain.Variant{{ID: "var-1", Stock: 10}},
			[]domain.Reservation{
				{VariantID: "var-1", Quantity: 3, Status: domain.ReservationStatusActive, ExpiresAt: now.Add(10 * time.Minute)},
			},
		)

		res, err := svc.Create(context.Background(), CreateReservationInput{
			VariantID: "var-1",
			Quantity:  5,
			SessionID: "sess-1",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.ID == "" {
			t.Fatalf("expected reservation ID to be set")
		}
		if res.Status != domain.ReservationStatusActive {
			t.Fatalf("expected status ACTIVE, got %s", res.Status)
		}
		if res.ExpiresAt != now.Add(ttl) {
			t.Fatalf("expected expires_at %v, got %v", now.Add(ttl), res.ExpiresAt)
		}
		if len(repo.reservations) != 2 {
			t.Fatalf("expected 2 reservations in repo, got %d", len(repo.reservations))
		}
	})

	t.Run("fails when active holds exhaust stock", func(t *testing.T) {
		svc, repo := makeSvc(
			[]domain.Variant{{ID: "var-1", Stock: 10}},
			[]domain.Reservation{
				{VariantID: "var-1", Quantity: 8, Status: domain.ReservationStatusActive, ExpiresAt: now.Add(10 * time.Minute)},
			},
		)

		_, err := svc.Create(context.Background(), CreateReservationInput{
			VariantID: "var-1",
			Quantity:  3,
			SessionID: "sess-1",
		})
		if err != domain.ErrInsufficientStock {
			t.Fatalf("expected ErrInsufficientStock, got %v", err)
		}
		if len(repo.reservations) != 1 {
			t.Fatalf("expected reservations unchanged on failure, got %d", len(repo.reservations))
		}
	})

	t.Run("expired holds free stock", func(t *testing.T) {
		svc, _ := makeSvc(
			[]domain.Variant{{ID: "var-1", Stock: 10}},
			[]domain.Reservation{
				{VariantID: "var-1", Quantity: 8, Status: domain.ReservationStatusActive, ExpiresAt: now.Add(-time.Minute)},
			},
		)

		res, err := svc.Create(context.Background(), CreateReservationInput{
			VariantID: "var-1",
			Quantity:  10,
			SessionID: "sess-1",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Quantity != 10 {
			t.Fatalf("expected quantity 10, got %d", res.Quantity)
		}
	})

	t.Run("terminal holds free stock", func(t *testing.T) {
		svc, _ := makeSvc(
			[]domain.Variant{{ID: "var-1", Stock: 5}},
			[]domain.Reservation{
				{VariantID: "var-1", Quantity: 5, Status: domain.ReservationStatusCancelled, ExpiresAt: now.Add(10 * time.Minute)},
			},
		)

		if _, err := svc.Create(context.Background(), CreateReservationInput{
			VariantID: "var-1",
			Quantity:  5,
			SessionID: "sess-1",
		}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		svc, _ := makeSvc([]domain.Variant{{ID: "var-1", Stock: 10}}, nil)
		_, err := svc.Create(context.Background(), CreateReservationInput{
			VariantID: "var-1",
			Quantity:  0,
			SessionID: "sess-1",
		})
		if err != domain.ErrInvalidQuantity {
			t.Fatalf("expected ErrInvalidQuantity, got %v", err)
		}
	})

	t.Run("rejects missing session", func(t *testing.T) {
		svc, _ := makeSvc([]domain.Variant{{ID: "var-1", Stock: 10}}, nil)
		_, err := svc.Create(context.Background(), CreateReservationInput{
			VariantID: "var-1",
			Quantity:  1,
		})
		if err != domain.ErrSessionRequired {
			t.Fatalf("expected ErrSessionRequired, got %v", err)
		}
	})

	t.Run("unknown variant", func(t *testing.T) {
		svc, _ := makeSvc(nil, nil)
		_, err := svc.Create(context.Background(), CreateReservationInput{
			VariantID: "missing",
			Quantity:  1,
			SessionID: "sess-1",
		})
		if err != domain.ErrVariantNotFound {
			t.Fatalf("expected ErrVariantNotFound, got %v", err)
		}
	})
}

func TestReservationService_Convert(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("converts active reservation and decrements stock", func(t *testing.T) {
		repo := newFakeReservationRepo(
			[]domain.Variant{{ID: "var-1", Stock: 10}},
			[]domain.Reservation{
				{ID: "res-1", VariantID: "var-1", Quantity: 4, Status: domain.ReservationStatusActive, ExpiresAt: now.Add(time.Minute)},
			},
		)
		svc := NewReservationService(repo, clock.NewFixed(now))

		res, err := svc.Convert(context.Background(), "res-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Status != domain.ReservationStatusConverted {
			t.Fatalf("expected CONVERTED, got %s", res.Status)
		}
		if got := repo.variants["var-1"].Stock; got != 6 {
			t.Fatalf("expected stock 6 after convert, got %d", got)
		}
	})

	t.Run("expired reservation is flipped and reported", func(t *testing.T) {
		repo := newFakeReservationRepo(
			[]domain.Variant{{ID: "var-1", Stock: 10}},
			[]domain.Reservation{
				{ID: "res-1", VariantID: "var-1", Quantity: 4, Status: domain.ReservationStatusActive, ExpiresAt: now.Add(-time.Second)},
			},
		)
		svc := NewReservationService(repo, clock.NewFixed(now))

		res, err := svc.Convert(context.Background(), "res-1")
		if err != domain.ErrReservationExpired {
			t.Fatalf("expected ErrReservationExpired, got %v", err)
		}
		if res.Status != domain.ReservationStatusExpired {
			t.Fatalf("expected returned status EXPIRED, got %s", res.Status)
		}
		if got := repo.reservations[0].Status; got != domain.ReservationStatusExpired {
			t.Fatalf("expected persisted status EXPIRED, got %s", got)
		}
		if got := repo.variants["var-1"].Stock; got != 10 {
			t.Fatalf("expected stock untouched, got %d", got)
		}
	})

	t.Run("terminal reservation is rejected", func(t *testing.T) {
		repo := newFakeReservationRepo(
			[]domain.Variant{{ID: "var-1", Stock: 10}},
			[]domain.Reservation{
				{ID: "res-1", VariantID: "var-1", Quantity: 4, Status: domain.ReservationStatusConverted, ExpiresAt: now.Add(time.Minute)},
			},
		)
		svc := NewReservationService(repo, clock.NewFixed(now))

		if _, err := svc.Convert(context.Background(), "res-1"); err != domain.ErrReservationNotActive {
			t.Fatalf("expected ErrReservationNotActive, got %v", err)
		}
	})

	t.Run("unknown reservation", func(t *testing.T) {
		repo := newFakeReservationRepo(nil, nil)
		svc := NewReservationService(repo, clock.NewFixed(now))

		if _, err := svc.Convert(context.Background(), "missing"); err != domain.ErrReservationNotFound {
			t.Fatalf("expected ErrReservationNotFound, got %v", err)
		}
	})
}

func TestReservationService_Cancel(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("cancels active reservation", func(t *testing.T) {
		repo := newFakeReservationRepo(
			[]domain.Variant{{ID: "var-1", Stock: 10}},
			[]domain.Reservation{
				{ID: "res-1", VariantID: "var-1", Quantity: 4, Status: domain.ReservationStatusActive, ExpiresAt: now.Add(time.Minute)},
			},
		)
		svc := NewReservationService(repo, clock.NewFixed(now))

		if err := svc.Cancel(context.Background(), "res-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := repo.reservations[0].Status; got != domain.ReservationStatusCancelled {
			t.Fatalf("expected CANCELLED, got %s", got)
		}
	})

	t.Run("cancelling a terminal reservation is a no-op", func(t *testing.T) {
		repo := newFakeReservationRepo(
			[]domain.Variant{{ID: "var-1", Stock: 10}},
			[]domain.Reservation{
				{ID: "res-1", VariantID: "var-1", Quantity: 4, Status: domain.ReservationStatusConverted, ExpiresAt: now.Add(time.Minute)},
			},
		)
		svc := NewReservationService(repo, clock.NewFixed(now))

		if err := svc.Cancel(context.Background(), "res-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := repo.reservations[0].Status; got != domain.ReservationStatusConverted {
			t.Fatalf("expected status unchanged, got %s", got)
		}
	})
}

func TestReservationService_CancelAll(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeReservationRepo(
		[]domain.Variant{{ID: "var-1", Stock: 10}},
		[]domain.Reservation{
			{ID: "res-1", VariantID: "var-1", Quantity: 1, SessionID: "sess-1", Status: domain.ReservationStatusActive, ExpiresAt: now.Add(time.Minute)},
			{ID: "res-2", VariantID: "var-1", Quantity: 1, SessionID: "sess-1", Status: domain.ReservationStatusActive, ExpiresAt: now.Add(time.Minute)},
			{ID: "res-3", VariantID: "var-1", Quantity: 1, SessionID: "sess-2", Status: domain.ReservationStatusActive, ExpiresAt: now.Add(time.Minute)},
			{ID: "res-4", VariantID: "var-1", Quantity: 1, SessionID: "sess-1", Status: domain.ReservationStatusConverted, ExpiresAt: now.Add(time.Minute)},
		},
	)
	svc := NewReservationService(repo, clock.NewFixed(now))

	if _, err := svc.CancelAll(context.Background(), "", ""); err != domain.ErrOwnerKeyRequired {
		t.Fatalf("expected ErrOwnerKeyRequired, got %v", err)
	}

	n, err := svc.CancelAll(context.Background(), "", "sess-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 cancelled, got %d", n)
	}
	if got := repo.reservations[2].Status; got != domain.ReservationStatusActive {
		t.Fatalf("expected other session untouched, got %s", got)
	}
	if got := repo.reservations[3].Status; got != domain.ReservationStatusConverted {
		t.Fatalf("expected converted reservation untouched, got %s", got)
	}
}

func TestReservationService_CleanupExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeReservationRepo(
		[]domain.Variant{{ID: "var-1", Stock: 10}},
		[]domain.Reservation{
			{ID: "res-1", VariantID: "var-1", Quantity: 1, Status: domain.ReservationStatusActive, ExpiresAt: now.Add(-time.Minute)},
			{ID: "res-2", VariantID: "var-1", Quantity: 1, Status: domain.ReservationStatusActive, ExpiresAt: now.Add(time.Minute)},
			{ID: "res-3", VariantID: "var-1", Quantity: 1, Status: domain.ReservationStatusCancelled, ExpiresAt: now.Add(-time.Minute)},
		},
	)
	svc := NewReservationService(repo, clock.NewFixed(now))

	n, err := svc.CleanupExpired(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired, got %d", n)
	}
	if got := repo.reservations[0].Status; got != domain.ReservationStatusExpired {
		t.Fatalf("expected EXPIRED, got %s", got)
	}
	if got := repo.reservations[1].Status; got != domain.ReservationStatusActive {
		t.Fatalf("expected unexpired reservation untouched, got %s", got)
	}
}

type fakeReservationRepo struct {
	variants     map[string]domain.Variant
	reservations []domain.Reservation
}

func newFakeReservationRepo(variants []domain.Variant, reservations []domain.Reservation) *fakeReservationRepo {
	v := make(map[string]domain.Variant)
	for _, variant := range variants {
		v[variant.ID] = variant
	}
	return &fakeReservationRepo{
		variants:     v,
		reservations: append([]domain.Reservation{}, reservations...),
	}
}

func (f *fakeReservationRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeReservationRepo) GetVariantForUpdate(_ context.Context, variantID string) (domain.Variant, error) {
	variant, ok := f.variants[variantID]
	if !ok {
		return domain.Variant{}, domain.ErrVariantNotFound
	}
	return variant, nil
}

func (f *fakeReservationRepo) SumActiveReservations(_ context.Context, variantID string, now time.Time) (int, error) {
	total := 0
	for _, r := range f.reservations {
		if r.VariantID != variantID {
			continue
		}
		if r.Status != domain.ReservationStatusActive {
			continue
		}
		if !r.ExpiresAt.After(now) {
			continue
		}
		total += r.Quantity
	}
	return total, nil
}

func (f *fakeReservationRepo) CreateReservation(_ context.Context, r domain.Reservation) error {
	f.reservations = append(f.reservations, r)
	return nil
}

func (f *fakeReservationRepo) GetReservationForUpdate(_ context.Context, reservationID string) (domain.Reservation, error) {
	for _, r := range f.reservations {
		if r.ID == reservationID {
			return r, nil
		}
	}
	return domain.Reservation{}, domain.ErrReservationNotFound
}

func (f *fakeReservationRepo) UpdateReservationStatus(_ context.Context, reservationID string, status domain.ReservationStatus) error {
	for i := range f.reservations {
		if f.reservations[i].ID == reservationID {
			f.reservations[i].Status = status
			return nil
		}
	}
	return domain.ErrReservationNotFound
}

func (f *fakeReservationRepo) AddStock(_ context.Context, variantID string, delta int) error {
	variant, ok := f.variants[variantID]
	if !ok {
		return domain.ErrVariantNotFound
	}
	if variant.Stock+delta < 0 {
		return domain.ErrInsufficientStock
	}
	variant.Stock += delta
	f.variants[variantID] = variant
	return nil
}

func (f *fakeReservationRepo) CancelActiveByOwner(_ context.Context, userID, sessionID string) (int, error) {
	count := 0
	for i := range f.reservations {
		r := f.reservations[i]
		if r.Status != domain.ReservationStatusActive {
			continue
		}
		match := (userID != "" && r.UserID == userID) || (sessionID != "" && r.SessionID == sessionID)
		if !match {
			continue
		}
		f.reservations[i].Status = domain.ReservationStatusCancelled
		count++
	}
	return count, nil
}

func (f *fakeReservationRepo) ExpireDue(_ context.Context, now time.Time) (int, error) {
	count := 0
	for i := range f.reservations {
		r := f.reservations[i]
		if r.Status != domain.ReservationStatusActive {
			continue
		}
		if r.ExpiresAt.After(now) {
			continue
		}
		f.reservations[i].Status = domain.ReservationStatusExpired
		count++
	}
	return count, nil
}
