package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/cimillas/storefront/internal/app"
	"github.com/cimillas/storefront/internal/clock"
	"github.com/cimillas/storefront/internal/domain"
	"github.com/cimillas/storefront/internal/storage/postgres"
	"github.com/cimillas/storefront/internal/testutil"
)

func TestReserveAndConvert_HTTPIntegration(t *testing.T) {
	pool := testutil.NewTestPool(t)
	testutil.ApplyMigrations(t, context.Background(), pool)
	repo := postgres.NewReservationRepository(pool)

	now := time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC)
	svc := app.NewReservationService(repo, clock.NewFixed(now))

	ctx := context.Background()
	testutil.TruncateAll(t, ctx, pool)
	_, variantID := testutil.InsertProductAndVariant(t, ctx, pool, "Tee", decimal.NewFromInt(25), 10)

	router := chi.NewRouter()
	router.Post("/reservations", HandleCreateReservation(svc))
	router.Post("/reservations/{id}/convert", HandleConvertReservation(svc))

	body := []byte(`{"variant_id":"` + variantID + `","quantity":3,"session_id":"sess-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/reservations", bytes.NewBuffer(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created reservationResponse
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.Status != string(domain.ReservationStatusActive) {
		t.Fatalf("expected ACTIVE, got %s", created.Status)
	}

	convReq := httptest.NewRequest(http.MethodPost, "/reservations/"+created.ID+"/convert", nil)
	convRec := httptest.NewRecorder()
	router.ServeHTTP(convRec, convReq)

	if convRec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", convRec.Code, convRec.Body.String())
	}

	var converted reservationResponse
	if err := json.NewDecoder(convRec.Body).Decode(&converted); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if converted.Status != string(domain.ReservationStatusConverted) {
		t.Fatalf("expected CONVERTED, got %s", converted.Status)
	}

	var stock int
	if err := pool.QueryRow(ctx, `SELECT stock FROM variants WHERE id = $1`, variantID).Scan(&stock); err != nil {
		t.Fatalf("query stock: %v", err)
	}
	if stock != 7 {
		t.Fatalf("expected stock 7 after conversion, got %d", stock)
	}

	convRec2 := httptest.NewRecorder()
	router.ServeHTTP(convRec2, httptest.NewRequest(http.MethodPost, "/reservations/"+created.ID+"/convert", nil))
	if convRec2.Code != http.StatusConflict {
		t.Fatalf("expected 409 converting twice, got %d", convRec2.Code)
	}
}

func TestReserveConcurrent_NoOversell(t *testing.T) {
	pool := testutil.NewTestPool(t)
	testutil.ApplyMigrations(t, context.Background(), pool)
	repo := postgres.NewReservationRepository(pool)
	svc := app.NewReservationService(repo, clock.NewSystem())

	ctx := context.Background()
	testutil.TruncateAll(t, ctx, pool)

	const stock = 5
	const attempts = 20
	_, variantID := testutil.InsertProductAndVariant(t, ctx, pool, "Tee", decimal.NewFromInt(25), stock)

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.Create(ctx, app.CreateReservationInput{
				VariantID: variantID,
				Quantity:  1,
				SessionID: "sess-1",
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	succeeded, insufficient := 0, 0
	for err := range results {
		switch err {
		case nil:
			succeeded++
		case domain.ErrInsufficientStock:
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != stock {
		t.Fatalf("expected exactly %d successful reservations, got %d", stock, succeeded)
	}
	if insufficient != attempts-stock {
		t.Fatalf("expected %d rejections, got %d", attempts-stock, insufficient)
	}

	var held int
	if err := pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM reservations WHERE variant_id = $1 AND status = 'ACTIVE'`,
		variantID,
	).Scan(&held); err != nil {
		t.Fatalf("query held: %v", err)
	}
	if held != stock {
		t.Fatalf("expected %d units held, got %d", stock, held)
	}
}
