package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/cimillas/storefront/internal/app"
	"github.com/cimillas/storefront/internal/clock"
	"github.com/cimillas/storefront/internal/config"
	"github.com/cimillas/storefront/internal/metrics"
	"github.com/cimillas/storefront/internal/storage/postgres"
	transporthttp "github.com/cimillas/storefront/internal/transport/http"
	"github.com/cimillas/storefront/migrations"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Warn(".env not loaded", "err", err)
	}
	cfg := config.Load()

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect to db", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		logger.Error("db ping", "err", err)
		os.Exit(1)
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		logger.Error("apply migrations", "err", err)
		os.Exit(1)
	}

	clk := clock.NewSystem()
	reg := metrics.NewRegistry()

	reservationRepo := postgres.NewReservationRepository(pool)
	reservationSvc := app.NewReservationService(reservationRepo, clk,
		app.WithReservationTTL(cfg.ReservationTTL))
	stockRepo := postgres.NewStockRepository(pool)
	stockSvc := app.NewStockService(stockRepo, clk)
	orderRepo := postgres.NewOrderRepository(pool)
	orderSvc := app.NewOrderService(orderRepo, clk, logger)
	couponRepo := postgres.NewCouponRepository(pool)
	couponSvc := app.NewCouponService(couponRepo, clk)
	catalogRepo := postgres.NewCatalogRepository(pool)
	catalogSvc := app.NewCatalogService(catalogRepo, clk)

	handler := transporthttp.NewRouter(transporthttp.RouterDeps{
		Reservations: reservationSvc,
		Orders:       orderSvc,
		Coupons:      couponSvc,
		Stock:        stockSvc,
		Catalog:      catalogSvc,
		Metrics:      reg,
		Logger:       logger,
		CORSOrigins:  cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler,
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	sweeper := app.NewSweeper(reservationSvc, cfg.SweepInterval, logger, reg)
	go sweeper.Run(sweepCtx)

	logger.Info("api listening", "addr", cfg.HTTPAddr)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	stopSweep()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown error", "err", err)
	}
	logger.Info("server stopped")
}
