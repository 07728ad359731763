package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/cimillas/storefront/internal/metrics"
)

// Sweeper periodically expires overdue reservations so abandoned carts stop
// holding stock. It needs no coordination with other operations: conversion
// re-checks expiry under its own lock.
type Sweeper struct {
	reservations *ReservationService
	interval     time.Duration
	logger       *slog.Logger
	metrics      *metrics.Registry
}

func NewSweeper(svc *ReservationService, interval time.Duration, logger *slog.Logger, reg *metrics.Registry) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		reservations: svc,
		interval:     interval,
		logger:       logger,
		metrics:      reg,
	}
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := s.reservations.CleanupExpired(ctx)
			if err != nil {
				s.logger.Error("reservation sweep failed", "err", err)
				continue
			}
			if s.metrics != nil {
				s.metrics.SweepRuns.Inc()
				s.metrics.ReservationsExpired.Add(float64(count))
			}
			if count > 0 {
				s.logger.Info("expired reservations released", "count", count)
			}
		}
	}
}
