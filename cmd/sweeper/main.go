package main

import (
	"context"

	bookingrepo "turfbook/internal/bookings/repository"
	"turfbook/internal/sweeper"
	"turfbook/pkg/config"
)

const JobName = "booking-sweeper"

// Runs one expiry pass and exits, for use from an external scheduler.
func main() {
	cfg := config.Load(JobName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	s := sweeper.New(bookingrepo.NewMongoBookingRepository(cfg), cfg.SweepSchedule, cfg.WriteTimeout, cfg.Log)
	n, err := s.Sweep(context.Background())
	if err != nil {
		cfg.Log.Fatal("Sweep failed", "error", err)
	}
	cfg.Log.Info("Sweep completed", "expired", n)
}
