package server

import (
	"context"
	"log/slog"

	"github.com/playperu/attractionmap/internal/attractions"
	"github.com/playperu/attractionmap/internal/store"
)

// SeedDemo loads the New York demo attractions into an empty store.
// Idempotent: does nothing if attractions already exist.
func SeedDemo(ctx context.Context, logger *slog.Logger, s *store.AttractionStore) error {
	n, err := s.Seed(ctx, attractions.Demo())
	if err != nil {
		return err
	}
	if n > 0 {
		logger.Info("demo attractions seeded", "count", n)
	}
	return nil
}
