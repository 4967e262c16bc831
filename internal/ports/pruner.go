package ports

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quentinrf/bazi-reading/internal/domain"
)

// Pruner handles periodic removal of old ledger entries
type Pruner struct {
	repo      domain.OrderRepository
	interval  time.Duration
	retention time.Duration
}

// NewPruner creates a new background pruner
func NewPruner(repo domain.OrderRepository, interval, retention time.Duration) *Pruner {
	return &Pruner{
		repo:      repo,
		interval:  interval,
		retention: retention,
	}
}

// Start begins periodic pruning
// This runs in a goroutine until context is cancelled
func (p *Pruner) Start(ctx context.Context) {
	log.Info().
		Dur("interval", p.interval).
		Dur("retention", p.retention).
		Msg("starting order pruner")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Prune immediately on start
	p.PruneOnce(ctx)

	for {
		select {
		case <-ticker.C:
			p.PruneOnce(ctx)

		case <-ctx.Done():
			log.Info().Msg("stopping order pruner")
			return
		}
	}
}

// PruneOnce deletes orders older than the retention window
func (p *Pruner) PruneOnce(ctx context.Context) {
	n, err := p.repo.DeleteOlderThan(ctx, p.retention)
	if err != nil {
		log.Error().Err(err).Msg("failed to delete old orders")
		return
	}
	if n > 0 {
		log.Info().Int64("deleted", n).Msg("deleted expired orders")
	}
}
