package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultJanitorInterval is how often expired cache entries are purged when
// no interval is configured.
const DefaultJanitorInterval = time.Hour

// ExpiringCache is a cache that can purge its expired entries.
type ExpiringCache interface {
	DeleteExpired(ctx context.Context) (int, error)
}

// Janitor periodically removes expired text cache entries.
type Janitor struct {
	cache    ExpiringCache
	metrics  *Metrics
	interval time.Duration
}

// NewJanitor creates a Janitor. metrics may be nil.
func NewJanitor(cache ExpiringCache, metrics *Metrics, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = DefaultJanitorInterval
	}
	return &Janitor{cache: cache, metrics: metrics, interval: interval}
}

// Run purges once immediately and then on every tick. It blocks until ctx
// is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	log := zap.L().With(zap.String("component", "monitoring.janitor"))
	log.Info("starting cache janitor", zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.sweep(ctx, log)
	for {
		select {
		case <-ctx.Done():
			log.Info("cache janitor stopped")
			return
		case <-ticker.C:
			j.sweep(ctx, log)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context, log *zap.Logger) {
	n, err := j.cache.DeleteExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Error("monitoring: cache sweep failed", zap.Error(err))
		}
		return
	}
	if j.metrics != nil {
		j.metrics.CacheEvictions.Add(float64(n))
	}
	log.Debug("monitoring: cache sweep complete", zap.Int("deleted", n))
}
