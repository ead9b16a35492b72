// Package refresh keeps the metadata cache current in the background.
package refresh

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kafka2i/kafka2i/internal/metadata"
)

// Client is what the loop needs from the shared cluster client
type Client interface {
	metadata.Source
	PollStats()
}

// Loop refreshes the cache every interval and polls client statistics at most
// once per statsInterval.
type Loop struct {
	client    Client
	cache     *metadata.Cache
	interval  time.Duration
	timeout   time.Duration
	stats     time.Duration
	limiter   *rate.Limiter
	onRefresh func(*metadata.Snapshot)
	log       *zap.Logger
}

// NewLoop creates a loop. onRefresh, if not nil, is called with every newly
// published snapshot.
func NewLoop(client Client, cache *metadata.Cache, interval, timeout, statsInterval time.Duration, onRefresh func(*metadata.Snapshot), log *zap.Logger) *Loop {
	return &Loop{
		client:    client,
		cache:     cache,
		interval:  interval,
		timeout:   timeout,
		stats:     statsInterval,
		limiter:   rate.NewLimiter(rate.Every(statsInterval), 1),
		onRefresh: onRefresh,
		log:       log.Named("refresh"),
	}
}

// Run blocks until ctx is done. The first refresh happens one interval after
// Run starts; the cache is expected to be populated before.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("refresh loop started", zap.Duration("interval", l.interval))
	defer l.log.Info("refresh loop stopped")

	refreshTimer := time.NewTimer(l.interval)
	defer refreshTimer.Stop()
	statsTicker := time.NewTicker(l.stats)
	defer statsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-refreshTimer.C:
			l.refresh(ctx)
			l.pollStats()
			// the interval is a sleep between refreshes, not a fixed rate
			refreshTimer.Reset(l.interval)
		case <-statsTicker.C:
			l.pollStats()
		}
	}
}

func (l *Loop) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	snap, err := l.cache.Refresh(ctx, l.client)
	if err != nil {
		// the cache logged it and kept the previous snapshot
		return
	}
	if l.onRefresh != nil {
		l.onRefresh(snap)
	}
}

func (l *Loop) pollStats() {
	if !l.limiter.Allow() {
		return
	}
	l.client.PollStats()
}
