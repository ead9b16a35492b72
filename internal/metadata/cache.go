// Package metadata holds the in-memory snapshot of cluster metadata.
package metadata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kafka2i/kafka2i/internal/types"
)

// maxLagConcurrency bounds the number of group lag fetches in flight
const maxLagConcurrency = 4

// Source fetches the raw metadata a snapshot is built from. Every method is a
// single call, so a shared client is never held across a whole refresh.
type Source interface {
	FetchMetadata(ctx context.Context) ([]types.Broker, []types.Topic, error)
	FetchGroups(ctx context.Context) ([]types.ConsumerGroup, error)
	FetchGroupLag(ctx context.Context, groupID string) ([]types.TopicLag, error)
}

// Snapshot is a point-in-time view of the cluster. It is never modified after
// it has been published by a Cache.
type Snapshot struct {
	Brokers        []types.Broker
	Topics         []types.Topic
	ConsumerGroups []types.ConsumerGroup
	UpdatedAt      time.Time
}

func (s *Snapshot) GetBroker(name string) (types.Broker, bool) {
	for _, b := range s.Brokers {
		if b.Name() == name {
			return b, true
		}
	}
	return types.Broker{}, false
}

func (s *Snapshot) GetTopic(name string) (types.Topic, bool) {
	for _, t := range s.Topics {
		if t.Name == name {
			return t, true
		}
	}
	return types.Topic{}, false
}

func (s *Snapshot) GetConsumerGroup(name string) (types.ConsumerGroup, bool) {
	for _, g := range s.ConsumerGroups {
		if g.Name == name {
			return g, true
		}
	}
	return types.ConsumerGroup{}, false
}

// GetPartition looks up a partition by its "<topic>/<id>" name
func (s *Snapshot) GetPartition(name string) (types.Partition, bool) {
	topicName, id, err := types.ParsePartitionName(name)
	if err != nil {
		return types.Partition{}, false
	}
	topic, ok := s.GetTopic(topicName)
	if !ok {
		return types.Partition{}, false
	}
	for _, p := range topic.Partitions {
		if p.ID == id {
			return p, true
		}
	}
	return types.Partition{}, false
}

// NoOfPartitionsForBroker counts the partitions led by broker id across all topics
func (s *Snapshot) NoOfPartitionsForBroker(id int32) int {
	count := 0
	for _, t := range s.Topics {
		for _, p := range t.Partitions {
			if p.Leader == id {
				count++
			}
		}
	}
	return count
}

func (s *Snapshot) BrokerNames() []string {
	names := make([]string, len(s.Brokers))
	for i, b := range s.Brokers {
		names[i] = b.Name()
	}
	return names
}

func (s *Snapshot) TopicNames() []string {
	names := make([]string, len(s.Topics))
	for i, t := range s.Topics {
		names[i] = t.Name
	}
	return names
}

func (s *Snapshot) GroupNames() []string {
	names := make([]string, len(s.ConsumerGroups))
	for i, g := range s.ConsumerGroups {
		names[i] = g.Name
	}
	return names
}

// Cache publishes snapshots. Refresh replaces the whole snapshot at once, so
// readers see either the previous or the new one and never a mix.
type Cache struct {
	mu       sync.RWMutex
	snapshot *Snapshot
	log      *zap.Logger
	now      func() time.Time
}

// NewCache returns an empty cache
func NewCache(log *zap.Logger) *Cache {
	return &Cache{
		snapshot: &Snapshot{},
		log:      log.Named("metadata"),
		now:      time.Now,
	}
}

// Snapshot returns the current snapshot. Callers must not modify it.
func (c *Cache) Snapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Refresh fetches metadata and groups from src and publishes a new snapshot.
// On failure the previous snapshot stays in place.
func (c *Cache) Refresh(ctx context.Context, src Source) (*Snapshot, error) {
	start := c.now()

	brokers, topics, err := src.FetchMetadata(ctx)
	if err != nil {
		c.log.Error("metadata refresh failed, keeping previous snapshot", zap.Error(err))
		return c.Snapshot(), fmt.Errorf("fetching metadata: %w", err)
	}

	groups, err := src.FetchGroups(ctx)
	if err != nil {
		c.log.Error("group refresh failed, keeping previous snapshot", zap.Error(err))
		return c.Snapshot(), fmt.Errorf("fetching consumer groups: %w", err)
	}
	groups = c.withLags(ctx, src, groups)

	next := &Snapshot{
		Brokers:        brokers,
		Topics:         topics,
		ConsumerGroups: groups,
		UpdatedAt:      c.now(),
	}

	c.mu.Lock()
	c.snapshot = next
	c.mu.Unlock()

	c.log.Debug("metadata refreshed",
		zap.Int("brokers", len(brokers)),
		zap.Int("topics", len(topics)),
		zap.Int("groups", len(groups)),
		zap.Duration("took", c.now().Sub(start)))
	return next, nil
}

// withLags returns a copy of groups annotated with their lag. Groups whose
// lag cannot be fetched keep a nil Lag; the refresh still succeeds.
func (c *Cache) withLags(ctx context.Context, src Source, groups []types.ConsumerGroup) []types.ConsumerGroup {
	out := append([]types.ConsumerGroup(nil), groups...)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxLagConcurrency)
	for i := range out {
		g.Go(func() error {
			lags, err := src.FetchGroupLag(gctx, out[i].Name)
			if err != nil {
				c.log.Warn("failed to compute group lag", zap.String("group", out[i].Name), zap.Error(err))
				return nil
			}
			out[i].Lag = lags
			return nil
		})
	}
	_ = g.Wait()
	return out
}
