// Package consumer implements the message fetch protocol on top of a shared,
// lock-guarded cluster client.
package consumer

import (
	"context"
	"sync"

	"github.com/kafka2i/kafka2i/internal/types"
)

// ClusterClient is the blocking cluster API the fetch protocol and the
// refresh loop need. Implementations need not be safe for concurrent use.
type ClusterClient interface {
	FetchMetadata(ctx context.Context) ([]types.Broker, []types.Topic, error)
	FetchGroups(ctx context.Context) ([]types.ConsumerGroup, error)
	FetchGroupLag(ctx context.Context, groupID string) ([]types.TopicLag, error)
	FetchWatermarks(ctx context.Context, topic string, partition int32) (low, high int64, err error)
	Assign(topic string, partition int32) error
	Poll(ctx context.Context) (*types.Message, error)
	Seek(ctx context.Context, topic string, partition int32, offset int64) error
	OffsetForTimestamp(ctx context.Context, topic string, partition int32, ts int64) (int64, bool, error)
	PollStats()
}

// LockedClient serialises every call into the wrapped client. The lock is
// held for one call only, never across a sequence of calls.
type LockedClient struct {
	mu     sync.Mutex
	client ClusterClient
}

func NewLockedClient(client ClusterClient) *LockedClient {
	return &LockedClient{client: client}
}

func (l *LockedClient) FetchMetadata(ctx context.Context) ([]types.Broker, []types.Topic, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.client.FetchMetadata(ctx)
}

func (l *LockedClient) FetchGroups(ctx context.Context) ([]types.ConsumerGroup, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.client.FetchGroups(ctx)
}

func (l *LockedClient) FetchGroupLag(ctx context.Context, groupID string) ([]types.TopicLag, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.client.FetchGroupLag(ctx, groupID)
}

func (l *LockedClient) FetchWatermarks(ctx context.Context, topic string, partition int32) (int64, int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.client.FetchWatermarks(ctx, topic, partition)
}

func (l *LockedClient) Assign(topic string, partition int32) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.client.Assign(topic, partition)
}

func (l *LockedClient) Poll(ctx context.Context) (*types.Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.client.Poll(ctx)
}

func (l *LockedClient) Seek(ctx context.Context, topic string, partition int32, offset int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.client.Seek(ctx, topic, partition, offset)
}

func (l *LockedClient) OffsetForTimestamp(ctx context.Context, topic string, partition int32, ts int64) (int64, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.client.OffsetForTimestamp(ctx, topic, partition, ts)
}

// PollStats skips the poll when another call holds the client
func (l *LockedClient) PollStats() {
	if !l.mu.TryLock() {
		return
	}
	defer l.mu.Unlock()
	l.client.PollStats()
}
