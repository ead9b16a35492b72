package consumer

import (
	"context"
	"sync"

	"github.com/kafka2i/kafka2i/internal/types"
)

// fakeClient records calls and replays scripted results
type fakeClient struct {
	mu    sync.Mutex
	calls []string

	brokers []types.Broker
	topics  []types.Topic
	groups  []types.ConsumerGroup

	low, high     int64
	watermarkErr  error
	assignErr     error
	seekErrs      []error // consumed per Seek call, nil afterwards
	pollResults   []pollResult
	messages      map[int64]*types.Message
	seekedOffset  int64
	tsOffset      int64
	tsFound       bool
	tsErr         error
	statsPolls    int
	statsStarted  chan struct{}
	blockPollStat chan struct{}
}

type pollResult struct {
	msg *types.Message
	err error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		topics: []types.Topic{
			{Name: "orders", Partitions: []types.Partition{
				{ID: 0, Leader: 1, ISR: []int32{1, 2}, Replicas: []int32{1, 2, 3}},
			}},
		},
		messages: map[int64]*types.Message{},
	}
}

func (f *fakeClient) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeClient) count(call string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeClient) FetchMetadata(context.Context) ([]types.Broker, []types.Topic, error) {
	f.record("metadata")
	return f.brokers, f.topics, nil
}

func (f *fakeClient) FetchGroups(context.Context) ([]types.ConsumerGroup, error) {
	f.record("groups")
	return f.groups, nil
}

func (f *fakeClient) FetchGroupLag(_ context.Context, groupID string) ([]types.TopicLag, error) {
	f.record("group_lag")
	return []types.TopicLag{{Topic: "orders", Partitions: 1, Sum: 1, Max: 1}}, nil
}

func (f *fakeClient) FetchWatermarks(context.Context, string, int32) (int64, int64, error) {
	f.record("watermarks")
	return f.low, f.high, f.watermarkErr
}

func (f *fakeClient) Assign(string, int32) error {
	f.record("assign")
	return f.assignErr
}

// Poll replays scripted results first, then serves the message at the seeked
// offset when one exists.
func (f *fakeClient) Poll(context.Context) (*types.Message, error) {
	f.record("poll")
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pollResults) > 0 {
		r := f.pollResults[0]
		f.pollResults = f.pollResults[1:]
		return r.msg, r.err
	}
	return f.messages[f.seekedOffset], nil
}

func (f *fakeClient) Seek(_ context.Context, _ string, _ int32, offset int64) error {
	f.record("seek")
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.seekErrs) > 0 {
		err := f.seekErrs[0]
		f.seekErrs = f.seekErrs[1:]
		if err != nil {
			return err
		}
	}
	f.seekedOffset = offset
	return nil
}

func (f *fakeClient) OffsetForTimestamp(context.Context, string, int32, int64) (int64, bool, error) {
	f.record("offset_for_timestamp")
	return f.tsOffset, f.tsFound, f.tsErr
}

func (f *fakeClient) PollStats() {
	if f.statsStarted != nil {
		f.statsStarted <- struct{}{}
	}
	if f.blockPollStat != nil {
		<-f.blockPollStat
	}
	f.mu.Lock()
	f.statsPolls++
	f.mu.Unlock()
}

func message(offset int64) *types.Message {
	payload := "payload"
	return &types.Message{Topic: "orders", Partition: 0, Offset: offset, Payload: &payload}
}
