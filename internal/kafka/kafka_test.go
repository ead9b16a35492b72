package kafka

import (
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kafka2i/kafka2i/internal/types"
)

func TestIsTransportFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"eof", io.EOF, true},
		{"wrapped unexpected eof", fmt.Errorf("read: %w", io.ErrUnexpectedEOF), true},
		{"temporary kafka error", kafka.LeaderNotAvailable, true},
		{"permanent kafka error", kafka.TopicAuthorizationFailed, false},
		{"other", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTransportFailure(tt.err))
		})
	}
}

func TestStatsContextDropsWhenFull(t *testing.T) {
	ch := make(chan types.ClientStats, 1)
	sc := NewStatsContext(ch)

	sc.Stats(types.ClientStats{Messages: 1})
	sc.Stats(types.ClientStats{Messages: 2})

	require.Len(t, ch, 1)
	assert.Equal(t, int64(1), (<-ch).Messages)
}

func TestDefaultContextDiscards(t *testing.T) {
	var c ClientContext = DefaultContext{}
	assert.NotPanics(t, func() { c.Stats(types.ClientStats{}) })
}

func TestStatsFromReader(t *testing.T) {
	stats := statsFromReader(kafka.ReaderStats{
		ClientID:  "kafka2i-test",
		Topic:     "orders",
		Partition: "3",
		Messages:  10,
		Bytes:     2048,
		Offset:    42,
		Lag:       7,
	})

	assert.Equal(t, "kafka2i-test", stats.ClientID)
	assert.Equal(t, "orders", stats.Topic)
	assert.Equal(t, "3", stats.Partition)
	assert.Equal(t, int64(10), stats.Messages)
	assert.Equal(t, int64(2048), stats.Bytes)
	assert.Equal(t, int64(42), stats.Offset)
	assert.Equal(t, int64(7), stats.Lag)
}

func TestPartitionFromStats(t *testing.T) {
	p, ok := PartitionFromStats(types.ClientStats{Topic: "orders", Partition: "3"})
	require.True(t, ok)
	assert.Equal(t, int32(3), p.ID)
	assert.Equal(t, int32(-1), p.Leader)
	assert.Empty(t, p.ISR)
	assert.Empty(t, p.Replicas)

	_, ok = PartitionFromStats(types.ClientStats{Topic: "orders", Partition: "x"})
	assert.False(t, ok)
	_, ok = PartitionFromStats(types.ClientStats{Topic: "orders", Partition: "-1"})
	assert.False(t, ok)
	_, ok = PartitionFromStats(types.ClientStats{Partition: "1"})
	assert.False(t, ok)
}

func TestToMessage(t *testing.T) {
	ts := time.UnixMilli(1714732185000)
	m := toMessage(kafka.Message{
		Topic:     "orders",
		Partition: 2,
		Offset:    12,
		Key:       []byte("k1"),
		Value:     []byte(`{"id":1}`),
		Headers: []kafka.Header{
			{Key: "b", Value: []byte("2")},
			{Key: "a", Value: []byte("1")},
		},
		Time: ts,
	})

	assert.Equal(t, "orders", m.Topic)
	assert.Equal(t, int32(2), m.Partition)
	assert.Equal(t, int64(12), m.Offset)
	assert.Equal(t, "k1", m.KeyOrDefault())
	assert.Equal(t, `{"id":1}`, m.PayloadOrDefault())
	assert.Equal(t, int64(1714732185000), m.TimestampOrDefault())
	assert.Equal(t, []types.Header{{Key: "b", Value: "2"}, {Key: "a", Value: "1"}}, m.Headers)
}

func TestToMessageWithoutKeyOrValidPayload(t *testing.T) {
	m := toMessage(kafka.Message{Value: []byte{0xff, 0xfe}})

	assert.Nil(t, m.Key)
	assert.Nil(t, m.Payload)
	assert.Nil(t, m.Timestamp)
	assert.Equal(t, "No key", m.KeyOrDefault())
	assert.Equal(t, "No Payload", m.PayloadOrDefault())
}

func TestParseHeaders(t *testing.T) {
	headers, err := ParseHeaders("trace-id: abc\n\ncontent-type:application/json\nurl:http://x\n")
	require.NoError(t, err)
	assert.Equal(t, []types.Header{
		{Key: "trace-id", Value: "abc"},
		{Key: "content-type", Value: "application/json"},
		{Key: "url", Value: "http://x"},
	}, headers)

	headers, err = ParseHeaders("   ")
	require.NoError(t, err)
	assert.Empty(t, headers)

	_, err = ParseHeaders("ok:1\nbroken")
	assert.ErrorContains(t, err, "line 2")

	_, err = ParseHeaders(":value")
	assert.Error(t, err)
}

func TestBalancerFor(t *testing.T) {
	_, ok := balancerFor(-1).(*kafka.Hash)
	assert.True(t, ok)

	b := balancerFor(2)
	assert.Equal(t, 2, b.Balance(kafka.Message{}, 0, 1, 2, 3))
}

func TestNewClientRequiresBrokers(t *testing.T) {
	_, err := NewClient(&types.Params{}, nil, nil)
	assert.Error(t, err)
}

func TestCalcLag(t *testing.T) {
	committed := map[string]map[int32]int64{
		"orders":   {0: 10, 1: 50, 2: 100},
		"payments": {0: 5},
		"gone":     {0: 1},
	}
	ends := map[string]map[int32]int64{
		"orders":   {0: 15, 1: 50, 2: 90},
		"payments": {1: 40},
	}

	lags := CalcLag(committed, ends)
	require.Len(t, lags, 1)
	assert.Equal(t, types.TopicLag{Topic: "orders", Partitions: 3, Sum: 5, Max: 5}, lags[0])
}

func TestCalcLagSortedByTopic(t *testing.T) {
	committed := map[string]map[int32]int64{"b": {0: 0}, "a": {0: 0}, "c": {0: 0}}
	ends := map[string]map[int32]int64{"b": {0: 2}, "a": {0: 1}, "c": {0: 3}}

	lags := CalcLag(committed, ends)
	require.Len(t, lags, 3)
	assert.Equal(t, "a", lags[0].Topic)
	assert.Equal(t, "c", lags[2].Topic)
	assert.Equal(t, int64(3), lags[2].Sum)
	assert.Empty(t, CalcLag(nil, ends))
}
