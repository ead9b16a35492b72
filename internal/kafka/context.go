package kafka

import (
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/kafka2i/kafka2i/internal/types"
)

// ClientContext receives callbacks from the client. The variant is chosen
// when the client is built.
type ClientContext interface {
	Stats(types.ClientStats)
}

// DefaultContext discards statistics.
type DefaultContext struct{}

func (DefaultContext) Stats(types.ClientStats) {}

// StatsContext forwards statistics to a channel. Sends never block; when the
// receiver is behind the sample is dropped.
type StatsContext struct {
	stats chan<- types.ClientStats
}

// NewStatsContext creates a StatsContext forwarding to ch
func NewStatsContext(ch chan<- types.ClientStats) *StatsContext {
	return &StatsContext{stats: ch}
}

func (s *StatsContext) Stats(stats types.ClientStats) {
	select {
	case s.stats <- stats:
	default:
	}
}

func statsFromReader(rs kafka.ReaderStats) types.ClientStats {
	return types.ClientStats{
		ClientID:  rs.ClientID,
		Topic:     rs.Topic,
		Partition: rs.Partition,
		Messages:  rs.Messages,
		Bytes:     rs.Bytes,
		Errors:    rs.Errors,
		Offset:    rs.Offset,
		Lag:       rs.Lag,
	}
}

// PartitionFromStats derives a partition record from consumer statistics.
// Statistics carry neither the leader nor the ISR and replica sets, so Leader
// is -1 and ISR/Replicas stay empty. This is not backfilled from metadata.
func PartitionFromStats(stats types.ClientStats) (types.Partition, bool) {
	if stats.Topic == "" || stats.Partition == "" {
		return types.Partition{}, false
	}
	id, err := strconv.ParseInt(stats.Partition, 10, 32)
	if err != nil || id < 0 {
		return types.Partition{}, false
	}
	return types.Partition{ID: int32(id), Leader: -1}, true
}
