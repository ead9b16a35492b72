package ui

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/kafka2i/kafka2i/internal/consumer"
	"github.com/kafka2i/kafka2i/internal/kafka"
	"github.com/kafka2i/kafka2i/internal/types"
)

func brokerDetails(b types.Broker, partitions int) string {
	return fmt.Sprintf("ID         : %d\nStatus     : %s\nPartitions : %s", b.ID, b.State, humanize.Comma(int64(partitions)))
}

func groupDetails(g types.ConsumerGroup) string {
	var b strings.Builder
	fmt.Fprintf(&b, "State   : %s\nMembers : %d", g.State, len(g.Members))
	switch {
	case g.Lag == nil:
		b.WriteString("\nLag     : unknown")
	case len(g.Lag) == 0:
		b.WriteString("\nLag     : no committed offsets")
	default:
		b.WriteString("\nLag     :")
		for _, l := range g.Lag {
			fmt.Fprintf(&b, "\n  %s  total %s  max %s  (%d partitions)",
				l.Topic, humanize.Comma(l.Sum), humanize.Comma(l.Max), l.Partitions)
		}
	}
	return b.String()
}

func topicDetails(t types.Topic) string {
	return fmt.Sprintf("Partitions : %d", len(t.Partitions))
}

func partitionDetails(d *consumer.PartitionDetails) string {
	return fmt.Sprintf("Leader     : %d\nISR        : %d\nReplicas   : %d\nLow        : %s\nHigh       : %s\nMessages   : %s",
		d.Leader, d.ISR, d.Replicas,
		humanize.Comma(d.Low), humanize.Comma(d.High), humanize.Comma(d.High-d.Low))
}

// statsLine summarises the assigned reader. Empty until a partition was assigned.
func statsLine(s types.ClientStats) string {
	p, ok := kafka.PartitionFromStats(s)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s %s  msgs %s  bytes %s  errors %d  lag %s",
		s.ClientID, types.PartitionName(s.Topic, p.ID),
		humanize.Comma(s.Messages), humanize.Bytes(uint64(max(s.Bytes, 0))), s.Errors, humanize.Comma(s.Lag))
}
