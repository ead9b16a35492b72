package kafka

import (
	"context"
	"fmt"
	"sort"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/kafka2i/kafka2i/internal/types"
)

// FetchGroupLag fetches committed offsets of a group and compares them
// against the end offsets of the same partitions. A group without committed
// offsets has an empty, non nil result.
func (c *Client) FetchGroupLag(ctx context.Context, groupID string) ([]types.TopicLag, error) {
	c.log.Debug("fetching group lag", zap.String("group", groupID))
	resp, err := c.client.OffsetFetch(ctx, &kafka.OffsetFetchRequest{GroupID: groupID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch offsets for group %s: %w", groupID, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("failed to fetch offsets for group %s: %w", groupID, resp.Error)
	}

	committed := make(map[string]map[int32]int64, len(resp.Topics))
	requests := make(map[string][]kafka.OffsetRequest, len(resp.Topics))
	for topic, partitions := range resp.Topics {
		for _, p := range partitions {
			if p.Error != nil || p.CommittedOffset < 0 {
				continue
			}
			if committed[topic] == nil {
				committed[topic] = make(map[int32]int64)
			}
			committed[topic][int32(p.Partition)] = p.CommittedOffset
			requests[topic] = append(requests[topic], kafka.LastOffsetOf(p.Partition))
		}
	}
	if len(requests) == 0 {
		return []types.TopicLag{}, nil
	}

	offsets, err := c.client.ListOffsets(ctx, &kafka.ListOffsetsRequest{Topics: requests})
	if err != nil {
		return nil, fmt.Errorf("failed to list end offsets for group %s: %w", groupID, err)
	}

	ends := make(map[string]map[int32]int64, len(offsets.Topics))
	for topic, partitions := range offsets.Topics {
		for _, p := range partitions {
			if p.Error != nil {
				continue
			}
			if ends[topic] == nil {
				ends[topic] = make(map[int32]int64)
			}
			ends[topic][int32(p.Partition)] = p.LastOffset
		}
	}

	return CalcLag(committed, ends), nil
}

// CalcLag computes per topic lag from committed and end offsets. Partitions
// missing an end offset are skipped; negative lag is clamped to zero.
// Results are sorted by topic.
func CalcLag(committed, ends map[string]map[int32]int64) []types.TopicLag {
	lags := make([]types.TopicLag, 0, len(committed))
	for topic, partitions := range committed {
		topicEnds, ok := ends[topic]
		if !ok {
			continue
		}

		tl := types.TopicLag{Topic: topic}
		for partition, offset := range partitions {
			end, ok := topicEnds[partition]
			if !ok {
				continue
			}
			lag := max(end-offset, 0)
			tl.Sum += lag
			tl.Max = max(tl.Max, lag)
			tl.Partitions++
		}
		if tl.Partitions > 0 {
			lags = append(lags, tl)
		}
	}

	sort.Slice(lags, func(i, j int) bool { return lags[i].Topic < lags[j].Topic })
	return lags
}
