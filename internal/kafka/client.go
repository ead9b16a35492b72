package kafka

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/kafka2i/kafka2i/internal/types"
)

const brokerStateUp = "UP"

var hasPort = regexp.MustCompile(`:\d+$`)

// Client wraps the kafka-go client, dialer and a single partition reader that
// acts as the consumer handle. It is not safe for concurrent use; callers
// serialise access (see consumer.LockedClient).
type Client struct {
	brokers   []string
	client    *kafka.Client
	transport *kafka.Transport
	dialer    *kafka.Dialer
	context   ClientContext
	log       *zap.Logger

	reader          *kafka.Reader
	readerTopic     string
	readerPartition int32
}

// NewClient creates a client for the given bootstrap servers and checks that
// the first one is reachable.
func NewClient(params *types.Params, clientContext ClientContext, log *zap.Logger) (*Client, error) {
	if len(params.BootstrapServers) == 0 {
		return nil, fmt.Errorf("no brokers provided")
	}
	if clientContext == nil {
		clientContext = DefaultContext{}
	}

	brokers := make([]string, 0, len(params.BootstrapServers))
	for _, b := range params.BootstrapServers {
		// Add default port if not specified
		if !hasPort.MatchString(b) {
			b = b + ":9092"
		}
		brokers = append(brokers, b)
	}

	dialer := &kafka.Dialer{
		ClientID:  params.ClientID,
		Timeout:   params.Timeout,
		DualStack: true,
	}

	// Test connection
	conn, err := dialer.Dial("tcp", brokers[0])
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker %s: %w", brokers[0], err)
	}
	conn.Close()

	transport := &kafka.Transport{
		ClientID:    params.ClientID,
		DialTimeout: params.Timeout,
	}

	return &Client{
		brokers: brokers,
		client: &kafka.Client{
			Addr:      kafka.TCP(brokers...),
			Timeout:   params.Timeout,
			Transport: transport,
		},
		transport: transport,
		dialer:    dialer,
		context:   clientContext,
		log:       log.Named("kafka"),
	}, nil
}

// Close closes the consumer reader if one is assigned
func (c *Client) Close() error {
	if c.reader != nil {
		err := c.reader.Close()
		c.reader = nil
		return err
	}
	return nil
}

// FetchMetadata retrieves brokers and topics with their partitions
func (c *Client) FetchMetadata(ctx context.Context) ([]types.Broker, []types.Topic, error) {
	c.log.Debug("fetching metadata")
	resp, err := c.client.Metadata(ctx, &kafka.MetadataRequest{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch metadata: %w", err)
	}

	brokers := make([]types.Broker, 0, len(resp.Brokers))
	for _, b := range resp.Brokers {
		brokers = append(brokers, types.Broker{
			ID:    int32(b.ID),
			Host:  b.Host,
			Port:  int32(b.Port),
			State: brokerStateUp,
		})
	}
	sort.Slice(brokers, func(i, j int) bool { return brokers[i].ID < brokers[j].ID })

	topics := make([]types.Topic, 0, len(resp.Topics))
	for _, t := range resp.Topics {
		if t.Error != nil {
			c.log.Warn("skipping topic with metadata error", zap.String("topic", t.Name), zap.Error(t.Error))
			continue
		}
		topic := types.Topic{
			Name:       t.Name,
			Partitions: make([]types.Partition, 0, len(t.Partitions)),
		}
		for _, p := range t.Partitions {
			topic.Partitions = append(topic.Partitions, types.Partition{
				ID:       int32(p.ID),
				Leader:   int32(p.Leader.ID),
				ISR:      brokerIDs(p.Isr),
				Replicas: brokerIDs(p.Replicas),
			})
		}
		sort.Slice(topic.Partitions, func(i, j int) bool { return topic.Partitions[i].ID < topic.Partitions[j].ID })
		topics = append(topics, topic)
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Name < topics[j].Name })

	return brokers, topics, nil
}

// FetchGroups lists consumer groups and describes their state and members
func (c *Client) FetchGroups(ctx context.Context) ([]types.ConsumerGroup, error) {
	c.log.Debug("fetching groups")
	listed, err := c.client.ListGroups(ctx, &kafka.ListGroupsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list consumer groups: %w", err)
	}
	if listed.Error != nil {
		return nil, fmt.Errorf("failed to list consumer groups: %w", listed.Error)
	}

	groupIDs := make([]string, 0, len(listed.Groups))
	for _, g := range listed.Groups {
		groupIDs = append(groupIDs, g.GroupID)
	}
	sort.Strings(groupIDs)

	groups := make([]types.ConsumerGroup, 0, len(groupIDs))
	if len(groupIDs) == 0 {
		return groups, nil
	}

	described := make(map[string]kafka.DescribeGroupsResponseGroup, len(groupIDs))
	resp, err := c.client.DescribeGroups(ctx, &kafka.DescribeGroupsRequest{GroupIDs: groupIDs})
	if err != nil {
		// Group names are still useful without state
		c.log.Warn("failed to describe consumer groups", zap.Int("groups", len(groupIDs)), zap.Error(err))
	} else {
		for _, g := range resp.Groups {
			described[g.GroupID] = g
		}
	}

	for _, id := range groupIDs {
		group := types.ConsumerGroup{Name: id, State: "Unknown"}
		if g, ok := described[id]; ok && g.Error == nil {
			group.State = g.GroupState
			for _, m := range g.Members {
				group.Members = append(group.Members, types.Member{
					ID:         m.MemberID,
					ClientID:   m.ClientID,
					ClientHost: m.ClientHost,
				})
			}
		}
		groups = append(groups, group)
	}

	return groups, nil
}

// FetchWatermarks returns the low and high watermark of a partition
func (c *Client) FetchWatermarks(ctx context.Context, topic string, partition int32) (int64, int64, error) {
	c.log.Debug("fetching watermarks", zap.String("topic", topic), zap.Int32("partition", partition))
	resp, err := c.client.ListOffsets(ctx, &kafka.ListOffsetsRequest{
		Topics: map[string][]kafka.OffsetRequest{
			topic: {
				kafka.FirstOffsetOf(int(partition)),
				kafka.LastOffsetOf(int(partition)),
			},
		},
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list offsets for %s: %w", types.PartitionName(topic, partition), err)
	}

	for _, p := range resp.Topics[topic] {
		if p.Partition != int(partition) {
			continue
		}
		if p.Error != nil {
			return 0, 0, fmt.Errorf("failed to list offsets for %s: %w", types.PartitionName(topic, partition), p.Error)
		}
		return p.FirstOffset, p.LastOffset, nil
	}

	return 0, 0, fmt.Errorf("no offsets returned for %s", types.PartitionName(topic, partition))
}

// Assign binds the consumer handle to a single partition, positioned at the
// end of the log. Any previous assignment is released.
func (c *Client) Assign(topic string, partition int32) error {
	c.log.Debug("assigning partition", zap.String("topic", topic), zap.Int32("partition", partition))
	if c.reader != nil {
		if err := c.reader.Close(); err != nil {
			c.log.Warn("failed to close previous reader", zap.Error(err))
		}
		c.reader = nil
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   c.brokers,
		Topic:     topic,
		Partition: int(partition),
		Dialer:    c.dialer,
		MinBytes:  1,
		MaxBytes:  10e6,
		MaxWait:   500 * time.Millisecond,
	})
	if err := reader.SetOffset(kafka.LastOffset); err != nil {
		reader.Close()
		return fmt.Errorf("failed to assign %s: %w", types.PartitionName(topic, partition), err)
	}

	c.reader = reader
	c.readerTopic = topic
	c.readerPartition = partition
	return nil
}

// Poll returns the next message of the assigned partition. A nil message and
// nil error mean nothing arrived before ctx expired.
func (c *Client) Poll(ctx context.Context) (*types.Message, error) {
	if c.reader == nil {
		return nil, ErrNotAssigned
	}

	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, nil
		}
		if isTransportFailure(err) {
			return nil, fmt.Errorf("%w: %w", ErrBrokerTransport, err)
		}
		return nil, err
	}

	return toMessage(msg), nil
}

// Seek positions the consumer handle at offset. The partition must be the one
// currently assigned.
func (c *Client) Seek(ctx context.Context, topic string, partition int32, offset int64) error {
	c.log.Debug("seeking offset", zap.String("topic", topic), zap.Int32("partition", partition), zap.Int64("offset", offset))
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.reader == nil || c.readerTopic != topic || c.readerPartition != partition {
		return fmt.Errorf("seek on %s: %w", types.PartitionName(topic, partition), ErrErroneousState)
	}
	return c.reader.SetOffset(offset)
}

// OffsetForTimestamp returns the earliest offset whose timestamp is at or after
// ts (epoch milliseconds). ok is false when no such offset exists.
func (c *Client) OffsetForTimestamp(ctx context.Context, topic string, partition int32, ts int64) (int64, bool, error) {
	var lastErr error
	for _, broker := range c.brokers {
		conn, err := c.dialer.DialLeader(ctx, "tcp", broker, topic, int(partition))
		if err != nil {
			lastErr = err
			continue
		}

		if deadline, ok := ctx.Deadline(); ok {
			conn.SetDeadline(deadline)
		}
		offset, err := conn.ReadOffset(time.UnixMilli(ts))
		conn.Close()
		if err != nil {
			return 0, false, fmt.Errorf("failed to read offset for timestamp %d on %s: %w", ts, types.PartitionName(topic, partition), err)
		}
		if offset < 0 {
			return 0, false, nil
		}
		return offset, true, nil
	}

	return 0, false, fmt.Errorf("error dialing all brokers: %w", lastErr)
}

// PollStats hands the current reader statistics to the client context
func (c *Client) PollStats() {
	if c.reader == nil {
		return
	}
	c.context.Stats(statsFromReader(c.reader.Stats()))
}

func brokerIDs(brokers []kafka.Broker) []int32 {
	result := make([]int32, len(brokers))
	for i, b := range brokers {
		result[i] = int32(b.ID)
	}
	return result
}

func toMessage(msg kafka.Message) *types.Message {
	m := &types.Message{
		Topic:     msg.Topic,
		Partition: int32(msg.Partition),
		Offset:    msg.Offset,
		Key:       utf8String(msg.Key),
		Payload:   utf8String(msg.Value),
	}
	for _, h := range msg.Headers {
		m.Headers = append(m.Headers, types.Header{Key: h.Key, Value: string(h.Value)})
	}
	if !msg.Time.IsZero() {
		ts := msg.Time.UnixMilli()
		m.Timestamp = &ts
	}
	return m
}

// utf8String returns nil for absent or non UTF-8 data
func utf8String(b []byte) *string {
	if b == nil || !utf8.Valid(b) {
		return nil
	}
	s := string(b)
	return &s
}
