package kafka

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/kafka2i/kafka2i/internal/types"
)

// Producer publishes messages composed in producer mode
type Producer struct {
	brokers   []string
	transport *kafka.Transport
	timeout   time.Duration
	log       *zap.Logger
}

// NewProducer shares the broker list and client id of c
func (c *Client) NewProducer(timeout time.Duration) *Producer {
	return &Producer{
		brokers:   c.brokers,
		transport: c.transport,
		timeout:   timeout,
		log:       c.log.Named("producer"),
	}
}

// Produce writes req synchronously and returns once the leader acknowledged it
func (p *Producer) Produce(ctx context.Context, req types.ProduceRequest) error {
	if req.Topic == "" {
		return fmt.Errorf("no topic selected")
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(p.brokers...),
		Topic:        req.Topic,
		Balancer:     balancerFor(req.Partition),
		RequiredAcks: kafka.RequireOne,
		BatchSize:    1,
		WriteTimeout: p.timeout,
		Transport:    p.transport,
	}
	defer w.Close()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafka.Message{Value: []byte(req.Payload)}
	if req.Key != "" {
		msg.Key = []byte(req.Key)
	}
	for _, h := range req.Headers {
		msg.Headers = append(msg.Headers, kafka.Header{Key: h.Key, Value: []byte(h.Value)})
	}

	if err := w.WriteMessages(ctx, msg); err != nil {
		p.log.Error("failed to produce message", zap.String("topic", req.Topic), zap.Int32("partition", req.Partition), zap.Error(err))
		return fmt.Errorf("failed to produce to %s: %w", req.Topic, err)
	}

	p.log.Info("produced message", zap.String("topic", req.Topic), zap.Int32("partition", req.Partition))
	return nil
}

func balancerFor(partition int32) kafka.Balancer {
	if partition < 0 {
		return &kafka.Hash{}
	}
	return kafka.BalancerFunc(func(_ kafka.Message, partitions ...int) int {
		for _, p := range partitions {
			if p == int(partition) {
				return p
			}
		}
		// Unknown partition, let the broker reject it
		return int(partition)
	})
}

// ParseHeaders reads "name:value" pairs, one per line. Blank lines are
// skipped and order is preserved.
func ParseHeaders(text string) ([]types.Header, error) {
	var headers []types.Header
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header on line %d: expected name:value", i+1)
		}
		headers = append(headers, types.Header{Key: name, Value: strings.TrimSpace(value)})
	}
	return headers, nil
}
