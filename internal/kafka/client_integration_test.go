//go:build integration

package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
	"go.uber.org/zap"

	"github.com/kafka2i/kafka2i/internal/types"
)

func startBroker(t *testing.T) []string {
	t.Helper()
	ctx := context.Background()

	container, err := tckafka.Run(ctx, "apache/kafka:latest", tckafka.WithClusterID("kafka2i-test"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	return brokers
}

func TestClientAgainstBroker(t *testing.T) {
	brokers := startBroker(t)
	params := &types.Params{
		BootstrapServers: brokers,
		ClientID:         "kafka2i-it",
		Timeout:          30 * time.Second,
	}

	client, err := NewClient(params, DefaultContext{}, zap.NewNop())
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	producer := client.NewProducer(10 * time.Second)
	for _, payload := range []string{"zero", "one", "two"} {
		require.Eventually(t, func() bool {
			return producer.Produce(ctx, types.ProduceRequest{
				Topic:     "orders",
				Partition: 0,
				Key:       "k",
				Headers:   []types.Header{{Key: "h", Value: "v"}},
				Payload:   payload,
			}) == nil
		}, time.Minute, time.Second)
	}

	brokerList, topics, err := client.FetchMetadata(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, brokerList)
	var names []string
	for _, topic := range topics {
		names = append(names, topic.Name)
	}
	assert.Contains(t, names, "orders")

	low, high, err := client.FetchWatermarks(ctx, "orders", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), low)
	assert.Equal(t, int64(3), high)

	require.NoError(t, client.Assign("orders", 0))
	require.NoError(t, client.Seek(ctx, "orders", 0, 1))

	pollCtx, pollCancel := context.WithTimeout(ctx, 10*time.Second)
	defer pollCancel()
	msg, err := client.Poll(pollCtx)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, int64(1), msg.Offset)
	assert.Equal(t, "one", msg.PayloadOrDefault())
	assert.Equal(t, []types.Header{{Key: "h", Value: "v"}}, msg.Headers)

	offset, ok, err := client.OffsetForTimestamp(ctx, "orders", 0, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(0), offset)

	assert.ErrorIs(t, client.Seek(ctx, "other", 0, 0), ErrErroneousState)

	_, err = client.FetchGroups(ctx)
	assert.NoError(t, err)
}
