package ui

import (
	"testing"
	"time"

	catppuccin "github.com/catppuccin/go"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/kafka2i/kafka2i/internal/consumer"
	"github.com/kafka2i/kafka2i/internal/nav"
	"github.com/kafka2i/kafka2i/internal/types"
)

func strPtr(s string) *string { return &s }

func TestMessageBody(t *testing.T) {
	body := messageBody(&types.Message{
		Key:     strPtr("user-1"),
		Headers: []types.Header{{Key: "z", Value: "1"}, {Key: "a", Value: "2"}},
		Payload: strPtr(`{"name":"kafka","tags":["a"]}`),
	})

	assert.Equal(t, "Key: user-1\n\nHeaders:\n  z: 1\n  a: 2\n\nPayload:\n{\n  \"name\": \"kafka\",\n  \"tags\": [\n    \"a\"\n  ]\n}", body)
}

func TestMessageBodyDefaults(t *testing.T) {
	body := messageBody(&types.Message{})
	assert.Equal(t, "Key: No key\n\nHeaders: No headers\n\nPayload:\nNo Payload", body)
}

func TestPrettyPayload(t *testing.T) {
	assert.Equal(t, "plain text", prettyPayload("plain text"))
	assert.Equal(t, "{broken", prettyPayload("{broken"))
	assert.Equal(t, "[\n  1,\n  2\n]", prettyPayload(" [1,2] "))
}

func TestMessageTitle(t *testing.T) {
	now := time.UnixMilli(1714732185000)
	ts := now.Add(-2 * time.Hour).UnixMilli()

	assert.Equal(t, "Offset: 7", messageTitle(&types.Message{Offset: 7}, now))
	assert.Equal(t, "Offset: 7 | Timestamp: 1714724985000 (2 hours ago)", messageTitle(&types.Message{Offset: 7, Timestamp: &ts}, now))
}

func TestDetails(t *testing.T) {
	assert.Equal(t, "ID         : 3\nStatus     : UP\nPartitions : 1,024",
		brokerDetails(types.Broker{ID: 3, State: "UP"}, 1024))
	assert.Equal(t, "State   : Stable\nMembers : 2\nLag     : unknown",
		groupDetails(types.ConsumerGroup{State: "Stable", Members: []types.Member{{ID: "a"}, {ID: "b"}}}))
	assert.Equal(t, "State   : Empty\nMembers : 0\nLag     : no committed offsets",
		groupDetails(types.ConsumerGroup{State: "Empty", Lag: []types.TopicLag{}}))
	assert.Equal(t, "State   : Stable\nMembers : 0\nLag     :\n  orders  total 12,000  max 7,000  (3 partitions)",
		groupDetails(types.ConsumerGroup{State: "Stable", Lag: []types.TopicLag{{Topic: "orders", Partitions: 3, Sum: 12000, Max: 7000}}}))
	assert.Equal(t, "Partitions : 3", topicDetails(types.Topic{Partitions: make([]types.Partition, 3)}))
	assert.Contains(t, partitionDetails(&consumer.PartitionDetails{Leader: 2, ISR: 3, Replicas: 3, Low: 1000, High: 25000}),
		"Messages   : 24,000")
}

func TestStatsLine(t *testing.T) {
	assert.Empty(t, statsLine(types.ClientStats{}))
	assert.Equal(t, "c1 orders/2  msgs 10  bytes 2.0 kB  errors 1  lag 5",
		statsLine(types.ClientStats{ClientID: "c1", Topic: "orders", Partition: "2", Messages: 10, Bytes: 2000, Errors: 1, Lag: 5}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "orders", truncate("orders", 10))
	assert.Equal(t, "orde…", truncate("orders/12", 5))
	assert.Equal(t, "", truncate("orders", 0))
}

func TestKeyEvents(t *testing.T) {
	keys := DefaultKeyMap()

	normal := map[string]nav.Event{
		"tab":       nav.EventTab,
		"shift+tab": nav.EventBackTab,
		"up":        nav.EventUp,
		"down":      nav.EventDown,
		"left":      nav.EventLeft,
		"right":     nav.EventRight,
		":":         nav.EventCommandMode,
		"i":         nav.EventInsertMode,
		"c":         nav.EventConsumerMode,
		"p":         nav.EventProducerMode,
		"m":         nav.EventScrollDown,
		"n":         nav.EventScrollUp,
		"h":         nav.EventHelp,
		"s":         nav.EventPublish,
		"q":         nav.EventQuit,
		"Q":         nav.EventQuit,
		"ctrl+c":    nav.EventQuit,
		"x":         nav.EventInput,
	}
	for k, want := range normal {
		assert.Equal(t, want, keys.event(keyMsg(k), nav.Normal), k)
	}

	insert := map[string]nav.Event{
		"esc":    nav.EventEsc,
		"enter":  nav.EventEnter,
		"tab":    nav.EventTab,
		"ctrl+c": nav.EventQuit,
		"q":      nav.EventInput,
		":":      nav.EventInput,
		"left":   nav.EventInput,
	}
	for k, want := range insert {
		assert.Equal(t, want, keys.event(keyMsg(k), nav.Insert), k)
	}
}

func TestFlavorFromName(t *testing.T) {
	assert.Equal(t, catppuccin.Latte, flavorFromName("latte"))
	assert.Equal(t, catppuccin.Mocha, flavorFromName("unknown"))
}

var _ tea.Model = model{}
