package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Broker is a broker entry of a metadata snapshot
type Broker struct {
	ID    int32
	Host  string
	Port  int32
	State string
}

// Name returns the display name used as list item, "host:port/id"
func (b Broker) Name() string {
	return fmt.Sprintf("%s:%d/%d", b.Host, b.Port, b.ID)
}

// Partition describes a single topic partition.
//
// Partitions built from cluster metadata carry ISR and replica sets. Partitions
// built from client statistics (see kafka.PartitionFromStats) only know their
// id and leave ISR and Replicas empty.
type Partition struct {
	ID       int32
	Leader   int32
	ISR      []int32
	Replicas []int32
}

// Topic represents a Kafka topic and its partitions
type Topic struct {
	Name       string
	Partitions []Partition
}

// PartitionNames returns "<topic>/<partition id>" for every partition
func (t Topic) PartitionNames() []string {
	names := make([]string, 0, len(t.Partitions))
	for _, p := range t.Partitions {
		names = append(names, PartitionName(t.Name, p.ID))
	}
	return names
}

// Member is a consumer group member
type Member struct {
	ID         string
	ClientID   string
	ClientHost string
}

// TopicLag is the lag of a consumer group on one topic
type TopicLag struct {
	Topic      string
	Partitions int
	Sum        int64
	Max        int64
}

// ConsumerGroup represents a Kafka consumer group. Lag is nil when committed
// offsets could not be fetched.
type ConsumerGroup struct {
	Name    string
	Members []Member
	State   string
	Lag     []TopicLag
}

// Header is a single message header. Order of headers is preserved.
type Header struct {
	Key   string
	Value string
}

// Message is the view of a fetched message
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       *string
	Headers   []Header
	Payload   *string
	Timestamp *int64 // epoch milliseconds
}

// KeyOrDefault returns the key or a placeholder when the message has none
func (m Message) KeyOrDefault() string {
	if m.Key == nil {
		return "No key"
	}
	return *m.Key
}

// PayloadOrDefault returns the payload or a placeholder when the message has none
func (m Message) PayloadOrDefault() string {
	if m.Payload == nil {
		return "No Payload"
	}
	return *m.Payload
}

// TimestampOrDefault returns the timestamp in epoch milliseconds, 0 if unknown
func (m Message) TimestampOrDefault() int64 {
	if m.Timestamp == nil {
		return 0
	}
	return *m.Timestamp
}

// ProduceRequest is a message composed in producer mode
type ProduceRequest struct {
	Topic     string
	Partition int32 // -1 lets the balancer choose
	Key       string
	Headers   []Header
	Payload   string
}

// ClientStats is the subset of consumer statistics shown in the header
type ClientStats struct {
	ClientID  string
	Topic     string
	Partition string
	Messages  int64
	Bytes     int64
	Errors    int64
	Offset    int64
	Lag       int64
	Timestamp time.Time
}

// PartitionName builds the "<topic>/<partition id>" identifier
func PartitionName(topic string, partition int32) string {
	return topic + "/" + strconv.FormatInt(int64(partition), 10)
}

// ParsePartitionName splits a "<topic>/<partition id>" identifier
func ParsePartitionName(name string) (string, int32, error) {
	idx := strings.LastIndex(name, "/")
	if idx <= 0 || idx == len(name)-1 {
		return "", 0, fmt.Errorf("invalid partition name %q: expected <topic>/<partition>", name)
	}

	id, err := strconv.ParseInt(name[idx+1:], 10, 32)
	if err != nil || id < 0 {
		return "", 0, fmt.Errorf("invalid partition id in %q", name)
	}

	return name[:idx], int32(id), nil
}

// Params holds configuration parameters
type Params struct {
	ConfigPath       string
	BootstrapServers []string
	ClientID         string
	LogFile          string
	LogLevel         string
	Theme            string
	Clipboard        bool
	RefreshInterval  time.Duration // metadata refresh period
	StatsInterval    time.Duration // minimum gap between statistics polls
	Timeout          time.Duration // metadata class calls
	PollTimeout      time.Duration // 0 blocks until a message arrives
	WarmupTimeout    time.Duration // poll right after assigning a partition
	ProduceTimeout   time.Duration
}
