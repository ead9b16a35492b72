package consumer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kafka2i/kafka2i/internal/kafka"
	"github.com/kafka2i/kafka2i/internal/metadata"
	"github.com/kafka2i/kafka2i/internal/types"
)

var (
	ErrPartitionNotFound = errors.New("unable to get details for partition")
	ErrEmptyPartition    = errors.New("no messages in partition")
	ErrNoMessage         = errors.New("no message returned")
)

// OffsetOutOfRangeError is returned when a requested offset lies outside the
// partition's [Low, High) watermark window.
type OffsetOutOfRangeError struct {
	Offset int64
	Low    int64
	High   int64
}

func (e *OffsetOutOfRangeError) Error() string {
	return fmt.Sprintf("offset %d out of range, valid offsets are [%d, %d)", e.Offset, e.Low, e.High)
}

// OffsetRequest is either a literal offset or the latest message
type OffsetRequest struct {
	latest bool
	offset int64
}

func LatestOffset() OffsetRequest { return OffsetRequest{latest: true} }

func AtOffset(offset int64) OffsetRequest { return OffsetRequest{offset: offset} }

func (r OffsetRequest) IsLatest() bool { return r.latest }

func (r OffsetRequest) String() string {
	if r.latest {
		return "latest"
	}
	return fmt.Sprintf("%d", r.offset)
}

// resolve maps the request onto the watermark window [low, high)
func (r OffsetRequest) resolve(low, high int64) (int64, error) {
	if r.latest {
		return high - 1, nil
	}
	if r.offset < low || r.offset >= high {
		return 0, &OffsetOutOfRangeError{Offset: r.offset, Low: low, High: high}
	}
	return r.offset, nil
}

// PartitionDetails is what the partition panel shows after a watermark fetch
type PartitionDetails struct {
	Topic     string
	Partition int32
	Leader    int32
	ISR       int
	Replicas  int
	Low       int64
	High      int64
}

// Result of a fetch. Details is set as soon as the watermarks are known, even
// when a later step fails.
type Result struct {
	Details *PartitionDetails
	Message *types.Message
	Offset  int64
}

// Options bound the blocking steps of a fetch
type Options struct {
	WatermarkTimeout time.Duration
	WarmupTimeout    time.Duration
	PollTimeout      time.Duration // 0 blocks until a message arrives
	SeekAttempts     int
	PollAttempts     int
	Backoff          time.Duration
}

func DefaultOptions() Options {
	return Options{
		WatermarkTimeout: 30 * time.Second,
		WarmupTimeout:    500 * time.Millisecond,
		PollTimeout:      5 * time.Second,
		SeekAttempts:     3,
		PollAttempts:     3,
		Backoff:          100 * time.Millisecond,
	}
}

// Fetcher retrieves single messages from a partition
type Fetcher struct {
	// held for a whole fetch so assign/seek/poll sequences never interleave;
	// the client itself is only locked per call
	mu sync.Mutex

	client ClusterClient
	cache  *metadata.Cache
	opts   Options
	log    *zap.Logger

	seekRetry retryPolicy
	pollRetry retryPolicy
}

func NewFetcher(client ClusterClient, cache *metadata.Cache, opts Options, log *zap.Logger) *Fetcher {
	return &Fetcher{
		client: client,
		cache:  cache,
		opts:   opts,
		log:    log.Named("consumer"),
		seekRetry: retryPolicy{
			attempts: opts.SeekAttempts,
			backoff:  opts.Backoff,
			retryable: func(err error) bool {
				return errors.Is(err, kafka.ErrErroneousState)
			},
		},
		pollRetry: retryPolicy{
			attempts: opts.PollAttempts,
			backoff:  opts.Backoff,
			retryable: func(err error) bool {
				return errors.Is(err, kafka.ErrBrokerTransport) || errors.Is(err, ErrNoMessage)
			},
		},
	}
}

// Fetch retrieves the message at req from the partition named
// "<topic>/<id>". Steps run strictly in order and a failing step skips the
// rest. progress, if not nil, receives a short status before each step.
func (f *Fetcher) Fetch(ctx context.Context, partitionName string, req OffsetRequest, progress func(string)) (Result, error) {
	if progress == nil {
		progress = func(string) {}
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var result Result

	topic, id, err := types.ParsePartitionName(partitionName)
	if err != nil {
		f.log.Error("invalid partition name", zap.String("partition", partitionName), zap.Error(err))
		return result, fmt.Errorf("%w %s: %w", ErrPartitionNotFound, partitionName, err)
	}
	log := f.log.With(zap.String("topic", topic), zap.Int32("partition", id), zap.Stringer("offset", req))

	partition, ok := f.cache.Snapshot().GetPartition(partitionName)
	if !ok {
		log.Error("partition not in metadata")
		return result, fmt.Errorf("%w %s", ErrPartitionNotFound, partitionName)
	}

	progress("fetching watermarks ...")
	low, high, err := f.watermarks(ctx, topic, id)
	if err != nil {
		log.Error("failed to fetch watermarks", zap.Error(err))
		return result, fmt.Errorf("fetching watermarks: %w", err)
	}
	result.Details = &PartitionDetails{
		Topic:     topic,
		Partition: id,
		Leader:    partition.Leader,
		ISR:       len(partition.ISR),
		Replicas:  len(partition.Replicas),
		Low:       low,
		High:      high,
	}

	if high == low {
		log.Info("partition is empty", zap.Int64("low", low), zap.Int64("high", high))
		return result, ErrEmptyPartition
	}

	offset, err := req.resolve(low, high)
	if err != nil {
		log.Warn("requested offset out of range", zap.Int64("low", low), zap.Int64("high", high), zap.Error(err))
		return result, err
	}

	progress("assigning partition ...")
	if err := f.assign(ctx, topic, id); err != nil {
		log.Error("failed to assign partition", zap.Error(err))
		return result, err
	}

	progress("seeking offset & fetching message ...")
	err = f.seekRetry.do(ctx, func(attempt int) error {
		err := f.client.Seek(ctx, topic, id, offset)
		if err != nil {
			log.Warn("seek failed", zap.Int("attempt", attempt), zap.Int64("effective_offset", offset), zap.Error(err))
		}
		return err
	})
	if err != nil {
		log.Error("failed to seek", zap.Int64("effective_offset", offset), zap.Error(err))
		return result, fmt.Errorf("seeking to offset %d: %w", offset, err)
	}

	var msg *types.Message
	err = f.pollRetry.do(ctx, func(attempt int) error {
		var err error
		msg, err = f.poll(ctx, f.opts.PollTimeout)
		if err == nil && msg == nil {
			err = ErrNoMessage
		}
		return err
	})
	if err != nil {
		log.Error("failed to fetch message", zap.Int64("effective_offset", offset), zap.Error(err))
		if errors.Is(err, ErrNoMessage) {
			return result, err
		}
		return result, fmt.Errorf("fetching message at offset %d: %w", offset, err)
	}

	result.Message = msg
	result.Offset = offset
	log.Debug("fetched message", zap.Int64("effective_offset", offset))
	return result, nil
}

// OffsetForTimestamp resolves ts (epoch milliseconds) on the named partition
func (f *Fetcher) OffsetForTimestamp(ctx context.Context, partitionName string, ts int64) (int64, bool, error) {
	topic, id, err := types.ParsePartitionName(partitionName)
	if err != nil {
		return 0, false, err
	}
	ctx, cancel := context.WithTimeout(ctx, f.opts.WatermarkTimeout)
	defer cancel()
	return f.client.OffsetForTimestamp(ctx, topic, id, ts)
}

func (f *Fetcher) watermarks(ctx context.Context, topic string, id int32) (int64, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, f.opts.WatermarkTimeout)
	defer cancel()
	return f.client.FetchWatermarks(ctx, topic, id)
}

// assign binds the partition and drains one poll whose result is discarded
func (f *Fetcher) assign(ctx context.Context, topic string, id int32) error {
	if err := f.client.Assign(topic, id); err != nil {
		return fmt.Errorf("assigning partition: %w", err)
	}
	err := f.pollRetry.do(ctx, func(int) error {
		_, err := f.poll(ctx, f.opts.WarmupTimeout)
		return err
	})
	if err != nil {
		return fmt.Errorf("polling after assign: %w", err)
	}
	return nil
}

func (f *Fetcher) poll(ctx context.Context, timeout time.Duration) (*types.Message, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return f.client.Poll(ctx)
}
