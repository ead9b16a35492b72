// Package command interprets the commands typed in consumer insert mode.
package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kafka2i/kafka2i/internal/consumer"
)

// Short codes shown in the footer
const (
	CodeInvalidCommand      = "err:InvalidCMD"
	CodeInvalidFormat       = "err:InvalidCMDFormat"
	CodeInvalidOffset       = "err:InvalidOffset"
	CodeInvalidTimestamp    = "err:InvalidTimestamp"
	CodeNoSelectedPartition = "err:NoSelectedPartition"
	CodeFetchingOffset      = "err:FetchingOffset"
	CodeOffsetNotFound      = "err:OffsetNotFound"
)

// 9999-12-31T23:59:59.999Z
const maxTimestampMillis int64 = 253402300799999

// Error is a command failure with a short user visible code
type Error struct {
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Code
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code string, format string, args ...any) *Error {
	return &Error{Code: code, Err: fmt.Errorf(format, args...)}
}

// Kind of command
type Kind int

const (
	Offset Kind = iota
	Timestamp
)

func (k Kind) String() string {
	switch k {
	case Offset:
		return "offset"
	case Timestamp:
		return "ts"
	default:
		return "unknown"
	}
}

// Command is a parsed "<command>!<argument>"
type Command struct {
	Kind  Kind
	Value int64
}

// Parse parses a command line. One leading ':' is ignored.
func Parse(input string) (Command, error) {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, ":")

	name, arg, ok := strings.Cut(input, "!")
	if !ok {
		return Command{}, newError(CodeInvalidFormat, "expected <command>!<argument>, got %q", input)
	}
	name = strings.TrimSpace(name)
	arg = strings.TrimSpace(arg)

	switch name {
	case "offset":
		offset, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return Command{}, newError(CodeInvalidOffset, "invalid offset %q", arg)
		}
		return Command{Kind: Offset, Value: offset}, nil
	case "ts":
		// Negative values are the earliest/latest sentinels of ListOffsets
		ts, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || ts < 0 || ts > maxTimestampMillis {
			return Command{}, newError(CodeInvalidTimestamp, "invalid epoch milliseconds %q", arg)
		}
		return Command{Kind: Timestamp, Value: ts}, nil
	default:
		return Command{}, newError(CodeInvalidCommand, "unknown command %q", name)
	}
}

// Fetcher is the part of the fetch protocol commands drive
type Fetcher interface {
	Fetch(ctx context.Context, partitionName string, req consumer.OffsetRequest, progress func(string)) (consumer.Result, error)
	OffsetForTimestamp(ctx context.Context, partitionName string, ts int64) (int64, bool, error)
}

// Interpreter turns command lines into fetches
type Interpreter struct {
	fetcher Fetcher
	log     *zap.Logger
}

func NewInterpreter(fetcher Fetcher, log *zap.Logger) *Interpreter {
	return &Interpreter{fetcher: fetcher, log: log.Named("command")}
}

// Validate checks input and the partition selection without touching the
// cluster. It returns the same errors Execute would for bad input.
func (i *Interpreter) Validate(input, partitionName string) error {
	_, err := i.check(input, partitionName)
	return err
}

func (i *Interpreter) check(input, partitionName string) (Command, error) {
	cmd, err := Parse(input)
	if err != nil {
		i.log.Warn("invalid command", zap.String("input", input), zap.Error(err))
		return Command{}, err
	}
	if partitionName == "" {
		i.log.Warn("command without partition", zap.String("input", input))
		return Command{}, newError(CodeNoSelectedPartition, "select a partition before running %s", cmd.Kind)
	}
	return cmd, nil
}

// Execute parses input and fetches the addressed message from the selected
// partition. Input errors never reach the cluster.
func (i *Interpreter) Execute(ctx context.Context, input, partitionName string, progress func(string)) (consumer.Result, error) {
	cmd, err := i.check(input, partitionName)
	if err != nil {
		return consumer.Result{}, err
	}

	offset := cmd.Value
	if cmd.Kind == Timestamp {
		if progress != nil {
			progress("resolving timestamp ...")
		}
		resolved, found, err := i.fetcher.OffsetForTimestamp(ctx, partitionName, cmd.Value)
		if err != nil {
			i.log.Error("failed to resolve timestamp", zap.String("partition", partitionName), zap.Int64("ts", cmd.Value), zap.Error(err))
			return consumer.Result{}, &Error{Code: CodeFetchingOffset, Err: err}
		}
		if !found {
			i.log.Warn("no offset for timestamp", zap.String("partition", partitionName), zap.Int64("ts", cmd.Value))
			return consumer.Result{}, newError(CodeOffsetNotFound, "no offset found for timestamp %d", cmd.Value)
		}
		offset = resolved
	}

	return i.fetcher.Fetch(ctx, partitionName, consumer.AtOffset(offset), progress)
}

// Code returns the short code of a command error, or "" for any other error
func Code(err error) string {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Code
	}
	return ""
}
