package kafka

import (
	"errors"
	"io"
	"net"

	"github.com/segmentio/kafka-go"
)

var (
	// ErrErroneousState is returned by Seek while the consumer assignment is
	// not ready to honour a seek. Callers may retry it.
	ErrErroneousState = errors.New("erroneous state")

	// ErrBrokerTransport marks a transport level failure talking to a broker
	// during poll. Callers may retry it.
	ErrBrokerTransport = errors.New("broker transport failure")

	// ErrNotAssigned is returned by Poll before any partition was assigned.
	ErrNotAssigned = errors.New("no partition assigned")
)

// isTransportFailure reports whether err came from the connection to the
// broker rather than from the broker itself.
func isTransportFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var kerr kafka.Error
	if errors.As(err, &kerr) {
		return kerr.Temporary()
	}
	var nerr net.Error
	return errors.As(err, &nerr)
}
