package transport

import (
	"time"

	"github.com/opd-ai/enet/logging"
)

const (
	// DefaultReadBufferSize is the TCP receive-loop chunk size.
	DefaultReadBufferSize = 1024

	// DefaultDatagramSize is the UDP receive buffer size; it holds any
	// datagram the network can deliver.
	DefaultDatagramSize = 65536

	// DefaultDialTimeout bounds Connect when the context has no deadline.
	DefaultDialTimeout = 5 * time.Second
)

// Options configures an endpoint or listener. Constructors copy the value,
// so changing an Options after construction has no effect.
type Options struct {
	// ReadBufferSize is the size of the private buffer each receive loop
	// reads into. Zero selects DefaultReadBufferSize for TCP and
	// DefaultDatagramSize for UDP.
	ReadBufferSize int

	// SocketReadBuffer and SocketWriteBuffer set the kernel buffer sizes
	// (SO_RCVBUF/SO_SNDBUF). Zero keeps the operating system default.
	SocketReadBuffer  int
	SocketWriteBuffer int

	// DialTimeout bounds Connect. Zero selects DefaultDialTimeout.
	DialTimeout time.Duration

	// WriteTimeout bounds each Send. Zero means no deadline.
	WriteTimeout time.Duration

	// Logger receives lifecycle and failure messages. Nil is silent.
	Logger *logging.Logger

	// Metrics records connection and traffic counters. Nil records nothing.
	Metrics *Metrics
}

// DefaultOptions returns the options used when a constructor receives nil.
func DefaultOptions() *Options {
	return &Options{
		DialTimeout: DefaultDialTimeout,
	}
}

// withDefaults returns a copy of o with zero fields filled in.
func (o *Options) withDefaults(readBufferSize int) Options {
	var out Options
	if o != nil {
		out = *o
	}
	if out.ReadBufferSize <= 0 {
		out.ReadBufferSize = readBufferSize
	}
	if out.DialTimeout <= 0 {
		out.DialTimeout = DefaultDialTimeout
	}
	if out.Logger == nil {
		out.Logger = logging.Discard()
	}
	return out
}

type bufferSetter interface {
	SetReadBuffer(bytes int) error
	SetWriteBuffer(bytes int) error
}

// applySocketBuffers sets kernel buffer sizes on TCP and UDP sockets.
func applySocketBuffers(conn interface{}, o Options) error {
	s, ok := conn.(bufferSetter)
	if !ok {
		return nil
	}
	if o.SocketReadBuffer > 0 {
		if err := s.SetReadBuffer(o.SocketReadBuffer); err != nil {
			return err
		}
	}
	if o.SocketWriteBuffer > 0 {
		if err := s.SetWriteBuffer(o.SocketWriteBuffer); err != nil {
			return err
		}
	}
	return nil
}
