package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected indicates a send or disconnect on an endpoint with no
	// live socket.
	ErrNotConnected = errors.New("not connected")

	// ErrAlreadyConnected indicates Connect on an endpoint that is connecting
	// or connected.
	ErrAlreadyConnected = errors.New("already connected")

	// ErrAlreadyStarted indicates Start on a listener that is running.
	ErrAlreadyStarted = errors.New("already started")

	// ErrNotStarted indicates a send on a listener that is not running.
	ErrNotStarted = errors.New("not started")

	// ErrUnknownClient indicates a send to a nil connection.
	ErrUnknownClient = errors.New("unknown client")
)

// NetError records a failed transport operation and the address involved.
type NetError struct {
	Op   string // connect, listen, send, receive, accept, disconnect, stop
	Addr string // address if relevant
	Err  error  // underlying error
}

func (e *NetError) Error() string {
	if e.Addr != "" {
		return fmt.Sprintf("enet %s %s: %v", e.Op, e.Addr, e.Err)
	}
	return fmt.Sprintf("enet %s: %v", e.Op, e.Err)
}

func (e *NetError) Unwrap() error {
	return e.Err
}

func newNetError(op, addr string, err error) *NetError {
	return &NetError{
		Op:   op,
		Addr: addr,
		Err:  err,
	}
}
