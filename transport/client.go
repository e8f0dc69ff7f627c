package transport

import (
	"context"
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/enet/logging"
)

// endpoint is the client-side state machine shared by TCPClient and
// UDPClient. It owns at most one socket and one receive goroutine at a time.
type endpoint struct {
	network  string // "tcp" or "udp"
	address  string
	datagram bool
	opts     Options
	log      *logging.Logger

	mu    sync.Mutex
	state State
	conn  net.Conn

	connected    handlers[func()]
	disconnected handlers[func()]
	received     handlers[func([]byte)]
}

func newEndpoint(network, component, address string, opts *Options, readBufferSize int) endpoint {
	o := opts.withDefaults(readBufferSize)
	return endpoint{
		network:  network,
		address:  address,
		datagram: network == "udp",
		opts:     o,
		log: o.Logger.WithFields(logrus.Fields{
			"component": component,
			"addr":      address,
		}),
	}
}

// Address returns the remote address the endpoint connects to.
func (e *endpoint) Address() string {
	return e.address
}

// State returns the current lifecycle state.
func (e *endpoint) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Connected reports whether the endpoint has a live socket.
func (e *endpoint) Connected() bool {
	return e.State() == StateConnected
}

// LocalAddr returns the local socket address, or nil when disconnected.
func (e *endpoint) LocalAddr() net.Addr {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.conn == nil {
		return nil
	}
	return e.conn.LocalAddr()
}

// OnConnected registers fn to run after every successful Connect.
func (e *endpoint) OnConnected(fn func()) {
	if fn != nil {
		e.connected.add(fn)
	}
}

// OnDisconnected registers fn to run once per transition from connected to
// disconnected, whatever caused it.
func (e *endpoint) OnDisconnected(fn func()) {
	if fn != nil {
		e.disconnected.add(fn)
	}
}

// OnDataReceived registers fn to receive every chunk read from the socket.
// Handlers run on the receive goroutine; the slice is owned by the handlers.
func (e *endpoint) OnDataReceived(fn func(data []byte)) {
	if fn != nil {
		e.received.add(fn)
	}
}

// Connect opens the socket and starts the receive goroutine. On failure the
// endpoint is left disconnected and the error is returned; no disconnect
// event fires for a connection that never came up.
func (e *endpoint) Connect(ctx context.Context) error {
	e.mu.Lock()
	if e.state != StateDisconnected {
		e.mu.Unlock()
		return newNetError("connect", e.address, ErrAlreadyConnected)
	}
	e.state = StateConnecting
	e.mu.Unlock()

	e.log.Debug("Connecting")

	dialer := net.Dialer{Timeout: e.opts.DialTimeout}
	conn, err := dialer.DialContext(ctx, e.network, e.address)
	if err == nil {
		if err = applySocketBuffers(conn, e.opts); err != nil {
			conn.Close()
		}
	}
	if err != nil {
		e.mu.Lock()
		e.state = StateDisconnected
		e.mu.Unlock()

		e.opts.Metrics.failed(e.network, "connect")
		e.log.WithError(err).Error("Failed to connect")
		return newNetError("connect", e.address, err)
	}

	e.mu.Lock()
	e.conn = conn
	e.state = StateConnected
	e.mu.Unlock()

	e.opts.Metrics.opened(e.network, "client")
	e.log.WithField("local_addr", conn.LocalAddr().String()).Info("Connected")

	for _, fn := range e.connected.snapshot() {
		fn()
	}

	go e.receive(conn)
	return nil
}

// Disconnect closes the socket if the endpoint is connected and fires the
// disconnect handlers. On an endpoint that is already disconnected it does
// nothing.
func (e *endpoint) Disconnect() error {
	e.mu.Lock()
	conn := e.conn
	e.mu.Unlock()

	if conn == nil {
		return nil
	}
	if err := e.teardown(conn); err != nil {
		e.log.WithError(err).Error("Failed to close connection")
		return newNetError("disconnect", e.address, err)
	}
	return nil
}

// Send writes buf to the remote peer. It blocks until the write completes
// and never retries.
func (e *endpoint) Send(buf []byte) error {
	e.mu.Lock()
	conn := e.conn
	e.mu.Unlock()

	if conn == nil {
		e.log.Error("Failed to send: not connected")
		return newNetError("send", e.address, ErrNotConnected)
	}

	n, err := writeWithDeadline(conn, buf, e.opts.WriteTimeout)
	if err != nil {
		e.opts.Metrics.failed(e.network, "send")
		e.log.WithError(err).Error("Failed to send data")
		return newNetError("send", e.address, err)
	}

	e.opts.Metrics.sent(e.network, n)
	e.log.WithField("bytes", n).Debug("Data sent")
	return nil
}

// receive runs the receive loop for conn and then converges the endpoint to
// disconnected.
func (e *endpoint) receive(conn net.Conn) {
	deliver := func(data []byte) {
		e.opts.Metrics.received(e.network, len(data))
		for _, fn := range e.received.snapshot() {
			fn(data)
		}
	}

	var err error
	if e.datagram {
		err = readDatagrams(conn, e.opts.ReadBufferSize, deliver)
	} else {
		err = readStream(conn, e.opts.ReadBufferSize, deliver)
	}

	if !isClosedError(err) && !isRefusedError(err) {
		e.opts.Metrics.failed(e.network, "receive")
	}
	logReceiveEnd(e.log, err)

	// A close error here is already covered by the receive error.
	_ = e.teardown(conn)
}

// teardown moves the endpoint from connected to disconnected if conn is
// still its live socket, then closes conn and fires the disconnect
// handlers. Only the first caller for a given conn performs the transition.
func (e *endpoint) teardown(conn net.Conn) error {
	e.mu.Lock()
	if e.conn != conn || e.state != StateConnected {
		e.mu.Unlock()
		return nil
	}
	e.conn = nil
	e.state = StateDisconnected
	e.mu.Unlock()

	err := conn.Close()

	e.opts.Metrics.closed(e.network, "client")
	e.log.Info("Disconnected")

	for _, fn := range e.disconnected.snapshot() {
		fn()
	}
	return err
}
