package transport

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/enet/logging"
)

// TCPServer accepts stream connections and runs one receive goroutine per
// connected client.
//
// The accept loop inserts each new connection into the registry and fires
// OnClientConnected before starting its receive goroutine. When a receive
// goroutine ends, the connection is removed from the registry, closed, and
// OnClientDisconnected fires exactly once for it.
type TCPServer struct {
	address string
	opts    Options
	log     *logging.Logger

	mu       sync.Mutex
	listener net.Listener
	clients  *registry
	seq      atomic.Uint64

	clientConnected    handlers[func(*Conn)]
	clientDisconnected handlers[func(*Conn)]
	received           handlers[func(*Conn, []byte)]
}

// Conn is one client connection accepted by a TCPServer.
type Conn struct {
	id     uuid.UUID
	seq    uint64
	conn   net.Conn
	server *TCPServer
	log    *logging.Logger
}

// ID returns the identity of the connection within its server.
func (c *Conn) ID() uuid.UUID {
	return c.id
}

// RemoteAddr returns the client's address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// LocalAddr returns the server-side socket address.
func (c *Conn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// Send writes buf to this client. It is equivalent to SendTo on the
// owning server.
func (c *Conn) Send(buf []byte) error {
	return c.server.SendTo(c, buf)
}

// Close closes the socket. The receive goroutine then ends and the
// disconnect path runs as for any other termination.
func (c *Conn) Close() error {
	return c.conn.Close()
}

func (c *Conn) String() string {
	return c.id.String() + "@" + c.conn.RemoteAddr().String()
}

// NewTCPServer returns a stopped server that will listen on address
// ("host:port"; an empty host listens on all interfaces). A nil opts
// selects DefaultOptions.
func NewTCPServer(address string, opts *Options) *TCPServer {
	o := opts.withDefaults(DefaultReadBufferSize)
	return &TCPServer{
		address: address,
		opts:    o,
		clients: newRegistry(),
		log: o.Logger.WithFields(logrus.Fields{
			"component": "TCPServer",
			"addr":      address,
		}),
	}
}

// OnClientConnected registers fn to run for every accepted connection.
func (s *TCPServer) OnClientConnected(fn func(c *Conn)) {
	if fn != nil {
		s.clientConnected.add(fn)
	}
}

// OnClientDisconnected registers fn to run once for every connection whose
// receive goroutine has ended.
func (s *TCPServer) OnClientDisconnected(fn func(c *Conn)) {
	if fn != nil {
		s.clientDisconnected.add(fn)
	}
}

// OnDataReceived registers fn to receive every chunk read from any client.
// Handlers for one client run on that client's receive goroutine.
func (s *TCPServer) OnDataReceived(fn func(c *Conn, data []byte)) {
	if fn != nil {
		s.received.add(fn)
	}
}

// Start begins listening and launches the accept loop.
func (s *TCPServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return newNetError("listen", s.address, ErrAlreadyStarted)
	}

	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		s.opts.Metrics.failed("tcp", "listen")
		s.log.WithError(err).Error("Failed to start server")
		return newNetError("listen", s.address, err)
	}
	s.listener = listener

	s.log.WithField("local_addr", listener.Addr().String()).Info("Server started")

	go s.acceptConnections(listener)
	return nil
}

// Stop clears the registry and closes the listening socket. Receive
// goroutines of connections that are still open keep running until their
// own reads fail or the peers close; their disconnect handlers still fire.
func (s *TCPServer) Stop() error {
	s.clients.clear()

	s.mu.Lock()
	listener := s.listener
	s.listener = nil
	s.mu.Unlock()

	if listener == nil {
		return nil
	}
	if err := listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		s.log.WithError(err).Error("Failed to stop server")
		return newNetError("stop", s.address, err)
	}

	s.log.Info("Server stopped")
	return nil
}

// Close stops the server and closes every connection it was tracking, so
// that all receive goroutines end.
func (s *TCPServer) Close() error {
	conns := s.clients.snapshot()
	err := s.Stop()
	for _, c := range conns {
		c.conn.Close()
	}
	return err
}

// Addr returns the listening address, or nil when stopped.
func (s *TCPServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Running reports whether the server is listening.
func (s *TCPServer) Running() bool {
	return s.Addr() != nil
}

// Clients returns the registered connections in accept order.
func (s *TCPServer) Clients() []*Conn {
	return s.clients.snapshot()
}

// ClientCount returns the number of registered connections.
func (s *TCPServer) ClientCount() int {
	return s.clients.len()
}

// SendTo writes buf to c.
func (s *TCPServer) SendTo(c *Conn, buf []byte) error {
	if c == nil {
		return newNetError("send", "", ErrUnknownClient)
	}

	n, err := writeWithDeadline(c.conn, buf, s.opts.WriteTimeout)
	if err != nil {
		s.opts.Metrics.failed("tcp", "send")
		c.log.WithError(err).Error("Failed to send data")
		return newNetError("send", c.conn.RemoteAddr().String(), err)
	}

	s.opts.Metrics.sent("tcp", n)
	c.log.WithField("bytes", n).Debug("Data sent")
	return nil
}

// SendToAll writes buf to every registered connection. A failure for one
// connection does not stop delivery to the others; all failures are
// returned joined.
func (s *TCPServer) SendToAll(buf []byte) error {
	return s.broadcast(buf, nil)
}

// SendToAllExcept writes buf to every registered connection other than
// except, with the same failure isolation as SendToAll.
func (s *TCPServer) SendToAllExcept(except *Conn, buf []byte) error {
	return s.broadcast(buf, except)
}

func (s *TCPServer) broadcast(buf []byte, except *Conn) error {
	var errs []error
	for _, c := range s.clients.snapshot() {
		if except != nil && c.id == except.id {
			continue
		}
		if err := s.SendTo(c, buf); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// acceptConnections runs until the listener fails. A failure other than
// the listener being closed by Stop is fatal and stops the listener.
func (s *TCPServer) acceptConnections(listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.opts.Metrics.failed("tcp", "accept")
			s.log.WithError(err).Error("Failed to accept connection, stopping listener")
			s.stopListener(listener)
			return
		}

		s.handleConnection(conn)
	}
}

// stopListener closes listener if it is still the active one.
func (s *TCPServer) stopListener(listener net.Listener) {
	s.mu.Lock()
	if s.listener == listener {
		s.listener = nil
	}
	s.mu.Unlock()
	listener.Close()
}

// handleConnection registers a freshly accepted socket and starts its
// receive goroutine.
func (s *TCPServer) handleConnection(nc net.Conn) {
	c := &Conn{
		id:     uuid.New(),
		seq:    s.seq.Add(1),
		conn:   nc,
		server: s,
	}
	c.log = s.log.WithFields(logrus.Fields{
		"conn_id":     c.id.String(),
		"remote_addr": nc.RemoteAddr().String(),
	})

	if err := applySocketBuffers(nc, s.opts); err != nil {
		c.log.WithError(err).Error("Failed to set socket buffer sizes")
	}

	s.clients.add(c)
	s.opts.Metrics.opened("tcp", "server")
	c.log.Info("Client connected")

	for _, fn := range s.clientConnected.snapshot() {
		fn(c)
	}

	go s.serve(c)
}

// serve runs the receive loop for c and then runs its disconnect path.
func (s *TCPServer) serve(c *Conn) {
	err := readStream(c.conn, s.opts.ReadBufferSize, func(data []byte) {
		s.opts.Metrics.received("tcp", len(data))
		for _, fn := range s.received.snapshot() {
			fn(c, data)
		}
	})

	if !isClosedError(err) {
		s.opts.Metrics.failed("tcp", "receive")
	}
	logReceiveEnd(c.log, err)

	s.clients.remove(c.id)
	c.conn.Close()
	s.opts.Metrics.closed("tcp", "server")
	c.log.Info("Client disconnected")

	for _, fn := range s.clientDisconnected.snapshot() {
		fn(c)
	}
}
