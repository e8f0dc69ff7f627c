package transport

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/enet/logging"
)

// UDPServer receives datagrams from any peer and hands each one, with its
// source address, to the OnDataReceived handlers. It keeps no per-peer state.
type UDPServer struct {
	address string
	opts    Options
	log     *logging.Logger

	mu   sync.Mutex
	conn net.PacketConn

	received handlers[func(net.Addr, []byte)]
}

// NewUDPServer returns a stopped server that will bind address
// ("host:port"). A nil opts selects DefaultOptions with a datagram-sized
// read buffer.
func NewUDPServer(address string, opts *Options) *UDPServer {
	o := opts.withDefaults(DefaultDatagramSize)
	return &UDPServer{
		address: address,
		opts:    o,
		log: o.Logger.WithFields(logrus.Fields{
			"component": "UDPServer",
			"addr":      address,
		}),
	}
}

// OnDataReceived registers fn to receive every datagram. Handlers run on the
// receive goroutine in registration order.
func (s *UDPServer) OnDataReceived(fn func(addr net.Addr, data []byte)) {
	if fn != nil {
		s.received.add(fn)
	}
}

// Start binds the socket and launches the receive goroutine. If the socket
// cannot be bound the server stays stopped.
func (s *UDPServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return newNetError("listen", s.address, ErrAlreadyStarted)
	}

	conn, err := net.ListenPacket("udp", s.address)
	if err == nil {
		if err = applySocketBuffers(conn, s.opts); err != nil {
			conn.Close()
		}
	}
	if err != nil {
		s.opts.Metrics.failed("udp", "listen")
		s.log.WithError(err).Error("Failed to start server")
		return newNetError("listen", s.address, err)
	}
	s.conn = conn

	s.log.WithField("local_addr", conn.LocalAddr().String()).Info("Server started")

	go s.processPackets(conn)
	return nil
}

// Stop closes the socket; the receive goroutine then ends.
func (s *UDPServer) Stop() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn == nil {
		return nil
	}
	if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		s.log.WithError(err).Error("Failed to stop server")
		return newNetError("stop", s.address, err)
	}

	s.log.Info("Server stopped")
	return nil
}

// Addr returns the bound address, or nil when stopped.
func (s *UDPServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// Running reports whether the socket is bound.
func (s *UDPServer) Running() bool {
	return s.Addr() != nil
}

// SendTo writes buf as one datagram to addr.
func (s *UDPServer) SendTo(addr net.Addr, buf []byte) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		s.log.Error("Failed to send: server not started")
		return newNetError("send", addrString(addr), ErrNotStarted)
	}

	if s.opts.WriteTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout)); err != nil {
			return newNetError("send", addrString(addr), err)
		}
	}

	n, err := conn.WriteTo(buf, addr)
	if err != nil {
		s.opts.Metrics.failed("udp", "send")
		s.log.WithError(err).WithField("remote_addr", addrString(addr)).Error("Failed to send data")
		return newNetError("send", addrString(addr), err)
	}

	s.opts.Metrics.sent("udp", n)
	s.log.WithFields(logrus.Fields{
		"remote_addr": addr.String(),
		"bytes":       n,
	}).Debug("Data sent")
	return nil
}

// processPackets reads datagrams until the socket is closed. Any other read
// failure is logged and stops the server.
func (s *UDPServer) processPackets(conn net.PacketConn) {
	buffer := make([]byte, s.opts.ReadBufferSize)

	for {
		n, addr, err := conn.ReadFrom(buffer)
		if err != nil {
			s.handleReadError(conn, err)
			return
		}

		data := make([]byte, n)
		copy(data, buffer[:n])
		s.dispatch(addr, data)
	}
}

func (s *UDPServer) dispatch(addr net.Addr, data []byte) {
	s.opts.Metrics.received("udp", len(data))
	for _, fn := range s.received.snapshot() {
		fn(addr, data)
	}
}

// handleReadError ends the receive loop for conn.
func (s *UDPServer) handleReadError(conn net.PacketConn, err error) {
	if errors.Is(err, net.ErrClosed) {
		s.log.Debug("Receive loop stopped")
		return
	}

	s.opts.Metrics.failed("udp", "receive")
	s.log.WithError(err).Error("Failed to receive data, stopping server")

	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.mu.Unlock()
	conn.Close()
}

func addrString(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	return addr.String()
}
