package transport

import (
	"errors"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/opd-ai/enet/logging"
)

// readStream reads from conn into a private buffer of size bytes until the
// peer closes or a read fails, handing a fresh copy of every chunk to
// deliver. A zero-length read is treated as peer closure and reported as
// io.EOF.
func readStream(conn net.Conn, size int, deliver func([]byte)) error {
	buffer := make([]byte, size)
	for {
		n, err := conn.Read(buffer)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buffer[:n])
			deliver(data)
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return io.EOF
		}
	}
}

// readDatagrams reads whole datagrams from a connected packet socket. Empty
// datagrams are delivered as empty slices.
func readDatagrams(conn net.Conn, size int, deliver func([]byte)) error {
	buffer := make([]byte, size)
	for {
		n, err := conn.Read(buffer)
		if err != nil {
			return err
		}
		data := make([]byte, n)
		copy(data, buffer[:n])
		deliver(data)
	}
}

// isClosedError reports whether err is an expected end of a receive loop:
// orderly peer shutdown, a local close, or the peer forcibly resetting the
// connection.
func isClosedError(err error) bool {
	return err == nil ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE)
}

// isRefusedError reports an ICMP port-unreachable surfaced on a connected
// UDP socket, meaning the peer is gone.
func isRefusedError(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}

// logReceiveEnd logs why a receive loop ended. Expected closures stay out of
// the error log.
func logReceiveEnd(log *logging.Logger, err error) {
	switch {
	case err == nil || errors.Is(err, io.EOF):
		log.Info("Peer closed the connection")
	case errors.Is(err, net.ErrClosed):
		log.Debug("Connection closed locally")
	case isClosedError(err):
		log.WithError(err).Info("Connection forcibly closed by peer")
	case isRefusedError(err):
		log.WithError(err).Info("Peer unreachable")
	default:
		log.WithError(err).Error("Failed to receive data")
	}
}

// writeWithDeadline writes buf to conn, bounding the write by timeout when
// it is positive.
func writeWithDeadline(conn net.Conn, buf []byte, timeout time.Duration) (int, error) {
	if timeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return 0, err
		}
	}
	return conn.Write(buf)
}
