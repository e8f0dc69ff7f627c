package transport

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadStreamDeliversCopies(t *testing.T) {
	conn := &fakeConn{chunks: [][]byte{[]byte("abc"), []byte("de")}}

	var got [][]byte
	err := readStream(conn, 8, func(data []byte) {
		got = append(got, data)
	})

	assert.ErrorIs(t, err, io.EOF)
	require.Len(t, got, 2)
	assert.Equal(t, []byte("abc"), got[0])
	assert.Equal(t, []byte("de"), got[1])
	assert.Equal(t, 3, cap(got[0]), "each chunk gets a freshly sized buffer")
}

// zeroReadConn returns a zero-length read with no error.
type zeroReadConn struct{ fakeConn }

func (z *zeroReadConn) Read(b []byte) (int, error) { return 0, nil }

func TestReadStreamZeroLengthReadIsPeerClose(t *testing.T) {
	calls := 0
	err := readStream(&zeroReadConn{}, 8, func([]byte) { calls++ })
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 0, calls)
}

func TestReadStreamReturnsReadError(t *testing.T) {
	boom := errors.New("boom")
	conn := &fakeConn{chunks: [][]byte{[]byte("x")}, readErr: boom}

	calls := 0
	err := readStream(conn, 8, func([]byte) { calls++ })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestIsClosedError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, true},
		{"eof", io.EOF, true},
		{"local close", fmt.Errorf("read: %w", net.ErrClosed), true},
		{"reset", &net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET}, true},
		{"aborted", &net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNABORTED}, true},
		{"refused", &net.OpError{Op: "read", Net: "udp", Err: syscall.ECONNREFUSED}, false},
		{"other", errors.New("disk on fire"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isClosedError(tt.err))
		})
	}
	assert.True(t, isRefusedError(&net.OpError{Op: "read", Net: "udp", Err: syscall.ECONNREFUSED}))
}
