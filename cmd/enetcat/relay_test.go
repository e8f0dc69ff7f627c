package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/enet/compress"
	"github.com/opd-ai/enet/crypto"
	"github.com/opd-ai/enet/logging"
	"github.com/opd-ai/enet/transport"
)

const waitFor = 2 * time.Second

// lockedBuffer is an io.Writer safe for use from receive goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestTCPRelayForwardsToOtherClients(t *testing.T) {
	cd := testCodec(t, compress.AlgorithmGzip, crypto.SuiteSecretBox)
	log := logging.Discard()

	srv := newTCPRelay("127.0.0.1:0", nil, cd, log)
	require.NoError(t, srv.Start())
	defer srv.Close()
	addr := srv.Addr().String()

	received := make(chan message, 4)
	listener := transport.NewTCPClient(addr, nil)
	var sp splitter
	listener.OnDataReceived(func(data []byte) {
		frames, err := sp.feed(data)
		assert.NoError(t, err)
		for _, f := range frames {
			m, err := cd.decode(f)
			if assert.NoError(t, err) {
				received <- m
			}
		}
	})
	require.NoError(t, listener.Connect(context.Background()))
	defer listener.Disconnect()

	sender := transport.NewTCPClient(addr, nil)
	echoed := make(chan struct{}, 1)
	sender.OnDataReceived(func([]byte) { echoed <- struct{}{} })
	require.NoError(t, sender.Connect(context.Background()))
	defer sender.Disconnect()

	require.Eventually(t, func() bool { return srv.ClientCount() == 2 }, waitFor, 10*time.Millisecond)

	payload, err := cd.encode(message{Sent: time.Now(), Text: "over the relay"})
	require.NoError(t, err)
	require.NoError(t, sender.Send(frame(payload)))

	select {
	case m := <-received:
		assert.Equal(t, "over the relay", m.Text)
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for relayed message")
	}

	select {
	case <-echoed:
		t.Fatal("relay echoed the message to its sender")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTCPRelayDropsUndecodableFrames(t *testing.T) {
	cd := testCodec(t, compress.AlgorithmNone, crypto.SuiteChaChaPoly)
	srv := newTCPRelay("127.0.0.1:0", nil, cd, logging.Discard())
	require.NoError(t, srv.Start())
	defer srv.Close()

	listener := transport.NewTCPClient(srv.Addr().String(), nil)
	got := make(chan []byte, 1)
	listener.OnDataReceived(func(data []byte) { got <- data })
	require.NoError(t, listener.Connect(context.Background()))
	defer listener.Disconnect()

	sender := transport.NewTCPClient(srv.Addr().String(), nil)
	require.NoError(t, sender.Connect(context.Background()))
	defer sender.Disconnect()
	require.Eventually(t, func() bool { return srv.ClientCount() == 2 }, waitFor, 10*time.Millisecond)

	require.NoError(t, sender.Send(frame([]byte("not sealed"))))

	select {
	case <-got:
		t.Fatal("relay forwarded an undecodable frame")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestUDPClientAgainstEcho(t *testing.T) {
	cd := testCodec(t, compress.AlgorithmZstd, crypto.SuiteAESGCM)
	log := logging.Discard()

	srv := newUDPEcho("127.0.0.1:0", nil, cd, log)
	require.NoError(t, srv.Start())
	defer srv.Stop()

	in, feed := io.Pipe()
	out := &lockedBuffer{}
	client := transport.NewUDPClient(srv.Addr().String(), nil)

	done := make(chan error, 1)
	go func() {
		done <- runClient(context.Background(), client, false, cd, in, out, log)
	}()

	_, err := io.WriteString(feed, "ping\n")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return strings.Contains(out.String(), "ping") }, waitFor, 10*time.Millisecond)

	require.NoError(t, feed.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("client did not return after input closed")
	}
	assert.False(t, client.Connected())
}

func TestRunClientStopsOnContext(t *testing.T) {
	cd := codec{}
	srv := newTCPRelay("127.0.0.1:0", nil, cd, logging.Discard())
	require.NoError(t, srv.Start())
	defer srv.Close()

	in, feed := io.Pipe()
	defer feed.Close()
	ctx, cancel := context.WithCancel(context.Background())
	client := transport.NewTCPClient(srv.Addr().String(), nil)

	done := make(chan error, 1)
	go func() {
		done <- runClient(ctx, client, true, cd, in, io.Discard, logging.Discard())
	}()

	require.Eventually(t, func() bool { return srv.ClientCount() == 1 }, waitFor, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("client did not return after cancel")
	}
}

func TestRunClientReportsPeerClose(t *testing.T) {
	cd := codec{}
	srv := newTCPRelay("127.0.0.1:0", nil, cd, logging.Discard())
	require.NoError(t, srv.Start())

	in, feed := io.Pipe()
	defer feed.Close()
	client := transport.NewTCPClient(srv.Addr().String(), nil)

	done := make(chan error, 1)
	go func() {
		done <- runClient(context.Background(), client, true, cd, in, io.Discard, logging.Discard())
	}()

	require.Eventually(t, func() bool { return srv.ClientCount() == 1 }, waitFor, 10*time.Millisecond)
	require.NoError(t, srv.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, errPeerClosed)
	case <-time.After(waitFor):
		t.Fatal("client did not notice the server closing")
	}
}

func TestRunClientConnectFailure(t *testing.T) {
	client := transport.NewTCPClient("127.0.0.1:1", &transport.Options{DialTimeout: time.Second})
	err := runClient(context.Background(), client, true, codec{}, strings.NewReader(""), io.Discard, logging.Discard())
	assert.Error(t, err)
}
