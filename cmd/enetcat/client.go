package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/opd-ai/enet/logging"
)

var errPeerClosed = errors.New("connection closed by peer")

// chatClient is the part of TCPClient and UDPClient the line client uses.
type chatClient interface {
	OnDisconnected(fn func())
	OnDataReceived(fn func(data []byte))
	Connect(ctx context.Context) error
	Disconnect() error
	Send(buf []byte) error
}

// runClient sends each line read from in as a chat message and prints
// received messages to out. Stream clients length-prefix their frames. It
// returns when in is exhausted, ctx is done, or the connection drops.
func runClient(ctx context.Context, c chatClient, stream bool, cd codec, in io.Reader, out io.Writer, log *logging.Logger) error {
	var sp splitter
	c.OnDataReceived(func(data []byte) {
		payloads := [][]byte{data}
		if stream {
			var err error
			if payloads, err = sp.feed(data); err != nil {
				log.WithError(err).Error("Discarding server stream")
			}
		}
		for _, p := range payloads {
			m, err := cd.decode(p)
			if err != nil {
				log.WithError(err).Error("Dropping undecodable message")
				continue
			}
			fmt.Fprintln(out, m)
		}
	})

	closed := make(chan struct{})
	var once sync.Once
	c.OnDisconnected(func() {
		once.Do(func() { close(closed) })
	})

	if err := c.Connect(ctx); err != nil {
		return err
	}
	defer c.Disconnect()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-closed:
			return errPeerClosed
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			payload, err := cd.encode(message{Sent: time.Now(), Text: line})
			if err != nil {
				log.WithError(err).Error("Failed to encode message")
				continue
			}
			if stream {
				payload = frame(payload)
			}
			if err := c.Send(payload); err != nil {
				return err
			}
		}
	}
}
