package main

import (
	"context"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/opd-ai/enet/logging"
	"github.com/opd-ai/enet/transport"
)

// newTCPRelay returns a server that forwards every chat frame a client
// sends to all other connected clients.
func newTCPRelay(address string, opts *transport.Options, cd codec, log *logging.Logger) *transport.TCPServer {
	srv := transport.NewTCPServer(address, opts)

	var mu sync.Mutex
	streams := make(map[uuid.UUID]*splitter)

	srv.OnClientConnected(func(c *transport.Conn) {
		mu.Lock()
		streams[c.ID()] = &splitter{}
		mu.Unlock()
		log.WithField("conn_id", c.ID().String()).Info("Client joined")
	})

	srv.OnClientDisconnected(func(c *transport.Conn) {
		mu.Lock()
		delete(streams, c.ID())
		mu.Unlock()
		log.WithField("conn_id", c.ID().String()).Info("Client left")
	})

	srv.OnDataReceived(func(c *transport.Conn, data []byte) {
		mu.Lock()
		sp, ok := streams[c.ID()]
		if !ok {
			sp = &splitter{}
			streams[c.ID()] = sp
		}
		frames, err := sp.feed(data)
		mu.Unlock()

		connLog := log.WithField("conn_id", c.ID().String())
		if err != nil {
			connLog.WithError(err).Error("Discarding client stream")
		}
		for _, f := range frames {
			m, err := cd.decode(f)
			if err != nil {
				connLog.WithError(err).Error("Dropping undecodable frame")
				continue
			}
			connLog.WithField("text", m.Text).Debug("Relaying message")
			if err := srv.SendToAllExcept(c, frame(f)); err != nil {
				connLog.WithError(err).Debug("Relay reached only some clients")
			}
		}
	})

	return srv
}

// newUDPEcho returns a server that sends every valid chat datagram back to
// its sender.
func newUDPEcho(address string, opts *transport.Options, cd codec, log *logging.Logger) *transport.UDPServer {
	srv := transport.NewUDPServer(address, opts)

	srv.OnDataReceived(func(addr net.Addr, data []byte) {
		peerLog := log.WithField("remote_addr", addr.String())
		m, err := cd.decode(data)
		if err != nil {
			peerLog.WithError(err).Error("Dropping undecodable datagram")
			return
		}
		peerLog.WithField("text", m.Text).Debug("Echoing message")
		_ = srv.SendTo(addr, data)
	})

	return srv
}

// serve runs a started server until ctx is done.
func serve(ctx context.Context, start, stop func() error) error {
	if err := start(); err != nil {
		return err
	}
	<-ctx.Done()
	return stop()
}
