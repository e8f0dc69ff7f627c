// Package transport provides event-driven TCP and UDP clients and servers
// that move opaque byte payloads between peers.
//
// # Architecture
//
// Four types cover the client and server side of each protocol:
//
//	TCPClient  one stream connection, one receive goroutine
//	TCPServer  one accept goroutine, one receive goroutine per client
//	UDPClient  a fixed default peer, one receive goroutine
//	UDPServer  one receive goroutine yielding (address, payload) pairs
//
// Every receive goroutine owns a private read buffer and hands a fresh copy
// of each chunk it reads to the registered data handlers. Payloads are not
// framed: a TCP read may carry part of a message or several messages, exactly
// as the stream delivers them. Structure payloads with the packet package.
//
// # Lifecycle Events
//
// Handlers are registered with the On* methods and run in registration order
// on the goroutine that caused the event:
//
//	client := transport.NewTCPClient("127.0.0.1:9000", nil)
//	client.OnConnected(func() { log.Println("up") })
//	client.OnDisconnected(func() { log.Println("down") })
//	client.OnDataReceived(func(data []byte) { handle(data) })
//	if err := client.Connect(ctx); err != nil {
//	    return err
//	}
//
// OnConnected fires once per successful Connect. OnDisconnected fires once
// per transition out of the connected state, whether it was caused by
// Disconnect, the peer closing, or a read failure. Disconnect on an endpoint
// that is already disconnected does nothing.
//
// The server side is symmetric:
//
//	server := transport.NewTCPServer(":9000", nil)
//	server.OnDataReceived(func(c *transport.Conn, data []byte) {
//	    _ = server.SendToAllExcept(c, data)
//	})
//	if err := server.Start(); err != nil {
//	    return err
//	}
//
// # Broadcast
//
// SendToAll and SendToAllExcept write to every registered connection in
// turn. A failing connection is logged and skipped; the failures are
// returned together via errors.Join once every connection has been tried.
//
// # Thread Safety
//
// The connection registry, endpoint state and handler lists are guarded by
// mutexes. Sends are synchronous and not serialized against each other; an
// application that sends to one connection from several goroutines must
// serialize those calls itself.
//
// # Error Handling
//
// Failures are logged through the configured logging.Logger with structured
// fields ("component", "addr", "remote_addr", "conn_id") and returned as
// *NetError values wrapping the cause. Sentinel errors cover state misuse:
//
//	var (
//	    ErrNotConnected     // Send on a disconnected endpoint
//	    ErrAlreadyConnected // Connect while connecting or connected
//	    ErrAlreadyStarted   // Start on a running server
//	    ErrNotStarted       // SendTo on a stopped UDP server
//	)
//
// Orderly peer shutdown and connection resets end a receive loop without an
// error-level log entry.
//
// # Metrics
//
// Options.Metrics, created with NewMetrics, exports connection counts,
// traffic and error counters to Prometheus under the "enet" namespace.
package transport
