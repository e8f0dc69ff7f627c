package transport

// UDPClient is a connectionless endpoint with a fixed default peer.
//
// Connect performs no handshake: it binds a local socket, records the remote
// address for Send, and starts the receive goroutine, which only accepts
// datagrams from that peer. Delivery is as reliable as UDP itself. An ICMP
// port-unreachable reported by the kernel ends the receive loop and
// disconnects the endpoint.
type UDPClient struct {
	endpoint
}

// NewUDPClient returns a disconnected client for address ("host:port").
// A nil opts selects DefaultOptions with a datagram-sized read buffer.
func NewUDPClient(address string, opts *Options) *UDPClient {
	return &UDPClient{
		endpoint: newEndpoint("udp", "UDPClient", address, opts, DefaultDatagramSize),
	}
}
