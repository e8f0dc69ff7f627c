package transport

// TCPClient is a stream connection to a single server.
//
// Its lifecycle is Disconnected → Connecting → Connected → Disconnected.
// Every successful Connect fires the OnConnected handlers once and starts
// one receive goroutine; every end of that connection, whether through
// Disconnect, the server closing, or a read failure, fires the
// OnDisconnected handlers exactly once. A TCPClient may connect again after
// it has disconnected.
//
// Concurrent Send calls are not serialized against each other.
type TCPClient struct {
	endpoint
}

// NewTCPClient returns a disconnected client for address ("host:port").
// A nil opts selects DefaultOptions.
func NewTCPClient(address string, opts *Options) *TCPClient {
	return &TCPClient{
		endpoint: newEndpoint("tcp", "TCPClient", address, opts, DefaultReadBufferSize),
	}
}
