package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateString(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestHandlersRunInRegistrationOrder(t *testing.T) {
	var h handlers[func(int)]
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		h.add(func(v int) { order = append(order, i*10+v) })
	}

	for _, fn := range h.snapshot() {
		fn(1)
	}
	assert.Equal(t, []int{1, 11, 21}, order)
}

func TestHandlerSnapshotIgnoresLaterRegistrations(t *testing.T) {
	var h handlers[func()]
	calls := 0
	h.add(func() {
		calls++
		h.add(func() { calls += 100 })
	})

	for _, fn := range h.snapshot() {
		fn()
	}
	assert.Equal(t, 1, calls)
	assert.Len(t, h.snapshot(), 2)
}

func TestNilHandlersAreIgnored(t *testing.T) {
	client := NewTCPClient("127.0.0.1:1", nil)
	client.OnConnected(nil)
	client.OnDataReceived(nil)
	assert.Empty(t, client.connected.snapshot())
	assert.Empty(t, client.received.snapshot())
}
