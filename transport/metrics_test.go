package transport

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordTraffic(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	opts := &Options{Metrics: metrics}

	server := NewTCPServer("127.0.0.1:0", opts)
	received := newCollector(5)
	server.OnDataReceived(func(c *Conn, data []byte) { received.add(data) })
	require.NoError(t, server.Start())
	defer server.Close()

	client := NewTCPClient(server.Addr().String(), opts)
	require.NoError(t, client.Connect(context.Background()))
	require.NoError(t, client.Send([]byte("12345")))
	received.wait(t)

	assert.Equal(t, 5.0, testutil.ToFloat64(metrics.bytesSent.WithLabelValues("tcp")))
	assert.Equal(t, 5.0, testutil.ToFloat64(metrics.bytesReceived.WithLabelValues("tcp")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.connectionsActive.WithLabelValues("tcp", "client")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.connectionsTotal.WithLabelValues("tcp", "client")))

	require.NoError(t, client.Disconnect())
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.connectionsActive.WithLabelValues("tcp", "client")))
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.connectionsActive.WithLabelValues("tcp", "server")) == 0
	}, eventTimeout, 10*time.Millisecond)

	assert.Error(t, client.Send([]byte("x")))
	failed := NewTCPClient(freeAddr(t), opts)
	assert.Error(t, failed.Connect(context.Background()))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.errorsTotal.WithLabelValues("tcp", "connect")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.opened("tcp", "client")
		m.closed("tcp", "client")
		m.sent("udp", 3)
		m.received("udp", 3)
		m.failed("udp", "send")
	})
}
