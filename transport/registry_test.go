package transport

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newTestConn(seq uint64) *Conn {
	return &Conn{id: uuid.New(), seq: seq, conn: &fakeConn{}}
}

func TestRegistryAddRemove(t *testing.T) {
	r := newRegistry()
	c := newTestConn(1)

	assert.True(t, r.add(c))
	assert.False(t, r.add(c), "a connection appears at most once")
	assert.Equal(t, 1, r.len())
	assert.True(t, r.contains(c.id))

	assert.True(t, r.remove(c.id))
	assert.False(t, r.remove(c.id), "removal is idempotent")
	assert.Equal(t, 0, r.len())
}

func TestRegistrySnapshotOrder(t *testing.T) {
	r := newRegistry()
	conns := []*Conn{newTestConn(3), newTestConn(1), newTestConn(2)}
	for _, c := range conns {
		r.add(c)
	}

	snap := r.snapshot()
	assert.Equal(t, []*Conn{conns[1], conns[2], conns[0]}, snap)

	r.clear()
	assert.Empty(t, r.snapshot())
	assert.Len(t, snap, 3, "snapshots are independent of later mutation")
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := newRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(seq uint64) {
			defer wg.Done()
			c := newTestConn(seq)
			r.add(c)
			_ = r.snapshot()
			r.remove(c.id)
			r.remove(c.id)
		}(uint64(i))
	}
	wg.Wait()

	assert.Equal(t, 0, r.len())
}
