package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dxexplorer/internal/client"
)

func queued(id string) *request {
	call := client.NewCall(client.CallOpenAssignment)
	call.ID1 = id
	return newRequest(context.Background(), call)
}

func TestCallQueue_FIFO(t *testing.T) {
	q := newCallQueue()
	for _, id := range []string{"A", "B", "C"} {
		require.True(t, q.Enqueue(queued(id)))
	}
	assert.Equal(t, 3, q.Len())

	for _, want := range []string{"A", "B", "C"} {
		r, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, r.call.ID1)
	}

	_, ok := q.TryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
	assert.Equal(t, 0, q.Len())
}

func TestCallQueue_SignalCoalesces(t *testing.T) {
	q := newCallQueue()
	q.Enqueue(queued("A"))
	q.Enqueue(queued("B"))

	select {
	case <-q.Wait():
	default:
		t.Fatal("expected a pending signal")
	}
	select {
	case <-q.Wait():
		t.Fatal("signals should coalesce into one")
	default:
	}
}

func TestCallQueue_CloseWakesWaiter(t *testing.T) {
	q := newCallQueue()

	done := make(chan struct{})
	go func() {
		<-q.Wait()
		close(done)
	}()

	q.Close()
	q.Close() // idempotent

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter did not wake after close")
	}
	assert.False(t, q.Enqueue(queued("late")), "enqueue after close should return false")
}

func TestCallQueue_Drain(t *testing.T) {
	q := newCallQueue()
	q.Enqueue(queued("A"))
	q.Enqueue(queued("B"))

	drained := q.Drain()
	require.Len(t, drained, 2)
	assert.Equal(t, "A", drained[0].call.ID1)
	assert.Equal(t, 0, q.Len())
}
