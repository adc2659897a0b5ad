package workqueue

import (
	"testing"
	"time"

	"github.com/modelruntime/servecore/pkg/coreerrors"
	"github.com/stretchr/testify/require"
)

func TestWorkQueueFIFOOrder(t *testing.T) {
	q := NewWorkQueue()
	var order []int
	done := make(chan struct{})

	go func() {
		for i := 0; i < 3; i++ {
			p, ok := q.Pop()
			require.True(t, ok)
			p.Run()
		}
		close(done)
	}()

	for i := 0; i < 3; i++ {
		idx := i
		q.Push(NewPayload(InferRun, nil, func() coreerrors.Status {
			order = append(order, idx)
			return coreerrors.Status{}
		}, false))
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for queue drain")
	}
	require.Equal(t, []int{0, 1, 2}, order)
}

func TestWorkQueueCloseDeliversPendingThenStops(t *testing.T) {
	q := NewWorkQueue()
	q.Push(NewPayload(InferRun, nil, func() coreerrors.Status { return coreerrors.Status{} }, false))
	q.Close()

	_, ok := q.Pop()
	require.True(t, ok, "pending item must still be delivered after Close")

	_, ok = q.Pop()
	require.False(t, ok, "Pop must report closed once drained")
}

func TestBackendThreadRunsPayloadsAndAnswersSyncStatus(t *testing.T) {
	q := NewWorkQueue()
	thread := NewBackendThread(nil, q)

	p := NewPayload(InferRun, nil, func() coreerrors.Status {
		return coreerrors.InvalidArgf("boom")
	}, true)
	thread.Submit(p)

	status := p.Wait()
	require.False(t, status.Ok())
	require.Equal(t, coreerrors.InvalidArgument, status.Kind())

	thread.Stop()
}

func TestPayloadWaitPanicsWithoutStatusChannel(t *testing.T) {
	p := NewPayload(InferRun, nil, func() coreerrors.Status { return coreerrors.Status{} }, false)
	require.Panics(t, func() { p.Wait() })
}

func TestDeviceRegistrySharesThreadAcrossAcquires(t *testing.T) {
	reg := NewDeviceRegistry(nil)
	t1 := reg.Acquire(0)
	t2 := reg.Acquire(0)
	require.Same(t, t1, t2)

	reg.Release(0)
	reg.Release(0)

	// A fresh Acquire after the shared thread was fully released creates a
	// new thread rather than reusing the stopped one.
	t3 := reg.Acquire(0)
	require.NotSame(t, t1, t3)
	reg.Release(0)
}

func TestDeviceRegistryIsolatesDevices(t *testing.T) {
	reg := NewDeviceRegistry(nil)
	t0 := reg.Acquire(0)
	t1 := reg.Acquire(1)
	require.NotSame(t, t0, t1)
	reg.Release(0)
	reg.Release(1)
}

func TestBoundedWorkQueuePushBlocksUntilSlotFrees(t *testing.T) {
	q := NewBoundedWorkQueue(1)
	q.Push(NewPayload(InferRun, nil, func() coreerrors.Status { return coreerrors.Status{} }, false))

	pushed := make(chan struct{})
	go func() {
		q.Push(NewPayload(InferRun, nil, func() coreerrors.Status { return coreerrors.Status{} }, false))
		close(pushed)
	}()

	select {
	case <-pushed:
		t.Fatal("second Push must block while the queue is at capacity")
	case <-time.After(50 * time.Millisecond):
	}

	_, ok := q.Pop()
	require.True(t, ok)

	select {
	case <-pushed:
	case <-time.After(time.Second):
		t.Fatal("second Push must unblock once a slot frees")
	}
}

func TestBoundedDeviceRegistryUsesBoundedQueue(t *testing.T) {
	reg := NewBoundedDeviceRegistry(nil, 1)
	thread := reg.Acquire(0)
	require.NotNil(t, thread)
	reg.Release(0)
}
