package workqueue

import (
	"github.com/modelruntime/servecore/pkg/corelog"
	"github.com/modelruntime/servecore/pkg/coreerrors"
)

// BackendThread is a single cooperative executor goroutine consuming
// Payloads off a WorkQueue in FIFO order, standing in for a dedicated OS
// thread. It is shared (ref-counted via DeviceRegistry) between co-located
// Instances in device-blocking mode, or exclusively owned otherwise.
type BackendThread struct {
	log   corelog.Logger
	queue *WorkQueue
	done  chan struct{}
}

// NewBackendThread creates and starts a BackendThread pumping payloads from
// queue. This Go implementation has no OS nice knob to set, so no priority
// adjustment is attempted and nothing is logged at start or stop; log is
// stored on the thread but not written to.
func NewBackendThread(log corelog.Logger, queue *WorkQueue) *BackendThread {
	if log == nil {
		log = corelog.Discard()
	}
	t := &BackendThread{log: log, queue: queue, done: make(chan struct{})}
	go t.loop()
	return t
}

func (t *BackendThread) loop() {
	defer close(t.done)
	for {
		payload, ok := t.queue.Pop()
		if !ok {
			return
		}
		payload.answer(payload.runOrOK())
		if payload.Kind == Exit {
			return
		}
	}
}

// runOrOK invokes Run if set, else reports OK; Exit payloads typically carry
// no Run.
func (p *Payload) runOrOK() coreerrors.Status {
	if p.Run == nil {
		return coreerrors.Status{}
	}
	return p.Run()
}

// Submit enqueues a payload for execution; it blocks the caller only if the
// underlying WorkQueue is bounded and currently at capacity.
func (t *BackendThread) Submit(p *Payload) {
	t.queue.Push(p)
}

// Stop submits an Exit payload and waits for the thread loop to terminate.
func (t *BackendThread) Stop() {
	exit := NewPayload(Exit, nil, nil, false)
	t.Submit(exit)
	<-t.done
	t.queue.Close()
}
