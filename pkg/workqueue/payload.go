// Package workqueue implements the serialized cooperative executor an
// Instance dispatches work through: a single goroutine standing in for the
// spec's dedicated OS thread, consuming typed payloads off a FIFO queue and
// running each to completion before answering its status channel.
package workqueue

import (
	"github.com/modelruntime/servecore/pkg/coreerrors"
	"github.com/modelruntime/servecore/pkg/request"
)

// Kind identifies what a Payload asks the BackendThread to do.
type Kind int

const (
	// Init runs the plugin's instance_init hook.
	Init Kind = iota
	// WarmUp runs the prebuilt warmup samples through the exec hook.
	WarmUp
	// InferRun runs a batch of real requests through the exec hook.
	InferRun
	// Exit drains the current item and terminates the thread loop.
	Exit
)

func (k Kind) String() string {
	switch k {
	case Init:
		return "INIT"
	case WarmUp:
		return "WARM_UP"
	case InferRun:
		return "INFER_RUN"
	case Exit:
		return "EXIT"
	default:
		return "UNKNOWN"
	}
}

// Payload is one unit of work submitted to a BackendThread. The thread
// invokes Run whatever the Kind (a nil Run, as on Exit payloads, reports
// OK), and Run is responsible for dispatching into the plugin appropriately;
// Requests records the batch an InferRun payload carries.
type Payload struct {
	Kind     Kind
	Requests []*request.Request

	// Run performs the payload's work and returns the status to answer on
	// the status channel. It is supplied by the Instance, which closes over
	// the plugin hook being invoked.
	Run func() coreerrors.Status

	// status is a single-use channel the submitter waits on when a
	// synchronous result is wanted (initialize, warm_up, or an explicit
	// payload.wait()). Schedule-style async submission leaves it nil.
	status chan coreerrors.Status
}

// NewPayload creates a Payload of the given kind, wrapping run as its unit of
// work. If sync is true, the returned Payload carries a one-shot status
// channel that Wait can block on.
func NewPayload(kind Kind, requests []*request.Request, run func() coreerrors.Status, sync bool) *Payload {
	p := &Payload{Kind: kind, Requests: requests, Run: run}
	if sync {
		p.status = make(chan coreerrors.Status, 1)
	}
	return p
}

// Wait blocks until the BackendThread has answered this payload's status
// channel. It panics if the payload was not constructed with sync=true — a
// caller bug, not a runtime condition.
func (p *Payload) Wait() coreerrors.Status {
	if p.status == nil {
		panic("workqueue: Wait called on a payload with no status channel")
	}
	return <-p.status
}

func (p *Payload) answer(status coreerrors.Status) {
	if p.status != nil {
		p.status <- status
	}
}
