// Package request implements the Request builder and normalization: a
// mutable representation of one client inference call, from construction
// through PrepareForInference, Run, and eventual release.
package request

import (
	"github.com/google/uuid"

	"github.com/modelruntime/servecore/pkg/coreerrors"
)

// Request represents one client inference call. See the package-level
// invariants documented alongside PrepareForInference and Release.
type Request struct {
	id            string
	correlationID uint64
	flags         uint32
	priority      uint32
	timeoutMicros uint64

	model            Handle
	requestedVersion int64
	actualVersion    int64

	originalInputs  map[string]*Input
	overrideInputs  map[string]*Input
	immutableInputs map[string]*Input

	originalRequestedOutputs  map[string]struct{}
	immutableRequestedOutputs map[string]struct{}

	batchSize uint32

	needsNormalization bool
	collectStats       bool

	releaseFn     ReleaseFunc
	releaseUserp  any
	responseFactory ResponseFactory

	// internalReleaseHooks are invoked, LIFO, before releaseFn. A hook
	// registered later may depend on resources an earlier hook still needs
	// live, hence the reverse-registration order.
	internalReleaseHooks []func()

	requestStartNs int64
	queueStartNs   int64

	tracer Tracer

	released bool
}

// New creates a Request bound to the given model handle and version
// selector. version of -1 means "use the backend's default version"; the
// actual resolved version is populated by whatever layer resolves it (out of
// scope for this core) and defaults to -1 until then. The request id
// defaults to a generated UUID; callers that track their own caller-opaque
// id call SetID to override it before PrepareForInference.
func New(model Handle, version int64) *Request {
	return &Request{
		id:               uuid.NewString(),
		model:            model,
		requestedVersion: version,
		actualVersion:    -1,
		originalInputs:   make(map[string]*Input),
		overrideInputs:   make(map[string]*Input),
		originalRequestedOutputs: make(map[string]struct{}),
	}
}

// ID returns the caller-opaque request id.
func (r *Request) ID() string { return r.id }

// SetID sets the caller-opaque request id.
func (r *Request) SetID(id string) { r.id = id }

// CorrelationID returns the request's correlation id.
func (r *Request) CorrelationID() uint64 { return r.correlationID }

// SetCorrelationID sets the request's correlation id.
func (r *Request) SetCorrelationID(id uint64) { r.correlationID = id }

// Flags returns the request's flag bitset.
func (r *Request) Flags() uint32 { return r.flags }

// SetFlags sets the request's flag bitset.
func (r *Request) SetFlags(flags uint32) { r.flags = flags }

// IsSequenceStart reports whether FlagSequenceStart is set.
func (r *Request) IsSequenceStart() bool { return r.flags&FlagSequenceStart != 0 }

// IsSequenceEnd reports whether FlagSequenceEnd is set.
func (r *Request) IsSequenceEnd() bool { return r.flags&FlagSequenceEnd != 0 }

// Priority returns the stored priority.
func (r *Request) Priority() uint32 { return r.priority }

// TimeoutMicroseconds returns the request timeout; 0 means no timeout.
func (r *Request) TimeoutMicroseconds() uint64 { return r.timeoutMicros }

// SetTimeoutMicroseconds sets the request timeout.
func (r *Request) SetTimeoutMicroseconds(us uint64) { r.timeoutMicros = us }

// BatchSize returns the batch size computed by the last successful
// Normalize; 0 iff the model does not declare batching.
func (r *Request) BatchSize() uint32 { return r.batchSize }

// ActualVersion returns the resolved model version, or -1 if unresolved.
func (r *Request) ActualVersion() int64 { return r.actualVersion }

// SetActualVersion records the resolved model version.
func (r *Request) SetActualVersion(v int64) { r.actualVersion = v }

// RequestedVersion returns the caller's version selector.
func (r *Request) RequestedVersion() int64 { return r.requestedVersion }

// CollectStats reports whether this request should contribute to model
// statistics.
func (r *Request) CollectStats() bool { return r.collectStats }

// SetCollectStats sets whether this request should contribute to model
// statistics.
func (r *Request) SetCollectStats(v bool) { r.collectStats = v }

// ModelHandle returns the request's non-owning model handle.
func (r *Request) ModelHandle() Handle { return r.model }

// RequestStartNs returns the request-start timestamp capture point.
func (r *Request) RequestStartNs() int64 { return r.requestStartNs }

// SetRequestStartNs records the request-start timestamp.
func (r *Request) SetRequestStartNs(ns int64) { r.requestStartNs = ns }

// QueueStartNs returns the queue-start timestamp capture point.
func (r *Request) QueueStartNs() int64 { return r.queueStartNs }

// SetQueueStartNs records the queue-start timestamp.
func (r *Request) SetQueueStartNs(ns int64) { r.queueStartNs = ns }

// SetTracer installs an optional tracer; nil disables tracing.
func (r *Request) SetTracer(t Tracer) { r.tracer = t }

// SetReleaseCallback installs the user release callback.
func (r *Request) SetReleaseCallback(fn ReleaseFunc, userp any) {
	r.releaseFn = fn
	r.releaseUserp = userp
}

// SetResponseCallback installs the allocator/complete callback pair used to
// construct Responses from this Request.
func (r *Request) SetResponseCallback(allocator AllocatorFunc, allocatorUserp any, complete CompleteFunc, completeUserp any) {
	r.responseFactory = ResponseFactory{
		Allocator:      allocator,
		AllocatorUserp: allocatorUserp,
		Complete:       complete,
		CompleteUserp:  completeUserp,
	}
}

// ResponseFactory returns the callback pair installed by
// SetResponseCallback, for use by the response package.
func (r *Request) ResponseFactory() ResponseFactory { return r.responseFactory }

// AddInternalReleaseHook registers a hook invoked, LIFO, before the user
// release callback. Internal hooks are cleared before the user callback
// fires, so a re-entrant Release call is a clean no-op.
func (r *Request) AddInternalReleaseHook(hook func()) {
	r.internalReleaseHooks = append(r.internalReleaseHooks, hook)
}

// AddOriginalInput adds a new original input. It fails with INVALID_ARG if
// name collides with an existing original input.
func (r *Request) AddOriginalInput(name, dataType string, shape []int64) (*Input, coreerrors.Status) {
	if _, exists := r.originalInputs[name]; exists {
		return nil, coreerrors.InvalidArgf("input %q already exists for request", name)
	}
	in := NewInput(name, dataType, shape)
	r.originalInputs[name] = in
	r.needsNormalization = true
	return in, coreerrors.Status{}
}

// RemoveOriginalInput removes a named original input, if present.
func (r *Request) RemoveOriginalInput(name string) {
	if _, exists := r.originalInputs[name]; exists {
		delete(r.originalInputs, name)
		r.needsNormalization = true
	}
}

// RemoveAllOriginalInputs clears every original input.
func (r *Request) RemoveAllOriginalInputs() {
	if len(r.originalInputs) > 0 {
		r.originalInputs = make(map[string]*Input)
		r.needsNormalization = true
	}
}

// OriginalInputs returns the request's original input set. The returned map
// must not be mutated by the caller.
func (r *Request) OriginalInputs() map[string]*Input { return r.originalInputs }

// AddOverrideInput replaces any existing override with the same name and
// immediately inserts it into ImmutableInputs, since overrides must be
// visible without requiring a subsequent PrepareForInference call — callers
// that want an override to survive a later PrepareForInference must re-add
// it afterward (PrepareForInference clears the override table as part of
// discarding stale per-execution overrides).
func (r *Request) AddOverrideInput(name, dataType string, shape []int64) *Input {
	in := NewInput(name, dataType, shape)
	r.overrideInputs[name] = in
	if r.immutableInputs == nil {
		r.immutableInputs = make(map[string]*Input)
	}
	r.immutableInputs[name] = in
	return in
}

// OverrideInputs returns the request's override input set.
func (r *Request) OverrideInputs() map[string]*Input { return r.overrideInputs }

// ImmutableInputs returns the effective input view used during execution:
// the union of originals and overrides, override wins. It is only valid
// after PrepareForInference and must never be mutated outside it.
func (r *Request) ImmutableInputs() map[string]*Input { return r.immutableInputs }

// AddOriginalRequestedOutput adds name to the set of originally requested
// outputs.
func (r *Request) AddOriginalRequestedOutput(name string) {
	r.originalRequestedOutputs[name] = struct{}{}
	r.needsNormalization = true
}

// RemoveOriginalRequestedOutput removes name from the set of originally
// requested outputs.
func (r *Request) RemoveOriginalRequestedOutput(name string) {
	if _, exists := r.originalRequestedOutputs[name]; exists {
		delete(r.originalRequestedOutputs, name)
		r.needsNormalization = true
	}
}

// OriginalRequestedOutputs returns the caller-requested output name set.
func (r *Request) OriginalRequestedOutputs() map[string]struct{} {
	return r.originalRequestedOutputs
}

// ImmutableRequestedOutputs returns the effective requested-output set:
// equal to OriginalRequestedOutputs if non-empty, else every model output.
// Only valid after PrepareForInference.
func (r *Request) ImmutableRequestedOutputs() map[string]struct{} {
	return r.immutableRequestedOutputs
}

// SetPriority stores p, clamped to the model's declared priority range: a
// value of 0 or greater than the model's max priority level is replaced with
// the model's default priority level.
func (r *Request) SetPriority(p uint32) coreerrors.Status {
	backend, status := r.model.Resolve()
	if !status.Ok() {
		return status
	}
	if p == 0 || p > backend.MaxPriorityLevel() {
		r.priority = backend.DefaultPriorityLevel()
	} else {
		r.priority = p
	}
	return coreerrors.Status{}
}

// NeedsNormalization reports whether a mutating operation has touched
// OriginalInputs/OriginalRequestedOutputs since the last PrepareForInference.
func (r *Request) NeedsNormalization() bool { return r.needsNormalization }

// PrepareForInference clears ImmutableInputs and the override table (because
// previous-execution overrides are not sticky), runs Normalize if needed,
// repopulates ImmutableInputs from OriginalInputs, and zeros the timing
// counters. It is idempotent when no intervening mutation occurs.
func (r *Request) PrepareForInference() coreerrors.Status {
	r.overrideInputs = make(map[string]*Input)
	r.immutableInputs = make(map[string]*Input)

	if r.needsNormalization {
		if status := Normalize(r); !status.Ok() {
			return status
		}
		r.needsNormalization = false
	}

	for name, in := range r.originalInputs {
		r.immutableInputs[name] = in
	}

	r.requestStartNs = 0
	r.queueStartNs = 0

	if r.tracer != nil {
		r.tracer.Start()
	}

	return coreerrors.Status{}
}

// Run consumes the Request (ownership moves to the caller's model scheduler)
// and hands it to the bound model's Enqueue.
func (r *Request) Run() coreerrors.Status {
	backend, status := r.model.Resolve()
	if !status.Ok() {
		return status
	}
	return backend.Enqueue(r)
}

// Release drains internal release hooks in LIFO order, moves the trace out
// for post-release reporting, invokes the user release callback (ownership
// transfers to it; the Request must not be dereferenced after this call
// returns), and finally reports the trace end event. Release is one-shot:
// hooks are cleared before the user callback fires, so a logic-bug re-entry
// is a clean no-op rather than a double release.
func (r *Request) Release(flags uint32) {
	hooks := r.internalReleaseHooks
	r.internalReleaseHooks = nil
	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}

	tracer := r.tracer
	r.tracer = nil

	releaseFn := r.releaseFn
	userp := r.releaseUserp
	r.releaseFn = nil
	r.released = true

	if releaseFn != nil {
		releaseFn(flags, userp)
	}

	if tracer != nil {
		tracer.End()
		tracer.Release()
	}
}

// Released reports whether Release has already run, for diagnostic use in
// tests and assertions.
func (r *Request) Released() bool { return r.released }
