package request

import (
	"sync"

	"github.com/modelruntime/servecore/pkg/coreerrors"
)

// InputSpec is the model-declared view of one input tensor that Normalize
// validates a request's Input against. It is a narrow, request-package-owned
// projection of model.Config's Input so that this package does not need to
// import the model package (which in turn depends on this package for the
// Request type it enqueues).
type InputSpec struct {
	DataType      string
	Dims          []int64
	IsShapeTensor bool
	Reshape       []int64 // nil if the input has no reshape rule
}

// OutputSpec is the model-declared view of one output tensor.
type OutputSpec struct {
	DataType string
	Dims     []int64
}

// ModelBackend is the narrow surface a Request's bound model must expose for
// building and normalization: the config lookups Normalize performs, the
// priority defaults set_priority applies, and the scheduler hand-off run()
// performs. A concrete backend implementation lives in package model.
type ModelBackend interface {
	// Name returns the model's name, used in error messages.
	Name() string
	// MaxBatchSize returns the model's declared maximum batch size; 0 means
	// the model does not support batching.
	MaxBatchSize() uint32
	// MaxPriorityLevel returns the highest priority level callers may
	// request.
	MaxPriorityLevel() uint32
	// DefaultPriorityLevel returns the priority substituted for 0 or
	// out-of-range requested priorities.
	DefaultPriorityLevel() uint32
	// InputCount returns the number of inputs the model declares.
	InputCount() int
	// GetInput looks up a declared input by name.
	GetInput(name string) (InputSpec, bool)
	// GetOutput looks up a declared output by name.
	GetOutput(name string) (OutputSpec, bool)
	// AllOutputNames returns every declared output name, used to populate
	// ImmutableRequestedOutputs when the caller requested none explicitly.
	AllOutputNames() []string
	// Enqueue hands a prepared Request to the model's scheduler. It is
	// called by Request.Run, which transfers ownership of the Request.
	Enqueue(r *Request) coreerrors.Status
}

// Handle is a non-owning, generation-checked reference to a bound
// ModelBackend, realizing the "weak reference to Backend" design note: a
// Request never keeps its model alive, and resolving a Handle whose
// generation has since been retired fails with INVALID_ARG rather than
// dereferencing a dead backend.
type Handle struct {
	registry   *Registry
	id         uint64
	generation uint64
}

// Resolve upgrades the Handle to a live ModelBackend, or fails if the
// backend has since been unloaded.
func (h Handle) Resolve() (ModelBackend, coreerrors.Status) {
	if h.registry == nil {
		return nil, coreerrors.InvalidArgf("request is not bound to a model")
	}
	return h.registry.resolve(h.id, h.generation)
}

// Registry tracks live model bindings by id and generation, so that Handles
// issued before a model is unloaded and reloaded fail cleanly instead of
// silently resolving to a different model occupying the same slot.
type Registry struct {
	mu       sync.Mutex
	backends map[uint64]registryEntry
	nextID   uint64
}

type registryEntry struct {
	backend    ModelBackend
	generation uint64
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[uint64]registryEntry)}
}

// Bind registers a ModelBackend and returns a Handle to it.
func (r *Registry) Bind(backend ModelBackend) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	entry := r.backends[id]
	entry.backend = backend
	entry.generation++
	r.backends[id] = entry
	return Handle{registry: r, id: id, generation: entry.generation}
}

// Unbind retires a Handle's backend; any Handle resolving against it
// afterward fails with INVALID_ARG.
func (r *Registry) Unbind(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.backends, h.id)
}

func (r *Registry) resolve(id, generation uint64) (ModelBackend, coreerrors.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.backends[id]
	if !ok || entry.generation != generation {
		return nil, coreerrors.InvalidArgf("model no longer loaded")
	}
	return entry.backend, coreerrors.Status{}
}
