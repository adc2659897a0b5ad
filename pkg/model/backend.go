package model

import (
	"github.com/modelruntime/servecore/pkg/coreerrors"
	"github.com/modelruntime/servecore/pkg/request"
)

// Scheduler is the narrow surface a Backend needs from its instance
// execution layer: accepting a prepared Request for eventual dispatch to a
// worker thread. cmd/demo's instanceScheduler is one implementation; Backend
// depends only on this interface so pkg/model never imports pkg/workqueue.
type Scheduler interface {
	Enqueue(r *request.Request) coreerrors.Status
}

// Backend is the per-model state a Request is bound to: its declared
// configuration and the scheduler it hands prepared requests to. It
// implements request.ModelBackend, letting pkg/request stay ignorant of
// model configuration entirely.
type Backend struct {
	config    *Config
	scheduler Scheduler

	inputsByName  map[string]Input
	outputsByName map[string]Output
}

// NewBackend builds a Backend from a validated Config and the scheduler that
// will receive its enqueued requests.
func NewBackend(config *Config, scheduler Scheduler) (*Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	inputsByName := make(map[string]Input, len(config.Inputs))
	for _, in := range config.Inputs {
		inputsByName[in.Name] = in
	}
	outputsByName := make(map[string]Output, len(config.Outputs))
	for _, out := range config.Outputs {
		outputsByName[out.Name] = out
	}

	return &Backend{
		config:        config,
		scheduler:     scheduler,
		inputsByName:  inputsByName,
		outputsByName: outputsByName,
	}, nil
}

// Name implements request.ModelBackend.
func (b *Backend) Name() string { return b.config.Name }

// MaxBatchSize implements request.ModelBackend.
func (b *Backend) MaxBatchSize() uint32 { return b.config.MaxBatchSize }

// MaxPriorityLevel implements request.ModelBackend.
func (b *Backend) MaxPriorityLevel() uint32 { return b.config.MaxPriorityLevel }

// DefaultPriorityLevel implements request.ModelBackend.
func (b *Backend) DefaultPriorityLevel() uint32 { return b.config.DefaultPriorityLevel }

// InputCount implements request.ModelBackend.
func (b *Backend) InputCount() int { return len(b.inputsByName) }

// GetInput implements request.ModelBackend.
func (b *Backend) GetInput(name string) (request.InputSpec, bool) {
	in, ok := b.inputsByName[name]
	if !ok {
		return request.InputSpec{}, false
	}
	return toInputSpec(in), true
}

// GetOutput implements request.ModelBackend.
func (b *Backend) GetOutput(name string) (request.OutputSpec, bool) {
	out, ok := b.outputsByName[name]
	if !ok {
		return request.OutputSpec{}, false
	}
	return request.OutputSpec{DataType: string(out.DataType), Dims: out.Dims}, true
}

// AllOutputNames implements request.ModelBackend.
func (b *Backend) AllOutputNames() []string {
	names := make([]string, 0, len(b.outputsByName))
	for name := range b.outputsByName {
		names = append(names, name)
	}
	return names
}

// Enqueue implements request.ModelBackend by delegating to the backend's
// scheduler.
func (b *Backend) Enqueue(r *request.Request) coreerrors.Status {
	return b.scheduler.Enqueue(r)
}

// Config returns the backend's declared configuration.
func (b *Backend) Config() *Config { return b.config }

func toInputSpec(in Input) request.InputSpec {
	spec := request.InputSpec{
		DataType:      string(in.DataType),
		Dims:          in.Dims,
		IsShapeTensor: in.IsShapeTensor,
	}
	if in.Reshape != nil {
		spec.Reshape = in.Reshape.Shape
	}
	return spec
}
