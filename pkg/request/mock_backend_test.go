package request

import "github.com/modelruntime/servecore/pkg/coreerrors"

// mockBackend is a minimal ModelBackend for testing, following the
// teacher's mockBackend pattern in scheduling/scheduler_test.go: a small
// hand-rolled struct rather than a mocking framework.
type mockBackend struct {
	name                 string
	maxBatchSize         uint32
	maxPriorityLevel     uint32
	defaultPriorityLevel uint32
	inputs               map[string]InputSpec
	outputs              map[string]OutputSpec

	enqueued []*Request
}

func (m *mockBackend) Name() string                     { return m.name }
func (m *mockBackend) MaxBatchSize() uint32              { return m.maxBatchSize }
func (m *mockBackend) MaxPriorityLevel() uint32          { return m.maxPriorityLevel }
func (m *mockBackend) DefaultPriorityLevel() uint32      { return m.defaultPriorityLevel }
func (m *mockBackend) InputCount() int                   { return len(m.inputs) }

func (m *mockBackend) GetInput(name string) (InputSpec, bool) {
	spec, ok := m.inputs[name]
	return spec, ok
}

func (m *mockBackend) GetOutput(name string) (OutputSpec, bool) {
	spec, ok := m.outputs[name]
	return spec, ok
}

func (m *mockBackend) AllOutputNames() []string {
	names := make([]string, 0, len(m.outputs))
	for name := range m.outputs {
		names = append(names, name)
	}
	return names
}

func (m *mockBackend) Enqueue(r *Request) coreerrors.Status {
	m.enqueued = append(m.enqueued, r)
	return coreerrors.Status{}
}

func bindMock(backend *mockBackend) Handle {
	reg := NewRegistry()
	return reg.Bind(backend)
}
