package response

import (
	"testing"

	"github.com/modelruntime/servecore/pkg/coreerrors"
	"github.com/modelruntime/servecore/pkg/memory"
	"github.com/modelruntime/servecore/pkg/request"
	"github.com/stretchr/testify/require"
)

type mockBackend struct{}

func (mockBackend) Name() string                                         { return "resp-model" }
func (mockBackend) MaxBatchSize() uint32                                 { return 0 }
func (mockBackend) MaxPriorityLevel() uint32                             { return 0 }
func (mockBackend) DefaultPriorityLevel() uint32                         { return 0 }
func (mockBackend) InputCount() int                                      { return 0 }
func (mockBackend) GetInput(string) (request.InputSpec, bool)            { return request.InputSpec{}, false }
func (mockBackend) GetOutput(string) (request.OutputSpec, bool)          { return request.OutputSpec{}, false }
func (mockBackend) AllOutputNames() []string                             { return nil }
func (mockBackend) Enqueue(*request.Request) coreerrors.Status           { return coreerrors.Status{} }

func newBoundRequest() *request.Request {
	reg := request.NewRegistry()
	handle := reg.Bind(mockBackend{})
	return request.New(handle, -1)
}

func TestSendWithStatusInvokesCompleteFinal(t *testing.T) {
	req := newBoundRequest()

	var gotFlags uint32
	var called bool
	req.SetResponseCallback(nil, nil, func(userp any, flags uint32) {
		called = true
		gotFlags = flags
	}, nil)

	SendWithStatus(req, coreerrors.Internalf("boom"))

	require.True(t, called)
	require.Equal(t, CompleteFinal, gotFlags)
}

func TestRespondIfErrorNoopOnOK(t *testing.T) {
	req := newBoundRequest()
	called := false
	req.SetResponseCallback(nil, nil, func(userp any, flags uint32) { called = true }, nil)

	RespondIfError(req, coreerrors.Status{}, true)

	require.False(t, called)
	require.False(t, req.Released())
}

func TestRespondIfErrorEmitsAndReleases(t *testing.T) {
	req := newBoundRequest()

	var completeCalls int
	req.SetResponseCallback(nil, nil, func(userp any, flags uint32) { completeCalls++ }, nil)

	released := false
	req.SetReleaseCallback(func(flags uint32, userp any) { released = true }, nil)

	RespondIfError(req, coreerrors.InvalidArgf("bad input"), true)

	require.Equal(t, 1, completeCalls)
	require.True(t, released)
	require.True(t, req.Released())
}

func TestRespondIfErrorWithoutReleaseLeavesRequestAlive(t *testing.T) {
	req := newBoundRequest()
	req.SetResponseCallback(nil, nil, func(userp any, flags uint32) {}, nil)

	RespondIfError(req, coreerrors.Internalf("boom"), false)

	require.False(t, req.Released())
}

func TestRespondIfErrorBatchAppliesInOrder(t *testing.T) {
	reqs := []*request.Request{newBoundRequest(), newBoundRequest(), newBoundRequest()}
	var order []int
	for i, r := range reqs {
		idx := i
		r.SetResponseCallback(nil, nil, func(userp any, flags uint32) { order = append(order, idx) }, nil)
	}

	statuses := []coreerrors.Status{
		coreerrors.Status{},
		coreerrors.Internalf("first failure"),
		coreerrors.Internalf("second failure"),
	}

	RespondIfErrorBatch(reqs, statuses, true)

	require.Equal(t, []int{1, 2}, order)
	require.False(t, reqs[0].Released())
	require.True(t, reqs[1].Released())
	require.True(t, reqs[2].Released())
}

func TestAddOutputUsesRequestAllocator(t *testing.T) {
	req := newBoundRequest()
	req.SetResponseCallback(func(tensorName string, byteSize uint64, kind memory.Type, deviceID int64, userp any) (memory.Buffer, error) {
		return memory.NewAllocated(byteSize, kind, deviceID), nil
	}, nil, func(userp any, flags uint32) {}, nil)

	resp := New(req)
	buf, err := resp.AddOutput(req, "OUT0", "TYPE_FP32", []int64{2, 3}, 24, memory.Host, 0)
	require.NoError(t, err)
	require.EqualValues(t, 24, buf.TotalByteSize())
	require.Len(t, resp.Outputs(), 1)
	require.Equal(t, "OUT0", resp.Outputs()[0].Name)
}

func TestAddOutputFailsWithoutAllocator(t *testing.T) {
	req := newBoundRequest()
	resp := New(req)
	_, err := resp.AddOutput(req, "OUT0", "TYPE_FP32", []int64{1}, 4, memory.Host, 0)
	require.Error(t, err)
}
