package plugin

import (
	"github.com/modelruntime/servecore/pkg/coreerrors"
	"github.com/modelruntime/servecore/pkg/memory"
	"github.com/modelruntime/servecore/pkg/request"
	"github.com/modelruntime/servecore/pkg/response"
)

// Echo is a minimal Backend that copies one input of each request straight
// into an output named OutputName, for use in demos and tests that need a
// plugin with no real compute. It never fails Init or Fini.
type Echo struct {
	OutputName string
	DataType   string
}

// Init implements Backend.
func (Echo) Init(InstanceInfo) coreerrors.Status { return coreerrors.Status{} }

// Fini implements Backend.
func (Echo) Fini(InstanceInfo) coreerrors.Status { return coreerrors.Status{} }

// Exec implements Backend: for each request, copies the bytes of one of its
// immutable inputs into a freshly allocated output of the same shape, sends
// one response, then releases the request. The input is taken from an
// unordered map, so with several inputs which one is copied is not defined.
func (e Echo) Exec(instance InstanceInfo, requests []*request.Request) coreerrors.Status {
	for _, req := range requests {
		resp := response.New(req)

		var in *request.Input
		for _, candidate := range req.ImmutableInputs() {
			in = candidate
			break
		}
		if in == nil {
			resp.SetStatus(coreerrors.InvalidArgf("echo plugin requires at least one input"))
			resp.Send(response.CompleteFinal)
			req.Release(request.ReleaseAll)
			continue
		}

		size := in.Data().TotalByteSize()
		buf, err := resp.AddOutput(req, e.OutputName, e.DataType, in.ShapeWithBatchDim(), size, memory.Host, 0)
		if err != nil {
			resp.SetStatus(coreerrors.FromError(err))
			resp.Send(response.CompleteFinal)
			req.Release(request.ReleaseAll)
			continue
		}
		copyInto(buf, in.Data())

		resp.Send(response.CompleteFinal)
		req.Release(request.ReleaseAll)
	}
	return coreerrors.Status{}
}

func copyInto(dst memory.Buffer, src memory.Buffer) {
	mutable, ok := dst.(memory.MutableBuffer)
	if !ok {
		return
	}
	out := mutable.MutableBuffer()
	offset := 0
	for i := 0; i < src.BufferCount(); i++ {
		data, _, _, ok := src.BufferAt(i)
		if !ok {
			continue
		}
		offset += copy(out[offset:], data)
	}
}
