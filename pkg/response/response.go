// Package response implements Response emission: the sink a plugin writes
// model outputs into, factory-constructed from a Request so it can outlive
// the Request object itself.
package response

import (
	"github.com/modelruntime/servecore/pkg/coreerrors"
	"github.com/modelruntime/servecore/pkg/memory"
	"github.com/modelruntime/servecore/pkg/request"
)

// CompleteFinal is the response-complete flag meaning "this is the last
// response for the request; the caller may free it now".
const CompleteFinal uint32 = 1 << 0

// Output is one output tensor record attached to a Response.
type Output struct {
	Name     string
	DataType string
	Shape    []int64
	Data     memory.Buffer
}

// Header carries the identifying metadata a Response reports alongside its
// outputs.
type Header struct {
	ModelName    string
	ModelVersion int64
	RequestID    string
	Parameters   map[string]string
}

// Response is the emission channel for one request's outputs. It is built
// from a Request's response factory and keeps its own copy of the complete
// callback, so it can be sent after the Request has been released.
type Response struct {
	header  Header
	outputs []Output
	status  coreerrors.Status

	complete      request.CompleteFunc
	completeUserp any
}

// New constructs an empty Response against req's response factory, carrying
// req's identifying header fields.
func New(req *request.Request) *Response {
	factory := req.ResponseFactory()
	return &Response{
		header: Header{
			ModelVersion: req.ActualVersion(),
			RequestID:    req.ID(),
		},
		complete:      factory.Complete,
		completeUserp: factory.CompleteUserp,
	}
}

// SetModelName sets the model name reported in the response header.
func (r *Response) SetModelName(name string) { r.header.ModelName = name }

// SetParameters attaches response-level parameters.
func (r *Response) SetParameters(params map[string]string) { r.header.Parameters = params }

// Header returns the response's header.
func (r *Response) Header() Header { return r.header }

// Outputs returns the response's output records.
func (r *Response) Outputs() []Output { return r.outputs }

// Status returns the response's attached status.
func (r *Response) Status() coreerrors.Status { return r.status }

// AddOutput appends an output tensor built from data allocated through req's
// response factory allocator.
func (r *Response) AddOutput(req *request.Request, name, dataType string, shape []int64, byteSize uint64, kind memory.Type, deviceID int64) (memory.Buffer, error) {
	factory := req.ResponseFactory()
	if factory.Allocator == nil {
		return nil, coreerrors.Internalf("request has no response allocator installed")
	}
	buf, err := factory.Allocator(name, byteSize, kind, deviceID, factory.AllocatorUserp)
	if err != nil {
		return nil, err
	}
	r.outputs = append(r.outputs, Output{Name: name, DataType: dataType, Shape: shape, Data: buf})
	return buf, nil
}

// SetStatus attaches a non-OK status to the response, identifying it as an
// error response.
func (r *Response) SetStatus(status coreerrors.Status) { r.status = status }

// Send invokes the response-complete callback with the given flags,
// transferring ownership of the Response to the caller.
func (r *Response) Send(flags uint32) {
	if r.complete != nil {
		r.complete(r.completeUserp, flags)
	}
}

// SendWithStatus is the canonical error-emission path: construct an empty
// Response via req's factory, attach status, and invoke the complete
// callback with CompleteFinal so the caller frees it.
func SendWithStatus(req *request.Request, status coreerrors.Status) {
	resp := New(req)
	resp.SetStatus(status)
	resp.Send(CompleteFinal)
}

// RespondIfError is a no-op if status is OK. Otherwise it emits an error
// Response via SendWithStatus and, if releaseRequest, releases req with
// RELEASE_ALL.
func RespondIfError(req *request.Request, status coreerrors.Status, releaseRequest bool) {
	if status.Ok() {
		return
	}
	SendWithStatus(req, status)
	if releaseRequest {
		req.Release(request.ReleaseAll)
	}
}

// RespondIfErrorBatch applies RespondIfError to every (request, status) pair
// in order.
func RespondIfErrorBatch(reqs []*request.Request, statuses []coreerrors.Status, releaseRequests bool) {
	for i, req := range reqs {
		RespondIfError(req, statuses[i], releaseRequests)
	}
}
