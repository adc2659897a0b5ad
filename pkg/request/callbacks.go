package request

import "github.com/modelruntime/servecore/pkg/memory"

// Flag bits for Request.Flags.
const (
	// FlagSequenceStart marks the request as the first in a sequence.
	FlagSequenceStart uint32 = 1 << 0
	// FlagSequenceEnd marks the request as the last in a sequence.
	FlagSequenceEnd uint32 = 1 << 1
)

// Release flag bits passed to ReleaseFunc.
const (
	// ReleaseAll indicates the full request (including any batched
	// children) should be released.
	ReleaseAll uint32 = 1 << 0
)

// ReleaseFunc is invoked exactly once per Request, transferring ownership
// of the raw request away from this core.
type ReleaseFunc func(flags uint32, userp any)

// AllocatorFunc allocates a buffer for one response output tensor.
type AllocatorFunc func(tensorName string, byteSize uint64, kind memory.Type, deviceID int64, userp any) (memory.Buffer, error)

// CompleteFunc is invoked once a response (or an empty error response) is
// ready for the caller to consume; flags carries response.CompleteFinal.
type CompleteFunc func(userp any, flags uint32)

// ResponseFactory bundles the allocator and completion callbacks a Request
// was configured with, used to construct Responses that can outlive the
// Request itself.
type ResponseFactory struct {
	Allocator      AllocatorFunc
	AllocatorUserp any
	Complete       CompleteFunc
	CompleteUserp any
}

// Tracer is an optional sink for request tracing, accepted as an external
// collaborator. The zero value (nil) means tracing is disabled; Request
// treats a nil Tracer as a no-op at every call site.
type Tracer interface {
	// Start is called when the request enters the system.
	Start()
	// End is called after the user's release callback returns.
	End()
	// Release is called to release the trace object itself, after End.
	Release()
}
