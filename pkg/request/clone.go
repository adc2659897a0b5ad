package request

import "github.com/modelruntime/servecore/pkg/memory"

// nullAllocator is installed on a null-request clone's response factory; it
// fails any allocation attempt, since a null request produces no responses.
func nullAllocator(tensorName string, byteSize uint64, kind memory.Type, deviceID int64, userp any) (memory.Buffer, error) {
	return nil, errNullRequestAllocation{tensorName: tensorName}
}

type errNullRequestAllocation struct {
	tensorName string
}

func (e errNullRequestAllocation) Error() string {
	return "attempted allocation against a null request for output " + e.tensorName
}

// NewNullClone returns a new Request padding a batch up to a
// hardware-required minimum, used by the dynamic batcher and never seen by
// callers. It preserves the model binding, batch size, and byte-for-byte
// contents of every shape-tensor input. Every non-shape-tensor input shares
// one backing buffer sized to the largest such input in orig: the
// largest-owning input holds the Allocated slab directly, and every other
// input appends a prefix slice (sized to its own original byte count) of
// that same buffer. The clone requests no outputs, installs a
// null-allocator that fails any allocation attempt, and has collect_stats
// and needs_normalization both forced false.
func NewNullClone(orig *Request) *Request {
	clone := New(orig.model, orig.requestedVersion)
	clone.actualVersion = orig.actualVersion
	clone.batchSize = orig.batchSize
	clone.flags = orig.flags
	clone.collectStats = false
	clone.needsNormalization = false

	// Find the largest non-shape-tensor input; it will own the shared
	// backing buffer directly.
	var largestName string
	var largestSize uint64
	for name, in := range orig.originalInputs {
		if in.isShapeTensor {
			continue
		}
		if size := in.byteSize(); size > largestSize {
			largestSize = size
			largestName = name
		}
	}

	shared := memory.NewAllocated(largestSize, memory.Host, 0)
	sharedBuf := shared.MutableBuffer()

	for name, in := range orig.originalInputs {
		clonedIn := NewInput(name, in.dataType, append([]int64(nil), in.originalShape...))
		clonedIn.setNormalized(
			append([]int64(nil), in.shape...),
			append([]int64(nil), in.shapeWithBatchDim...),
			in.isShapeTensor,
		)

		if in.isShapeTensor {
			// Copy shape-tensor content byte-for-byte: its values are
			// semantically meaningful, unlike padding content.
			size := in.byteSize()
			buf := make([]byte, size)
			copyBufferInto(buf, in.data)
			clonedIn.data = memory.WrapAllocated(buf, memory.Host, 0)
		} else if name == largestName {
			clonedIn.data = shared
		} else {
			size := in.byteSize()
			ref := memory.NewReference()
			ref.Append(sharedBuf[:size], memory.Host, 0)
			clonedIn.data = ref
		}

		clone.originalInputs[name] = clonedIn
	}

	clone.immutableInputs = make(map[string]*Input, len(clone.originalInputs))
	for name, in := range clone.originalInputs {
		clone.immutableInputs[name] = in
	}

	clone.responseFactory = ResponseFactory{Allocator: nullAllocator}
	clone.releaseFn = func(flags uint32, userp any) {}

	return clone
}

// copyBufferInto copies every constituent slice of src into dst in order,
// for byte-for-byte preservation of shape-tensor content.
func copyBufferInto(dst []byte, src memory.Buffer) {
	if src == nil {
		return
	}
	offset := 0
	for i := 0; i < src.BufferCount(); i++ {
		data, _, _, ok := src.BufferAt(i)
		if !ok {
			continue
		}
		offset += copy(dst[offset:], data)
	}
}
