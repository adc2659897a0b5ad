package request

import (
	"github.com/modelruntime/servecore/pkg/coreerrors"
	"github.com/modelruntime/servecore/pkg/memory"
)

// Input is one tensor slot of a Request: a name, declared type and shape,
// and an append-only data handle. Input is created mutably via the Request
// builder; once the owning Request enters Normalize its shape fields are
// rewritten in place but the input set itself is frozen until the next
// PrepareForInference.
type Input struct {
	name     string
	dataType string
	// originalShape is exactly what the caller supplied.
	originalShape []int64
	// shape is the batch-stripped working shape, populated by Normalize.
	shape []int64
	// shapeWithBatchDim restores the batch dimension, populated by
	// Normalize.
	shapeWithBatchDim []int64
	isShapeTensor     bool
	data              memory.Buffer
}

// NewInput creates an Input with no data attached yet.
func NewInput(name, dataType string, shape []int64) *Input {
	return &Input{
		name:          name,
		dataType:      dataType,
		originalShape: append([]int64(nil), shape...),
	}
}

// Name returns the input's name.
func (i *Input) Name() string { return i.name }

// DataType returns the input's declared element type.
func (i *Input) DataType() string { return i.dataType }

// OriginalShape returns exactly what the caller supplied.
func (i *Input) OriginalShape() []int64 { return i.originalShape }

// Shape returns the batch-stripped working shape (valid after Normalize).
func (i *Input) Shape() []int64 { return i.shape }

// ShapeWithBatchDim returns the batch-restored shape (valid after
// Normalize): [batch_size] ++ Shape when batching is enabled, else = Shape.
func (i *Input) ShapeWithBatchDim() []int64 { return i.shapeWithBatchDim }

// IsShapeTensor reports whether this input's values describe another
// tensor's dimensions; such inputs are never batch-stripped.
func (i *Input) IsShapeTensor() bool { return i.isShapeTensor }

// Data returns the input's buffer, or nil if no data has been attached yet.
func (i *Input) Data() memory.Buffer { return i.data }

// AppendData appends a foreign slice to the input's buffer. If the input
// currently holds an Allocated buffer (from a prior SetData), this fails:
// Allocated buffers are single-slab and not appendable.
func (i *Input) AppendData(data []byte, kind memory.Type, deviceID int64) coreerrors.Status {
	switch existing := i.data.(type) {
	case nil:
		ref := memory.NewReference()
		ref.Append(data, kind, deviceID)
		i.data = ref
	case *memory.Reference:
		existing.Append(data, kind, deviceID)
	default:
		return coreerrors.InvalidArgf("input %q already has non-appendable data attached", i.name)
	}
	return coreerrors.Status{}
}

// SetData replaces the input's buffer in one shot. It fails if the input
// already has non-empty data attached: data may only be appended, never
// overwritten.
func (i *Input) SetData(buf memory.Buffer) coreerrors.Status {
	if i.data != nil && i.data.TotalByteSize() > 0 {
		return coreerrors.InvalidArgf("input %q: cannot overwrite existing non-empty data", i.name)
	}
	i.data = buf
	return coreerrors.Status{}
}

// byteSize returns the total byte size of the input's attached data, or 0 if
// none is attached.
func (i *Input) byteSize() uint64 {
	if i.data == nil {
		return 0
	}
	return i.data.TotalByteSize()
}

func (i *Input) setNormalized(shape, shapeWithBatchDim []int64, isShapeTensor bool) {
	i.shape = shape
	i.shapeWithBatchDim = shapeWithBatchDim
	i.isShapeTensor = isShapeTensor
}

// clone returns a shallow copy of the Input sharing its data handle, with
// its shape slices copied.
func (i *Input) clone() *Input {
	c := *i
	c.originalShape = append([]int64(nil), i.originalShape...)
	c.shape = append([]int64(nil), i.shape...)
	c.shapeWithBatchDim = append([]int64(nil), i.shapeWithBatchDim...)
	return &c
}
