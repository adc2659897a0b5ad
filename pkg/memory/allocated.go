package memory

// Allocated is a single owned slab tagged with a memory kind. Unlike
// Reference, an Allocated buffer exposes a mutable view for in-place writes
// (e.g. warmup slab population, null-request padding).
type Allocated struct {
	data     []byte
	kind     Type
	deviceID int64
}

// NewAllocated allocates a zeroed slab of the given size and kind.
func NewAllocated(size uint64, kind Type, deviceID int64) *Allocated {
	return &Allocated{data: make([]byte, size), kind: kind, deviceID: deviceID}
}

// WrapAllocated wraps an already-allocated slice as an Allocated buffer
// without copying, taking ownership of data.
func WrapAllocated(data []byte, kind Type, deviceID int64) *Allocated {
	return &Allocated{data: data, kind: kind, deviceID: deviceID}
}

// TotalByteSize implements Buffer.
func (a *Allocated) TotalByteSize() uint64 {
	return uint64(len(a.data))
}

// BufferCount implements Buffer. An Allocated buffer is always one
// contiguous slab.
func (a *Allocated) BufferCount() int {
	return 1
}

// BufferAt implements Buffer.
func (a *Allocated) BufferAt(idx int) ([]byte, Type, int64, bool) {
	if idx != 0 {
		return nil, Host, 0, false
	}
	return a.data, a.kind, a.deviceID, true
}

// MutableBuffer implements MutableBuffer.
func (a *Allocated) MutableBuffer() []byte {
	return a.data
}

// Kind returns the buffer's memory kind.
func (a *Allocated) Kind() Type {
	return a.kind
}

// DeviceID returns the buffer's device id, meaningful only when Kind is
// Device.
func (a *Allocated) DeviceID() int64 {
	return a.deviceID
}

// String implements fmt.Stringer.
func (a *Allocated) String() string {
	return describe(a.kind, a.TotalByteSize())
}
