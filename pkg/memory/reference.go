package memory

// Reference is a many-slice, non-owned view over foreign buffers: append
// -only, zero-copy. Each appended slice belongs to whatever caller supplied
// it; Reference never allocates or frees the underlying bytes.
type Reference struct {
	slices []refSlice
}

type refSlice struct {
	data     []byte
	kind     Type
	deviceID int64
}

// NewReference creates an empty Reference.
func NewReference() *Reference {
	return &Reference{}
}

// Append adds a foreign slice to the Reference. It never copies data.
func (r *Reference) Append(data []byte, kind Type, deviceID int64) {
	r.slices = append(r.slices, refSlice{data: data, kind: kind, deviceID: deviceID})
}

// TotalByteSize implements Buffer.
func (r *Reference) TotalByteSize() uint64 {
	var total uint64
	for _, s := range r.slices {
		total += uint64(len(s.data))
	}
	return total
}

// BufferCount implements Buffer.
func (r *Reference) BufferCount() int {
	return len(r.slices)
}

// BufferAt implements Buffer.
func (r *Reference) BufferAt(idx int) ([]byte, Type, int64, bool) {
	if idx < 0 || idx >= len(r.slices) {
		return nil, Host, 0, false
	}
	s := r.slices[idx]
	return s.data, s.kind, s.deviceID, true
}

// Empty reports whether the Reference has no slices appended yet.
func (r *Reference) Empty() bool {
	return len(r.slices) == 0
}

// String implements fmt.Stringer.
func (r *Reference) String() string {
	return describe(Host, r.TotalByteSize())
}
