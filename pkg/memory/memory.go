// Package memory provides a uniform view over byte buffers backing request
// and response tensors: a zero-copy Reference over foreign slices, and an
// Allocated owned slab tagged with a memory kind. Both satisfy Buffer.
package memory

import (
	"fmt"

	"github.com/docker/go-units"
)

// Type identifies where a buffer's bytes live.
type Type uint8

const (
	// Host is ordinary process (CPU) memory.
	Host Type = iota
	// HostPinned is page-locked host memory, suitable for fast DMA transfer
	// to a device.
	HostPinned
	// Device is memory resident on an accelerator, identified by DeviceID.
	Device
)

// String renders a Type for logging.
func (t Type) String() string {
	switch t {
	case Host:
		return "host"
	case HostPinned:
		return "host-pinned"
	case Device:
		return "device"
	default:
		return "unknown"
	}
}

// Buffer is the read interface shared by Reference and Allocated. BufferAt
// returns the idx'th contiguous slice backing the buffer, along with its
// memory kind and device id; ok is false if idx is out of range.
type Buffer interface {
	// TotalByteSize returns the sum of all constituent slice lengths.
	TotalByteSize() uint64
	// BufferCount returns the number of constituent slices.
	BufferCount() int
	// BufferAt returns the idx'th slice and its placement.
	BufferAt(idx int) (data []byte, kind Type, deviceID int64, ok bool)
}

// MutableBuffer is implemented only by buffer variants that own a single
// contiguous, writable slab (i.e. Allocated).
type MutableBuffer interface {
	Buffer
	// MutableBuffer returns the owned slab for in-place writes.
	MutableBuffer() []byte
}

// FormatByteSize renders n as a human-readable byte size (e.g. "4MiB").
func FormatByteSize(n uint64) string {
	return units.BytesSize(float64(n))
}

// describe renders a brief human-readable description, e.g. "4MiB
// host-pinned buffer".
func describe(kind Type, size uint64) string {
	return fmt.Sprintf("%s %s buffer", FormatByteSize(size), kind)
}
