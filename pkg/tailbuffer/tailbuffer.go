// Package tailbuffer implements a fixed-capacity ring buffer used to retain
// the most recent bytes written to it, discarding the oldest once capacity
// is exceeded. Instances use it to keep a bounded diagnostic trail of exec
// failures without needing an external log sink.
package tailbuffer

import (
	"io"
	"sync"
)

// Buffer is a fixed-capacity ring buffer satisfying io.ReadWriter: writes
// beyond capacity silently evict the oldest bytes rather than growing or
// blocking.
type Buffer struct {
	lock     sync.Mutex
	buf      []byte
	capacity uint
	size     uint
	read     uint
	write    uint
}

// NewBuffer creates a Buffer retaining at most size bytes.
func NewBuffer(size uint) *Buffer {
	return &Buffer{
		buf:      make([]byte, size),
		capacity: size,
	}
}

func (w *Buffer) Write(buffer []byte) (int, error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	written := 0
	shouldPushRead := false
	si := 0
	if len(buffer) > int(w.capacity) {
		si = len(buffer) - int(w.capacity)
	}
	for _, b := range buffer[si:] {
		if shouldPushRead {
			if w.read+1 < w.capacity {
				w.read += 1
			} else {
				w.read = 0
			}
		}
		w.buf[w.write] = b
		if w.write+1 < w.capacity {
			w.write += 1
		} else {
			w.write = 0
		}
		w.size += 1
		if w.size > w.capacity {
			w.size = w.capacity
		}
		shouldPushRead = w.write == w.read
		written += 1
	}
	return si + written, nil
}

func (w *Buffer) Read(buffer []byte) (int, error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	var err error
	read := uint(0)
	for read < w.size && int(read) < len(buffer) {
		buffer[read] = w.buf[w.read]
		if w.read+1 < w.capacity {
			w.read += 1
		} else {
			w.read = 0
		}
		read += 1
	}
	w.size -= read
	if read == 0 {
		err = io.EOF
	}
	return int(read), err
}

// Bytes returns a copy of the buffer's current contents in write order,
// without consuming them the way Read does. Callers that want a repeatable
// diagnostic snapshot (rather than a drain-once log tail) use this instead.
func (w *Buffer) Bytes() []byte {
	w.lock.Lock()
	defer w.lock.Unlock()

	out := make([]byte, w.size)
	idx := w.read
	for i := range out {
		out[i] = w.buf[idx]
		if idx+1 < w.capacity {
			idx += 1
		} else {
			idx = 0
		}
	}
	return out
}
