package workqueue

import (
	"sync"

	"github.com/modelruntime/servecore/pkg/corelog"
)

// DeviceRegistry maps a device id to its shared BackendThread when
// device-blocking is enabled model-wide, ref-counting so the thread is
// stopped only once every Instance bound to that device has released it.
type DeviceRegistry struct {
	mu  sync.Mutex
	log corelog.Logger

	// queueCapacity bounds each device's shared WorkQueue backlog; 0 means
	// unbounded.
	queueCapacity int64

	entries map[int64]*deviceEntry
}

type deviceEntry struct {
	thread   *BackendThread
	refCount int
}

// NewDeviceRegistry creates an empty DeviceRegistry whose per-device queues
// are unbounded.
func NewDeviceRegistry(log corelog.Logger) *DeviceRegistry {
	return NewBoundedDeviceRegistry(log, 0)
}

// NewBoundedDeviceRegistry creates an empty DeviceRegistry whose per-device
// shared queues block producers once queueCapacity payloads are in flight,
// rather than growing without limit. queueCapacity of 0 means unbounded.
func NewBoundedDeviceRegistry(log corelog.Logger, queueCapacity int64) *DeviceRegistry {
	if log == nil {
		log = corelog.Discard()
	}
	return &DeviceRegistry{log: log, queueCapacity: queueCapacity, entries: make(map[int64]*deviceEntry)}
}

// Acquire returns the BackendThread shared by every Instance bound to
// deviceID, creating one on first use.
func (d *DeviceRegistry) Acquire(deviceID int64) *BackendThread {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry, ok := d.entries[deviceID]
	if !ok {
		queue := NewWorkQueue()
		if d.queueCapacity > 0 {
			queue = NewBoundedWorkQueue(d.queueCapacity)
		}
		entry = &deviceEntry{thread: NewBackendThread(corelog.Component(d.log, "workqueue"), queue)}
		d.entries[deviceID] = entry
	}
	entry.refCount++
	return entry.thread
}

// Release drops one reference to deviceID's shared thread, stopping it once
// the last referent releases.
func (d *DeviceRegistry) Release(deviceID int64) {
	d.mu.Lock()
	entry, ok := d.entries[deviceID]
	if !ok {
		d.mu.Unlock()
		return
	}
	entry.refCount--
	done := entry.refCount <= 0
	if done {
		delete(d.entries, deviceID)
	}
	d.mu.Unlock()

	if done {
		entry.thread.Stop()
	}
}
