// Package plugin defines the compute backend plugin contract: the
// init/exec/fini hooks an Instance drives (warmup samples run through Exec).
// Concrete plugins (TensorRT, TensorFlow, llama.cpp) live outside this core;
// the one plugin defined here is Echo, an in-memory backend for demos and
// tests.
package plugin

import (
	"github.com/modelruntime/servecore/pkg/coreerrors"
	"github.com/modelruntime/servecore/pkg/request"
)

// Backend is the plugin-facing hook set an Instance invokes. Implementations
// receive raw requests with ownership transferred: on success the plugin
// owns the release lifecycle of every request it was handed; on error the
// Instance retains ownership and must respond-if-error and release each one
// itself.
type Backend interface {
	// Init runs once per Instance before any warmup or inference payload is
	// dispatched to it.
	Init(instance InstanceInfo) coreerrors.Status
	// Exec runs a batch of requests to completion, emitting zero or more
	// responses per request followed by exactly one release per request
	// (on success). requests is never empty.
	Exec(instance InstanceInfo, requests []*request.Request) coreerrors.Status
	// Fini runs once per Instance after its last exec/warmup payload has
	// completed, to free any plugin-owned opaque state.
	Fini(instance InstanceInfo) coreerrors.Status
}

// InstanceInfo is the narrow view of an Instance a plugin needs: identity
// for logging and device binding. It is implemented by pkg/instance.Instance;
// this package only declares the surface, to keep pkg/plugin free of any
// dependency on pkg/instance (instance depends on plugin, not the reverse).
type InstanceInfo interface {
	Name() string
	DeviceID() int64
}
