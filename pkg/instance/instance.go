// Package instance implements the per-instance runtime: binding to one
// device, owning a prebuilt warmup sample set, owning or sharing a
// BackendThread, and forwarding INIT/WARM_UP/INFER_RUN payloads into a
// compute backend plugin's exec hook.
package instance

import (
	"fmt"
	"time"

	"github.com/modelruntime/servecore/pkg/corelog"
	"github.com/modelruntime/servecore/pkg/coreerrors"
	"github.com/modelruntime/servecore/pkg/plugin"
	"github.com/modelruntime/servecore/pkg/request"
	"github.com/modelruntime/servecore/pkg/response"
	"github.com/modelruntime/servecore/pkg/tailbuffer"
	"github.com/modelruntime/servecore/pkg/workqueue"
)

// diagnosticsCapacity bounds how many bytes of recent exec-failure
// diagnostics an Instance retains.
const diagnosticsCapacity = 4096

// Instance is one model instance: a device binding, a plugin, an optional
// shared or dedicated BackendThread, and the warmup samples generated for it
// at load time.
type Instance struct {
	name     string
	deviceID int64

	model   request.Handle
	backend plugin.Backend
	thread  *workqueue.BackendThread

	warmupSamples []*WarmupSample

	diagnostics *tailbuffer.Buffer
	metrics     MetricReporter
	log         corelog.Logger
}

// New creates an Instance. thread may be nil, meaning this Instance has no
// dedicated or shared worker thread and every operation runs inline on the
// calling goroutine.
func New(name string, deviceID int64, model request.Handle, backend plugin.Backend, thread *workqueue.BackendThread, log corelog.Logger) *Instance {
	if log == nil {
		log = corelog.Discard()
	}
	return &Instance{
		name:        name,
		deviceID:    deviceID,
		model:       model,
		backend:     backend,
		thread:      thread,
		diagnostics: tailbuffer.NewBuffer(diagnosticsCapacity),
		log:         corelog.Component(log, "instance."+name),
	}
}

// Diagnostics returns a snapshot of the most recent exec-failure messages
// recorded for this instance, oldest first, bounded to the last
// diagnosticsCapacity bytes.
func (i *Instance) Diagnostics() []byte { return i.diagnostics.Bytes() }

// Name implements plugin.InstanceInfo.
func (i *Instance) Name() string { return i.name }

// DeviceID implements plugin.InstanceInfo.
func (i *Instance) DeviceID() int64 { return i.deviceID }

// SetWarmupSamples installs the warmup samples generated for this instance
// at load time.
func (i *Instance) SetWarmupSamples(samples []*WarmupSample) { i.warmupSamples = samples }

// Initialize runs the plugin's Init hook. If a BackendThread is attached,
// the call is dispatched as an INIT payload and awaited synchronously;
// otherwise it runs inline.
func (i *Instance) Initialize() coreerrors.Status {
	run := func() coreerrors.Status { return i.backend.Init(i) }
	if i.thread == nil {
		return run()
	}
	p := workqueue.NewPayload(workqueue.Init, nil, run, true)
	i.thread.Submit(p)
	return p.Wait()
}

// Fini runs the plugin's Fini hook directly. Unlike Initialize and WarmUp,
// Fini is never dispatched through the BackendThread: it runs on the calling
// goroutine, whether or not the instance's thread is still running.
func (i *Instance) Fini() coreerrors.Status {
	return i.backend.Fini(i)
}

// WarmUp runs every prebuilt warmup sample through the exec hook, in order,
// waiting for each sample's shared completion signal (fired by the release
// hook of the sample's first request) before moving to the next sample.
func (i *Instance) WarmUp() coreerrors.Status {
	run := func() coreerrors.Status {
		for _, sample := range i.warmupSamples {
			if len(sample.Requests) == 0 {
				continue
			}
			i.log.Infof("running warmup sample %q (%d requests)", corelog.Sanitize(sample.Name), len(sample.Requests))
			i.execute(sample.Requests)
			<-sample.done
		}
		return coreerrors.Status{}
	}
	if i.thread == nil {
		return run()
	}
	p := workqueue.NewPayload(workqueue.WarmUp, nil, run, true)
	i.thread.Submit(p)
	return p.Wait()
}

// Schedule enqueues requests for execution and returns immediately; the
// BackendThread (or, with no thread attached, the calling goroutine
// synchronously) invokes onCompletion once the plugin's exec hook returns.
func (i *Instance) Schedule(requests []*request.Request, onCompletion func()) {
	i.reportQueueDepth(len(requests))
	run := func() coreerrors.Status {
		i.execute(requests)
		if onCompletion != nil {
			onCompletion()
		}
		return coreerrors.Status{}
	}
	if i.thread == nil {
		run()
		return
	}
	i.thread.Submit(workqueue.NewPayload(workqueue.InferRun, requests, run, false))
}

// execute hands requests to the plugin's exec hook. On success the plugin
// owns every request's release lifecycle; on failure the Instance retains
// ownership and must emit one error response and one release per request.
func (i *Instance) execute(requests []*request.Request) {
	if len(requests) == 0 {
		return
	}
	start := time.Now()
	status := i.backend.Exec(i, requests)
	i.reportExecDuration(time.Since(start))
	if status.Ok() {
		return
	}
	i.log.Warnf("exec failed for instance %q: %v", corelog.Sanitize(i.name), status.Error())
	fmt.Fprintf(i.diagnostics, "exec failed: %v\n", status.Error())
	statuses := make([]coreerrors.Status, len(requests))
	for idx := range statuses {
		statuses[idx] = status
	}
	response.RespondIfErrorBatch(requests, statuses, true)
}
