// Command demo wires the request lifecycle, instance execution, and echo
// plugin packages together end to end: load a model config, stand up one
// Instance backed by a dedicated BackendThread, run its warmup samples, then
// build and schedule one inference request and wait for it to be released. It has
// no HTTP/gRPC surface of its own: the scheduler is wired directly rather
// than exposed behind a transport.
package main

import (
	"fmt"
	"os"

	"github.com/modelruntime/servecore/pkg/coreerrors"
	"github.com/modelruntime/servecore/pkg/corelog"
	"github.com/modelruntime/servecore/pkg/instance"
	"github.com/modelruntime/servecore/pkg/memory"
	"github.com/modelruntime/servecore/pkg/model"
	"github.com/modelruntime/servecore/pkg/plugin"
	"github.com/modelruntime/servecore/pkg/request"
	"github.com/modelruntime/servecore/pkg/runtimeconfig"
	"github.com/modelruntime/servecore/pkg/workqueue"
	"github.com/sirupsen/logrus"
)

// instanceScheduler hands every enqueued Request straight to the one demo
// Instance, standing in for the routing/placement layer a real deployment
// would put in front of many instances.
type instanceScheduler struct {
	inst *instance.Instance
}

func (s *instanceScheduler) Enqueue(r *request.Request) coreerrors.Status {
	done := make(chan struct{})
	s.inst.Schedule([]*request.Request{r}, func() { close(done) })
	<-done
	return coreerrors.Status{}
}

func main() {
	log := logrus.New()
	if len(os.Args) < 2 {
		log.Fatalf("usage: demo <config.json>")
	}

	cfg, err := runtimeconfig.Load(os.Args[1])
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	registry := request.NewRegistry()
	deviceRegistry := workqueue.NewDeviceRegistry(corelog.Component(log, "devices"))
	thread := deviceRegistry.Acquire(cfg.DeviceID)
	defer deviceRegistry.Release(cfg.DeviceID)

	scheduler := &instanceScheduler{}
	backend, err := model.NewBackend(&cfg.Model, scheduler)
	if err != nil {
		log.Fatalf("building model backend: %v", err)
	}
	handle := registry.Bind(backend)

	readFile := func(name string) ([]byte, error) {
		return os.ReadFile(cfg.WarmupDataDir + string(os.PathSeparator) + name)
	}
	warmupSamples, err := instance.GenerateWarmupSamples(&cfg.Model, handle, readFile, corelog.Component(log, "warmup"))
	if err != nil {
		log.Fatalf("generating warmup samples: %v", err)
	}

	inst := instance.New(cfg.Model.Name, cfg.DeviceID, handle, plugin.Echo{OutputName: firstOutputName(&cfg.Model), DataType: firstOutputDataType(&cfg.Model)}, thread, corelog.Component(log, "instance"))
	inst.SetMetricReporter(instance.NewTextMetricReporter(os.Stderr))
	scheduler.inst = inst

	if status := inst.Initialize(); !status.Ok() {
		log.Fatalf("initializing instance: %v", status.Error())
	}
	defer inst.Fini()

	inst.SetWarmupSamples(warmupSamples)
	if status := inst.WarmUp(); !status.Ok() {
		log.Fatalf("warming up instance: %v", status.Error())
	}
	log.Infof("ran %d warmup sample(s)", len(warmupSamples))

	if len(cfg.Model.Inputs) == 0 {
		log.Fatalf("model %s declares no inputs", cfg.Model.Name)
	}

	req := request.New(handle, -1)
	firstIn := cfg.Model.Inputs[0]
	shape := firstIn.Dims
	if cfg.Model.MaxBatchSize != 0 {
		shape = append([]int64{1}, firstIn.Dims...)
	}
	in, status := req.AddOriginalInput(firstIn.Name, string(firstIn.DataType), shape)
	if !status.Ok() {
		log.Fatalf("building request: %v", status.Error())
	}
	payload := make([]byte, inputByteSize(firstIn))
	if status := in.AppendData(payload, memory.Host, 0); !status.Ok() {
		log.Fatalf("appending input data: %v", status.Error())
	}
	if status := req.PrepareForInference(); !status.Ok() {
		log.Fatalf("preparing request: %v", status.Error())
	}

	req.SetResponseCallback(
		func(tensorName string, byteSize uint64, kind memory.Type, deviceID int64, userp any) (memory.Buffer, error) {
			return memory.NewAllocated(byteSize, kind, deviceID), nil
		},
		nil,
		func(userp any, flags uint32) {},
		nil,
	)
	done := make(chan struct{})
	req.SetReleaseCallback(func(flags uint32, userp any) { close(done) }, nil)

	if status := req.Run(); !status.Ok() {
		log.Fatalf("scheduling request: %v", status.Error())
	}
	<-done

	fmt.Println("demo request completed")
}

func firstOutputName(cfg *model.Config) string {
	if len(cfg.Outputs) == 0 {
		return ""
	}
	return cfg.Outputs[0].Name
}

func firstOutputDataType(cfg *model.Config) string {
	if len(cfg.Outputs) == 0 {
		return string(model.TypeFP32)
	}
	return string(cfg.Outputs[0].DataType)
}

func inputByteSize(in model.Input) uint64 {
	count := int64(1)
	for _, d := range in.Dims {
		if d > 0 {
			count *= d
		}
	}
	size := count * in.DataType.ByteSize()
	if size <= 0 {
		size = count * 4
	}
	return uint64(size)
}
