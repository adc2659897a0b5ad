package instance

import (
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/modelruntime/servecore/pkg/corelog"
	"github.com/modelruntime/servecore/pkg/memory"
	"github.com/modelruntime/servecore/pkg/model"
	"github.com/modelruntime/servecore/pkg/request"
)

// WarmupSample is one batched warmup fixture: a name and the prepared
// Requests that make it up, plus a completion signal the sample's first
// request's release hook fires.
type WarmupSample struct {
	Name     string
	Requests []*request.Request

	done chan struct{}
}

// FileReader reads the content of a warmup input data file by its
// configured name. The core has no filesystem dependency of its own; the
// caller supplies whatever resolves a warmup data file path.
type FileReader func(name string) ([]byte, error)

// int32ByteSize is the fallback per-element size used for a declared
// byte size of 0 (string types, whose true size is data-dependent), mirroring
// the original's use of sizeof(int32_t) as a synthetic placeholder.
const int32ByteSize = 4

// GenerateWarmupSamples implements the two-pass warmup algorithm: a sizing
// pass computing the largest zero-data and random-data byte requirement
// across every sample's inputs, then a construction pass building one
// Request per batch repetition of each sample, each input sliced from a
// shared pinned-host zero or random slab (or a file's own buffer).
func GenerateWarmupSamples(cfg *model.Config, modelHandle request.Handle, readFile FileReader, log corelog.Logger) ([]*WarmupSample, error) {
	samples := make([]*WarmupSample, 0, len(cfg.Warmup))
	for _, setting := range cfg.Warmup {
		if setting.BatchSize == 0 {
			if log != nil {
				log.Infof("skipping batch-0 warmup sample %q", corelog.Sanitize(setting.Name))
			}
			continue
		}

		maxZero, maxRandom, err := sizeWarmupSample(setting)
		if err != nil {
			return nil, err
		}

		sample, err := buildWarmupSample(cfg, modelHandle, setting, maxZero, maxRandom, readFile)
		if err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

func elementCount(dims []int64) (int64, error) {
	count := int64(1)
	for _, d := range dims {
		if d < 0 {
			return 0, fmt.Errorf("warmup setting expects all variable-size dimensions are specified")
		}
		count *= d
	}
	return count, nil
}

func batchByteSize(dt model.DataType, dims []int64) (int64, error) {
	count, err := elementCount(dims)
	if err != nil {
		return 0, err
	}
	size := count * dt.ByteSize()
	if size == 0 {
		size = count * int32ByteSize
	}
	return size, nil
}

// sizeWarmupSample runs the sizing half of the two-pass warmup algorithm,
// fanning out across a sample's inputs concurrently via errgroup since each
// input's byte-size computation is independent. Every input is still sized
// after one fails (the group has no cancellation); once all have finished,
// the first error is returned to the caller.
func sizeWarmupSample(setting model.WarmupSetting) (maxZero, maxRandom int64, err error) {
	var mu sync.Mutex
	var g errgroup.Group

	for name, in := range setting.Inputs {
		name, in := name, in
		g.Go(func() error {
			if in.InputDataFile != "" {
				return nil
			}
			size, err := batchByteSize(in.DataType, in.Dims)
			if err != nil {
				return fmt.Errorf("input %q: %w", name, err)
			}

			mu.Lock()
			defer mu.Unlock()
			switch {
			case in.ZeroData:
				if size > maxZero {
					maxZero = size
				}
			case in.RandomData:
				if in.DataType == model.TypeString {
					if size > maxZero {
						maxZero = size
					}
				} else if size > maxRandom {
					maxRandom = size
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, 0, err
	}
	return maxZero, maxRandom, nil
}

func fillRandomBytes(buf []byte) {
	dist := distuv.Uniform{Min: 0, Max: 256}
	for i := range buf {
		buf[i] = byte(dist.Rand())
	}
}

func buildWarmupSample(cfg *model.Config, modelHandle request.Handle, setting model.WarmupSetting, maxZero, maxRandom int64, readFile FileReader) (*WarmupSample, error) {
	if status := checkPinnedHostBudget(uint64(maxZero) + uint64(maxRandom)); !status.Ok() {
		return nil, fmt.Errorf("warmup sample %q: %s", setting.Name, status.Error())
	}

	zeroSlab := memory.NewAllocated(uint64(maxZero), memory.HostPinned, 0)
	randomSlab := memory.NewAllocated(uint64(maxRandom), memory.HostPinned, 0)
	fillRandomBytes(randomSlab.MutableBuffer())

	inputsByName := make(map[string]model.Input, len(cfg.Inputs))
	for _, in := range cfg.Inputs {
		inputsByName[in.Name] = in
	}

	requests := make([]*request.Request, 0, setting.BatchSize)
	sample := &WarmupSample{Name: setting.Name, done: make(chan struct{})}

	for rep := uint32(0); rep < setting.BatchSize; rep++ {
		req := request.New(modelHandle, -1)

		type pendingOverride struct {
			name, dataType string
			shape          []int64
			data           []byte
		}
		var overrides []pendingOverride

		for name, in := range setting.Inputs {
			_, isOriginal := inputsByName[name]

			shape := make([]int64, 0, len(in.Dims)+1)
			if cfg.MaxBatchSize != 0 && isOriginal {
				shape = append(shape, 1)
			}
			shape = append(shape, in.Dims...)

			size, err := batchByteSize(in.DataType, in.Dims)
			if err != nil {
				return nil, fmt.Errorf("warmup sample %q input %q: %w", setting.Name, name, err)
			}

			var data []byte
			switch {
			case in.InputDataFile != "":
				if readFile == nil {
					return nil, fmt.Errorf("warmup sample %q input %q: input_data_file set but no FileReader configured", setting.Name, name)
				}
				fileData, err := readFile(in.InputDataFile)
				if err != nil {
					return nil, fmt.Errorf("warmup sample %q input %q: %w", setting.Name, name, err)
				}
				if in.DataType == model.TypeString {
					size = int64(len(fileData))
				} else if int64(len(fileData)) < size {
					return nil, fmt.Errorf(
						"warmup setting expects %d bytes for input %q, but %q only has %d bytes",
						size, name, in.InputDataFile, len(fileData))
				}
				data = fileData[:size]
			case in.ZeroData:
				data = zeroSlab.MutableBuffer()[:size]
			case in.RandomData:
				if in.DataType == model.TypeString {
					data = zeroSlab.MutableBuffer()[:size]
				} else {
					data = randomSlab.MutableBuffer()[:size]
				}
			default:
				return nil, fmt.Errorf("warmup sample %q input %q: exactly one of zero_data/random_data/input_data_file must be set", setting.Name, name)
			}

			if isOriginal {
				input, status := req.AddOriginalInput(name, string(in.DataType), shape)
				if !status.Ok() {
					return nil, fmt.Errorf("warmup sample %q: %s", setting.Name, status.Error())
				}
				if status := input.AppendData(data, memory.Host, 0); !status.Ok() {
					return nil, fmt.Errorf("warmup sample %q: %s", setting.Name, status.Error())
				}
			} else {
				overrides = append(overrides, pendingOverride{name: name, dataType: string(in.DataType), shape: shape, data: data})
			}
		}

		if status := req.PrepareForInference(); !status.Ok() {
			return nil, fmt.Errorf("warmup sample %q: %s", setting.Name, status.Error())
		}

		// Override (control) inputs are added after PrepareForInference, a
		// sequencing explicitly supported by the Request builder.
		for _, ov := range overrides {
			in := req.AddOverrideInput(ov.name, ov.dataType, ov.shape)
			if status := in.AppendData(ov.data, memory.Host, 0); !status.Ok() {
				return nil, fmt.Errorf("warmup sample %q: %s", setting.Name, status.Error())
			}
		}

		req.SetResponseCallback(warmupAllocator, nil, warmupComplete, nil)

		isFirst := rep == 0
		var once sync.Once
		req.SetReleaseCallback(func(flags uint32, userp any) {
			if isFirst {
				once.Do(func() { close(sample.done) })
			}
		}, nil)

		requests = append(requests, req)
	}

	sample.Requests = requests
	return sample, nil
}

// warmupAllocator always succeeds with a fresh host buffer.
func warmupAllocator(tensorName string, byteSize uint64, kind memory.Type, deviceID int64, userp any) (memory.Buffer, error) {
	return memory.NewAllocated(byteSize, kind, deviceID), nil
}

// warmupComplete is a no-op: Go's garbage collector reclaims the allocator's
// buffer once unreferenced, unlike the original's explicit free.
func warmupComplete(userp any, flags uint32) {}
