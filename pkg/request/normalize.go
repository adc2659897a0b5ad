package request

import "github.com/modelruntime/servecore/pkg/coreerrors"

// wildcardDim is the sentinel meaning "any positive extent", mirrored here
// from model.WildcardDim to avoid an import cycle (model depends on this
// package for the Request/ModelBackend types it binds).
const wildcardDim int64 = -1

// Normalize is a pure validation/rewrite pass on req against its bound
// model's declared configuration. It populates req.batchSize and, for every
// input, its working Shape and ShapeWithBatchDim. Normalize is idempotent on
// an already-normalized Request and cheap on no-op updates.
func Normalize(req *Request) coreerrors.Status {
	backend, status := req.model.Resolve()
	if !status.Ok() {
		return status
	}

	// Step 1: build ImmutableRequestedOutputs.
	effectiveOutputs := make(map[string]struct{})
	if len(req.originalRequestedOutputs) == 0 {
		for _, name := range backend.AllOutputNames() {
			effectiveOutputs[name] = struct{}{}
		}
	} else {
		for name := range req.originalRequestedOutputs {
			if _, ok := backend.GetOutput(name); !ok {
				return coreerrors.InvalidArgf("unknown output %q requested for model %q", name, backend.Name())
			}
			effectiveOutputs[name] = struct{}{}
		}
	}
	req.immutableRequestedOutputs = effectiveOutputs

	// Step 2: input count must match the model's declared input count.
	if len(req.originalInputs) != backend.InputCount() {
		return coreerrors.InvalidArgf(
			"expected %d inputs but got %d inputs for model %q",
			backend.InputCount(), len(req.originalInputs), backend.Name())
	}

	maxBatchSize := backend.MaxBatchSize()

	// Step 3: compute batch_size.
	var batchSize uint32
	if maxBatchSize == 0 {
		for _, in := range req.originalInputs {
			in.setNormalized(append([]int64(nil), in.originalShape...), nil, false)
		}
	} else {
		for name, in := range req.originalInputs {
			spec, ok := backend.GetInput(name)
			if !ok {
				return coreerrors.Internalf("input %q missing from model %q configuration", name, backend.Name())
			}
			if spec.IsShapeTensor {
				in.setNormalized(append([]int64(nil), in.originalShape...), nil, true)
				continue
			}
			if len(in.originalShape) == 0 {
				return coreerrors.InvalidArgf(
					"input %q has no shape but model %q requires a batch dimension", name, backend.Name())
			}
			b := uint64(in.originalShape[0])
			if batchSize == 0 {
				batchSize = uint32(b)
			} else if uint64(batchSize) != b {
				return coreerrors.InvalidArgf(
					"input %q batch size does not match other inputs for model %q", name, backend.Name())
			}
			in.setNormalized(append([]int64(nil), in.originalShape[1:]...), nil, false)
		}
	}
	req.batchSize = batchSize

	// Step 4: batch size must not exceed the model's max.
	if batchSize > maxBatchSize {
		return coreerrors.InvalidArgf(
			"inference request batch-size must be <= %d for model %q", maxBatchSize, backend.Name())
	}

	// Steps 5-7: dtype, wildcard-shape, and reshape validation per input.
	for name, in := range req.originalInputs {
		spec, ok := backend.GetInput(name)
		if !ok {
			return coreerrors.Internalf("input %q missing from model %q configuration", name, backend.Name())
		}
		if in.dataType != spec.DataType {
			return coreerrors.InvalidArgf(
				"inference input %q data-type is %q, model %q expects %q",
				name, in.dataType, backend.Name(), spec.DataType)
		}

		if !in.isShapeTensor {
			if !dimsCompatible(spec.Dims, in.shape) {
				return coreerrors.InvalidArgf(
					"unexpected shape for input %q for model %q. Expected %v, got %v",
					name, backend.Name(), spec.Dims, in.originalShape)
			}

			if spec.Reshape != nil {
				in.shape = applyReshape(spec.Dims, spec.Reshape, in.shape)
			}
		}

		// Step 8: compute ShapeWithBatchDim.
		if batchSize == 0 {
			in.shapeWithBatchDim = append([]int64(nil), in.shape...)
		} else {
			in.shapeWithBatchDim = make([]int64, 0, len(in.shape)+1)
			in.shapeWithBatchDim = append(in.shapeWithBatchDim, int64(batchSize))
			in.shapeWithBatchDim = append(in.shapeWithBatchDim, in.shape...)
		}
	}

	return coreerrors.Status{}
}

// dimsCompatible implements the wildcard rule: dims are compatible
// dimension-by-dimension iff both sides are equal or either side is
// wildcardDim.
func dimsCompatible(declared, actual []int64) bool {
	if len(declared) != len(actual) {
		return false
	}
	for i := range declared {
		if declared[i] == wildcardDim || actual[i] == wildcardDim {
			continue
		}
		if declared[i] != actual[i] {
			return false
		}
	}
	return true
}

// applyReshape records the values at positions where declared[i] ==
// wildcardDim (in order), then emits the reshape target substituting
// wildcardDim slots in that same order.
func applyReshape(declared []int64, reshapeTarget, actual []int64) []int64 {
	var variable []int64
	for i, d := range declared {
		if d == wildcardDim {
			variable = append(variable, actual[i])
		}
	}
	out := make([]int64, 0, len(reshapeTarget))
	vi := 0
	for _, d := range reshapeTarget {
		if d == wildcardDim {
			out = append(out, variable[vi])
			vi++
		} else {
			out = append(out, d)
		}
	}
	return out
}
