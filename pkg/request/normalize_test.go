package request

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// S1 — Batched FP32 normalize.
func TestNormalizeBatchedFP32(t *testing.T) {
	backend := &mockBackend{
		name:         "s1",
		maxBatchSize: 4,
		inputs: map[string]InputSpec{
			"IN0": {DataType: "TYPE_FP32", Dims: []int64{3}},
		},
		outputs: map[string]OutputSpec{
			"OUT0": {DataType: "TYPE_FP32", Dims: []int64{3}},
		},
	}
	req := New(bindMock(backend), -1)
	_, status := req.AddOriginalInput("IN0", "TYPE_FP32", []int64{2, 3})
	require.True(t, status.Ok())

	status = req.PrepareForInference()
	require.True(t, status.Ok(), status.Error())

	require.EqualValues(t, 2, req.BatchSize())
	in := req.OriginalInputs()["IN0"]
	if diff := cmp.Diff([]int64{3}, in.Shape()); diff != "" {
		t.Errorf("Shape mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{2, 3}, in.ShapeWithBatchDim()); diff != "" {
		t.Errorf("ShapeWithBatchDim mismatch (-want +got):\n%s", diff)
	}
}

// S2 — Batch mismatch.
func TestNormalizeBatchMismatch(t *testing.T) {
	backend := &mockBackend{
		name:         "s2",
		maxBatchSize: 4,
		inputs: map[string]InputSpec{
			"IN0": {DataType: "TYPE_FP32", Dims: []int64{3}},
			"IN1": {DataType: "TYPE_FP32", Dims: []int64{5}},
		},
		outputs: map[string]OutputSpec{},
	}
	req := New(bindMock(backend), -1)
	_, _ = req.AddOriginalInput("IN0", "TYPE_FP32", []int64{2, 3})
	_, _ = req.AddOriginalInput("IN1", "TYPE_FP32", []int64{3, 5})

	status := req.PrepareForInference()
	require.False(t, status.Ok())
	require.Contains(t, status.Error(), "batch size does not match")
}

// S3 — Reshape.
func TestNormalizeReshape(t *testing.T) {
	backend := &mockBackend{
		name:         "s3",
		maxBatchSize: 0,
		inputs: map[string]InputSpec{
			"IN0": {DataType: "TYPE_FP32", Dims: []int64{wildcardDim, 4}, Reshape: []int64{4, wildcardDim}},
		},
		outputs: map[string]OutputSpec{},
	}
	req := New(bindMock(backend), -1)
	_, _ = req.AddOriginalInput("IN0", "TYPE_FP32", []int64{7, 4})

	status := req.PrepareForInference()
	require.True(t, status.Ok(), status.Error())

	in := req.OriginalInputs()["IN0"]
	if diff := cmp.Diff([]int64{4, 7}, in.Shape()); diff != "" {
		t.Errorf("Shape mismatch (-want +got):\n%s", diff)
	}
}

// S4 — Priority clamp.
func TestSetPriorityClamp(t *testing.T) {
	backend := &mockBackend{
		name:                 "s4",
		maxPriorityLevel:     5,
		defaultPriorityLevel: 2,
		inputs:               map[string]InputSpec{},
		outputs:              map[string]OutputSpec{},
	}
	req := New(bindMock(backend), -1)

	require.True(t, req.SetPriority(0).Ok())
	require.EqualValues(t, 2, req.Priority())

	require.True(t, req.SetPriority(6).Ok())
	require.EqualValues(t, 2, req.Priority())

	require.True(t, req.SetPriority(3).Ok())
	require.EqualValues(t, 3, req.Priority())
}

func TestNormalizeUnknownOutputFails(t *testing.T) {
	backend := &mockBackend{
		name:    "unknown-output",
		inputs:  map[string]InputSpec{},
		outputs: map[string]OutputSpec{"OUT0": {DataType: "TYPE_FP32"}},
	}
	req := New(bindMock(backend), -1)
	req.AddOriginalRequestedOutput("missing")

	status := req.PrepareForInference()
	require.False(t, status.Ok())
}

func TestNormalizeInputCountMismatch(t *testing.T) {
	backend := &mockBackend{
		name: "count-mismatch",
		inputs: map[string]InputSpec{
			"IN0": {DataType: "TYPE_FP32", Dims: []int64{1}},
			"IN1": {DataType: "TYPE_FP32", Dims: []int64{1}},
		},
		outputs: map[string]OutputSpec{},
	}
	req := New(bindMock(backend), -1)
	_, _ = req.AddOriginalInput("IN0", "TYPE_FP32", []int64{1})

	status := req.PrepareForInference()
	require.False(t, status.Ok())
	require.Contains(t, status.Error(), "expected 2 inputs")
}

func TestNormalizeIdempotent(t *testing.T) {
	backend := &mockBackend{
		name:         "idempotent",
		maxBatchSize: 4,
		inputs: map[string]InputSpec{
			"IN0": {DataType: "TYPE_FP32", Dims: []int64{3}},
		},
		outputs: map[string]OutputSpec{},
	}
	req := New(bindMock(backend), -1)
	_, _ = req.AddOriginalInput("IN0", "TYPE_FP32", []int64{2, 3})

	require.True(t, req.PrepareForInference().Ok())
	shape1 := append([]int64(nil), req.OriginalInputs()["IN0"].Shape()...)

	require.True(t, req.PrepareForInference().Ok())
	shape2 := req.OriginalInputs()["IN0"].Shape()

	require.Equal(t, shape1, shape2)
}

func TestAddOverrideInputVisibleAfterPrepare(t *testing.T) {
	backend := &mockBackend{
		name:         "override",
		maxBatchSize: 0,
		inputs:       map[string]InputSpec{},
		outputs:      map[string]OutputSpec{},
	}
	req := New(bindMock(backend), -1)
	require.True(t, req.PrepareForInference().Ok())

	o := req.AddOverrideInput("CTRL", "TYPE_INT32", []int64{1})
	require.Same(t, o, req.ImmutableInputs()["CTRL"])

	// PrepareForInference erases overrides that predate it.
	require.True(t, req.PrepareForInference().Ok())
	_, present := req.ImmutableInputs()["CTRL"]
	require.False(t, present)
}
