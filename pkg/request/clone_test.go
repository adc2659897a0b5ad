package request

import (
	"testing"

	"github.com/modelruntime/servecore/pkg/memory"
	"github.com/stretchr/testify/require"
)

// S5 — Null clone.
func TestNewNullClonePreservesShapeTensorBytesAndSharesBackingBuffer(t *testing.T) {
	backend := &mockBackend{
		name:         "s5",
		maxBatchSize: 4,
		inputs: map[string]InputSpec{
			"IN0":   {DataType: "TYPE_FP32", Dims: []int64{8}},
			"IN1":   {DataType: "TYPE_FP32", Dims: []int64{2}},
			"SHAPE": {DataType: "TYPE_INT32", Dims: []int64{1}, IsShapeTensor: true},
		},
		outputs: map[string]OutputSpec{},
	}
	req := New(bindMock(backend), -1)
	req.AddOriginalRequestedOutput("unused")
	req.RemoveOriginalRequestedOutput("unused")

	in0, _ := req.AddOriginalInput("IN0", "TYPE_FP32", []int64{2, 8})
	require.True(t, in0.AppendData(make([]byte, 64), memory.Host, 0).Ok())

	in1, _ := req.AddOriginalInput("IN1", "TYPE_FP32", []int64{2, 2})
	require.True(t, in1.AppendData(make([]byte, 16), memory.Host, 0).Ok())

	shapeBytes := []byte{1, 2, 3, 4}
	shapeIn, _ := req.AddOriginalInput("SHAPE", "TYPE_INT32", []int64{2, 1})
	require.True(t, shapeIn.AppendData(shapeBytes, memory.Host, 0).Ok())

	require.True(t, req.PrepareForInference().Ok())

	clone := NewNullClone(req)

	require.EqualValues(t, req.BatchSize(), clone.BatchSize())
	require.False(t, clone.CollectStats())
	require.False(t, clone.NeedsNormalization())
	require.Empty(t, clone.ImmutableRequestedOutputs())

	cloneShape := clone.OriginalInputs()["SHAPE"]
	var gotShapeBytes []byte
	for i := 0; i < cloneShape.Data().BufferCount(); i++ {
		data, _, _, ok := cloneShape.Data().BufferAt(i)
		require.True(t, ok)
		gotShapeBytes = append(gotShapeBytes, data...)
	}
	require.Equal(t, shapeBytes, gotShapeBytes)

	cloneIn0 := clone.OriginalInputs()["IN0"]
	cloneIn1 := clone.OriginalInputs()["IN1"]
	require.EqualValues(t, 64, cloneIn0.Data().TotalByteSize())
	require.EqualValues(t, 16, cloneIn1.Data().TotalByteSize())

	_, ok := cloneIn0.Data().(*memory.Allocated)
	require.True(t, ok, "largest input should own the Allocated slab directly")
	_, ok = cloneIn1.Data().(*memory.Reference)
	require.True(t, ok, "smaller input should hold a Reference into the shared buffer")

	factory := clone.ResponseFactory()
	require.NotNil(t, factory.Allocator)
	_, err := factory.Allocator("anything", 1, memory.Host, 0, nil)
	require.Error(t, err)
}

func TestNewNullCloneWithNoNonShapeInputs(t *testing.T) {
	backend := &mockBackend{
		name:         "s5-empty",
		maxBatchSize: 0,
		inputs:       map[string]InputSpec{},
		outputs:      map[string]OutputSpec{},
	}
	req := New(bindMock(backend), -1)
	require.True(t, req.PrepareForInference().Ok())

	require.NotPanics(t, func() {
		clone := NewNullClone(req)
		require.Empty(t, clone.OriginalInputs())
	})
}
