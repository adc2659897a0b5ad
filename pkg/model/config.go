// Package model implements the Backend entity: the per-model state a
// Request is bound to — its declared configuration, input/output maps, and
// the lookups Normalize and the Request builder consume.
package model

import "fmt"

// DataType names a tensor element type, following Triton's TYPE_* protocol
// strings so model configuration can be authored the same way.
type DataType string

const (
	TypeInvalid DataType = "TYPE_INVALID"
	TypeBool    DataType = "TYPE_BOOL"
	TypeUint8   DataType = "TYPE_UINT8"
	TypeUint32  DataType = "TYPE_UINT32"
	TypeUint64  DataType = "TYPE_UINT64"
	TypeInt8    DataType = "TYPE_INT8"
	TypeInt32   DataType = "TYPE_INT32"
	TypeInt64   DataType = "TYPE_INT64"
	TypeFP16    DataType = "TYPE_FP16"
	TypeFP32    DataType = "TYPE_FP32"
	TypeFP64    DataType = "TYPE_FP64"
	TypeString  DataType = "TYPE_STRING"
)

// ByteSize returns the fixed per-element byte size for fixed-width types, or
// 0 for TYPE_STRING (whose size is data-dependent).
func (d DataType) ByteSize() int64 {
	switch d {
	case TypeBool, TypeUint8, TypeInt8:
		return 1
	case TypeFP16:
		return 2
	case TypeUint32, TypeInt32, TypeFP32:
		return 4
	case TypeUint64, TypeInt64, TypeFP64:
		return 8
	default:
		return 0
	}
}

// WildcardDim is the sentinel value meaning "any positive extent" in both
// declared dims and reshape targets.
const WildcardDim int64 = -1

// Reshape describes a reshape target for an input, substituting WildcardDim
// slots in declaration order with the corresponding values observed in the
// original (wildcard) positions of the declared dims.
type Reshape struct {
	Shape []int64
}

// Input describes one model-declared input tensor slot.
type Input struct {
	// Name is the input's unique name within the model.
	Name string `json:"name"`
	// DataType is the declared element type.
	DataType DataType `json:"data_type"`
	// Dims are the declared dimensions, excluding any batch dimension.
	// WildcardDim entries accept any positive extent.
	Dims []int64 `json:"dims"`
	// IsShapeTensor marks an input whose values describe the shape of
	// another tensor; it is never batch-stripped during normalization.
	IsShapeTensor bool `json:"is_shape_tensor,omitempty"`
	// Reshape, if non-nil, is the target shape substituted in for Dims
	// after wildcard-rule validation.
	Reshape *Reshape `json:"reshape,omitempty"`
}

// Output describes one model-declared output tensor slot.
type Output struct {
	Name     string   `json:"name"`
	DataType DataType `json:"data_type"`
	Dims     []int64  `json:"dims"`
}

// WarmupInputSetting describes one input of one warmup sample, exactly one
// of ZeroData / RandomData / InputDataFile is set.
type WarmupInputSetting struct {
	DataType      DataType `json:"data_type"`
	Dims          []int64  `json:"dims"`
	ZeroData      bool     `json:"zero_data,omitempty"`
	RandomData    bool     `json:"random_data,omitempty"`
	InputDataFile string   `json:"input_data_file,omitempty"`
}

// WarmupSetting describes one batched warmup fixture as read from model
// configuration.
type WarmupSetting struct {
	Name      string                         `json:"name"`
	BatchSize uint32                         `json:"batch_size"`
	Inputs    map[string]WarmupInputSetting  `json:"inputs"`
}

// Config is the declared model configuration fields this core reads. It
// intentionally carries no on-disk format or broader schema — only what
// Normalize, the Request builder, and warmup generation consume.
type Config struct {
	// Name is the model's name.
	Name string `json:"name"`
	// MaxBatchSize is the maximum batch size the model supports; 0 means
	// the model does not declare batching.
	MaxBatchSize uint32 `json:"max_batch_size"`
	// MaxPriorityLevel is the highest priority value callers may request.
	MaxPriorityLevel uint32 `json:"max_priority_level"`
	// DefaultPriorityLevel is substituted for priority 0 or out-of-range
	// priority values.
	DefaultPriorityLevel uint32 `json:"default_priority_level"`
	// Inputs are the model's declared input tensors.
	Inputs []Input `json:"input"`
	// Outputs are the model's declared output tensors.
	Outputs []Output `json:"output"`
	// Warmup holds the warmup fixtures to synthesize at instance load.
	Warmup []WarmupSetting `json:"model_warmup,omitempty"`
}

// Validate performs basic structural sanity checks on a Config, grounded on
// the caller-facing constraints Normalize assumes already hold (e.g.
// DefaultPriorityLevel must itself be a legal priority).
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("model config: name is required")
	}
	if c.DefaultPriorityLevel > c.MaxPriorityLevel && c.MaxPriorityLevel != 0 {
		return fmt.Errorf("model config %s: default_priority_level %d exceeds max_priority_level %d",
			c.Name, c.DefaultPriorityLevel, c.MaxPriorityLevel)
	}
	seen := make(map[string]bool, len(c.Inputs))
	for _, in := range c.Inputs {
		if seen[in.Name] {
			return fmt.Errorf("model config %s: duplicate input name %q", c.Name, in.Name)
		}
		seen[in.Name] = true
	}
	return nil
}
