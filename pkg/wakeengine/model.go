package wakeengine

import "fmt"

// Tensor is a dense float32 tensor passed to and from a Model. It carries
// no backend-specific state; concrete Model implementations are
// responsible for translating to and from their own representation.
type Tensor struct {
	Shape []int64
	Data  []float32
}

// Elements returns the number of scalars the tensor's shape implies.
func (t Tensor) Elements() int64 {
	n := int64(1)
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// Model is the opaque neural inference backend each pipeline stage runs
// against (spec.md §4.6). The pipeline never inspects model internals: it
// builds an input Tensor of a stage-declared shape, calls Run, and
// validates only the returned element count.
type Model interface {
	Run(inputs []Tensor) ([]Tensor, error)
}

// BatchModel is an optional capability a Model may additionally implement
// to accept several stage invocations at once. The stages in this package
// always call with batch size 1, so BatchModel is never required.
type BatchModel interface {
	Model
	RunBatch(inputs []Tensor) ([]Tensor, error)
}

// ErrShapeViolation is returned (wrapped with detail) when a model's
// output element count is incompatible with what the calling stage
// expects. Per spec.md §7 this is always fatal.
var ErrShapeViolation = fmt.Errorf("wakeengine: model output shape violation")

// Loader loads a Model from a file path. pkg/onnxrt's LoadModel does not
// have this signature (it also takes an Env and the input/output tensor
// names); a closure over those adapts it. NewPipeline takes already-loaded
// Models, not a Loader.
type Loader func(path string) (Model, error)
