package wakeengine

import "sync"

// countingModel returns a fixed-shape, deterministic output tensor on
// every call and records how many times it was invoked. Useful for
// checking exact-invocation-count invariants (spec.md §8, properties
// 1-3) without a real .onnx model file.
type countingModel struct {
	mu        sync.Mutex
	calls     int
	outputLen int
	fill      float32
}

func newCountingModel(outputLen int, fill float32) *countingModel {
	return &countingModel{outputLen: outputLen, fill: fill}
}

func (m *countingModel) Run(inputs []Tensor) ([]Tensor, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	out := make([]float32, m.outputLen)
	for i := range out {
		out[i] = m.fill
	}
	return []Tensor{{Shape: []int64{int64(m.outputLen)}, Data: out}}, nil
}

func (m *countingModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// scriptedModel returns one predetermined output value in sequence per
// call, cycling once the script is exhausted. Used to drive a
// DetectorStage's activation state machine through a specific
// probability sequence.
type scriptedModel struct {
	mu     sync.Mutex
	script []float32
	pos    int
}

func newScriptedModel(script []float32) *scriptedModel {
	return &scriptedModel{script: script}
}

func (m *scriptedModel) Run(inputs []Tensor) ([]Tensor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.script) == 0 {
		return []Tensor{{Shape: []int64{1}, Data: []float32{0}}}, nil
	}
	v := m.script[m.pos%len(m.script)]
	m.pos++
	return []Tensor{{Shape: []int64{1}, Data: []float32{v}}}, nil
}
