package onnxrt

import (
	"fmt"
	"os"

	"github.com/kestrelaudio/wakeengine/pkg/wakeengine"
)

// SessionModel adapts a Session onto wakeengine.Model.
type SessionModel struct {
	session *Session
}

// LoadModel reads an ONNX model file from disk and wraps it in a
// SessionModel bound to the given input/output tensor names. It is what
// every pipeline stage (mel, embedding, per-keyword detector, and any
// ONNXVAD preprocessor) uses to turn a --model flag into a running
// backend.
func LoadModel(env *Env, path, inputName, outputName string) (*SessionModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("onnxrt: reading %s: %w", path, err)
	}
	session, err := env.NewSession(data, inputName, outputName)
	if err != nil {
		return nil, fmt.Errorf("onnxrt: loading %s: %w", path, err)
	}
	return &SessionModel{session: session}, nil
}

// Run implements wakeengine.Model by converting exactly one
// wakeengine.Tensor into an ONNX Runtime tensor, invoking the session,
// and converting the result back.
func (m *SessionModel) Run(inputs []wakeengine.Tensor) ([]wakeengine.Tensor, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("onnxrt: SessionModel.Run expects exactly 1 input tensor, got %d", len(inputs))
	}

	tensor, err := NewTensor(inputs[0].Shape, inputs[0].Data)
	if err != nil {
		return nil, err
	}
	defer tensor.Close()

	output, err := m.session.Run(tensor)
	if err != nil {
		return nil, err
	}
	defer output.Close()

	data, err := output.FloatData()
	if err != nil {
		return nil, err
	}
	shape, err := output.Shape()
	if err != nil {
		return nil, err
	}
	return []wakeengine.Tensor{{Shape: shape, Data: data}}, nil
}

// Close releases the underlying ONNX Runtime session.
func (m *SessionModel) Close() error {
	return m.session.Close()
}
