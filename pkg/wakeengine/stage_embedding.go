package wakeengine

import (
	"fmt"
	"log/slog"
)

// EmbeddingStage consumes mel scalars and fans out identical embedding
// vectors to every detector channel (spec.md §4.4). Fan-out is by value:
// each detector receives its own copy. HandoffChannel.Push never blocks,
// so a slow detector's channel queues vectors without slowing the
// embedding stage or the other detectors.
type EmbeddingStage struct {
	Model  Model
	Input  *HandoffChannel
	Output []*HandoffChannel
	Log    *slog.Logger

	ring *RingBuffer
}

const embeddingWindowScalars = EmbeddingWindowSize * NumMels
const embeddingStepScalars = EmbeddingStepSize * NumMels

// Run pulls mel batches until the input channel is exhausted, invoking the
// embedding model once per sliding window and propagating exhaustion to
// every output channel on exit.
func (s *EmbeddingStage) Run() error {
	if s.ring == nil {
		s.ring = NewRingBuffer(ringCapacityMultiplier * embeddingWindowScalars)
	}
	window := make([]float32, embeddingWindowScalars)
	defer func() {
		for _, out := range s.Output {
			out.SetExhausted(true)
		}
	}()

	for {
		batch := s.Input.Pull()
		if len(batch) == 0 && s.Input.IsExhausted() {
			return nil
		}
		if len(batch) > 0 {
			if err := s.ring.Push(batch); err != nil {
				return fmt.Errorf("embedding stage: %w", err)
			}
		}

		for s.ring.Size()/NumMels >= EmbeddingWindowSize {
			if err := s.ring.Peek(window, embeddingWindowScalars, 0); err != nil {
				return fmt.Errorf("embedding stage: %w", err)
			}

			outputs, err := s.Model.Run([]Tensor{{
				Shape: []int64{1, EmbeddingWindowSize, NumMels, 1},
				Data:  window,
			}})
			if err != nil {
				return fmt.Errorf("embedding stage: inference: %w", err)
			}
			if len(outputs) == 0 || len(outputs[0].Data) != EmbeddingFeatures {
				got := 0
				if len(outputs) > 0 {
					got = len(outputs[0].Data)
				}
				return fmt.Errorf("embedding stage: %w: got %d elements, want %d",
					ErrShapeViolation, got, EmbeddingFeatures)
			}

			if s.Log != nil {
				s.Log.Debug("embedding stage: inference", "fanout", len(s.Output))
			}

			for _, out := range s.Output {
				vec := make([]float32, EmbeddingFeatures)
				copy(vec, outputs[0].Data)
				out.Push(vec)
			}

			if err := s.ring.Skip(embeddingStepScalars); err != nil {
				return fmt.Errorf("embedding stage: %w", err)
			}
		}
	}
}
