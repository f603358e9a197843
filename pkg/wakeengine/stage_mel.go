package wakeengine

import (
	"fmt"
	"log/slog"
)

// ringCapacityMultiplier sizes each stage's ring buffer at several windows
// (spec.md §4.1 requires Push to fail rather than grow). The mel stage
// feeds a batch larger than its ring's free space in pieces. The embedding
// and detector stages push each batch whole; after draining, their rings
// hold less than one window, so any batch of up to three windows fits,
// which covers every batch the mel and embedding stages emit.
const ringCapacityMultiplier = 4

// MelStage consumes audio scalars and emits mel-frame scalars (spec.md
// §4.3). It owns a private ring buffer and is driven by exactly one
// goroutine.
type MelStage struct {
	Model        Model
	FrameSamples int
	Scale, Bias  float64
	Input        *HandoffChannel
	Output       *HandoffChannel
	Log          *slog.Logger

	ring *RingBuffer
}

// Run pulls audio batches until the input channel is exhausted, feeding
// the mel model once per full frame and propagating exhaustion downstream
// on exit.
func (s *MelStage) Run() error {
	if s.ring == nil {
		s.ring = NewRingBuffer(ringCapacityMultiplier * s.FrameSamples)
	}
	scratch := make([]float32, s.FrameSamples)
	defer s.Output.SetExhausted(true)

	var pending []float32
	for {
		batch := pending
		if len(batch) == 0 {
			batch = s.Input.Pull()
		}
		if len(batch) == 0 && s.Input.IsExhausted() {
			return nil
		}
		if n := s.ring.Available(); len(batch) > n {
			batch, pending = batch[:n], batch[n:]
		} else {
			pending = nil
		}
		if len(batch) > 0 {
			if err := s.ring.Push(batch); err != nil {
				return fmt.Errorf("mel stage: %w", err)
			}
		}

		for s.ring.Size() >= s.FrameSamples {
			if err := s.ring.Pop(scratch, s.FrameSamples); err != nil {
				return fmt.Errorf("mel stage: %w", err)
			}

			outputs, err := s.Model.Run([]Tensor{{
				Shape: []int64{1, int64(s.FrameSamples)},
				Data:  scratch,
			}})
			if err != nil {
				return fmt.Errorf("mel stage: inference: %w", err)
			}
			if len(outputs) == 0 {
				return fmt.Errorf("mel stage: %w: model returned no outputs", ErrShapeViolation)
			}

			mel := outputs[0].Data
			if len(mel) == 0 || len(mel)%NumMels != 0 {
				return fmt.Errorf("mel stage: %w: got %d elements, want positive multiple of %d",
					ErrShapeViolation, len(mel), NumMels)
			}

			scaled := make([]float32, len(mel))
			scale, bias := float32(s.Scale), float32(s.Bias)
			for i, v := range mel {
				scaled[i] = v*scale + bias
			}

			if s.Log != nil {
				s.Log.Debug("mel stage: inference", "frames", len(mel)/NumMels)
			}
			s.Output.Push(scaled)
		}
	}
}
