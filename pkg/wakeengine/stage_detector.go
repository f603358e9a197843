package wakeengine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const wakewordWindowScalars = WakewordFeatures * EmbeddingFeatures

// DetectorStage consumes embedding scalars for one configured keyword and
// emits detection events through a shared, mutex-guarded Sink (spec.md
// §4.5).
type DetectorStage struct {
	Config DetectorConfig
	Model  Model
	Input  *HandoffChannel
	Sink   Sink
	Debug  *DebugWriter
	Log    *slog.Logger

	ring            *RingBuffer
	activationCount int
}

// Run pulls embedding batches until the input channel is exhausted,
// invoking the keyword model once per sliding window and driving the
// activation state machine on every prediction.
func (d *DetectorStage) Run() error {
	if d.ring == nil {
		d.ring = NewRingBuffer(ringCapacityMultiplier * wakewordWindowScalars)
	}
	window := make([]float32, wakewordWindowScalars)

	for {
		batch := d.Input.Pull()
		if len(batch) == 0 && d.Input.IsExhausted() {
			return nil
		}
		if len(batch) > 0 {
			if err := d.ring.Push(batch); err != nil {
				return fmt.Errorf("detector %q: %w", d.Config.Keyword, err)
			}
		}

		for d.ring.Size()/EmbeddingFeatures >= WakewordFeatures {
			if err := d.ring.Peek(window, wakewordWindowScalars, 0); err != nil {
				return fmt.Errorf("detector %q: %w", d.Config.Keyword, err)
			}

			outputs, err := d.Model.Run([]Tensor{{
				Shape: []int64{1, WakewordFeatures, EmbeddingFeatures},
				Data:  window,
			}})
			if err != nil {
				return fmt.Errorf("detector %q: inference: %w", d.Config.Keyword, err)
			}
			if len(outputs) == 0 || len(outputs[0].Data) == 0 {
				return fmt.Errorf("detector %q: %w: model returned no scalar prediction",
					d.Config.Keyword, ErrShapeViolation)
			}

			p := float64(outputs[0].Data[0])
			if err := d.processPrediction(p); err != nil {
				return err
			}

			if err := d.ring.Skip(EmbeddingFeatures); err != nil {
				return fmt.Errorf("detector %q: %w", d.Config.Keyword, err)
			}
		}
	}
}

// processPrediction runs the activation-debounce state machine described
// in spec.md §4.5 for one prediction p, emitting a detection event when
// the trigger level is reached.
func (d *DetectorStage) processPrediction(p float64) error {
	if d.Debug != nil {
		d.Debug.Record(d.Config.Keyword, p)
	}

	if p > d.Config.Threshold {
		d.activationCount++
		if d.activationCount >= d.Config.TriggerLevel {
			ev := DetectionEvent{
				ID:        uuid.New(),
				Keyword:   d.Config.Keyword,
				Score:     p,
				Timestamp: time.Now(),
			}
			if err := d.Sink.Emit(ev); err != nil {
				return fmt.Errorf("detector %q: emit: %w", d.Config.Keyword, err)
			}
			if d.Log != nil {
				d.Log.Info("detection", "keyword", d.Config.Keyword, "score", p, "id", ev.ID)
			}
			d.activationCount = -d.Config.RefractorySteps
		}
		return nil
	}

	switch {
	case d.activationCount > 0:
		d.activationCount--
	case d.activationCount < 0:
		d.activationCount++
	}
	return nil
}
