package wakeengine

import (
	"testing"
	"time"
)

// TestMelStageInvocationCount verifies spec.md §8 property 1: for any
// input prefix of k*FRAME_SAMPLES audio samples, the mel stage invokes
// its model exactly k times.
func TestMelStageInvocationCount(t *testing.T) {
	const frameSamples = 128
	const k = 5

	model := newCountingModel(5*NumMels, 0.5)
	in := NewHandoffChannel()
	out := NewHandoffChannel()
	stage := &MelStage{Model: model, FrameSamples: frameSamples, Scale: 1, Bias: 0, Input: in, Output: out}

	done := make(chan error, 1)
	go func() { done <- stage.Run() }()

	batch := make([]float32, k*frameSamples)
	for i := range batch {
		batch[i] = float32(i)
	}
	in.Push(batch)
	in.SetExhausted(true)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("mel stage did not exit")
	}

	if got := model.Calls(); got != k {
		t.Fatalf("model invoked %d times, want %d", got, k)
	}
	// IsExhausted reports true only once the queue is drained.
	for len(out.Pull()) > 0 {
	}
	if !out.IsExhausted() {
		t.Fatal("output channel not marked exhausted")
	}
}

// TestMelStageResidualDiscarded checks the invariant that a residual
// shorter than one frame produces no invocation.
func TestMelStageResidualDiscarded(t *testing.T) {
	const frameSamples = 128

	model := newCountingModel(5*NumMels, 0)
	in := NewHandoffChannel()
	out := NewHandoffChannel()
	stage := &MelStage{Model: model, FrameSamples: frameSamples, Scale: 1, Bias: 0, Input: in, Output: out}

	done := make(chan error, 1)
	go func() { done <- stage.Run() }()

	in.Push(make([]float32, frameSamples-1))
	in.SetExhausted(true)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("mel stage did not exit")
	}

	if got := model.Calls(); got != 0 {
		t.Fatalf("model invoked %d times, want 0", got)
	}
}

func TestMelStageAppliesAffineScaling(t *testing.T) {
	const frameSamples = 32
	model := newCountingModel(NumMels, 10)
	in := NewHandoffChannel()
	out := NewHandoffChannel()
	stage := &MelStage{Model: model, FrameSamples: frameSamples, Scale: 2, Bias: 3, Input: in, Output: out}

	go stage.Run()
	in.Push(make([]float32, frameSamples))
	in.SetExhausted(true)

	got := out.Pull()
	if len(got) != NumMels {
		t.Fatalf("output length = %d, want %d", len(got), NumMels)
	}
	want := float32(10*2 + 3)
	if got[0] != want {
		t.Fatalf("scaled value = %v, want %v", got[0], want)
	}
}
