package wakeengine

import (
	"testing"
	"time"
)

// TestDetectorStageInvocationCount verifies spec.md §8 property 3: for an
// embedding stream of e vectors with e >= 16, the detector invokes its
// model exactly e-15 times.
func TestDetectorStageInvocationCount(t *testing.T) {
	const e = 20

	model := newCountingModel(1, 0)
	in := NewHandoffChannel()
	sink := &recordingSink{}
	stage := &DetectorStage{
		Config: DetectorConfig{Keyword: "test", Threshold: 0.5, TriggerLevel: 4, RefractorySteps: 20},
		Model:  model,
		Input:  in,
		Sink:   sink,
	}

	done := make(chan error, 1)
	go func() { done <- stage.Run() }()

	in.Push(make([]float32, e*EmbeddingFeatures))
	in.SetExhausted(true)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("detector stage did not exit")
	}

	if want := e - (WakewordFeatures - 1); model.Calls() != want {
		t.Fatalf("model invoked %d times, want %d", model.Calls(), want)
	}
}

// TestDetectorStageTriggersAtLevel drives the activation state machine
// directly with a scripted probability sequence and checks that a
// detection fires exactly when the run of above-threshold predictions
// reaches triggerLevel.
func TestDetectorStageTriggersAtLevel(t *testing.T) {
	sink := &recordingSink{}
	stage := &DetectorStage{
		Config: DetectorConfig{Keyword: "test", Threshold: 0.5, TriggerLevel: 4, RefractorySteps: 20},
		Sink:   sink,
	}

	for i := 0; i < 3; i++ {
		if err := stage.processPrediction(0.9); err != nil {
			t.Fatal(err)
		}
	}
	if len(sink.events) != 0 {
		t.Fatalf("fired before reaching trigger level: %d events", len(sink.events))
	}
	if err := stage.processPrediction(0.9); err != nil {
		t.Fatal(err)
	}
	if len(sink.events) != 1 {
		t.Fatalf("expected exactly 1 event at trigger level, got %d", len(sink.events))
	}
	if stage.activationCount != -20 {
		t.Fatalf("activationCount after trigger = %d, want -20", stage.activationCount)
	}
}

// TestDetectorStageRefractoryBound verifies spec.md §8 property 4: within
// refractorySteps+triggerLevel consecutive predictions after a detection,
// at most one further detection is emitted.
func TestDetectorStageRefractoryBound(t *testing.T) {
	const triggerLevel = 4
	const refractory = 20

	sink := &recordingSink{}
	stage := &DetectorStage{
		Config: DetectorConfig{Keyword: "test", Threshold: 0.5, TriggerLevel: triggerLevel, RefractorySteps: refractory},
		Sink:   sink,
	}

	for i := 0; i < triggerLevel; i++ {
		stage.processPrediction(0.9)
	}
	if len(sink.events) != 1 {
		t.Fatalf("expected 1 event after initial trigger run, got %d", len(sink.events))
	}

	for i := 0; i < refractory+triggerLevel-1; i++ {
		stage.processPrediction(0.9)
	}
	if len(sink.events) != 1 {
		t.Fatalf("second trigger fired too early: %d events after %d more above-threshold predictions", len(sink.events), refractory+triggerLevel-1)
	}
}

// TestDetectorStageRefractoryThenRetrigger checks that once refractory
// steps have elapsed a fresh run of triggerLevel above-threshold
// predictions can fire again.
func TestDetectorStageRefractoryThenRetrigger(t *testing.T) {
	const triggerLevel = 4
	const refractory = 20

	sink := &recordingSink{}
	stage := &DetectorStage{
		Config: DetectorConfig{Keyword: "test", Threshold: 0.5, TriggerLevel: triggerLevel, RefractorySteps: refractory},
		Sink:   sink,
	}

	for i := 0; i < triggerLevel; i++ {
		stage.processPrediction(0.9)
	}
	for i := 0; i < refractory; i++ {
		stage.processPrediction(0.9)
	}
	for i := 0; i < triggerLevel; i++ {
		stage.processPrediction(0.9)
	}

	if len(sink.events) != 2 {
		t.Fatalf("expected 2 events after refractory elapsed and a fresh run, got %d", len(sink.events))
	}
}

type recordingSink struct {
	events []DetectionEvent
}

func (s *recordingSink) Emit(ev DetectionEvent) error {
	s.events = append(s.events, ev)
	return nil
}
