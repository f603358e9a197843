// Package wakeengine implements a real-time wake-word detection pipeline
// over raw 16 kHz S16LE mono PCM audio.
//
// The pipeline runs three cascaded inference stages concurrently: a mel
// spectrogram stage, a speech embedding stage, and one keyword detector
// stage per configured wake word. Stages are connected by unbounded handoff
// channels and each accumulates its input into a private ring buffer,
// running inference whenever the ring holds a full sliding window.
//
// # Architecture
//
//	audio bytes --> Pipeline.PushAudio --> [audio channel]
//	  --> Mel Stage --> [mel channel]
//	  --> Embedding Stage --> [embedding channel] x N (fan-out)
//	  --> Detector Stage x N --> Sink
//
// Model execution is abstracted behind the [Model] interface; this package
// contains no inference code of its own. See package onnxrt for a concrete
// ONNX Runtime-backed implementation.
package wakeengine
