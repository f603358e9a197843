package wakeengine

// Signal-processing constants fixed by the pretrained model family. These
// are not user-tunable; changing them requires matching retrained models.
const (
	// SampleRate is the only audio sample rate this engine accepts.
	SampleRate = 16000

	// ChunkSamples is 80 ms of audio at SampleRate.
	ChunkSamples = 1280

	// NumMels is the mel-spectrogram band count per 10 ms mel frame.
	NumMels = 32

	// EmbeddingWindowSize is the number of consecutive mel frames (775 ms)
	// the embedding model consumes per invocation.
	EmbeddingWindowSize = 76

	// EmbeddingStepSize is the mel-frame slide between consecutive
	// embedding windows (80 ms).
	EmbeddingStepSize = 8

	// EmbeddingFeatures is the width of one embedding vector.
	EmbeddingFeatures = 96

	// WakewordFeatures is the number of consecutive embedding vectors a
	// keyword detector consumes per invocation.
	WakewordFeatures = 16

	// MinStepFrames and MaxStepFrames bound the --step-frames flag.
	MinStepFrames = 1
	MaxStepFrames = 16

	// DefaultStepFrames yields a 320 ms mel-model input frame.
	DefaultStepFrames = 4

	// DefaultThreshold, DefaultTriggerLevel and DefaultRefractorySteps are
	// the detector defaults from spec.md §6.
	DefaultThreshold       = 0.5
	DefaultTriggerLevel    = 4
	DefaultRefractorySteps = 20

	// DefaultMelScale and DefaultMelBias implement the mel stage's affine
	// rescaling x <- x*Scale + Bias, matching the pretrained embedding
	// model's expected input distribution. Kept configurable per spec.md
	// §9's open question about whether this is family-specific.
	DefaultMelScale = 0.1
	DefaultMelBias  = 2.0

	// DefaultScratchPoolSize is the number of pre-allocated audio scratch
	// buffers the host keeps ready (spec.md §5, shared resource (b)).
	DefaultScratchPoolSize = 4
)

// FrameSamples returns the audio-stage frame length for the given step
// count: FRAME_SAMPLES = stepFrames * ChunkSamples.
func FrameSamples(stepFrames int) int {
	return stepFrames * ChunkSamples
}
