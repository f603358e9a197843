package wakeengine

import "fmt"

// ConfigError distinguishes configuration mistakes (bad flags, out-of-range
// values, missing files) from runtime failures, so callers can print usage
// text without a chain of wrapped context (spec.md §7).
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// DetectorConfig configures one keyword detector (spec.md §3).
type DetectorConfig struct {
	Keyword         string  `yaml:"keyword"`
	ModelPath       string  `yaml:"model_path"`
	Threshold       float64 `yaml:"threshold"`
	TriggerLevel    int     `yaml:"trigger_level"`
	RefractorySteps int     `yaml:"refractory_steps"`
	Debug           bool    `yaml:"debug"`
}

// Validate checks the invariants spec.md §3 places on a detector config.
func (c DetectorConfig) Validate() error {
	if c.ModelPath == "" {
		return configErrorf("detector %q: model path is required", c.Keyword)
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return configErrorf("detector %q: threshold %v out of range [0,1]", c.Keyword, c.Threshold)
	}
	if c.TriggerLevel < 1 {
		return configErrorf("detector %q: trigger-level must be >= 1", c.Keyword)
	}
	if c.RefractorySteps < 0 {
		return configErrorf("detector %q: refractory must be >= 0", c.Keyword)
	}
	return nil
}

// OutputMode selects how detection events are rendered to stdout.
type OutputMode int

const (
	OutputLine OutputMode = iota
	OutputJSON
	OutputQuiet
)

// EngineConfig is the fully-resolved configuration for one pipeline run,
// assembled by the CLI from flags, an optional YAML file, and defaults.
type EngineConfig struct {
	StepFrames int `yaml:"step_frames"`

	MelModelPath       string `yaml:"melspectrogram_model"`
	EmbeddingModelPath string `yaml:"embedding_model"`

	Detectors []DetectorConfig `yaml:"detectors"`

	VADThreshold float64 `yaml:"vad_threshold"`
	VADModelPath string   `yaml:"vad_model"`
	EnableVAD    bool     `yaml:"-"`

	EnableNoiseSuppression bool `yaml:"enable_noise_suppression"`

	OutputMode    OutputMode `yaml:"-"`
	ShowTimestamp bool       `yaml:"show_timestamp"`
	Debug         bool       `yaml:"debug"`

	// MelScale and MelBias implement the mel stage's per-element affine
	// rescaling x <- x*MelScale + MelBias (spec.md §4.3). Defaults match
	// the reference pretrained model family; kept overridable per
	// spec.md §9's open question.
	MelScale float64 `yaml:"mel_scale"`
	MelBias  float64 `yaml:"mel_bias"`

	ScratchPoolSize int `yaml:"scratch_pool_size"`

	ListenAddr string `yaml:"listen"`
}

// WithDefaults returns a copy of c with zero-valued fields filled in from
// spec.md §6's documented defaults.
func (c EngineConfig) WithDefaults() EngineConfig {
	if c.StepFrames == 0 {
		c.StepFrames = DefaultStepFrames
	}
	if c.MelScale == 0 {
		c.MelScale = DefaultMelScale
	}
	if c.MelBias == 0 {
		c.MelBias = DefaultMelBias
	}
	if c.ScratchPoolSize == 0 {
		c.ScratchPoolSize = DefaultScratchPoolSize
	}
	for i := range c.Detectors {
		if c.Detectors[i].Threshold == 0 {
			c.Detectors[i].Threshold = DefaultThreshold
		}
		if c.Detectors[i].TriggerLevel == 0 {
			c.Detectors[i].TriggerLevel = DefaultTriggerLevel
		}
		if c.Detectors[i].RefractorySteps == 0 {
			c.Detectors[i].RefractorySteps = DefaultRefractorySteps
		}
	}
	return c
}

// Validate checks the full configuration, matching the checks the
// original config.cpp::validate performs.
func (c EngineConfig) Validate() error {
	if c.StepFrames < MinStepFrames || c.StepFrames > MaxStepFrames {
		return configErrorf("step-frames must be in [%d,%d], got %d", MinStepFrames, MaxStepFrames, c.StepFrames)
	}
	if c.MelModelPath == "" {
		return configErrorf("melspectrogram model path is required")
	}
	if c.EmbeddingModelPath == "" {
		return configErrorf("embedding model path is required")
	}
	if len(c.Detectors) == 0 {
		return configErrorf("at least one wake word model is required (-m/--model)")
	}
	for _, d := range c.Detectors {
		if err := d.Validate(); err != nil {
			return err
		}
	}
	if c.EnableVAD {
		if c.VADThreshold < 0 || c.VADThreshold > 1 {
			return configErrorf("vad-threshold %v out of range [0,1]", c.VADThreshold)
		}
	}
	return nil
}

// FrameSamples returns this config's per-invocation audio frame length.
func (c EngineConfig) FrameSamples() int {
	return FrameSamples(c.StepFrames)
}
