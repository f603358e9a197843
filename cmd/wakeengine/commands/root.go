// Package commands implements the wakeengine command-line surface: flag
// parsing, YAml config-file merging, and the main audio-ingest loop.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kestrelaudio/wakeengine/pkg/wakeengine"
)

var (
	keywordModels  []string
	threshold      float64
	triggerLevel   int
	refractory     int
	stepFrames     int
	melModelPath   string
	embModelPath   string
	vadThreshold   float64
	vadModelPath   string
	enableNoise    bool
	debugFlag      bool
	quietFlag      bool
	verboseFlag    bool
	jsonFlag       bool
	timestampFlag  bool
	listModelsFlag bool
	versionFlag    bool
	bannerFlag     bool
	listenAddr     string
	configFile     string
)

var rootCmd = &cobra.Command{
	Use:   "wakeengine",
	Short: "Real-time streaming wake-word detection engine",
	Long: `wakeengine reads raw 16 kHz signed-16-bit little-endian mono PCM from
standard input (or a --listen websocket), runs it through a cascaded
mel-spectrogram -> embedding -> keyword-detector inference pipeline, and
prints a line or JSON record to standard output for every detected
keyword.

Examples:
  wakeengine -m hey_kestrel.onnx --melspectrogram-model mel.onnx --embedding-model embedding.onnx < audio.pcm
  wakeengine -c wakeengine.yaml --json --timestamp
  wakeengine -m hey_kestrel.onnx -m ok_falcon.onnx --melspectrogram-model mel.onnx --embedding-model embedding.onnx -t 0.6 -l 5 --banner`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runEngine,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	f := rootCmd.Flags()
	f.StringArrayVarP(&keywordModels, "model", "m", nil, "path to a keyword model (repeatable)")
	f.Float64VarP(&threshold, "threshold", "t", 0, "default per-detector activation threshold [0,1]")
	f.IntVarP(&triggerLevel, "trigger-level", "l", 0, "default number of activations before a detection fires")
	f.IntVarP(&refractory, "refractory", "r", 0, "default number of steps to suppress after a detection")
	f.IntVar(&stepFrames, "step-frames", 0, "audio chunks (80ms each) per mel invocation, 1-16")
	f.StringVar(&melModelPath, "melspectrogram-model", "", "path to the mel spectrogram model")
	f.StringVar(&embModelPath, "embedding-model", "", "path to the embedding model")
	f.Float64Var(&vadThreshold, "vad-threshold", 0, "enable an energy-based VAD pre-filter at this threshold")
	f.StringVar(&vadModelPath, "vad-model", "", "path to a neural VAD model; enables ONNXVAD instead of EnergyVAD")
	f.BoolVar(&enableNoise, "enable-noise-suppression", false, "enable the noise-suppression pre-filter")
	f.BoolVar(&debugFlag, "debug", false, "print per-prediction probabilities to stderr")
	f.BoolVar(&quietFlag, "quiet", false, "suppress detection output")
	f.BoolVar(&verboseFlag, "verbose", false, "raise log verbosity")
	f.BoolVar(&jsonFlag, "json", false, "emit detections as JSON records instead of lines")
	f.BoolVar(&timestampFlag, "timestamp", false, "include a timestamp in detection output")
	f.BoolVar(&listModelsFlag, "list-models", false, "print configured detector models and exit")
	f.BoolVar(&versionFlag, "version", false, "print version information and exit")
	f.BoolVar(&bannerFlag, "banner", false, "print a styled startup banner")
	f.StringVar(&listenAddr, "listen", "", "accept PCM audio over a websocket at this address instead of/besides stdin")
	f.StringVarP(&configFile, "config", "c", "", "load options from a YAML file (explicit flags win)")
}

// loadEngineConfig merges an optional YAML config file with explicitly
// set flags, flags winning, per spec.md §6's -c/--config semantics.
func loadEngineConfig(cmd *cobra.Command) (wakeengine.EngineConfig, error) {
	var cfg wakeengine.EngineConfig

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file: %w", err)
		}
		if cfg.VADThreshold > 0 || cfg.VADModelPath != "" {
			cfg.EnableVAD = true
		}
	}

	changed := cmd.Flags().Changed

	if changed("step-frames") {
		cfg.StepFrames = stepFrames
	}
	if changed("melspectrogram-model") {
		cfg.MelModelPath = melModelPath
	}
	if changed("embedding-model") {
		cfg.EmbeddingModelPath = embModelPath
	}
	if changed("vad-threshold") {
		cfg.VADThreshold = vadThreshold
		cfg.EnableVAD = true
	}
	if changed("vad-model") {
		cfg.VADModelPath = vadModelPath
		cfg.EnableVAD = true
	}
	if changed("enable-noise-suppression") {
		cfg.EnableNoiseSuppression = enableNoise
	}
	if changed("debug") {
		cfg.Debug = debugFlag
	}
	if changed("timestamp") {
		cfg.ShowTimestamp = timestampFlag
	}
	if changed("listen") {
		cfg.ListenAddr = listenAddr
	}

	switch {
	case quietFlag:
		cfg.OutputMode = wakeengine.OutputQuiet
	case jsonFlag:
		cfg.OutputMode = wakeengine.OutputJSON
	}

	if len(keywordModels) > 0 {
		cfg.Detectors = make([]wakeengine.DetectorConfig, len(keywordModels))
		for i, path := range keywordModels {
			d := wakeengine.DetectorConfig{
				Keyword:   keywordName(path),
				ModelPath: path,
				Debug:     debugFlag,
			}
			// Leave Threshold/TriggerLevel/RefractorySteps at zero unless
			// explicitly set; WithDefaults fills the spec.md §6 defaults.
			if changed("threshold") {
				d.Threshold = threshold
			}
			if changed("trigger-level") {
				d.TriggerLevel = triggerLevel
			}
			if changed("refractory") {
				d.RefractorySteps = refractory
			}
			cfg.Detectors[i] = d
		}
	} else if changed("threshold") || changed("trigger-level") || changed("refractory") {
		for i := range cfg.Detectors {
			if changed("threshold") {
				cfg.Detectors[i].Threshold = threshold
			}
			if changed("trigger-level") {
				cfg.Detectors[i].TriggerLevel = triggerLevel
			}
			if changed("refractory") {
				cfg.Detectors[i].RefractorySteps = refractory
			}
		}
	}

	cfg = cfg.WithDefaults()
	// WithDefaults treats zero as unset; keep an explicit zero such as -r 0.
	for i := range cfg.Detectors {
		if changed("threshold") {
			cfg.Detectors[i].Threshold = threshold
		}
		if changed("trigger-level") {
			cfg.Detectors[i].TriggerLevel = triggerLevel
		}
		if changed("refractory") {
			cfg.Detectors[i].RefractorySteps = refractory
		}
	}
	return cfg, nil
}

// keywordName derives a detector's display keyword from its model file
// path, e.g. "models/hey_kestrel.onnx" -> "hey_kestrel".
func keywordName(path string) string {
	base := path
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			base = path[i+1:]
			break
		}
	}
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '.' {
			return base[:i]
		}
	}
	return base
}
