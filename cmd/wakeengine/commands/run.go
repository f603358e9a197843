package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kestrelaudio/wakeengine/internal/build"
	"github.com/kestrelaudio/wakeengine/pkg/onnxrt"
	"github.com/kestrelaudio/wakeengine/pkg/wakeengine"
	"github.com/kestrelaudio/wakeengine/pkg/wsaudio"
)

func runEngine(cmd *cobra.Command, args []string) error {
	if versionFlag {
		fmt.Println(build.String())
		return nil
	}

	cfg, err := loadEngineConfig(cmd)
	if err != nil {
		return &wakeengine.ConfigError{Msg: err.Error()}
	}

	if listModelsFlag {
		printModelList(cfg)
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	level := slog.LevelInfo
	if verboseFlag {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	env, err := onnxrt.NewEnv("wakeengine")
	if err != nil {
		return fmt.Errorf("initializing inference backend: %w", err)
	}
	defer env.Close()

	melModel, err := onnxrt.LoadModel(env, cfg.MelModelPath, "input", "output")
	if err != nil {
		return fmt.Errorf("loading mel spectrogram model: %w", err)
	}
	log.Info("loaded mel spectrogram model", "path", cfg.MelModelPath)

	embModel, err := onnxrt.LoadModel(env, cfg.EmbeddingModelPath, "input", "output")
	if err != nil {
		return fmt.Errorf("loading embedding model: %w", err)
	}
	log.Info("loaded embedding model", "path", cfg.EmbeddingModelPath)

	detectorModels := make([]wakeengine.Model, len(cfg.Detectors))
	for i, d := range cfg.Detectors {
		m, err := onnxrt.LoadModel(env, d.ModelPath, "input", "output")
		if err != nil {
			return fmt.Errorf("loading keyword model %q: %w", d.Keyword, err)
		}
		detectorModels[i] = m
		log.Info("loaded wake word model", "keyword", d.Keyword, "path", d.ModelPath)
	}

	sink := outputSink(cfg)
	var debug *wakeengine.DebugWriter
	if cfg.Debug {
		debug = wakeengine.NewDebugWriter(os.Stderr)
	}

	pipeline, err := wakeengine.NewPipeline(cfg, melModel, embModel, detectorModels, sink, debug, log)
	if err != nil {
		return err
	}

	if cfg.EnableVAD {
		if cfg.VADModelPath != "" {
			vadModel, err := onnxrt.LoadModel(env, cfg.VADModelPath, "input", "output")
			if err != nil {
				return fmt.Errorf("loading VAD model: %w", err)
			}
			pipeline.AddPreprocessor(&wakeengine.ONNXVAD{Model: vadModel, Threshold: cfg.VADThreshold})
			log.Info("loaded VAD model", "path", cfg.VADModelPath)
		} else {
			pipeline.AddPreprocessor(&wakeengine.EnergyVAD{Threshold: cfg.VADThreshold})
		}
	}
	if cfg.EnableNoiseSuppression {
		pipeline.AddPreprocessor(wakeengine.NoiseSuppressor{})
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down")
		cancel()
	}()

	pipeline.Start()
	if err := pipeline.WaitUntilReady(ctx); err != nil {
		pipeline.Stop()
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	if cfg.OutputMode != wakeengine.OutputQuiet {
		log.Info("ready")
	}

	if bannerFlag && cfg.OutputMode != wakeengine.OutputQuiet {
		printBanner(cfg)
	}

	if cfg.ListenAddr != "" {
		srv := &wsaudio.Server{Addr: cfg.ListenAddr, Pipeline: pipeline, Log: log}
		go func() {
			if err := srv.ListenAndServe(ctx); err != nil {
				log.Error("audio websocket server exited", "error", err)
			}
		}()
	}

	readStdin(ctx, cfg, pipeline, log)

	return pipeline.Stop()
}

// readStdin runs the standard-input audio ingest loop, reading whole
// FRAME_SAMPLES*2 byte chunks until EOF or ctx is canceled (spec.md §6).
func readStdin(ctx context.Context, cfg wakeengine.EngineConfig, pipeline *wakeengine.Pipeline, log *slog.Logger) {
	chunk := make([]byte, cfg.FrameSamples()*2)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := io.ReadFull(os.Stdin, chunk)
		if n > 0 {
			pipeline.PushAudio(chunk[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				log.Error("audio read error", "error", err)
			}
			return
		}
	}
}

func outputSink(cfg wakeengine.EngineConfig) wakeengine.Sink {
	switch cfg.OutputMode {
	case wakeengine.OutputJSON:
		return wakeengine.NewJSONSink(os.Stdout, cfg.ShowTimestamp)
	case wakeengine.OutputQuiet:
		return wakeengine.NewLineSink(io.Discard, cfg.ShowTimestamp)
	default:
		return wakeengine.NewLineSink(os.Stdout, cfg.ShowTimestamp)
	}
}

func printModelList(cfg wakeengine.EngineConfig) {
	fmt.Printf("%-20s %-40s %-10s %-8s %-10s\n", "KEYWORD", "MODEL", "THRESHOLD", "TRIGGER", "REFRACTORY")
	for _, d := range cfg.Detectors {
		fmt.Printf("%-20s %-40s %-10.2f %-8d %-10d\n", d.Keyword, d.ModelPath, d.Threshold, d.TriggerLevel, d.RefractorySteps)
	}
}
