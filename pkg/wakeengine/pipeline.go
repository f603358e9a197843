package wakeengine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Preprocessor mutates a batch of raw audio scalars in place before it
// enters the mel stage (spec.md §4.7). Implementations must be safe to
// call from the single goroutine that owns Pipeline.PushAudio; a Pipeline
// never calls a Preprocessor concurrently with itself.
type Preprocessor interface {
	Process(samples []float32)
}

// Pipeline wires the mel, embedding, and per-keyword detector stages into
// one running graph, following the staged-goroutine topology and
// readiness-barrier startup of spec.md §5.
type Pipeline struct {
	config EngineConfig
	log    *slog.Logger

	audioIn   *HandoffChannel
	melOut    *HandoffChannel
	detectors []*DetectorStage
	detectOut []*HandoffChannel

	melStage       *MelStage
	embeddingStage *EmbeddingStage

	pool          *ScratchPool
	preprocessors []Preprocessor

	readyMu  sync.Mutex
	readyCv  *sync.Cond
	ready    int
	expected int

	wg      sync.WaitGroup
	stopped bool
	mu      sync.Mutex

	// errs collects the first error returned by each stage goroutine.
	errs   []error
	errsMu sync.Mutex
}

// NewPipeline constructs a Pipeline from a validated config, the three
// model roles it needs, and the sink detection events are emitted to.
// detectorModels must have the same length and order as config.Detectors.
// debug may be nil; when non-nil, every prediction (not only triggers) is
// recorded to it.
func NewPipeline(config EngineConfig, melModel, embeddingModel Model, detectorModels []Model, sink Sink, debug *DebugWriter, log *slog.Logger) (*Pipeline, error) {
	if len(detectorModels) != len(config.Detectors) {
		return nil, fmt.Errorf("wakeengine: got %d detector models for %d configured detectors",
			len(detectorModels), len(config.Detectors))
	}
	if log == nil {
		log = slog.Default()
	}

	p := &Pipeline{
		config:   config,
		log:      log,
		audioIn:  NewHandoffChannel(),
		melOut:   NewHandoffChannel(),
		expected: 2 + len(config.Detectors),
		pool:     NewScratchPool(config.ScratchPoolSize, config.FrameSamples()),
	}
	p.readyCv = sync.NewCond(&p.readyMu)

	p.melStage = &MelStage{
		Model:        melModel,
		FrameSamples: config.FrameSamples(),
		Scale:        config.MelScale,
		Bias:         config.MelBias,
		Input:        p.audioIn,
		Output:       p.melOut,
		Log:          log.With("stage", "mel"),
	}

	p.detectOut = make([]*HandoffChannel, len(config.Detectors))
	for i := range p.detectOut {
		p.detectOut[i] = NewHandoffChannel()
	}

	p.embeddingStage = &EmbeddingStage{
		Model:  embeddingModel,
		Input:  p.melOut,
		Output: p.detectOut,
		Log:    log.With("stage", "embedding"),
	}

	p.detectors = make([]*DetectorStage, len(config.Detectors))
	for i, dc := range config.Detectors {
		d := dc
		p.detectors[i] = &DetectorStage{
			Config: d,
			Model:  detectorModels[i],
			Input:  p.detectOut[i],
			Sink:   sink,
			Debug:  debug,
			Log:    log.With("stage", "detector", "keyword", d.Keyword),
		}
	}

	return p, nil
}

// AddPreprocessor registers a preprocessor to run, in registration order,
// on every batch passed to PushAudio (spec.md §4.7). Must be called
// before Start.
func (p *Pipeline) AddPreprocessor(pp Preprocessor) {
	p.preprocessors = append(p.preprocessors, pp)
}

func (p *Pipeline) incrementReady() {
	p.readyMu.Lock()
	p.ready++
	p.readyCv.Broadcast()
	p.readyMu.Unlock()
}

// WaitUntilReady blocks until every stage goroutine has started, or ctx is
// canceled first.
func (p *Pipeline) WaitUntilReady(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.readyMu.Lock()
		for p.ready < p.expected {
			p.readyCv.Wait()
		}
		p.readyMu.Unlock()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipeline) runStage(name string, fn func() error) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.incrementReady()
		if err := fn(); err != nil {
			p.errsMu.Lock()
			p.errs = append(p.errs, fmt.Errorf("%s: %w", name, err))
			p.errsMu.Unlock()
			p.log.Error("stage exited with error", "stage", name, "error", err)
		}
	}()
}

// Start launches one goroutine per stage: the mel stage, the embedding
// stage, and one per configured detector (spec.md §5).
func (p *Pipeline) Start() {
	p.runStage("mel", p.melStage.Run)
	p.runStage("embedding", p.embeddingStage.Run)
	for _, d := range p.detectors {
		d := d
		p.runStage("detector:"+d.Config.Keyword, d.Run)
	}
}

// PushAudio converts raw little-endian S16 PCM into pooled float32 scratch
// buffers and hands them to the mel stage in order. pcm may hold any
// number of bytes; it is split into FrameSamples-sized pieces (the final
// piece may be shorter) so no sample is ever silently dropped, mirroring
// the per-frame contract of the reader that feeds it. Concurrent calls
// are serialized. PushAudio is a no-op once the pipeline has been stopped.
func (p *Pipeline) PushAudio(pcm []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}

	frameBytes := p.config.FrameSamples() * 2
	for offset := 0; offset < len(pcm); offset += frameBytes {
		end := offset + frameBytes
		if end > len(pcm) {
			end = len(pcm)
		}
		p.pushFrame(pcm[offset:end])
	}
}

// pushFrame converts and forwards one FrameSamples-or-smaller chunk of
// PCM through the registered preprocessors and into the mel stage.
func (p *Pipeline) pushFrame(pcm []byte) {
	full := p.pool.Borrow()
	n := ConvertS16LEToFloat32(pcm, full)
	active := full[:n]

	for _, pp := range p.preprocessors {
		pp.Process(active)
	}

	batch := make([]float32, n)
	copy(batch, active)
	p.pool.Return(full)

	p.audioIn.Push(batch)
}

// Stop signals end-of-stream on the audio input and waits for every stage
// goroutine to exit. Stages are not joined in any particular order:
// marking audioIn exhausted lets each stage's own Run loop propagate
// SetExhausted to its own output channel(s) once its input drains, so
// exhaustion cascades hop by hop through the mel -> embedding -> detector
// graph on its own, in the order spec.md §5 mandates, without Stop having
// to sequence the joins itself.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	p.mu.Unlock()

	p.audioIn.SetExhausted(true)
	p.wg.Wait()

	p.errsMu.Lock()
	defer p.errsMu.Unlock()
	if len(p.errs) > 0 {
		return p.errs[0]
	}
	return nil
}
