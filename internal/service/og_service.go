package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/fleveque/og-service/internal/model"
	"github.com/fleveque/og-service/internal/render"
)

// ErrRenderTimeout is returned when a preview isn't ready within the render deadline.
// Crawlers give up after a few seconds anyway, so a late image is a failed image.
var ErrRenderTimeout = errors.New("render deadline exceeded")

// recordQueueSize bounds how many render log rows may wait for the writer.
const recordQueueSize = 256

// RenderRecorder persists diagnostic render records.
// storage.RenderRepository satisfies it.
type RenderRecorder interface {
	Create(ctx context.Context, record *model.RenderRecord) error
}

// RenderResult is a finished preview.
type RenderResult struct {
	PNG        []byte
	Provenance model.Provenance
	Duration   time.Duration
}

// Options bounds how long and how many renders may run.
type Options struct {
	Timeout       time.Duration
	MaxConcurrent int
}

// OGService runs the preview pipeline:
//
//	Resolving   — load the requester photo, or the default one
//	Compositing — draw the card on a fresh canvas
//	Encoding    — PNG + optional libvips optimisation
//
// Each call gets its own canvas and image, so renders share nothing but the
// concurrency limit and the parsed fonts.
type OGService struct {
	resolver   *ImageResolver
	compositor *render.Compositor
	newCanvas  render.RasterizerFactory
	encoder    *Encoder
	slots      *semaphore.Weighted
	timeout    time.Duration
	recorder   RenderRecorder // nil if the render log is disabled
	logger     *zap.Logger

	// Render log rows go through a buffered channel to one writer goroutine,
	// so a slow SQLite insert never delays a response.
	records chan model.RenderRecord
	mu      sync.RWMutex // guards closed against sends on a closed channel
	closed  bool
	writer  sync.WaitGroup
}

// NewOGService wires the pipeline. recorder can be nil. When it isn't, call
// Close on shutdown to flush pending render log rows.
func NewOGService(
	resolver *ImageResolver,
	compositor *render.Compositor,
	newCanvas render.RasterizerFactory,
	encoder *Encoder,
	opts Options,
	recorder RenderRecorder,
	logger *zap.Logger,
) *OGService {
	s := &OGService{
		resolver:   resolver,
		compositor: compositor,
		newCanvas:  newCanvas,
		encoder:    encoder,
		slots:      semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		timeout:    opts.Timeout,
		recorder:   recorder,
		logger:     logger,
	}

	if recorder != nil {
		s.records = make(chan model.RenderRecord, recordQueueSize)
		s.writer.Add(1)
		go s.writeRecords()
	}
	return s
}

// Close stops accepting render log rows and waits until queued ones are written.
// Render keeps working afterwards; it just stops recording.
func (s *OGService) Close() {
	if s.records == nil {
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.records)
	s.mu.Unlock()

	s.writer.Wait()
}

// outcome is what the render goroutine hands back.
type outcome struct {
	png        []byte
	provenance model.Provenance
	stage      model.RenderStage
	err        error
}

// Render produces the PNG for req, or an error. It never returns a partial image.
func (s *OGService) Render(ctx context.Context, req model.RenderRequest) (*RenderResult, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// Acquire blocks until a slot frees up or the deadline passes.
	if err := s.slots.Acquire(ctx, 1); err != nil {
		s.record(req, outcome{stage: model.StageExtracting}, time.Since(start))
		return nil, fmt.Errorf("%w: waiting for a render slot", stopReason(ctx))
	}

	// The pipeline runs in its own goroutine so the caller can stop waiting at
	// the deadline. CPU work can't be interrupted, so the slot is released only
	// when the goroutine really finishes.
	done := make(chan outcome, 1)
	go func() {
		defer s.slots.Release(1)
		done <- s.run(req)
	}()

	select {
	case out := <-done:
		elapsed := time.Since(start)
		s.record(req, out, elapsed)
		if out.err != nil {
			return nil, out.err
		}
		s.logger.Debug("rendered preview",
			zap.String("blood_group", req.BloodGroup),
			zap.String("provenance", string(out.provenance)),
			zap.Int("bytes", len(out.png)),
			zap.Duration("duration", elapsed),
		)
		return &RenderResult{PNG: out.png, Provenance: out.provenance, Duration: elapsed}, nil

	case <-ctx.Done():
		s.record(req, outcome{stage: model.StageCompositing}, time.Since(start))
		return nil, stopReason(ctx)
	}
}

// stopReason tells a missed deadline apart from a caller that went away.
// Only the first is a render timeout.
func stopReason(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrRenderTimeout, ctx.Err())
	}
	return fmt.Errorf("render abandoned: %w", ctx.Err())
}

// run is the straight-line pipeline. A panic in a drawing library would
// otherwise kill the process, since gin's recovery only covers the handler goroutine.
func (s *OGService) run(req model.RenderRequest) (out outcome) {
	out.stage = model.StageResolving
	defer func() {
		if p := recover(); p != nil {
			out.png = nil
			out.err = fmt.Errorf("panic while %s: %v", out.stage, p)
		}
	}()

	photo, err := s.resolver.Resolve(req.ProfileImageRef)
	if err != nil {
		out.err = err
		return out
	}
	out.provenance = photo.Provenance

	out.stage = model.StageCompositing
	canvas := s.newCanvas(model.CanvasWidth, model.CanvasHeight)
	s.compositor.Compose(canvas, req, photo)

	out.stage = model.StageEncoding
	data, err := s.encoder.Encode(canvas)
	if err != nil {
		out.err = err
		return out
	}

	out.stage = model.StageResponded
	out.png = data
	return out
}

// record queues a render log row. A full queue drops the row:
// the log must never cost a crawler its preview.
func (s *OGService) record(req model.RenderRequest, out outcome, elapsed time.Duration) {
	if s.recorder == nil {
		return
	}

	status := model.StatusOK
	if out.err != nil || out.png == nil {
		status = model.StatusFailed
	}

	rec := model.RenderRecord{
		BloodGroup: req.BloodGroup,
		Provenance: out.provenance,
		Status:     status,
		Stage:      out.stage,
		DurationMs: elapsed.Milliseconds(),
		Bytes:      int64(len(out.png)),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}

	// select with default never blocks.
	select {
	case s.records <- rec:
	default:
		s.logger.Warn("render log queue full, dropping record",
			zap.String("status", string(rec.Status)))
	}
}

// writeRecords is the single render log writer.
func (s *OGService) writeRecords() {
	defer s.writer.Done()

	for rec := range s.records {
		// Each write gets its own budget, independent of any request.
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		if err := s.recorder.Create(ctx, &rec); err != nil {
			s.logger.Warn("recording render", zap.Error(err))
		}
		cancel()
	}
}
