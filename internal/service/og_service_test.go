package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/og-service/internal/model"
	"github.com/fleveque/og-service/internal/render"
)

var testFonts = sync.OnceValues(render.LoadFonts)

type serviceOptions struct {
	opts    Options
	factory func(fonts *render.Fonts) render.RasterizerFactory
}

func newTestService(t *testing.T, f *fixture, rec RenderRecorder, so serviceOptions) *OGService {
	t.Helper()
	fonts, err := testFonts()
	if err != nil {
		t.Fatalf("loading fonts: %v", err)
	}
	if so.opts.Timeout == 0 {
		so.opts.Timeout = 10 * time.Second
	}
	if so.opts.MaxConcurrent == 0 {
		so.opts.MaxConcurrent = 4
	}
	factory := render.NewRasterizerFactory(fonts)
	if so.factory != nil {
		factory = so.factory(fonts)
	}

	svc := NewOGService(
		f.resolver(),
		render.NewCompositor(render.DefaultTheme()),
		factory,
		NewEncoder(EncoderOptions{Optimize: false}),
		so.opts,
		rec,
		zap.NewNop(),
	)
	t.Cleanup(svc.Close)
	return svc
}

func sampleRequest(profile string) model.RenderRequest {
	return model.NewRenderRequest("O+", "Dhaka", "Mirpur", "City Hospital", "Karim", profile)
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	return img
}

func TestRender_Dimensions(t *testing.T) {
	f := newFixture(t)
	svc := newTestService(t, f, nil, serviceOptions{})

	tests := []struct {
		name string
		req  model.RenderRequest
	}{
		{"full request", sampleRequest("")},
		{"every field empty", model.NewRenderRequest("", "", "", "", "", "")},
		{"very long hospital name", model.NewRenderRequest("AB-", "Chattogram", "Pahartali",
			strings.Repeat("Memorial General Hospital ", 20), "A Very Long Requester Name Indeed", "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Render(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			cfg, err := png.DecodeConfig(bytes.NewReader(res.PNG))
			if err != nil {
				t.Fatalf("decoding config: %v", err)
			}
			if cfg.Width != model.CanvasWidth || cfg.Height != model.CanvasHeight {
				t.Errorf("expected %dx%d, got %dx%d", model.CanvasWidth, model.CanvasHeight, cfg.Width, cfg.Height)
			}
		})
	}
}

func TestRender_PhotoProvenance(t *testing.T) {
	f := newFixture(t)
	if err := f.fs.Write("karim.png", createTestPNG(300, 150, requestedMarker)); err != nil {
		t.Fatalf("writing profile image: %v", err)
	}
	svc := newTestService(t, f, nil, serviceOptions{})

	tests := []struct {
		ref      string
		wantProv model.Provenance
		wantPix  color.RGBA
	}{
		{"karim.png", model.ProvenanceRequested, requestedMarker},
		{"", model.ProvenanceFallback, fallbackMarker},
		{"gone.png", model.ProvenanceFallback, fallbackMarker},
	}

	for _, tt := range tests {
		t.Run(string(tt.wantProv)+"/"+tt.ref, func(t *testing.T) {
			res, err := svc.Render(context.Background(), sampleRequest(tt.ref))
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			if res.Provenance != tt.wantProv {
				t.Errorf("expected provenance %s, got %s", tt.wantProv, res.Provenance)
			}
			// The center of the photo circle shows the chosen image.
			if got := rgbaAt(decodePNG(t, res.PNG), 140, 540); got != tt.wantPix {
				t.Errorf("expected photo pixel %v, got %v", tt.wantPix, got)
			}
		})
	}
}

func TestRender_Idempotent(t *testing.T) {
	f := newFixture(t)
	svc := newTestService(t, f, nil, serviceOptions{})

	first, err := svc.Render(context.Background(), sampleRequest(""))
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	second, err := svc.Render(context.Background(), sampleRequest(""))
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if !bytes.Equal(first.PNG, second.PNG) {
		t.Error("expected identical output for identical requests")
	}
}

// Concurrent renders with different inputs must not bleed into each other.
func TestRender_ConcurrentIsolation(t *testing.T) {
	f := newFixture(t)
	svc := newTestService(t, f, nil, serviceOptions{opts: Options{MaxConcurrent: 3}})

	groups := []string{"A+", "B-", "O+", "AB+"}
	want := make(map[string][]byte, len(groups))
	for _, g := range groups {
		res, err := svc.Render(context.Background(), model.NewRenderRequest(g, "Dhaka", "Mirpur", "City Hospital", "", ""))
		if err != nil {
			t.Fatalf("baseline render %s: %v", g, err)
		}
		want[g] = res.PNG
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(groups)*4)
	for i := 0; i < 4; i++ {
		for _, g := range groups {
			wg.Add(1)
			go func(g string) {
				defer wg.Done()
				res, err := svc.Render(context.Background(), model.NewRenderRequest(g, "Dhaka", "Mirpur", "City Hospital", "", ""))
				if err != nil {
					errs <- err
					return
				}
				if !bytes.Equal(res.PNG, want[g]) {
					errs <- errors.New("output for " + g + " differs from its baseline")
				}
			}(g)
		}
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestRender_MissingFallback(t *testing.T) {
	f := newFixture(t)
	if err := os.Remove(f.fallbackPath); err != nil {
		t.Fatalf("removing default profile: %v", err)
	}
	rec := &memoryRecorder{}
	svc := newTestService(t, f, rec, serviceOptions{})

	res, err := svc.Render(context.Background(), sampleRequest(""))
	if !errors.Is(err, ErrFallbackUnavailable) {
		t.Fatalf("expected ErrFallbackUnavailable, got %v", err)
	}
	if res != nil {
		t.Error("expected no result on failure")
	}

	svc.Close()
	records := rec.all()
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Status != model.StatusFailed || records[0].Stage != model.StageResolving {
		t.Errorf("expected failed at resolving, got %s at %s", records[0].Status, records[0].Stage)
	}
}

func TestRender_RecordsSuccess(t *testing.T) {
	f := newFixture(t)
	rec := &memoryRecorder{}
	svc := newTestService(t, f, rec, serviceOptions{})

	res, err := svc.Render(context.Background(), sampleRequest(""))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	svc.Close()
	records := rec.all()
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	got := records[0]
	if got.Status != model.StatusOK || got.Stage != model.StageResponded {
		t.Errorf("expected ok at responded, got %s at %s", got.Status, got.Stage)
	}
	if got.BloodGroup != "O+" || got.Provenance != model.ProvenanceFallback {
		t.Errorf("unexpected record %+v", got)
	}
	if got.Bytes != int64(len(res.PNG)) {
		t.Errorf("expected %d bytes recorded, got %d", len(res.PNG), got.Bytes)
	}
}

// blockingFactory returns a factory that parks every render until release is
// closed. started receives one value per render that reached compositing.
func blockingFactory(started chan<- struct{}, release <-chan struct{}) func(*render.Fonts) render.RasterizerFactory {
	return func(fonts *render.Fonts) render.RasterizerFactory {
		return func(width, height int) render.Rasterizer {
			started <- struct{}{}
			<-release
			return render.NewRasterizer(width, height, fonts)
		}
	}
}

func TestRender_Timeout(t *testing.T) {
	f := newFixture(t)
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	rec := &memoryRecorder{}
	svc := newTestService(t, f, rec, serviceOptions{
		opts:    Options{Timeout: 50 * time.Millisecond, MaxConcurrent: 1},
		factory: blockingFactory(started, release),
	})

	_, err := svc.Render(context.Background(), sampleRequest(""))
	if !errors.Is(err, ErrRenderTimeout) {
		t.Fatalf("expected ErrRenderTimeout, got %v", err)
	}

	svc.Close()
	records := rec.all()
	if len(records) != 1 || records[0].Status != model.StatusFailed {
		t.Errorf("expected one failed record, got %+v", records)
	}
}

func TestRender_WaitsForSlot(t *testing.T) {
	f := newFixture(t)
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	svc := newTestService(t, f, nil, serviceOptions{
		opts:    Options{Timeout: 100 * time.Millisecond, MaxConcurrent: 1},
		factory: blockingFactory(started, release),
	})

	// The first render takes the only slot and keeps it until release.
	go func() { _, _ = svc.Render(context.Background(), sampleRequest("")) }()
	<-started

	_, err := svc.Render(context.Background(), sampleRequest(""))
	if !errors.Is(err, ErrRenderTimeout) {
		t.Fatalf("expected ErrRenderTimeout, got %v", err)
	}
	if !strings.Contains(err.Error(), "render slot") {
		t.Errorf("expected the wait for a slot to time out, got %v", err)
	}
}

func TestRender_CallerCancelled(t *testing.T) {
	f := newFixture(t)
	svc := newTestService(t, f, nil, serviceOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Render(ctx, sampleRequest(""))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, ErrRenderTimeout) {
		t.Errorf("a cancelled request is not a timeout: %v", err)
	}
}

func TestRender_CallerCancelledMidRender(t *testing.T) {
	f := newFixture(t)
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	svc := newTestService(t, f, nil, serviceOptions{
		opts:    Options{Timeout: 10 * time.Second, MaxConcurrent: 1},
		factory: blockingFactory(started, release),
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := svc.Render(ctx, sampleRequest(""))
	if errors.Is(err, ErrRenderTimeout) || !errors.Is(err, context.Canceled) {
		t.Errorf("expected a cancellation error, got %v", err)
	}
}

// blockingRecorder holds every Create until release is closed.
type blockingRecorder struct {
	memoryRecorder
	release chan struct{}
}

func (b *blockingRecorder) Create(ctx context.Context, rec *model.RenderRecord) error {
	<-b.release
	return b.memoryRecorder.Create(ctx, rec)
}

func TestRender_SlowRecorderDoesNotDelayResponse(t *testing.T) {
	f := newFixture(t)
	rec := &blockingRecorder{release: make(chan struct{})}
	svc := newTestService(t, f, rec, serviceOptions{})

	done := make(chan error, 1)
	go func() {
		_, err := svc.Render(context.Background(), sampleRequest(""))
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		close(rec.release)
		t.Fatal("Render waited for the render log write")
	}

	close(rec.release)
	svc.Close()
	if got := len(rec.all()); got != 1 {
		t.Errorf("expected the queued record to be written on Close, got %d", got)
	}
}

func TestClose_StopsRecording(t *testing.T) {
	f := newFixture(t)
	rec := &memoryRecorder{}
	svc := newTestService(t, f, rec, serviceOptions{})

	svc.Close()
	svc.Close() // second Close is a no-op

	if _, err := svc.Render(context.Background(), sampleRequest("")); err != nil {
		t.Fatalf("Render after Close failed: %v", err)
	}
	if got := len(rec.all()); got != 0 {
		t.Errorf("expected no records after Close, got %d", got)
	}
}

func TestRender_RecoversPanic(t *testing.T) {
	f := newFixture(t)
	svc := newTestService(t, f, nil, serviceOptions{
		factory: func(*render.Fonts) render.RasterizerFactory {
			return func(int, int) render.Rasterizer { panic("out of paint") }
		},
	})

	_, err := svc.Render(context.Background(), sampleRequest(""))
	if err == nil || !strings.Contains(err.Error(), "out of paint") {
		t.Errorf("expected recovered panic error, got %v", err)
	}
}
