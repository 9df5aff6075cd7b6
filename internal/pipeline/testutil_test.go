package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"screend/internal/raster"
	"screend/internal/registry"
	"screend/pkg/types"
)

// fakeClock drives debounce timers deterministically. Advance fires due
// timers synchronously on the calling goroutine, so a render pass completes
// before Advance returns.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock    *fakeClock
	deadline time.Time
	fn       func()
	fired    bool
	stopped  bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, deadline: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward and runs every timer that comes due,
// including timers armed by the callbacks themselves.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	for {
		c.mu.Lock()
		var due *fakeTimer
		for _, t := range c.timers {
			if !t.fired && !t.stopped && !t.deadline.After(c.now) {
				due = t
				break
			}
		}
		if due != nil {
			due.fired = true
		}
		c.mu.Unlock()
		if due == nil {
			return
		}
		due.fn()
	}
}

// gateRasterizer blocks inside Rasterize until released, letting tests
// observe the Rendering phase from outside.
type gateRasterizer struct {
	entered chan string
	release chan error
	payload []byte
}

func newGateRasterizer() *gateRasterizer {
	return &gateRasterizer{
		entered: make(chan string, 8),
		release: make(chan error, 8),
		payload: []byte("png"),
	}
}

func (g *gateRasterizer) Rasterize(ctx context.Context, src, out string, _ raster.Options) error {
	g.entered <- src
	select {
	case err := <-g.release:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		return ctx.Err()
	}
	return os.WriteFile(out, g.payload, 0o644)
}

// newTestTenant lays out a tenant directory with an active source document.
func newTestTenant(t *testing.T, root, id string) types.Tenant {
	t.Helper()
	dir := filepath.Join(root, id)
	for _, sub := range []string{registry.IntakeDirName, registry.PublicDirName} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	src := filepath.Join(dir, registry.SourceName)
	if err := os.WriteFile(src, []byte("%PDF-1.7 test"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return types.Tenant{ID: id, Name: id, Dir: dir, SourcePath: src, HasSource: true}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", d)
}

func (p *Pipeline) phaseOf(tenant string) Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tenants[tenant].phase
}

var errTest = errors.New("synthetic failure")

func removeSource(tn types.Tenant) error {
	return os.Remove(tn.SourcePath)
}

// panicRasterizer exercises the render-path recover.
type panicRasterizer struct{}

func (panicRasterizer) Rasterize(context.Context, string, string, raster.Options) error {
	panic("rasterizer blew up")
}
