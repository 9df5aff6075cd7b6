package pipeline

import (
	"testing"
	"time"

	"screend/internal/raster"
	"screend/pkg/types"
)

func newClockedPipeline(t *testing.T, r raster.Rasterizer, tenants ...types.Tenant) (*Pipeline, *fakeClock) {
	t.Helper()
	clk := newFakeClock()
	p := NewWithConfig(PipelineConfig{
		Tenants:    tenants,
		Rasterizer: r,
		Clock:      clk,
	})
	return p, clk
}

func TestNotifyUnknownTenant(t *testing.T) {
	p, _ := newClockedPipeline(t, raster.NewStub())
	err := p.Notify("ghost")
	if err == nil || !IsTenantNotFound(err) {
		t.Fatalf("expected tenant not found, got %v", err)
	}
}

func TestDebounceCoalescesBurst(t *testing.T) {
	tn := newTestTenant(t, t.TempDir(), "acme")
	stub := raster.NewStub()
	p, clk := newClockedPipeline(t, stub, tn)

	// five notifies inside one window
	for i := 0; i < 5; i++ {
		if err := p.Notify("acme"); err != nil {
			t.Fatalf("notify: %v", err)
		}
	}
	if got := p.phaseOf("acme"); got != PhasePending {
		t.Fatalf("phase=%v", got)
	}
	clk.Advance(defaultDebounce)

	if n := len(stub.Calls()); n != 1 {
		t.Fatalf("expected exactly 1 render, got %d", n)
	}
	if got := p.phaseOf("acme"); got != PhaseIdle {
		t.Fatalf("phase after render=%v", got)
	}
	ref, err := p.LiveReference("acme")
	if err != nil {
		t.Fatalf("live: %v", err)
	}
	if ref.Version != 1 {
		t.Fatalf("version=%d", ref.Version)
	}
}

func TestTrailingNotifySchedulesExactlyOneMorePass(t *testing.T) {
	tn := newTestTenant(t, t.TempDir(), "acme")
	gate := newGateRasterizer()
	p, clk := newClockedPipeline(t, gate, tn)

	if err := p.Notify("acme"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	done := make(chan struct{})
	go func() {
		clk.Advance(defaultDebounce)
		close(done)
	}()
	<-gate.entered // render in flight

	// three notifies mid-render collapse into one trailing pass
	for i := 0; i < 3; i++ {
		if err := p.Notify("acme"); err != nil {
			t.Fatalf("notify: %v", err)
		}
	}
	gate.release <- nil
	<-done

	if got := p.phaseOf("acme"); got != PhasePending {
		t.Fatalf("expected pending trailing pass, phase=%v", got)
	}
	done2 := make(chan struct{})
	go func() {
		clk.Advance(defaultDebounce)
		close(done2)
	}()
	<-gate.entered
	gate.release <- nil
	<-done2

	if got := p.phaseOf("acme"); got != PhaseIdle {
		t.Fatalf("phase=%v", got)
	}
	ref, err := p.LiveReference("acme")
	if err != nil || ref.Version != 2 {
		t.Fatalf("expected version 2, got %+v err=%v", ref, err)
	}
	// no further timers owed
	clk.Advance(10 * defaultDebounce)
	if got := p.phaseOf("acme"); got != PhaseIdle {
		t.Fatalf("spurious pass scheduled, phase=%v", got)
	}
}

func TestRenderFailureReturnsToIdleAndKeepsLive(t *testing.T) {
	tn := newTestTenant(t, t.TempDir(), "acme")
	stub := raster.NewStub()
	p, clk := newClockedPipeline(t, stub, tn)

	if err := p.Notify("acme"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	clk.Advance(defaultDebounce)
	ref1, err := p.LiveReference("acme")
	if err != nil {
		t.Fatalf("live: %v", err)
	}

	stub.Err = errTest
	if err := p.Notify("acme"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	clk.Advance(defaultDebounce)

	if got := p.phaseOf("acme"); got != PhaseIdle {
		t.Fatalf("phase=%v", got)
	}
	ref2, err := p.LiveReference("acme")
	if err != nil {
		t.Fatalf("live after failure: %v", err)
	}
	if ref2.Version != ref1.Version || ref2.Path != ref1.Path {
		t.Fatalf("live reference changed on failed render: %+v vs %+v", ref1, ref2)
	}
	st, err := p.TenantStatus("acme")
	if err != nil || st.LastError == "" {
		t.Fatalf("expected last error recorded, got %+v err=%v", st, err)
	}

	// next notify retries and clears the error
	stub.Err = nil
	if err := p.Notify("acme"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	clk.Advance(defaultDebounce)
	st, _ = p.TenantStatus("acme")
	if st.LastError != "" || st.Version != ref1.Version+1 {
		t.Fatalf("expected recovery, got %+v", st)
	}
}

func TestNoSourceSkipsEngine(t *testing.T) {
	dir := t.TempDir()
	tn := newTestTenant(t, dir, "acme")
	if err := removeSource(tn); err != nil {
		t.Fatalf("remove source: %v", err)
	}
	stub := raster.NewStub()
	pub := NewMemoryPublisher()
	clk := newFakeClock()
	p := NewWithConfig(PipelineConfig{Tenants: []types.Tenant{tn}, Rasterizer: stub, Clock: clk, Publisher: pub})

	if err := p.Notify("acme"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	clk.Advance(defaultDebounce)

	if n := len(stub.Calls()); n != 0 {
		t.Fatalf("rasterizer must not be consulted without a source, calls=%d", n)
	}
	if _, err := p.LiveReference("acme"); err != ErrNotReady {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	evs := pub.Events()
	if len(evs) != 1 || evs[0].Name != EventRenderSkipped {
		t.Fatalf("expected one skip event, got %+v", evs)
	}
}

func TestRenderPanicIsContained(t *testing.T) {
	tn := newTestTenant(t, t.TempDir(), "acme")
	p, clk := newClockedPipeline(t, panicRasterizer{}, tn)

	if err := p.Notify("acme"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	clk.Advance(defaultDebounce)

	if got := p.phaseOf("acme"); got != PhaseIdle {
		t.Fatalf("phase=%v", got)
	}
	st, _ := p.TenantStatus("acme")
	if st.LastError == "" {
		t.Fatalf("expected panic recorded as error")
	}
}

func TestEngineTimeoutFailsRender(t *testing.T) {
	tn := newTestTenant(t, t.TempDir(), "acme")
	stub := raster.NewStub()
	stub.Delay = time.Second
	clk := newFakeClock()
	p := NewWithConfig(PipelineConfig{
		Tenants:       []types.Tenant{tn},
		Rasterizer:    stub,
		Clock:         clk,
		RenderTimeout: 20 * time.Millisecond,
	})
	if err := p.Notify("acme"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	clk.Advance(defaultDebounce)
	st, _ := p.TenantStatus("acme")
	if st.LastError == "" || st.Version != 0 {
		t.Fatalf("expected timeout failure, got %+v", st)
	}
}
