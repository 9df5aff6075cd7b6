package pipeline

import (
	"errors"
	"os"
	"testing"
	"time"

	"screend/internal/raster"
	"screend/pkg/types"
)

func TestTenantsListAndLookup(t *testing.T) {
	root := t.TempDir()
	a := newTestTenant(t, root, "acme")
	b := newTestTenant(t, root, "bravo")
	if err := removeSource(b); err != nil {
		t.Fatalf("remove: %v", err)
	}
	p, _ := newClockedPipeline(t, raster.NewStub(), a, b)

	out := p.Tenants()
	if len(out) != 2 || out[0].ID != "acme" || out[1].ID != "bravo" {
		t.Fatalf("unexpected tenants: %+v", out)
	}
	if !out[0].HasSource || out[1].HasSource {
		t.Fatalf("source flags wrong: %+v", out)
	}
	if _, err := p.Tenant("ghost"); !IsTenantNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := p.Subscribe("ghost"); !IsTenantNotFound(err) {
		t.Fatalf("expected not found on subscribe, got %v", err)
	}
}

func TestCrossTenantFailureIsolation(t *testing.T) {
	root := t.TempDir()
	a := newTestTenant(t, root, "acme")
	b := newTestTenant(t, root, "bravo")
	stub := raster.NewStub()
	stub.FailFor = map[string]error{a.SourcePath: errors.New("engine crash")}
	p, clk := newClockedPipeline(t, stub, a, b)

	if err := p.Notify("acme"); err != nil {
		t.Fatalf("notify a: %v", err)
	}
	if err := p.Notify("bravo"); err != nil {
		t.Fatalf("notify b: %v", err)
	}
	clk.Advance(defaultDebounce)

	if _, err := p.LiveReference("acme"); err != ErrNotReady {
		t.Fatalf("acme must be untouched, got %v", err)
	}
	ref, err := p.LiveReference("bravo")
	if err != nil || ref.Version != 1 {
		t.Fatalf("bravo must publish, got %+v err=%v", ref, err)
	}
	stA, _ := p.TenantStatus("acme")
	stB, _ := p.TenantStatus("bravo")
	if stA.LastError == "" || stB.LastError != "" {
		t.Fatalf("error isolation broken: a=%+v b=%+v", stA, stB)
	}
}

func TestBurstEndToEnd(t *testing.T) {
	root := t.TempDir()
	acme := newTestTenant(t, root, "acme")
	other := newTestTenant(t, root, "other")
	stub := raster.NewStub()
	p := NewWithConfig(PipelineConfig{
		Tenants:    []types.Tenant{acme, other},
		Rasterizer: stub,
		Debounce:   20 * time.Millisecond,
	})

	subAcme, err := p.Subscribe("acme")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer p.Unsubscribe(subAcme)
	subOther, err := p.Subscribe("other")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer p.Unsubscribe(subOther)

	// multi-file drop: five notifies inside 50ms
	for i := 0; i < 5; i++ {
		if err := p.Notify("acme"); err != nil {
			t.Fatalf("notify: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	waitFor(t, time.Second, func() bool {
		ref, err := p.LiveReference("acme")
		return err == nil && ref.Version == 1
	})
	waitFor(t, time.Second, func() bool { return p.phaseOf("acme") == PhaseIdle })

	if n := len(stub.Calls()); n != 1 {
		t.Fatalf("expected exactly one render, got %d", n)
	}
	select {
	case ev := <-subAcme.C:
		if ev.Version != 1 || ev.Tenant != "acme" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("acme subscriber got no event")
	}
	select {
	case ev := <-subAcme.C:
		t.Fatalf("duplicate event: %+v", ev)
	default:
	}
	select {
	case ev := <-subOther.C:
		t.Fatalf("cross-tenant event: %+v", ev)
	default:
	}
}

func TestStatusReport(t *testing.T) {
	root := t.TempDir()
	a := newTestTenant(t, root, "acme")
	b := newTestTenant(t, root, "bravo")
	p, clk := newClockedPipeline(t, raster.NewStub(), a, b)

	sub, _ := p.Subscribe("acme")
	defer p.Unsubscribe(sub)
	if err := p.Notify("acme"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	clk.Advance(defaultDebounce)

	st := p.Status()
	if len(st.Tenants) != 2 {
		t.Fatalf("tenants=%d", len(st.Tenants))
	}
	if st.RendersTotal != 1 || st.PublishesTotal != 1 {
		t.Fatalf("counters: %+v", st)
	}
	acme := st.Tenants[0]
	if acme.ID != "acme" || acme.Version != 1 || acme.LiveSlot != "a" || acme.Phase != "idle" {
		t.Fatalf("acme status: %+v", acme)
	}
	if acme.Subscribers != 1 || acme.LastPublished == 0 {
		t.Fatalf("acme status: %+v", acme)
	}
	bravo := st.Tenants[1]
	if bravo.Version != 0 || bravo.LiveSlot != "none" || bravo.LastPublished != 0 {
		t.Fatalf("bravo status: %+v", bravo)
	}
}

func TestLifecycleEvents(t *testing.T) {
	tn := newTestTenant(t, t.TempDir(), "acme")
	pub := NewMemoryPublisher()
	clk := newFakeClock()
	p := NewWithConfig(PipelineConfig{
		Tenants:    []types.Tenant{tn},
		Rasterizer: raster.NewStub(),
		Clock:      clk,
		Publisher:  pub,
	})
	if err := p.Notify("acme"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	clk.Advance(defaultDebounce)

	evs := pub.Events()
	if len(evs) != 2 || evs[0].Name != EventRenderStart || evs[1].Name != EventPublished {
		t.Fatalf("unexpected events: %+v", evs)
	}
	if v, ok := evs[1].Fields["version"].(uint64); !ok || v != 1 {
		t.Fatalf("published fields: %+v", evs[1].Fields)
	}
}

func TestTmpCleanupAfterFailedPublish(t *testing.T) {
	tn := newTestTenant(t, t.TempDir(), "acme")
	stub := raster.NewStub()
	stub.Err = errTest
	p, clk := newClockedPipeline(t, stub, tn)
	if err := p.Notify("acme"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	clk.Advance(defaultDebounce)
	ts, _ := p.state("acme")
	entries, err := os.ReadDir(ts.tmpDir())
	if err == nil && len(entries) != 0 {
		t.Fatalf("temp leftovers: %v", entries)
	}
}
