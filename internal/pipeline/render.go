package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"screend/internal/raster"
)

// renderOnce performs one complete render pass for ts: source check, engine
// slot, rasterize to a temp file, publish. The scheduler guarantees it is
// never called concurrently for the same tenant.
func (p *Pipeline) renderOnce(ts *tenantState) (err error) {
	tenant := ts.tenant.ID
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = rasterFailedError{err: fmt.Errorf("render panic: %v", r)}
		}
		outcome := "ok"
		switch {
		case IsNoSource(err):
			outcome = "no_source"
		case err != nil:
			outcome = "error"
		}
		rendersTotal.WithLabelValues(tenant, outcome).Inc()
		renderDuration.WithLabelValues(tenant).Observe(time.Since(start).Seconds())
	}()

	src := ts.tenant.SourcePath
	if !pathExists(src) {
		p.pub.Publish(Event{Name: EventRenderSkipped, Tenant: tenant})
		p.log.Debug().Str("tenant", tenant).Msg("render skipped, no source document")
		return ErrNoSource(tenant)
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.RenderTimeout)
	defer cancel()

	// Engine slot: all tenants share the rasterizer; the timeout covers the
	// queue wait so a wedged engine surfaces as a render failure rather
	// than an unbounded pile-up.
	select {
	case p.engineCh <- struct{}{}:
		defer func() { <-p.engineCh }()
	case <-ctx.Done():
		return rasterFailedError{err: fmt.Errorf("engine queue: %w", ctx.Err())}
	}

	p.pub.Publish(Event{Name: EventRenderStart, Tenant: tenant})

	tmpDir := ts.tmpDir()
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return rasterFailedError{err: err}
	}
	tmp := filepath.Join(tmpDir, tenant+"."+uuid.NewString()+".png")
	opts := raster.Options{Width: p.cfg.Width, Height: p.cfg.Height, Background: p.cfg.Background}
	if err := p.rast.Rasterize(ctx, src, tmp, opts); err != nil {
		_ = os.Remove(tmp)
		p.pub.Publish(Event{Name: EventRenderFailed, Tenant: tenant, Fields: map[string]any{"error": err.Error()}})
		return rasterFailedError{err: err}
	}

	ref, err := p.publish(ts, tmp)
	if err != nil {
		_ = os.Remove(tmp)
		p.pub.Publish(Event{Name: EventRenderFailed, Tenant: tenant, Fields: map[string]any{"error": err.Error()}})
		return err
	}
	p.log.Info().Str("tenant", tenant).Uint64("version", ref.Version).Str("url", ref.URL).Msg("published")
	return nil
}
