package pipeline

import (
	"fmt"

	"screend/internal/common/fsutil"
	"screend/pkg/types"
)

// LiveReference returns the current published artifact for tenant, or
// ErrNotReady if nothing has been published yet.
func (p *Pipeline) LiveReference(tenant string) (types.ArtifactRef, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ts, ok := p.tenants[tenant]
	if !ok {
		return types.ArtifactRef{}, ErrTenantNotFound(tenant)
	}
	if ts.live == SlotNone {
		return types.ArtifactRef{}, ErrNotReady
	}
	return refLocked(ts), nil
}

// refLocked builds the reference for ts's live slot. Caller holds p.mu.
func refLocked(ts *tenantState) types.ArtifactRef {
	return types.ArtifactRef{
		Path:    ts.slotPath(ts.live),
		URL:     fmt.Sprintf("/tenants/%s/screen.png?v=%d", ts.tenant.ID, ts.version),
		Version: ts.version,
	}
}

// publish moves the freshly rendered file at tmpPath into the non-live slot,
// flips the live pointer, bumps the version, and fans the event out. The
// Rendering gate makes the back slot exclusively ours for the duration, so
// the file move runs outside the lock.
func (p *Pipeline) publish(ts *tenantState, tmpPath string) (types.ArtifactRef, error) {
	p.mu.Lock()
	back := ts.live.next()
	target := ts.slotPath(back)
	p.mu.Unlock()

	if err := fsutil.ReplaceFile(tmpPath, target); err != nil {
		// live pointer untouched; the previous generation stays authoritative
		return types.ArtifactRef{}, publishFailedError{err: err}
	}

	p.mu.Lock()
	ts.live = back
	ts.version++
	ts.lastPublished = p.clock.Now()
	p.publishCount++
	ref := refLocked(ts)
	p.mu.Unlock()

	publishesTotal.WithLabelValues(ts.tenant.ID).Inc()
	ev := types.ScreenEvent{Tenant: ts.tenant.ID, URL: ref.URL, Version: ref.Version}
	p.hub.Publish(ev)
	p.pub.Publish(Event{Name: EventPublished, Tenant: ts.tenant.ID, Fields: map[string]any{"version": ref.Version}})
	return ref, nil
}
