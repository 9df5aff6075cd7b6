package pipeline

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"screend/internal/broadcast"
	"screend/internal/raster"
	"screend/pkg/types"
)

// Pipeline owns the per-tenant render state and the shared engine queue.
// One instance serves the whole process.
type Pipeline struct {
	cfg   PipelineConfig
	log   zerolog.Logger
	clock Clock
	hub   *broadcast.Hub
	rast  raster.Rasterizer
	pub   EventPublisher

	// engineCh is the cross-tenant engine semaphore. Capacity 1 serializes
	// all tenants through the single rasterizer instance.
	engineCh chan struct{}

	mu      sync.Mutex
	tenants map[string]*tenantState

	renderCount  uint64
	publishCount uint64
	startTime    time.Time
}

// Tenants returns the known tenants, source existence re-checked on each call.
func (p *Pipeline) Tenants() []types.Tenant {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]types.Tenant, 0, len(p.tenants))
	for _, ts := range p.tenants {
		tn := ts.tenant
		tn.HasSource = pathExists(tn.SourcePath)
		out = append(out, tn)
	}
	sortTenants(out)
	return out
}

// Tenant returns a single tenant record.
func (p *Pipeline) Tenant(id string) (types.Tenant, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ts, ok := p.tenants[id]
	if !ok {
		return types.Tenant{}, ErrTenantNotFound(id)
	}
	tn := ts.tenant
	tn.HasSource = pathExists(tn.SourcePath)
	return tn, nil
}

// Ready reports whether the pipeline can serve requests. It is true as soon
// as construction succeeds; per-tenant readiness is conveyed by LiveReference.
func (p *Pipeline) Ready() bool { return p != nil }

// Subscribe registers a display client for tenant and returns its handle.
func (p *Pipeline) Subscribe(tenant string) (*broadcast.Subscription, error) {
	p.mu.Lock()
	_, ok := p.tenants[tenant]
	p.mu.Unlock()
	if !ok {
		return nil, ErrTenantNotFound(tenant)
	}
	return p.hub.Subscribe(tenant), nil
}

// Unsubscribe releases a subscription. Idempotent.
func (p *Pipeline) Unsubscribe(sub *broadcast.Subscription) { p.hub.Unsubscribe(sub) }

func (p *Pipeline) state(tenant string) (*tenantState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ts, ok := p.tenants[tenant]
	if !ok {
		return nil, ErrTenantNotFound(tenant)
	}
	return ts, nil
}
