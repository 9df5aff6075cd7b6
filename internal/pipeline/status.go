package pipeline

import (
	"screend/pkg/types"
)

// Status builds a detailed status response for /status.
func (p *Pipeline) Status() types.StatusResponse {
	now := p.clock.Now()
	p.mu.Lock()
	resp := types.StatusResponse{
		RendersTotal:   p.renderCount,
		PublishesTotal: p.publishCount,
		UptimeSeconds:  int64(now.Sub(p.startTime).Seconds()),
		ServerTimeUnix: now.Unix(),
	}
	resp.Tenants = make([]types.TenantStatus, 0, len(p.tenants))
	for _, ts := range p.tenants {
		st := types.TenantStatus{
			ID:        ts.tenant.ID,
			Phase:     ts.phase.String(),
			LiveSlot:  ts.live.String(),
			Version:   ts.version,
			LastError: ts.lastErr,
		}
		if !ts.lastPublished.IsZero() {
			st.LastPublished = ts.lastPublished.Unix()
		}
		resp.Tenants = append(resp.Tenants, st)
	}
	p.mu.Unlock()

	// subscriber counts come from the hub, outside the pipeline lock
	for i := range resp.Tenants {
		resp.Tenants[i].Subscribers = p.hub.Count(resp.Tenants[i].ID)
	}
	sortTenantStatuses(resp.Tenants)
	return resp
}

// TenantStatus reports the pipeline state for a single tenant.
func (p *Pipeline) TenantStatus(id string) (types.TenantStatus, error) {
	p.mu.Lock()
	ts, ok := p.tenants[id]
	if !ok {
		p.mu.Unlock()
		return types.TenantStatus{}, ErrTenantNotFound(id)
	}
	st := types.TenantStatus{
		ID:        ts.tenant.ID,
		Phase:     ts.phase.String(),
		LiveSlot:  ts.live.String(),
		Version:   ts.version,
		LastError: ts.lastErr,
	}
	if !ts.lastPublished.IsZero() {
		st.LastPublished = ts.lastPublished.Unix()
	}
	p.mu.Unlock()
	st.Subscribers = p.hub.Count(id)
	return st, nil
}
