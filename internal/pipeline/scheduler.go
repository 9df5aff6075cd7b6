package pipeline

// Notify tells the pipeline that tenant's source may have changed. Bursts
// inside one debounce window coalesce into a single render; a notify landing
// while a render is in flight schedules exactly one trailing pass.
//
// Idle -> Pending (arm debounce timer)
// Pending -> no-op
// Rendering -> remember a trailing pass
func (p *Pipeline) Notify(tenant string) error {
	p.mu.Lock()
	ts, ok := p.tenants[tenant]
	if !ok {
		p.mu.Unlock()
		return ErrTenantNotFound(tenant)
	}
	switch ts.phase {
	case PhaseIdle:
		ts.phase = PhasePending
		p.armDebounceLocked(ts)
		p.log.Debug().Str("tenant", tenant).Msg("render scheduled")
	case PhasePending:
		notifiesCoalescedTotal.WithLabelValues(tenant).Inc()
	case PhaseRendering:
		ts.again = true
		notifiesCoalescedTotal.WithLabelValues(tenant).Inc()
	}
	p.mu.Unlock()
	return nil
}

// armDebounceLocked starts the coalescing timer for ts. Caller holds p.mu.
func (p *Pipeline) armDebounceLocked(ts *tenantState) {
	ts.timer = p.clock.AfterFunc(p.cfg.Debounce, func() { p.debounceFired(ts) })
}

// debounceFired moves a pending tenant into Rendering and runs the pass.
// It executes on the timer's goroutine; the render itself blocks here, which
// is fine because timers fire on their own goroutines.
func (p *Pipeline) debounceFired(ts *tenantState) {
	p.mu.Lock()
	if ts.phase != PhasePending {
		// A stale timer (raced with state changes) must not start a second
		// render; the Rendering gate is the single entry point.
		p.mu.Unlock()
		return
	}
	ts.phase = PhaseRendering
	ts.timer = nil
	p.renderCount++
	p.mu.Unlock()

	err := p.renderOnce(ts)

	p.mu.Lock()
	if err != nil {
		ts.lastErr = err.Error()
	} else {
		ts.lastErr = ""
	}
	if ts.again {
		// trailing notify arrived mid-render; owe exactly one more pass
		ts.again = false
		ts.phase = PhasePending
		p.armDebounceLocked(ts)
	} else {
		ts.phase = PhaseIdle
	}
	p.mu.Unlock()

	if err != nil && !IsNoSource(err) {
		p.log.Warn().Err(err).Str("tenant", ts.tenant.ID).Msg("render pass failed")
	}
}
