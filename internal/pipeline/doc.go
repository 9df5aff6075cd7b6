// Package pipeline coordinates rendering and publishing for every tenant.
// It is structured into small files by concern:
//
//   - pipeline.go: core Pipeline type, constructor, simple getters.
//   - config.go: PipelineConfig and package defaults; NewWithConfig applies defaults.
//   - state.go: per-tenant state (Slot, Phase, tenantState) and slot transitions.
//   - scheduler.go: Notify, debounce timers, and the Idle/Pending/Rendering gate.
//   - render.go: one render pass (source check, engine slot, rasterize, publish).
//   - store.go: the double-buffered artifact store and atomic publish.
//   - intake.go: upload staging and activation of staged documents.
//   - errors.go: error types and helpers (IsNoSource, IsTenantNotFound, ...).
//   - events.go: EventPublisher hook for lifecycle events.
//   - status.go: Status reporting for the HTTP layer.
//   - clock.go: injectable clock so scheduler tests avoid wall-clock sleeps.
//   - metrics.go: prometheus counters for renders, publishes, and drops.
//
// External packages should treat this package as the orchestration layer and
// use public methods only (New/NewWithConfig, Notify, Subscribe, LiveReference,
// Tenants, Status). Internal types are subject to change.
package pipeline
