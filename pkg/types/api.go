package types

// TenantsResponse wraps the list of tenants returned by GET /tenants.
type TenantsResponse struct {
	// List of known tenants.
	Tenants []Tenant `json:"tenants"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: tenant not found: acme
	Error string `json:"error" example:"tenant not found: acme"`
	// HTTP status code.
	// example: 404
	Code int `json:"code" example:"404"`
}

// ActivateRequest selects a document from the tenant's intake folder as the
// active source.
type ActivateRequest struct {
	// File name inside the tenant's intake folder (no path separators).
	// example: spring-menu.pdf
	File string `json:"file" example:"spring-menu.pdf"`
}

// TenantStatus summarizes one tenant's render pipeline for /status.
type TenantStatus struct {
	// Tenant identifier.
	// example: acme
	ID string `json:"id" example:"acme"`
	// Scheduler phase (idle, pending, rendering).
	// example: idle
	Phase string `json:"phase" example:"idle"`
	// Live slot (none, a, b).
	// example: a
	LiveSlot string `json:"live_slot" example:"a"`
	// Version of the last successful publish; 0 means nothing published yet.
	// example: 7
	Version uint64 `json:"version" example:"7"`
	// Last publish time (unix seconds); 0 means nothing published yet.
	// example: 1700000000
	LastPublished int64 `json:"last_published_unix" example:"1700000000"`
	// Number of connected display subscribers.
	// example: 3
	Subscribers int `json:"subscribers" example:"3"`
	// Last render error observed (if any).
	LastError string `json:"last_error,omitempty"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Per-tenant pipeline states.
	Tenants []TenantStatus `json:"tenants"`
	// Total renders attempted since start.
	// example: 12
	RendersTotal uint64 `json:"renders_total" example:"12"`
	// Total successful publishes since start.
	// example: 11
	PublishesTotal uint64 `json:"publishes_total" example:"11"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
