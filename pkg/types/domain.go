package types

// Tenant represents a store/display context discovered on disk.
type Tenant struct {
	// Stable identifier (the tenant's directory name).
	// example: acme
	ID string `json:"id" example:"acme"`
	// Human-friendly name (currently the ID, reserved for registry metadata).
	// example: Acme Coffee
	Name string `json:"name" example:"Acme Coffee"`
	// Absolute path to the tenant's data directory.
	// example: /var/lib/screend/tenants/acme
	Dir string `json:"dir" example:"/var/lib/screend/tenants/acme"`
	// Absolute path of the tenant's active source document.
	// example: /var/lib/screend/tenants/acme/menu.pdf
	SourcePath string `json:"source_path" example:"/var/lib/screend/tenants/acme/menu.pdf"`
	// Whether the source document currently exists on disk.
	// example: true
	HasSource bool `json:"has_source" example:"true"`
}

// ArtifactRef points a display client at one exact published generation.
type ArtifactRef struct {
	// Absolute filesystem path of the live slot file.
	Path string `json:"-"`
	// Fetchable URL including the cache-busting version token.
	// example: /tenants/acme/screen.png?v=7
	URL string `json:"url" example:"/tenants/acme/screen.png?v=7"`
	// Monotonically increasing publish counter for the tenant.
	// example: 7
	Version uint64 `json:"version" example:"7"`
}

// ScreenEvent is pushed to subscribers whenever a tenant's live artifact
// changes. Late joiners receive one synthetic event built from current state.
type ScreenEvent struct {
	// Tenant the event belongs to.
	// example: acme
	Tenant string `json:"tenant" example:"acme"`
	// Fetchable URL of the new generation.
	// example: /tenants/acme/screen.png?v=7
	URL string `json:"url" example:"/tenants/acme/screen.png?v=7"`
	// Version of the new generation.
	// example: 7
	Version uint64 `json:"version" example:"7"`
}
