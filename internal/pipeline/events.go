package pipeline

// Event represents a pipeline lifecycle event.
// Minimal and stable: name + tenant ID and optional fields via key/values.
type Event struct {
	Name   string
	Tenant string
	Fields map[string]any
}

// Well-known event names.
const (
	EventRenderStart   = "render.start"
	EventRenderSkipped = "render.skipped"
	EventRenderFailed  = "render.failed"
	EventPublished     = "published"
)

// EventPublisher receives events from the pipeline. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
