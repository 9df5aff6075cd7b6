package pipeline

import "github.com/rs/zerolog"

// LogPublisher emits events as structured log lines.
type LogPublisher struct {
	Log zerolog.Logger
}

func (p *LogPublisher) Publish(e Event) {
	ev := p.Log.Info().Str("event", e.Name).Str("tenant", e.Tenant)
	for k, v := range e.Fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg("pipeline event")
}
