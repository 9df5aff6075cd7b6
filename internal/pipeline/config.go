package pipeline

import (
	"time"

	"github.com/rs/zerolog"

	"screend/internal/broadcast"
	"screend/internal/raster"
	"screend/pkg/types"
)

// Defaults applied when corresponding PipelineConfig fields are unset.
const (
	defaultDebounce      = 150 * time.Millisecond
	defaultRenderTimeout = 8 * time.Second
	defaultEngineSlots   = 1
	defaultWidth         = 1920
	defaultHeight        = 1080
	defaultBackground    = "#000000"
)

// PipelineConfig encapsulates all tunables for Pipeline construction.
type PipelineConfig struct {
	Tenants    []types.Tenant
	Rasterizer raster.Rasterizer

	// Debounce is the coalescing window between a notify and the render it
	// triggers. Bursts inside one window produce a single render.
	Debounce time.Duration
	// RenderTimeout bounds one render attempt end to end, including the
	// wait for the engine slot.
	RenderTimeout time.Duration
	// EngineSlots is the number of rasterizations allowed in flight across
	// all tenants. The default of 1 serializes the shared engine.
	EngineSlots int

	Width      int
	Height     int
	Background string

	Logger    zerolog.Logger
	Publisher EventPublisher
	Clock     Clock
	Hub       *broadcast.Hub
}

// NewWithConfig constructs a Pipeline from PipelineConfig.
func NewWithConfig(cfg PipelineConfig) *Pipeline {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = defaultRenderTimeout
	}
	if cfg.EngineSlots <= 0 {
		cfg.EngineSlots = defaultEngineSlots
	}
	if cfg.Width <= 0 {
		cfg.Width = defaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = defaultHeight
	}
	if cfg.Background == "" {
		cfg.Background = defaultBackground
	}
	if cfg.Publisher == nil {
		cfg.Publisher = noopPublisher{}
	}
	if cfg.Clock == nil {
		cfg.Clock = realClock{}
	}
	if cfg.Hub == nil {
		cfg.Hub = broadcast.NewHub()
	}
	if cfg.Rasterizer == nil {
		cfg.Rasterizer = raster.NewCommand("")
	}

	p := &Pipeline{
		cfg:      cfg,
		log:      cfg.Logger,
		clock:    cfg.Clock,
		hub:      cfg.Hub,
		rast:     cfg.Rasterizer,
		pub:      cfg.Publisher,
		engineCh: make(chan struct{}, cfg.EngineSlots),
		tenants:  make(map[string]*tenantState, len(cfg.Tenants)),
	}
	for _, tn := range cfg.Tenants {
		p.tenants[tn.ID] = &tenantState{tenant: tn}
	}
	p.hub.SetDropHook(func(tenant, subID string) {
		eventsDroppedTotal.WithLabelValues(tenant).Inc()
		p.log.Warn().Str("tenant", tenant).Str("subscriber", subID).Msg("subscriber buffer full, event dropped")
	})
	p.startTime = p.clock.Now()
	return p
}

// New constructs a Pipeline with defaults for everything but the tenant set
// and the rasterizer.
func New(tenants []types.Tenant, r raster.Rasterizer) *Pipeline {
	return NewWithConfig(PipelineConfig{Tenants: tenants, Rasterizer: r})
}
