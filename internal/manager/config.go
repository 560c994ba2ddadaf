package manager

import (
	"time"

	"github.com/rs/zerolog"

	"mpvd/internal/engine"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultPollTimeout     = time.Second
	defaultTeardownTimeout = 10 * time.Second
	defaultEngineLogLevel  = "v"
)

// SurfaceAttacher binds a platform render surface to a handle. Attach is only
// called when the instance has no surface yet; Detach runs during teardown.
type SurfaceAttacher interface {
	Attach(id InstanceID, ref int64, h engine.Handle) error
	Detach(id InstanceID)
}

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	// Engine creates native handles. Required.
	Engine engine.Engine
	// Surfaces handles AttachSurface; nil disables surface attachment.
	Surfaces SurfaceAttacher
	// PollTimeout bounds each bridge wait so stop requests are noticed.
	PollTimeout time.Duration
	// TeardownTimeout bounds the bridge join and the engine terminate call.
	TeardownTimeout time.Duration
	// EngineLogLevel is passed to RequestLogMessages on Initialize; "no" disables.
	EngineLogLevel string
	// DefaultOptions are applied to every new handle before InstanceConfig.Options.
	DefaultOptions []Option
	Logger         *zerolog.Logger
	Publisher      EventPublisher
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		engine:    cfg.Engine,
		surfaces:  cfg.Surfaces,
		defaults:  append([]Option(nil), cfg.DefaultOptions...),
		instances: make(map[InstanceID]*Instance),
		teardowns: make(map[InstanceID]*Teardown),
		publisher: noopPublisher{},
		log:       zerolog.Nop(),
		startTime: time.Now(),
	}
	// Apply defaults if unset
	if cfg.PollTimeout <= 0 {
		m.pollTimeout = defaultPollTimeout
	} else {
		m.pollTimeout = cfg.PollTimeout
	}
	if cfg.TeardownTimeout <= 0 {
		m.teardownTimeout = defaultTeardownTimeout
	} else {
		m.teardownTimeout = cfg.TeardownTimeout
	}
	if cfg.EngineLogLevel == "" {
		m.engineLogLevel = defaultEngineLogLevel
	} else {
		m.engineLogLevel = cfg.EngineLogLevel
	}
	if cfg.Logger != nil {
		m.log = cfg.Logger.With().Str("component", "manager").Logger()
	}
	if cfg.Publisher != nil {
		m.publisher = cfg.Publisher
	}
	return m
}
