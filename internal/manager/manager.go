package manager

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"mpvd/internal/engine"
)

// Manager is the process-scoped instance registry.
type Manager struct {
	mu        sync.Mutex
	instances map[InstanceID]*Instance
	nextID    InstanceID
	teardowns map[InstanceID]*Teardown

	engine          engine.Engine
	surfaces        SurfaceAttacher
	pollTimeout     time.Duration
	teardownTimeout time.Duration
	engineLogLevel  string
	defaults        []Option
	publisher       EventPublisher
	log             zerolog.Logger
	startTime       time.Time

	createdTotal   uint64
	destroyedTotal uint64
	leakedTotal    uint64
}

// New constructs a Manager with package defaults around eng.
func New(eng engine.Engine) *Manager {
	return NewWithConfig(ManagerConfig{Engine: eng})
}

// SetEventPublisher installs a lifecycle event publisher; nil resets to no-op.
func (m *Manager) SetEventPublisher(p EventPublisher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p == nil {
		m.publisher = noopPublisher{}
		return
	}
	m.publisher = p
}

func (m *Manager) publish(e Event) {
	m.mu.Lock()
	p := m.publisher
	m.mu.Unlock()
	p.Publish(e)
}

// Ready reports whether the manager can create instances.
func (m *Manager) Ready() bool { return m.engine != nil }

// PollTimeout returns the bridge wait bound.
func (m *Manager) PollTimeout() time.Duration { return m.pollTimeout }

// Create allocates a handle, applies the default options followed by
// cfg.Options, and registers a new instance in the created state. It never
// initializes the handle.
func (m *Manager) Create(ctx context.Context, cfg InstanceConfig) (InstanceID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if m.engine == nil {
		return 0, engineErr(EngineCreate, 0, errors.New("no engine configured"))
	}
	h, err := m.engine.Create()
	if err != nil {
		m.log.Error().Err(err).Msg("engine create failed")
		return 0, engineErr(EngineCreate, 0, err)
	}
	opts := make([]Option, 0, len(m.defaults)+len(cfg.Options))
	opts = append(opts, m.defaults...)
	opts = append(opts, cfg.Options...)
	for _, opt := range opts {
		if err := checkOptionValue(opt.Value); err != nil {
			h.TerminateDestroy()
			return 0, err
		}
		if err := h.SetOption(opt.Name, opt.Value); err != nil {
			h.TerminateDestroy()
			m.log.Warn().Err(err).Str("option", opt.Name).Msg("create option rejected")
			return 0, engineErr(EngineOption, 0, err)
		}
	}

	m.mu.Lock()
	m.nextID++
	id := m.nextID
	inst := newInstance(id, cfg.Label, h)
	m.instances[id] = inst
	m.createdTotal++
	m.mu.Unlock()

	instancesCreated.Inc()
	instancesLive.Inc()
	m.log.Info().Stringer("instance", id).Str("label", cfg.Label).Msg("instance created")
	m.publish(Event{Name: "instance_create", InstanceID: id, Fields: map[string]any{"label": cfg.Label}})
	return id, nil
}

// lookup resolves id under the registry lock.
func (m *Manager) lookup(id InstanceID) (*Instance, error) {
	m.mu.Lock()
	inst, ok := m.instances[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound(id)
	}
	return inst, nil
}

// detach removes id from the registry and registers its pending teardown in
// the same critical section. After it returns no lookup for id succeeds, even
// though the instance itself is still alive.
func (m *Manager) detach(id InstanceID) (*Instance, *Teardown, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.instances[id]
	if !ok {
		return nil, nil, ErrNotFound(id)
	}
	delete(m.instances, id)
	// Atomics only: an instance lock here could wait on a running sink.
	inst.detached.Store(true)
	inst.setState(StateDestroying)
	td := newTeardown(id)
	m.teardowns[id] = td
	return inst, td, nil
}

// acquire resolves id and takes the instance operation lock. The returned
// release func must be called when the engine call is done.
func (m *Manager) acquire(id InstanceID) (*Instance, func(), error) {
	inst, err := m.lookup(id)
	if err != nil {
		return nil, nil, err
	}
	inst.opMu.Lock()
	if inst.detached.Load() {
		inst.opMu.Unlock()
		return nil, nil, ErrNotFound(id)
	}
	return inst, inst.opMu.Unlock, nil
}

// IDs returns the currently registered instance ids in ascending order.
func (m *Manager) IDs() []InstanceID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedIDs(m.instances)
}

func sortedIDs(insts map[InstanceID]*Instance) []InstanceID {
	out := make([]InstanceID, 0, len(insts))
	for id := range insts {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// State reports the lifecycle state of a registered instance.
func (m *Manager) State(id InstanceID) (State, error) {
	inst, err := m.lookup(id)
	if err != nil {
		return "", err
	}
	return inst.currentState(), nil
}
