// Package enginetest provides a scriptable in-memory engine for tests.
package enginetest

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"mpvd/internal/engine"
)

// Engine is a fake engine.Engine. Zero value is ready to use.
type Engine struct {
	mu      sync.Mutex
	handles []*Handle

	// CreateErr, when set, makes Create fail.
	CreateErr error
	// Configure runs on every new handle before it is returned.
	Configure func(*Handle)
}

func (e *Engine) Create() (engine.Handle, error) {
	if e.CreateErr != nil {
		return nil, e.CreateErr
	}
	h := NewHandle()
	if e.Configure != nil {
		e.Configure(h)
	}
	e.mu.Lock()
	e.handles = append(e.handles, h)
	e.mu.Unlock()
	return h, nil
}

// Handles returns every handle created so far.
func (e *Engine) Handles() []*Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Handle, len(e.handles))
	copy(out, e.handles)
	return out
}

// Last returns the most recently created handle or nil.
func (e *Engine) Last() *Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.handles) == 0 {
		return nil
	}
	return e.handles[len(e.handles)-1]
}

// Handle is a fake engine.Handle. Events queued with Emit are returned by
// WaitEvent in order.
type Handle struct {
	mu          sync.Mutex
	options     map[string]engine.Value
	props       map[string]engine.Value
	observed    map[string]engine.Format
	commands    [][]string
	calls       []string
	logLevel    string
	initialized bool

	events chan *engine.Event
	wake   chan struct{}

	destroyed  atomic.Bool
	waiting    atomic.Int32
	violations atomic.Int32

	// RejectOptions maps option names to the error SetOption returns.
	RejectOptions map[string]error
	// InitErr makes Initialize fail.
	InitErr error
	// CommandErr maps a command name (args[0]) to the error Command returns.
	CommandErr map[string]error
	// TerminateBlock, when non-nil, makes TerminateDestroy wait until closed.
	TerminateBlock chan struct{}
	// IgnoreWakeup makes Wakeup a no-op, so WaitEvent only returns on timeout.
	IgnoreWakeup bool
}

// NewHandle returns a handle with the default property set of a fresh player.
func NewHandle() *Handle {
	return &Handle{
		options:  map[string]engine.Value{},
		observed: map[string]engine.Format{},
		props: map[string]engine.Value{
			"pause":                 engine.Flag(false),
			"volume":                engine.Double(100),
			"core-idle":             engine.Flag(true),
			"idle-active":           engine.Flag(true),
			"paused-for-cache":      engine.Flag(false),
			"cache-buffering-state": engine.Int64(0),
			"mpv-version":           engine.String("mpv 0.38.0"),
			"playlist-count":        engine.Int64(0),
		},
		events: make(chan *engine.Event, 1024),
		wake:   make(chan struct{}, 1),
	}
}

func (h *Handle) record(call string) {
	if h.destroyed.Load() {
		h.violations.Add(1)
	}
	h.mu.Lock()
	h.calls = append(h.calls, call)
	h.mu.Unlock()
}

// Emit queues an event for WaitEvent. It drops the event if the queue is full,
// like mpv does when its ring buffer overflows.
func (h *Handle) Emit(ev *engine.Event) {
	select {
	case h.events <- ev:
	default:
	}
}

// EmitProperty queues a property-change event.
func (h *Handle) EmitProperty(name string, v engine.Value) {
	h.Emit(&engine.Event{ID: engine.EventPropertyChange, Property: &engine.PropertyEvent{Name: name, Format: v.Format(), Value: v}})
}

func (h *Handle) Initialize() error {
	h.record("initialize")
	if h.InitErr != nil {
		return h.InitErr
	}
	h.mu.Lock()
	h.initialized = true
	h.mu.Unlock()
	return nil
}

func (h *Handle) TerminateDestroy() {
	h.record("terminate")
	if h.waiting.Load() > 0 {
		h.violations.Add(1)
	}
	if h.TerminateBlock != nil {
		<-h.TerminateBlock
	}
	h.destroyed.Store(true)
}

func (h *Handle) WaitEvent(timeout time.Duration) *engine.Event {
	if h.destroyed.Load() {
		h.violations.Add(1)
		return nil
	}
	if h.waiting.Add(1) > 1 {
		h.violations.Add(1)
	}
	defer h.waiting.Add(-1)

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case ev := <-h.events:
		return ev
	case <-h.wake:
		return nil
	case <-timer.C:
		return nil
	}
}

func (h *Handle) Wakeup() {
	h.record("wakeup")
	if h.IgnoreWakeup {
		return
	}
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

func (h *Handle) RequestLogMessages(level string) error {
	h.record("request_log_messages")
	h.mu.Lock()
	h.logLevel = level
	h.mu.Unlock()
	return nil
}

func (h *Handle) ObserveProperty(name string, format engine.Format) error {
	h.record("observe " + name)
	h.mu.Lock()
	h.observed[name] = format
	v, ok := h.props[name]
	h.mu.Unlock()
	if !ok {
		v = engine.Value{}
	}
	h.Emit(&engine.Event{ID: engine.EventPropertyChange, Property: &engine.PropertyEvent{Name: name, Format: format, Value: v}})
	return nil
}

func (h *Handle) GetProperty(name string, format engine.Format) (engine.Value, error) {
	h.record("get " + name)
	h.mu.Lock()
	v, ok := h.props[name]
	h.mu.Unlock()
	if !ok {
		return engine.Value{}, engine.Error{Code: engine.ErrCodePropertyNotFound, Msg: "property not found"}
	}
	if v.Format() != format {
		return engine.Value{}, engine.Error{Code: engine.ErrCodePropertyFormat, Msg: "property format not supported"}
	}
	return v, nil
}

func (h *Handle) SetProperty(name string, v engine.Value) error {
	h.record("set " + name)
	h.mu.Lock()
	h.props[name] = v
	_, watched := h.observed[name]
	h.mu.Unlock()
	if watched {
		h.EmitProperty(name, v)
	}
	return nil
}

func (h *Handle) SetOption(name string, v engine.Value) error {
	h.record("option " + name)
	if err, ok := h.RejectOptions[name]; ok {
		return err
	}
	h.mu.Lock()
	h.options[name] = v
	h.mu.Unlock()
	return nil
}

func (h *Handle) Command(args ...string) error {
	if len(args) == 0 {
		return engine.Error{Code: engine.ErrCodeInvalidParameter, Msg: "invalid parameter"}
	}
	h.record("command " + args[0])
	if err, ok := h.CommandErr[args[0]]; ok {
		return err
	}
	h.mu.Lock()
	h.commands = append(h.commands, append([]string(nil), args...))
	h.mu.Unlock()
	if args[0] == "loadfile" {
		h.Emit(&engine.Event{ID: engine.EventStartFile})
		h.EmitProperty("pause", engine.Flag(false))
		h.EmitProperty("core-idle", engine.Flag(false))
		h.Emit(&engine.Event{ID: engine.EventFileLoaded})
	}
	return nil
}

// Option returns the value stored by SetOption.
func (h *Handle) Option(name string) (engine.Value, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.options[name]
	return v, ok
}

// SetProp stores a property without emitting events.
func (h *Handle) SetProp(name string, v engine.Value) {
	h.mu.Lock()
	h.props[name] = v
	h.mu.Unlock()
}

// Observed reports the observed properties and their formats.
func (h *Handle) Observed() map[string]engine.Format {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]engine.Format, len(h.observed))
	for k, v := range h.observed {
		out[k] = v
	}
	return out
}

// Commands returns the argument lists passed to Command.
func (h *Handle) Commands() [][]string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([][]string(nil), h.commands...)
}

// Calls returns the method call log in order.
func (h *Handle) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

// LogLevel returns the level passed to RequestLogMessages.
func (h *Handle) LogLevel() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.logLevel
}

func (h *Handle) Initialized() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.initialized
}

func (h *Handle) Destroyed() bool { return h.destroyed.Load() }

// Violations counts threading-rule breaches: use after TerminateDestroy,
// concurrent WaitEvent, or terminating while a WaitEvent is in flight.
func (h *Handle) Violations() int { return int(h.violations.Load()) }

func (h *Handle) String() string { return fmt.Sprintf("enginetest.Handle(%p)", h) }
