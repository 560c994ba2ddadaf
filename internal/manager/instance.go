package manager

import (
	"sync"
	"sync/atomic"
	"time"

	"mpvd/internal/engine"
)

// Instance owns one engine handle and everything bound to it.
//
// Lock order: permit before mu. Nothing that holds mu or the registry lock
// may take permit, because the bridge holds permit while a sink runs.
type Instance struct {
	id      InstanceID
	label   string
	created time.Time
	handle  engine.Handle

	// opMu serializes control calls against each other and against the
	// handle release in teardown.
	opMu sync.Mutex

	// detached is set under the registry lock when the id is removed, always
	// before state leaves created/running.
	detached atomic.Bool
	state    atomic.Value // State
	hasSink  atomic.Bool

	// permit is the delivery permit. It guards running, closed and sink; the
	// bridge holds it across every TrySend.
	permit  sync.Mutex
	running bool
	closed  bool
	sink    Sink

	// mu guards bookkeeping that readers such as Status need while a sink
	// may be running.
	mu              sync.Mutex
	bridge          chan struct{}
	surfaceAttached bool
}

func newInstance(id InstanceID, label string, h engine.Handle) *Instance {
	inst := &Instance{
		id:      id,
		label:   label,
		created: time.Now(),
		handle:  h,
	}
	inst.state.Store(StateCreated)
	return inst
}

func (inst *Instance) currentState() State { return inst.state.Load().(State) }
func (inst *Instance) setState(s State)    { inst.state.Store(s) }

// requireCreated returns nil while the instance still accepts pre-initialize
// calls. A destroy that raced the caller's acquire reads as NotFound.
func (inst *Instance) requireCreated(op string) error {
	st := inst.currentState()
	if st == StateCreated {
		return nil
	}
	if inst.detached.Load() {
		return ErrNotFound(inst.id)
	}
	if st == StateRunning && op == "initialize" {
		return ErrAlreadyInitialized(inst.id)
	}
	return ErrInvalidState(inst.id, op, st)
}

// markRunning moves a created instance to running and reports whether a
// sink was registered beforehand. It is a no-op once destroy has begun.
func (inst *Instance) markRunning() (hasSink bool) {
	inst.permit.Lock()
	defer inst.permit.Unlock()
	if inst.closed || !inst.state.CompareAndSwap(StateCreated, StateRunning) {
		return false
	}
	inst.running = true
	return inst.sink != nil
}

func (inst *Instance) hasSurface() bool {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.surfaceAttached
}

func (inst *Instance) setSurface(attached bool) {
	inst.mu.Lock()
	inst.surfaceAttached = attached
	inst.mu.Unlock()
}

func (inst *Instance) isRunning() bool {
	inst.permit.Lock()
	defer inst.permit.Unlock()
	return inst.running
}

// setSinkLocked installs s; permit must be held.
func (inst *Instance) setSinkLocked(s Sink) {
	inst.sink = s
	inst.hasSink.Store(s != nil)
}

// replaceSink releases the current sink before installing s. A sink handed
// to a closed instance is released immediately.
func (inst *Instance) replaceSink(s Sink) (running bool) {
	inst.permit.Lock()
	defer inst.permit.Unlock()
	if old := inst.sink; old != nil {
		inst.setSinkLocked(nil)
		old.Release()
	}
	if inst.closed {
		if s != nil {
			s.Release()
		}
		return false
	}
	inst.setSinkLocked(s)
	return inst.running
}

// clearSinkIf releases and clears the sink if it is s.
func (inst *Instance) clearSinkIf(s *ChannelSink) bool {
	inst.permit.Lock()
	defer inst.permit.Unlock()
	cur, ok := inst.sink.(*ChannelSink)
	if !ok || cur != s {
		return false
	}
	inst.setSinkLocked(nil)
	s.Release()
	return true
}

// startBridge records a new bridge task unless one exists or the instance is
// closed. It returns the done channel of the task to run, or nil.
func (inst *Instance) startBridge() chan struct{} {
	inst.permit.Lock()
	defer inst.permit.Unlock()
	if inst.closed || !inst.running {
		return nil
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.bridge != nil {
		return nil
	}
	inst.bridge = make(chan struct{})
	return inst.bridge
}

// deliver is the delivery permit: running and sink are checked and used in
// one critical section. It returns false once a stop has been requested.
func (inst *Instance) deliver(msg Message) bool {
	inst.permit.Lock()
	defer inst.permit.Unlock()
	if !inst.running {
		return false
	}
	if inst.sink == nil {
		bridgeMessages.WithLabelValues("no_sink").Inc()
		return true
	}
	if inst.sink.TrySend(msg) {
		bridgeMessages.WithLabelValues("delivered").Inc()
	} else {
		bridgeMessages.WithLabelValues("dropped").Inc()
	}
	return true
}

// stop releases the sink, clears running and closes the instance to new
// sinks and bridges. It returns the bridge done channel, if any. It waits
// for a delivery in progress to finish.
func (inst *Instance) stop() chan struct{} {
	inst.permit.Lock()
	defer inst.permit.Unlock()
	if inst.sink != nil {
		inst.sink.Release()
		inst.setSinkLocked(nil)
	}
	inst.running = false
	inst.closed = true
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.bridge
}

// InstanceInfo is a point-in-time view of an instance.
type InstanceInfo struct {
	ID              InstanceID
	Label           string
	State           State
	HasSink         bool
	BridgeRunning   bool
	SurfaceAttached bool
	Created         time.Time
}

func (inst *Instance) info() InstanceInfo {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	bridgeRunning := false
	if inst.bridge != nil {
		select {
		case <-inst.bridge:
		default:
			bridgeRunning = true
		}
	}
	return InstanceInfo{
		ID:              inst.id,
		Label:           inst.label,
		State:           inst.currentState(),
		HasSink:         inst.hasSink.Load(),
		BridgeRunning:   bridgeRunning,
		SurfaceAttached: inst.surfaceAttached,
		Created:         inst.created,
	}
}
