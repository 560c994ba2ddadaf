package manager

import (
	"context"
	"time"
)

// Teardown tracks the background release of a destroyed instance.
type Teardown struct {
	ID   InstanceID
	done chan struct{}
	err  error
}

func newTeardown(id InstanceID) *Teardown {
	return &Teardown{ID: id, done: make(chan struct{})}
}

// Done is closed when teardown has finished, successfully or not.
func (t *Teardown) Done() <-chan struct{} { return t.done }

// Err returns the teardown result. It is only meaningful after Done.
func (t *Teardown) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until teardown finishes or ctx is done.
func (t *Teardown) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Destroy removes id from the registry and releases its resources in the
// background. It returns as soon as the id is unresolvable; the returned
// Teardown may be ignored.
func (m *Manager) Destroy(id InstanceID) (*Teardown, error) {
	inst, td, err := m.detach(id)
	if err != nil {
		return nil, err
	}
	instancesLive.Dec()
	m.log.Info().Stringer("instance", id).Msg("instance destroy")
	m.publish(Event{Name: "destroy_start", InstanceID: id})
	go m.teardown(inst, td)
	return td, nil
}

// teardown releases the sink, stops and joins the bridge, waits for
// in-flight control calls, detaches the surface and terminates the handle.
// The whole sequence is bounded by teardownTimeout; on expiry the remaining
// native resources are leaked and reported.
func (m *Manager) teardown(inst *Instance, td *Teardown) {
	start := time.Now()
	deadline := time.NewTimer(m.teardownTimeout)
	defer deadline.Stop()

	// stop waits for a delivery in progress, so a sink that never returns
	// counts against the deadline like everything else.
	stopped := make(chan chan struct{}, 1)
	go func() { stopped <- inst.stop() }()
	var bridge chan struct{}
	select {
	case bridge = <-stopped:
	case <-deadline.C:
		m.finishTeardown(inst, td, start, "sink release")
		return
	}
	inst.handle.Wakeup()
	if bridge != nil {
		select {
		case <-bridge:
		case <-deadline.C:
			m.finishTeardown(inst, td, start, "bridge join")
			return
		}
	}

	locked := make(chan struct{})
	go func() {
		inst.opMu.Lock()
		close(locked)
	}()
	select {
	case <-locked:
	case <-deadline.C:
		m.finishTeardown(inst, td, start, "control call")
		return
	}
	defer inst.opMu.Unlock()

	if inst.hasSurface() && m.surfaces != nil {
		m.surfaces.Detach(inst.id)
		inst.setSurface(false)
	}

	terminated := make(chan struct{})
	go func() {
		inst.handle.TerminateDestroy()
		close(terminated)
	}()
	select {
	case <-terminated:
	case <-deadline.C:
		m.finishTeardown(inst, td, start, "terminate")
		return
	}
	inst.setState(StateDestroyed)
	m.finishTeardown(inst, td, start, "")
}

// finishTeardown records the outcome and completes td. A non-empty stuck
// names the step that exceeded the deadline.
func (m *Manager) finishTeardown(inst *Instance, td *Teardown, start time.Time, stuck string) {
	dur := time.Since(start)
	m.mu.Lock()
	delete(m.teardowns, td.ID)
	if stuck == "" {
		m.destroyedTotal++
	} else {
		m.leakedTotal++
	}
	m.mu.Unlock()

	teardownDuration.Observe(dur.Seconds())
	if stuck == "" {
		teardownsTotal.WithLabelValues("ok").Inc()
		m.log.Debug().Stringer("instance", td.ID).Dur("dur", dur).Msg("teardown done")
		m.publish(Event{Name: "teardown_done", InstanceID: td.ID, Fields: map[string]any{"dur_ms": dur.Milliseconds()}})
	} else {
		td.err = ErrTeardownTimeout
		teardownsTotal.WithLabelValues("timeout").Inc()
		teardownLeaks.Inc()
		m.log.Warn().Stringer("instance", td.ID).Str("step", stuck).Dur("dur", dur).Msg("teardown timed out; native resources leaked")
		m.publish(Event{Name: "teardown_leak", InstanceID: td.ID, Fields: map[string]any{"step": stuck}})
	}
	close(td.done)
}

// PendingTeardowns returns the teardowns that have not finished yet.
func (m *Manager) PendingTeardowns() []*Teardown {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Teardown, 0, len(m.teardowns))
	for _, td := range m.teardowns {
		out = append(out, td)
	}
	return out
}

// WaitTeardowns blocks until every teardown pending at call time finished
// or ctx is done. Teardown failures are not returned; see Teardown.Err.
func (m *Manager) WaitTeardowns(ctx context.Context) error {
	for _, td := range m.PendingTeardowns() {
		select {
		case <-td.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Close destroys every registered instance and waits for all teardowns.
func (m *Manager) Close(ctx context.Context) error {
	for _, id := range m.IDs() {
		if _, err := m.Destroy(id); err != nil && !IsNotFound(err) {
			return err
		}
	}
	return m.WaitTeardowns(ctx)
}
