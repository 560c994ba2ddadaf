package manager

import (
	"errors"
	"fmt"

	"mpvd/internal/engine"
)

// SetOption sets a pre-initialize engine option.
func (m *Manager) SetOption(id InstanceID, name string, v engine.Value) error {
	inst, release, err := m.acquire(id)
	if err != nil {
		return err
	}
	defer release()
	if err := inst.requireCreated("set option"); err != nil {
		return err
	}
	if err := checkOptionValue(v); err != nil {
		return err
	}
	if err := inst.handle.SetOption(name, v); err != nil {
		return engineErr(EngineOption, id, err)
	}
	return nil
}

// Initialize starts the engine, subscribes the observed property set and
// moves the instance to running. On engine failure the state is unchanged
// so the caller may fix options and retry.
func (m *Manager) Initialize(id InstanceID) error {
	inst, release, err := m.acquire(id)
	if err != nil {
		return err
	}
	defer release()
	if err := inst.requireCreated("initialize"); err != nil {
		return err
	}
	if err := inst.handle.Initialize(); err != nil {
		m.log.Warn().Err(err).Stringer("instance", id).Msg("engine initialize failed")
		return engineErr(EngineInit, id, err)
	}
	if m.engineLogLevel != "no" {
		if err := inst.handle.RequestLogMessages(m.engineLogLevel); err != nil {
			m.log.Debug().Err(err).Stringer("instance", id).Msg("request log messages failed")
		}
	}
	// Observe failures are not fatal; the property just never reports.
	for _, p := range observedProperties {
		if err := inst.handle.ObserveProperty(p.Name, p.Format); err != nil {
			m.log.Debug().Err(err).Stringer("instance", id).Str("property", p.Name).Msg("observe failed")
		}
	}
	if inst.markRunning() {
		m.ensureBridge(inst)
	}
	m.log.Info().Stringer("instance", id).Msg("instance initialized")
	m.publish(Event{Name: "instance_initialize", InstanceID: id})
	return nil
}

// loadModes are the loadfile modes accepted by LoadFile.
var loadModes = map[string]bool{
	"replace":          true,
	"append":           true,
	"append-play":      true,
	"insert-next":      true,
	"insert-next-play": true,
}

// LoadFile issues "loadfile <path> <mode>". An empty mode means replace.
func (m *Manager) LoadFile(id InstanceID, path, mode string) error {
	if mode == "" {
		mode = "replace"
	}
	if !loadModes[mode] {
		return engineErr(EngineCommand, id, engine.Error{Code: engine.ErrCodeInvalidParameter, Msg: "invalid loadfile mode " + mode})
	}
	return m.Command(id, "loadfile", path, mode)
}

// Command dispatches a raw engine command.
func (m *Manager) Command(id InstanceID, args ...string) error {
	inst, release, err := m.acquire(id)
	if err != nil {
		return err
	}
	defer release()
	if err := inst.handle.Command(args...); err != nil {
		return engineErr(EngineCommand, id, err)
	}
	return nil
}

// SetProperty sets a runtime property.
func (m *Manager) SetProperty(id InstanceID, name string, v engine.Value) error {
	inst, release, err := m.acquire(id)
	if err != nil {
		return err
	}
	defer release()
	if err := checkPropertyValue(v); err != nil {
		return err
	}
	if err := inst.handle.SetProperty(name, v); err != nil {
		return engineErr(EngineProperty, id, err)
	}
	return nil
}

// propertyFormatOrder is the order in which GetProperty tries formats.
var propertyFormatOrder = []engine.Format{
	engine.FormatString,
	engine.FormatInt64,
	engine.FormatDouble,
	engine.FormatFlag,
}

// GetProperty reads name in the first format the engine accepts. ok is false
// when no format matched.
func (m *Manager) GetProperty(id InstanceID, name string) (v engine.Value, ok bool, err error) {
	inst, release, err := m.acquire(id)
	if err != nil {
		return engine.Value{}, false, err
	}
	defer release()
	for _, f := range propertyFormatOrder {
		if v, err := inst.handle.GetProperty(name, f); err == nil {
			return v, true, nil
		}
	}
	return engine.Value{}, false, nil
}

// AttachSurface binds a render surface to the instance. It is idempotent:
// once a surface is attached further calls succeed without side effects.
func (m *Manager) AttachSurface(id InstanceID, ref int64) error {
	inst, release, err := m.acquire(id)
	if err != nil {
		return err
	}
	defer release()
	if inst.hasSurface() {
		return nil
	}
	if m.surfaces == nil {
		return ErrDependencyUnavailable("no surface attacher configured")
	}
	if err := m.surfaces.Attach(id, ref, inst.handle); err != nil {
		var ee engine.Error
		if errors.As(err, &ee) {
			return engineErr(EngineOption, id, err)
		}
		return fmt.Errorf("attach surface: %w", err)
	}
	inst.setSurface(true)
	return nil
}

// SetEventCallback installs sink as the instance's event sink, releasing any
// previous one first. The bridge is started if the instance is running; for
// a created instance it starts on Initialize. A nil sink just releases the
// current one.
func (m *Manager) SetEventCallback(id InstanceID, sink Sink) error {
	inst, release, err := m.acquire(id)
	if err != nil {
		return err
	}
	defer release()
	if inst.replaceSink(sink) && sink != nil {
		m.ensureBridge(inst)
	}
	return nil
}

// ClearEventCallback releases s if it is still the instance's sink. It is a
// no-op when s has already been replaced.
func (m *Manager) ClearEventCallback(id InstanceID, s *ChannelSink) error {
	inst, release, err := m.acquire(id)
	if err != nil {
		return err
	}
	defer release()
	inst.clearSinkIf(s)
	return nil
}
