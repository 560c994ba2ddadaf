package manager

import (
	"time"

	"mpvd/internal/engine"
)

// Message is a snapshot of one engine event, independent of how it is
// delivered.
type Message struct {
	InstanceID InstanceID      `json:"instance_id"`
	Kind       string          `json:"kind"`
	EventID    engine.EventID  `json:"event_id"`
	Error      int             `json:"error,omitempty"`
	Property   *PropertyChange `json:"property,omitempty"`
	Log        *LogLine        `json:"log,omitempty"`
	EndFile    *EndFile        `json:"end_file,omitempty"`
	Time       time.Time       `json:"time"`
}

// PropertyChange carries an observed property update. Value is null when
// the property became unavailable.
type PropertyChange struct {
	Name   string       `json:"name"`
	Format string       `json:"format"`
	Value  engine.Value `json:"value"`
}

type LogLine struct {
	Prefix string `json:"prefix"`
	Level  string `json:"level"`
	Text   string `json:"text"`
}

type EndFile struct {
	Reason string `json:"reason"`
	Error  int    `json:"error,omitempty"`
}

func newMessage(id InstanceID, ev *engine.Event) Message {
	msg := Message{
		InstanceID: id,
		Kind:       ev.ID.String(),
		EventID:    ev.ID,
		Error:      ev.Error,
		Time:       time.Now(),
	}
	if p := ev.Property; p != nil {
		msg.Property = &PropertyChange{Name: p.Name, Format: p.Format.String(), Value: p.Value}
	}
	if l := ev.Log; l != nil {
		msg.Log = &LogLine{Prefix: l.Prefix, Level: l.Level, Text: l.Text}
	}
	if f := ev.EndFile; f != nil {
		msg.EndFile = &EndFile{Reason: f.Reason.String(), Error: f.Error}
	}
	return msg
}

// ensureBridge starts the event loop for inst unless it is already running.
func (m *Manager) ensureBridge(inst *Instance) {
	done := inst.startBridge()
	if done == nil {
		return
	}
	bridgesActive.Inc()
	m.log.Debug().Stringer("instance", inst.id).Msg("bridge start")
	m.publish(Event{Name: "bridge_start", InstanceID: inst.id})
	go m.runBridge(inst, done)
}

// runBridge drains the engine event queue until a stop is requested or the
// engine shuts down. It never touches the sink directly; every delivery goes
// through the instance's delivery permit.
func (m *Manager) runBridge(inst *Instance, done chan struct{}) {
	defer close(done)
	defer bridgesActive.Dec()
	for inst.isRunning() {
		ev := inst.handle.WaitEvent(m.pollTimeout)
		if ev == nil {
			continue
		}
		if !inst.deliver(newMessage(inst.id, ev)) {
			m.log.Debug().Stringer("instance", inst.id).Msg("bridge stop requested")
			return
		}
		if ev.ID == engine.EventShutdown {
			m.log.Debug().Stringer("instance", inst.id).Msg("bridge saw engine shutdown")
			return
		}
	}
}
