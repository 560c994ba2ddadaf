package manager

import (
	"strconv"

	"mpvd/internal/engine"
)

// InstanceID identifies an instance for the lifetime of the process. IDs are
// allocated in increasing order starting at 1 and never reused.
type InstanceID uint64

func (id InstanceID) String() string { return strconv.FormatUint(uint64(id), 10) }

// ParseInstanceID parses the decimal form produced by String.
func ParseInstanceID(s string) (InstanceID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return InstanceID(n), nil
}

// State represents the lifecycle state of an instance.
type State string

const (
	StateCreated    State = "created"
	StateRunning    State = "running"
	StateDestroying State = "destroying"
	StateDestroyed  State = "destroyed"
)

// Option is a single pre-initialize engine option.
type Option struct {
	Name  string
	Value engine.Value
}

// InstanceConfig is applied by Create before the instance becomes visible.
type InstanceConfig struct {
	// Label is a free-form name reported in Status.
	Label string
	// Options are set in order on the fresh handle.
	Options []Option
}

// ObservedProperty is a property subscribed on Initialize.
type ObservedProperty struct {
	Name   string
	Format engine.Format
}

// observedProperties is the fixed set needed to reflect player state in a UI.
var observedProperties = []ObservedProperty{
	{Name: "pause", Format: engine.FormatFlag},
	{Name: "time-pos", Format: engine.FormatDouble},
	{Name: "duration", Format: engine.FormatDouble},
	{Name: "volume", Format: engine.FormatDouble},
	{Name: "core-idle", Format: engine.FormatFlag},
	{Name: "idle-active", Format: engine.FormatFlag},
	{Name: "paused-for-cache", Format: engine.FormatFlag},
	{Name: "cache-buffering-state", Format: engine.FormatInt64},
	{Name: "estimated-vf-fps", Format: engine.FormatDouble},
}

// ObservedProperties returns a copy of the properties subscribed on Initialize.
func ObservedProperties() []ObservedProperty {
	out := make([]ObservedProperty, len(observedProperties))
	copy(out, observedProperties)
	return out
}
