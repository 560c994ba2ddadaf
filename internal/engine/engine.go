// Package engine describes the native media engine that mpvd drives.
//
// The engine is consumed only through the Engine and Handle interfaces so the
// manager can run against libmpv (see engine/libmpv) or an in-memory fake
// (see engine/enginetest). Handles follow libmpv threading rules: every method
// is safe to call from any goroutine, except WaitEvent which must only ever be
// called by a single goroutine at a time.
package engine

import (
	"fmt"
	"time"
)

// Engine creates native handles.
type Engine interface {
	// Create allocates a new, uninitialized handle.
	Create() (Handle, error)
}

// Handle is one native engine session.
type Handle interface {
	Initialize() error
	// TerminateDestroy stops playback and frees the handle. The handle must not
	// be used afterwards, and no goroutine may be blocked in WaitEvent.
	TerminateDestroy()
	// WaitEvent blocks up to timeout for the next event. It returns nil when
	// the timeout elapsed or Wakeup was called with nothing queued.
	WaitEvent(timeout time.Duration) *Event
	// Wakeup interrupts a concurrent WaitEvent.
	Wakeup()
	RequestLogMessages(level string) error
	ObserveProperty(name string, format Format) error
	GetProperty(name string, format Format) (Value, error)
	SetProperty(name string, v Value) error
	SetOption(name string, v Value) error
	Command(args ...string) error
}

// Error is a negative engine status code paired with the engine's own text.
type Error struct {
	Code int
	Msg  string
}

func (e Error) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("engine error %d", e.Code)
	}
	return e.Msg
}

// Engine status codes mirrored from mpv/client.h.
const (
	ErrCodeSuccess             = 0
	ErrCodeEventQueueFull      = -1
	ErrCodeNoMem               = -2
	ErrCodeUninitialized       = -3
	ErrCodeInvalidParameter    = -4
	ErrCodeOptionNotFound      = -5
	ErrCodeOptionFormat        = -6
	ErrCodeOptionError         = -7
	ErrCodePropertyNotFound    = -8
	ErrCodePropertyFormat      = -9
	ErrCodePropertyUnavailable = -10
	ErrCodePropertyError       = -11
	ErrCodeCommand             = -12
	ErrCodeLoadingFailed       = -13
	ErrCodeAOInitFailed        = -14
	ErrCodeVOInitFailed        = -15
	ErrCodeNothingToPlay       = -16
	ErrCodeUnknownFormat       = -17
	ErrCodeUnsupported         = -18
	ErrCodeNotImplemented      = -19
	ErrCodeGeneric             = -20
)
