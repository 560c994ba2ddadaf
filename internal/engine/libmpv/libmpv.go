//go:build darwin || linux

package libmpv

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"
	"unsafe"

	"mpvd/internal/engine"
)

// Engine creates libmpv handles.
type Engine struct {
	path string
}

// Open loads libmpv. path may be empty to search the default locations.
func Open(path string) (*Engine, error) {
	if err := load(path); err != nil {
		return nil, err
	}
	return &Engine{path: libPath}, nil
}

// Path reports the library file that was loaded.
func (e *Engine) Path() string { return e.path }

// Version returns the client API version as "major.minor".
func (e *Engine) Version() string {
	v := mpvClientAPIVersion()
	return fmt.Sprintf("%d.%d", v>>16, v&0xffff)
}

func (e *Engine) Create() (engine.Handle, error) {
	ctx := mpvCreate()
	if ctx == 0 {
		return nil, engine.Error{Code: engine.ErrCodeNoMem, Msg: "mpv_create returned NULL"}
	}
	h := &handle{}
	h.ctx.Store(ctx)
	return h, nil
}

// C layouts from mpv/client.h (64-bit ABI).
type cEvent struct {
	eventID       int32
	err           int32
	replyUserdata uint64
	data          unsafe.Pointer
}

type cEventProperty struct {
	name   *byte
	format int32
	_      int32
	data   unsafe.Pointer
}

type cEventLogMessage struct {
	prefix   *byte
	level    *byte
	text     *byte
	logLevel int32
}

type cEventEndFile struct {
	reason int32
	err    int32
}

type handle struct {
	ctx atomic.Uintptr
}

func check(code int32) error {
	if code >= 0 {
		return nil
	}
	return engine.Error{Code: int(code), Msg: mpvErrorString(code)}
}

var errDestroyed = engine.Error{Code: engine.ErrCodeUninitialized, Msg: "handle destroyed"}

func (h *handle) Initialize() error {
	ctx := h.ctx.Load()
	if ctx == 0 {
		return errDestroyed
	}
	return check(mpvInitialize(ctx))
}

func (h *handle) TerminateDestroy() {
	if ctx := h.ctx.Swap(0); ctx != 0 {
		mpvTerminateDestroy(ctx)
	}
}

func (h *handle) WaitEvent(timeout time.Duration) *engine.Event {
	ctx := h.ctx.Load()
	if ctx == 0 {
		return nil
	}
	ptr := mpvWaitEvent(ctx, timeout.Seconds())
	if ptr == 0 {
		return nil
	}
	ev := (*cEvent)(unsafe.Pointer(ptr))
	id := engine.EventID(ev.eventID)
	if id == engine.EventNone {
		return nil
	}
	out := &engine.Event{ID: id, Error: int(ev.err)}
	if ev.data == nil {
		return out
	}
	switch id {
	case engine.EventPropertyChange:
		p := (*cEventProperty)(ev.data)
		out.Property = &engine.PropertyEvent{
			Name:   goString(uintptr(unsafe.Pointer(p.name))),
			Format: engine.Format(p.format),
			Value:  readValue(engine.Format(p.format), p.data),
		}
	case engine.EventLogMessage:
		l := (*cEventLogMessage)(ev.data)
		out.Log = &engine.LogEvent{
			Prefix: goString(uintptr(unsafe.Pointer(l.prefix))),
			Level:  goString(uintptr(unsafe.Pointer(l.level))),
			Text:   goString(uintptr(unsafe.Pointer(l.text))),
		}
	case engine.EventEndFile:
		f := (*cEventEndFile)(ev.data)
		out.EndFile = &engine.EndFileEvent{Reason: engine.EndFileReason(f.reason), Error: int(f.err)}
	}
	return out
}

func readValue(format engine.Format, data unsafe.Pointer) engine.Value {
	if data == nil {
		return engine.Value{}
	}
	switch format {
	case engine.FormatFlag:
		return engine.Flag(*(*int32)(data) != 0)
	case engine.FormatInt64:
		return engine.Int64(*(*int64)(data))
	case engine.FormatDouble:
		return engine.Double(*(*float64)(data))
	case engine.FormatString, engine.FormatOSDString:
		return engine.String(goString(*(*uintptr)(data)))
	default:
		return engine.Value{}
	}
}

func (h *handle) Wakeup() {
	if ctx := h.ctx.Load(); ctx != 0 {
		mpvWakeup(ctx)
	}
}

func (h *handle) RequestLogMessages(level string) error {
	ctx := h.ctx.Load()
	if ctx == 0 {
		return errDestroyed
	}
	return check(mpvRequestLogMessages(ctx, level))
}

func (h *handle) ObserveProperty(name string, format engine.Format) error {
	ctx := h.ctx.Load()
	if ctx == 0 {
		return errDestroyed
	}
	return check(mpvObserveProperty(ctx, 0, name, int32(format)))
}

func (h *handle) GetProperty(name string, format engine.Format) (engine.Value, error) {
	ctx := h.ctx.Load()
	if ctx == 0 {
		return engine.Value{}, errDestroyed
	}
	switch format {
	case engine.FormatString, engine.FormatOSDString:
		var ptr uintptr
		if err := check(mpvGetProperty(ctx, name, int32(format), unsafe.Pointer(&ptr))); err != nil {
			return engine.Value{}, err
		}
		s := goString(ptr)
		mpvFree(ptr)
		return engine.String(s), nil
	case engine.FormatInt64:
		var i int64
		if err := check(mpvGetProperty(ctx, name, int32(format), unsafe.Pointer(&i))); err != nil {
			return engine.Value{}, err
		}
		return engine.Int64(i), nil
	case engine.FormatDouble:
		var f float64
		if err := check(mpvGetProperty(ctx, name, int32(format), unsafe.Pointer(&f))); err != nil {
			return engine.Value{}, err
		}
		return engine.Double(f), nil
	case engine.FormatFlag:
		var flag int32
		if err := check(mpvGetProperty(ctx, name, int32(format), unsafe.Pointer(&flag))); err != nil {
			return engine.Value{}, err
		}
		return engine.Flag(flag != 0), nil
	default:
		return engine.Value{}, engine.Error{Code: engine.ErrCodeUnsupported, Msg: "unsupported property format " + format.String()}
	}
}

// setter is the shared shape of mpv_set_property and mpv_set_option.
type setter struct {
	typed func(ctx uintptr, name string, format int32, data unsafe.Pointer) int32
	str   func(ctx uintptr, name string, data string) int32
}

func (h *handle) set(s setter, name string, v engine.Value) error {
	ctx := h.ctx.Load()
	if ctx == 0 {
		return errDestroyed
	}
	switch v.Format() {
	case engine.FormatString, engine.FormatOSDString:
		return check(s.str(ctx, name, v.Str()))
	case engine.FormatInt64:
		i := v.Int()
		return check(s.typed(ctx, name, int32(engine.FormatInt64), unsafe.Pointer(&i)))
	case engine.FormatDouble:
		f := v.Float()
		return check(s.typed(ctx, name, int32(engine.FormatDouble), unsafe.Pointer(&f)))
	case engine.FormatFlag:
		var flag int32
		if v.Bool() {
			flag = 1
		}
		return check(s.typed(ctx, name, int32(engine.FormatFlag), unsafe.Pointer(&flag)))
	default:
		return engine.Error{Code: engine.ErrCodeUnsupported, Msg: "unsupported value format " + v.Format().String()}
	}
}

func (h *handle) SetProperty(name string, v engine.Value) error {
	return h.set(setter{typed: mpvSetProperty, str: mpvSetPropertyString}, name, v)
}

func (h *handle) SetOption(name string, v engine.Value) error {
	return h.set(setter{typed: mpvSetOption, str: mpvSetOptionString}, name, v)
}

func (h *handle) Command(args ...string) error {
	ctx := h.ctx.Load()
	if ctx == 0 {
		return errDestroyed
	}
	argv := make([]*byte, 0, len(args)+1)
	for _, a := range args {
		argv = append(argv, cString(a))
	}
	argv = append(argv, nil)
	code := mpvCommand(ctx, uintptr(unsafe.Pointer(&argv[0])))
	runtime.KeepAlive(argv)
	return check(code)
}
