// Package surface binds native render surfaces to engine handles.
package surface

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"mpvd/internal/engine"
	"mpvd/internal/manager"
)

// WindowEmbedder renders into a host window by handing its native id to the
// engine through the "wid" option (X11 window, HWND or NSView pointer).
type WindowEmbedder struct {
	mu   sync.Mutex
	refs map[manager.InstanceID]int64
	log  zerolog.Logger
}

// NewWindowEmbedder returns an embedder. A nil logger disables logging.
func NewWindowEmbedder(log *zerolog.Logger) *WindowEmbedder {
	w := &WindowEmbedder{refs: map[manager.InstanceID]int64{}, log: zerolog.Nop()}
	if log != nil {
		w.log = log.With().Str("component", "surface").Logger()
	}
	return w
}

// Attach sets wid on h. Before initialize it is set as an option; once the
// engine runs the option is rejected and the property is used instead.
func (w *WindowEmbedder) Attach(id manager.InstanceID, ref int64, h engine.Handle) error {
	if ref == 0 {
		return engine.Error{Code: engine.ErrCodeInvalidParameter, Msg: "invalid window reference 0"}
	}
	v := engine.Int64(ref)
	err := h.SetOption("wid", v)
	if err != nil {
		var ee engine.Error
		if !errors.As(err, &ee) {
			return fmt.Errorf("set wid option: %w", err)
		}
		if perr := h.SetProperty("wid", v); perr != nil {
			return perr
		}
	}
	w.mu.Lock()
	w.refs[id] = ref
	w.mu.Unlock()
	w.log.Debug().Stringer("instance", id).Int64("wid", ref).Msg("surface attached")
	return nil
}

// Detach forgets the window of id. The engine handle is being destroyed, so
// nothing is sent to it.
func (w *WindowEmbedder) Detach(id manager.InstanceID) {
	w.mu.Lock()
	_, ok := w.refs[id]
	delete(w.refs, id)
	w.mu.Unlock()
	if ok {
		w.log.Debug().Stringer("instance", id).Msg("surface detached")
	}
}

// Ref returns the window attached to id.
func (w *WindowEmbedder) Ref(id manager.InstanceID) (int64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ref, ok := w.refs[id]
	return ref, ok
}
