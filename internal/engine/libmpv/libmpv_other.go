//go:build !darwin && !linux

package libmpv

import (
	"errors"

	"mpvd/internal/engine"
)

// Engine is unavailable on this platform.
type Engine struct{}

// Open always fails: purego dlopen is only wired for darwin and linux.
func Open(path string) (*Engine, error) {
	return nil, errors.New("libmpv: unsupported platform")
}

func (e *Engine) Path() string    { return "" }
func (e *Engine) Version() string { return "" }

func (e *Engine) Create() (engine.Handle, error) {
	return nil, engine.Error{Code: engine.ErrCodeUnsupported, Msg: "libmpv: unsupported platform"}
}
