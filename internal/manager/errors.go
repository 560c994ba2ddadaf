package manager

import (
	"errors"
	"net/http"

	"mpvd/internal/engine"
)

// notFoundError signals an unknown or already destroyed instance id.
type notFoundError struct{ id InstanceID }

func (e notFoundError) Error() string   { return "instance not found: " + e.id.String() }
func (e notFoundError) StatusCode() int { return http.StatusNotFound }

// ErrNotFound returns an error for an id that does not resolve in the registry.
func ErrNotFound(id InstanceID) error { return notFoundError{id: id} }

// IsNotFound reports whether err indicates a missing instance id.
func IsNotFound(err error) bool {
	var e notFoundError
	return errors.As(err, &e)
}

// invalidStateError signals an operation not allowed in the current
// lifecycle state, e.g. setting an option after initialize.
type invalidStateError struct {
	id      InstanceID
	op      string
	state   State
	already bool
}

func (e invalidStateError) Error() string {
	if e.already {
		return "instance " + e.id.String() + " already initialized"
	}
	return e.op + ": instance " + e.id.String() + " is " + string(e.state)
}

func (e invalidStateError) StatusCode() int { return http.StatusConflict }

func ErrInvalidState(id InstanceID, op string, state State) error {
	return invalidStateError{id: id, op: op, state: state}
}

func ErrAlreadyInitialized(id InstanceID) error {
	return invalidStateError{id: id, op: "initialize", state: StateRunning, already: true}
}

// IsInvalidState reports whether err is a lifecycle state violation,
// including double initialize.
func IsInvalidState(err error) bool {
	var e invalidStateError
	return errors.As(err, &e)
}

// IsAlreadyInitialized reports whether err came from a repeated Initialize.
func IsAlreadyInitialized(err error) bool {
	var e invalidStateError
	return errors.As(err, &e) && e.already
}

// unsupportedValueError signals a caller value the engine cannot encode.
type unsupportedValueError struct{ what string }

func (e unsupportedValueError) Error() string   { return "unsupported value type: " + e.what }
func (e unsupportedValueError) StatusCode() int { return http.StatusBadRequest }

func ErrUnsupportedValue(what string) error { return unsupportedValueError{what: what} }

func IsUnsupportedValue(err error) bool {
	var e unsupportedValueError
	return errors.As(err, &e)
}

// EngineErrorKind tags which engine call failed.
type EngineErrorKind string

const (
	EngineCreate   EngineErrorKind = "create"
	EngineInit     EngineErrorKind = "init"
	EngineOption   EngineErrorKind = "option"
	EngineCommand  EngineErrorKind = "command"
	EngineProperty EngineErrorKind = "property"
)

// engineError wraps a failure reported by the engine itself.
type engineError struct {
	kind EngineErrorKind
	id   InstanceID
	err  error
}

func (e engineError) Error() string {
	return "engine " + string(e.kind) + " error: " + e.err.Error()
}

func (e engineError) Unwrap() error { return e.err }

func (e engineError) StatusCode() int {
	if e.kind == EngineCreate {
		return http.StatusServiceUnavailable
	}
	return http.StatusUnprocessableEntity
}

// Code returns the engine status code, or 0 when the cause was not an
// engine.Error.
func (e engineError) Code() int {
	var ee engine.Error
	if errors.As(e.err, &ee) {
		return ee.Code
	}
	return 0
}

func engineErr(kind EngineErrorKind, id InstanceID, err error) error {
	return engineError{kind: kind, id: id, err: err}
}

// IsEngineError reports whether err is an engine failure of the given kind.
func IsEngineError(err error, kind EngineErrorKind) bool {
	var e engineError
	return errors.As(err, &e) && e.kind == kind
}

// EngineCode extracts the engine status code carried by err, if any.
func EngineCode(err error) (int, bool) {
	var e engineError
	if !errors.As(err, &e) {
		return 0, false
	}
	code := e.Code()
	return code, code != 0
}

// dependencyUnavailableError signals a missing collaborator (no surface
// attacher configured, libmpv not loaded) so the HTTP layer can return 503.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string   { return e.msg }
func (e dependencyUnavailableError) StatusCode() int { return http.StatusServiceUnavailable }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing collaborator.
func IsDependencyUnavailable(err error) bool {
	var e dependencyUnavailableError
	return errors.As(err, &e)
}

// ErrTeardownTimeout is the result of a teardown that did not finish within
// the configured bound. The instance's native resources are leaked.
var ErrTeardownTimeout = errors.New("teardown timed out")

// checkOptionValue accepts the option encodings: string, int64 and flag.
func checkOptionValue(v engine.Value) error {
	switch v.Format() {
	case engine.FormatString, engine.FormatInt64, engine.FormatFlag:
		return nil
	default:
		return ErrUnsupportedValue("option value of format " + v.Format().String())
	}
}

// checkPropertyValue accepts string, int64, double and flag.
func checkPropertyValue(v engine.Value) error {
	switch v.Format() {
	case engine.FormatString, engine.FormatInt64, engine.FormatDouble, engine.FormatFlag:
		return nil
	default:
		return ErrUnsupportedValue("property value of format " + v.Format().String())
	}
}

// ValueOf converts a decoded JSON/config value, mapping conversion failures
// to an unsupported value error.
func ValueOf(x any) (engine.Value, error) {
	v, err := engine.ValueOf(x)
	if err != nil {
		var ute engine.UnsupportedTypeError
		if errors.As(err, &ute) {
			return engine.Value{}, ErrUnsupportedValue(ute.Type)
		}
		return engine.Value{}, err
	}
	return v, nil
}
