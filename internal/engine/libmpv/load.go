//go:build darwin || linux

// Package libmpv implements engine.Engine on top of libmpv, loaded at
// runtime with purego so the binary builds without cgo or mpv headers.
package libmpv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

var (
	libOnce    sync.Once
	libHandle  uintptr
	libInitErr error
	libPath    string
)

// libmpv function pointers
var (
	mpvClientAPIVersion   func() uint64
	mpvErrorString        func(code int32) string
	mpvFree               func(data uintptr)
	mpvCreate             func() uintptr
	mpvInitialize         func(ctx uintptr) int32
	mpvTerminateDestroy   func(ctx uintptr)
	mpvWaitEvent          func(ctx uintptr, timeout float64) uintptr
	mpvWakeup             func(ctx uintptr)
	mpvRequestLogMessages func(ctx uintptr, minLevel string) int32
	mpvObserveProperty    func(ctx uintptr, replyUserdata uint64, name string, format int32) int32
	mpvGetProperty        func(ctx uintptr, name string, format int32, data unsafe.Pointer) int32
	mpvSetProperty        func(ctx uintptr, name string, format int32, data unsafe.Pointer) int32
	mpvSetPropertyString  func(ctx uintptr, name string, data string) int32
	mpvSetOption          func(ctx uintptr, name string, format int32, data unsafe.Pointer) int32
	mpvSetOptionString    func(ctx uintptr, name string, data string) int32
	mpvCommand            func(ctx uintptr, args uintptr) int32
)

// load resolves libmpv once per process. An explicit path is tried first.
func load(explicit string) error {
	libOnce.Do(func() {
		libInitErr = loadLib(explicit)
	})
	return libInitErr
}

func loadLib(explicit string) error {
	var lastErr error
	for _, path := range libPaths(explicit) {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			lastErr = err
			continue
		}
		libHandle = handle
		libPath = path
		registerSymbols()
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("failed to load libmpv: %w", lastErr)
	}
	return errors.New("libmpv not found in any standard location")
}

func libPaths(explicit string) []string {
	var paths []string
	if explicit != "" {
		paths = append(paths, explicit)
	}
	if env := os.Getenv("MPVD_LIBMPV"); env != "" {
		paths = append(paths, env)
	}

	names := []string{"libmpv.so.2", "libmpv.so.1", "libmpv.so"}
	if runtime.GOOS == "darwin" {
		names = []string{"libmpv.2.dylib", "libmpv.dylib"}
	}

	// Next to the executable, then in a sibling lib/ directory
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		for _, n := range names {
			paths = append(paths, filepath.Join(exeDir, n), filepath.Join(exeDir, "..", "lib", n))
		}
	}

	// Let the dynamic loader search its own path
	paths = append(paths, names...)

	switch runtime.GOOS {
	case "darwin":
		paths = append(paths,
			"/opt/homebrew/lib/libmpv.dylib",
			"/usr/local/lib/libmpv.dylib",
		)
	case "linux":
		paths = append(paths,
			"/usr/lib/x86_64-linux-gnu/libmpv.so.2",
			"/usr/lib/aarch64-linux-gnu/libmpv.so.2",
			"/usr/local/lib/libmpv.so",
			"/usr/lib/libmpv.so",
		)
	}
	return paths
}

func registerSymbols() {
	purego.RegisterLibFunc(&mpvClientAPIVersion, libHandle, "mpv_client_api_version")
	purego.RegisterLibFunc(&mpvErrorString, libHandle, "mpv_error_string")
	purego.RegisterLibFunc(&mpvFree, libHandle, "mpv_free")

	purego.RegisterLibFunc(&mpvCreate, libHandle, "mpv_create")
	purego.RegisterLibFunc(&mpvInitialize, libHandle, "mpv_initialize")
	purego.RegisterLibFunc(&mpvTerminateDestroy, libHandle, "mpv_terminate_destroy")
	purego.RegisterLibFunc(&mpvWaitEvent, libHandle, "mpv_wait_event")
	purego.RegisterLibFunc(&mpvWakeup, libHandle, "mpv_wakeup")
	purego.RegisterLibFunc(&mpvRequestLogMessages, libHandle, "mpv_request_log_messages")

	purego.RegisterLibFunc(&mpvObserveProperty, libHandle, "mpv_observe_property")
	purego.RegisterLibFunc(&mpvGetProperty, libHandle, "mpv_get_property")
	purego.RegisterLibFunc(&mpvSetProperty, libHandle, "mpv_set_property")
	purego.RegisterLibFunc(&mpvSetPropertyString, libHandle, "mpv_set_property_string")
	purego.RegisterLibFunc(&mpvSetOption, libHandle, "mpv_set_option")
	purego.RegisterLibFunc(&mpvSetOptionString, libHandle, "mpv_set_option_string")
	purego.RegisterLibFunc(&mpvCommand, libHandle, "mpv_command")
}

// goString copies a NUL-terminated C string.
func goString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	p := unsafe.Pointer(ptr)
	n := 0
	for *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	if n == 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(p), n))
}

// cString returns a NUL-terminated copy of s owned by the Go heap.
func cString(s string) *byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return &b[0]
}
