package types

// OptionValue is one pre-initialize engine option.
type OptionValue struct {
	// Engine option name.
	// example: hwdec
	Name string `json:"name" example:"hwdec"`
	// String, integer or boolean value.
	// example: auto
	Value any `json:"value" swaggertype:"string" example:"auto"`
}

// CreateInstanceRequest is the body of POST /instances.
type CreateInstanceRequest struct {
	// Optional free-form label reported in /status.
	// example: preview
	Label string `json:"label,omitempty" example:"preview"`
	// Options applied in order before the instance is returned.
	Options []OptionValue `json:"options,omitempty"`
}

// CreateInstanceResponse is returned by POST /instances.
type CreateInstanceResponse struct {
	// Identifier of the new instance.
	// example: 1
	ID uint64 `json:"id" example:"1"`
	// Lifecycle state, always created.
	// example: created
	State string `json:"state" example:"created"`
}

// AttachSurfaceRequest is the body of POST /instances/{id}/surface.
type AttachSurfaceRequest struct {
	// Native window reference (X11 window id, HWND, NSView pointer).
	// example: 73400323
	Ref int64 `json:"ref" example:"73400323"`
}

// LoadFileRequest is the body of POST /instances/{id}/loadfile.
type LoadFileRequest struct {
	// Path or URL to play.
	// example: /home/user/media/big-buck-bunny.mkv
	Path string `json:"path" example:"/home/user/media/big-buck-bunny.mkv"`
	// Playlist mode: replace (default), append, append-play, insert-next, insert-next-play.
	// example: replace
	Mode string `json:"mode,omitempty" example:"replace"`
}

// SetPropertyRequest is the body of PUT /instances/{id}/properties/{name}.
type SetPropertyRequest struct {
	// String, number or boolean value.
	// example: true
	Value any `json:"value" swaggertype:"string" example:"true"`
}

// PropertyResponse is returned by GET /instances/{id}/properties/{name}.
type PropertyResponse struct {
	// Property name.
	// example: volume
	Name string `json:"name" example:"volume"`
	// Format the value was read in (string, int64, double, flag).
	// example: double
	Format string `json:"format" example:"double"`
	// Current value.
	// example: 100
	Value any `json:"value" swaggertype:"string" example:"100"`
}

// CommandRequest is the body of POST /instances/{id}/command.
type CommandRequest struct {
	// Command name followed by its arguments.
	// example: ["seek","10","relative"]
	Args []string `json:"args" example:"seek,10,relative"`
}

// DestroyResponse is returned by DELETE /instances/{id}.
type DestroyResponse struct {
	// example: 1
	ID uint64 `json:"id" example:"1"`
	// example: destroying
	State string `json:"state" example:"destroying"`
}

// MediaResponse wraps the list of files returned by GET /media.
type MediaResponse struct {
	// List of playable files.
	Files []MediaFile `json:"files"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: instance not found: 7
	Error string `json:"error" example:"instance not found: 7"`
	// HTTP status code.
	// example: 404
	Code int `json:"code" example:"404"`
	// Negative engine status code when the engine rejected the call.
	// example: -5
	EngineCode int `json:"engine_code,omitempty" example:"-5"`
}

// InstanceStatus summarizes a registered instance for /status.
type InstanceStatus struct {
	// example: 1
	ID uint64 `json:"id" example:"1"`
	// example: preview
	Label string `json:"label,omitempty" example:"preview"`
	// Lifecycle state (created, running).
	// example: running
	State string `json:"state" example:"running"`
	// Whether an event sink is registered.
	// example: true
	HasSink bool `json:"has_sink" example:"true"`
	// Whether the event bridge goroutine is running.
	// example: true
	BridgeRunning bool `json:"bridge_running" example:"true"`
	// Whether a render surface is attached.
	// example: false
	SurfaceAttached bool `json:"surface_attached" example:"false"`
	// Creation time (unix seconds).
	// example: 1700000000
	CreatedUnix int64 `json:"created_unix" example:"1700000000"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Registered instances in id order.
	Instances []InstanceStatus `json:"instances"`
	// Destroyed instances whose teardown has not finished.
	// example: 0
	PendingTeardowns int `json:"pending_teardowns" example:"0"`
	// example: 12
	CreatedTotal uint64 `json:"created_total" example:"12"`
	// example: 11
	DestroyedTotal uint64 `json:"destroyed_total" example:"11"`
	// Teardowns that timed out and leaked native resources.
	// example: 0
	LeakedTotal uint64 `json:"leaked_total" example:"0"`
	// Version of the loaded libmpv client API, if known.
	// example: 2.3
	EngineVersion string `json:"engine_version,omitempty" example:"2.3"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
