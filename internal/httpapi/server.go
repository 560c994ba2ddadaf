package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mpvd/internal/engine"
	"mpvd/internal/library"
	"mpvd/internal/manager"
	"mpvd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
// *manager.Manager implements it.
type Service interface {
	Create(ctx context.Context, cfg manager.InstanceConfig) (manager.InstanceID, error)
	Info(id manager.InstanceID) (manager.InstanceInfo, error)
	SetOption(id manager.InstanceID, name string, v engine.Value) error
	Initialize(id manager.InstanceID) error
	AttachSurface(id manager.InstanceID, ref int64) error
	LoadFile(id manager.InstanceID, path, mode string) error
	GetProperty(id manager.InstanceID, name string) (engine.Value, bool, error)
	SetProperty(id manager.InstanceID, name string, v engine.Value) error
	Command(id manager.InstanceID, args ...string) error
	SetEventCallback(id manager.InstanceID, sink manager.Sink) error
	ClearEventCallback(id manager.InstanceID, sink *manager.ChannelSink) error
	Destroy(id manager.InstanceID) (*manager.Teardown, error)
	Status() types.StatusResponse
	Ready() bool
}

// MediaLister lists playable files for GET /media.
type MediaLister interface {
	List() ([]types.MediaFile, error)
}

// PathResolver is implemented by media listers that also confine loadfile
// paths. library.Dir implements it.
type PathResolver interface {
	Resolve(path string) (string, error)
}

// NewMux builds the router. media may be nil, in which case /media is 503.
func NewMux(svc Service, media MediaLister) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(RequestLogger)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}
	// Compression for JSON endpoints; event streams are not compressed.
	r.Use(middleware.Compress(5, "application/json"))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	h := &handlers{svc: svc, media: media}
	r.Route("/instances", func(r chi.Router) {
		r.Post("/", h.createInstance)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getInstance)
			r.Delete("/", h.destroyInstance)
			r.Post("/options", h.setOption)
			r.Post("/initialize", h.initialize)
			r.Post("/surface", h.attachSurface)
			r.Post("/loadfile", h.loadFile)
			r.Get("/properties/{name}", h.getProperty)
			r.Put("/properties/{name}", h.setProperty)
			r.Post("/command", h.command)
			r.Get("/events", h.events)
		})
	})

	r.Get("/media", h.listMedia)

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("engine unavailable"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

type handlers struct {
	svc   Service
	media MediaLister
}

// instanceID parses the {id} URL parameter, writing a 400 on failure.
func instanceID(w http.ResponseWriter, r *http.Request) (manager.InstanceID, bool) {
	id, err := manager.ParseInstanceID(chi.URLParam(r, "id"))
	if err != nil || id == 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid instance id")
		return 0, false
	}
	return id, true
}

// decodeJSON reads a size-limited JSON body. Numbers are kept as json.Number
// so integer values reach the engine as int64. An empty body leaves v as is.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (h *handlers) createInstance(w http.ResponseWriter, r *http.Request) {
	var req types.CreateInstanceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cfg := manager.InstanceConfig{Label: req.Label}
	for _, o := range req.Options {
		if o.Name == "" {
			writeJSONError(w, http.StatusBadRequest, "option name is required")
			return
		}
		v, err := manager.ValueOf(o.Value)
		if err != nil {
			writeError(w, r, err)
			return
		}
		cfg.Options = append(cfg.Options, manager.Option{Name: o.Name, Value: v})
	}
	id, err := h.svc.Create(r.Context(), cfg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.CreateInstanceResponse{ID: uint64(id), State: string(manager.StateCreated)})
}

func (h *handlers) getInstance(w http.ResponseWriter, r *http.Request) {
	id, ok := instanceID(w, r)
	if !ok {
		return
	}
	info, err := h.svc.Info(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.InstanceStatus{
		ID:              uint64(info.ID),
		Label:           info.Label,
		State:           string(info.State),
		HasSink:         info.HasSink,
		BridgeRunning:   info.BridgeRunning,
		SurfaceAttached: info.SurfaceAttached,
		CreatedUnix:     info.Created.Unix(),
	})
}

func (h *handlers) destroyInstance(w http.ResponseWriter, r *http.Request) {
	id, ok := instanceID(w, r)
	if !ok {
		return
	}
	if _, err := h.svc.Destroy(id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, types.DestroyResponse{ID: uint64(id), State: string(manager.StateDestroying)})
}

func (h *handlers) setOption(w http.ResponseWriter, r *http.Request) {
	id, ok := instanceID(w, r)
	if !ok {
		return
	}
	var req types.OptionValue
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeJSONError(w, http.StatusBadRequest, "name is required")
		return
	}
	v, err := manager.ValueOf(req.Value)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.SetOption(id, req.Name, v); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) initialize(w http.ResponseWriter, r *http.Request) {
	id, ok := instanceID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Initialize(id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) attachSurface(w http.ResponseWriter, r *http.Request) {
	id, ok := instanceID(w, r)
	if !ok {
		return
	}
	var req types.AttachSurfaceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.AttachSurface(id, req.Ref); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) loadFile(w http.ResponseWriter, r *http.Request) {
	id, ok := instanceID(w, r)
	if !ok {
		return
	}
	var req types.LoadFileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		writeJSONError(w, http.StatusBadRequest, "path is required")
		return
	}
	path := req.Path
	if pr, ok := h.media.(PathResolver); ok {
		resolved, err := pr.Resolve(path)
		if errors.Is(err, library.ErrOutsideDir) {
			writeJSONError(w, http.StatusForbidden, err.Error())
			return
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		path = resolved
	}
	if err := h.svc.LoadFile(id, path, req.Mode); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) getProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := instanceID(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	v, found, err := h.svc.GetProperty(id, name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !found {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, types.PropertyResponse{Name: name, Format: v.Format().String(), Value: v.Any()})
}

func (h *handlers) setProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := instanceID(w, r)
	if !ok {
		return
	}
	var req types.SetPropertyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	v, err := manager.ValueOf(req.Value)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.SetProperty(id, chi.URLParam(r, "name"), v); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) command(w http.ResponseWriter, r *http.Request) {
	id, ok := instanceID(w, r)
	if !ok {
		return
	}
	var req types.CommandRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Args) == 0 || req.Args[0] == "" {
		writeJSONError(w, http.StatusBadRequest, "args must start with a command name")
		return
	}
	if err := h.svc.Command(id, req.Args...); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) listMedia(w http.ResponseWriter, r *http.Request) {
	if h.media == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "no media directory configured")
		return
	}
	files, err := h.media.List()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if files == nil {
		files = []types.MediaFile{}
	}
	writeJSON(w, http.StatusOK, types.MediaResponse{Files: files})
}
