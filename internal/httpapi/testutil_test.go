package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mpvd/internal/engine/enginetest"
	"mpvd/internal/manager"
	"mpvd/pkg/types"
)

type fixture struct {
	mgr *manager.Manager
	eng *enginetest.Engine
	mux http.Handler
}

func newFixture(t *testing.T, cfg manager.ManagerConfig, media MediaLister) *fixture {
	t.Helper()
	eng, _ := cfg.Engine.(*enginetest.Engine)
	if eng == nil {
		eng = &enginetest.Engine{}
		cfg.Engine = eng
	}
	if cfg.PollTimeout == 0 {
		cfg.PollTimeout = 10 * time.Millisecond
	}
	m := manager.NewWithConfig(cfg)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = m.Close(ctx)
	})
	return &fixture{mgr: m, eng: eng, mux: NewMux(m, media)}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, req)
	return w
}

func (f *fixture) create(t *testing.T, body any) uint64 {
	t.Helper()
	w := f.do(t, http.MethodPost, "/instances", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", w.Code, w.Body.String())
	}
	var resp types.CreateInstanceResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	return resp.ID
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.ErrorResponse {
	t.Helper()
	var e types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("error json: %v (body=%s)", err, w.Body.String())
	}
	return e
}
