package e2e

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"mpvd/internal/engine/enginetest"
	"mpvd/internal/httpapi"
	"mpvd/internal/library"
	"mpvd/internal/manager"
	"mpvd/internal/surface"
)

// createTempMediaDir creates a temporary directory populated with empty media
// files and returns its path.
func createTempMediaDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", p, err)
		}
		if err := os.WriteFile(p, []byte(""), 0o644); err != nil {
			t.Fatalf("write temp media %s: %v", p, err)
		}
	}
	return dir
}

type env struct {
	srv     *httptest.Server
	mgr     *manager.Manager
	eng     *enginetest.Engine
	windows *surface.WindowEmbedder
}

func newServerForDir(t *testing.T, mediaDir string, cfg manager.ManagerConfig) *env {
	t.Helper()
	log := zerolog.Nop()
	eng := &enginetest.Engine{}
	windows := surface.NewWindowEmbedder(&log)
	cfg.Engine = eng
	cfg.Surfaces = windows
	if cfg.PollTimeout == 0 {
		cfg.PollTimeout = 10 * time.Millisecond
	}
	mgr := manager.NewWithConfig(cfg)
	srv := httptest.NewServer(httpapi.NewMux(mgr, library.Dir{Path: mediaDir}))
	t.Cleanup(func() {
		srv.CloseClientConnections()
		srv.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mgr.Close(ctx)
	})
	return &env{srv: srv, mgr: mgr, eng: eng, windows: windows}
}

func httpDo(t *testing.T, method, url string, payload any) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, body)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

// sseEvents opens an event stream and returns a channel of event names.
func sseEvents(t *testing.T, url string) <-chan string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("events status=%d", resp.StatusCode)
	}
	ch := make(chan string, 256)
	ready := make(chan struct{})
	go func() {
		defer close(ch)
		defer resp.Body.Close()
		sc := bufio.NewScanner(resp.Body)
		first := true
		for sc.Scan() {
			line := sc.Text()
			if first {
				close(ready)
				first = false
			}
			if name, ok := strings.CutPrefix(line, "event: "); ok {
				ch <- name
			}
		}
		if first {
			close(ready)
		}
	}()
	<-ready
	return ch
}

// waitEvent consumes events until name arrives.
func waitEvent(t *testing.T, ch <-chan string, name string) {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case got, ok := <-ch:
			if !ok {
				t.Fatalf("stream closed waiting for %s", name)
			}
			if got == name {
				return
			}
		case <-timeout:
			t.Fatalf("timeout waiting for %s", name)
		}
	}
}
