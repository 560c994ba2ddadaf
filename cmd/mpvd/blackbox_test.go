package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"mpvd/pkg/types"
)

// These tests build the binary and run it against the system libmpv. They
// skip when libmpv cannot be loaded.

func findFreePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func buildBinary(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("short mode")
	}
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	bin := filepath.Join(t.TempDir(), "mpvd")
	cmd := exec.Command("go", "build", "-o", bin, ".")
	cmd.Dir = filepath.Dir(thisFile)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("go build failed: %v\n%s", err, out)
	}
	if out, err := exec.Command(bin, "check").CombinedOutput(); err != nil {
		t.Skipf("libmpv not available: %s", bytes.TrimSpace(out))
	}
	return bin
}

func startServer(t *testing.T, bin string, args ...string) string {
	t.Helper()
	port := findFreePort(t)
	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	cmd := exec.Command(bin, append([]string{"serve", "--addr", fmt.Sprintf("127.0.0.1:%d", port), "--log-format", "json"}, args...)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(func() { _ = cmd.Process.Kill(); _ = cmd.Wait() })

	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(base + "/healthz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return base
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("server did not become healthy in time")
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func call(t *testing.T, method, url string, payload any) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

func TestBlackbox_Flow(t *testing.T) {
	bin := buildBinary(t)
	media := t.TempDir()
	if err := os.WriteFile(filepath.Join(media, "clip.mkv"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	base := startServer(t, bin, "--media-dir", media)

	if resp, body := call(t, http.MethodGet, base+"/readyz", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("/readyz %d %s", resp.StatusCode, body)
	}
	resp, body := call(t, http.MethodGet, base+"/media", nil)
	var mr types.MediaResponse
	if err := json.Unmarshal(body, &mr); err != nil || len(mr.Files) != 1 {
		t.Fatalf("/media %d %s", resp.StatusCode, body)
	}

	resp, body = call(t, http.MethodPost, base+"/instances", types.CreateInstanceRequest{
		Options: []types.OptionValue{{Name: "vo", Value: "null"}, {Name: "ao", Value: "null"}},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create %d %s", resp.StatusCode, body)
	}
	var c types.CreateInstanceResponse
	_ = json.Unmarshal(body, &c)
	inst := fmt.Sprintf("%s/instances/%d", base, c.ID)

	if resp, body := call(t, http.MethodPost, inst+"/initialize", nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("initialize %d %s", resp.StatusCode, body)
	}
	resp, body = call(t, http.MethodGet, inst+"/properties/volume", nil)
	var pr types.PropertyResponse
	if err := json.Unmarshal(body, &pr); err != nil || pr.Format != "double" {
		t.Fatalf("volume %d %s", resp.StatusCode, body)
	}
	if resp, body := call(t, http.MethodDelete, inst, nil); resp.StatusCode != http.StatusAccepted {
		t.Fatalf("delete %d %s", resp.StatusCode, body)
	}
	if resp, _ := call(t, http.MethodGet, inst, nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete %d", resp.StatusCode)
	}
}
