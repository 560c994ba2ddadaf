package manager

import (
	"context"
	"sync"
	"testing"
	"time"

	"mpvd/internal/engine/enginetest"
)

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// newTestManager returns a manager over a fresh fake engine with a short
// poll timeout. Close runs at cleanup.
func newTestManager(t *testing.T, cfg ManagerConfig) (*Manager, *enginetest.Engine) {
	t.Helper()
	eng, _ := cfg.Engine.(*enginetest.Engine)
	if eng == nil {
		eng = &enginetest.Engine{}
		cfg.Engine = eng
	}
	if cfg.PollTimeout == 0 {
		cfg.PollTimeout = 20 * time.Millisecond
	}
	if cfg.TeardownTimeout == 0 {
		cfg.TeardownTimeout = 2 * time.Second
	}
	m := NewWithConfig(cfg)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = m.Close(ctx)
	})
	return m, eng
}

// mustRunning creates and initializes an instance.
func mustRunning(t *testing.T, m *Manager) InstanceID {
	t.Helper()
	id, err := m.Create(testCtx(t), InstanceConfig{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := m.Initialize(id); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return id
}

// recordingSink stores messages and counts sends attempted after Release.
type recordingSink struct {
	mu       sync.Mutex
	msgs     []Message
	released bool
	late     int
	notify   chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{notify: make(chan struct{}, 1)}
}

func (s *recordingSink) TrySend(msg Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		s.late++
		return false
	}
	s.msgs = append(s.msgs, msg)
	select {
	case s.notify <- struct{}{}:
	default:
	}
	return true
}

func (s *recordingSink) Release() {
	s.mu.Lock()
	s.released = true
	s.mu.Unlock()
}

func (s *recordingSink) snapshot() (msgs []Message, released bool, late int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.msgs...), s.released, s.late
}

// waitFor polls cond until it holds or the deadline passes.
func (s *recordingSink) waitFor(t *testing.T, d time.Duration, cond func([]Message) bool) []Message {
	t.Helper()
	deadline := time.After(d)
	for {
		msgs, _, _ := s.snapshot()
		if cond(msgs) {
			return msgs
		}
		select {
		case <-s.notify:
		case <-deadline:
			t.Fatalf("condition not met within %v; got %d messages", d, len(msgs))
		}
	}
}

func eventually(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %v", d)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
