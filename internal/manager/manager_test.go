package manager

import (
	"context"
	"errors"
	"testing"

	"mpvd/internal/engine"
	"mpvd/internal/engine/enginetest"
)

func TestNewWithConfigDefaults(t *testing.T) {
	m := NewWithConfig(ManagerConfig{})
	if m.pollTimeout != defaultPollTimeout {
		t.Fatalf("expected default pollTimeout=%v got %v", defaultPollTimeout, m.pollTimeout)
	}
	if m.teardownTimeout != defaultTeardownTimeout {
		t.Fatalf("expected default teardownTimeout=%v got %v", defaultTeardownTimeout, m.teardownTimeout)
	}
	if m.engineLogLevel != "v" {
		t.Fatalf("expected default engine log level v got %q", m.engineLogLevel)
	}
	if m.Ready() {
		t.Fatalf("manager without engine must not be ready")
	}
}

func TestCreate_IDsDistinctAndIncreasing(t *testing.T) {
	m, _ := newTestManager(t, ManagerConfig{})
	var last InstanceID
	for i := 0; i < 20; i++ {
		id, err := m.Create(testCtx(t), InstanceConfig{})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if id <= last {
			t.Fatalf("id %d not greater than previous %d", id, last)
		}
		last = id
		if i%3 == 0 {
			if _, err := m.Destroy(id); err != nil {
				t.Fatalf("Destroy: %v", err)
			}
		}
	}
	if last != 20 {
		t.Fatalf("expected ids 1..20, last=%d", last)
	}
}

func TestCreate_AppliesOptionsInOrder(t *testing.T) {
	m, eng := newTestManager(t, ManagerConfig{})
	id, err := m.Create(testCtx(t), InstanceConfig{
		Label:   "preview",
		Options: []Option{{Name: "mute", Value: engine.Flag(true)}, {Name: "vo", Value: engine.String("null")}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	h := eng.Last()
	if v, ok := h.Option("mute"); !ok || !v.Bool() {
		t.Fatalf("mute option not applied: %v %v", v, ok)
	}
	calls := h.Calls()
	if len(calls) < 2 || calls[0] != "option mute" || calls[1] != "option vo" {
		t.Fatalf("unexpected call order: %v", calls)
	}
	if h.Initialized() {
		t.Fatalf("Create must not initialize the handle")
	}
	if st, err := m.State(id); err != nil || st != StateCreated {
		t.Fatalf("State = %v, %v; want created", st, err)
	}
	info, err := m.Info(id)
	if err != nil || info.Label != "preview" {
		t.Fatalf("Info = %+v, %v", info, err)
	}
}

func TestCreate_OptionRejectedTerminatesHandle(t *testing.T) {
	eng := &enginetest.Engine{Configure: func(h *enginetest.Handle) {
		h.RejectOptions = map[string]error{"vo": engine.Error{Code: engine.ErrCodeOptionError, Msg: "error setting option"}}
	}}
	m, _ := newTestManager(t, ManagerConfig{Engine: eng})
	_, err := m.Create(testCtx(t), InstanceConfig{Options: []Option{{Name: "vo", Value: engine.String("bogus")}}})
	if !IsEngineError(err, EngineOption) {
		t.Fatalf("expected option engine error, got %v", err)
	}
	if code, ok := EngineCode(err); !ok || code != engine.ErrCodeOptionError {
		t.Fatalf("EngineCode = %d, %v", code, ok)
	}
	if !eng.Last().Destroyed() {
		t.Fatalf("handle must be terminated after a failed create")
	}
	if len(m.IDs()) != 0 {
		t.Fatalf("failed create must not register an instance")
	}
}

func TestCreate_EngineRefuses(t *testing.T) {
	eng := &enginetest.Engine{CreateErr: errors.New("out of memory")}
	m, _ := newTestManager(t, ManagerConfig{Engine: eng})
	_, err := m.Create(testCtx(t), InstanceConfig{})
	if !IsEngineError(err, EngineCreate) {
		t.Fatalf("expected create engine error, got %v", err)
	}
}

func TestCreate_NoEngine(t *testing.T) {
	m := NewWithConfig(ManagerConfig{})
	if _, err := m.Create(context.Background(), InstanceConfig{}); !IsEngineError(err, EngineCreate) {
		t.Fatalf("expected create engine error, got %v", err)
	}
}

func TestCreate_CanceledContext(t *testing.T) {
	m, eng := newTestManager(t, ManagerConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Create(ctx, InstanceConfig{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if eng.Last() != nil {
		t.Fatalf("no handle should be created for a canceled context")
	}
}

func TestUnknownIDNotFound(t *testing.T) {
	m, _ := newTestManager(t, ManagerConfig{})
	const id = InstanceID(42)
	checks := map[string]error{
		"SetOption":  m.SetOption(id, "mute", engine.Flag(true)),
		"Initialize": m.Initialize(id),
		"LoadFile":   m.LoadFile(id, "a.mp4", ""),
		"Command":    m.Command(id, "stop"),
		"SetProp":    m.SetProperty(id, "pause", engine.Flag(true)),
		"Attach":     m.AttachSurface(id, 1),
		"Callback":   m.SetEventCallback(id, NewChannelSink(1)),
	}
	for name, err := range checks {
		if !IsNotFound(err) {
			t.Fatalf("%s: expected NotFound, got %v", name, err)
		}
	}
	if _, _, err := m.GetProperty(id, "pause"); !IsNotFound(err) {
		t.Fatalf("GetProperty: expected NotFound, got %v", err)
	}
	if _, err := m.State(id); !IsNotFound(err) {
		t.Fatalf("State: expected NotFound, got %v", err)
	}
}

func TestStatus_ReportsInstancesAndTotals(t *testing.T) {
	m, _ := newTestManager(t, ManagerConfig{})
	a := mustRunning(t, m)
	b, err := m.Create(testCtx(t), InstanceConfig{Label: "b"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := m.SetEventCallback(a, NewChannelSink(64)); err != nil {
		t.Fatalf("SetEventCallback: %v", err)
	}
	st := m.Status()
	if len(st.Instances) != 2 || st.Instances[0].ID != uint64(a) || st.Instances[1].ID != uint64(b) {
		t.Fatalf("unexpected instances: %+v", st.Instances)
	}
	if st.Instances[0].State != "running" || !st.Instances[0].HasSink || !st.Instances[0].BridgeRunning {
		t.Fatalf("unexpected running instance status: %+v", st.Instances[0])
	}
	if st.Instances[1].State != "created" || st.Instances[1].Label != "b" {
		t.Fatalf("unexpected created instance status: %+v", st.Instances[1])
	}
	if st.CreatedTotal != 2 {
		t.Fatalf("CreatedTotal = %d", st.CreatedTotal)
	}

	td, err := m.Destroy(b)
	if err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if err := td.Wait(testCtx(t)); err != nil {
		t.Fatalf("teardown: %v", err)
	}
	st = m.Status()
	if len(st.Instances) != 1 || st.DestroyedTotal != 1 || st.PendingTeardowns != 0 {
		t.Fatalf("unexpected status after destroy: %+v", st)
	}
}

func TestEventPublisher_LifecycleEvents(t *testing.T) {
	pub := NewMemoryPublisher()
	m, _ := newTestManager(t, ManagerConfig{Publisher: pub})
	id := mustRunning(t, m)
	if err := m.SetEventCallback(id, NewChannelSink(64)); err != nil {
		t.Fatalf("SetEventCallback: %v", err)
	}
	td, err := m.Destroy(id)
	if err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if err := td.Wait(testCtx(t)); err != nil {
		t.Fatalf("teardown: %v", err)
	}
	got := pub.Names(id)
	want := []string{"instance_create", "instance_initialize", "bridge_start", "destroy_start", "teardown_done"}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}
}

func TestSetEventPublisher_NilResetsToNoop(t *testing.T) {
	m, _ := newTestManager(t, ManagerConfig{})
	pub := NewMemoryPublisher()
	m.SetEventPublisher(pub)
	m.SetEventPublisher(nil)
	if _, err := m.Create(testCtx(t), InstanceConfig{}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n := len(pub.Events()); n != 0 {
		t.Fatalf("expected no events after reset, got %d", n)
	}
}

func TestCreate_DefaultOptionsFirst(t *testing.T) {
	m, eng := newTestManager(t, ManagerConfig{DefaultOptions: []Option{{Name: "vo", Value: engine.String("gpu")}}})
	if _, err := m.Create(testCtx(t), InstanceConfig{Options: []Option{{Name: "vo", Value: engine.String("null")}}}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Per-instance options override defaults.
	if v, _ := eng.Last().Option("vo"); v.Str() != "null" {
		t.Fatalf("vo = %v, want null", v)
	}
	if calls := eng.Last().Calls(); len(calls) != 2 {
		t.Fatalf("expected two option calls, got %v", calls)
	}
}
