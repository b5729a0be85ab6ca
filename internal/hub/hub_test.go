package hub

import (
	"sync"
	"testing"
	"time"

	"github.com/theezgbp/ezgbp-desktop/internal/domain/events"
	"github.com/theezgbp/ezgbp-desktop/internal/testutil"
)

func TestHub_New(t *testing.T) {
	h := New()

	if h == nil {
		t.Fatal("New() returned nil")
	}
	if h.handlers == nil {
		t.Error("handlers map is nil")
	}
	if h.wake == nil {
		t.Error("wake channel is nil")
	}
	if cap(h.queue) != DefaultBufferSize {
		t.Errorf("queue capacity = %d, want %d", cap(h.queue), DefaultBufferSize)
	}
	if h.done == nil {
		t.Error("done channel is nil")
	}
	if h.running {
		t.Error("hub should not be running initially")
	}
}

func TestHub_StartStop(t *testing.T) {
	h := New()

	if err := h.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !h.IsRunning() {
		t.Error("hub should be running after Start()")
	}

	// Starting again should be a no-op
	if err := h.Start(); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	if err := h.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if h.IsRunning() {
		t.Error("hub should not be running after Stop()")
	}

	// Stopping again should be a no-op
	if err := h.Stop(); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
}

func TestHub_Handle(t *testing.T) {
	h := New()
	rec := testutil.NewRecorder()

	h.Handle(events.EventTypeWillNavigate, rec.Handler())
	h.Handle(events.EventTypeDidNavigate, rec.Handler())
	h.Handle(events.EventTypeDidNavigate, nil)

	if h.HandlerCount() != 2 {
		t.Errorf("HandlerCount() = %d, want 2", h.HandlerCount())
	}
}

func TestHub_Publish(t *testing.T) {
	h := New()
	rec := testutil.NewRecorder()
	h.Handle(events.EventTypeWillNavigate, rec.Handler())

	_ = h.Start()
	defer func() { _ = h.Stop() }()

	h.Publish(events.NewWillNavigateEvent("main", "https://app.example.com/"))

	if !rec.WaitFor(1, time.Second) {
		t.Fatalf("handler received %d events, want 1", rec.Count())
	}

	received := rec.Events()[0]
	if received.Type() != events.EventTypeWillNavigate {
		t.Errorf("received event type = %v, want %v", received.Type(), events.EventTypeWillNavigate)
	}
	if received.GetWindowID() != "main" {
		t.Errorf("received window id = %q, want main", received.GetWindowID())
	}
}

func TestHub_PreservesOrder(t *testing.T) {
	h := New()
	rec := testutil.NewRecorder()
	h.Handle(events.EventTypeWillNavigate, rec.Handler())
	h.Handle(events.EventTypeDidNavigate, rec.Handler())

	_ = h.Start()
	defer func() { _ = h.Stop() }()

	for i := 0; i < 50; i++ {
		if i%2 == 0 {
			h.Publish(events.NewWillNavigateEvent("main", "https://app.example.com/"))
		} else {
			h.Publish(events.NewDidNavigateEvent("main", "https://app.example.com/"))
		}
	}

	if !rec.WaitFor(50, 2*time.Second) {
		t.Fatalf("handler received %d events, want 50", rec.Count())
	}

	for i, e := range rec.Events() {
		want := events.EventTypeWillNavigate
		if i%2 == 1 {
			want = events.EventTypeDidNavigate
		}
		if e.Type() != want {
			t.Fatalf("event %d type = %v, want %v", i, e.Type(), want)
		}
	}
}

func TestHub_HandlersNeverOverlap(t *testing.T) {
	h := New()

	var mu sync.Mutex
	active, maxActive, calls := 0, 0, 0
	h.Handle(events.EventTypeWindowReady, func(events.Event) {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()

		time.Sleep(time.Millisecond)

		mu.Lock()
		active--
		calls++
		mu.Unlock()
	})

	_ = h.Start()
	defer func() { _ = h.Stop() }()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Publish(events.NewWindowReadyEvent("main", ""))
		}()
	}
	wg.Wait()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		done := calls == 10
		mu.Unlock()
		if done {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 10 {
		t.Fatalf("calls = %d, want 10", calls)
	}
	if maxActive != 1 {
		t.Errorf("max concurrent handlers = %d, want 1", maxActive)
	}
}

func TestHub_PanicIsolation(t *testing.T) {
	h := New()
	rec := testutil.NewRecorder()

	h.Handle(events.EventTypeWillNavigate, func(events.Event) {
		panic("boom")
	})
	h.Handle(events.EventTypeWillNavigate, rec.Handler())
	h.Handle(events.EventTypeDidNavigate, rec.Handler())

	_ = h.Start()
	defer func() { _ = h.Stop() }()

	h.Publish(events.NewWillNavigateEvent("main", "https://app.example.com/"))
	h.Publish(events.NewDidNavigateEvent("main", "https://app.example.com/"))

	if !rec.WaitFor(2, time.Second) {
		t.Fatalf("handler received %d events after panic, want 2", rec.Count())
	}
}

func TestHub_PublishAfterStop(t *testing.T) {
	h := NewWithBuffer(1)
	_ = h.Start()
	_ = h.Stop()

	done := make(chan struct{})
	go func() {
		h.Publish(events.NewEvent(events.EventTypeAppActivated, nil))
		h.Publish(events.NewEvent(events.EventTypeAppActivated, nil))
		h.Publish(events.NewEvent(events.EventTypeAppActivated, nil))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish() blocked after Stop()")
	}
}

func TestHub_PublishNil(t *testing.T) {
	h := New()
	h.Publish(nil)

	if h.Pending() != 0 {
		t.Errorf("queue length = %d, want 0", h.Pending())
	}
}

func TestHub_HandlerPublishesPastBuffer(t *testing.T) {
	h := NewWithBuffer(2)
	rec := testutil.NewRecorder()

	const fanout = 20
	h.Handle(events.EventTypeAppActivated, func(events.Event) {
		for i := 0; i < fanout; i++ {
			h.Publish(events.NewDidNavigateEvent("main", "https://app.example.com/"))
		}
	})
	h.Handle(events.EventTypeDidNavigate, rec.Handler())

	_ = h.Start()
	defer func() { _ = h.Stop() }()

	h.Publish(events.NewEvent(events.EventTypeAppActivated, nil))

	if !rec.WaitFor(fanout, 2*time.Second) {
		t.Fatalf("handler received %d events, want %d (hub loop stalled)", rec.Count(), fanout)
	}
}

func TestHub_PublishBeforeStart(t *testing.T) {
	h := NewWithBuffer(1)
	rec := testutil.NewRecorder()
	h.Handle(events.EventTypeWillNavigate, rec.Handler())

	for i := 0; i < 5; i++ {
		h.Publish(events.NewWillNavigateEvent("main", "https://app.example.com/"))
	}
	if h.Pending() != 5 {
		t.Fatalf("Pending() = %d, want 5", h.Pending())
	}

	_ = h.Start()
	defer func() { _ = h.Stop() }()

	if !rec.WaitFor(5, 2*time.Second) {
		t.Fatalf("handler received %d events, want 5", rec.Count())
	}
}
