// Package testutil provides shared test utilities and fakes for the desktop
// shell tests.
package testutil

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/theezgbp/ezgbp-desktop/internal/domain/events"
	"github.com/theezgbp/ezgbp-desktop/internal/domain/ports"
	"github.com/theezgbp/ezgbp-desktop/internal/navigation"
	"github.com/theezgbp/ezgbp-desktop/internal/notify"
)

// Recorder collects events delivered to a handler.
type Recorder struct {
	mu     sync.Mutex
	events []events.Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Handler returns a hub handler that records every event.
func (r *Recorder) Handler() ports.Handler {
	return func(e events.Event) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, e)
	}
}

// Publish records the event, so a Recorder can stand in for a publisher.
func (r *Recorder) Publish(e events.Event) {
	if e == nil {
		return
	}
	r.Handler()(e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]events.Event, len(r.events))
	copy(result, r.events)
	return result
}

// OfType returns the recorded events of one type.
func (r *Recorder) OfType(t events.EventType) []events.Event {
	var out []events.Event
	for _, e := range r.Events() {
		if e.Type() == t {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the number of recorded events.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// WaitFor polls until at least n events were recorded or timeout expires.
func (r *Recorder) WaitFor(n int, timeout time.Duration) bool {
	return Eventually(func() bool { return r.Count() >= n }, timeout)
}

// Ensure Recorder implements ports.Publisher.
var _ ports.Publisher = (*Recorder)(nil)

// Eventually polls cond every few milliseconds until it holds or timeout
// expires.
func Eventually(cond func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// FakeWindow implements navigation.Window and records every call.
type FakeWindow struct {
	mu      sync.Mutex
	id      string
	loads   []string
	shows   int
	focuses int
	closes  int
	emitted []string
	loadErr error
	onClose func(id string)
}

// NewFakeWindow creates a window with the given ID.
func NewFakeWindow(id string) *FakeWindow {
	return &FakeWindow{id: id}
}

func (w *FakeWindow) ID() string { return w.id }

// Load records url, or returns the configured error.
func (w *FakeWindow) Load(url string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.loadErr != nil {
		return w.loadErr
	}
	w.loads = append(w.loads, url)
	return nil
}

func (w *FakeWindow) Show() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.shows++
}

func (w *FakeWindow) Focus() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.focuses++
}

// Close counts the call and runs the OnClose callback, if any, after
// releasing the lock.
func (w *FakeWindow) Close() {
	w.mu.Lock()
	w.closes++
	cb := w.onClose
	w.mu.Unlock()
	if cb != nil {
		cb(w.id)
	}
}

// Emit records a named event sent to the page.
func (w *FakeWindow) Emit(name string, data ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.emitted = append(w.emitted, fmt.Sprint(append([]any{name}, data...)...))
}

// SetLoadError makes every Load fail.
func (w *FakeWindow) SetLoadError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.loadErr = err
}

// OnClose registers a callback invoked on every Close.
func (w *FakeWindow) OnClose(fn func(id string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onClose = fn
}

// Loads returns the URLs loaded after creation.
func (w *FakeWindow) Loads() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.loads...)
}

// LastLoad returns the most recent URL loaded, or "".
func (w *FakeWindow) LastLoad() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.loads) == 0 {
		return ""
	}
	return w.loads[len(w.loads)-1]
}

func (w *FakeWindow) Shows() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.shows
}

func (w *FakeWindow) Focuses() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.focuses
}

func (w *FakeWindow) Closes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closes
}

// Emitted returns the events sent to the page, formatted by fmt.Sprint.
func (w *FakeWindow) Emitted() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.emitted...)
}

var _ navigation.Window = (*FakeWindow)(nil)

// FakePlatform implements navigation.Platform with in-memory windows.
type FakePlatform struct {
	mu        sync.Mutex
	windows   []*FakeWindow
	created   map[string]string
	external  []string
	downloads []string
	deepLinks []string
	dialogs   []string
	quits     int
	nextID    int

	// PrimaryErr and PopupErr make window creation fail.
	PrimaryErr  error
	PopupErr    error
	DeepLinkErr error
}

// NewFakePlatform creates an empty platform.
func NewFakePlatform() *FakePlatform {
	return &FakePlatform{created: make(map[string]string)}
}

func (p *FakePlatform) NewPrimaryWindow(url string) (navigation.Window, error) {
	return p.newWindow("primary", url, p.PrimaryErr)
}

func (p *FakePlatform) NewPopupWindow(parentID, url string) (navigation.Window, error) {
	return p.newWindow("popup", url, p.PopupErr)
}

func (p *FakePlatform) newWindow(prefix, url string, failWith error) (navigation.Window, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if failWith != nil {
		return nil, failWith
	}
	p.nextID++
	w := NewFakeWindow(fmt.Sprintf("%s-%d", prefix, p.nextID))
	p.windows = append(p.windows, w)
	p.created[w.id] = url
	return w, nil
}

func (p *FakePlatform) OpenExternal(url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.external = append(p.external, url)
	return nil
}

func (p *FakePlatform) Download(url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.downloads = append(p.downloads, url)
	return nil
}

func (p *FakePlatform) Quit() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quits++
}

// SendDeepLink records "windowID payload", or fails with DeepLinkErr.
func (p *FakePlatform) SendDeepLink(windowID, payload string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.DeepLinkErr != nil {
		return p.DeepLinkErr
	}
	p.deepLinks = append(p.deepLinks, windowID+" "+payload)
	return nil
}

// ShowInfo records "info: title: message".
func (p *FakePlatform) ShowInfo(title, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dialogs = append(p.dialogs, "info: "+title+": "+message)
}

// ShowError records "error: title: message".
func (p *FakePlatform) ShowError(title, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dialogs = append(p.dialogs, "error: "+title+": "+message)
}

// Windows returns every window created so far, in creation order.
func (p *FakePlatform) Windows() []*FakeWindow {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*FakeWindow(nil), p.windows...)
}

// Window returns the window with id, or nil.
func (p *FakePlatform) Window(id string) *FakeWindow {
	for _, w := range p.Windows() {
		if w.id == id {
			return w
		}
	}
	return nil
}

// CreatedWith returns the URL a window was created on.
func (p *FakePlatform) CreatedWith(id string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created[id]
}

func (p *FakePlatform) External() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.external...)
}

func (p *FakePlatform) Downloads() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.downloads...)
}

// DeepLinks returns delivered deep links as "windowID payload".
func (p *FakePlatform) DeepLinks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.deepLinks...)
}

func (p *FakePlatform) Dialogs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.dialogs...)
}

func (p *FakePlatform) Quits() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quits
}

var _ navigation.Platform = (*FakePlatform)(nil)

// FakeNotifier implements notify.Backend and records what it was asked to show.
type FakeNotifier struct {
	mu          sync.Mutex
	sent        []notify.Notification
	Unsupported bool
	Err         error
}

func (n *FakeNotifier) Supported() bool { return !n.Unsupported }

func (n *FakeNotifier) Send(msg notify.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.sent = append(n.sent, msg)
	return nil
}

// Sent returns the notifications shown so far.
func (n *FakeNotifier) Sent() []notify.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Notification(nil), n.sent...)
}

// Titles returns the titles of the notifications shown so far.
func (n *FakeNotifier) Titles() []string {
	var out []string
	for _, m := range n.Sent() {
		out = append(out, m.Title)
	}
	return out
}

var _ notify.Backend = (*FakeNotifier)(nil)

// AssertEqual is a simple equality assertion helper.
func AssertEqual(t *testing.T, expected, actual interface{}, msg string) {
	t.Helper()
	if expected != actual {
		t.Errorf("%s: expected %v, got %v", msg, expected, actual)
	}
}

// AssertTrue asserts that a condition is true.
func AssertTrue(t *testing.T, condition bool, msg string) {
	t.Helper()
	if !condition {
		t.Errorf("%s: expected true, got false", msg)
	}
}

// AssertFalse asserts that a condition is false.
func AssertFalse(t *testing.T, condition bool, msg string) {
	t.Helper()
	if condition {
		t.Errorf("%s: expected false, got true", msg)
	}
}

// AssertNoError asserts that an error is nil.
func AssertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Errorf("%s: unexpected error: %v", msg, err)
	}
}
