package notify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	supported bool
	err       error
	panicWith any
	sent      []Notification
}

func (f *fakeBackend) Supported() bool { return f.supported }

func (f *fakeBackend) Send(n Notification) error {
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}

func TestShow(t *testing.T) {
	b := &fakeBackend{supported: true}
	s := NewService(b, Options{Enabled: true, Icon: "/opt/ezgbp/icon.png"})

	res := s.Show(Request{Title: "Invoice paid", Body: "INV-42 was paid"})

	assert.Equal(t, Result{Success: true}, res)
	require.Len(t, b.sent, 1)
	assert.Equal(t, "Invoice paid", b.sent[0].Title)
	assert.Equal(t, "INV-42 was paid", b.sent[0].Body)
	assert.Equal(t, "/opt/ezgbp/icon.png", b.sent[0].Icon)
	assert.NotEmpty(t, b.sent[0].ID)
}

func TestShow_Defaults(t *testing.T) {
	b := &fakeBackend{supported: true}
	s := NewService(b, Options{Enabled: true})

	s.Show(Request{Title: "  ", Body: "hello", Icon: "custom.png"})

	require.Len(t, b.sent, 1)
	assert.Equal(t, DefaultTitle, b.sent[0].Title)
	assert.Equal(t, "custom.png", b.sent[0].Icon)
}

func TestShow_Unsupported(t *testing.T) {
	tests := []struct {
		name    string
		backend Backend
		enabled bool
	}{
		{"backend unsupported", &fakeBackend{supported: false}, true},
		{"nil backend", nil, true},
		{"disabled by config", &fakeBackend{supported: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewService(tt.backend, Options{Enabled: tt.enabled})
			res := s.Show(Request{Title: "x"})
			assert.Equal(t, Result{Success: false, Error: UnsupportedMessage}, res)
		})
	}
}

func TestShow_BackendError(t *testing.T) {
	s := NewService(&fakeBackend{supported: true, err: errors.New("denied by user")}, Options{Enabled: true})

	res := s.Show(Request{Title: "x"})

	assert.False(t, res.Success)
	assert.Equal(t, "denied by user", res.Error)
}

func TestShow_BackendPanic(t *testing.T) {
	s := NewService(&fakeBackend{supported: true, panicWith: "boom"}, Options{Enabled: true})

	var res Result
	assert.NotPanics(t, func() { res = s.Show(Request{Title: "x"}) })
	assert.False(t, res.Success)
	assert.Equal(t, "boom", res.Error)
}

func TestNotify(t *testing.T) {
	b := &fakeBackend{supported: true}
	s := NewService(b, Options{Enabled: true})

	id, err := s.Notify("Update Ready", "Version 1.2.0 is ready.", map[string]string{"action": "install"})

	require.NoError(t, err)
	require.Len(t, b.sent, 1)
	assert.Equal(t, id, b.sent[0].ID)
	assert.Equal(t, "install", b.sent[0].Data["action"])
}

func TestNotify_Unsupported(t *testing.T) {
	s := NewService(Unsupported{}, Options{Enabled: true})

	_, err := s.Notify("t", "b", nil)
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.False(t, s.Available())
}
