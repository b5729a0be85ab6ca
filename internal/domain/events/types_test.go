package events

import (
	"encoding/json"
	"testing"
	"time"
)

func TestBaseEvent_Type(t *testing.T) {
	tests := []struct {
		name      string
		eventType EventType
	}{
		{"will_navigate", EventTypeWillNavigate},
		{"did_navigate", EventTypeDidNavigate},
		{"new_window", EventTypeNewWindow},
		{"deep_link", EventTypeDeepLink},
		{"update_error", EventTypeUpdateError},
		{"download_completed", EventTypeDownloadCompleted},
		{"config_changed", EventTypeConfigChanged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := NewEvent(tt.eventType, nil)

			if event.Type() != tt.eventType {
				t.Errorf("Type() = %v, want %v", event.Type(), tt.eventType)
			}
		})
	}
}

func TestBaseEvent_Timestamp(t *testing.T) {
	before := time.Now().UTC()
	event := NewEvent(EventTypeAppActivated, nil)
	after := time.Now().UTC()

	ts := event.Timestamp()

	if ts.Before(before) {
		t.Errorf("Timestamp() = %v, should be >= %v", ts, before)
	}
	if ts.After(after) {
		t.Errorf("Timestamp() = %v, should be <= %v", ts, after)
	}
}

func TestBaseEvent_ToJSON(t *testing.T) {
	event := NewWillNavigateEvent("main", "https://app.example.com/settings")

	jsonBytes, err := event.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &parsed); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}

	if parsed["event"] != string(EventTypeWillNavigate) {
		t.Errorf("JSON event = %v, want %v", parsed["event"], EventTypeWillNavigate)
	}
	if parsed["window_id"] != "main" {
		t.Errorf("JSON window_id = %v, want main", parsed["window_id"])
	}

	payload, ok := parsed["payload"].(map[string]interface{})
	if !ok {
		t.Fatal("JSON payload should be a map")
	}
	if payload["url"] != "https://app.example.com/settings" {
		t.Errorf("payload url = %v", payload["url"])
	}
}

func TestNewNewWindowEvent_DefaultDisposition(t *testing.T) {
	event := NewNewWindowEvent("main", "https://accounts.google.com/o/oauth2/auth", "", "")

	payload, ok := event.Payload.(NavigationPayload)
	if !ok {
		t.Fatalf("payload type = %T, want NavigationPayload", event.Payload)
	}
	if payload.Disposition != DispositionDefault {
		t.Errorf("Disposition = %q, want %q", payload.Disposition, DispositionDefault)
	}
	if event.GetWindowID() != "main" {
		t.Errorf("GetWindowID() = %q, want main", event.GetWindowID())
	}
}

func TestNewDeepLinkEvent(t *testing.T) {
	event := NewDeepLinkEvent("ezgbp://open?ref=42", "argv")

	if event.Type() != EventTypeDeepLink {
		t.Errorf("Type() = %v, want %v", event.Type(), EventTypeDeepLink)
	}
	payload := event.Payload.(DeepLinkPayload)
	if payload.URL != "ezgbp://open?ref=42" {
		t.Errorf("URL = %q", payload.URL)
	}
	if payload.Source != "argv" {
		t.Errorf("Source = %q, want argv", payload.Source)
	}
}
