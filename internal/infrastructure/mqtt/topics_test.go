package mqtt

import (
	"errors"
	"testing"
)

func TestTopics_Builders(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"command", topics.Command("alice", "kitchen-light"), "command/alice/kitchen-light"},
		{"response", topics.Response("alice", "kitchen-light"), "response/alice/kitchen-light"},
		{"state", topics.State("bob", "thermostat-1"), "state/bob/thermostat-1"},
		{"notification", topics.Notification("alice", "lock-front"), "message/alice/lock-front"},
		{"all responses", topics.AllResponses(), "response/#"},
		{"all states", topics.AllStates(), "state/#"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestParseDeviceTopic(t *testing.T) {
	parsed, err := ParseDeviceTopic("state/alice/kitchen-light")
	if err != nil {
		t.Fatalf("ParseDeviceTopic() error = %v", err)
	}
	if parsed.Prefix != "state" || parsed.Username != "alice" || parsed.DeviceID != "kitchen-light" {
		t.Errorf("ParseDeviceTopic() = %+v", parsed)
	}
}

func TestParseDeviceTopic_Invalid(t *testing.T) {
	tests := []string{
		"",
		"state",
		"state/alice",
		"state/alice/light/extra",
		"state//light",
		"/alice/light",
	}

	for _, topic := range tests {
		t.Run(topic, func(t *testing.T) {
			_, err := ParseDeviceTopic(topic)
			if !errors.Is(err, ErrInvalidTopic) {
				t.Errorf("ParseDeviceTopic(%q) error = %v, want ErrInvalidTopic", topic, err)
			}
		})
	}
}
