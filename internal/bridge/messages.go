package bridge

import "encoding/json"

// Command is the canonical command envelope published to
// command/{username}/{deviceId}. Devices echo the messageId back on
// their response topic so the acknowledgement can be correlated.
type Command struct {
	MessageID  string         `json:"messageId"`
	Capability string         `json:"capability"`
	Operation  string         `json:"operation"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// Ack is the acknowledgement devices publish on response/{username}/{deviceId}.
type Ack struct {
	MessageID string `json:"messageId"`
	Success   bool   `json:"success"`
}

// StatePayload is the inner body of a state report.
type StatePayload struct {
	State     map[string]any `json:"state"`
	MessageID string         `json:"messageId,omitempty"`
}

// StateMessage is the envelope devices publish on state/{username}/{deviceId}.
type StateMessage struct {
	Payload StatePayload `json:"payload"`
}

// Notification is pushed to message/{username}/{deviceId} to tell the
// client something went wrong out-of-band, such as a command timeout.
type Notification struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// Notification severities.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Marshal renders the command for the wire.
func (c Command) Marshal() ([]byte, error) {
	return json.Marshal(c)
}
