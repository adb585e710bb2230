package mqtt

import (
	"fmt"
	"strings"
)

// Topic scheme for device communication. All topics are case-sensitive and
// scoped by the owning username so one broker can serve many accounts:
//
//	command/{username}/{deviceId}   commands published by the bridge
//	response/{username}/{deviceId}  acknowledgements published by devices
//	state/{username}/{deviceId}     state reports published by devices
//	message/{username}/{deviceId}   client notifications published by the bridge
const (
	TopicPrefixCommand      = "command"
	TopicPrefixResponse     = "response"
	TopicPrefixState        = "state"
	TopicPrefixNotification = "message"
)

// topicParts is the number of levels in a device-scoped topic.
const topicParts = 3

// Topics provides builders for VoiceLink MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	cmdTopic := topics.Command("alice", "kitchen-light")
//	// Returns: "command/alice/kitchen-light"
type Topics struct{}

// Command returns the topic for publishing a command to a device.
//
// Example: command/alice/kitchen-light
func (Topics) Command(username, deviceID string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefixCommand, username, deviceID)
}

// Response returns the topic a device publishes acknowledgements on.
//
// Example: response/alice/kitchen-light
func (Topics) Response(username, deviceID string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefixResponse, username, deviceID)
}

// State returns the topic a device publishes state reports on.
//
// Example: state/alice/kitchen-light
func (Topics) State(username, deviceID string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefixState, username, deviceID)
}

// Notification returns the topic for client-facing notifications.
//
// Example: message/alice/kitchen-light
func (Topics) Notification(username, deviceID string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefixNotification, username, deviceID)
}

// AllResponses returns the wildcard subscription for acknowledgements.
//
// Pattern: response/#
func (Topics) AllResponses() string {
	return TopicPrefixResponse + "/#"
}

// AllStates returns the wildcard subscription for device state reports.
//
// Pattern: state/#
func (Topics) AllStates() string {
	return TopicPrefixState + "/#"
}

// ServiceStatus returns the topic for bridge online/offline status.
// Used for the Last Will and Testament message.
func (Topics) ServiceStatus() string {
	return "voicelink/status"
}

// DeviceTopic is a parsed device-scoped topic.
type DeviceTopic struct {
	Prefix   string
	Username string
	DeviceID string
}

// ParseDeviceTopic splits a device-scoped topic into its components.
// Returns an error for topics that do not follow the
// {prefix}/{username}/{deviceId} scheme.
func ParseDeviceTopic(topic string) (DeviceTopic, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != topicParts || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return DeviceTopic{}, fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}
	return DeviceTopic{Prefix: parts[0], Username: parts[1], DeviceID: parts[2]}, nil
}
