package google

import "encoding/json"

// Intent identifiers for the smart home fulfillment API.
const (
	IntentSync       = "action.devices.SYNC"
	IntentQuery      = "action.devices.QUERY"
	IntentExecute    = "action.devices.EXECUTE"
	IntentDisconnect = "action.devices.DISCONNECT"
)

// Request is the fulfillment request envelope.
type Request struct {
	RequestID string  `json:"requestId"`
	Inputs    []Input `json:"inputs"`
}

// Input is one intent within a request.
type Input struct {
	Intent  string          `json:"intent"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is the fulfillment response envelope.
type Response struct {
	RequestID string `json:"requestId"`
	Payload   any    `json:"payload"`
}

// DeviceRef addresses one device in a QUERY or EXECUTE payload.
type DeviceRef struct {
	ID string `json:"id"`
}

// QueryPayload is the body of a QUERY intent.
type QueryPayload struct {
	Devices []DeviceRef `json:"devices"`
}

// Execution is one command with its parameters.
type Execution struct {
	Command string          `json:"command"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// CommandGroup applies a set of executions to a set of devices.
type CommandGroup struct {
	Devices   []DeviceRef `json:"devices"`
	Execution []Execution `json:"execution"`
}

// ExecutePayload is the body of an EXECUTE intent.
type ExecutePayload struct {
	Commands []CommandGroup `json:"commands"`
}

// SyncDevice is one device in a SYNC response.
type SyncDevice struct {
	ID              string         `json:"id"`
	Type            string         `json:"type"`
	Traits          []string       `json:"traits"`
	Name            DeviceName     `json:"name"`
	WillReportState bool           `json:"willReportState"`
	Attributes      map[string]any `json:"attributes,omitempty"`
}

// DeviceName carries the user-visible device name.
type DeviceName struct {
	Name string `json:"name"`
}

// SyncResponsePayload is the body of a SYNC response.
type SyncResponsePayload struct {
	AgentUserID string       `json:"agentUserId"`
	Devices     []SyncDevice `json:"devices"`
}

// QueryResponsePayload maps device ids to their rendered state.
type QueryResponsePayload struct {
	Devices map[string]map[string]any `json:"devices"`
}

// CommandResult is the outcome for one group of device ids.
type CommandResult struct {
	IDs       []string       `json:"ids"`
	Status    string         `json:"status"`
	States    map[string]any `json:"states,omitempty"`
	ErrorCode string         `json:"errorCode,omitempty"`
}

// ExecuteResponsePayload is the body of an EXECUTE response.
type ExecuteResponsePayload struct {
	Commands []CommandResult `json:"commands"`
}

// Command result statuses.
const (
	StatusSuccess = "SUCCESS"
	StatusError   = "ERROR"
	StatusOffline = "OFFLINE"
)

// In-band error codes attached to failed command results.
const (
	ErrorCodeValueOutOfRange = "valueOutOfRange"
	ErrorCodeNotSupported    = "functionNotSupported"
	ErrorCodeDeviceNotFound  = "deviceNotFound"
	ErrorCodeDeviceOffline   = "deviceOffline"
	ErrorCodeTransientError  = "transientError"
)
