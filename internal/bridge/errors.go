package bridge

import "errors"

// Error kinds surfaced by command translation and dispatch. The API
// layer maps each to its vendor-mandated HTTP status code.
var (
	// ErrColorTempOutOfRange is returned when a requested color
	// temperature falls outside the device's declared range.
	ErrColorTempOutOfRange = errors.New("bridge: color temperature out of range")

	// ErrThermostatOutOfRange is returned when a requested setpoint
	// falls outside the device's declared temperature range.
	ErrThermostatOutOfRange = errors.New("bridge: thermostat setpoint out of range")

	// ErrUnsupportedCommand is returned when a vendor payload names a
	// capability/operation pair no translator handles.
	ErrUnsupportedCommand = errors.New("bridge: unsupported command")

	// ErrCommandFailed is returned when a device acknowledges a
	// command with success=false.
	ErrCommandFailed = errors.New("bridge: command failed")

	// ErrCommandTimeout is returned when no acknowledgement arrives
	// within the pending deadline.
	ErrCommandTimeout = errors.New("bridge: command timed out")

	// ErrDuplicateKey is returned when a correlation key is registered
	// while still outstanding.
	ErrDuplicateKey = errors.New("bridge: duplicate correlation key")
)
