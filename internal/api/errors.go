package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/voicelink/voicelink-core/internal/auth"
	"github.com/voicelink/voicelink-core/internal/bridge"
	"github.com/voicelink/voicelink-core/internal/device"
	"github.com/voicelink/voicelink-core/internal/user"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest          = "bad_request"
	ErrCodeNotFound            = "not_found"
	ErrCodeUnauthorized        = "unauthorised"
	ErrCodeForbidden           = "forbidden"
	ErrCodeInternal            = "internal_error"
	ErrCodeUnsupported         = "unsupported_directive"
	ErrCodeColorTempOutOfRange = "color_temp_out_of_range"
	ErrCodeSetpointOutOfRange  = "setpoint_out_of_range"
	ErrCodeCommandTimeout      = "command_timeout"
	ErrCodeCommandFailed       = "command_failed"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDomainError maps a pipeline error to its HTTP representation.
//
// Range violations get distinct codes so the caller can tell a clamped
// command that went through from one that was rejected outright. A
// sweeper timeout is a gateway timeout: the command was published but
// the device never answered.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, bridge.ErrColorTempOutOfRange):
		writeError(w, http.StatusRequestedRangeNotSatisfiable, ErrCodeColorTempOutOfRange, err.Error())
	case errors.Is(err, bridge.ErrThermostatOutOfRange):
		writeError(w, http.StatusUnprocessableEntity, ErrCodeSetpointOutOfRange, err.Error())
	case errors.Is(err, bridge.ErrCommandTimeout):
		writeError(w, http.StatusGatewayTimeout, ErrCodeCommandTimeout, err.Error())
	case errors.Is(err, bridge.ErrCommandFailed):
		writeError(w, http.StatusBadGateway, ErrCodeCommandFailed, err.Error())
	case errors.Is(err, bridge.ErrUnsupportedCommand):
		writeError(w, http.StatusBadRequest, ErrCodeUnsupported, err.Error())
	case errors.Is(err, device.ErrDeviceNotFound), errors.Is(err, user.ErrUserNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, auth.ErrTokenInvalid):
		writeUnauthorized(w, err.Error())
	default:
		writeInternalError(w, "internal server error")
	}
}
