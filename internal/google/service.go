package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/voicelink/voicelink-core/internal/bridge"
	"github.com/voicelink/voicelink-core/internal/device"
)

// Vendor is the tag used for Google-origin pending commands.
const Vendor = "google"

// DeviceStore is the read surface the service needs. Satisfied by
// *device.Registry.
type DeviceStore interface {
	GetDevice(ctx context.Context, username, id string) (*device.Device, error)
	ListDevices(ctx context.Context, username string) ([]device.Device, error)
}

// CommandDispatcher publishes canonical commands. Satisfied by
// *bridge.Dispatcher.
type CommandDispatcher interface {
	Dispatch(username string, cmd bridge.Command, vendor string, handle *bridge.ResponseHandle, optimistic any, deviceID string) error
}

// UnlinkFunc clears the user's vendor link on DISCONNECT; may be nil.
type UnlinkFunc func(ctx context.Context, username string) error

// Service handles the Google smart home fulfillment surface.
type Service struct {
	devices    DeviceStore
	dispatcher CommandDispatcher
	unlink     UnlinkFunc
	logger     bridge.Logger
	now        func() time.Time
}

// NewService creates the Google fulfillment service.
func NewService(devices DeviceStore, dispatcher CommandDispatcher) *Service {
	return &Service{
		devices:    devices,
		dispatcher: dispatcher,
		logger:     noopLogger{},
		now:        time.Now,
	}
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// SetLogger sets the logger for the service.
func (s *Service) SetLogger(logger bridge.Logger) {
	s.logger = logger
}

// SetUnlink installs the account-unlink callback used by DISCONNECT.
func (s *Service) SetUnlink(fn UnlinkFunc) {
	s.unlink = fn
}

// Handle processes one fulfillment request for an authenticated user.
// Errors on individual devices are reported in-band per the intent
// protocol; only malformed envelopes surface as errors.
func (s *Service) Handle(ctx context.Context, username string, req *Request) (*Response, error) {
	if len(req.Inputs) == 0 {
		return nil, fmt.Errorf("%w: no inputs", bridge.ErrUnsupportedCommand)
	}
	input := req.Inputs[0]

	switch input.Intent {
	case IntentSync:
		return s.sync(ctx, username, req)
	case IntentQuery:
		return s.query(ctx, username, req, input)
	case IntentExecute:
		return s.execute(ctx, username, req, input)
	case IntentDisconnect:
		return s.disconnect(ctx, username, req)
	default:
		return nil, fmt.Errorf("%w: intent %s", bridge.ErrUnsupportedCommand, input.Intent)
	}
}

func (s *Service) sync(ctx context.Context, username string, req *Request) (*Response, error) {
	devices, err := s.devices.ListDevices(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}

	entries := make([]SyncDevice, 0, len(devices))
	for i := range devices {
		entries = append(entries, SyncEntry(&devices[i]))
	}

	s.logger.Debug("sync served", "username", username, "devices", len(entries))
	return &Response{
		RequestID: req.RequestID,
		Payload: SyncResponsePayload{
			AgentUserID: username,
			Devices:     entries,
		},
	}, nil
}

func (s *Service) query(ctx context.Context, username string, req *Request, input Input) (*Response, error) {
	var payload QueryPayload
	if err := json.Unmarshal(input.Payload, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", bridge.ErrUnsupportedCommand, err)
	}

	out := make(map[string]map[string]any, len(payload.Devices))
	for _, ref := range payload.Devices {
		dev, err := s.devices.GetDevice(ctx, username, ref.ID)
		if err != nil {
			out[ref.ID] = map[string]any{
				"online":    false,
				"status":    StatusError,
				"errorCode": ErrorCodeDeviceNotFound,
			}
			continue
		}
		out[ref.ID] = QueryState(dev)
	}

	return &Response{
		RequestID: req.RequestID,
		Payload:   QueryResponsePayload{Devices: out},
	}, nil
}

func (s *Service) execute(ctx context.Context, username string, req *Request, input Input) (*Response, error) {
	var payload ExecutePayload
	if err := json.Unmarshal(input.Payload, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", bridge.ErrUnsupportedCommand, err)
	}

	var results []CommandResult
	for _, group := range payload.Commands {
		for _, ref := range group.Devices {
			results = append(results, s.executeDevice(ctx, username, ref.ID, group.Execution))
		}
	}

	return &Response{
		RequestID: req.RequestID,
		Payload:   ExecuteResponsePayload{Commands: results},
	}, nil
}

// executeDevice runs every execution of a group against one device and
// folds the optimistic states together. The first failure settles the
// device's result.
func (s *Service) executeDevice(ctx context.Context, username, deviceID string, execs []Execution) CommandResult {
	dev, err := s.devices.GetDevice(ctx, username, deviceID)
	if err != nil {
		return CommandResult{
			IDs:       []string{deviceID},
			Status:    StatusError,
			ErrorCode: ErrorCodeDeviceNotFound,
		}
	}

	states := map[string]any{"online": true}
	for _, exec := range execs {
		tr, err := Translate(dev, exec)
		if err != nil {
			return errorResult(deviceID, err)
		}

		tr.Command.MessageID = uuid.NewString()
		handle := bridge.NewResponseHandle()
		if err := s.dispatcher.Dispatch(username, tr.Command, Vendor, handle, tr.States, deviceID); err != nil {
			return errorResult(deviceID, err)
		}

		result, err := handle.Wait(ctx)
		if err != nil {
			return errorResult(deviceID, err)
		}
		if result.Err != nil {
			return errorResult(deviceID, result.Err)
		}

		if ok, okCast := result.Response.(map[string]any); okCast {
			for k, v := range ok {
				states[k] = v
			}
		}
	}

	return CommandResult{
		IDs:    []string{deviceID},
		Status: StatusSuccess,
		States: states,
	}
}

// errorResult maps a translation or dispatch failure to the in-band
// result shape.
func errorResult(deviceID string, err error) CommandResult {
	r := CommandResult{IDs: []string{deviceID}, Status: StatusError}

	switch {
	case errors.Is(err, bridge.ErrColorTempOutOfRange),
		errors.Is(err, bridge.ErrThermostatOutOfRange):
		r.ErrorCode = ErrorCodeValueOutOfRange
	case errors.Is(err, bridge.ErrUnsupportedCommand):
		r.ErrorCode = ErrorCodeNotSupported
	case errors.Is(err, bridge.ErrCommandTimeout):
		r.Status = StatusOffline
		r.ErrorCode = ErrorCodeDeviceOffline
	case errors.Is(err, device.ErrDeviceNotFound):
		r.ErrorCode = ErrorCodeDeviceNotFound
	default:
		r.ErrorCode = ErrorCodeTransientError
	}
	return r
}

func (s *Service) disconnect(ctx context.Context, username string, req *Request) (*Response, error) {
	if s.unlink != nil {
		if err := s.unlink(ctx, username); err != nil {
			s.logger.Warn("account unlink failed", "username", username, "error", err)
		}
	}

	s.logger.Info("account disconnected", "username", username)
	return &Response{RequestID: req.RequestID, Payload: struct{}{}}, nil
}
