package alexa

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/voicelink/voicelink-core/internal/bridge"
	"github.com/voicelink/voicelink-core/internal/device"
)

// Vendor is the tag used for Alexa-origin pending commands.
const Vendor = "alexa"

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

// Service handles the Alexa Smart Home surface: discovery, state
// reports, and control directives.
type Service struct {
	devices    DeviceStore
	dispatcher CommandDispatcher
	logger     bridge.Logger
	now        func() time.Time
}

// NewService creates the Alexa service.
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

// Handle processes one directive envelope for an authenticated user.
//
// Control directives block until the device acknowledges or the
// sweeper times the command out; the returned response on success is
// the optimistic one computed at translation time.
func (s *Service) Handle(ctx context.Context, username string, env *DirectiveEnvelope) (*Response, error) {
	d := &env.Directive

	switch {
	case d.Header.Namespace == "Alexa.Discovery" && d.Header.Name == "Discover":
		return s.discover(ctx, username, d)
	case d.Header.Namespace == "Alexa" && d.Header.Name == "ReportState":
		return s.reportState(ctx, username, d)
	default:
		return s.control(ctx, username, d)
	}
}

func (s *Service) discover(ctx context.Context, username string, d *Directive) (*Response, error) {
	devices, err := s.devices.ListDevices(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}

	s.logger.Debug("discovery served", "username", username, "endpoints", len(devices))
	return Discover(d, devices), nil
}

func (s *Service) reportState(ctx context.Context, username string, d *Directive) (*Response, error) {
	if d.Endpoint == nil {
		return nil, fmt.Errorf("%w: missing endpoint", bridge.ErrUnsupportedCommand)
	}

	dev, err := s.devices.GetDevice(ctx, username, d.Endpoint.EndpointID)
	if err != nil {
		return nil, err
	}

	props := Project(dev, s.now())
	return &Response{
		Context: &Context{Properties: props},
		Event: Event{
			Header: Header{
				Namespace:        "Alexa",
				Name:             "StateReport",
				MessageID:        uuid.NewString(),
				CorrelationToken: d.Header.CorrelationToken,
				PayloadVersion:   payloadVersion,
			},
			Endpoint: d.Endpoint,
			Payload:  struct{}{},
		},
	}, nil
}

func (s *Service) control(ctx context.Context, username string, d *Directive) (*Response, error) {
	if d.Endpoint == nil {
		return nil, fmt.Errorf("%w: missing endpoint", bridge.ErrUnsupportedCommand)
	}

	dev, err := s.devices.GetDevice(ctx, username, d.Endpoint.EndpointID)
	if err != nil {
		return nil, err
	}

	// Translation failures stop the pipeline here: nothing is
	// published and no pending command is registered.
	tr, err := Translate(dev, d, s.now())
	if err != nil {
		return nil, err
	}

	tr.Command.MessageID = uuid.NewString()
	optimistic := NewResponse(d, tr.Properties)
	handle := bridge.NewResponseHandle()

	if err := s.dispatcher.Dispatch(username, tr.Command, Vendor, handle, optimistic, dev.ID); err != nil {
		return nil, err
	}

	result, err := handle.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if result.Err != nil {
		return nil, result.Err
	}

	resp, ok := result.Response.(*Response)
	if !ok {
		return nil, fmt.Errorf("unexpected response type %T", result.Response)
	}
	return resp, nil
}
