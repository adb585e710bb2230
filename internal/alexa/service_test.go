package alexa

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/voicelink/voicelink-core/internal/bridge"
	"github.com/voicelink/voicelink-core/internal/capability"
	"github.com/voicelink/voicelink-core/internal/device"
)

// fakeStore serves a fixed device list.
type fakeStore struct {
	devices []device.Device
}

func (f *fakeStore) GetDevice(_ context.Context, username, id string) (*device.Device, error) {
	for i := range f.devices {
		if f.devices[i].Username == username && f.devices[i].ID == id {
			return f.devices[i].DeepCopy(), nil
		}
	}
	return nil, device.ErrDeviceNotFound
}

func (f *fakeStore) ListDevices(_ context.Context, username string) ([]device.Device, error) {
	var out []device.Device
	for i := range f.devices {
		if f.devices[i].Username == username {
			out = append(out, *f.devices[i].DeepCopy())
		}
	}
	return out, nil
}

// fakeDispatcher records dispatches and resolves each handle per mode.
type fakeDispatcher struct {
	mu         sync.Mutex
	dispatched []bridge.Command
	mode       string // "ack", "nack", "timeout", "hang"
}

func (f *fakeDispatcher) Dispatch(_ string, cmd bridge.Command, _ string, handle *bridge.ResponseHandle, optimistic any, _ string) error {
	f.mu.Lock()
	f.dispatched = append(f.dispatched, cmd)
	f.mu.Unlock()

	switch f.mode {
	case "nack":
		handle.Resolve(bridge.Result{Err: bridge.ErrCommandFailed})
	case "timeout":
		handle.Resolve(bridge.Result{Err: bridge.ErrCommandTimeout})
	case "hang":
	default:
		handle.Resolve(bridge.Result{Response: optimistic})
	}
	return nil
}

func (f *fakeDispatcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.dispatched)
}

func envelope(d *Directive) *DirectiveEnvelope {
	return &DirectiveEnvelope{Directive: *d}
}

func TestServiceControlRoundTrip(t *testing.T) {
	store := &fakeStore{devices: []device.Device{*lightDevice()}}
	dispatcher := &fakeDispatcher{}
	svc := NewService(store, dispatcher)

	d := directive(capability.AlexaInterfaceBrightness, "SetBrightness", `{"brightness":75}`)
	d.Header.CorrelationToken = "corr-1"
	resp, err := svc.Handle(context.Background(), "alice", envelope(d))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	if resp.Event.Header.Name != "Response" {
		t.Errorf("event name = %q, want Response", resp.Event.Header.Name)
	}
	if resp.Event.Header.CorrelationToken != "corr-1" {
		t.Error("correlation token not echoed")
	}

	// The delivered response is the optimistic one from translation.
	p, ok := findProperty(resp.Context.Properties, "brightness")
	if !ok || p.Value != float64(75) {
		t.Errorf("brightness property = %v", resp.Context.Properties)
	}

	if dispatcher.count() != 1 {
		t.Errorf("dispatched %d commands, want 1", dispatcher.count())
	}
	if dispatcher.dispatched[0].MessageID == "" {
		t.Error("dispatched command must carry a correlation key")
	}
}

func TestServiceControlFailure(t *testing.T) {
	store := &fakeStore{devices: []device.Device{*lightDevice()}}
	dispatcher := &fakeDispatcher{mode: "nack"}
	svc := NewService(store, dispatcher)

	d := directive(capability.AlexaInterfacePower, "TurnOn", "")
	_, err := svc.Handle(context.Background(), "alice", envelope(d))
	if !errors.Is(err, bridge.ErrCommandFailed) {
		t.Errorf("Handle = %v, want ErrCommandFailed", err)
	}
}

func TestServiceControlTimeout(t *testing.T) {
	store := &fakeStore{devices: []device.Device{*lightDevice()}}
	dispatcher := &fakeDispatcher{mode: "timeout"}
	svc := NewService(store, dispatcher)

	d := directive(capability.AlexaInterfacePower, "TurnOn", "")
	_, err := svc.Handle(context.Background(), "alice", envelope(d))
	if !errors.Is(err, bridge.ErrCommandTimeout) {
		t.Errorf("Handle = %v, want ErrCommandTimeout", err)
	}
}

func TestServiceValidationStopsBeforeDispatch(t *testing.T) {
	store := &fakeStore{devices: []device.Device{*lightDevice()}}
	dispatcher := &fakeDispatcher{}
	svc := NewService(store, dispatcher)

	d := directive(capability.AlexaInterfaceColorTemp, "SetColorTemperature",
		`{"colorTemperatureInKelvin":12000}`)
	_, err := svc.Handle(context.Background(), "alice", envelope(d))
	if !errors.Is(err, bridge.ErrColorTempOutOfRange) {
		t.Fatalf("Handle = %v, want ErrColorTempOutOfRange", err)
	}

	// Range violations stop the pipeline: no publish at all.
	if dispatcher.count() != 0 {
		t.Errorf("dispatched %d commands, want 0", dispatcher.count())
	}
}

func TestServiceControlUnknownDevice(t *testing.T) {
	svc := NewService(&fakeStore{}, &fakeDispatcher{})

	d := directive(capability.AlexaInterfacePower, "TurnOn", "")
	_, err := svc.Handle(context.Background(), "alice", envelope(d))
	if !errors.Is(err, device.ErrDeviceNotFound) {
		t.Errorf("Handle = %v, want ErrDeviceNotFound", err)
	}
}

func TestServiceControlContextCancelled(t *testing.T) {
	store := &fakeStore{devices: []device.Device{*lightDevice()}}
	svc := NewService(store, &fakeDispatcher{mode: "hang"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	d := directive(capability.AlexaInterfacePower, "TurnOn", "")
	_, err := svc.Handle(ctx, "alice", envelope(d))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Handle = %v, want DeadlineExceeded", err)
	}
}

func TestServiceDiscovery(t *testing.T) {
	lamp := lightDevice()
	hvac := &device.Device{
		ID: "hvac-1", Username: "alice", Name: "Thermostat",
		Capabilities: []capability.Capability{capability.Thermostat, capability.TemperatureRead},
		Attributes: map[string]any{
			device.AttrThermostatModes: []any{"HEAT", "COOL"},
		},
		ReportState: true,
	}
	other := &device.Device{ID: "x", Username: "bob", Name: "Bob's Lamp",
		Capabilities: []capability.Capability{capability.Power}}

	store := &fakeStore{devices: []device.Device{*lamp, *hvac, *other}}
	svc := NewService(store, &fakeDispatcher{})

	d := directive("Alexa.Discovery", "Discover", `{"scope":{"type":"BearerToken"}}`)
	resp, err := svc.Handle(context.Background(), "alice", envelope(d))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	if resp.Event.Header.Name != "Discover.Response" {
		t.Errorf("event name = %q, want Discover.Response", resp.Event.Header.Name)
	}

	payload, ok := resp.Event.Payload.(DiscoveryPayload)
	if !ok {
		t.Fatalf("payload type = %T", resp.Event.Payload)
	}
	if len(payload.Endpoints) != 2 {
		t.Fatalf("endpoints = %d, want 2 (scoped to user)", len(payload.Endpoints))
	}

	var hvacEP *DiscoveryEndpoint
	for i := range payload.Endpoints {
		if payload.Endpoints[i].EndpointID == "hvac-1" {
			hvacEP = &payload.Endpoints[i]
		}
	}
	if hvacEP == nil {
		t.Fatal("hvac endpoint missing")
	}
	if hvacEP.DisplayCategories[0] != "THERMOSTAT" {
		t.Errorf("display category = %v, want THERMOSTAT", hvacEP.DisplayCategories)
	}

	foundThermostat := false
	for _, c := range hvacEP.Capabilities {
		if c.Interface == capability.AlexaInterfaceThermostat {
			foundThermostat = true
			if c.Configuration == nil {
				t.Error("thermostat capability should carry supportedModes")
			}
		}
	}
	if !foundThermostat {
		t.Error("thermostat interface missing from discovery")
	}
}

func TestServiceReportState(t *testing.T) {
	store := &fakeStore{devices: []device.Device{*lightDevice()}}
	svc := NewService(store, &fakeDispatcher{})

	d := directive("Alexa", "ReportState", "")
	resp, err := svc.Handle(context.Background(), "alice", envelope(d))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	if resp.Event.Header.Name != "StateReport" {
		t.Errorf("event name = %q, want StateReport", resp.Event.Header.Name)
	}
	if _, ok := findProperty(resp.Context.Properties, "powerState"); !ok {
		t.Error("powerState missing from state report")
	}
	if _, ok := findProperty(resp.Context.Properties, "connectivity"); !ok {
		t.Error("connectivity missing from state report")
	}
}
