package report

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/voicelink/voicelink-core/internal/capability"
	"github.com/voicelink/voicelink-core/internal/device"
	"github.com/voicelink/voicelink-core/internal/infrastructure/config"
	"github.com/voicelink/voicelink-core/internal/user"
)

type fakeDeviceStore struct {
	dev *device.Device
	err error
}

func (f *fakeDeviceStore) GetDevice(_ context.Context, _, _ string) (*device.Device, error) {
	return f.dev, f.err
}

type fakeLinkStore struct {
	user *user.User
	err  error
}

func (f *fakeLinkStore) GetByUsername(_ context.Context, _ string) (*user.User, error) {
	return f.user, f.err
}

type capturedRequest struct {
	auth string
	body []byte
}

func captureServer(t *testing.T) (*httptest.Server, func() []capturedRequest) {
	t.Helper()
	var mu sync.Mutex
	var reqs []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, capturedRequest{auth: r.Header.Get("Authorization"), body: body})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), reqs...)
	}
}

func testDevice() *device.Device {
	return &device.Device{
		ID:           "lamp-1",
		Username:     "alice",
		Name:         "Desk Lamp",
		Capabilities: []capability.Capability{capability.Power},
		ReportState:  true,
		State: map[string]any{
			device.FieldPower: "ON",
			device.FieldTime:  float64(1767225600000),
		},
	}
}

func testPublisher(alexaURL, googleURL string, u *user.User, dev *device.Device) *Publisher {
	cfg := config.VendorsConfig{
		Alexa:  config.AlexaConfig{EventGatewayURL: alexaURL, ClientToken: "amzn1.token"},
		Google: config.GoogleConfig{HomeGraphURL: googleURL, ServiceKey: `{"type":"service_account"}`},
	}
	p := NewPublisher(&fakeDeviceStore{dev: dev}, &fakeLinkStore{user: u}, cfg)
	p.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return p
}

func TestSendReportBothVendors(t *testing.T) {
	alexaSrv, alexaReqs := captureServer(t)
	googleSrv, googleReqs := captureServer(t)

	u := &user.User{Username: "alice", AlexaLinked: true, GoogleLinked: true}
	p := testPublisher(alexaSrv.URL, googleSrv.URL, u, testDevice())

	p.SendReport(context.Background(), "alice", "lamp-1")

	got := alexaReqs()
	if len(got) != 1 {
		t.Fatalf("alexa requests = %d, want 1", len(got))
	}
	if got[0].auth != "Bearer amzn1.token" {
		t.Errorf("alexa auth = %q", got[0].auth)
	}
	var envelope struct {
		Event struct {
			Header struct {
				Namespace string `json:"namespace"`
				Name      string `json:"name"`
				MessageID string `json:"messageId"`
			} `json:"header"`
			Endpoint struct {
				EndpointID string `json:"endpointId"`
			} `json:"endpoint"`
			Payload struct {
				Change struct {
					Cause struct {
						Type string `json:"type"`
					} `json:"cause"`
					Properties []struct {
						Namespace string `json:"namespace"`
						Name      string `json:"name"`
						Value     any    `json:"value"`
					} `json:"properties"`
				} `json:"change"`
			} `json:"payload"`
		} `json:"event"`
	}
	if err := json.Unmarshal(got[0].body, &envelope); err != nil {
		t.Fatalf("unmarshal alexa body: %v", err)
	}
	if envelope.Event.Header.Name != "ChangeReport" {
		t.Errorf("event name = %q, want ChangeReport", envelope.Event.Header.Name)
	}
	if envelope.Event.Header.MessageID == "" {
		t.Error("event messageId is empty")
	}
	if envelope.Event.Endpoint.EndpointID != "lamp-1" {
		t.Errorf("endpointId = %q", envelope.Event.Endpoint.EndpointID)
	}
	if envelope.Event.Payload.Change.Cause.Type != "PHYSICAL_INTERACTION" {
		t.Errorf("cause = %q", envelope.Event.Payload.Change.Cause.Type)
	}
	foundPower := false
	for _, prop := range envelope.Event.Payload.Change.Properties {
		if prop.Namespace == capability.AlexaInterfacePower && prop.Name == "powerState" {
			foundPower = true
			if prop.Value != "ON" {
				t.Errorf("powerState = %v, want ON", prop.Value)
			}
		}
	}
	if !foundPower {
		t.Error("change properties missing powerState")
	}

	gGot := googleReqs()
	if len(gGot) != 1 {
		t.Fatalf("google requests = %d, want 1", len(gGot))
	}
	var hg struct {
		RequestID   string `json:"requestId"`
		AgentUserID string `json:"agentUserId"`
		Payload     struct {
			Devices struct {
				States map[string]map[string]any `json:"states"`
			} `json:"devices"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(gGot[0].body, &hg); err != nil {
		t.Fatalf("unmarshal google body: %v", err)
	}
	if hg.AgentUserID != "alice" {
		t.Errorf("agentUserId = %q", hg.AgentUserID)
	}
	if hg.RequestID == "" {
		t.Error("requestId is empty")
	}
	states, ok := hg.Payload.Devices.States["lamp-1"]
	if !ok {
		t.Fatal("states missing lamp-1")
	}
	if states["on"] != true {
		t.Errorf("on = %v, want true", states["on"])
	}
}

func TestSendReportSkipsUnlinkedVendor(t *testing.T) {
	alexaSrv, alexaReqs := captureServer(t)
	googleSrv, googleReqs := captureServer(t)

	u := &user.User{Username: "alice", AlexaLinked: false, GoogleLinked: true}
	p := testPublisher(alexaSrv.URL, googleSrv.URL, u, testDevice())

	p.SendReport(context.Background(), "alice", "lamp-1")

	if n := len(alexaReqs()); n != 0 {
		t.Errorf("alexa requests = %d, want 0", n)
	}
	if n := len(googleReqs()); n != 1 {
		t.Errorf("google requests = %d, want 1", n)
	}
}

func TestSendReportSkipsWhenPushDisabled(t *testing.T) {
	alexaSrv, alexaReqs := captureServer(t)
	googleSrv, googleReqs := captureServer(t)

	u := &user.User{Username: "alice", AlexaLinked: true, GoogleLinked: true}
	p := testPublisher(alexaSrv.URL, googleSrv.URL, u, testDevice())
	p.cfg.Alexa.ClientToken = ""
	p.cfg.Google.ServiceKey = ""

	p.SendReport(context.Background(), "alice", "lamp-1")

	if n := len(alexaReqs()); n != 0 {
		t.Errorf("alexa requests = %d, want 0", n)
	}
	if n := len(googleReqs()); n != 0 {
		t.Errorf("google requests = %d, want 0", n)
	}
}

func TestSendReportSkipsReportStateDisabled(t *testing.T) {
	alexaSrv, alexaReqs := captureServer(t)
	googleSrv, googleReqs := captureServer(t)

	dev := testDevice()
	dev.ReportState = false
	u := &user.User{Username: "alice", AlexaLinked: true, GoogleLinked: true}
	p := testPublisher(alexaSrv.URL, googleSrv.URL, u, dev)

	p.SendReport(context.Background(), "alice", "lamp-1")

	if n := len(alexaReqs()); n != 0 {
		t.Errorf("alexa requests = %d, want 0", n)
	}
	if n := len(googleReqs()); n != 0 {
		t.Errorf("google requests = %d, want 0", n)
	}
}

func TestSendReportDeviceLookupFailure(t *testing.T) {
	alexaSrv, alexaReqs := captureServer(t)

	cfg := config.VendorsConfig{
		Alexa: config.AlexaConfig{EventGatewayURL: alexaSrv.URL, ClientToken: "amzn1.token"},
	}
	p := NewPublisher(
		&fakeDeviceStore{err: device.ErrDeviceNotFound},
		&fakeLinkStore{user: &user.User{Username: "alice", AlexaLinked: true}},
		cfg,
	)

	p.SendReport(context.Background(), "alice", "ghost")

	if n := len(alexaReqs()); n != 0 {
		t.Errorf("alexa requests = %d, want 0", n)
	}
}

func TestSendReportDeliveryFailureIsDropped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	u := &user.User{Username: "alice", AlexaLinked: true, GoogleLinked: false}
	p := testPublisher(srv.URL, srv.URL, u, testDevice())

	// Must not panic or block; the failure is logged and dropped.
	p.SendReport(context.Background(), "alice", "lamp-1")
}
