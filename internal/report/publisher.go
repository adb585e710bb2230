package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/voicelink/voicelink-core/internal/alexa"
	"github.com/voicelink/voicelink-core/internal/device"
	"github.com/voicelink/voicelink-core/internal/google"
	"github.com/voicelink/voicelink-core/internal/infrastructure/config"
	"github.com/voicelink/voicelink-core/internal/user"
)

// DeviceStore provides device lookups for building report payloads.
type DeviceStore interface {
	GetDevice(ctx context.Context, username, id string) (*device.Device, error)
}

// LinkStore provides account link flags per user.
type LinkStore interface {
	GetByUsername(ctx context.Context, username string) (*user.User, error)
}

// Logger is the minimal logging interface the publisher needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Publisher pushes state reports to vendor clouds after a device state
// change has been applied. Pushes are best effort: a failed delivery is
// logged and dropped, never retried, and never blocks the state path.
type Publisher struct {
	devices DeviceStore
	links   LinkStore
	cfg     config.VendorsConfig
	client  *http.Client
	logger  Logger
	now     func() time.Time
}

// NewPublisher creates a report publisher over the given stores.
func NewPublisher(devices DeviceStore, links LinkStore, cfg config.VendorsConfig) *Publisher {
	return &Publisher{
		devices: devices,
		links:   links,
		cfg:     cfg,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  noopLogger{},
		now:     time.Now,
	}
}

// SetLogger replaces the no-op logger.
func (p *Publisher) SetLogger(l Logger) {
	if l != nil {
		p.logger = l
	}
}

// SetHTTPClient replaces the default HTTP client.
func (p *Publisher) SetHTTPClient(c *http.Client) {
	if c != nil {
		p.client = c
	}
}

// SendReport pushes the device's current state to every vendor cloud that
// is both configured for push and linked by the user. Failures are logged
// and dropped.
func (p *Publisher) SendReport(ctx context.Context, username, deviceID string) {
	dev, err := p.devices.GetDevice(ctx, username, deviceID)
	if err != nil {
		p.logger.Warn("report: device lookup failed",
			"username", username, "device_id", deviceID, "error", err)
		return
	}
	if !dev.ReportState {
		return
	}

	u, err := p.links.GetByUsername(ctx, username)
	if err != nil {
		p.logger.Warn("report: user lookup failed",
			"username", username, "error", err)
		return
	}

	if p.cfg.Alexa.PushEnabled() && u.AlexaLinked {
		if err := p.pushAlexa(ctx, dev); err != nil {
			p.logger.Warn("report: alexa push failed",
				"username", username, "device_id", deviceID, "error", err)
		}
	}
	if p.cfg.Google.PushEnabled() && u.GoogleLinked {
		if err := p.pushGoogle(ctx, username, dev); err != nil {
			p.logger.Warn("report: google push failed",
				"username", username, "device_id", deviceID, "error", err)
		}
	}
}

type changeCause struct {
	Type string `json:"type"`
}

type change struct {
	Cause      changeCause      `json:"cause"`
	Properties []alexa.Property `json:"properties"`
}

type changePayload struct {
	Change change `json:"change"`
}

func (p *Publisher) pushAlexa(ctx context.Context, dev *device.Device) error {
	props := alexa.Project(dev, p.now())
	if len(props) == 0 {
		return nil
	}

	envelope := alexa.Response{
		Event: alexa.Event{
			Header: alexa.Header{
				Namespace:      "Alexa",
				Name:           "ChangeReport",
				MessageID:      uuid.NewString(),
				PayloadVersion: "3",
			},
			Endpoint: &alexa.Endpoint{
				EndpointID: dev.ID,
				Scope: &alexa.Scope{
					Type:  "BearerToken",
					Token: p.cfg.Alexa.ClientToken,
				},
			},
			Payload: changePayload{
				Change: change{
					Cause:      changeCause{Type: "PHYSICAL_INTERACTION"},
					Properties: props,
				},
			},
		},
	}

	return p.post(ctx, p.cfg.Alexa.EventGatewayURL, p.cfg.Alexa.ClientToken, envelope)
}

type homeGraphDevices struct {
	States map[string]map[string]any `json:"states"`
}

type homeGraphPayload struct {
	Devices homeGraphDevices `json:"devices"`
}

type homeGraphRequest struct {
	RequestID   string           `json:"requestId"`
	AgentUserID string           `json:"agentUserId"`
	Payload     homeGraphPayload `json:"payload"`
}

func (p *Publisher) pushGoogle(ctx context.Context, username string, dev *device.Device) error {
	body := homeGraphRequest{
		RequestID:   uuid.NewString(),
		AgentUserID: username,
		Payload: homeGraphPayload{
			Devices: homeGraphDevices{
				States: map[string]map[string]any{
					dev.ID: google.QueryState(dev),
				},
			},
		},
	}

	return p.post(ctx, p.cfg.Google.HomeGraphURL, p.cfg.Google.ServiceKey, body)
}

func (p *Publisher) post(ctx context.Context, url, token string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("send report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("report rejected: status %d", resp.StatusCode)
	}
	return nil
}
