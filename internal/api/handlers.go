package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/voicelink/voicelink-core/internal/alexa"
	"github.com/voicelink/voicelink-core/internal/device"
	"github.com/voicelink/voicelink-core/internal/google"
)

// AlexaHandler processes Alexa directive envelopes. Satisfied by
// *alexa.Service.
type AlexaHandler interface {
	Handle(ctx context.Context, username string, env *alexa.DirectiveEnvelope) (*alexa.Response, error)
}

// GoogleHandler processes Google fulfillment requests. Satisfied by
// *google.Service.
type GoogleHandler interface {
	Handle(ctx context.Context, username string, req *google.Request) (*google.Response, error)
}

// DeviceReader is the registry read surface the API needs.
type DeviceReader interface {
	GetDevice(ctx context.Context, username, id string) (*device.Device, error)
	ListDevices(ctx context.Context, username string) ([]device.Device, error)
}

// handleAlexaDirective decodes one directive envelope and hands it to
// the Alexa service. Control directives block here until the device
// acknowledges or the sweeper times the command out.
func (s *Server) handleAlexaDirective(w http.ResponseWriter, r *http.Request) {
	var env alexa.DirectiveEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeBadRequest(w, "invalid directive envelope")
		return
	}

	username := usernameFromContext(r.Context())
	resp, err := s.alexa.Handle(r.Context(), username, &env)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGoogleFulfillment decodes one intent request and hands it to
// the Google service. Per-device failures come back in-band in the
// response body; only a malformed envelope produces a non-200.
func (s *Server) handleGoogleFulfillment(w http.ResponseWriter, r *http.Request) {
	var req google.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid fulfillment request")
		return
	}

	username := usernameFromContext(r.Context())
	resp, err := s.google.Handle(r.Context(), username, &req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleListDevices returns the caller's devices in canonical form.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	username := usernameFromContext(r.Context())
	devices, err := s.registry.ListDevices(r.Context(), username)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}

// handleGetDeviceState returns one device's state through a vendor
// projector. The vendor query parameter selects the projection.
func (s *Server) handleGetDeviceState(w http.ResponseWriter, r *http.Request) {
	username := usernameFromContext(r.Context())
	deviceID := chi.URLParam(r, "id")

	dev, err := s.registry.GetDevice(r.Context(), username, deviceID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	switch r.URL.Query().Get("vendor") {
	case alexa.Vendor:
		writeJSON(w, http.StatusOK, map[string]any{
			"properties": alexa.Project(dev, time.Now()),
		})
	case google.Vendor:
		writeJSON(w, http.StatusOK, google.QueryState(dev))
	case "":
		writeJSON(w, http.StatusOK, map[string]any{
			"state":            dev.State,
			"state_updated_at": dev.StateUpdatedAt,
		})
	default:
		writeBadRequest(w, "vendor must be alexa or google")
	}
}
