package alexa

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// payloadVersion is the Smart Home API version spoken on every message.
const payloadVersion = "3"

// Header identifies a directive or event.
type Header struct {
	Namespace        string `json:"namespace"`
	Name             string `json:"name"`
	MessageID        string `json:"messageId"`
	CorrelationToken string `json:"correlationToken,omitempty"`
	PayloadVersion   string `json:"payloadVersion"`
}

// Scope carries the bearer token identifying the account.
type Scope struct {
	Type  string `json:"type"`
	Token string `json:"token,omitempty"`
}

// Endpoint addresses one device in a directive or event.
type Endpoint struct {
	EndpointID string            `json:"endpointId"`
	Scope      *Scope            `json:"scope,omitempty"`
	Cookie     map[string]string `json:"cookie,omitempty"`
}

// Directive is the inbound request envelope.
type Directive struct {
	Header   Header          `json:"header"`
	Endpoint *Endpoint       `json:"endpoint,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// DirectiveEnvelope is the outer wrapper Alexa posts.
type DirectiveEnvelope struct {
	Directive Directive `json:"directive"`
}

// Property is one entry in a response context: the value of a single
// reportable interface property at a point in time.
type Property struct {
	Namespace                 string `json:"namespace"`
	Name                      string `json:"name"`
	Value                     any    `json:"value"`
	TimeOfSample              string `json:"timeOfSample"`
	UncertaintyInMilliseconds int    `json:"uncertaintyInMilliseconds"`
}

// Context carries the property snapshot attached to a response.
type Context struct {
	Properties []Property `json:"properties"`
}

// Event is the outbound event body.
type Event struct {
	Header   Header    `json:"header"`
	Endpoint *Endpoint `json:"endpoint,omitempty"`
	Payload  any       `json:"payload"`
}

// Response is the outbound envelope for every event type.
type Response struct {
	Context *Context `json:"context,omitempty"`
	Event   Event    `json:"event"`
}

// ErrorPayload is the body of an ErrorResponse event.
type ErrorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`

	// ValidRange accompanies VALUE_OUT_OF_RANGE and
	// TEMPERATURE_VALUE_OUT_OF_RANGE errors.
	ValidRange *ValidRange `json:"validRange,omitempty"`
}

// ValidRange bounds an out-of-range error.
type ValidRange struct {
	MinimumValue any `json:"minimumValue"`
	MaximumValue any `json:"maximumValue"`
}

// Temperature is the {value, scale} pair used by the thermostat and
// temperature-sensor interfaces. Values are Celsius throughout.
type Temperature struct {
	Value float64 `json:"value"`
	Scale string  `json:"scale"`
}

// ScaleCelsius is the only scale emitted.
const ScaleCelsius = "CELSIUS"

// ColorValue is the HSB triple used by the color interface.
type ColorValue struct {
	Hue        float64 `json:"hue"`
	Saturation float64 `json:"saturation"`
	Brightness float64 `json:"brightness"`
}

// NewResponse builds a success Response echoing the directive's
// correlation token, with the given optimistic property snapshot.
func NewResponse(d *Directive, properties []Property) *Response {
	return &Response{
		Context: &Context{Properties: properties},
		Event: Event{
			Header: Header{
				Namespace:        "Alexa",
				Name:             "Response",
				MessageID:        uuid.NewString(),
				CorrelationToken: d.Header.CorrelationToken,
				PayloadVersion:   payloadVersion,
			},
			Endpoint: d.Endpoint,
			Payload:  struct{}{},
		},
	}
}

// NewErrorResponse builds an ErrorResponse event for a directive.
func NewErrorResponse(d *Directive, errType, message string, validRange *ValidRange) *Response {
	return &Response{
		Event: Event{
			Header: Header{
				Namespace:        "Alexa",
				Name:             "ErrorResponse",
				MessageID:        uuid.NewString(),
				CorrelationToken: d.Header.CorrelationToken,
				PayloadVersion:   payloadVersion,
			},
			Endpoint: d.Endpoint,
			Payload: ErrorPayload{
				Type:       errType,
				Message:    message,
				ValidRange: validRange,
			},
		},
	}
}

// sampleTime renders a property timestamp in the ISO form Alexa expects.
func sampleTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}
