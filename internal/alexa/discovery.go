package alexa

import (
	"github.com/google/uuid"

	"github.com/voicelink/voicelink-core/internal/capability"
	"github.com/voicelink/voicelink-core/internal/device"
)

const manufacturerName = "VoiceLink"

// DiscoveryCapability describes one interface an endpoint supports.
type DiscoveryCapability struct {
	Type          string              `json:"type"`
	Interface     string              `json:"interface"`
	Version       string              `json:"version"`
	Properties    *SupportedProperties `json:"properties,omitempty"`
	Configuration map[string]any      `json:"configuration,omitempty"`
}

// SupportedProperties lists the reportable properties of an interface.
type SupportedProperties struct {
	Supported           []NamedProperty `json:"supported"`
	ProactivelyReported bool            `json:"proactivelyReported"`
	Retrievable         bool            `json:"retrievable"`
}

// NamedProperty names one supported property.
type NamedProperty struct {
	Name string `json:"name"`
}

// DiscoveryEndpoint is one device in a discovery response.
type DiscoveryEndpoint struct {
	EndpointID        string                `json:"endpointId"`
	ManufacturerName  string                `json:"manufacturerName"`
	FriendlyName      string                `json:"friendlyName"`
	Description       string                `json:"description"`
	DisplayCategories []string              `json:"displayCategories"`
	Capabilities      []DiscoveryCapability `json:"capabilities"`
}

// DiscoveryPayload is the body of a Discover.Response event.
type DiscoveryPayload struct {
	Endpoints []DiscoveryEndpoint `json:"endpoints"`
}

// supportedProperty names per interface, used to advertise what state
// the endpoint reports.
var interfaceProperties = map[string][]string{
	capability.AlexaInterfacePower:      {"powerState"},
	capability.AlexaInterfaceBrightness: {"brightness"},
	capability.AlexaInterfaceColor:      {"color"},
	capability.AlexaInterfaceColorTemp:  {"colorTemperatureInKelvin"},
	capability.AlexaInterfaceInput:      {"input"},
	capability.AlexaInterfaceLock:       {"lockState"},
	capability.AlexaInterfacePercentage: {"percentage"},
	capability.AlexaInterfacePlayback:   {},
	capability.AlexaInterfaceTempSensor: {"temperature"},
	capability.AlexaInterfaceThermostat: {"targetSetpoint", "thermostatMode"},
	capability.AlexaInterfaceSpeaker:    {"volume", "muted"},
}

// Discover renders the full endpoint list for a Discover directive.
func Discover(d *Directive, devices []device.Device) *Response {
	endpoints := make([]DiscoveryEndpoint, 0, len(devices))
	for i := range devices {
		endpoints = append(endpoints, discoveryEndpoint(&devices[i]))
	}

	return &Response{
		Event: Event{
			Header: Header{
				Namespace:      "Alexa.Discovery",
				Name:           "Discover.Response",
				MessageID:      uuid.NewString(),
				PayloadVersion: payloadVersion,
			},
			Payload: DiscoveryPayload{Endpoints: endpoints},
		},
	}
}

func discoveryEndpoint(dev *device.Device) DiscoveryEndpoint {
	caps := []DiscoveryCapability{{
		Type:      "AlexaInterface",
		Interface: "Alexa",
		Version:   payloadVersion,
	}}

	for _, c := range dev.Capabilities {
		iface, ok := capability.AlexaInterface(c)
		if !ok {
			continue
		}
		caps = append(caps, interfaceCapability(dev, c, iface))
	}

	// Health is always advertised so the endpoint stays addressable
	// even when full state reporting is disabled.
	caps = append(caps, DiscoveryCapability{
		Type:      "AlexaInterface",
		Interface: capability.AlexaInterfaceHealth,
		Version:   payloadVersion,
		Properties: &SupportedProperties{
			Supported:           []NamedProperty{{Name: "connectivity"}},
			ProactivelyReported: dev.ReportState,
			Retrievable:         true,
		},
	})

	return DiscoveryEndpoint{
		EndpointID:        dev.ID,
		ManufacturerName:  manufacturerName,
		FriendlyName:      dev.Name,
		Description:       endpointDescription(dev),
		DisplayCategories: []string{capability.AlexaDisplayCategory(dev.Capabilities)},
		Capabilities:      caps,
	}
}

func endpointDescription(dev *device.Device) string {
	if dev.Description != "" {
		return dev.Description
	}
	return manufacturerName + " device"
}

func interfaceCapability(dev *device.Device, c capability.Capability, iface string) DiscoveryCapability {
	dc := DiscoveryCapability{
		Type:      "AlexaInterface",
		Interface: iface,
		Version:   payloadVersion,
	}

	if names := interfaceProperties[iface]; len(names) > 0 {
		supported := make([]NamedProperty, 0, len(names))
		for _, n := range names {
			supported = append(supported, NamedProperty{Name: n})
		}
		dc.Properties = &SupportedProperties{
			Supported:           supported,
			ProactivelyReported: dev.ReportState,
			Retrievable:         dev.ReportState,
		}
	}

	switch c {
	case capability.Thermostat:
		if modes := dev.ThermostatModes(); len(modes) > 0 {
			dc.Configuration = map[string]any{"supportedModes": modes}
		}
	case capability.Input:
		if inputs := dev.AttrStrings(device.AttrInputs); len(inputs) > 0 {
			named := make([]NamedProperty, 0, len(inputs))
			for _, in := range inputs {
				named = append(named, NamedProperty{Name: in})
			}
			dc.Configuration = map[string]any{"inputs": named}
		}
	}

	return dc
}
