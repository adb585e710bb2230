package alexa

import (
	"testing"
	"time"

	"github.com/voicelink/voicelink-core/internal/capability"
	"github.com/voicelink/voicelink-core/internal/device"
)

func findProperty(props []Property, name string) (Property, bool) {
	for _, p := range props {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

func TestProjectSkipsMissingFields(t *testing.T) {
	dev := &device.Device{
		ID: "dev-1", Username: "alice", Name: "Lamp",
		Capabilities: []capability.Capability{
			capability.Power,
			capability.Brightness,
			capability.Color, // no color fields in state
		},
		ReportState: true,
		State: map[string]any{
			device.FieldPower:      "ON",
			device.FieldBrightness: float64(60),
		},
	}

	props := Project(dev, testNow)

	if _, ok := findProperty(props, "powerState"); !ok {
		t.Error("powerState property missing")
	}
	if _, ok := findProperty(props, "brightness"); !ok {
		t.Error("brightness property missing")
	}
	// A capability with absent state fields is skipped, not padded.
	if _, ok := findProperty(props, "color"); ok {
		t.Error("color property should be skipped when fields are missing")
	}
	if _, ok := findProperty(props, "connectivity"); !ok {
		t.Error("connectivity property must always be present")
	}
}

func TestProjectColorRequiresAllThreeFields(t *testing.T) {
	dev := &device.Device{
		ID: "dev-1", Username: "alice", Name: "Lamp",
		Capabilities: []capability.Capability{capability.Color},
		ReportState:  true,
		State: map[string]any{
			device.FieldColorHue:        float64(120),
			device.FieldColorSaturation: float64(0.5),
			// colorBrightness missing
		},
	}

	if _, ok := findProperty(Project(dev, testNow), "color"); ok {
		t.Error("color property requires hue, saturation, and brightness")
	}

	dev.State[device.FieldColorBrightness] = float64(0.8)
	p, ok := findProperty(Project(dev, testNow), "color")
	if !ok {
		t.Fatal("color property missing with all fields present")
	}
	cv, ok := p.Value.(ColorValue)
	if !ok || cv.Hue != 120 {
		t.Errorf("color value = %v", p.Value)
	}
}

func TestProjectReportStateDisabled(t *testing.T) {
	dev := &device.Device{
		ID: "dev-1", Username: "alice", Name: "Lamp",
		Capabilities: []capability.Capability{capability.Power},
		ReportState:  false,
		State:        map[string]any{device.FieldPower: "ON"},
	}

	props := Project(dev, testNow)

	// A reduced health-only projection, not an error.
	if len(props) != 1 {
		t.Fatalf("got %d properties, want health only", len(props))
	}
	if props[0].Name != "connectivity" {
		t.Errorf("property = %q, want connectivity", props[0].Name)
	}
}

func TestProjectUsesStateTimestamp(t *testing.T) {
	at := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	dev := &device.Device{
		ID: "dev-1", Username: "alice", Name: "Lamp",
		Capabilities: []capability.Capability{capability.Power},
		ReportState:  true,
		State: map[string]any{
			device.FieldPower: "ON",
			device.FieldTime:  float64(at.UnixMilli()),
		},
	}

	props := Project(dev, testNow)
	p, ok := findProperty(props, "powerState")
	if !ok {
		t.Fatal("powerState property missing")
	}
	if p.TimeOfSample != "2026-02-01T10:00:00Z" {
		t.Errorf("TimeOfSample = %q, want the state stamp", p.TimeOfSample)
	}
}

func TestProjectThermostatAndSpeakerPartial(t *testing.T) {
	dev := &device.Device{
		ID: "dev-1", Username: "alice", Name: "HVAC",
		Capabilities: []capability.Capability{capability.Thermostat, capability.Speaker},
		ReportState:  true,
		State: map[string]any{
			device.FieldSetpoint: float64(21),
			// no thermostatMode, no volume, mute only
			device.FieldMute: true,
		},
	}

	props := Project(dev, testNow)

	if _, ok := findProperty(props, "targetSetpoint"); !ok {
		t.Error("targetSetpoint missing")
	}
	if _, ok := findProperty(props, "thermostatMode"); ok {
		t.Error("thermostatMode should be skipped without state")
	}
	if _, ok := findProperty(props, "volume"); ok {
		t.Error("volume should be skipped without state")
	}
	if p, ok := findProperty(props, "muted"); !ok || p.Value != true {
		t.Error("muted property missing or wrong")
	}
}
