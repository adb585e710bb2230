package device

import (
	"time"

	"github.com/voicelink/voicelink-core/internal/capability"
)

// Canonical state field names shared by both vendor translators and the
// state mutator. Field devices report these names on the state topic and
// commands carry them in their payloads.
const (
	FieldPower            = "power"
	FieldBrightness       = "brightness"
	FieldColorHue         = "colorHue"
	FieldColorSaturation  = "colorSaturation"
	FieldColorBrightness  = "colorBrightness"
	FieldColorTemperature = "colorTemperature"
	FieldInput            = "input"
	FieldLock             = "lock"
	FieldPercentage       = "percentage"
	FieldPlaybackMode     = "playbackMode"
	FieldTemperature      = "temperature"
	FieldThermostatMode   = "thermostatMode"
	FieldSetpoint         = "thermostatSetPoint"
	FieldVolume           = "volume"
	FieldMute             = "mute"

	// FieldTime is the single freshness stamp written on every state
	// mutation. Devices never report it themselves.
	FieldTime = "time"
)

// Attribute keys recognised in Device.Attributes. Range attributes bound
// what commands the translators will accept for this device.
const (
	AttrColorTempMin    = "color_temp_min"    // Kelvin, lower bound for colorTemperature
	AttrColorTempMax    = "color_temp_max"    // Kelvin, upper bound for colorTemperature
	AttrTemperatureMin  = "temperature_min"   // Celsius, lower setpoint bound
	AttrTemperatureMax  = "temperature_max"   // Celsius, upper setpoint bound
	AttrThermostatModes = "thermostat_modes"  // []string of supported modes
	AttrInputs          = "inputs"            // []string of selectable input names
	AttrVolumeMax       = "volume_max"        // upper bound reported to vendors
)

// Thermostat mode values carried in state and command payloads.
const (
	ModeOff  = "OFF"
	ModeOn   = "ON"
	ModeHeat = "HEAT"
	ModeCool = "COOL"
	ModeAuto = "AUTO"
)

// Device is a voice-controllable endpoint owned by a single user.
//
// Capabilities drive which vendor interfaces/traits the device is
// advertised with and which commands the translators accept for it.
// Attributes carry per-device metadata such as accepted ranges.
// State is the canonical field map, last written by the state mutator.
type Device struct {
	ID           string                  `json:"id"`
	Username     string                  `json:"username"`
	Name         string                  `json:"name"`
	Description  string                  `json:"description,omitempty"`
	Capabilities []capability.Capability `json:"capabilities"`
	Attributes   map[string]any          `json:"attributes,omitempty"`

	// ReportState controls whether full state is projected to vendors.
	// When false only connectivity/health is reported.
	ReportState bool `json:"report_state"`

	State          map[string]any `json:"state"`
	StateUpdatedAt *time.Time     `json:"state_updated_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasCapability reports whether the device declares the given capability.
func (d *Device) HasCapability(c capability.Capability) bool {
	for _, have := range d.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// AttrFloat returns a numeric attribute. JSON decoding stores numbers as
// float64 but integer literals from tests or callers are accepted too.
func (d *Device) AttrFloat(key string) (float64, bool) {
	v, ok := d.Attributes[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// AttrStrings returns a string-slice attribute. Both []string and
// []any-of-string forms are accepted since the value round-trips
// through JSON storage.
func (d *Device) AttrStrings(key string) []string {
	v, ok := d.Attributes[key]
	if !ok {
		return nil
	}
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			if str, ok := e.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// ThermostatModes returns the device's supported thermostat modes, or nil
// when the attribute is absent.
func (d *Device) ThermostatModes() []string {
	return d.AttrStrings(AttrThermostatModes)
}

// DeepCopy returns a deep copy of the device. Maps and slices are
// duplicated so callers can mutate the copy without affecting cached
// instances.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}
	out := *d

	if d.Capabilities != nil {
		out.Capabilities = make([]capability.Capability, len(d.Capabilities))
		copy(out.Capabilities, d.Capabilities)
	}
	if d.Attributes != nil {
		out.Attributes = copyAnyMap(d.Attributes)
	}
	if d.State != nil {
		out.State = copyAnyMap(d.State)
	}
	if d.StateUpdatedAt != nil {
		t := *d.StateUpdatedAt
		out.StateUpdatedAt = &t
	}
	return &out
}

// copyAnyMap copies a map one level deep, descending into nested maps
// and slices as they appear in decoded JSON.
func copyAnyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyAnyValue(v)
	}
	return out
}

func copyAnyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyAnyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyAnyValue(e)
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	default:
		return v
	}
}
