package capability

// Capability identifies something a device can do, in canonical
// vendor-agnostic form. Devices declare a set of capabilities; the vendor
// adapters translate between these and their own interface/trait identifiers.
type Capability string

// Canonical capabilities.
const (
	Power            Capability = "power"
	Brightness       Capability = "brightness"
	Color            Capability = "color"
	ColorTemperature Capability = "color_temp"
	Input            Capability = "input"
	Lock             Capability = "lock"
	Percentage       Capability = "percentage"
	Playback         Capability = "playback"
	TemperatureRead  Capability = "temperature_read"
	Thermostat       Capability = "thermostat"
	Speaker          Capability = "speaker"
)

// All returns every valid capability value.
func All() []Capability {
	return []Capability{
		Power, Brightness, Color, ColorTemperature, Input, Lock,
		Percentage, Playback, TemperatureRead, Thermostat, Speaker,
	}
}

// Valid reports whether c is a known capability.
func Valid(c Capability) bool {
	for _, known := range All() {
		if c == known {
			return true
		}
	}
	return false
}
