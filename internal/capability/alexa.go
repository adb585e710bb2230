package capability

// Alexa Smart Home interface identifiers (vendor A, directive-based).
const (
	AlexaInterfacePower      = "Alexa.PowerController"
	AlexaInterfaceBrightness = "Alexa.BrightnessController"
	AlexaInterfaceColor      = "Alexa.ColorController"
	AlexaInterfaceColorTemp  = "Alexa.ColorTemperatureController"
	AlexaInterfaceInput      = "Alexa.InputController"
	AlexaInterfaceLock       = "Alexa.LockController"
	AlexaInterfacePercentage = "Alexa.PercentageController"
	AlexaInterfacePlayback   = "Alexa.PlaybackController"
	AlexaInterfaceTempSensor = "Alexa.TemperatureSensor"
	AlexaInterfaceThermostat = "Alexa.ThermostatController"
	AlexaInterfaceSpeaker    = "Alexa.Speaker"
	AlexaInterfaceHealth     = "Alexa.EndpointHealth"

	// AlexaInterfacePlaybackState reports playback state; commands
	// still arrive on the PlaybackController namespace.
	AlexaInterfacePlaybackState = "Alexa.PlaybackStateReporter"
)

// alexaInterfaces maps canonical capabilities to Alexa interface identifiers.
var alexaInterfaces = map[Capability]string{
	Power:            AlexaInterfacePower,
	Brightness:       AlexaInterfaceBrightness,
	Color:            AlexaInterfaceColor,
	ColorTemperature: AlexaInterfaceColorTemp,
	Input:            AlexaInterfaceInput,
	Lock:             AlexaInterfaceLock,
	Percentage:       AlexaInterfacePercentage,
	Playback:         AlexaInterfacePlayback,
	TemperatureRead:  AlexaInterfaceTempSensor,
	Thermostat:       AlexaInterfaceThermostat,
	Speaker:          AlexaInterfaceSpeaker,
}

// alexaNamespaces is the reverse of alexaInterfaces, built at init.
var alexaNamespaces = func() map[string]Capability {
	m := make(map[string]Capability, len(alexaInterfaces))
	for c, ns := range alexaInterfaces {
		m[ns] = c
	}
	return m
}()

// AlexaInterface returns the Alexa interface identifier for a canonical
// capability. The second return value is false for capabilities Alexa
// has no interface for.
func AlexaInterface(c Capability) (string, bool) {
	iface, ok := alexaInterfaces[c]
	return iface, ok
}

// FromAlexaNamespace returns the canonical capability for an Alexa
// directive namespace. The second return value is false for unknown
// namespaces.
func FromAlexaNamespace(namespace string) (Capability, bool) {
	c, ok := alexaNamespaces[namespace]
	return c, ok
}

// AlexaDisplayCategory returns the Alexa display category for a device
// with the given capability set. The most specific capability wins;
// a bare power device is a SWITCH.
func AlexaDisplayCategory(caps []Capability) string {
	set := make(map[Capability]bool, len(caps))
	for _, c := range caps {
		set[c] = true
	}

	switch {
	case set[Thermostat]:
		return "THERMOSTAT"
	case set[Lock]:
		return "SMARTLOCK"
	case set[Speaker] || set[Playback]:
		return "SPEAKER"
	case set[Input]:
		return "TV"
	case set[Brightness] || set[Color] || set[ColorTemperature]:
		return "LIGHT"
	case set[Percentage]:
		return "INTERIOR_BLIND"
	case set[TemperatureRead]:
		return "TEMPERATURE_SENSOR"
	default:
		return "SWITCH"
	}
}
