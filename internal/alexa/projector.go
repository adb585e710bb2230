package alexa

import (
	"time"

	"github.com/voicelink/voicelink-core/internal/capability"
	"github.com/voicelink/voicelink-core/internal/device"
)

// Project renders a device's canonical state as Alexa context
// properties.
//
// Each capability contributes a property only when every state field it
// needs is present; capabilities with missing fields are skipped
// silently rather than reported with a placeholder. A connectivity
// property is always appended. When report-state is administratively
// disabled for the device only the connectivity property is returned.
func Project(dev *device.Device, now time.Time) []Property {
	at := stateTime(dev, now)

	var props []Property
	if dev.ReportState {
		for _, c := range dev.Capabilities {
			props = append(props, projectCapability(dev, c, at)...)
		}
	}

	props = append(props, Property{
		Namespace:    capability.AlexaInterfaceHealth,
		Name:         "connectivity",
		Value:        map[string]any{"value": "OK"},
		TimeOfSample: sampleTime(at),
	})
	return props
}

// stateTime reads the canonical "time" stamp, falling back to now for
// devices that have never reported.
func stateTime(dev *device.Device, now time.Time) time.Time {
	if ms, ok := stateFloat(dev, device.FieldTime); ok {
		return time.UnixMilli(int64(ms))
	}
	return now
}

func projectCapability(dev *device.Device, c capability.Capability, at time.Time) []Property {
	switch c {
	case capability.Power:
		if v, ok := dev.State[device.FieldPower].(string); ok {
			return []Property{property(capability.AlexaInterfacePower, "powerState", v, at)}
		}

	case capability.Brightness:
		if v, ok := stateFloat(dev, device.FieldBrightness); ok {
			return []Property{property(capability.AlexaInterfaceBrightness, "brightness", v, at)}
		}

	case capability.Color:
		hue, okH := stateFloat(dev, device.FieldColorHue)
		sat, okS := stateFloat(dev, device.FieldColorSaturation)
		bri, okB := stateFloat(dev, device.FieldColorBrightness)
		if okH && okS && okB {
			return []Property{property(capability.AlexaInterfaceColor, "color",
				ColorValue{Hue: hue, Saturation: sat, Brightness: bri}, at)}
		}

	case capability.ColorTemperature:
		if v, ok := stateFloat(dev, device.FieldColorTemperature); ok {
			return []Property{property(capability.AlexaInterfaceColorTemp, "colorTemperatureInKelvin", v, at)}
		}

	case capability.Input:
		if v, ok := dev.State[device.FieldInput].(string); ok {
			return []Property{property(capability.AlexaInterfaceInput, "input", v, at)}
		}

	case capability.Lock:
		if v, ok := dev.State[device.FieldLock].(bool); ok {
			lockState := "UNLOCKED"
			if v {
				lockState = "LOCKED"
			}
			return []Property{property(capability.AlexaInterfaceLock, "lockState", lockState, at)}
		}

	case capability.Percentage:
		if v, ok := stateFloat(dev, device.FieldPercentage); ok {
			return []Property{property(capability.AlexaInterfacePercentage, "percentage", v, at)}
		}

	case capability.Playback:
		if v, ok := dev.State[device.FieldPlaybackMode].(string); ok {
			return []Property{property(capability.AlexaInterfacePlaybackState, "playbackState",
				map[string]any{"state": v}, at)}
		}

	case capability.TemperatureRead:
		if v, ok := stateFloat(dev, device.FieldTemperature); ok {
			return []Property{property(capability.AlexaInterfaceTempSensor, "temperature",
				Temperature{Value: v, Scale: ScaleCelsius}, at)}
		}

	case capability.Thermostat:
		var props []Property
		if v, ok := stateFloat(dev, device.FieldSetpoint); ok {
			props = append(props, property(capability.AlexaInterfaceThermostat, "targetSetpoint",
				Temperature{Value: v, Scale: ScaleCelsius}, at))
		}
		if v, ok := dev.State[device.FieldThermostatMode].(string); ok {
			props = append(props, property(capability.AlexaInterfaceThermostat, "thermostatMode", v, at))
		}
		return props

	case capability.Speaker:
		var props []Property
		if v, ok := stateFloat(dev, device.FieldVolume); ok {
			props = append(props, property(capability.AlexaInterfaceSpeaker, "volume", v, at))
		}
		if v, ok := dev.State[device.FieldMute].(bool); ok {
			props = append(props, property(capability.AlexaInterfaceSpeaker, "muted", v, at))
		}
		return props
	}

	return nil
}
