package google

import (
	"strings"

	"github.com/voicelink/voicelink-core/internal/capability"
	"github.com/voicelink/voicelink-core/internal/device"
)

// QueryState renders a device's canonical state as a QUERY response
// entry.
//
// Each capability contributes its fields only when they are present in
// state; missing fields are skipped without placeholders. The online
// and status keys are always set. When report-state is disabled only
// those two keys are returned.
func QueryState(dev *device.Device) map[string]any {
	out := map[string]any{
		"online": true,
		"status": StatusSuccess,
	}
	if !dev.ReportState {
		return out
	}

	for _, c := range dev.Capabilities {
		projectCapability(dev, c, out)
	}
	return out
}

func projectCapability(dev *device.Device, c capability.Capability, out map[string]any) {
	switch c {
	case capability.Power:
		if v, ok := dev.State[device.FieldPower].(string); ok {
			out["on"] = v == "ON"
		}

	case capability.Brightness:
		if v, ok := stateFloat(dev, device.FieldBrightness); ok {
			out["brightness"] = v
		}

	case capability.Color:
		hue, okH := stateFloat(dev, device.FieldColorHue)
		sat, okS := stateFloat(dev, device.FieldColorSaturation)
		val, okV := stateFloat(dev, device.FieldColorBrightness)
		if okH && okS && okV {
			out["color"] = map[string]any{"spectrumHsv": map[string]any{
				"hue":        hue,
				"saturation": sat,
				"value":      val,
			}}
		}

	case capability.ColorTemperature:
		if v, ok := stateFloat(dev, device.FieldColorTemperature); ok {
			// ColorAbsolute state shares the color key; temperature
			// wins when both capabilities report.
			out["color"] = map[string]any{"temperatureK": v}
		}

	case capability.Input:
		if v, ok := dev.State[device.FieldInput].(string); ok {
			out["currentInput"] = v
		}

	case capability.Lock:
		if v, ok := dev.State[device.FieldLock].(bool); ok {
			out["isLocked"] = v
			out["isJammed"] = false
		}

	case capability.Percentage:
		if v, ok := stateFloat(dev, device.FieldPercentage); ok {
			out["openPercent"] = v
		}

	case capability.Playback:
		if v, ok := dev.State[device.FieldPlaybackMode].(string); ok {
			out["playbackState"] = v
		}

	case capability.TemperatureRead:
		if v, ok := stateFloat(dev, device.FieldTemperature); ok {
			out["thermostatTemperatureAmbient"] = v
		}

	case capability.Thermostat:
		if v, ok := stateFloat(dev, device.FieldSetpoint); ok {
			out["thermostatTemperatureSetpoint"] = v
		}
		if v, ok := dev.State[device.FieldThermostatMode].(string); ok {
			out["thermostatMode"] = strings.ToLower(v)
		}

	case capability.Speaker:
		if v, ok := stateFloat(dev, device.FieldVolume); ok {
			out["currentVolume"] = v
		}
		if v, ok := dev.State[device.FieldMute].(bool); ok {
			out["isMuted"] = v
		}
	}
}

// SyncEntry renders a device for a SYNC response.
func SyncEntry(dev *device.Device) SyncDevice {
	entry := SyncDevice{
		ID:              dev.ID,
		Type:            capability.GoogleDeviceType(dev.Capabilities),
		Traits:          capability.GoogleTraitsFor(dev.Capabilities),
		Name:            DeviceName{Name: dev.Name},
		WillReportState: dev.ReportState,
	}

	attrs := make(map[string]any)

	if dev.HasCapability(capability.ColorTemperature) {
		min, okMin := dev.AttrFloat(device.AttrColorTempMin)
		max, okMax := dev.AttrFloat(device.AttrColorTempMax)
		if okMin && okMax {
			attrs["colorTemperatureRange"] = map[string]any{
				"temperatureMinK": min,
				"temperatureMaxK": max,
			}
		}
	}

	if dev.HasCapability(capability.Thermostat) {
		if modes := dev.ThermostatModes(); len(modes) > 0 {
			lower := make([]string, 0, len(modes))
			for _, m := range modes {
				lower = append(lower, strings.ToLower(m))
			}
			attrs["availableThermostatModes"] = lower
		}
		attrs["thermostatTemperatureUnit"] = "C"
	}

	if dev.HasCapability(capability.Input) {
		if inputs := dev.AttrStrings(device.AttrInputs); len(inputs) > 0 {
			available := make([]map[string]any, 0, len(inputs))
			for _, in := range inputs {
				available = append(available, map[string]any{
					"key": in,
					"names": []map[string]any{{
						"lang":         "en",
						"name_synonym": []string{in},
					}},
				})
			}
			attrs["availableInputs"] = available
		}
	}

	if dev.HasCapability(capability.Speaker) {
		if max, ok := dev.AttrFloat(device.AttrVolumeMax); ok {
			attrs["volumeMaxLevel"] = max
		}
	}

	if len(attrs) > 0 {
		entry.Attributes = attrs
	}
	return entry
}
