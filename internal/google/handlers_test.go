package google

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/voicelink/voicelink-core/internal/bridge"
	"github.com/voicelink/voicelink-core/internal/capability"
	"github.com/voicelink/voicelink-core/internal/device"
)

func execution(cmd, params string) Execution {
	e := Execution{Command: cmd}
	if params != "" {
		e.Params = json.RawMessage(params)
	}
	return e
}

func lightDevice() *device.Device {
	return &device.Device{
		ID: "lamp-1", Username: "alice", Name: "Lamp",
		Capabilities: []capability.Capability{
			capability.Power,
			capability.Brightness,
			capability.ColorTemperature,
		},
		Attributes: map[string]any{
			device.AttrColorTempMin: float64(2200),
			device.AttrColorTempMax: float64(6500),
		},
		ReportState: true,
		State: map[string]any{
			device.FieldPower:      "OFF",
			device.FieldBrightness: float64(40),
		},
	}
}

func speakerDevice() *device.Device {
	return &device.Device{
		ID: "tv-1", Username: "alice", Name: "TV",
		Capabilities: []capability.Capability{capability.Speaker, capability.Input},
		ReportState:  true,
		State:        map[string]any{device.FieldVolume: float64(90)},
	}
}

func TestTranslateCommands(t *testing.T) {
	hvac := &device.Device{
		ID: "hvac-1", Username: "alice", Name: "Thermostat",
		Capabilities: []capability.Capability{capability.Thermostat},
		Attributes: map[string]any{
			device.AttrTemperatureMin:  float64(10),
			device.AttrTemperatureMax:  float64(32),
			device.AttrThermostatModes: []any{"HEAT", "COOL"},
		},
		State: map[string]any{
			device.FieldSetpoint:       float64(22),
			device.FieldThermostatMode: "HEAT",
		},
	}

	tests := []struct {
		name        string
		dev         *device.Device
		exec        Execution
		wantCap     string
		wantPayload map[string]any
		wantStates  map[string]any
	}{
		{
			"on", lightDevice(),
			execution("action.devices.commands.OnOff", `{"on":true}`),
			"power", map[string]any{device.FieldPower: "ON"},
			map[string]any{"on": true},
		},
		{
			"brightness", lightDevice(),
			execution("action.devices.commands.BrightnessAbsolute", `{"brightness":65}`),
			"brightness", map[string]any{device.FieldBrightness: float64(65)},
			map[string]any{"brightness": float64(65)},
		},
		{
			"color temperature", lightDevice(),
			execution("action.devices.commands.ColorAbsolute", `{"color":{"temperature":3000}}`),
			"color_temp", map[string]any{device.FieldColorTemperature: float64(3000)},
			nil,
		},
		{
			"setpoint lowering infers cool", hvac,
			execution("action.devices.commands.ThermostatTemperatureSetpoint",
				`{"thermostatTemperatureSetpoint":19}`),
			"thermostat", map[string]any{device.FieldSetpoint: float64(19)},
			map[string]any{"thermostatTemperatureSetpoint": float64(19), "thermostatMode": "cool"},
		},
		{
			"set mode round-trips lowercase", hvac,
			execution("action.devices.commands.ThermostatSetMode", `{"thermostatMode":"cool"}`),
			"thermostat", map[string]any{device.FieldThermostatMode: "COOL"},
			map[string]any{"thermostatMode": "cool"},
		},
		{
			"volume relative unclamped", speakerDevice(),
			execution("action.devices.commands.volumeRelative", `{"relativeSteps":20}`),
			"speaker", map[string]any{device.FieldVolume: float64(110)},
			map[string]any{"currentVolume": float64(110)},
		},
		{
			"set input", speakerDevice(),
			execution("action.devices.commands.SetInput", `{"newInput":"HDMI 2"}`),
			"input", map[string]any{device.FieldInput: "HDMI 2"},
			map[string]any{"currentInput": "HDMI 2"},
		},
		{
			"open close clamps", &device.Device{
				ID: "blind-1", Username: "alice", Name: "Blind",
				Capabilities: []capability.Capability{capability.Percentage},
			},
			execution("action.devices.commands.OpenClose", `{"openPercent":120}`),
			"percentage", map[string]any{device.FieldPercentage: float64(100)},
			map[string]any{"openPercent": float64(100)},
		},
		{
			"media pause", &device.Device{
				ID: "cast-1", Username: "alice", Name: "Cast",
				Capabilities: []capability.Capability{capability.Playback},
			},
			execution("action.devices.commands.mediaPause", ""),
			"playback", map[string]any{device.FieldPlaybackMode: "PAUSED"},
			map[string]any{"playbackState": "PAUSED"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Translate(tt.dev, tt.exec)
			if err != nil {
				t.Fatalf("Translate failed: %v", err)
			}
			if tr.Command.Capability != tt.wantCap {
				t.Errorf("capability = %q, want %q", tr.Command.Capability, tt.wantCap)
			}
			for k, want := range tt.wantPayload {
				if got := tr.Command.Payload[k]; got != want {
					t.Errorf("payload[%s] = %v, want %v", k, got, want)
				}
			}
			for k, want := range tt.wantStates {
				if got := tr.States[k]; got != want {
					t.Errorf("states[%s] = %v, want %v", k, got, want)
				}
			}
		})
	}
}

func TestTranslateColorSpectrum(t *testing.T) {
	dev := &device.Device{
		ID: "strip-1", Username: "alice", Name: "Strip",
		Capabilities: []capability.Capability{capability.Color},
	}

	tr, err := Translate(dev, execution("action.devices.commands.ColorAbsolute",
		`{"color":{"spectrumHSV":{"hue":240,"saturation":0.9,"value":0.7}}}`))
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	if tr.Command.Payload[device.FieldColorHue] != float64(240) {
		t.Errorf("hue = %v, want 240", tr.Command.Payload[device.FieldColorHue])
	}
	color, ok := tr.States["color"].(map[string]any)
	if !ok {
		t.Fatalf("states color = %v", tr.States["color"])
	}
	hsv, ok := color["spectrumHsv"].(map[string]any)
	if !ok || hsv["saturation"] != 0.9 {
		t.Errorf("spectrumHsv = %v", color)
	}
}

func TestTranslateRangeErrors(t *testing.T) {
	light := lightDevice()
	_, err := Translate(light, execution("action.devices.commands.ColorAbsolute",
		`{"color":{"temperature":8000}}`))
	if !errors.Is(err, bridge.ErrColorTempOutOfRange) {
		t.Errorf("color temp = %v, want ErrColorTempOutOfRange", err)
	}

	hvac := &device.Device{
		ID: "hvac-1", Username: "alice", Name: "Thermostat",
		Capabilities: []capability.Capability{capability.Thermostat},
		Attributes: map[string]any{
			device.AttrTemperatureMin: float64(10),
			device.AttrTemperatureMax: float64(32),
		},
	}
	_, err = Translate(hvac, execution("action.devices.commands.ThermostatTemperatureSetpoint",
		`{"thermostatTemperatureSetpoint":5}`))
	if !errors.Is(err, bridge.ErrThermostatOutOfRange) {
		t.Errorf("setpoint = %v, want ErrThermostatOutOfRange", err)
	}
}

func TestTranslateUnsupported(t *testing.T) {
	dev := lightDevice()

	_, err := Translate(dev, execution("action.devices.commands.StartStop", `{"start":true}`))
	if !errors.Is(err, bridge.ErrUnsupportedCommand) {
		t.Errorf("unknown command = %v, want ErrUnsupportedCommand", err)
	}

	_, err = Translate(dev, execution("action.devices.commands.LockUnlock", `{"lock":true}`))
	if !errors.Is(err, bridge.ErrUnsupportedCommand) {
		t.Errorf("undeclared capability = %v, want ErrUnsupportedCommand", err)
	}
}
