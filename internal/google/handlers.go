package google

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/voicelink/voicelink-core/internal/bridge"
	"github.com/voicelink/voicelink-core/internal/capability"
	"github.com/voicelink/voicelink-core/internal/device"
)

// Translation is the outcome of translating one execution: the
// canonical command to publish and the optimistic state object echoed
// back when the device acknowledges.
type Translation struct {
	Command bridge.Command
	States  map[string]any
}

// handlerFunc computes a Translation assuming the device will succeed.
type handlerFunc func(dev *device.Device, params json.RawMessage) (*Translation, error)

type commandSpec struct {
	capability capability.Capability
	handle     handlerFunc
}

// commandRegistry keys every supported execution command. An absent
// key is an unsupported command, full stop.
var commandRegistry = map[string]commandSpec{
	"action.devices.commands.OnOff":                         {capability.Power, execOnOff},
	"action.devices.commands.BrightnessAbsolute":            {capability.Brightness, execBrightness},
	"action.devices.commands.ColorAbsolute":                 {capability.Color, execColorAbsolute},
	"action.devices.commands.ThermostatTemperatureSetpoint": {capability.Thermostat, execSetpoint},
	"action.devices.commands.ThermostatSetMode":             {capability.Thermostat, execSetMode},
	"action.devices.commands.LockUnlock":                    {capability.Lock, execLockUnlock},
	"action.devices.commands.setVolume":                     {capability.Speaker, execSetVolume},
	"action.devices.commands.volumeRelative":                {capability.Speaker, execVolumeRelative},
	"action.devices.commands.mute":                          {capability.Speaker, execMute},
	"action.devices.commands.SetInput":                      {capability.Input, execSetInput},
	"action.devices.commands.OpenClose":                     {capability.Percentage, execOpenClose},
	"action.devices.commands.mediaResume":                   {capability.Playback, execPlayback("PLAYING")},
	"action.devices.commands.mediaPause":                    {capability.Playback, execPlayback("PAUSED")},
	"action.devices.commands.mediaStop":                     {capability.Playback, execPlayback("STOPPED")},
}

// Translate turns one execution into a canonical command and optimistic
// states. The command's MessageID is left empty for the caller.
func Translate(dev *device.Device, exec Execution) (*Translation, error) {
	spec, ok := commandRegistry[exec.Command]
	if !ok {
		return nil, fmt.Errorf("%w: %s", bridge.ErrUnsupportedCommand, exec.Command)
	}

	// ColorAbsolute may address either color capability; everything
	// else requires its declared capability exactly.
	if exec.Command == "action.devices.commands.ColorAbsolute" {
		if !dev.HasCapability(capability.Color) && !dev.HasCapability(capability.ColorTemperature) {
			return nil, fmt.Errorf("%w: device %s has no color capability", bridge.ErrUnsupportedCommand, dev.ID)
		}
	} else if !dev.HasCapability(spec.capability) {
		return nil, fmt.Errorf("%w: device %s lacks %s", bridge.ErrUnsupportedCommand, dev.ID, spec.capability)
	}

	return spec.handle(dev, exec.Params)
}

func decodeParams(params json.RawMessage, into any) error {
	if len(params) == 0 {
		return fmt.Errorf("%w: missing params", bridge.ErrUnsupportedCommand)
	}
	if err := json.Unmarshal(params, into); err != nil {
		return fmt.Errorf("%w: %v", bridge.ErrUnsupportedCommand, err)
	}
	return nil
}

func command(c capability.Capability, payload map[string]any) bridge.Command {
	return bridge.Command{
		Capability: string(c),
		Operation:  "set",
		Payload:    payload,
	}
}

func stateFloat(dev *device.Device, field string) (float64, bool) {
	switch n := dev.State[field].(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func execOnOff(_ *device.Device, params json.RawMessage) (*Translation, error) {
	var p struct {
		On bool `json:"on"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	power := "OFF"
	if p.On {
		power = "ON"
	}
	return &Translation{
		Command: command(capability.Power, map[string]any{device.FieldPower: power}),
		States:  map[string]any{"on": p.On},
	}, nil
}

func execBrightness(_ *device.Device, params json.RawMessage) (*Translation, error) {
	var p struct {
		Brightness float64 `json:"brightness"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	if p.Brightness < 0 {
		p.Brightness = 0
	}
	if p.Brightness > 100 {
		p.Brightness = 100
	}
	return &Translation{
		Command: command(capability.Brightness, map[string]any{device.FieldBrightness: p.Brightness}),
		States:  map[string]any{"brightness": p.Brightness},
	}, nil
}

// spectrumHSV is Google's hue/saturation/value triple.
type spectrumHSV struct {
	Hue        float64 `json:"hue"`
	Saturation float64 `json:"saturation"`
	Value      float64 `json:"value"`
}

func execColorAbsolute(dev *device.Device, params json.RawMessage) (*Translation, error) {
	var p struct {
		Color struct {
			SpectrumHSV  *spectrumHSV `json:"spectrumHSV"`
			TemperatureK *float64     `json:"temperature"`
		} `json:"color"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	switch {
	case p.Color.TemperatureK != nil:
		k := *p.Color.TemperatureK
		if min, ok := dev.AttrFloat(device.AttrColorTempMin); ok && k < min {
			return nil, fmt.Errorf("%w: %v", bridge.ErrColorTempOutOfRange, k)
		}
		if max, ok := dev.AttrFloat(device.AttrColorTempMax); ok && k > max {
			return nil, fmt.Errorf("%w: %v", bridge.ErrColorTempOutOfRange, k)
		}
		return &Translation{
			Command: command(capability.ColorTemperature, map[string]any{device.FieldColorTemperature: k}),
			States:  map[string]any{"color": map[string]any{"temperatureK": k}},
		}, nil

	case p.Color.SpectrumHSV != nil:
		hsv := *p.Color.SpectrumHSV
		return &Translation{
			Command: command(capability.Color, map[string]any{
				device.FieldColorHue:        hsv.Hue,
				device.FieldColorSaturation: hsv.Saturation,
				device.FieldColorBrightness: hsv.Value,
			}),
			States: map[string]any{"color": map[string]any{"spectrumHsv": map[string]any{
				"hue":        hsv.Hue,
				"saturation": hsv.Saturation,
				"value":      hsv.Value,
			}}},
		}, nil

	default:
		return nil, fmt.Errorf("%w: empty color", bridge.ErrUnsupportedCommand)
	}
}

func execSetpoint(dev *device.Device, params json.RawMessage) (*Translation, error) {
	var p struct {
		Setpoint float64 `json:"thermostatTemperatureSetpoint"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	if min, ok := dev.AttrFloat(device.AttrTemperatureMin); ok && p.Setpoint < min {
		return nil, fmt.Errorf("%w: %v", bridge.ErrThermostatOutOfRange, p.Setpoint)
	}
	if max, ok := dev.AttrFloat(device.AttrTemperatureMax); ok && p.Setpoint > max {
		return nil, fmt.Errorf("%w: %v", bridge.ErrThermostatOutOfRange, p.Setpoint)
	}

	current, ok := stateFloat(dev, device.FieldSetpoint)
	if !ok {
		current = p.Setpoint
	}
	currentMode, _ := dev.State[device.FieldThermostatMode].(string)
	mode := bridge.InferThermostatMode(dev.ThermostatModes(), currentMode, current, p.Setpoint)

	return &Translation{
		Command: command(capability.Thermostat, map[string]any{device.FieldSetpoint: p.Setpoint}),
		States: map[string]any{
			"thermostatTemperatureSetpoint": p.Setpoint,
			"thermostatMode":                strings.ToLower(mode),
		},
	}, nil
}

func execSetMode(_ *device.Device, params json.RawMessage) (*Translation, error) {
	var p struct {
		Mode string `json:"thermostatMode"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	mode := strings.ToUpper(p.Mode)
	return &Translation{
		Command: command(capability.Thermostat, map[string]any{device.FieldThermostatMode: mode}),
		States:  map[string]any{"thermostatMode": strings.ToLower(mode)},
	}, nil
}

func execLockUnlock(_ *device.Device, params json.RawMessage) (*Translation, error) {
	var p struct {
		Lock bool `json:"lock"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	return &Translation{
		Command: command(capability.Lock, map[string]any{device.FieldLock: p.Lock}),
		States:  map[string]any{"isLocked": p.Lock, "isJammed": false},
	}, nil
}

func execSetVolume(_ *device.Device, params json.RawMessage) (*Translation, error) {
	var p struct {
		VolumeLevel float64 `json:"volumeLevel"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	return &Translation{
		Command: command(capability.Speaker, map[string]any{device.FieldVolume: p.VolumeLevel}),
		States:  map[string]any{"currentVolume": p.VolumeLevel},
	}, nil
}

// execVolumeRelative computes the new absolute volume without
// clamping, matching the speaker adjustment semantics everywhere else.
func execVolumeRelative(dev *device.Device, params json.RawMessage) (*Translation, error) {
	var p struct {
		RelativeSteps float64 `json:"relativeSteps"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	current, _ := stateFloat(dev, device.FieldVolume)
	v := current + p.RelativeSteps
	return &Translation{
		Command: command(capability.Speaker, map[string]any{device.FieldVolume: v}),
		States:  map[string]any{"currentVolume": v},
	}, nil
}

func execMute(_ *device.Device, params json.RawMessage) (*Translation, error) {
	var p struct {
		Mute bool `json:"mute"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	return &Translation{
		Command: command(capability.Speaker, map[string]any{device.FieldMute: p.Mute}),
		States:  map[string]any{"isMuted": p.Mute},
	}, nil
}

func execSetInput(_ *device.Device, params json.RawMessage) (*Translation, error) {
	var p struct {
		NewInput string `json:"newInput"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	return &Translation{
		Command: command(capability.Input, map[string]any{device.FieldInput: p.NewInput}),
		States:  map[string]any{"currentInput": p.NewInput},
	}, nil
}

func execOpenClose(_ *device.Device, params json.RawMessage) (*Translation, error) {
	var p struct {
		OpenPercent float64 `json:"openPercent"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	if p.OpenPercent < 0 {
		p.OpenPercent = 0
	}
	if p.OpenPercent > 100 {
		p.OpenPercent = 100
	}
	return &Translation{
		Command: command(capability.Percentage, map[string]any{device.FieldPercentage: p.OpenPercent}),
		States:  map[string]any{"openPercent": p.OpenPercent},
	}, nil
}

func execPlayback(mode string) handlerFunc {
	return func(_ *device.Device, _ json.RawMessage) (*Translation, error) {
		return &Translation{
			Command: command(capability.Playback, map[string]any{device.FieldPlaybackMode: mode}),
			States:  map[string]any{"playbackState": mode},
		}, nil
	}
}
