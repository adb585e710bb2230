package alexa

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/voicelink/voicelink-core/internal/bridge"
	"github.com/voicelink/voicelink-core/internal/capability"
	"github.com/voicelink/voicelink-core/internal/device"
)

// colorTempStepKelvin is the increment applied by the relative
// color-temperature directives.
const colorTempStepKelvin = 500

// Default color-temperature bounds used when a device declares none.
const (
	defaultColorTempMin = 1000
	defaultColorTempMax = 10000
)

// Translation is the outcome of translating one directive: the
// canonical command to publish and the optimistic property snapshot
// returned to Alexa when the device acknowledges.
type Translation struct {
	Command    bridge.Command
	Properties []Property
}

type handlerKey struct {
	namespace string
	name      string
}

// handlerFunc computes a Translation assuming the device will succeed.
// Range violations and malformed payloads fail translation with no
// side effects.
type handlerFunc func(dev *device.Device, d *Directive, now time.Time) (*Translation, error)

// handlers is the directive registry. Lookup replaces conditional
// chains on namespace/name strings: an absent key is an unsupported
// directive, full stop.
var handlers = map[handlerKey]handlerFunc{
	{capability.AlexaInterfacePower, "TurnOn"}:  powerHandler("ON"),
	{capability.AlexaInterfacePower, "TurnOff"}: powerHandler("OFF"),

	{capability.AlexaInterfaceBrightness, "SetBrightness"}:    setBrightness,
	{capability.AlexaInterfaceBrightness, "AdjustBrightness"}: adjustBrightness,

	{capability.AlexaInterfaceColor, "SetColor"}: setColor,

	{capability.AlexaInterfaceColorTemp, "SetColorTemperature"}:      setColorTemperature,
	{capability.AlexaInterfaceColorTemp, "IncreaseColorTemperature"}: stepColorTemperature(colorTempStepKelvin),
	{capability.AlexaInterfaceColorTemp, "DecreaseColorTemperature"}: stepColorTemperature(-colorTempStepKelvin),

	{capability.AlexaInterfaceThermostat, "SetTargetTemperature"}:    setTargetTemperature,
	{capability.AlexaInterfaceThermostat, "AdjustTargetTemperature"}: adjustTargetTemperature,
	{capability.AlexaInterfaceThermostat, "SetThermostatMode"}:       setThermostatMode,

	{capability.AlexaInterfaceLock, "Lock"}:   lockHandler(true),
	{capability.AlexaInterfaceLock, "Unlock"}: lockHandler(false),

	{capability.AlexaInterfacePercentage, "SetPercentage"}:    setPercentage,
	{capability.AlexaInterfacePercentage, "AdjustPercentage"}: adjustPercentage,

	{capability.AlexaInterfacePlayback, "Play"}:  playbackHandler("PLAYING"),
	{capability.AlexaInterfacePlayback, "Pause"}: playbackHandler("PAUSED"),
	{capability.AlexaInterfacePlayback, "Stop"}:  playbackHandler("STOPPED"),

	{capability.AlexaInterfaceSpeaker, "SetVolume"}:    setVolume,
	{capability.AlexaInterfaceSpeaker, "AdjustVolume"}: adjustVolume,
	{capability.AlexaInterfaceSpeaker, "SetMute"}:      setMute,

	{capability.AlexaInterfaceInput, "SelectInput"}: selectInput,
}

// Translate turns a directive into a canonical command and an
// optimistic response snapshot. The command's MessageID is left empty
// for the caller to assign.
func Translate(dev *device.Device, d *Directive, now time.Time) (*Translation, error) {
	handler, ok := handlers[handlerKey{d.Header.Namespace, d.Header.Name}]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", bridge.ErrUnsupportedCommand, d.Header.Namespace, d.Header.Name)
	}

	c, ok := capability.FromAlexaNamespace(d.Header.Namespace)
	if !ok || !dev.HasCapability(c) {
		return nil, fmt.Errorf("%w: device %s lacks %s", bridge.ErrUnsupportedCommand, dev.ID, d.Header.Namespace)
	}

	return handler(dev, d, now)
}

func decodePayload(d *Directive, into any) error {
	if len(d.Payload) == 0 {
		return fmt.Errorf("%w: missing payload", bridge.ErrUnsupportedCommand)
	}
	if err := json.Unmarshal(d.Payload, into); err != nil {
		return fmt.Errorf("%w: %v", bridge.ErrUnsupportedCommand, err)
	}
	return nil
}

// stateFloat reads a numeric canonical state field.
func stateFloat(dev *device.Device, field string) (float64, bool) {
	switch n := dev.State[field].(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func command(c capability.Capability, payload map[string]any) bridge.Command {
	return bridge.Command{
		Capability: string(c),
		Operation:  "set",
		Payload:    payload,
	}
}

func property(namespace, name string, value any, now time.Time) Property {
	return Property{
		Namespace:    namespace,
		Name:         name,
		Value:        value,
		TimeOfSample: sampleTime(now),
	}
}

func powerHandler(state string) handlerFunc {
	return func(_ *device.Device, _ *Directive, now time.Time) (*Translation, error) {
		return &Translation{
			Command: command(capability.Power, map[string]any{device.FieldPower: state}),
			Properties: []Property{
				property(capability.AlexaInterfacePower, "powerState", state, now),
			},
		}, nil
	}
}

func setBrightness(_ *device.Device, d *Directive, now time.Time) (*Translation, error) {
	var p struct {
		Brightness float64 `json:"brightness"`
	}
	if err := decodePayload(d, &p); err != nil {
		return nil, err
	}

	v := clampPercent(p.Brightness)
	return &Translation{
		Command: command(capability.Brightness, map[string]any{device.FieldBrightness: v}),
		Properties: []Property{
			property(capability.AlexaInterfaceBrightness, "brightness", v, now),
		},
	}, nil
}

func adjustBrightness(dev *device.Device, d *Directive, now time.Time) (*Translation, error) {
	var p struct {
		BrightnessDelta float64 `json:"brightnessDelta"`
	}
	if err := decodePayload(d, &p); err != nil {
		return nil, err
	}

	current, _ := stateFloat(dev, device.FieldBrightness)
	v := clampPercent(current + p.BrightnessDelta)
	return &Translation{
		Command: command(capability.Brightness, map[string]any{device.FieldBrightness: v}),
		Properties: []Property{
			property(capability.AlexaInterfaceBrightness, "brightness", v, now),
		},
	}, nil
}

func setColor(_ *device.Device, d *Directive, now time.Time) (*Translation, error) {
	var p struct {
		Color ColorValue `json:"color"`
	}
	if err := decodePayload(d, &p); err != nil {
		return nil, err
	}

	return &Translation{
		Command: command(capability.Color, map[string]any{
			device.FieldColorHue:        p.Color.Hue,
			device.FieldColorSaturation: p.Color.Saturation,
			device.FieldColorBrightness: p.Color.Brightness,
		}),
		Properties: []Property{
			property(capability.AlexaInterfaceColor, "color", p.Color, now),
		},
	}, nil
}

// colorTempRange returns the device's declared bounds, falling back to
// the protocol-wide defaults.
func colorTempRange(dev *device.Device) (float64, float64) {
	min, ok := dev.AttrFloat(device.AttrColorTempMin)
	if !ok {
		min = defaultColorTempMin
	}
	max, ok := dev.AttrFloat(device.AttrColorTempMax)
	if !ok {
		max = defaultColorTempMax
	}
	return min, max
}

func setColorTemperature(dev *device.Device, d *Directive, now time.Time) (*Translation, error) {
	var p struct {
		Kelvin float64 `json:"colorTemperatureInKelvin"`
	}
	if err := decodePayload(d, &p); err != nil {
		return nil, err
	}

	min, max := colorTempRange(dev)
	if p.Kelvin < min || p.Kelvin > max {
		return nil, fmt.Errorf("%w: %v not in [%v, %v]", bridge.ErrColorTempOutOfRange, p.Kelvin, min, max)
	}

	return &Translation{
		Command: command(capability.ColorTemperature, map[string]any{device.FieldColorTemperature: p.Kelvin}),
		Properties: []Property{
			property(capability.AlexaInterfaceColorTemp, "colorTemperatureInKelvin", p.Kelvin, now),
		},
	}, nil
}

// stepColorTemperature handles the payload-less relative directives.
// The result is clamped to the device range rather than rejected.
func stepColorTemperature(step float64) handlerFunc {
	return func(dev *device.Device, _ *Directive, now time.Time) (*Translation, error) {
		min, max := colorTempRange(dev)
		current, ok := stateFloat(dev, device.FieldColorTemperature)
		if !ok {
			current = min
		}

		v := current + step
		if v < min {
			v = min
		}
		if v > max {
			v = max
		}

		return &Translation{
			Command: command(capability.ColorTemperature, map[string]any{device.FieldColorTemperature: v}),
			Properties: []Property{
				property(capability.AlexaInterfaceColorTemp, "colorTemperatureInKelvin", v, now),
			},
		}, nil
	}
}

// checkSetpoint validates a candidate setpoint against the declared
// temperature range, if any.
func checkSetpoint(dev *device.Device, setpoint float64) error {
	if min, ok := dev.AttrFloat(device.AttrTemperatureMin); ok && setpoint < min {
		return fmt.Errorf("%w: %v below %v", bridge.ErrThermostatOutOfRange, setpoint, min)
	}
	if max, ok := dev.AttrFloat(device.AttrTemperatureMax); ok && setpoint > max {
		return fmt.Errorf("%w: %v above %v", bridge.ErrThermostatOutOfRange, setpoint, max)
	}
	return nil
}

func thermostatTranslation(dev *device.Device, setpoint float64, now time.Time) *Translation {
	current, ok := stateFloat(dev, device.FieldSetpoint)
	if !ok {
		current = setpoint
	}
	currentMode, _ := dev.State[device.FieldThermostatMode].(string)
	mode := bridge.InferThermostatMode(dev.ThermostatModes(), currentMode, current, setpoint)

	return &Translation{
		Command: command(capability.Thermostat, map[string]any{device.FieldSetpoint: setpoint}),
		Properties: []Property{
			property(capability.AlexaInterfaceThermostat, "targetSetpoint",
				Temperature{Value: setpoint, Scale: ScaleCelsius}, now),
			property(capability.AlexaInterfaceThermostat, "thermostatMode", mode, now),
		},
	}
}

func setTargetTemperature(dev *device.Device, d *Directive, now time.Time) (*Translation, error) {
	var p struct {
		TargetSetpoint Temperature `json:"targetSetpoint"`
	}
	if err := decodePayload(d, &p); err != nil {
		return nil, err
	}

	if err := checkSetpoint(dev, p.TargetSetpoint.Value); err != nil {
		return nil, err
	}
	return thermostatTranslation(dev, p.TargetSetpoint.Value, now), nil
}

func adjustTargetTemperature(dev *device.Device, d *Directive, now time.Time) (*Translation, error) {
	var p struct {
		TargetSetpointDelta Temperature `json:"targetSetpointDelta"`
	}
	if err := decodePayload(d, &p); err != nil {
		return nil, err
	}

	current, _ := stateFloat(dev, device.FieldSetpoint)
	setpoint := current + p.TargetSetpointDelta.Value
	if err := checkSetpoint(dev, setpoint); err != nil {
		return nil, err
	}
	return thermostatTranslation(dev, setpoint, now), nil
}

func setThermostatMode(_ *device.Device, d *Directive, now time.Time) (*Translation, error) {
	var p struct {
		ThermostatMode struct {
			Value string `json:"value"`
		} `json:"thermostatMode"`
	}
	if err := decodePayload(d, &p); err != nil {
		return nil, err
	}

	return &Translation{
		Command: command(capability.Thermostat, map[string]any{device.FieldThermostatMode: p.ThermostatMode.Value}),
		Properties: []Property{
			property(capability.AlexaInterfaceThermostat, "thermostatMode", p.ThermostatMode.Value, now),
		},
	}, nil
}

func lockHandler(locked bool) handlerFunc {
	return func(_ *device.Device, _ *Directive, now time.Time) (*Translation, error) {
		lockState := "UNLOCKED"
		if locked {
			lockState = "LOCKED"
		}
		return &Translation{
			Command: command(capability.Lock, map[string]any{device.FieldLock: locked}),
			Properties: []Property{
				property(capability.AlexaInterfaceLock, "lockState", lockState, now),
			},
		}, nil
	}
}

func setPercentage(_ *device.Device, d *Directive, now time.Time) (*Translation, error) {
	var p struct {
		Percentage float64 `json:"percentage"`
	}
	if err := decodePayload(d, &p); err != nil {
		return nil, err
	}

	v := clampPercent(p.Percentage)
	return &Translation{
		Command: command(capability.Percentage, map[string]any{device.FieldPercentage: v}),
		Properties: []Property{
			property(capability.AlexaInterfacePercentage, "percentage", v, now),
		},
	}, nil
}

func adjustPercentage(dev *device.Device, d *Directive, now time.Time) (*Translation, error) {
	var p struct {
		PercentageDelta float64 `json:"percentageDelta"`
	}
	if err := decodePayload(d, &p); err != nil {
		return nil, err
	}

	current, _ := stateFloat(dev, device.FieldPercentage)
	v := clampPercent(current + p.PercentageDelta)
	return &Translation{
		Command: command(capability.Percentage, map[string]any{device.FieldPercentage: v}),
		Properties: []Property{
			property(capability.AlexaInterfacePercentage, "percentage", v, now),
		},
	}, nil
}

func playbackHandler(mode string) handlerFunc {
	return func(_ *device.Device, _ *Directive, now time.Time) (*Translation, error) {
		return &Translation{
			Command: command(capability.Playback, map[string]any{device.FieldPlaybackMode: mode}),
			Properties: []Property{
				property(capability.AlexaInterfacePlaybackState, "playbackState",
					map[string]any{"state": mode}, now),
			},
		}, nil
	}
}

func setVolume(_ *device.Device, d *Directive, now time.Time) (*Translation, error) {
	var p struct {
		Volume float64 `json:"volume"`
	}
	if err := decodePayload(d, &p); err != nil {
		return nil, err
	}

	return &Translation{
		Command: command(capability.Speaker, map[string]any{device.FieldVolume: p.Volume}),
		Properties: []Property{
			property(capability.AlexaInterfaceSpeaker, "volume", p.Volume, now),
		},
	}, nil
}

// adjustVolume computes the new absolute volume without clamping:
// speakers declare their own ceiling and some accept values past the
// reported maximum.
func adjustVolume(dev *device.Device, d *Directive, now time.Time) (*Translation, error) {
	var p struct {
		Volume float64 `json:"volume"`
	}
	if err := decodePayload(d, &p); err != nil {
		return nil, err
	}

	current, _ := stateFloat(dev, device.FieldVolume)
	v := current + p.Volume
	return &Translation{
		Command: command(capability.Speaker, map[string]any{device.FieldVolume: v}),
		Properties: []Property{
			property(capability.AlexaInterfaceSpeaker, "volume", v, now),
		},
	}, nil
}

func setMute(_ *device.Device, d *Directive, now time.Time) (*Translation, error) {
	var p struct {
		Mute bool `json:"mute"`
	}
	if err := decodePayload(d, &p); err != nil {
		return nil, err
	}

	return &Translation{
		Command: command(capability.Speaker, map[string]any{device.FieldMute: p.Mute}),
		Properties: []Property{
			property(capability.AlexaInterfaceSpeaker, "muted", p.Mute, now),
		},
	}, nil
}

func selectInput(_ *device.Device, d *Directive, now time.Time) (*Translation, error) {
	var p struct {
		Input string `json:"input"`
	}
	if err := decodePayload(d, &p); err != nil {
		return nil, err
	}

	return &Translation{
		Command: command(capability.Input, map[string]any{device.FieldInput: p.Input}),
		Properties: []Property{
			property(capability.AlexaInterfaceInput, "input", p.Input, now),
		},
	}, nil
}
