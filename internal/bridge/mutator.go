package bridge

import (
	"context"
	"time"

	"github.com/voicelink/voicelink-core/internal/device"
)

// Relative-adjustment keys accepted in state reports alongside the
// absolute canonical fields.
const (
	keyPercentageDelta = "percentageDelta"
	keyVolumeDelta     = "volumeDelta"
	keySetpointDelta   = "targetSetpointDelta"
)

// absoluteFields are overwritten verbatim when present in a report.
var absoluteFields = []string{
	device.FieldPower,
	device.FieldBrightness,
	device.FieldColorHue,
	device.FieldColorSaturation,
	device.FieldColorBrightness,
	device.FieldColorTemperature,
	device.FieldInput,
	device.FieldLock,
	device.FieldPercentage,
	device.FieldPlaybackMode,
	device.FieldTemperature,
	device.FieldVolume,
	device.FieldMute,
}

// Store is the device read/write contract the mutator needs. Satisfied
// by *device.Registry.
type Store interface {
	GetDevice(ctx context.Context, username, id string) (*device.Device, error)
	UpdateState(ctx context.Context, username, id string, state map[string]any, updatedAt time.Time) error
}

// Telemetry records committed field changes. Satisfied by the InfluxDB
// writer; may be nil.
type Telemetry interface {
	WriteStateChange(username, deviceID string, changed map[string]any, at time.Time)
}

// Reporter pushes proactive state reports to linked vendors; may be nil.
type Reporter interface {
	SendReport(ctx context.Context, username, deviceID string)
}

// Broadcaster fans committed state out to live API subscribers; may be nil.
type Broadcaster interface {
	BroadcastState(username, deviceID string, state map[string]any)
}

// Mutator applies device-reported state deltas to the canonical state
// map. Fields are overwritten individually; the map as a whole is
// never replaced, and every commit stamps the "time" field exactly
// once.
//
// The read-modify-write has no per-device lock: a physical device
// reports serially, so interleaving updates for one device are not
// expected. Concurrent reports for different devices are safe.
type Mutator struct {
	store       Store
	telemetry   Telemetry
	reporter    Reporter
	broadcaster Broadcaster
	logger      Logger
	now         func() time.Time
}

// NewMutator creates a state mutator over the device store.
func NewMutator(store Store) *Mutator {
	return &Mutator{
		store:  store,
		logger: noopLogger{},
		now:    time.Now,
	}
}

// SetLogger sets the logger for the mutator.
func (m *Mutator) SetLogger(logger Logger) { m.logger = logger }

// SetTelemetry attaches a telemetry sink for committed changes.
func (m *Mutator) SetTelemetry(t Telemetry) { m.telemetry = t }

// SetReporter attaches a vendor report publisher.
func (m *Mutator) SetReporter(r Reporter) { m.reporter = r }

// SetBroadcaster attaches a live state broadcaster.
func (m *Mutator) SetBroadcaster(b Broadcaster) { m.broadcaster = b }

// SetState applies a state delta reported by a device.
//
// Reports without a state object and reports for unknown devices are
// dropped with a warning; a state message never creates a device.
// Store errors abandon the mutation with no retry.
func (m *Mutator) SetState(ctx context.Context, username, deviceID string, payload StatePayload) {
	if payload.State == nil {
		m.logger.Warn("state report without state object dropped",
			"username", username, "device_id", deviceID)
		return
	}

	dev, err := m.store.GetDevice(ctx, username, deviceID)
	if err != nil {
		m.logger.Warn("state report for unknown device dropped",
			"username", username, "device_id", deviceID, "error", err)
		return
	}

	state := dev.State
	if state == nil {
		state = make(map[string]any)
	}
	changed := make(map[string]any)

	for _, field := range absoluteFields {
		if v, ok := payload.State[field]; ok {
			state[field] = v
			changed[field] = v
		}
	}

	m.applyPercentageDelta(payload.State, state, changed)
	m.applyVolumeDelta(payload.State, state, changed)
	m.applyThermostat(dev, payload.State, state, changed)

	// One freshness stamp per mutation, however many fields changed.
	at := m.now()
	state[device.FieldTime] = at.UnixMilli()

	if err := m.store.UpdateState(ctx, username, deviceID, state, at); err != nil {
		m.logger.Error("state commit failed, mutation abandoned",
			"username", username, "device_id", deviceID, "error", err)
		return
	}

	m.logger.Debug("device state updated",
		"username", username, "device_id", deviceID, "fields", len(changed))

	if m.telemetry != nil && len(changed) > 0 {
		m.telemetry.WriteStateChange(username, deviceID, changed, at)
	}
	if m.broadcaster != nil {
		m.broadcaster.BroadcastState(username, deviceID, state)
	}
	if m.reporter != nil {
		// Never awaited by the reporting device's message handler.
		go m.reporter.SendReport(context.WithoutCancel(ctx), username, deviceID)
	}
}

// applyPercentageDelta adjusts percentage by a relative amount, clamped
// to [0, 100]. Skipped when the device has no current percentage.
func (m *Mutator) applyPercentageDelta(delta, state, changed map[string]any) {
	d, ok := toFloat(delta[keyPercentageDelta])
	if !ok {
		return
	}
	current, ok := toFloat(state[device.FieldPercentage])
	if !ok {
		return
	}

	next := current + d
	if next < 0 {
		next = 0
	}
	if next > 100 {
		next = 100
	}
	state[device.FieldPercentage] = next
	changed[device.FieldPercentage] = next
}

// applyVolumeDelta adjusts volume by a relative amount. Deliberately
// unclamped: devices declare their own volume ceiling and some accept
// values past the reported maximum.
func (m *Mutator) applyVolumeDelta(delta, state, changed map[string]any) {
	d, ok := toFloat(delta[keyVolumeDelta])
	if !ok {
		return
	}
	current, _ := toFloat(state[device.FieldVolume])

	next := current + d
	state[device.FieldVolume] = next
	changed[device.FieldVolume] = next
}

// applyThermostat handles setpoint changes and mode inference.
//
// An absolute setpoint or a relative setpoint delta yields a candidate
// value; the new mode is inferred from the change direction and the
// pair commits only when the candidate lies within the device's
// declared temperature range. Out-of-range candidates drop the
// setpoint part while the rest of the report still applies. A bare
// thermostatMode with no setpoint in the same report overwrites the
// mode directly.
func (m *Mutator) applyThermostat(dev *device.Device, delta, state, changed map[string]any) {
	candidate, haveCandidate := toFloat(delta[device.FieldSetpoint])
	current, haveCurrent := toFloat(state[device.FieldSetpoint])

	if !haveCandidate {
		if d, ok := toFloat(delta[keySetpointDelta]); ok {
			candidate = current + d
			haveCandidate = true
		}
	}

	if !haveCandidate {
		if mode, ok := delta[device.FieldThermostatMode].(string); ok {
			state[device.FieldThermostatMode] = mode
			changed[device.FieldThermostatMode] = mode
		}
		return
	}

	if min, ok := dev.AttrFloat(device.AttrTemperatureMin); ok && candidate < min {
		m.logger.Warn("setpoint below declared range, dropped",
			"device_id", dev.ID, "setpoint", candidate, "min", min)
		return
	}
	if max, ok := dev.AttrFloat(device.AttrTemperatureMax); ok && candidate > max {
		m.logger.Warn("setpoint above declared range, dropped",
			"device_id", dev.ID, "setpoint", candidate, "max", max)
		return
	}

	if !haveCurrent {
		current = candidate
	}
	currentMode, _ := state[device.FieldThermostatMode].(string)
	mode := InferThermostatMode(dev.ThermostatModes(), currentMode, current, candidate)

	state[device.FieldSetpoint] = candidate
	changed[device.FieldSetpoint] = candidate
	state[device.FieldThermostatMode] = mode
	changed[device.FieldThermostatMode] = mode
}

// toFloat coerces the numeric types seen in decoded JSON and tests.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
