package bridge

import (
	"sort"
	"strings"

	"github.com/voicelink/voicelink-core/internal/device"
)

// InferThermostatMode derives the mode a setpoint change implies from
// the device's declared mode set and the direction of the change.
//
// A single declared mode never changes. Two-mode ON/OFF devices map a
// lower setpoint to OFF and a higher one to ON. The heat/cool families
// map lower to COOL and higher to HEAT. Anything else falls back to
// HEAT. An equal-value change takes the higher-setpoint branch, which
// for the heat/cool families is the documented HEAT fallback.
func InferThermostatMode(declared []string, current string, oldSetpoint, newSetpoint float64) string {
	if len(declared) == 1 {
		return current
	}

	lower := newSetpoint < oldSetpoint

	switch modeSignature(declared) {
	case "OFF,ON":
		if lower {
			return device.ModeOff
		}
		return device.ModeOn
	case "COOL,HEAT", "AUTO,COOL,HEAT", "AUTO,COOL,HEAT,OFF,ON":
		if lower {
			return device.ModeCool
		}
		return device.ModeHeat
	default:
		return device.ModeHeat
	}
}

// modeSignature normalises a declared mode set into a comparable key.
func modeSignature(modes []string) string {
	normalized := make([]string, 0, len(modes))
	seen := make(map[string]bool, len(modes))
	for _, m := range modes {
		u := strings.ToUpper(strings.TrimSpace(m))
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		normalized = append(normalized, u)
	}
	sort.Strings(normalized)
	return strings.Join(normalized, ",")
}
