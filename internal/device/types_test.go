package device

import (
	"testing"

	"github.com/voicelink/voicelink-core/internal/capability"
)

func TestDeviceHasCapability(t *testing.T) {
	d := &Device{Capabilities: []capability.Capability{capability.Power, capability.Speaker}}

	if !d.HasCapability(capability.Power) {
		t.Error("HasCapability(power) = false, want true")
	}
	if d.HasCapability(capability.Lock) {
		t.Error("HasCapability(lock) = true, want false")
	}
}

func TestDeviceAttrStrings(t *testing.T) {
	tests := []struct {
		name  string
		attrs map[string]any
		want  int
	}{
		{"native slice", map[string]any{AttrInputs: []string{"HDMI 1", "HDMI 2"}}, 2},
		{"json decoded", map[string]any{AttrInputs: []any{"HDMI 1", "AUX"}}, 2},
		{"mixed types skipped", map[string]any{AttrInputs: []any{"HDMI 1", 42}}, 1},
		{"absent", map[string]any{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Device{Attributes: tt.attrs}
			if got := d.AttrStrings(AttrInputs); len(got) != tt.want {
				t.Errorf("AttrStrings = %v, want %d entries", got, tt.want)
			}
		})
	}
}

func TestDeviceDeepCopy(t *testing.T) {
	orig := testDevice("alice", "lamp-1", "Desk Lamp")
	orig.Attributes[AttrThermostatModes] = []any{"HEAT", "COOL"}

	cp := orig.DeepCopy()

	cp.State[FieldPower] = "OFF"
	cp.Attributes[AttrColorTempMin] = float64(1000)
	cp.Capabilities[0] = capability.Lock
	if modes, ok := cp.Attributes[AttrThermostatModes].([]any); ok {
		modes[0] = "AUTO"
	}

	if orig.State[FieldPower] != "ON" {
		t.Errorf("original State[power] = %v, want ON", orig.State[FieldPower])
	}
	if min, _ := orig.AttrFloat(AttrColorTempMin); min != 2200 {
		t.Errorf("original color_temp_min = %v, want 2200", min)
	}
	if orig.Capabilities[0] != capability.Power {
		t.Errorf("original Capabilities[0] = %v, want power", orig.Capabilities[0])
	}
	if modes := orig.ThermostatModes(); len(modes) != 2 || modes[0] != "HEAT" {
		t.Errorf("original thermostat modes = %v, want [HEAT COOL]", modes)
	}
}

func TestDeviceDeepCopyNil(t *testing.T) {
	var d *Device
	if d.DeepCopy() != nil {
		t.Error("DeepCopy of nil device should be nil")
	}
}
