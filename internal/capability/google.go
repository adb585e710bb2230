package capability

// Google Smart Home trait identifiers (vendor B, intent-based).
const (
	GoogleTraitOnOff         = "action.devices.traits.OnOff"
	GoogleTraitBrightness    = "action.devices.traits.Brightness"
	GoogleTraitColorSetting  = "action.devices.traits.ColorSetting"
	GoogleTraitInputSelector = "action.devices.traits.InputSelector"
	GoogleTraitLockUnlock    = "action.devices.traits.LockUnlock"
	GoogleTraitOpenClose     = "action.devices.traits.OpenClose"
	GoogleTraitTransport     = "action.devices.traits.TransportControl"
	GoogleTraitTempSetting   = "action.devices.traits.TemperatureSetting"
	GoogleTraitVolume        = "action.devices.traits.Volume"
)

// googleTraits maps canonical capabilities to Google trait identifiers.
// Color and ColorTemperature share ColorSetting; TemperatureRead and
// Thermostat share TemperatureSetting.
var googleTraits = map[Capability]string{
	Power:            GoogleTraitOnOff,
	Brightness:       GoogleTraitBrightness,
	Color:            GoogleTraitColorSetting,
	ColorTemperature: GoogleTraitColorSetting,
	Input:            GoogleTraitInputSelector,
	Lock:             GoogleTraitLockUnlock,
	Percentage:       GoogleTraitOpenClose,
	Playback:         GoogleTraitTransport,
	TemperatureRead:  GoogleTraitTempSetting,
	Thermostat:       GoogleTraitTempSetting,
	Speaker:          GoogleTraitVolume,
}

// GoogleTrait returns the Google trait identifier for a canonical
// capability. The second return value is false for capabilities Google
// has no trait for.
func GoogleTrait(c Capability) (string, bool) {
	trait, ok := googleTraits[c]
	return trait, ok
}

// FromGoogleTrait returns a canonical capability for a Google trait.
// Shared traits resolve to the controlling capability (ColorSetting →
// Color, TemperatureSetting → Thermostat).
func FromGoogleTrait(trait string) (Capability, bool) {
	switch trait {
	case GoogleTraitOnOff:
		return Power, true
	case GoogleTraitBrightness:
		return Brightness, true
	case GoogleTraitColorSetting:
		return Color, true
	case GoogleTraitInputSelector:
		return Input, true
	case GoogleTraitLockUnlock:
		return Lock, true
	case GoogleTraitOpenClose:
		return Percentage, true
	case GoogleTraitTransport:
		return Playback, true
	case GoogleTraitTempSetting:
		return Thermostat, true
	case GoogleTraitVolume:
		return Speaker, true
	default:
		return "", false
	}
}

// GoogleTraitsFor returns the deduplicated trait list for a capability set,
// preserving the order of caps.
func GoogleTraitsFor(caps []Capability) []string {
	seen := make(map[string]bool)
	var traits []string
	for _, c := range caps {
		trait, ok := googleTraits[c]
		if !ok || seen[trait] {
			continue
		}
		seen[trait] = true
		traits = append(traits, trait)
	}
	return traits
}

// GoogleDeviceType returns the Google device type for a capability set.
func GoogleDeviceType(caps []Capability) string {
	set := make(map[Capability]bool, len(caps))
	for _, c := range caps {
		set[c] = true
	}

	switch {
	case set[Thermostat]:
		return "action.devices.types.THERMOSTAT"
	case set[Lock]:
		return "action.devices.types.LOCK"
	case set[Speaker] || set[Playback]:
		return "action.devices.types.SPEAKER"
	case set[Input]:
		return "action.devices.types.TV"
	case set[Brightness] || set[Color] || set[ColorTemperature]:
		return "action.devices.types.LIGHT"
	case set[Percentage]:
		return "action.devices.types.BLINDS"
	case set[TemperatureRead]:
		return "action.devices.types.SENSOR"
	default:
		return "action.devices.types.SWITCH"
	}
}
