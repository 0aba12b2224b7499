package domain

import (
	"strings"
)

// SpeedUnit names the unit a wind speed is expressed in.
type SpeedUnit string

const (
	SpeedUnitMPH SpeedUnit = "mph"
	SpeedUnitKMH SpeedUnit = "km/h"
	SpeedUnitMPS SpeedUnit = "m/s"
)

const (
	kmhPerMph = 1.60934
	mpsPerMph = 0.44704
	kmhPerMps = 3.6
)

// ParseSpeedUnit maps a host unit_of_measurement to a SpeedUnit.
// It reports false for anything it does not recognize.
func ParseSpeedUnit(s string) (SpeedUnit, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mph":
		return SpeedUnitMPH, true
	case "km/h", "kmh", "kph":
		return SpeedUnitKMH, true
	case "m/s", "mps":
		return SpeedUnitMPS, true
	default:
		return "", false
	}
}

// UnitOrDefault resolves a unit_of_measurement, falling back to mph.
func UnitOrDefault(s string) SpeedUnit {
	if u, ok := ParseSpeedUnit(s); ok {
		return u
	}
	return SpeedUnitMPH
}

// NormalizeSpeed parses the leading number of a speed reading ("12.5 mph" is
// 12.5). Text without a leading number, or a non-finite one, is 0.
func NormalizeSpeed(raw string) float64 {
	v, ok := parseFinite(raw)
	if !ok {
		return 0
	}
	return v
}

// MphToKmh converts miles per hour to kilometres per hour.
func MphToKmh(mph float64) float64 { return mph * kmhPerMph }

// MphToMps converts miles per hour to metres per second.
func MphToMps(mph float64) float64 { return mph * mpsPerMph }

// MpsToKmh converts metres per second to kilometres per hour.
func MpsToKmh(mps float64) float64 { return mps * kmhPerMps }

// KmhToMph converts kilometres per hour to miles per hour.
func KmhToMph(kmh float64) float64 { return kmh / kmhPerMph }

// MpsToMph converts metres per second to miles per hour.
func MpsToMph(mps float64) float64 { return mps / mpsPerMph }

// KmhToMps converts kilometres per hour to metres per second.
func KmhToMps(kmh float64) float64 { return kmh / kmhPerMps }

// ConvertSpeed converts v between units. Unknown units are treated as mph.
func ConvertSpeed(v float64, from, to SpeedUnit) float64 {
	if from == to {
		return v
	}
	switch {
	case from == SpeedUnitMPH && to == SpeedUnitKMH:
		return MphToKmh(v)
	case from == SpeedUnitMPH && to == SpeedUnitMPS:
		return MphToMps(v)
	case from == SpeedUnitMPS && to == SpeedUnitKMH:
		return MpsToKmh(v)
	case from == SpeedUnitKMH && to == SpeedUnitMPH:
		return KmhToMph(v)
	case from == SpeedUnitMPS && to == SpeedUnitMPH:
		return MpsToMph(v)
	case from == SpeedUnitKMH && to == SpeedUnitMPS:
		return KmhToMps(v)
	default:
		return v
	}
}
