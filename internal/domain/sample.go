package domain

// WindSample is one instantaneous reading assembled from host state.
// GustRaw is nil when the card has no gust entity or the entity is absent.
type WindSample struct {
	DirectionRaw string    `json:"direction_raw"`
	SpeedRaw     string    `json:"speed_raw"`
	GustRaw      *string   `json:"gust_raw,omitempty"`
	SpeedUnit    SpeedUnit `json:"speed_unit"`
}

// ShouldRecompute reports whether next differs from prev in any field the
// encoder reads. A nil prev always needs a recompute.
func ShouldRecompute(prev *WindSample, next WindSample) bool {
	if prev == nil {
		return true
	}
	if prev.DirectionRaw != next.DirectionRaw ||
		prev.SpeedRaw != next.SpeedRaw ||
		prev.SpeedUnit != next.SpeedUnit {
		return true
	}
	switch {
	case prev.GustRaw == nil && next.GustRaw == nil:
		return false
	case prev.GustRaw == nil || next.GustRaw == nil:
		return true
	default:
		return *prev.GustRaw != *next.GustRaw
	}
}
