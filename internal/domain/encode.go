package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Layout positions the rose in the renderer's coordinate space.
type Layout struct {
	Center      Point   `json:"center"`
	Radius      float64 `json:"radius"`
	InnerRadius float64 `json:"inner_radius"`
	LabelOffset float64 `json:"label_offset"`
}

// DefaultLayout fits a 200x200 viewBox.
var DefaultLayout = Layout{
	Center:      Point{X: 100, Y: 100},
	Radius:      80,
	InnerRadius: 20,
	LabelOffset: 12,
}

// WindEncoding is everything a renderer needs to draw one card.
// Gust is carried for display only and never affects the geometry.
type WindEncoding struct {
	CardID           string        `json:"card_id"`
	Title            string        `json:"title,omitempty"`
	DirectionDegrees float64       `json:"direction_degrees"`
	CompassPoint     string        `json:"compass_point"`
	Speed            float64       `json:"speed"`
	Gust             *float64      `json:"gust,omitempty"`
	SpeedUnit        SpeedUnit     `json:"speed_unit"`
	SpeedMph         float64       `json:"speed_mph"`
	MaxSpeed         float64       `json:"max_speed"`
	Beaufort         BeaufortClass `json:"beaufort"`
	Layout           Layout        `json:"layout"`
	Arrow            ArrowGeometry `json:"arrow"`
	Ticks            []CompassTick `json:"ticks"`
	EncodedAt        time.Time     `json:"encoded_at"`
}

// Encode turns a sample into its visual encoding for the given card and layout.
func Encode(card Card, sample WindSample, layout Layout) WindEncoding {
	unit := card.DisplayUnit(sample)

	direction := NormalizeDirection(sample.DirectionRaw)
	rawSpeed := NormalizeSpeed(sample.SpeedRaw)
	speedMph := ConvertSpeed(rawSpeed, sample.SpeedUnit, SpeedUnitMPH)
	speed := ConvertSpeed(rawSpeed, sample.SpeedUnit, unit)

	var gust *float64
	if sample.GustRaw != nil {
		g := ConvertSpeed(NormalizeSpeed(*sample.GustRaw), sample.SpeedUnit, unit)
		gust = &g
	}

	return WindEncoding{
		CardID:           card.ID,
		Title:            card.Title,
		DirectionDegrees: direction,
		CompassPoint:     CompassPoint(direction),
		Speed:            speed,
		Gust:             gust,
		SpeedUnit:        unit,
		SpeedMph:         speedMph,
		MaxSpeed:         card.MaxSpeed,
		Beaufort:         ClassifyBeaufort(speedMph),
		Layout:           layout,
		Arrow:            ComputeArrowGeometry(layout.Center, layout.Radius, direction, speed, card.MaxSpeed),
		Ticks:            ComputeCompassTicks(layout.Center, layout.Radius, layout.InnerRadius, layout.LabelOffset),
		EncodedAt:        clock.Now().UTC(),
	}
}

// SerializeEncoding marshals an encoding into an OutputEvent keyed by card ID.
func SerializeEncoding(enc WindEncoding) (OutputEvent, error) {
	data, err := json.Marshal(enc)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize wind encoding: %w", err)
	}
	return OutputEvent{
		Key:   []byte(enc.CardID),
		Value: data,
		Headers: map[string]string{
			"card_id":        enc.CardID,
			"beaufort_force": strconv.Itoa(enc.Beaufort.Force),
			"encoded_at":     enc.EncodedAt.Format(time.RFC3339),
		},
	}, nil
}
