package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	DefaultCardTitle = "Wind Rose"
	DefaultMaxSpeed  = 50.0
)

var (
	// ErrEntityNotFound means the card's direction entity is absent from host state.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrInvalidCard wraps every card validation failure.
	ErrInvalidCard = errors.New("invalid card")
)

// Card binds host entities to one wind rose.
type Card struct {
	ID              string    `json:"id" yaml:"id"`
	Title           string    `json:"title,omitempty" yaml:"title"`
	DirectionEntity string    `json:"direction_entity" yaml:"direction_entity"`
	SpeedEntity     string    `json:"speed_entity,omitempty" yaml:"speed_entity"`
	GustEntity      string    `json:"gust_entity,omitempty" yaml:"gust_entity"`
	MaxSpeed        float64   `json:"max_speed" yaml:"max_speed"`
	SpeedUnit       SpeedUnit `json:"speed_unit,omitempty" yaml:"speed_unit"`
}

// WithDefaults fills in the title and max speed when unset.
func (c Card) WithDefaults() Card {
	if c.Title == "" {
		c.Title = DefaultCardTitle
	}
	if c.MaxSpeed == 0 {
		c.MaxSpeed = DefaultMaxSpeed
	}
	return c
}

// Validate checks the card definition.
func (c Card) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidCard)
	}
	if strings.TrimSpace(c.DirectionEntity) == "" {
		return fmt.Errorf("%w %q: please define a wind direction entity", ErrInvalidCard, c.ID)
	}
	if c.MaxSpeed < 0 || math.IsNaN(c.MaxSpeed) || math.IsInf(c.MaxSpeed, 0) {
		return fmt.Errorf("%w %q: max_speed must be a finite non-negative number", ErrInvalidCard, c.ID)
	}
	if c.SpeedUnit != "" {
		if _, ok := ParseSpeedUnit(string(c.SpeedUnit)); !ok {
			return fmt.Errorf("%w %q: unknown speed_unit %q", ErrInvalidCard, c.ID, c.SpeedUnit)
		}
	}
	return nil
}

// Watches reports whether the card reads entityID.
func (c Card) Watches(entityID string) bool {
	return entityID == c.DirectionEntity ||
		(c.SpeedEntity != "" && entityID == c.SpeedEntity) ||
		(c.GustEntity != "" && entityID == c.GustEntity)
}

// DisplayUnit is the unit speeds are shown in: the card's own unit when set,
// otherwise the sample's.
func (c Card) DisplayUnit(sample WindSample) SpeedUnit {
	if u, ok := ParseSpeedUnit(string(c.SpeedUnit)); ok {
		return u
	}
	return sample.SpeedUnit
}

// EntityLookup returns the latest known state for an entity.
type EntityLookup func(entityID string) (HostEntity, bool)

// BuildSample assembles the card's current reading from host state.
// It returns ErrEntityNotFound when the direction entity is unknown.
// A missing speed entity reads as empty text, which normalizes to 0.
func BuildSample(card Card, lookup EntityLookup) (WindSample, error) {
	dir, ok := lookup(card.DirectionEntity)
	if !ok {
		return WindSample{}, fmt.Errorf("%w: %s", ErrEntityNotFound, card.DirectionEntity)
	}

	sample := WindSample{
		DirectionRaw: dir.State,
		SpeedUnit:    SpeedUnitMPH,
	}

	if card.SpeedEntity != "" {
		if speed, ok := lookup(card.SpeedEntity); ok {
			sample.SpeedRaw = speed.State
			sample.SpeedUnit = UnitOrDefault(speed.Attributes.UnitOfMeasurement)
		}
	}

	if card.GustEntity != "" {
		if gust, ok := lookup(card.GustEntity); ok {
			state := gust.State
			sample.GustRaw = &state
		}
	}

	return sample, nil
}
