package config

import (
	"fmt"
	"os"

	"github.com/couchcryptid/windrose-service/internal/domain"
	"gopkg.in/yaml.v3"
)

// cardFile is the on-disk shape of CARDS_FILE.
//
//	cards:
//	  - id: garden
//	    title: Garden
//	    direction_entity: sensor.wind_direction
//	    speed_entity: sensor.wind_speed
//	    gust_entity: sensor.wind_gust
//	    max_speed: 60
//	    speed_unit: km/h
type cardFile struct {
	Cards []domain.Card `yaml:"cards"`
}

// LoadCards reads, defaults, and validates the card definitions at path.
func LoadCards(path string) ([]domain.Card, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cards file: %w", err)
	}
	return ParseCards(data)
}

// ParseCards decodes card definitions from YAML. At least one card is
// required and ids must be unique.
func ParseCards(data []byte) ([]domain.Card, error) {
	var f cardFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse cards file: %w", err)
	}
	if len(f.Cards) == 0 {
		return nil, fmt.Errorf("%w: cards file defines no cards", domain.ErrInvalidCard)
	}

	seen := make(map[string]struct{}, len(f.Cards))
	cards := make([]domain.Card, 0, len(f.Cards))
	for _, c := range f.Cards {
		c = c.WithDefaults()
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate card id %q", domain.ErrInvalidCard, c.ID)
		}
		seen[c.ID] = struct{}{}
		cards = append(cards, c)
	}
	return cards, nil
}
