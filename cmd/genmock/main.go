// Command genmock generates deterministic host state-change fixtures for the
// configured wind rose cards. It optionally replays the fixture through the
// real transformer and writes the resulting encodings alongside it.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -cards data/mock/cards.yaml \
//	  -out data/mock/generated_states.json \
//	  -enc-out data/mock/generated_encodings.json \
//	  -count 96 -seed 42
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"maps"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/couchcryptid/windrose-service/internal/config"
	"github.com/couchcryptid/windrose-service/internal/domain"
	"github.com/couchcryptid/windrose-service/internal/observability"
	"github.com/couchcryptid/windrose-service/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

var baseTime = time.Date(2024, time.April, 26, 15, 0, 0, 0, time.UTC)

const eventSpacing = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cardsPath := flag.String("cards", "data/mock/cards.yaml", "card definitions file")
	out := flag.String("out", "", "output path for the state-change fixture")
	encOut := flag.String("enc-out", "", "optional output path for the resulting encodings")
	count := flag.Int("count", 96, "number of readings to generate per card")
	seed := flag.Uint64("seed", 42, "random seed")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	cards, err := config.LoadCards(*cardsPath)
	if err != nil {
		return err
	}

	clock := clockwork.NewFakeClockAt(baseTime)
	states := generate(cards, *count, rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15)), clock)
	log.Printf("generated %d state changes for %d cards", len(states), len(cards))

	if err := writeJSON(*out, states); err != nil {
		return fmt.Errorf("writing state fixture: %w", err)
	}
	log.Printf("wrote state fixture: %s", *out)

	if *encOut == "" {
		return nil
	}

	// Set a fixed clock for reproducible encoded_at timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(baseTime.Add(24 * time.Hour)))
	defer domain.SetClock(nil)

	encodings, err := replay(cards, states)
	if err != nil {
		return err
	}
	if err := writeJSON(*encOut, encodings); err != nil {
		return fmt.Errorf("writing encoding fixture: %w", err)
	}
	log.Printf("wrote encoding fixture: %s", *encOut)

	printStats(states, encodings)
	return nil
}

// windWalk is a bounded random walk over one card's direction and speed.
type windWalk struct {
	direction float64
	speed     float64
}

func (w *windWalk) step(rng *rand.Rand, maxSpeed float64) {
	w.direction = math.Mod(w.direction+rng.NormFloat64()*20+360, 360)
	w.speed = math.Max(0, math.Min(maxSpeed, w.speed+rng.NormFloat64()*maxSpeed/15))
}

func generate(cards []domain.Card, count int, rng *rand.Rand, clock *clockwork.FakeClock) []domain.HostEntity {
	walks := make([]windWalk, len(cards))
	for i, c := range cards {
		walks[i] = windWalk{direction: rng.Float64() * 360, speed: rng.Float64() * c.MaxSpeed / 2}
	}

	states := make([]domain.HostEntity, 0, count*len(cards)*3)
	for range count {
		for i, card := range cards {
			walks[i].step(rng, card.MaxSpeed)
			unit := card.SpeedUnit
			if unit == "" {
				unit = domain.SpeedUnitMPH
			}

			states = append(states, entity(clock, card.DirectionEntity, directionState(rng, walks[i].direction), "°"))
			if card.SpeedEntity != "" {
				states = append(states, entity(clock, card.SpeedEntity, formatSpeed(walks[i].speed), string(unit)))
			}
			if card.GustEntity != "" {
				gust := walks[i].speed * (1.2 + rng.Float64()*0.5)
				states = append(states, entity(clock, card.GustEntity, formatSpeed(gust), string(unit)))
			}
		}
	}
	return states
}

// directionState renders a direction the way real sensors do: mostly numeric,
// sometimes as a compass abbreviation, occasionally unavailable.
func directionState(rng *rand.Rand, degrees float64) string {
	switch r := rng.IntN(20); {
	case r == 0:
		return "unavailable"
	case r < 6:
		return domain.CompassPoint(degrees)
	default:
		return strconv.FormatFloat(math.Round(degrees*10)/10, 'f', -1, 64)
	}
}

func formatSpeed(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}

func entity(clock *clockwork.FakeClock, id, state, unit string) domain.HostEntity {
	clock.Advance(eventSpacing)
	now := clock.Now()
	return domain.HostEntity{
		EntityID:    id,
		State:       state,
		Attributes:  domain.EntityAttributes{UnitOfMeasurement: unit},
		LastChanged: now,
		LastUpdated: now,
	}
}

// replay runs the fixture through the real transformer.
func replay(cards []domain.Card, states []domain.HostEntity) ([]domain.WindEncoding, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	t := pipeline.NewTransformer(cards, domain.DefaultLayout, 1000, logger, observability.NewMetricsForTesting())

	var encodings []domain.WindEncoding
	for i, s := range states {
		data, err := json.Marshal(s)
		if err != nil {
			return nil, fmt.Errorf("marshal state %d: %w", i, err)
		}
		outs, err := t.Transform(context.Background(), domain.RawEvent{Value: data, Offset: int64(i)})
		if err != nil {
			return nil, fmt.Errorf("transform state %d: %w", i, err)
		}
		for _, out := range outs {
			var enc domain.WindEncoding
			if err := json.Unmarshal(out.Value, &enc); err != nil {
				return nil, fmt.Errorf("decode encoding: %w", err)
			}
			encodings = append(encodings, enc)
		}
	}
	return encodings, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(states []domain.HostEntity, encodings []domain.WindEncoding) {
	perCard := map[string]int{}
	var forces [13]int
	for i := range encodings {
		perCard[encodings[i].CardID]++
		forces[encodings[i].Beaufort.Force]++
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("State changes: %d\n", len(states))
	fmt.Printf("Encodings: %d\n", len(encodings))
	for _, id := range slices.Sorted(maps.Keys(perCard)) {
		fmt.Printf("  %s: %d\n", id, perCard[id])
	}
	fmt.Print("By Beaufort force:")
	for f, n := range forces {
		if n > 0 {
			fmt.Printf(" %d=%d", f, n)
		}
	}
	fmt.Println()
}
