// Command validate replays a host state-change fixture through the real
// transformer and checks the resulting wind rose encodings phase by phase:
// fixture integrity, value normalization, Beaufort classification, arrow
// geometry and compass ticks. When an encoding fixture is supplied it must
// match the replay exactly.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -cards data/mock/cards.yaml \
//	  -states data/mock/state_changes.json \
//	  -encodings data/mock/generated_encodings.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/windrose-service/internal/config"
	"github.com/couchcryptid/windrose-service/internal/domain"
	"github.com/couchcryptid/windrose-service/internal/observability"
	"github.com/couchcryptid/windrose-service/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jonboulle/clockwork"
)

const eps = 1e-9

var expectedTicks = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	cardsPath := flag.String("cards", "data/mock/cards.yaml", "card definitions file")
	statesPath := flag.String("states", "data/mock/state_changes.json", "host state-change fixture")
	encodingsPath := flag.String("encodings", "", "optional encoding fixture to compare against the replay")
	flag.Parse()

	os.Exit(run(*cardsPath, *statesPath, *encodingsPath))
}

func run(cardsPath, statesPath, encodingsPath string) int {
	// Set a fixed clock matching genmock for reproducible encoded_at.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2024, time.April, 27, 15, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	fmt.Println("=== Wind Rose Encoding Validation ===")
	fmt.Println()

	cards, err := config.LoadCards(cardsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load cards: %v\n", err)
		return 1
	}

	states, err := loadJSON[domain.HostEntity](statesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load states: %v\n", err)
		return 1
	}

	encodings, err := replay(cards, states)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: replay: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateFixture(cards, states),
		validateNormalization(encodings),
		validateBeaufort(encodings),
		validateArrow(cards, encodings),
		validateTicks(encodings),
	}
	if encodingsPath != "" {
		expected, err := loadJSON[domain.WindEncoding](encodingsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load encodings: %v\n", err)
			return 1
		}
		phases = append(phases, validateFixtureParity(expected, encodings))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d cards, %d state changes, %d encodings\n", len(cards), len(states), len(encodings))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, nil
}

func replay(cards []domain.Card, states []domain.HostEntity) ([]domain.WindEncoding, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	t := pipeline.NewTransformer(cards, domain.DefaultLayout, 1000, logger, observability.NewMetricsForTesting())

	var encodings []domain.WindEncoding
	for i := range states {
		data, err := json.Marshal(states[i])
		if err != nil {
			return nil, err
		}
		outs, err := t.Transform(context.Background(), domain.RawEvent{Value: data, Offset: int64(i)})
		if err != nil {
			return nil, fmt.Errorf("state %d: %w", i, err)
		}
		for _, out := range outs {
			var enc domain.WindEncoding
			if err := json.Unmarshal(out.Value, &enc); err != nil {
				return nil, err
			}
			encodings = append(encodings, enc)
		}
	}
	return encodings, nil
}

// ── Phase 1: Fixture integrity ──

func validateFixture(cards []domain.Card, states []domain.HostEntity) *phase {
	p := &phase{name: "Phase 1: Fixture integrity"}
	fmt.Println("Phase 1: Fixture integrity...")

	if len(states) == 0 {
		p.errorf("fixture has no state changes")
	}

	watched := 0
	for i := range states {
		s := &states[i]
		if s.EntityID == "" {
			p.errorf("state %d: missing entity_id", i)
		}
		if s.LastUpdated.IsZero() {
			p.errorf("state %d (%s): missing last_updated", i, s.EntityID)
		}
		if s.LastUpdated.Before(s.LastChanged) {
			p.errorf("state %d (%s): last_updated %s before last_changed %s",
				i, s.EntityID, s.LastUpdated.Format(time.RFC3339), s.LastChanged.Format(time.RFC3339))
		}
		for _, c := range cards {
			if c.Watches(s.EntityID) {
				watched++
				break
			}
		}
	}
	if len(states) > 0 && watched == 0 {
		p.errorf("no state change touches a configured card")
	}
	return p
}

// ── Phase 2: Normalization ──

func validateNormalization(encodings []domain.WindEncoding) *phase {
	p := &phase{name: "Phase 2: Direction and speed normalization"}
	fmt.Println("Phase 2: Direction and speed normalization...")

	for i := range encodings {
		e := &encodings[i]
		if !finite(e.DirectionDegrees) {
			p.errorf("encoding %d (%s): non-finite direction", i, e.CardID)
		}
		if got := domain.CompassPoint(e.DirectionDegrees); got != e.CompassPoint {
			p.errorf("encoding %d (%s): compass point %q, want %q", i, e.CardID, e.CompassPoint, got)
		}
		if !finite(e.Speed) || !finite(e.SpeedMph) {
			p.errorf("encoding %d (%s): non-finite speed", i, e.CardID)
		}
		if back := domain.ConvertSpeed(e.SpeedMph, domain.SpeedUnitMPH, e.SpeedUnit); math.Abs(back-e.Speed) > 1e-6 {
			p.errorf("encoding %d (%s): speed %g %s does not match %g mph", i, e.CardID, e.Speed, e.SpeedUnit, e.SpeedMph)
		}
	}
	return p
}

// ── Phase 3: Beaufort ──

func validateBeaufort(encodings []domain.WindEncoding) *phase {
	p := &phase{name: "Phase 3: Beaufort classification"}
	fmt.Println("Phase 3: Beaufort classification...")

	prev := domain.ClassifyBeaufort(0)
	for mph := 0.0; mph <= 100; mph += 0.25 {
		c := domain.ClassifyBeaufort(mph)
		if c.Force < prev.Force {
			p.errorf("force decreases at %g mph: %d after %d", mph, c.Force, prev.Force)
		}
		if c.Force < 0 || c.Force > 12 {
			p.errorf("force %d out of range at %g mph", c.Force, mph)
		}
		prev = c
	}

	for i := range encodings {
		e := &encodings[i]
		if want := domain.ClassifyBeaufort(e.SpeedMph); want != e.Beaufort {
			p.errorf("encoding %d (%s): beaufort %+v, want %+v", i, e.CardID, e.Beaufort, want)
		}
	}
	return p
}

// ── Phase 4: Arrow geometry ──

func validateArrow(cards []domain.Card, encodings []domain.WindEncoding) *phase {
	p := &phase{name: "Phase 4: Arrow geometry"}
	fmt.Println("Phase 4: Arrow geometry...")

	maxSpeeds := make(map[string]float64, len(cards))
	for _, c := range cards {
		maxSpeeds[c.ID] = c.MaxSpeed
	}

	for i := range encodings {
		e := &encodings[i]
		r := e.Layout.Radius
		a := e.Arrow

		if e.MaxSpeed != maxSpeeds[e.CardID] {
			p.errorf("encoding %d (%s): max_speed %g, card has %g", i, e.CardID, e.MaxSpeed, maxSpeeds[e.CardID])
		}
		if a.Length < 0.3*r-eps || a.Length > 0.9*r+eps {
			p.errorf("encoding %d (%s): arrow length %g outside [%g, %g]", i, e.CardID, a.Length, 0.3*r, 0.9*r)
		}
		if e.Speed >= e.MaxSpeed && math.Abs(a.Length-0.9*r) > eps {
			p.errorf("encoding %d (%s): arrow length %g at or above max speed, want %g", i, e.CardID, a.Length, 0.9*r)
		}
		if d := dist(a.ShaftOrigin, a.Tip); math.Abs(d-a.Length) > 1e-6 {
			p.errorf("encoding %d (%s): tip is %g from center, length is %g", i, e.CardID, d, a.Length)
		}
		if a.ShaftOrigin != e.Layout.Center {
			p.errorf("encoding %d (%s): shaft does not start at center", i, e.CardID)
		}
		for _, h := range []domain.Point{a.Head1, a.Head2} {
			if d := dist(a.Tip, h); math.Abs(d-12) > 1e-6 {
				p.errorf("encoding %d (%s): arrow head point %g from tip, want 12", i, e.CardID, d)
			}
		}
	}
	return p
}

// ── Phase 5: Compass ticks ──

func validateTicks(encodings []domain.WindEncoding) *phase {
	p := &phase{name: "Phase 5: Compass ticks"}
	fmt.Println("Phase 5: Compass ticks...")

	for i := range encodings {
		e := &encodings[i]
		if len(e.Ticks) != len(expectedTicks) {
			p.errorf("encoding %d (%s): %d ticks, want %d", i, e.CardID, len(e.Ticks), len(expectedTicks))
			continue
		}
		for j, tick := range e.Ticks {
			if tick.Label != expectedTicks[j] {
				p.errorf("encoding %d (%s): tick %d label %q, want %q", i, e.CardID, j, tick.Label, expectedTicks[j])
			}
			if math.Abs(tick.AngleDegrees-float64(j)*45) > eps {
				p.errorf("encoding %d (%s): tick %s at %g°, want %g°", i, e.CardID, tick.Label, tick.AngleDegrees, float64(j)*45)
			}
		}
	}
	return p
}

// ── Phase 6: Fixture parity ──

func validateFixtureParity(expected, actual []domain.WindEncoding) *phase {
	p := &phase{name: "Phase 6: Encoding fixture parity"}
	fmt.Println("Phase 6: Encoding fixture parity...")

	if len(expected) != len(actual) {
		p.errorf("fixture has %d encodings, replay produced %d", len(expected), len(actual))
		return p
	}
	opts := cmp.Options{cmpopts.EquateApprox(0, 1e-9), cmpopts.IgnoreFields(domain.WindEncoding{}, "EncodedAt")}
	for i := range expected {
		if diff := cmp.Diff(expected[i], actual[i], opts); diff != "" {
			p.errorf("encoding %d (%s) mismatch (-fixture +replay):\n%s", i, expected[i].CardID, diff)
		}
	}
	return p
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func dist(a, b domain.Point) float64 { return math.Hypot(a.X-b.X, a.Y-b.Y) }
