package pipeline_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/windrose-service/internal/config"
	"github.com/couchcryptid/windrose-service/internal/domain"
	"github.com/couchcryptid/windrose-service/internal/observability"
	"github.com/couchcryptid/windrose-service/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var encodedAt = time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC)

func freezeClock(t *testing.T) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(encodedAt))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func stateChange(t *testing.T, entityID, state, unit string) domain.RawEvent {
	t.Helper()
	data, err := json.Marshal(domain.HostEntity{
		EntityID:   entityID,
		State:      state,
		Attributes: domain.EntityAttributes{UnitOfMeasurement: unit},
	})
	require.NoError(t, err)
	return domain.RawEvent{Key: []byte(entityID), Value: data}
}

func decode(t *testing.T, out domain.OutputEvent) domain.WindEncoding {
	t.Helper()
	var enc domain.WindEncoding
	require.NoError(t, json.Unmarshal(out.Value, &enc))
	return enc
}

var gardenCard = domain.Card{
	ID:              "garden",
	Title:           "Garden",
	DirectionEntity: "sensor.dir",
	SpeedEntity:     "sensor.speed",
	GustEntity:      "sensor.gust",
	MaxSpeed:        50,
}

func TestWindTransformer_EncodesOnDirectionAndSpeed(t *testing.T) {
	freezeClock(t)
	metrics := observability.NewMetricsForTesting()
	tfm := pipeline.NewTransformer([]domain.Card{gardenCard}, domain.DefaultLayout, 100, discardLogger(), metrics)
	ctx := context.Background()

	out, err := tfm.Transform(ctx, stateChange(t, "sensor.dir", "NE", ""))
	require.NoError(t, err)
	require.Len(t, out, 1)
	first := decode(t, out[0])
	assert.Equal(t, 45.0, first.DirectionDegrees)
	assert.Zero(t, first.Speed)

	out, err = tfm.Transform(ctx, stateChange(t, "sensor.speed", "13", "mph"))
	require.NoError(t, err)
	require.Len(t, out, 1)

	enc := decode(t, out[0])
	assert.Equal(t, "garden", enc.CardID)
	assert.Equal(t, "NE", enc.CompassPoint)
	assert.Equal(t, 13.0, enc.Speed)
	assert.Equal(t, 4, enc.Beaufort.Force)
	assert.InDelta(t, 36.48, enc.Arrow.Length, 1e-9)
	assert.Equal(t, encodedAt, enc.EncodedAt)
	assert.Equal(t, "garden", out[0].Headers["card_id"])
	assert.Equal(t, "4", out[0].Headers["beaufort_force"])

	latest, ok := tfm.Latest("garden")
	require.True(t, ok)
	assert.Equal(t, 13.0, latest.Speed)
	assert.Equal(t, 2.0, counterValue(t, metrics.EncodingsProduced))
}

func TestWindTransformer_SkipsUnchangedSample(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	tfm := pipeline.NewTransformer([]domain.Card{gardenCard}, domain.DefaultLayout, 100, discardLogger(), metrics)
	ctx := context.Background()

	_, err := tfm.Transform(ctx, stateChange(t, "sensor.dir", "NE", ""))
	require.NoError(t, err)

	out, err := tfm.Transform(ctx, stateChange(t, "sensor.dir", "NE", ""))
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 1.0, counterValue(t, metrics.EncodingsSkipped.WithLabelValues(observability.SkipUnchanged)))
}

func TestWindTransformer_MissingDirectionEntity(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	tfm := pipeline.NewTransformer([]domain.Card{gardenCard}, domain.DefaultLayout, 100, discardLogger(), metrics)

	out, err := tfm.Transform(context.Background(), stateChange(t, "sensor.speed", "10", "mph"))
	require.NoError(t, err)
	assert.Empty(t, out)

	_, ok := tfm.Latest("garden")
	assert.False(t, ok)
	assert.Equal(t, 1.0, counterValue(t, metrics.EncodingsSkipped.WithLabelValues(observability.SkipMissingEntity)))
}

func TestWindTransformer_UnwatchedEntity(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	tfm := pipeline.NewTransformer([]domain.Card{gardenCard}, domain.DefaultLayout, 100, discardLogger(), metrics)

	out, err := tfm.Transform(context.Background(), stateChange(t, "sensor.porch_temperature", "21", "°C"))
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 1.0, counterValue(t, metrics.EncodingsSkipped.WithLabelValues(observability.SkipUnwatched)))
}

func TestWindTransformer_SharedEntityFansOut(t *testing.T) {
	kmhCard := gardenCard
	kmhCard.ID = "garden-kmh"
	kmhCard.SpeedUnit = domain.SpeedUnitKMH
	kmhCard.MaxSpeed = 80

	tfm := pipeline.NewTransformer([]domain.Card{gardenCard, kmhCard}, domain.DefaultLayout, 100, discardLogger(), observability.NewMetricsForTesting())
	ctx := context.Background()

	_, err := tfm.Transform(ctx, stateChange(t, "sensor.dir", "S", ""))
	require.NoError(t, err)

	out, err := tfm.Transform(ctx, stateChange(t, "sensor.speed", "10", "mph"))
	require.NoError(t, err)
	require.Len(t, out, 2)

	mph := decode(t, out[0])
	kmh := decode(t, out[1])
	assert.Equal(t, domain.SpeedUnitMPH, mph.SpeedUnit)
	assert.Equal(t, domain.SpeedUnitKMH, kmh.SpeedUnit)
	assert.InDelta(t, 16.0934, kmh.Speed, 1e-9)
	assert.Equal(t, mph.Beaufort, kmh.Beaufort, "classification is unit independent")
}

func TestWindTransformer_InvalidMessage(t *testing.T) {
	tfm := pipeline.NewTransformer([]domain.Card{gardenCard}, domain.DefaultLayout, 100, discardLogger(), observability.NewMetricsForTesting())

	_, err := tfm.Transform(context.Background(), domain.RawEvent{Value: []byte("not json")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse state change")
}

func TestWindTransformer_Card(t *testing.T) {
	tfm := pipeline.NewTransformer([]domain.Card{gardenCard}, domain.DefaultLayout, 100, discardLogger(), observability.NewMetricsForTesting())

	c, ok := tfm.Card("garden")
	require.True(t, ok)
	assert.Equal(t, "Garden", c.Title)

	_, ok = tfm.Card("nope")
	assert.False(t, ok)
}

// TestWindTransformer_WithMockFixture replays the scenario fixture used by the
// integration tests and checks which state changes produce encodings.
func TestWindTransformer_WithMockFixture(t *testing.T) {
	freezeClock(t)

	cards, err := config.LoadCards(filepath.Join("..", "..", "data", "mock", "cards.yaml"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join("..", "..", "data", "mock", "state_changes.json"))
	require.NoError(t, err)
	var entities []json.RawMessage
	require.NoError(t, json.Unmarshal(data, &entities))

	tfm := pipeline.NewTransformer(cards, domain.DefaultLayout, 100, discardLogger(), observability.NewMetricsForTesting())

	type produced struct {
		Step      int
		CardID    string
		Direction float64
		Force     int
	}
	var got []produced
	for i, raw := range entities {
		out, err := tfm.Transform(context.Background(), domain.RawEvent{Value: raw})
		require.NoError(t, err, "step %d", i)
		for _, o := range out {
			enc := decode(t, o)
			got = append(got, produced{Step: i, CardID: enc.CardID, Direction: enc.DirectionDegrees, Force: enc.Beaufort.Force})
		}
	}

	want := []produced{
		{Step: 0, CardID: "garden", Direction: 45, Force: 0},
		{Step: 1, CardID: "garden", Direction: 45, Force: 4},
		{Step: 2, CardID: "garden", Direction: 45, Force: 4},
		{Step: 5, CardID: "roof", Direction: 247.5, Force: 4},
		{Step: 7, CardID: "garden", Direction: 0, Force: 4},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("produced encodings mismatch (-want +got):\n%s", diff)
	}

	garden, ok := tfm.Latest("garden")
	require.True(t, ok)
	require.NotNil(t, garden.Gust)
	assert.Equal(t, 21.0, *garden.Gust)

	roof, ok := tfm.Latest("roof")
	require.True(t, ok)
	assert.Equal(t, domain.SpeedUnitKMH, roof.SpeedUnit)
	assert.Equal(t, 30.0, roof.Speed)
	assert.Equal(t, "WSW", roof.CompassPoint)
}

func TestWindTransformer_UnwatchedTrafficKeepsCardInputs(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	tfm := pipeline.NewTransformer([]domain.Card{gardenCard}, domain.DefaultLayout, 2, discardLogger(), metrics)
	ctx := context.Background()

	out, err := tfm.Transform(ctx, stateChange(t, "sensor.dir", "NE", ""))
	require.NoError(t, err)
	require.Len(t, out, 1)

	for _, id := range []string{"sensor.porch_temperature", "light.kitchen", "sensor.humidity"} {
		out, err = tfm.Transform(ctx, stateChange(t, id, "on", ""))
		require.NoError(t, err)
		assert.Empty(t, out)
	}

	out, err = tfm.Transform(ctx, stateChange(t, "sensor.speed", "20", "mph"))
	require.NoError(t, err)
	require.Len(t, out, 1)

	enc := decode(t, out[0])
	assert.Equal(t, 45.0, enc.DirectionDegrees)
	assert.Equal(t, 20.0, enc.Speed)
	assert.Equal(t, 3.0, counterValue(t, metrics.EncodingsSkipped.WithLabelValues(observability.SkipUnwatched)))
	assert.Zero(t, counterValue(t, metrics.EncodingsSkipped.WithLabelValues(observability.SkipMissingEntity)))
}

func TestWindTransformer_StateCacheHoldsAllWatchedEntities(t *testing.T) {
	tfm := pipeline.NewTransformer([]domain.Card{gardenCard}, domain.DefaultLayout, 1, discardLogger(), observability.NewMetricsForTesting())
	ctx := context.Background()

	_, err := tfm.Transform(ctx, stateChange(t, "sensor.dir", "SW", ""))
	require.NoError(t, err)
	_, err = tfm.Transform(ctx, stateChange(t, "sensor.speed", "10", "mph"))
	require.NoError(t, err)

	out, err := tfm.Transform(ctx, stateChange(t, "sensor.gust", "18", "mph"))
	require.NoError(t, err)
	require.Len(t, out, 1)

	enc := decode(t, out[0])
	assert.Equal(t, 225.0, enc.DirectionDegrees)
	assert.Equal(t, 10.0, enc.Speed)
	require.NotNil(t, enc.Gust)
	assert.Equal(t, 18.0, *enc.Gust)
}
