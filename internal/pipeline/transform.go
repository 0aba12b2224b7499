package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/couchcryptid/windrose-service/internal/domain"
	"github.com/couchcryptid/windrose-service/internal/observability"
)

// WindTransformer implements Transformer. It keeps a snapshot of host entity
// state and re-encodes every card whose inputs changed.
type WindTransformer struct {
	cards   []domain.Card
	layout  domain.Layout
	logger  *slog.Logger
	metrics *observability.Metrics

	states  *lruCache[domain.HostEntity]
	samples *lruCache[domain.WindSample]

	mu     sync.RWMutex
	latest map[string]domain.WindEncoding
}

// NewTransformer creates a WindTransformer for the given cards. stateCacheSize
// bounds the number of host entities remembered; it is raised to the number of
// distinct watched entities so a card's inputs are never evicted.
func NewTransformer(cards []domain.Card, layout domain.Layout, stateCacheSize int, logger *slog.Logger, metrics *observability.Metrics) *WindTransformer {
	metrics.CardsConfigured.Set(float64(len(cards)))
	return &WindTransformer{
		cards:   cards,
		layout:  layout,
		logger:  logger,
		metrics: metrics,
		states:  newLRUCache[domain.HostEntity](max(stateCacheSize, watchedEntityCount(cards))),
		samples: newLRUCache[domain.WindSample](max(len(cards), 1)),
		latest:  make(map[string]domain.WindEncoding, len(cards)),
	}
}

// Transform applies one host state change and returns an encoding for each
// card that needs redrawing. An empty result is not an error.
func (t *WindTransformer) Transform(_ context.Context, raw domain.RawEvent) ([]domain.OutputEvent, error) {
	entity, err := domain.ParseStateChange(raw)
	if err != nil {
		return nil, err
	}
	if !t.watches(entity.EntityID) {
		t.metrics.EncodingsSkipped.WithLabelValues(observability.SkipUnwatched).Inc()
		t.logger.Debug("state change for unwatched entity", "entity_id", entity.EntityID)
		return nil, nil
	}
	t.states.put(entity.EntityID, entity)

	var out []domain.OutputEvent
	for _, card := range t.cards {
		if !card.Watches(entity.EntityID) {
			continue
		}
		enc, ok := t.recompute(card)
		if !ok {
			continue
		}
		ev, err := domain.SerializeEncoding(enc)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

func watchedEntityCount(cards []domain.Card) int {
	ids := make(map[string]struct{}, len(cards)*3)
	for _, c := range cards {
		for _, id := range []string{c.DirectionEntity, c.SpeedEntity, c.GustEntity} {
			if id != "" {
				ids[id] = struct{}{}
			}
		}
	}
	return len(ids)
}

// watches reports whether any card reads entityID. Only watched entities
// enter the state snapshot.
func (t *WindTransformer) watches(entityID string) bool {
	for _, card := range t.cards {
		if card.Watches(entityID) {
			return true
		}
	}
	return false
}

// recompute encodes card if its sample changed since the last encoding.
func (t *WindTransformer) recompute(card domain.Card) (domain.WindEncoding, bool) {
	sample, err := domain.BuildSample(card, t.states.get)
	if err != nil {
		if errors.Is(err, domain.ErrEntityNotFound) {
			t.metrics.EncodingsSkipped.WithLabelValues(observability.SkipMissingEntity).Inc()
			t.logger.Warn("card not encoded", "card_id", card.ID, "error", err)
		}
		return domain.WindEncoding{}, false
	}

	var prev *domain.WindSample
	if s, ok := t.samples.get(card.ID); ok {
		prev = &s
	}
	if !domain.ShouldRecompute(prev, sample) {
		t.metrics.EncodingsSkipped.WithLabelValues(observability.SkipUnchanged).Inc()
		return domain.WindEncoding{}, false
	}
	t.samples.put(card.ID, sample)

	enc := domain.Encode(card, sample, t.layout)

	t.mu.Lock()
	t.latest[card.ID] = enc
	t.mu.Unlock()

	t.metrics.EncodingsProduced.Inc()
	t.metrics.BeaufortForce.Observe(float64(enc.Beaufort.Force))
	t.logger.Debug("card encoded",
		"card_id", card.ID,
		"direction", enc.DirectionDegrees,
		"speed", enc.Speed,
		"unit", enc.SpeedUnit,
		"beaufort", enc.Beaufort.Force,
	)
	return enc, true
}

// Latest returns the most recent encoding for a card.
func (t *WindTransformer) Latest(cardID string) (domain.WindEncoding, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	enc, ok := t.latest[cardID]
	return enc, ok
}

// Card returns the configured card with the given id.
func (t *WindTransformer) Card(cardID string) (domain.Card, bool) {
	for _, c := range t.cards {
		if c.ID == cardID {
			return c, true
		}
	}
	return domain.Card{}, false
}
