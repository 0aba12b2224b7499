package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// EntityAttributes carries the host attributes the encoder reads.
type EntityAttributes struct {
	UnitOfMeasurement string `json:"unit_of_measurement,omitempty"`
	FriendlyName      string `json:"friendly_name,omitempty"`
}

// HostEntity is one entity's state as published by the dashboard host.
type HostEntity struct {
	EntityID    string           `json:"entity_id"`
	State       string           `json:"state"`
	Attributes  EntityAttributes `json:"attributes"`
	LastChanged time.Time        `json:"last_changed"`
	LastUpdated time.Time        `json:"last_updated"`
}

// ParseStateChange decodes a host state-change message.
func ParseStateChange(raw RawEvent) (HostEntity, error) {
	var entity HostEntity
	if err := json.Unmarshal(raw.Value, &entity); err != nil {
		return HostEntity{}, fmt.Errorf("parse state change: %w", err)
	}
	entity.EntityID = strings.TrimSpace(entity.EntityID)
	if entity.EntityID == "" {
		return HostEntity{}, errors.New("parse state change: missing entity_id")
	}
	return entity, nil
}
