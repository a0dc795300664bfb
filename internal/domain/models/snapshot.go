package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	EntityKeyPrefix = "job_insights_"
	HistoryKey      = "job_insights_history"
)

// Snapshot is the flat storage mapping that export returns and import replaces wholesale.
type Snapshot map[string]json.RawMessage

// StoredEntity is the value kept under an entity key.
type StoredEntity struct {
	Applies  *int64    `json:"applies"`
	Views    *int64    `json:"views"`
	LastSeen time.Time `json:"lastSeen"`
	TS       int64     `json:"ts"`
}

func (s StoredEntity) CreatedAt() time.Time {
	return time.UnixMilli(s.TS).UTC()
}

func EntityKey(id string) string {
	return EntityKeyPrefix + id
}

// EntityIDFromKey reports the entity id of a per-entity key. The history key is not an entity key.
func EntityIDFromKey(key string) (string, bool) {
	if key == HistoryKey || !strings.HasPrefix(key, EntityKeyPrefix) {
		return "", false
	}
	id := strings.TrimPrefix(key, EntityKeyPrefix)
	return id, id != ""
}

// ParseSnapshot decodes user supplied import data. Only the outer shape is checked.
func ParseSnapshot(data []byte) (Snapshot, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, fmt.Errorf("snapshot must be a JSON object")
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}
	if snapshot == nil {
		snapshot = Snapshot{}
	}
	return snapshot, nil
}
