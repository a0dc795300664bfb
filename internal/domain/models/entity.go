package models

import "time"

// Counts holds the two recovered fields of a job posting. Nil means unknown.
type Counts struct {
	Applies *int64 `json:"applies"`
	Views   *int64 `json:"views"`
}

func (c Counts) Empty() bool {
	return c.Applies == nil && c.Views == nil
}

// Entity is one job posting as last seen by the cache.
type Entity struct {
	ID       string    `json:"jobId"`
	Applies  *int64    `json:"applies"`
	Views    *int64    `json:"views"`
	LastSeen time.Time `json:"lastSeen"`
}

func NewEntity(id string, counts Counts, lastSeen time.Time) Entity {
	return Entity{ID: id, Applies: counts.Applies, Views: counts.Views, LastSeen: lastSeen}
}

func (e Entity) Counts() Counts {
	return Counts{Applies: e.Applies, Views: e.Views}
}

const SourcePageIntercept = "page-intercept"

// ExtractionEvent crosses from the page interceptor to the relay bridge. It is never persisted.
type ExtractionEvent struct {
	EntityID string `json:"jobId"`
	Applies  *int64 `json:"applies"`
	Views    *int64 `json:"views"`
	Source   string `json:"source"`
}

func (e ExtractionEvent) Counts() Counts {
	return Counts{Applies: e.Applies, Views: e.Views}
}
