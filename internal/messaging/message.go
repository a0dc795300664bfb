// Package messaging is the request/response channel between the relay bridge, the popup
// and the background process.
package messaging

import (
	"context"

	"github.com/maxaizer/job-insights/internal/domain/models"
)

type Type string

const (
	GetEntityData             Type = "GET_ENTITY_DATA"
	CacheEntityData           Type = "CACHE_ENTITY_DATA"
	GetHistory                Type = "GET_HISTORY"
	ExportData                Type = "EXPORT_DATA"
	ImportData                Type = "IMPORT_DATA"
	RequestInterceptorInstall Type = "REQUEST_INTERCEPTOR_INSTALL"
)

// Message is one request on the channel. Data is never omitted so that an empty import
// snapshot reaches the background process and wipes storage.
type Message struct {
	ID              string          `json:"id"`
	Type            Type            `json:"type"`
	EntityID        string          `json:"entityId,omitempty"`
	Applies         *int64          `json:"applies,omitempty"`
	Views           *int64          `json:"views,omitempty"`
	TargetContextID string          `json:"targetContextId,omitempty"`
	Data            models.Snapshot `json:"data"`
}

func (m Message) Counts() models.Counts {
	return models.Counts{Applies: m.Applies, Views: m.Views}
}

// Response always has a defined shape; handler failures are reported with OK=false.
type Response struct {
	OK       bool            `json:"ok"`
	Error    string          `json:"error,omitempty"`
	Counts   *models.Counts  `json:"counts,omitempty"`
	History  []models.Entity `json:"history,omitempty"`
	Snapshot models.Snapshot `json:"snapshot"`
}

func Failure(err error) Response {
	return Response{OK: false, Error: err.Error()}
}

// Handler serves messages on the background side.
type Handler interface {
	Handle(ctx context.Context, msg Message) Response
}

type HandlerFunc func(ctx context.Context, msg Message) Response

func (f HandlerFunc) Handle(ctx context.Context, msg Message) Response {
	return f(ctx, msg)
}

// Channel delivers a message and waits for its response. The error return is reserved
// for delivery failures.
type Channel interface {
	Request(ctx context.Context, msg Message) (Response, error)
}
