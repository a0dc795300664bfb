package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/maxaizer/job-insights/internal/domain/models"
	"github.com/maxaizer/job-insights/internal/metrics"
)

// RejectedError is returned when the background process answered with ok=false.
type RejectedError struct {
	Type   Type
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Type, e.Reason)
}

// Client offers typed calls over a Channel.
type Client struct {
	channel Channel
}

func NewClient(channel Channel) *Client {
	return &Client{channel: channel}
}

func (c *Client) GetEntityData(ctx context.Context, entityID string) (*models.Counts, error) {
	resp, err := c.request(ctx, Message{Type: GetEntityData, EntityID: entityID})
	if err != nil {
		return nil, err
	}
	return resp.Counts, nil
}

func (c *Client) CacheEntityData(ctx context.Context, entityID string, counts models.Counts) error {
	_, err := c.request(ctx, Message{Type: CacheEntityData, EntityID: entityID, Applies: counts.Applies, Views: counts.Views})
	return err
}

func (c *Client) History(ctx context.Context) ([]models.Entity, error) {
	resp, err := c.request(ctx, Message{Type: GetHistory})
	if err != nil {
		return nil, err
	}
	if resp.History == nil {
		return []models.Entity{}, nil
	}
	return resp.History, nil
}

func (c *Client) Export(ctx context.Context) (models.Snapshot, error) {
	resp, err := c.request(ctx, Message{Type: ExportData})
	if err != nil {
		return nil, err
	}
	return resp.Snapshot, nil
}

func (c *Client) Import(ctx context.Context, snapshot models.Snapshot) error {
	_, err := c.request(ctx, Message{Type: ImportData, Data: snapshot})
	return err
}

func (c *Client) RequestInterceptorInstall(ctx context.Context, targetContextID string) error {
	_, err := c.request(ctx, Message{Type: RequestInterceptorInstall, TargetContextID: targetContextID})
	return err
}

func (c *Client) request(ctx context.Context, msg Message) (Response, error) {
	start := time.Now()
	resp, err := c.channel.Request(ctx, msg)
	metrics.MessageDuration.WithLabelValues(string(msg.Type)).Observe(time.Since(start).Seconds())

	if err != nil {
		return Response{}, err
	}
	if !resp.OK {
		return resp, &RejectedError{Type: msg.Type, Reason: resp.Error}
	}
	return resp, nil
}
