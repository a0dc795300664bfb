package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// NATSChannel carries messages over NATS request/reply. Serve handles messages of one
// subscription sequentially, which keeps the background side single threaded.
type NATSChannel struct {
	conn    *nats.Conn
	subject string
	sub     *nats.Subscription
}

func NewNATSChannel(conn *nats.Conn, subject string) *NATSChannel {
	return &NATSChannel{conn: conn, subject: subject}
}

func (c *NATSChannel) Serve(handler Handler) error {
	sub, err := c.conn.Subscribe(c.subject, func(m *nats.Msg) {
		var msg Message
		resp := Response{}
		if err := json.Unmarshal(m.Data, &msg); err != nil {
			resp = Failure(fmt.Errorf("malformed message: %w", err))
		} else {
			resp = handler.Handle(context.Background(), msg)
		}

		data, err := json.Marshal(resp)
		if err != nil {
			log.Errorf("failed to encode response to %s: %v", msg.Type, err)
			return
		}
		if err = m.Respond(data); err != nil {
			log.Errorf("failed to respond to %s: %v", msg.Type, err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", c.subject, err)
	}
	c.sub = sub
	return nil
}

func (c *NATSChannel) Request(ctx context.Context, msg Message) (Response, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return Response{}, fmt.Errorf("failed to encode %s: %w", msg.Type, err)
	}

	reply, err := c.conn.RequestWithContext(ctx, c.subject, data)
	if err != nil {
		return Response{}, fmt.Errorf("%s request failed: %w", msg.Type, err)
	}

	var resp Response
	if err = json.Unmarshal(reply.Data, &resp); err != nil {
		return Response{}, fmt.Errorf("malformed %s response: %w", msg.Type, err)
	}
	return resp, nil
}

func (c *NATSChannel) Close() error {
	if c.sub == nil {
		return nil
	}
	return c.sub.Unsubscribe()
}
