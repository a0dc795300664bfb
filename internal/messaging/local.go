package messaging

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var ErrChannelClosed = errors.New("channel closed")

type envelope struct {
	ctx   context.Context
	msg   Message
	reply chan Response
}

// LocalChannel serves an in-process handler from a single goroutine, one message at a time,
// in the order they were sent.
type LocalChannel struct {
	handler  Handler
	requests chan envelope
	quit     chan struct{}
	done     chan struct{}
	once     sync.Once
}

func NewLocalChannel(handler Handler) *LocalChannel {
	c := &LocalChannel{
		handler:  handler,
		requests: make(chan envelope),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go c.run()
	return c
}

func (c *LocalChannel) Request(ctx context.Context, msg Message) (Response, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	e := envelope{ctx: ctx, msg: msg, reply: make(chan Response, 1)}
	select {
	case c.requests <- e:
	case <-ctx.Done():
		return Response{}, ctx.Err()
	case <-c.quit:
		return Response{}, ErrChannelClosed
	}

	select {
	case resp := <-e.reply:
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// Close stops serving. Requests already being handled complete.
func (c *LocalChannel) Close() {
	c.once.Do(func() { close(c.quit) })
	<-c.done
}

func (c *LocalChannel) run() {
	defer close(c.done)
	for {
		select {
		case <-c.quit:
			return
		case e := <-c.requests:
			e.reply <- c.handler.Handle(e.ctx, e.msg)
		}
	}
}
