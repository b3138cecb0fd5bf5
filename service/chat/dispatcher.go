package chat

import (
	"github.com/pkg/errors"
)

type Handler interface {
	Type() string
	Handle(ctx *ChatContext, f *Frame, c *Client) error
}

type ChatContext struct {
	S *Server
}

type Dispatcher struct {
	handlers map[string]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

func (d *Dispatcher) Register(h Handler) { d.handlers[h.Type()] = h }

func (d *Dispatcher) Dispatch(ctx *ChatContext, f *Frame, c *Client) error {
	h, ok := d.handlers[f.Type]
	if !ok {
		return errors.Errorf("no handler for type=%q", f.Type)
	}
	return h.Handle(ctx, f, c)
}

func (d *Dispatcher) GetHandler(typ string) Handler {
	return d.handlers[typ]
}
