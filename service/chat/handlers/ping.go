package handlers

import (
	"syncchat/service/chat"
)

// Application-level ping for clients that cannot send ws control frames
// (browsers). The read deadline is refreshed by the read loop itself;
// this just answers.

type PingHandler struct{}

func NewPingHandler() chat.Handler { return &PingHandler{} }

func (h *PingHandler) Type() string { return chat.FramePing }

func (h *PingHandler) Handle(_ *chat.ChatContext, _ *chat.Frame, c *chat.Client) error {
	return c.Enqueue(chat.BuildPong())
}
