package handlers

import (
	"syncchat/logger"
	"syncchat/service/chat"
)

// joinChannel/leaveChannel only touch the gateway's local room table.
// Persisted membership lives in the store and the router re-resolves it
// on every send, so these are subscription hints, not authority.

type JoinChannelHandler struct{}

func NewJoinChannelHandler() chat.Handler { return &JoinChannelHandler{} }

func (h *JoinChannelHandler) Type() string { return chat.FrameJoinChannel }

func (h *JoinChannelHandler) Handle(ctx *chat.ChatContext, f *chat.Frame, c *chat.Client) error {
	payload, err := chat.ExtractChannelPayload(f)
	if err != nil || payload.ChannelID == "" {
		logger.Infof("[channel] bad join payload conn=%s", c.ConnID)
		return nil
	}
	ctx.S.Rooms().Join(payload.ChannelID, c.ConnID)
	return nil
}

type LeaveChannelHandler struct{}

func NewLeaveChannelHandler() chat.Handler { return &LeaveChannelHandler{} }

func (h *LeaveChannelHandler) Type() string { return chat.FrameLeaveChannel }

func (h *LeaveChannelHandler) Handle(ctx *chat.ChatContext, f *chat.Frame, c *chat.Client) error {
	payload, err := chat.ExtractChannelPayload(f)
	if err != nil || payload.ChannelID == "" {
		logger.Infof("[channel] bad leave payload conn=%s", c.ConnID)
		return nil
	}
	ctx.S.Rooms().Leave(payload.ChannelID, c.ConnID)
	return nil
}
