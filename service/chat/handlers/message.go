package handlers

import (
	"context"
	"time"

	"syncchat/logger"
	"syncchat/service/chat"
	"syncchat/tools/errs"
)

type MessageHandler struct{}

func NewMessageHandler() chat.Handler { return &MessageHandler{} }

func (h *MessageHandler) Type() string { return chat.FrameSendMessage }

// Handle forwards a send request to the router. Route failures come
// back to this connection as a deliveryFailed ack and never close it;
// success is acked with the persisted message so the sender's UI can
// render server id and timestamp.
func (h *MessageHandler) Handle(ctx *chat.ChatContext, f *chat.Frame, c *chat.Client) error {
	payload, err := chat.ExtractSendPayload(f)
	if err != nil {
		logger.Infof("[message] bad payload conn=%s: %v", c.ConnID, err)
		_ = c.Enqueue(chat.BuildDeliveryFailed(f.Ref, errs.ErrMalformedFrame.Code, errs.ErrMalformedFrame.Msg))
		return nil
	}

	rctx, cancel := context.WithTimeout(c.Context(), 15*time.Second)
	defer cancel()

	msg, err := ctx.S.Router().Route(rctx, &chat.SendRequest{
		SenderID:      c.UserID,
		RecipientKind: payload.RecipientKind,
		RecipientID:   payload.RecipientID,
		Content:       payload.Content,
		AttachmentURL: payload.AttachmentURL,
		ClientMsgID:   payload.ClientMsgID,
	})
	if err != nil {
		code := errs.Code(err)
		if code == 0 {
			code = errs.ErrPersistenceFailure.Code
		}
		logger.Infof("[message] route failed user=%s conn=%s: %v", c.UserID, c.ConnID, err)
		_ = c.Enqueue(chat.BuildDeliveryFailed(f.Ref, code, err.Error()))
		return nil
	}

	_ = c.Enqueue(chat.BuildMessageAck(f.Ref, msg))
	return nil
}
