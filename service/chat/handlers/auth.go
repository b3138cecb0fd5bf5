package handlers

import (
	"context"
	"time"

	"syncchat/logger"
	"syncchat/metrics"
	"syncchat/service/chat"
	"syncchat/tools/errs"
)

type AuthHandler struct{}

func NewAuthHandler() chat.Handler { return &AuthHandler{} }

func (h *AuthHandler) Type() string { return chat.FrameAuthenticate }

// Handle verifies the presented token and registers the connection.
// A verify failure is terminal for the connection: the gateway closes
// it and it never touches the registry.
func (h *AuthHandler) Handle(ctx *chat.ChatContext, f *chat.Frame, c *chat.Client) error {
	payload, err := chat.ExtractAuthPayload(f)
	if err != nil || payload.Token == "" {
		metrics.AuthFailures.Inc()
		_ = c.Enqueue(chat.BuildAuthRejected("missing token"))
		return errs.ErrUnauthenticated.WithDetail("missing token")
	}

	vctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()
	identity, err := ctx.S.Auth().Verify(vctx, payload.Token)
	if err != nil {
		metrics.AuthFailures.Inc()
		_ = c.Enqueue(chat.BuildAuthRejected("invalid token"))
		return errs.ErrUnauthenticated.WithDetail(err.Error())
	}

	ctx.S.BindIdentity(c, identity)
	metrics.AuthSuccess.Inc()

	cfg := ctx.S.WSConfig()
	_ = c.Enqueue(chat.BuildAuthAck(true, identity, c.ConnID,
		int64(cfg.PingInterval)*1000, int64(cfg.PongTimeout)*1000))
	logger.Infof("[auth] registered user=%s conn=%s", identity, c.ConnID)
	return nil
}
