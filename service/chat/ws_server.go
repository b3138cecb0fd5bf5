package chat

import (
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"syncchat/logger"
	"syncchat/tools/safe"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleWS runs the per-connection state machine:
// Connecting -> Authenticating -> Registered/Active -> Closed.
// The first frame must be authenticate; anything else, or a verify
// failure, rejects and closes before the connection ever reaches the
// registry. After registration the read loop forwards frames through
// the dispatcher until the transport dies or the client says goodbye.
func (s *Server) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[ws] upgrade failed: %v", err)
		return
	}

	client := NewClient(uuid.NewString(), ws, s.cfg.SendQueueSize)
	client.SetTimeouts(
		time.Duration(s.cfg.PingInterval)*time.Second,
		time.Duration(s.cfg.WriteTimeout)*time.Second,
	)
	client.SetOnClose(s.teardown)
	s.track(client)

	pongWait := time.Duration(s.cfg.PongTimeout) * time.Second
	ws.SetReadLimit(int64(s.cfg.MaxPayloadSize) + 4096)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	defer client.Close()

	// The write pump starts only after auth: until then this goroutine
	// is the sole writer, so rejections flush synchronously before the
	// deferred close.
	if !s.authenticateFirst(client, ws) {
		client.flushPending()
		return
	}

	safe.Go("ws-writer", client.WritePump)
	s.readLoop(client, ws, pongWait)
}

// authenticateFirst enforces the Authenticating state: one frame, type
// authenticate, inside the auth window. Never registers on failure.
func (s *Server) authenticateFirst(client *Client, ws *websocket.Conn) bool {
	_ = ws.SetReadDeadline(time.Now().Add(time.Duration(s.cfg.AuthTimeout) * time.Second))

	_, raw, err := ws.ReadMessage()
	if err != nil {
		logger.Infof("[ws] closed before auth conn=%s: %v", client.ConnID, err)
		return false
	}
	f, err := ParseFrame(raw)
	if err != nil || f.Type != FrameAuthenticate {
		_ = client.Enqueue(BuildAuthRejected("expected authenticate frame"))
		logger.Infof("[ws] first frame not authenticate conn=%s", client.ConnID)
		return false
	}

	h := s.disp.GetHandler(FrameAuthenticate)
	if h == nil {
		logger.Errorf("[ws] no auth handler registered")
		return false
	}
	if err := h.Handle(&ChatContext{S: s}, f, client); err != nil {
		// handler already queued the rejection frame
		logger.Infof("[ws] auth rejected conn=%s: %v", client.ConnID, err)
		return false
	}
	return client.UserID != ""
}

func (s *Server) readLoop(client *Client, ws *websocket.Conn, pongWait time.Duration) {
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))

	for {
		mt, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Debugf("[ws] peer closed conn=%s user=%s", client.ConnID, client.UserID)
			} else if ne, ok := err.(net.Error); ok && ne.Timeout() {
				logger.Infof("[ws] read timeout conn=%s user=%s", client.ConnID, client.UserID)
			} else {
				logger.Infof("[ws] read error conn=%s user=%s: %v", client.ConnID, client.UserID, err)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))

		f, perr := ParseFrame(raw)
		if perr != nil {
			// malformed input never kills the connection
			sample := raw
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Infof("[ws] dropping malformed frame conn=%s err=%v sample=%q", client.ConnID, perr, sample)
			continue
		}

		if f.Type == FrameDisconnect {
			logger.Debugf("[ws] client disconnect conn=%s user=%s", client.ConnID, client.UserID)
			return
		}

		if err := s.disp.Dispatch(&ChatContext{S: s}, f, client); err != nil {
			logger.Infof("[ws] handler error type=%s conn=%s: %v", f.Type, client.ConnID, err)
		}

		select {
		case <-client.Done():
			return
		default:
		}
	}
}
