package contact

import (
	"net/http"

	"github.com/gin-gonic/gin"

	midsec "syncchat/middleware/security"
	"syncchat/module/chat/message"
	"syncchat/module/user"
	"syncchat/tools/errs"
)

// Handler serves the contact sidebar: the full directory and the subset
// the caller already has a conversation with.
type Handler struct {
	users *user.Service
	msgs  *message.Service
}

func NewHandler(users *user.Service, msgs *message.Service) *Handler {
	return &Handler{users: users, msgs: msgs}
}

func (h *Handler) ListContacts(c *gin.Context) {
	out, err := h.users.List(c.Request.Context(), midsec.UserID(c))
	if err != nil {
		c.JSON(errs.HTTPStatus(err), errs.AsCodeError(err))
		return
	}
	c.JSON(http.StatusOK, out)
}

// Search finds contacts by name or email fragment (?q=).
func (h *Handler) Search(c *gin.Context) {
	out, err := h.users.Search(c.Request.Context(), c.Query("q"), midsec.UserID(c))
	if err != nil {
		c.JSON(errs.HTTPStatus(err), errs.AsCodeError(err))
		return
	}
	c.JSON(http.StatusOK, out)
}

// ListChatPartners returns users the caller has exchanged direct
// messages with, most recent conversation first.
func (h *Handler) ListChatPartners(c *gin.Context) {
	me := midsec.UserID(c)
	partners, err := h.msgs.DMPartners(c.Request.Context(), me)
	if err != nil {
		c.JSON(errs.HTTPStatus(err), errs.AsCodeError(err))
		return
	}
	out, err := h.users.GetMany(c.Request.Context(), partners)
	if err != nil {
		c.JSON(errs.HTTPStatus(err), errs.AsCodeError(err))
		return
	}
	c.JSON(http.StatusOK, out)
}
