package channel

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	midsec "syncchat/middleware/security"
	"syncchat/module/chat/message"
	"syncchat/tools/errs"
)

type Handler struct {
	svc  *Service
	msgs *message.Service
}

func NewHandler(svc *Service, msgs *message.Service) *Handler {
	return &Handler{svc: svc, msgs: msgs}
}

type createReq struct {
	Name      string   `json:"name" binding:"required"`
	MemberIDs []string `json:"memberIds"`
}

func (h *Handler) Create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest)
		return
	}
	ch, err := h.svc.Create(c.Request.Context(), midsec.UserID(c), req.Name, req.MemberIDs)
	if err != nil {
		c.JSON(errs.HTTPStatus(err), errs.AsCodeError(err))
		return
	}
	c.JSON(http.StatusCreated, ch)
}

func (h *Handler) List(c *gin.Context) {
	out, err := h.svc.ListForUser(c.Request.Context(), midsec.UserID(c))
	if err != nil {
		c.JSON(errs.HTTPStatus(err), errs.AsCodeError(err))
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Get(c *gin.Context) {
	ch, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(errs.HTTPStatus(err), errs.AsCodeError(err))
		return
	}
	c.JSON(http.StatusOK, ch)
}

type addMembersReq struct {
	MemberIDs []string `json:"memberIds" binding:"required"`
}

func (h *Handler) AddMembers(c *gin.Context) {
	var req addMembersReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest)
		return
	}
	ch, err := h.svc.AddMembers(c.Request.Context(), c.Param("id"), req.MemberIDs)
	if err != nil {
		c.JSON(errs.HTTPStatus(err), errs.AsCodeError(err))
		return
	}
	c.JSON(http.StatusOK, ch)
}

func (h *Handler) Leave(c *gin.Context) {
	ch, err := h.svc.RemoveMember(c.Request.Context(), c.Param("id"), midsec.UserID(c))
	if err != nil {
		c.JSON(errs.HTTPStatus(err), errs.AsCodeError(err))
		return
	}
	c.JSON(http.StatusOK, ch)
}

// Messages returns channel history. Query params: limit, before
// (exclusive unix-ms bound for paging backwards).
func (h *Handler) Messages(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.Query("limit"), 10, 64)
	before, _ := strconv.ParseInt(c.Query("before"), 10, 64)
	out, err := h.msgs.ChannelHistory(c.Request.Context(), c.Param("id"), limit, before)
	if err != nil {
		c.JSON(errs.HTTPStatus(err), errs.AsCodeError(err))
		return
	}
	c.JSON(http.StatusOK, out)
}
