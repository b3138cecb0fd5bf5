package message

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	midsec "syncchat/middleware/security"
	"syncchat/tools/errs"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// History returns the direct conversation between the caller and the
// user in the path. Query params: limit, before (unix ms, exclusive).
func (h *Handler) History(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.Query("limit"), 10, 64)
	before, _ := strconv.ParseInt(c.Query("before"), 10, 64)
	out, err := h.svc.History(c.Request.Context(), midsec.UserID(c), c.Param("id"), limit, before)
	if err != nil {
		c.JSON(errs.HTTPStatus(err), errs.AsCodeError(err))
		return
	}
	c.JSON(http.StatusOK, out)
}
