package user

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	midsec "syncchat/middleware/security"
	"syncchat/tools/errs"
	toolsec "syncchat/tools/security"
)

type Handler struct {
	svc     *Service
	jwtOpts toolsec.Options
	secure  bool // Secure flag on the session cookie
}

func NewHandler(svc *Service, jwtOpts toolsec.Options, secureCookie bool) *Handler {
	return &Handler{svc: svc, jwtOpts: jwtOpts, secure: secureCookie}
}

type signupReq struct {
	Email    string `json:"email" binding:"required"`
	FullName string `json:"fullName" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Signup(c *gin.Context) {
	var req signupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest)
		return
	}
	u, err := h.svc.Signup(c.Request.Context(), req.Email, req.FullName, req.Password)
	if err != nil {
		c.JSON(errs.HTTPStatus(err), errs.AsCodeError(err))
		return
	}
	h.issueSession(c, u.UserID, u.Email)
	c.JSON(http.StatusCreated, u)
}

func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest)
		return
	}
	u, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(errs.HTTPStatus(err), errs.AsCodeError(err))
		return
	}
	h.issueSession(c, u.UserID, u.Email)
	c.JSON(http.StatusOK, u)
}

func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie("jwt", "", -1, "/", "", h.secure, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Check returns the authenticated user's profile; the frontend calls it
// on load to restore a session from the cookie.
func (h *Handler) Check(c *gin.Context) {
	u, err := h.svc.GetByID(c.Request.Context(), midsec.UserID(c))
	if err != nil {
		c.JSON(errs.HTTPStatus(err), errs.AsCodeError(err))
		return
	}
	c.JSON(http.StatusOK, u)
}

type updateProfileReq struct {
	AvatarURL string `json:"avatarUrl" binding:"required"`
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req updateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest)
		return
	}
	u, err := h.svc.UpdateAvatar(c.Request.Context(), midsec.UserID(c), req.AvatarURL)
	if err != nil {
		c.JSON(errs.HTTPStatus(err), errs.AsCodeError(err))
		return
	}
	c.JSON(http.StatusOK, u)
}

// issueSession writes both the cookie (browser clients) and a token
// header (websocket clients pass it in the authenticate frame).
func (h *Handler) issueSession(c *gin.Context, userID, email string) {
	token, exp, err := toolsec.Generate(h.jwtOpts, userID, email)
	if err != nil {
		return
	}
	maxAge := int(time.Until(exp).Seconds())
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie("jwt", token, maxAge, "/", "", h.secure, true)
	c.Header("X-Session-Token", token)
}
