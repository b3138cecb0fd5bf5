package security

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"syncchat/tools/errs"
	toolsec "syncchat/tools/security"
)

// context keys set for handlers downstream of the middleware
const (
	CtxUserIDKey = "userId"
	CtxEmailKey  = "userEmail"
)

type Options struct {
	JWT        toolsec.Options
	CookieName string // defaults to "jwt"
}

func DefaultOptions(jwt toolsec.Options) *Options {
	return &Options{JWT: jwt, CookieName: "jwt"}
}

// Middleware authenticates REST requests. Accepts Authorization: Bearer
// or the session cookie, verifies the token, and puts the identity into
// the gin context.
func Middleware(opts *Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" && opts.CookieName != "" {
			if v, err := c.Cookie(opts.CookieName); err == nil {
				token = v
			}
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrUnauthenticated)
			return
		}

		claims, err := toolsec.Verify(opts.JWT, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrUnauthenticated)
			return
		}
		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxEmailKey, claims.Email)
		c.Next()
	}
}

// UserID reads the authenticated identity set by Middleware.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}

func bearerToken(c *gin.Context) string {
	authz := strings.TrimSpace(c.GetHeader("Authorization"))
	if authz == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return ""
	}
	return strings.TrimSpace(authz[len("bearer "):])
}
