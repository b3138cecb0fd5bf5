package middleware

import (
	"github.com/gin-gonic/gin"

	midsec "syncchat/middleware/security"
)

type RouteOpt struct {
	IsAuth bool
}

func POST(r gin.IRoutes, path string, handler gin.HandlerFunc, auth *midsec.Options, opt RouteOpt) {
	if opt.IsAuth {
		r.POST(path, midsec.Middleware(auth), handler)
		return
	}
	r.POST(path, handler)
}

func GET(r gin.IRoutes, path string, handler gin.HandlerFunc, auth *midsec.Options, opt RouteOpt) {
	if opt.IsAuth {
		r.GET(path, midsec.Middleware(auth), handler)
		return
	}
	r.GET(path, handler)
}

func PUT(r gin.IRoutes, path string, handler gin.HandlerFunc, auth *midsec.Options, opt RouteOpt) {
	if opt.IsAuth {
		r.PUT(path, midsec.Middleware(auth), handler)
		return
	}
	r.PUT(path, handler)
}
