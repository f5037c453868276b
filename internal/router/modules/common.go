package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/inkwell/internal/interface/middleware"
)

// Guard carries what every protected route group needs.
type Guard struct {
	Auth gin.HandlerFunc
	RDB  *redis.Client
}

// protected returns a group behind authentication and the default
// per-IP and per-user rate limits.
func (g Guard) protected(rg *gin.RouterGroup) *gin.RouterGroup {
	auth := rg.Group("/")
	auth.Use(g.Auth)
	auth.Use(
		middleware.RateLimit(g.RDB, 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(g.RDB, 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	return auth
}
