package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/inkwell/internal/interface/http"
	"github.com/oksasatya/inkwell/internal/interface/middleware"
)

// AuthModule wires registration, sessions and password reset.
// Public: POST /register, /login, /refresh, /password-reset, /password-reset/:uidb64/:token
// Protected: POST /logout
type AuthModule struct {
	Handler *handlers.AuthHandler
	Guard   Guard
	// Allow bypasses the public limiters, e.g. for private networks.
	Allow middleware.AllowFunc
}

func NewAuthModule(h *handlers.AuthHandler, guard Guard, allow middleware.AllowFunc) *AuthModule {
	return &AuthModule{Handler: h, Guard: guard, Allow: allow}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rdb := m.Guard.RDB
	registerLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIPAndPath(), m.Allow)
	loginLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIP(), m.Allow)
	refreshLimiter := middleware.RateLimit(rdb, 60, time.Minute, middleware.KeyByIP(), m.Allow)
	resetInitLimiter := middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByIPAndPath(), m.Allow)
	resetConfirmLimiter := middleware.RateLimit(rdb, 30, time.Minute, middleware.KeyByIPAndPath(), m.Allow)

	rg.POST("/register", registerLimiter, m.Handler.Register)
	rg.POST("/login", loginLimiter, m.Handler.Login)
	rg.POST("/refresh", refreshLimiter, m.Handler.Refresh)
	rg.POST("/password-reset", resetInitLimiter, m.Handler.RequestReset)
	rg.POST("/password-reset/:uidb64/:token", resetConfirmLimiter, m.Handler.ConfirmReset)

	auth := m.Guard.protected(rg)
	{
		auth.POST("/logout", m.Handler.Logout)
	}
}
