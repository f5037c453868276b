package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/inkwell/internal/domain/apperr"
	"github.com/oksasatya/inkwell/internal/domain/policy"
	"github.com/oksasatya/inkwell/pkg/helpers"
	"github.com/oksasatya/inkwell/pkg/response"
)

const (
	CtxUserIDKey = "userID"
	CtxRoleKey   = "role"
	CtxActorKey  = "actor"
)

// Sessions checks login sessions and resolves the acting user.
// application.IdentityService implements it.
type Sessions interface {
	CheckSession(ctx context.Context, userID, sid string) error
	ResolveActor(ctx context.Context, userID string) (policy.Actor, error)
}

// Auth validates the access token (cookie or Bearer header), ensures the
// session is still live and stores the resolved actor in the Gin context.
func Auth(sessions Sessions, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := accessToken(c)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "missing access token", nil)
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "invalid access token", err.Error())
			return
		}

		ctx := c.Request.Context()
		if err := sessions.CheckSession(ctx, claims.UserID, claims.SessionID); err != nil {
			response.Abort(c, http.StatusUnauthorized, "session not found", nil)
			return
		}
		actor, err := sessions.ResolveActor(ctx, claims.UserID)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, apperr.ErrUnauthenticated) || errors.Is(err, apperr.ErrNotFound) {
				status = http.StatusUnauthorized
			} else if errors.Is(err, apperr.ErrForbidden) {
				status = http.StatusForbidden
			}
			response.Abort(c, status, "cannot resolve user", nil)
			return
		}

		c.Set(CtxUserIDKey, actor.UserID())
		c.Set(CtxRoleKey, string(actor.Role()))
		c.Set(CtxActorKey, actor)
		c.Next()
	}
}

func accessToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if t, err := c.Cookie(helpers.AccessCookie); err == nil {
		return t
	}
	return ""
}

// ActorFrom returns the actor stored by Auth, or nil.
func ActorFrom(c *gin.Context) policy.Actor {
	v, ok := c.Get(CtxActorKey)
	if !ok {
		return nil
	}
	a, _ := v.(policy.Actor)
	return a
}

// RequireRole rejects actors whose role is not listed.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(CtxRoleKey)
		if role == "" {
			response.Abort(c, http.StatusUnauthorized, "user role not found", nil)
			return
		}
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		response.Abort(c, http.StatusForbidden, "insufficient permissions", nil)
	}
}
