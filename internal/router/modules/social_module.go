package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/inkwell/internal/interface/http"
)

// SocialModule serves likes and follows.
type SocialModule struct {
	Handler *handlers.SocialHandler
	Guard   Guard
}

func NewSocialModule(h *handlers.SocialHandler, guard Guard) *SocialModule {
	return &SocialModule{Handler: h, Guard: guard}
}

func (m *SocialModule) Register(rg *gin.RouterGroup) {
	auth := m.Guard.protected(rg)
	{
		auth.POST("/posts/:id/like", m.Handler.Like)
		auth.DELETE("/posts/:id/like", m.Handler.Unlike)
		auth.GET("/posts/:id/likes", m.Handler.ListLikes)

		auth.POST("/authors/:id/follow", m.Handler.Follow)
		auth.DELETE("/authors/:id/follow", m.Handler.Unfollow)
		auth.GET("/authors/:id/followers", m.Handler.ListFollowers)
		auth.GET("/following", m.Handler.ListFollowing)
	}
}
