package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/inkwell/internal/interface/http"
	"github.com/oksasatya/inkwell/internal/interface/middleware"
)

// ProfileModule serves the caller's profile and the author/reader directories.
type ProfileModule struct {
	Handler *handlers.ProfileHandler
	Guard   Guard
}

func NewProfileModule(h *handlers.ProfileHandler, guard Guard) *ProfileModule {
	return &ProfileModule{Handler: h, Guard: guard}
}

func (m *ProfileModule) Register(rg *gin.RouterGroup) {
	auth := m.Guard.protected(rg)
	{
		auth.GET("/profile", m.Handler.GetProfile)
		auth.PUT("/profile", m.Handler.UpdateProfile)
		auth.POST("/profile/avatar", m.Handler.UploadAvatar)

		auth.GET("/authors", middleware.RequireRole("author"), m.Handler.ListAuthors)
		auth.GET("/authors/:id", m.Handler.GetAuthor)
		auth.PUT("/authors/:id", m.Handler.UpdateAuthor)
		auth.DELETE("/authors/:id", m.Handler.DeleteAuthor)
		auth.GET("/readers", middleware.RequireRole("reader"), m.Handler.ListReaders)
		auth.GET("/readers/:id", m.Handler.GetReader)
		auth.DELETE("/readers/:id", m.Handler.DeleteReader)
	}
}
