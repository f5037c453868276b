package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/inkwell/internal/interface/http"
)

// ContentModule serves posts, their comments and tags.
type ContentModule struct {
	Posts    *handlers.PostHandler
	Comments *handlers.CommentHandler
	Tags     *handlers.TagHandler
	Guard    Guard
}

func NewContentModule(posts *handlers.PostHandler, comments *handlers.CommentHandler, tags *handlers.TagHandler, guard Guard) *ContentModule {
	return &ContentModule{Posts: posts, Comments: comments, Tags: tags, Guard: guard}
}

func (m *ContentModule) Register(rg *gin.RouterGroup) {
	auth := m.Guard.protected(rg)
	{
		auth.GET("/posts", m.Posts.List)
		auth.POST("/posts", m.Posts.Create)
		auth.GET("/posts/discover", m.Posts.Discover)
		auth.GET("/posts/:id", m.Posts.Get)
		auth.PUT("/posts/:id", m.Posts.Update)
		auth.DELETE("/posts/:id", m.Posts.Delete)

		auth.GET("/posts/:id/comments", m.Comments.List)
		auth.POST("/posts/:id/comments", m.Comments.Create)
		auth.GET("/posts/:id/comments/:comment_id", m.Comments.Get)
		auth.PUT("/posts/:id/comments/:comment_id", m.Comments.Update)
		auth.DELETE("/posts/:id/comments/:comment_id", m.Comments.Delete)

		auth.GET("/tags", m.Tags.List)
		auth.POST("/tags", m.Tags.Create)
		auth.GET("/tags/:id", m.Tags.Get)
		auth.PUT("/tags/:id", m.Tags.Update)
		auth.DELETE("/tags/:id", m.Tags.Delete)
	}
}
