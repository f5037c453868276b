package router

import "github.com/gin-gonic/gin"

// Module is a feature area (auth, profiles, content, social) that adds its
// routes under /api.
type Module interface {
	Register(rg *gin.RouterGroup)
}
