package router

import (
	"github.com/oksasatya/inkwell/internal/container"
	handlers "github.com/oksasatya/inkwell/internal/interface/http"
	"github.com/oksasatya/inkwell/internal/interface/middleware"
	"github.com/oksasatya/inkwell/internal/router/modules"
	"github.com/oksasatya/inkwell/pkg/validation"
)

// InitModules builds handlers over svc and registers every module with the
// router registry. It should be called once during application startup.
func InitModules(r *Registry, svc *container.Services) {
	validation.Init()

	cfg := container.GetConfig()
	logger := container.GetLogger()
	rdb := container.GetRedis()

	guard := modules.Guard{
		Auth: middleware.Auth(svc.Identity, container.GetJWT()),
		RDB:  rdb,
	}
	var allow middleware.AllowFunc
	if cfg.Env == "development" {
		allow = middleware.AllowPrivateIP()
	}

	r.Add(modules.NewAuthModule(
		handlers.NewAuthHandler(svc.Identity, svc.Reset, logger, cfg.CookieDomain, cfg.CookieSecure),
		guard,
		allow,
	))
	r.Add(modules.NewProfileModule(handlers.NewProfileHandler(svc.Identity, logger), guard))
	r.Add(modules.NewContentModule(
		handlers.NewPostHandler(svc.Posts, logger),
		handlers.NewCommentHandler(svc.Comments, logger),
		handlers.NewTagHandler(svc.Tags, logger),
		guard,
	))
	r.Add(modules.NewSocialModule(handlers.NewSocialHandler(svc.Likes, svc.Follows, logger), guard))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(rdb))
	}
}
