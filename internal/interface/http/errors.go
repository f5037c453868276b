package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/inkwell/internal/domain/apperr"
	"github.com/oksasatya/inkwell/internal/domain/policy"
	"github.com/oksasatya/inkwell/internal/interface/middleware"
	"github.com/oksasatya/inkwell/pkg/response"
	"github.com/oksasatya/inkwell/pkg/validation"
)

// writeServiceError maps service errors onto HTTP statuses. Anything not in
// the domain taxonomy is logged and reported as 500 without details.
func writeServiceError(c *gin.Context, logger *logrus.Logger, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		response.Error[any](c, http.StatusBadRequest, "validation failed", apperr.Details(err))
	case errors.Is(err, apperr.ErrInvalidToken):
		response.Error[any](c, http.StatusBadRequest, apperr.ErrInvalidToken.Error(), nil)
	case errors.Is(err, apperr.ErrNotFound):
		response.Error[any](c, http.StatusNotFound, "not found", err.Error())
	case errors.Is(err, apperr.ErrForbidden):
		response.Error[any](c, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, apperr.ErrConflict):
		response.Error[any](c, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, apperr.ErrUnauthenticated):
		response.Error[any](c, http.StatusUnauthorized, "unauthenticated", nil)
	default:
		if logger != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"path":       c.FullPath(),
				"request_id": c.GetString("request_id"),
			}).Error("unexpected service error")
		}
		response.Error[any](c, http.StatusInternalServerError, "internal server error", nil)
	}
}

func badPayload(c *gin.Context, err error) {
	response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
}

// actor returns the authenticated actor or writes 401 and returns nil.
func actor(c *gin.Context) policy.Actor {
	a := middleware.ActorFrom(c)
	if a == nil {
		response.Error[any](c, http.StatusUnauthorized, "unauthorized", nil)
	}
	return a
}
