package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/inkwell/internal/application"
	"github.com/oksasatya/inkwell/internal/domain/entity"
	"github.com/oksasatya/inkwell/pkg/response"
)

type TagHandler struct {
	Tags   *application.TagService
	Logger *logrus.Logger
}

func NewTagHandler(tags *application.TagService, logger *logrus.Logger) *TagHandler {
	return &TagHandler{Tags: tags, Logger: logger}
}

type createTagRequest struct {
	Name string `json:"name" binding:"required,max=50"`
}

func tagOut(t *entity.Tag) tagResponse { return toTag(*t) }

func (h *TagHandler) List(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	tags, err := h.Tags.List(c.Request.Context(), a)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, mapSlice(tags, tagOut), "tags", nil)
}

func (h *TagHandler) Create(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	var req createTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	t, err := h.Tags.Create(c.Request.Context(), a, req.Name)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, tagOut(t), "tag created", nil)
}

func (h *TagHandler) Get(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	t, err := h.Tags.Get(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, tagOut(t), "tag", nil)
}

// Update PUT /api/tags/:id renames a tag.
func (h *TagHandler) Update(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	var req createTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	t, err := h.Tags.Update(c.Request.Context(), a, c.Param("id"), req.Name)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, tagOut(t), "tag updated", nil)
}

func (h *TagHandler) Delete(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	if err := h.Tags.Delete(c.Request.Context(), a, c.Param("id")); err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "tag deleted", nil)
}
