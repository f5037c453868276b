package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/inkwell/internal/application"
	"github.com/oksasatya/inkwell/pkg/response"
)

type CommentHandler struct {
	Comments *application.CommentService
	Logger   *logrus.Logger
}

func NewCommentHandler(comments *application.CommentService, logger *logrus.Logger) *CommentHandler {
	return &CommentHandler{Comments: comments, Logger: logger}
}

type commentRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *CommentHandler) List(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	list, err := h.Comments.List(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, mapSlice(list, toComment), "comments", nil)
}

func (h *CommentHandler) Create(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	cm, err := h.Comments.Create(c.Request.Context(), a, c.Param("id"), req.Content)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toComment(cm), "comment created", nil)
}

func (h *CommentHandler) Get(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	cm, err := h.Comments.Get(c.Request.Context(), a, c.Param("id"), c.Param("comment_id"))
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toComment(cm), "comment", nil)
}

func (h *CommentHandler) Update(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	cm, err := h.Comments.Update(c.Request.Context(), a, c.Param("id"), c.Param("comment_id"), req.Content)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toComment(cm), "comment updated", nil)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	if err := h.Comments.Delete(c.Request.Context(), a, c.Param("id"), c.Param("comment_id")); err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "comment deleted", nil)
}
