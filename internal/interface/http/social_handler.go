package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/inkwell/internal/application"
	"github.com/oksasatya/inkwell/pkg/response"
)

// SocialHandler serves likes and follows.
type SocialHandler struct {
	Likes   *application.LikeService
	Follows *application.FollowService
	Logger  *logrus.Logger
}

func NewSocialHandler(likes *application.LikeService, follows *application.FollowService, logger *logrus.Logger) *SocialHandler {
	return &SocialHandler{Likes: likes, Follows: follows, Logger: logger}
}

// Like POST /api/posts/:id/like
func (h *SocialHandler) Like(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	l, err := h.Likes.Like(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toLike(l), "post liked", nil)
}

// Unlike DELETE /api/posts/:id/like
func (h *SocialHandler) Unlike(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	if err := h.Likes.Unlike(c.Request.Context(), a, c.Param("id")); err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"unliked": true}, "post unliked", nil)
}

func (h *SocialHandler) ListLikes(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	likes, err := h.Likes.List(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, mapSlice(likes, toLike), "likes", nil)
}

// Follow POST /api/authors/:id/follow
func (h *SocialHandler) Follow(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	f, err := h.Follows.Follow(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toFollow(f), "author followed", nil)
}

// Unfollow DELETE /api/authors/:id/follow
func (h *SocialHandler) Unfollow(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	if err := h.Follows.Unfollow(c.Request.Context(), a, c.Param("id")); err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"unfollowed": true}, "author unfollowed", nil)
}

func (h *SocialHandler) ListFollowers(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	list, err := h.Follows.ListFollowers(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, mapSlice(list, toFollow), "followers", nil)
}

// ListFollowing GET /api/following
func (h *SocialHandler) ListFollowing(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	list, err := h.Follows.ListFollowed(c.Request.Context(), a)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, mapSlice(list, toFollow), "following", nil)
}
