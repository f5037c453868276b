package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/inkwell/internal/application"
	"github.com/oksasatya/inkwell/pkg/response"
)

const maxAvatarBytes = 5 << 20

type ProfileHandler struct {
	Identity *application.IdentityService
	Logger   *logrus.Logger
}

func NewProfileHandler(identity *application.IdentityService, logger *logrus.Logger) *ProfileHandler {
	return &ProfileHandler{Identity: identity, Logger: logger}
}

type updateProfileRequest struct {
	Username *string `json:"username" binding:"omitempty,max=150"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Bio      *string `json:"bio"`
}

type updateAuthorRequest struct {
	Bio string `json:"bio"`
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	p, err := h.Identity.GetProfile(c.Request.Context(), a.UserID())
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toProfile(p), "profile", nil)
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	p, err := h.Identity.UpdateProfile(c.Request.Context(), a, application.UpdateProfileInput{
		Username: req.Username,
		Email:    req.Email,
		Bio:      req.Bio,
	})
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toProfile(p), "profile updated", nil)
}

// UploadAvatar POST /api/profile/avatar (multipart field "avatar")
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	fh, err := c.FormFile("avatar")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"avatar": "is required"})
		return
	}
	if fh.Size > maxAvatarBytes {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"avatar": "must be at most 5MB"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	defer func() { _ = f.Close() }()

	url, err := h.Identity.UploadAvatar(c.Request.Context(), a.UserID(), f, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"avatar_url": url}, "avatar uploaded", nil)
}

func (h *ProfileHandler) ListAuthors(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	authors, err := h.Identity.ListAuthors(c.Request.Context(), a)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, mapSlice(authors, toAuthor), "authors", nil)
}

func (h *ProfileHandler) GetAuthor(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	v, err := h.Identity.GetAuthor(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toAuthor(v), "author", nil)
}

func (h *ProfileHandler) UpdateAuthor(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	var req updateAuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	v, err := h.Identity.UpdateAuthor(c.Request.Context(), a, c.Param("id"), req.Bio)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toAuthor(v), "author updated", nil)
}

// DeleteAuthor DELETE /api/authors/:id drops the profile, its posts and its
// followers. The account itself stays.
func (h *ProfileHandler) DeleteAuthor(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	if err := h.Identity.DeleteAuthor(c.Request.Context(), a, c.Param("id")); err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "author profile deleted", nil)
}

func (h *ProfileHandler) ListReaders(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	readers, err := h.Identity.ListReaders(c.Request.Context(), a)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, mapSlice(readers, toReader), "readers", nil)
}

func (h *ProfileHandler) GetReader(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	v, err := h.Identity.GetReader(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toReader(v), "reader", nil)
}

func (h *ProfileHandler) DeleteReader(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	if err := h.Identity.DeleteReader(c.Request.Context(), a, c.Param("id")); err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "reader profile deleted", nil)
}
