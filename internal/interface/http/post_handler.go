package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/inkwell/internal/application"
	"github.com/oksasatya/inkwell/internal/domain/entity"
	"github.com/oksasatya/inkwell/internal/domain/visibility"
	"github.com/oksasatya/inkwell/pkg/response"
)

type PostHandler struct {
	Posts  *application.PostService
	Logger *logrus.Logger
}

func NewPostHandler(posts *application.PostService, logger *logrus.Logger) *PostHandler {
	return &PostHandler{Posts: posts, Logger: logger}
}

type createPostRequest struct {
	Title   string   `json:"title" binding:"required,max=255"`
	Content string   `json:"content" binding:"required"`
	Status  string   `json:"status" binding:"omitempty,poststatus"`
	Tags    []string `json:"tags" binding:"omitempty,dive,required,max=50"`
}

type updatePostRequest struct {
	Title   *string   `json:"title" binding:"omitempty,max=255"`
	Content *string   `json:"content"`
	Status  *string   `json:"status" binding:"omitempty,poststatus"`
	Tags    *[]string `json:"tags" binding:"omitempty,dive,required,max=50"`
}

type listPostsQuery struct {
	Tags      []string `form:"tags"`
	StartDate string   `form:"start_date"`
	EndDate   string   `form:"end_date"`
	Search    string   `form:"search"`
	Page      *int     `form:"page" binding:"omitempty,min=1"`
}

// List GET /api/posts?tags=a,b&start_date=&end_date=&search=&page=
func (h *PostHandler) List(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	var q listPostsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badPayload(c, err)
		return
	}
	query, err := q.toQuery()
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	page, err := h.Posts.List(c.Request.Context(), a, query)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, visibility.MapPage(page, toPost), "posts", nil)
}

func (q listPostsQuery) toQuery() (visibility.Query, error) {
	from, err := visibility.ParseFrom("start_date", q.StartDate)
	if err != nil {
		return visibility.Query{}, err
	}
	to, err := visibility.ParseTo("end_date", q.EndDate)
	if err != nil {
		return visibility.Query{}, err
	}
	out := visibility.Query{From: from, To: to, Search: q.Search}
	if q.Page != nil {
		out.Page = *q.Page
	}
	for _, raw := range q.Tags {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				out.TagIDs = append(out.TagIDs, id)
			}
		}
	}
	return out, nil
}

func (h *PostHandler) Create(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	p, err := h.Posts.Create(c.Request.Context(), a, application.CreatePostInput{
		Title:   req.Title,
		Content: req.Content,
		Status:  entity.PostStatus(req.Status),
		Tags:    req.Tags,
	})
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toPost(p), "post created", nil)
}

func (h *PostHandler) Get(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	p, err := h.Posts.Get(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toPost(p), "post", nil)
}

func (h *PostHandler) Update(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	in := application.UpdatePostInput{Title: req.Title, Content: req.Content, Tags: req.Tags}
	if req.Status != nil {
		st := entity.PostStatus(*req.Status)
		in.Status = &st
	}
	p, err := h.Posts.Update(c.Request.Context(), a, c.Param("id"), in)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toPost(p), "post updated", nil)
}

func (h *PostHandler) Delete(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	if err := h.Posts.Delete(c.Request.Context(), a, c.Param("id")); err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "post deleted", nil)
}

// Discover GET /api/posts/discover?q=&size=
func (h *PostHandler) Discover(c *gin.Context) {
	a := actor(c)
	if a == nil {
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	posts, err := h.Posts.Discover(c.Request.Context(), a, c.Query("q"), size)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, mapSlice(posts, toPost), "posts", nil)
}
