package handlers

import (
	"time"

	"github.com/oksasatya/inkwell/internal/application"
	"github.com/oksasatya/inkwell/internal/domain/entity"
)

type tagResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type postResponse struct {
	ID        string        `json:"id"`
	AuthorID  string        `json:"author_id"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	Status    string        `json:"status"`
	Tags      []tagResponse `json:"tags"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type commentResponse struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type likeResponse struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type followResponse struct {
	ID        string    `json:"id"`
	ReaderID  string    `json:"reader_id"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

type authorResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"created_at"`
}

type readerResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type profileResponse struct {
	ID          string          `json:"id"`
	Username    string          `json:"username"`
	Email       string          `json:"email"`
	Role        entity.RoleName `json:"role"`
	AvatarURL   string          `json:"avatar_url"`
	LastLoginAt *time.Time      `json:"last_login_at"`
	AuthorID    string          `json:"author_id,omitempty"`
	ReaderID    string          `json:"reader_id,omitempty"`
	Bio         *string         `json:"bio,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toTag(t entity.Tag) tagResponse {
	return tagResponse{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt}
}

func toPost(p *entity.Post) postResponse {
	tags := make([]tagResponse, 0, len(p.Tags))
	for _, t := range p.Tags {
		tags = append(tags, toTag(t))
	}
	return postResponse{
		ID:        p.ID,
		AuthorID:  p.AuthorID,
		Title:     p.Title,
		Content:   p.Content,
		Status:    string(p.Status),
		Tags:      tags,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toComment(c *entity.Comment) commentResponse {
	return commentResponse{ID: c.ID, PostID: c.PostID, UserID: c.UserID, Content: c.Content, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

func toLike(l *entity.Like) likeResponse {
	return likeResponse{ID: l.ID, PostID: l.PostID, UserID: l.UserID, CreatedAt: l.CreatedAt}
}

func toFollow(f *entity.Follow) followResponse {
	return followResponse{ID: f.ID, ReaderID: f.ReaderID, AuthorID: f.AuthorID, CreatedAt: f.CreatedAt}
}

func toAuthor(v application.AuthorView) authorResponse {
	return authorResponse{ID: v.Author.ID, UserID: v.Author.UserID, Username: v.Username, Bio: v.Author.Bio, CreatedAt: v.Author.CreatedAt}
}

func toReader(v application.ReaderView) readerResponse {
	return readerResponse{ID: v.Reader.ID, UserID: v.Reader.UserID, Username: v.Username, CreatedAt: v.Reader.CreatedAt}
}

func toProfile(p *application.Profile) profileResponse {
	out := profileResponse{
		ID:          p.User.ID,
		Username:    p.User.Username,
		Email:       p.User.Email,
		Role:        p.User.Role,
		AvatarURL:   p.User.AvatarURL,
		LastLoginAt: p.User.LastLoginAt,
		CreatedAt:   p.User.CreatedAt,
	}
	if p.Author != nil {
		out.AuthorID = p.Author.ID
		bio := p.Author.Bio
		out.Bio = &bio
	}
	if p.Reader != nil {
		out.ReaderID = p.Reader.ID
	}
	return out
}

// mapSlice converts every element of in with fn.
func mapSlice[T, U any](in []T, fn func(T) U) []U {
	out := make([]U, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}
