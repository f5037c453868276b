package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/inkwell/internal/domain/apperr"
	"github.com/oksasatya/inkwell/internal/domain/entity"
	"github.com/oksasatya/inkwell/internal/domain/policy"
	repo "github.com/oksasatya/inkwell/internal/domain/repository"
	"github.com/oksasatya/inkwell/internal/notification"
)

type CommentService struct {
	Posts    repo.PostRepository
	Comments repo.CommentRepository
	Queue    notification.Enqueuer
	Logger   *logrus.Logger
}

// Create adds a comment and notifies the post's author in the background.
func (s *CommentService) Create(ctx context.Context, actor policy.Actor, postID, content string) (*entity.Comment, error) {
	if err := policy.Authorize(actor, policy.ActionCreate, policy.NewComment()); err != nil {
		return nil, err
	}
	if _, err := s.Posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperr.NewValidation("content", "is required")
	}
	c := &entity.Comment{PostID: postID, UserID: actor.UserID(), Content: content}
	if err := s.Comments.Create(ctx, c); err != nil {
		return nil, err
	}
	notification.EnqueueLogged(s.Queue, s.Logger, notification.KindCommentCreated, notification.CommentCreatedPayload{
		PostID:    postID,
		CommentID: c.ID,
		UserID:    c.UserID,
		Content:   c.Content,
	})
	return c, nil
}

func (s *CommentService) List(ctx context.Context, actor policy.Actor, postID string) ([]*entity.Comment, error) {
	if err := policy.Authorize(actor, policy.ActionList, policy.NewComment()); err != nil {
		return nil, err
	}
	if _, err := s.Posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.Comments.ListByPost(ctx, postID)
}

func (s *CommentService) Get(ctx context.Context, actor policy.Actor, postID, commentID string) (*entity.Comment, error) {
	c, err := s.load(ctx, postID, commentID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionRead, policy.CommentTarget(c)); err != nil {
		return nil, err
	}
	return c, nil
}

// Update rewrites the content of a comment. Only its writer may do so.
func (s *CommentService) Update(ctx context.Context, actor policy.Actor, postID, commentID, content string) (*entity.Comment, error) {
	c, err := s.load(ctx, postID, commentID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionUpdate, policy.CommentTarget(c)); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperr.NewValidation("content", "is required")
	}
	c.Content = content
	if err := s.Comments.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CommentService) Delete(ctx context.Context, actor policy.Actor, postID, commentID string) error {
	c, err := s.load(ctx, postID, commentID)
	if err != nil {
		return err
	}
	if err := policy.Authorize(actor, policy.ActionDelete, policy.CommentTarget(c)); err != nil {
		return err
	}
	return s.Comments.Delete(ctx, c.ID)
}

// load fetches a comment and checks it belongs to postID.
func (s *CommentService) load(ctx context.Context, postID, commentID string) (*entity.Comment, error) {
	if _, err := s.Posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	c, err := s.Comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if c.PostID != postID {
		return nil, fmt.Errorf("comment %s on post %s: %w", commentID, postID, apperr.ErrNotFound)
	}
	return c, nil
}
