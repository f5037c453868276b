package application

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/inkwell/internal/domain/entity"
	"github.com/oksasatya/inkwell/internal/domain/policy"
	repo "github.com/oksasatya/inkwell/internal/domain/repository"
)

// FollowService manages reader -> author edges. Duplicate and missing edges
// surface as the store's Conflict and NotFound errors.
type FollowService struct {
	Authors repo.AuthorRepository
	Follows repo.FollowRepository
	Logger  *logrus.Logger
}

func (s *FollowService) Follow(ctx context.Context, actor policy.Actor, authorID string) (*entity.Follow, error) {
	if err := policy.Authorize(actor, policy.ActionCreate, policy.FollowTarget()); err != nil {
		return nil, err
	}
	if _, err := s.Authors.GetByID(ctx, authorID); err != nil {
		return nil, err
	}
	f := &entity.Follow{ReaderID: actor.(policy.ReaderActor).ReaderID, AuthorID: authorID}
	if err := s.Follows.Create(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *FollowService) Unfollow(ctx context.Context, actor policy.Actor, authorID string) error {
	if err := policy.Authorize(actor, policy.ActionDelete, policy.FollowTarget()); err != nil {
		return err
	}
	return s.Follows.Delete(ctx, actor.(policy.ReaderActor).ReaderID, authorID)
}

// ListFollowers returns the follow edges pointing at authorID.
func (s *FollowService) ListFollowers(ctx context.Context, actor policy.Actor, authorID string) ([]*entity.Follow, error) {
	if err := policy.Authorize(actor, policy.ActionList, policy.FollowTarget()); err != nil {
		return nil, err
	}
	if _, err := s.Authors.GetByID(ctx, authorID); err != nil {
		return nil, err
	}
	return s.Follows.ListByAuthor(ctx, authorID)
}

// ListFollowed returns the authors the calling reader follows.
func (s *FollowService) ListFollowed(ctx context.Context, actor policy.Actor) ([]*entity.Follow, error) {
	if err := policy.Authorize(actor, policy.ActionList, policy.FollowingTarget()); err != nil {
		return nil, err
	}
	return s.Follows.ListByReader(ctx, actor.(policy.ReaderActor).ReaderID)
}

type LikeService struct {
	Posts  repo.PostRepository
	Likes  repo.LikeRepository
	Logger *logrus.Logger
}

func (s *LikeService) Like(ctx context.Context, actor policy.Actor, postID string) (*entity.Like, error) {
	if err := policy.Authorize(actor, policy.ActionCreate, policy.NewLike()); err != nil {
		return nil, err
	}
	if _, err := s.Posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	l := &entity.Like{PostID: postID, UserID: actor.UserID()}
	if err := s.Likes.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *LikeService) Unlike(ctx context.Context, actor policy.Actor, postID string) error {
	if actor == nil {
		return policy.Authorize(actor, policy.ActionDelete, policy.NewLike())
	}
	if _, err := s.Posts.GetByID(ctx, postID); err != nil {
		return err
	}
	l, err := s.Likes.Get(ctx, actor.UserID(), postID)
	if err != nil {
		return err
	}
	if err := policy.Authorize(actor, policy.ActionDelete, policy.LikeTarget(l)); err != nil {
		return err
	}
	return s.Likes.Delete(ctx, actor.UserID(), postID)
}

func (s *LikeService) List(ctx context.Context, actor policy.Actor, postID string) ([]*entity.Like, error) {
	if err := policy.Authorize(actor, policy.ActionList, policy.NewLike()); err != nil {
		return nil, err
	}
	if _, err := s.Posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.Likes.ListByPost(ctx, postID)
}
