package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/inkwell/internal/domain/apperr"
	"github.com/oksasatya/inkwell/internal/domain/entity"
	"github.com/oksasatya/inkwell/internal/domain/policy"
	repo "github.com/oksasatya/inkwell/internal/domain/repository"
)

type TagService struct {
	Tags   repo.TagRepository
	Tx     repo.TxManager
	Logger *logrus.Logger
}

// Create adds a tag. A name already in use is a Conflict.
func (s *TagService) Create(ctx context.Context, actor policy.Actor, name string) (*entity.Tag, error) {
	if err := policy.Authorize(actor, policy.ActionCreate, policy.TagTarget()); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.NewValidation("name", "is required")
	}
	t := &entity.Tag{Name: name}
	if err := s.Tags.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TagService) List(ctx context.Context, actor policy.Actor) ([]*entity.Tag, error) {
	if err := policy.Authorize(actor, policy.ActionList, policy.TagTarget()); err != nil {
		return nil, err
	}
	return s.Tags.List(ctx)
}

func (s *TagService) Get(ctx context.Context, actor policy.Actor, id string) (*entity.Tag, error) {
	if err := policy.Authorize(actor, policy.ActionRead, policy.TagTarget()); err != nil {
		return nil, err
	}
	return s.Tags.GetByID(ctx, id)
}

// Update renames a tag. Renaming onto another tag's name is a Conflict.
func (s *TagService) Update(ctx context.Context, actor policy.Actor, id, name string) (*entity.Tag, error) {
	if err := policy.Authorize(actor, policy.ActionUpdate, policy.TagTarget()); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.NewValidation("name", "is required")
	}
	t, err := s.Tags.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	other, err := s.Tags.GetByName(ctx, name)
	switch {
	case err == nil && other.ID != t.ID:
		return nil, fmt.Errorf("tag %s exists: %w", name, apperr.ErrConflict)
	case err != nil && !errors.Is(err, apperr.ErrNotFound):
		return nil, err
	}
	t.Name = name
	if err := s.Tags.Rename(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes a tag and detaches it from every post in one transaction.
func (s *TagService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if err := policy.Authorize(actor, policy.ActionDelete, policy.TagTarget()); err != nil {
		return err
	}
	var unlinked int64
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		unlinked, err = s.Tags.Delete(ctx, id)
		return err
	})
	if err != nil {
		return err
	}
	s.log().WithFields(logrus.Fields{"tag_id": id, "posts": unlinked}).Info("tag deleted")
	return nil
}

func (s *TagService) log() *logrus.Logger {
	if s.Logger == nil {
		return logrus.StandardLogger()
	}
	return s.Logger
}
