package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/inkwell/internal/domain/apperr"
	"github.com/oksasatya/inkwell/internal/domain/entity"
	"github.com/oksasatya/inkwell/internal/domain/repository"
	tpl "github.com/oksasatya/inkwell/pkg/mailer/templates"
)

// PostIndexer mirrors published posts into the search index.
type PostIndexer interface {
	Index(ctx context.Context, p *entity.Post) error
	Delete(ctx context.Context, postID string) error
}

// Handlers resolves recipients for each job kind and passes messages to Notifier.
type Handlers struct {
	Users    repository.UserRepository
	Authors  repository.AuthorRepository
	Readers  repository.ReaderRepository
	Follows  repository.FollowRepository
	Posts    repository.PostRepository
	Notifier Notifier
	Indexer  PostIndexer
	Brand    tpl.Brand
	Logger   *logrus.Logger
}

// Register installs every handler on d.
func (h *Handlers) Register(d *Dispatcher) {
	d.Handle(KindCommentCreated, h.CommentCreated)
	d.Handle(KindPostPublished, h.PostPublished)
	d.Handle(KindPasswordReset, h.PasswordReset)
	if h.Indexer != nil {
		d.Handle(KindPostIndex, h.PostIndex)
		d.Handle(KindPostUnindex, h.PostUnindex)
	}
}

// CommentCreated notifies the author of the commented post.
func (h *Handlers) CommentCreated(ctx context.Context, job Job) error {
	var p CommentCreatedPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	post, err := h.Posts.GetByID(ctx, p.PostID)
	if err != nil {
		return err
	}
	u, err := h.authorUser(ctx, post.AuthorID)
	if err != nil {
		return err
	}
	data := tpl.NewEmailData(h.Brand, tpl.NewComment, u.Username, u.Email,
		tpl.WithPost(post.ID, post.Title),
		tpl.WithComment(p.Content),
	)
	return h.Notifier.Notify(ctx, Message{
		Kind:     job.Kind,
		To:       u.Email,
		Name:     u.Username,
		Subject:  fmt.Sprintf("New comment on %q", post.Title),
		Template: tpl.NewComment,
		Data:     tpl.ToMap(data),
	})
}

// PostPublished notifies every follower of the post's author. A failure for
// one follower does not stop the others.
func (h *Handlers) PostPublished(ctx context.Context, job Job) error {
	var p PostPublishedPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	author, err := h.authorUser(ctx, p.AuthorID)
	if err != nil {
		return err
	}
	follows, err := h.Follows.ListByAuthor(ctx, p.AuthorID)
	if err != nil {
		return err
	}
	var errs []error
	for _, f := range follows {
		u, err := h.readerUser(ctx, f.ReaderID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		data := tpl.NewEmailData(h.Brand, tpl.NewPost, u.Username, u.Email,
			tpl.WithPost(p.PostID, p.PostTitle),
			tpl.WithAuthor(author.Username),
		)
		if err := h.Notifier.Notify(ctx, Message{
			Kind:     job.Kind,
			To:       u.Email,
			Name:     u.Username,
			Subject:  fmt.Sprintf("%s published %q", author.Username, p.PostTitle),
			Template: tpl.NewPost,
			Data:     tpl.ToMap(data),
		}); err != nil {
			errs = append(errs, err)
		}
	}
	if h.Logger != nil {
		h.Logger.WithFields(logrus.Fields{"author_id": p.AuthorID, "followers": len(follows), "failed": len(errs)}).Debug("followers notified")
	}
	return errors.Join(errs...)
}

func (h *Handlers) PasswordReset(ctx context.Context, job Job) error {
	var p PasswordResetPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	data := tpl.NewEmailData(h.Brand, tpl.PasswordReset, p.Username, p.Email,
		tpl.WithResetURL(p.ResetURL),
		tpl.WithExpiresAt(p.ExpiresAt),
	)
	return h.Notifier.Notify(ctx, Message{
		Kind:     job.Kind,
		To:       p.Email,
		Name:     p.Username,
		Subject:  "Password reset requested",
		Template: tpl.PasswordReset,
		Data:     tpl.ToMap(data),
	})
}

// PostIndex mirrors the current state of a post: published posts are
// indexed, drafts and deleted posts are removed.
func (h *Handlers) PostIndex(ctx context.Context, job Job) error {
	var p PostIndexPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	post, err := h.Posts.GetByID(ctx, p.PostID)
	if errors.Is(err, apperr.ErrNotFound) {
		return h.Indexer.Delete(ctx, p.PostID)
	}
	if err != nil {
		return err
	}
	if !post.Published() {
		return h.Indexer.Delete(ctx, post.ID)
	}
	return h.Indexer.Index(ctx, post)
}

func (h *Handlers) PostUnindex(ctx context.Context, job Job) error {
	var p PostIndexPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return h.Indexer.Delete(ctx, p.PostID)
}

func (h *Handlers) authorUser(ctx context.Context, authorID string) (*entity.User, error) {
	a, err := h.Authors.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	return h.Users.GetByID(ctx, a.UserID)
}

func (h *Handlers) readerUser(ctx context.Context, readerID string) (*entity.User, error) {
	r, err := h.Readers.GetByID(ctx, readerID)
	if err != nil {
		return nil, err
	}
	return h.Users.GetByID(ctx, r.UserID)
}
