package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/inkwell/internal/domain/apperr"
	"github.com/oksasatya/inkwell/internal/domain/entity"
	"github.com/oksasatya/inkwell/internal/domain/policy"
	repo "github.com/oksasatya/inkwell/internal/domain/repository"
	"github.com/oksasatya/inkwell/internal/domain/visibility"
	"github.com/oksasatya/inkwell/internal/notification"
)

// NotifyPolicy selects which post writes notify the author's followers.
type NotifyPolicy string

const (
	// NotifyAll notifies on create and on every update of a published post.
	NotifyAll NotifyPolicy = "all"
	// NotifyOnPublish notifies only when a post becomes published.
	NotifyOnPublish NotifyPolicy = "publish"
)

func ParseNotifyPolicy(s string) NotifyPolicy {
	if strings.EqualFold(strings.TrimSpace(s), string(NotifyOnPublish)) {
		return NotifyOnPublish
	}
	return NotifyAll
}

// PostSearcher looks up published post ids for a free-text query.
type PostSearcher interface {
	SearchIDs(ctx context.Context, q string, size int) ([]string, error)
}

type PostService struct {
	Posts    repo.PostRepository
	Tags     repo.TagRepository
	Comments repo.CommentRepository
	Likes    repo.LikeRepository
	Tx       repo.TxManager
	Queue    notification.Enqueuer
	NotifyOn NotifyPolicy
	// Indexing enqueues search index jobs on every write.
	Indexing bool
	Searcher PostSearcher
	Logger   *logrus.Logger
}

type CreatePostInput struct {
	Title   string
	Content string
	Status  entity.PostStatus
	Tags    []string
}

// UpdatePostInput is a partial update; nil fields are left unchanged.
type UpdatePostInput struct {
	Title   *string
	Content *string
	Status  *entity.PostStatus
	Tags    *[]string
}

func (s *PostService) Create(ctx context.Context, actor policy.Actor, in CreatePostInput) (*entity.Post, error) {
	if err := policy.Authorize(actor, policy.ActionCreate, policy.NewPost()); err != nil {
		return nil, err
	}
	author := actor.(policy.AuthorActor)
	if author.AuthorID == "" {
		return nil, fmt.Errorf("author profile missing: %w", apperr.ErrForbidden)
	}
	if in.Status == "" {
		in.Status = entity.StatusDraft
	}
	verr := &apperr.ValidationError{}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		verr.Add("title", "is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		verr.Add("content", "is required")
	}
	if !in.Status.Valid() {
		verr.Add("status", "must be draft or published")
	}
	if !verr.Empty() {
		return nil, verr
	}

	p := &entity.Post{AuthorID: author.AuthorID, Title: in.Title, Content: in.Content, Status: in.Status}
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Posts.Create(ctx, p); err != nil {
			return err
		}
		if len(in.Tags) == 0 {
			return nil
		}
		ids, err := s.resolveTags(ctx, in.Tags)
		if err != nil {
			return err
		}
		return s.Posts.SetTags(ctx, p.ID, ids)
	})
	if err != nil {
		return nil, err
	}
	created, err := s.Posts.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	s.log().WithFields(logrus.Fields{"post_id": created.ID, "status": created.Status}).Info("post created")
	if created.Published() {
		s.notifyFollowers(created, false)
	}
	s.reindex(created.ID)
	return created, nil
}

// Get returns a post the actor may read. A draft read by anyone but its
// author is Forbidden, a missing post NotFound.
func (s *PostService) Get(ctx context.Context, actor policy.Actor, id string) (*entity.Post, error) {
	if actor == nil {
		return nil, apperr.ErrUnauthenticated
	}
	p, err := s.Posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionRead, policy.PostTarget(p)); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PostService) Update(ctx context.Context, actor policy.Actor, id string, in UpdatePostInput) (*entity.Post, error) {
	if actor == nil {
		return nil, apperr.ErrUnauthenticated
	}
	p, err := s.Posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionUpdate, policy.PostTarget(p)); err != nil {
		return nil, err
	}
	wasPublished := p.Published()

	verr := &apperr.ValidationError{}
	if in.Title != nil {
		p.Title = strings.TrimSpace(*in.Title)
		if p.Title == "" {
			verr.Add("title", "must not be empty")
		}
	}
	if in.Content != nil {
		p.Content = *in.Content
		if strings.TrimSpace(p.Content) == "" {
			verr.Add("content", "must not be empty")
		}
	}
	if in.Status != nil {
		p.Status = *in.Status
		if !p.Status.Valid() {
			verr.Add("status", "must be draft or published")
		}
	}
	if !verr.Empty() {
		return nil, verr
	}

	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Posts.Update(ctx, p); err != nil {
			return err
		}
		if in.Tags == nil {
			return nil
		}
		ids, err := s.resolveTags(ctx, *in.Tags)
		if err != nil {
			return err
		}
		return s.Posts.SetTags(ctx, p.ID, ids)
	})
	if err != nil {
		return nil, err
	}
	updated, err := s.Posts.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	switch {
	case !updated.Published():
	case s.NotifyOn == NotifyOnPublish && wasPublished:
	default:
		s.notifyFollowers(updated, wasPublished)
	}
	s.reindex(updated.ID)
	return updated, nil
}

// Delete removes the post together with its likes, comments and tag links.
func (s *PostService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if actor == nil {
		return apperr.ErrUnauthenticated
	}
	p, err := s.Posts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Authorize(actor, policy.ActionDelete, policy.PostTarget(p)); err != nil {
		return err
	}
	var likes, comments int64
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		likes, comments, err = s.deleteTree(ctx, p.ID)
		return err
	})
	if err != nil {
		return err
	}
	s.log().WithFields(logrus.Fields{"post_id": p.ID, "likes": likes, "comments": comments}).Info("post deleted")
	s.Unindex([]string{p.ID})
	return nil
}

// deleteTree removes one post with everything hanging off it. The post row
// is locked first so a concurrent like or comment either lands before the
// lock (and is deleted here) or fails on the missing post afterwards.
// Callers must be inside a transaction.
func (s *PostService) deleteTree(ctx context.Context, postID string) (likes, comments int64, err error) {
	if err = s.Posts.Lock(ctx, postID); err != nil {
		return 0, 0, err
	}
	if likes, err = s.Likes.DeleteByPost(ctx, postID); err != nil {
		return 0, 0, err
	}
	if comments, err = s.Comments.DeleteByPost(ctx, postID); err != nil {
		return 0, 0, err
	}
	if err = s.Posts.DeleteTags(ctx, postID); err != nil {
		return 0, 0, err
	}
	return likes, comments, s.Posts.Delete(ctx, postID)
}

// PurgeAuthor deletes every post of authorID with its likes, comments and tag
// links, joining the caller's transaction when there is one. It returns the
// removed post ids.
func (s *PostService) PurgeAuthor(ctx context.Context, authorID string) ([]string, error) {
	var ids []string
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if ids, err = s.Posts.ListIDsByAuthor(ctx, authorID); err != nil {
			return err
		}
		for _, id := range ids {
			if _, _, err := s.deleteTree(ctx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Unindex queues search index removal for deleted posts.
func (s *PostService) Unindex(postIDs []string) {
	if !s.Indexing {
		return
	}
	for _, id := range postIDs {
		notification.EnqueueLogged(s.Queue, s.Logger, notification.KindPostUnindex, notification.PostIndexPayload{PostID: id})
	}
}

// List returns the page of posts visible to actor.
func (s *PostService) List(ctx context.Context, actor policy.Actor, q visibility.Query) (visibility.Page[*entity.Post], error) {
	f, err := visibility.ForActor(actor, q)
	if err != nil {
		return visibility.Page[*entity.Post]{}, err
	}
	posts, total, err := s.Posts.List(ctx, f)
	if err != nil {
		return visibility.Page[*entity.Post]{}, err
	}
	return visibility.NewPage(posts, total, visibility.PageNumber(f.Offset))
}

// Discover runs a full-text search over the published post index. Hits
// the actor can no longer read are skipped.
func (s *PostService) Discover(ctx context.Context, actor policy.Actor, q string, size int) ([]*entity.Post, error) {
	if actor == nil {
		return nil, apperr.ErrUnauthenticated
	}
	if s.Searcher == nil {
		return nil, errors.New("search not configured")
	}
	if strings.TrimSpace(q) == "" {
		return nil, apperr.NewValidation("q", "is required")
	}
	ids, err := s.Searcher.SearchIDs(ctx, q, size)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Post, 0, len(ids))
	for _, id := range ids {
		p, err := s.Posts.GetByID(ctx, id)
		if errors.Is(err, apperr.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if policy.CanRead(actor, policy.PostTarget(p)) {
			out = append(out, p)
		}
	}
	return out, nil
}

// resolveTags maps tag references to ids. A reference shaped like a uuid
// must name an existing tag; anything else is a tag name created on demand.
func (s *PostService) resolveTags(ctx context.Context, refs []string) ([]string, error) {
	ids := make([]string, 0, len(refs))
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		var tag *entity.Tag
		var err error
		if _, perr := uuid.Parse(ref); perr == nil {
			tag, err = s.Tags.GetByID(ctx, ref)
			if errors.Is(err, apperr.ErrNotFound) {
				return nil, apperr.NewValidation("tags", fmt.Sprintf("unknown tag %s", ref))
			}
		} else {
			tag, err = s.Tags.GetOrCreate(ctx, ref)
		}
		if err != nil {
			return nil, err
		}
		if _, dup := seen[tag.ID]; dup {
			continue
		}
		seen[tag.ID] = struct{}{}
		ids = append(ids, tag.ID)
	}
	return ids, nil
}

func (s *PostService) notifyFollowers(p *entity.Post, updated bool) {
	notification.EnqueueLogged(s.Queue, s.Logger, notification.KindPostPublished, notification.PostPublishedPayload{
		PostID:    p.ID,
		AuthorID:  p.AuthorID,
		PostTitle: p.Title,
		Updated:   updated,
	})
}

func (s *PostService) reindex(postID string) {
	if !s.Indexing {
		return
	}
	notification.EnqueueLogged(s.Queue, s.Logger, notification.KindPostIndex, notification.PostIndexPayload{PostID: postID})
}

func (s *PostService) log() *logrus.Logger {
	if s.Logger == nil {
		return logrus.StandardLogger()
	}
	return s.Logger
}
