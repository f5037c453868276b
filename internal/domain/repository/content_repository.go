package repository

import (
	"context"
	"time"

	"github.com/oksasatya/inkwell/internal/domain/entity"
)

// PostFilter is the storage-level query produced by the visibility filter.
// An empty AuthorID with PublishedOnly=false matches every post.
type PostFilter struct {
	AuthorID      string
	PublishedOnly bool
	TagIDs        []string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	Search        string
	Offset        int
	Limit         int
}

type TagRepository interface {
	Create(ctx context.Context, t *entity.Tag) error
	GetByID(ctx context.Context, id string) (*entity.Tag, error)
	GetByName(ctx context.Context, name string) (*entity.Tag, error)
	// GetOrCreate returns the tag with the given name, creating it when absent.
	GetOrCreate(ctx context.Context, name string) (*entity.Tag, error)
	List(ctx context.Context) ([]*entity.Tag, error)
	// Rename returns apperr.ErrConflict when another tag has the name.
	Rename(ctx context.Context, t *entity.Tag) error
	// Delete drops the tag and its post links.
	Delete(ctx context.Context, id string) (int64, error)
}

type PostRepository interface {
	Create(ctx context.Context, p *entity.Post) error
	GetByID(ctx context.Context, id string) (*entity.Post, error)
	Update(ctx context.Context, p *entity.Post) error
	Delete(ctx context.Context, id string) error
	// Lock holds the row until the surrounding transaction ends, so no like
	// or comment can be attached to it meanwhile.
	Lock(ctx context.Context, id string) error
	ListIDsByAuthor(ctx context.Context, authorID string) ([]string, error)
	// SetTags replaces the tag links of a post.
	SetTags(ctx context.Context, postID string, tagIDs []string) error
	DeleteTags(ctx context.Context, postID string) error
	// List returns one page of posts matching f together with the total match count.
	List(ctx context.Context, f PostFilter) ([]*entity.Post, int, error)
}

type CommentRepository interface {
	Create(ctx context.Context, c *entity.Comment) error
	GetByID(ctx context.Context, id string) (*entity.Comment, error)
	Update(ctx context.Context, c *entity.Comment) error
	Delete(ctx context.Context, id string) error
	ListByPost(ctx context.Context, postID string) ([]*entity.Comment, error)
	DeleteByPost(ctx context.Context, postID string) (int64, error)
}

// LikeRepository mirrors FollowRepository: Conflict on duplicate, NotFound on missing.
type LikeRepository interface {
	Create(ctx context.Context, l *entity.Like) error
	Get(ctx context.Context, userID, postID string) (*entity.Like, error)
	Delete(ctx context.Context, userID, postID string) error
	ListByPost(ctx context.Context, postID string) ([]*entity.Like, error)
	DeleteByPost(ctx context.Context, postID string) (int64, error)
}

// TxManager runs fn inside one transaction. Repositories called with the
// ctx passed to fn take part in it.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
