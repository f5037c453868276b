package repository

import (
	"context"
	"time"

	"github.com/oksasatya/inkwell/internal/domain/entity"
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	// UpdatePassword swaps the hash only while it still equals oldHash. A
	// stale oldHash is apperr.ErrConflict.
	UpdatePassword(ctx context.Context, id, oldHash, newHash string) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

type AuthorRepository interface {
	Create(ctx context.Context, a *entity.Author) error
	GetByID(ctx context.Context, id string) (*entity.Author, error)
	GetByUserID(ctx context.Context, userID string) (*entity.Author, error)
	Update(ctx context.Context, a *entity.Author) error
	// Lock holds the row until the surrounding transaction ends.
	Lock(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*entity.Author, error)
}

type ReaderRepository interface {
	Create(ctx context.Context, r *entity.Reader) error
	GetByID(ctx context.Context, id string) (*entity.Reader, error)
	GetByUserID(ctx context.Context, userID string) (*entity.Reader, error)
	Lock(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*entity.Reader, error)
}

// FollowRepository stores reader -> author edges. Create returns
// apperr.ErrConflict for an existing edge, Delete returns apperr.ErrNotFound
// when there is none.
type FollowRepository interface {
	Create(ctx context.Context, f *entity.Follow) error
	Delete(ctx context.Context, readerID, authorID string) error
	ListByAuthor(ctx context.Context, authorID string) ([]*entity.Follow, error)
	ListByReader(ctx context.Context, readerID string) ([]*entity.Follow, error)
	DeleteByAuthor(ctx context.Context, authorID string) (int64, error)
	DeleteByReader(ctx context.Context, readerID string) (int64, error)
}
