package policy

import (
	"fmt"

	"github.com/oksasatya/inkwell/internal/domain/apperr"
	"github.com/oksasatya/inkwell/internal/domain/entity"
)

// Actor is the authenticated principal of a request. The only
// implementations are AuthorActor and ReaderActor.
type Actor interface {
	UserID() string
	Role() entity.RoleName
	sealed()
}

type AuthorActor struct {
	UID      string
	AuthorID string
}

func (a AuthorActor) UserID() string        { return a.UID }
func (a AuthorActor) Role() entity.RoleName { return entity.RoleAuthor }
func (AuthorActor) sealed()                 {}

type ReaderActor struct {
	UID      string
	ReaderID string
}

func (r ReaderActor) UserID() string        { return r.UID }
func (r ReaderActor) Role() entity.RoleName { return entity.RoleReader }
func (ReaderActor) sealed()                 {}

// NewActor builds the actor variant for u. profileID is the id of the
// Author or Reader row matching u.Role.
func NewActor(u *entity.User, profileID string) (Actor, error) {
	if u == nil {
		return nil, apperr.ErrUnauthenticated
	}
	switch u.Role {
	case entity.RoleAuthor:
		return AuthorActor{UID: u.ID, AuthorID: profileID}, nil
	case entity.RoleReader:
		return ReaderActor{UID: u.ID, ReaderID: profileID}, nil
	default:
		return nil, fmt.Errorf("unknown role %q: %w", u.Role, apperr.ErrForbidden)
	}
}
