// Package policy decides whether an actor may perform an action on a target.
// It performs no I/O: callers load the resource first and report a missing
// one as apperr.ErrNotFound before asking.
package policy

import (
	"fmt"

	"github.com/oksasatya/inkwell/internal/domain/apperr"
	"github.com/oksasatya/inkwell/internal/domain/entity"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionList   Action = "list"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type Resource string

const (
	ResourcePost            Resource = "post"
	ResourceComment         Resource = "comment"
	ResourceLike            Resource = "like"
	ResourceFollow          Resource = "follow"
	ResourceFollowing       Resource = "following"
	ResourceTag             Resource = "tag"
	ResourceAuthorProfile   Resource = "author_profile"
	ResourceReaderProfile   Resource = "reader_profile"
	ResourceAuthorDirectory Resource = "author_directory"
	ResourceReaderDirectory Resource = "reader_directory"
)

// Target describes the resource an action is applied to.
type Target struct {
	Resource      Resource
	OwnerAuthorID string
	OwnerUserID   string
	Published     bool
}

func NewPost() Target { return Target{Resource: ResourcePost} }

func PostTarget(p *entity.Post) Target {
	return Target{Resource: ResourcePost, OwnerAuthorID: p.AuthorID, Published: p.Published()}
}

func NewComment() Target { return Target{Resource: ResourceComment} }

func CommentTarget(c *entity.Comment) Target {
	return Target{Resource: ResourceComment, OwnerUserID: c.UserID}
}

func NewLike() Target { return Target{Resource: ResourceLike} }

func LikeTarget(l *entity.Like) Target {
	return Target{Resource: ResourceLike, OwnerUserID: l.UserID}
}

func FollowTarget() Target { return Target{Resource: ResourceFollow} }

// FollowingTarget is the list of authors the actor follows.
func FollowingTarget() Target { return Target{Resource: ResourceFollowing} }

func TagTarget() Target { return Target{Resource: ResourceTag} }

func AuthorProfileTarget(a *entity.Author) Target {
	return Target{Resource: ResourceAuthorProfile, OwnerUserID: a.UserID}
}

func ReaderProfileTarget(r *entity.Reader) Target {
	return Target{Resource: ResourceReaderProfile, OwnerUserID: r.UserID}
}

func AuthorDirectory() Target { return Target{Resource: ResourceAuthorDirectory} }

func ReaderDirectory() Target { return Target{Resource: ResourceReaderDirectory} }

// Authorize returns nil when actor may perform action on t, apperr.ErrUnauthenticated
// for a nil actor and a wrapped apperr.ErrForbidden otherwise.
func Authorize(actor Actor, action Action, t Target) error {
	if actor == nil {
		return apperr.ErrUnauthenticated
	}
	if allowed(actor, action, t) {
		return nil
	}
	return fmt.Errorf("%s cannot %s %s: %w", actor.Role(), action, t.Resource, apperr.ErrForbidden)
}

// CanRead is a convenience for visibility checks that must not fail.
func CanRead(actor Actor, t Target) bool {
	return Authorize(actor, ActionRead, t) == nil
}

func allowed(actor Actor, action Action, t Target) bool {
	switch t.Resource {
	case ResourcePost:
		switch action {
		case ActionCreate:
			_, ok := actor.(AuthorActor)
			return ok
		case ActionRead:
			return t.Published || ownsPost(actor, t)
		case ActionUpdate, ActionDelete:
			return ownsPost(actor, t)
		case ActionList:
			return true
		}
	case ResourceComment:
		switch action {
		case ActionCreate, ActionRead, ActionList:
			return true
		case ActionUpdate, ActionDelete:
			return actor.UserID() == t.OwnerUserID
		}
	case ResourceLike:
		switch action {
		case ActionCreate, ActionRead, ActionList:
			return true
		case ActionDelete:
			return actor.UserID() == t.OwnerUserID
		}
	case ResourceFollow:
		switch action {
		case ActionCreate, ActionDelete:
			return hasReaderProfile(actor)
		case ActionList, ActionRead:
			return true
		}
	case ResourceFollowing:
		return hasReaderProfile(actor) && action == ActionList
	case ResourceTag:
		// Tags are a shared vocabulary; any signed-in user may curate them.
		switch action {
		case ActionCreate, ActionRead, ActionList, ActionUpdate, ActionDelete:
			return true
		}
	case ResourceAuthorProfile:
		_, ok := actor.(AuthorActor)
		return ok && actor.UserID() == t.OwnerUserID && (action == ActionRead || action == ActionUpdate || action == ActionDelete)
	case ResourceReaderProfile:
		_, ok := actor.(ReaderActor)
		return ok && actor.UserID() == t.OwnerUserID && (action == ActionRead || action == ActionUpdate || action == ActionDelete)
	case ResourceAuthorDirectory:
		_, ok := actor.(AuthorActor)
		return ok && action == ActionList
	case ResourceReaderDirectory:
		_, ok := actor.(ReaderActor)
		return ok && action == ActionList
	}
	return false
}

// hasReaderProfile is false for a reader whose profile has been deleted.
func hasReaderProfile(actor Actor) bool {
	r, ok := actor.(ReaderActor)
	return ok && r.ReaderID != ""
}

func ownsPost(actor Actor, t Target) bool {
	a, ok := actor.(AuthorActor)
	return ok && a.AuthorID != "" && a.AuthorID == t.OwnerAuthorID
}
