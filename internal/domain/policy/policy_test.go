package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/inkwell/internal/domain/apperr"
	"github.com/oksasatya/inkwell/internal/domain/entity"
)

var (
	alice = AuthorActor{UID: "u-alice", AuthorID: "a-alice"}
	bob   = AuthorActor{UID: "u-bob", AuthorID: "a-bob"}
	rita  = ReaderActor{UID: "u-rita", ReaderID: "r-rita"}
)

func TestAuthorize(t *testing.T) {
	draft := &entity.Post{ID: "p1", AuthorID: "a-alice", Status: entity.StatusDraft}
	published := &entity.Post{ID: "p2", AuthorID: "a-alice", Status: entity.StatusPublished}
	ritaComment := &entity.Comment{ID: "c1", UserID: "u-rita"}
	ritaLike := &entity.Like{ID: "l1", UserID: "u-rita"}

	tests := []struct {
		name   string
		actor  Actor
		action Action
		target Target
		want   error
	}{
		{"author creates post", alice, ActionCreate, NewPost(), nil},
		{"reader cannot create post", rita, ActionCreate, NewPost(), apperr.ErrForbidden},
		{"owner reads draft", alice, ActionRead, PostTarget(draft), nil},
		{"other author cannot read draft", bob, ActionRead, PostTarget(draft), apperr.ErrForbidden},
		{"reader cannot read draft", rita, ActionRead, PostTarget(draft), apperr.ErrForbidden},
		{"reader reads published", rita, ActionRead, PostTarget(published), nil},
		{"other author reads published", bob, ActionRead, PostTarget(published), nil},
		{"owner updates post", alice, ActionUpdate, PostTarget(published), nil},
		{"other author cannot update", bob, ActionUpdate, PostTarget(published), apperr.ErrForbidden},
		{"other author cannot delete", bob, ActionDelete, PostTarget(draft), apperr.ErrForbidden},
		{"reader cannot delete post", rita, ActionDelete, PostTarget(published), apperr.ErrForbidden},
		{"reader comments", rita, ActionCreate, NewComment(), nil},
		{"author comments", bob, ActionCreate, NewComment(), nil},
		{"comment owner edits", rita, ActionUpdate, CommentTarget(ritaComment), nil},
		{"post owner cannot edit comment", alice, ActionUpdate, CommentTarget(ritaComment), apperr.ErrForbidden},
		{"comment owner deletes", rita, ActionDelete, CommentTarget(ritaComment), nil},
		{"author likes", alice, ActionCreate, NewLike(), nil},
		{"like owner unlikes", rita, ActionDelete, LikeTarget(ritaLike), nil},
		{"other user cannot unlike", bob, ActionDelete, LikeTarget(ritaLike), apperr.ErrForbidden},
		{"reader follows", rita, ActionCreate, FollowTarget(), nil},
		{"reader unfollows", rita, ActionDelete, FollowTarget(), nil},
		{"author cannot follow", alice, ActionCreate, FollowTarget(), apperr.ErrForbidden},
		{"author lists followers", alice, ActionList, FollowTarget(), nil},
		{"reader lists following", rita, ActionList, FollowingTarget(), nil},
		{"author has no following list", alice, ActionList, FollowingTarget(), apperr.ErrForbidden},
		{"author reads own profile", alice, ActionRead, AuthorProfileTarget(&entity.Author{UserID: "u-alice"}), nil},
		{"author cannot read other profile", bob, ActionRead, AuthorProfileTarget(&entity.Author{UserID: "u-alice"}), apperr.ErrForbidden},
		{"reader cannot read author profile", rita, ActionRead, AuthorProfileTarget(&entity.Author{UserID: "u-rita"}), apperr.ErrForbidden},
		{"reader reads own profile", rita, ActionRead, ReaderProfileTarget(&entity.Reader{UserID: "u-rita"}), nil},
		{"author directory for authors", bob, ActionList, AuthorDirectory(), nil},
		{"author directory closed to readers", rita, ActionList, AuthorDirectory(), apperr.ErrForbidden},
		{"reader directory for readers", rita, ActionList, ReaderDirectory(), nil},
		{"reader directory closed to authors", alice, ActionList, ReaderDirectory(), apperr.ErrForbidden},
		{"anyone creates tag", rita, ActionCreate, TagTarget(), nil},
		{"anyone renames tag", bob, ActionUpdate, TagTarget(), nil},
		{"anyone deletes tag", rita, ActionDelete, TagTarget(), nil},
		{"author deletes own profile", alice, ActionDelete, AuthorProfileTarget(&entity.Author{UserID: "u-alice"}), nil},
		{"author cannot delete other profile", bob, ActionDelete, AuthorProfileTarget(&entity.Author{UserID: "u-alice"}), apperr.ErrForbidden},
		{"reader deletes own profile", rita, ActionDelete, ReaderProfileTarget(&entity.Reader{UserID: "u-rita"}), nil},
		{"nil actor", nil, ActionRead, PostTarget(published), apperr.ErrUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.actor, tt.action, tt.target)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAuthorActorWithoutProfileOwnsNothing(t *testing.T) {
	ghost := AuthorActor{UID: "u-ghost"}
	post := &entity.Post{AuthorID: "", Status: entity.StatusDraft}
	assert.ErrorIs(t, Authorize(ghost, ActionUpdate, PostTarget(post)), apperr.ErrForbidden)
}

func TestReaderWithoutProfileCannotFollow(t *testing.T) {
	ghost := ReaderActor{UID: "u-ghost"}
	assert.ErrorIs(t, Authorize(ghost, ActionCreate, FollowTarget()), apperr.ErrForbidden)
	assert.ErrorIs(t, Authorize(ghost, ActionList, FollowingTarget()), apperr.ErrForbidden)
	assert.NoError(t, Authorize(ghost, ActionList, FollowTarget()))
}

func TestNewActor(t *testing.T) {
	a, err := NewActor(&entity.User{ID: "u1", Role: entity.RoleAuthor}, "a1")
	require.NoError(t, err)
	assert.Equal(t, AuthorActor{UID: "u1", AuthorID: "a1"}, a)

	r, err := NewActor(&entity.User{ID: "u2", Role: entity.RoleReader}, "r2")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleReader, r.Role())
	assert.Equal(t, "u2", r.UserID())

	_, err = NewActor(&entity.User{ID: "u3", Role: "admin"}, "")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = NewActor(nil, "")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}
