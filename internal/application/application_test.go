package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/inkwell/internal/domain/apperr"
	"github.com/oksasatya/inkwell/internal/domain/entity"
	"github.com/oksasatya/inkwell/internal/domain/policy"
	repo "github.com/oksasatya/inkwell/internal/domain/repository"
	"github.com/oksasatya/inkwell/internal/domain/visibility"
	"github.com/oksasatya/inkwell/internal/infrastructure/memory"
	"github.com/oksasatya/inkwell/internal/notification"
	"github.com/oksasatya/inkwell/pkg/helpers"
)

type recordingQueue struct {
	mu   sync.Mutex
	jobs []notification.Job
}

func (q *recordingQueue) Enqueue(job notification.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) kinds() []notification.Kind {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]notification.Kind, 0, len(q.jobs))
	for _, j := range q.jobs {
		out = append(out, j.Kind)
	}
	return out
}

func (q *recordingQueue) count(kind notification.Kind) int {
	n := 0
	for _, k := range q.kinds() {
		if k == kind {
			n++
		}
	}
	return n
}

type ServiceSuite struct {
	suite.Suite
	ctx    context.Context
	store  *memory.Store
	queue  *recordingQueue
	logger *logrus.Logger

	identity *IdentityService
	posts    *PostService
	comments *CommentService
	likes    *LikeService
	follows  *FollowService
	tags     *TagService
	reset    *PasswordResetService

	alice  policy.Actor
	bob    policy.Actor
	rita   policy.Actor
	aliceP *Profile
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	helpers.PasswordCost = bcrypt.MinCost
	s.ctx = context.Background()
	s.store = memory.NewStore()
	s.queue = &recordingQueue{}
	s.logger = logrus.New()
	s.logger.SetOutput(io.Discard)

	s.posts = &PostService{
		Posts:    s.store.Posts(),
		Tags:     s.store.Tags(),
		Comments: s.store.Comments(),
		Likes:    s.store.Likes(),
		Tx:       s.store,
		Queue:    s.queue,
		NotifyOn: NotifyAll,
		Logger:   s.logger,
	}
	s.identity = &IdentityService{
		Users:   s.store.Users(),
		Authors: s.store.Authors(),
		Readers: s.store.Readers(),
		Follows: s.store.Follows(),
		Content: s.posts,
		Tx:      s.store,
		JWT:     helpers.NewJWTManager("access", "refresh", time.Minute, time.Hour),
		Logger:  s.logger,
	}
	s.comments = &CommentService{Posts: s.store.Posts(), Comments: s.store.Comments(), Queue: s.queue, Logger: s.logger}
	s.likes = &LikeService{Posts: s.store.Posts(), Likes: s.store.Likes(), Logger: s.logger}
	s.follows = &FollowService{Authors: s.store.Authors(), Follows: s.store.Follows(), Logger: s.logger}
	s.tags = &TagService{Tags: s.store.Tags(), Tx: s.store, Logger: s.logger}
	s.reset = &PasswordResetService{
		Users:    s.store.Users(),
		Tokens:   helpers.NewResetTokenSigner("reset-secret", 72*time.Hour),
		Queue:    s.queue,
		ResetURL: "https://inkwell.test/reset/",
		Logger:   s.logger,
	}

	s.aliceP = s.register("alice", entity.RoleAuthor)
	s.alice = s.actor(s.aliceP)
	s.bob = s.actor(s.register("bob", entity.RoleAuthor))
	s.rita = s.actor(s.register("rita", entity.RoleReader))
}

func (s *ServiceSuite) register(name string, role entity.RoleName) *Profile {
	p, err := s.identity.Register(s.ctx, RegisterInput{
		Username: name,
		Email:    name + "@example.com",
		Password: "password123",
		Role:     role,
	})
	s.Require().NoError(err)
	return p
}

func (s *ServiceSuite) actor(p *Profile) policy.Actor {
	a, err := s.identity.ResolveActor(s.ctx, p.User.ID)
	s.Require().NoError(err)
	return a
}

func (s *ServiceSuite) authorID(a policy.Actor) string {
	return a.(policy.AuthorActor).AuthorID
}

func (s *ServiceSuite) createPost(actor policy.Actor, title string, status entity.PostStatus, tags ...string) *entity.Post {
	p, err := s.posts.Create(s.ctx, actor, CreatePostInput{Title: title, Content: "body of " + title, Status: status, Tags: tags})
	s.Require().NoError(err)
	return p
}

func (s *ServiceSuite) TestRegisterValidation() {
	_, err := s.identity.Register(s.ctx, RegisterInput{Email: "nope", Password: "x", Role: "admin"})
	s.ErrorIs(err, apperr.ErrValidation)
	fields := apperr.Details(err)
	s.Contains(fields, "username")
	s.Contains(fields, "email")
	s.Contains(fields, "password")
	s.Contains(fields, "role")

	_, err = s.identity.Register(s.ctx, RegisterInput{Username: "other", Email: "alice@example.com", Password: "password123", Role: entity.RoleReader})
	s.ErrorIs(err, apperr.ErrConflict)
	_, err = s.store.Users().GetByUsername(s.ctx, "other")
	s.ErrorIs(err, apperr.ErrNotFound, "failed registration must not leave a user behind")
}

func (s *ServiceSuite) TestResolveActor() {
	s.IsType(policy.AuthorActor{}, s.alice)
	s.IsType(policy.ReaderActor{}, s.rita)
	s.Equal(s.aliceP.Author.ID, s.authorID(s.alice))

	_, err := s.identity.ResolveActor(s.ctx, "missing")
	s.ErrorIs(err, apperr.ErrUnauthenticated)
}

func (s *ServiceSuite) TestLogin() {
	_, _, err := s.identity.Login(s.ctx, "alice@example.com", "wrong-password")
	s.ErrorIs(err, ErrInvalidCredentials)

	resp, pair, err := s.identity.Login(s.ctx, "ALICE@example.com", "password123")
	s.Require().NoError(err)
	s.Equal(entity.RoleAuthor, resp.Role)
	s.NotEmpty(pair.AccessToken)

	claims, err := s.identity.JWT.ParseAccessToken(pair.AccessToken)
	s.Require().NoError(err)
	s.Equal(resp.UserID, claims.UserID)

	u, err := s.store.Users().GetByID(s.ctx, resp.UserID)
	s.Require().NoError(err)
	s.NotNil(u.LastLoginAt)

	refreshed, uid, err := s.identity.Refresh(s.ctx, pair.RefreshToken)
	s.Require().NoError(err)
	s.Equal(resp.UserID, uid)
	s.NotEmpty(refreshed.AccessToken)

	_, _, err = s.identity.Refresh(s.ctx, pair.AccessToken)
	s.ErrorIs(err, apperr.ErrUnauthenticated)
}

func (s *ServiceSuite) TestDirectories() {
	authors, err := s.identity.ListAuthors(s.ctx, s.alice)
	s.Require().NoError(err)
	s.Len(authors, 2)

	_, err = s.identity.ListAuthors(s.ctx, s.rita)
	s.ErrorIs(err, apperr.ErrForbidden)
	_, err = s.identity.ListReaders(s.ctx, s.alice)
	s.ErrorIs(err, apperr.ErrForbidden)

	readers, err := s.identity.ListReaders(s.ctx, s.rita)
	s.Require().NoError(err)
	s.Require().Len(readers, 1)
	s.Equal("rita", readers[0].Username)

	_, err = s.identity.GetAuthor(s.ctx, s.bob, s.authorID(s.alice))
	s.ErrorIs(err, apperr.ErrForbidden)
	view, err := s.identity.UpdateAuthor(s.ctx, s.alice, s.authorID(s.alice), "writes about Go")
	s.Require().NoError(err)
	s.Equal("writes about Go", view.Author.Bio)
	s.Equal("alice", view.Username)
}

func (s *ServiceSuite) TestUpdateProfile() {
	bio := "hello"
	_, err := s.identity.UpdateProfile(s.ctx, s.rita, UpdateProfileInput{Bio: &bio})
	s.ErrorIs(err, apperr.ErrValidation)

	name := "alice2"
	p, err := s.identity.UpdateProfile(s.ctx, s.alice, UpdateProfileInput{Username: &name, Bio: &bio})
	s.Require().NoError(err)
	s.Equal("alice2", p.User.Username)
	s.Equal("hello", p.Author.Bio)
	s.Equal(entity.RoleAuthor, p.User.Role)
}

func (s *ServiceSuite) TestFollowLifecycle() {
	aid := s.authorID(s.alice)

	_, err := s.follows.Follow(s.ctx, s.rita, aid)
	s.Require().NoError(err)
	_, err = s.follows.Follow(s.ctx, s.rita, aid)
	s.ErrorIs(err, apperr.ErrConflict)

	followed, err := s.follows.ListFollowed(s.ctx, s.rita)
	s.Require().NoError(err)
	s.Len(followed, 1)
	followers, err := s.follows.ListFollowers(s.ctx, s.alice, aid)
	s.Require().NoError(err)
	s.Len(followers, 1)

	s.Require().NoError(s.follows.Unfollow(s.ctx, s.rita, aid))
	s.ErrorIs(s.follows.Unfollow(s.ctx, s.rita, aid), apperr.ErrNotFound)
}

func (s *ServiceSuite) TestFollowRules() {
	_, err := s.follows.Follow(s.ctx, s.bob, s.authorID(s.alice))
	s.ErrorIs(err, apperr.ErrForbidden)
	_, err = s.follows.Follow(s.ctx, s.rita, "no-such-author")
	s.ErrorIs(err, apperr.ErrNotFound)
	_, err = s.follows.ListFollowed(s.ctx, s.alice)
	s.ErrorIs(err, apperr.ErrForbidden)
}

func (s *ServiceSuite) TestConcurrentFollow() {
	aid := s.authorID(s.alice)
	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.follows.Follow(s.ctx, s.rita, aid)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, apperr.ErrConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()
	s.Equal(1, ok)
	s.Equal(n-1, conflicts)
	edges, err := s.store.Follows().ListByAuthor(s.ctx, aid)
	s.Require().NoError(err)
	s.Len(edges, 1)
}

func (s *ServiceSuite) TestDraftVisibility() {
	draft := s.createPost(s.alice, "Secret draft", entity.StatusDraft)

	got, err := s.posts.Get(s.ctx, s.alice, draft.ID)
	s.Require().NoError(err)
	s.Equal(draft.ID, got.ID)

	_, err = s.posts.Get(s.ctx, s.bob, draft.ID)
	s.ErrorIs(err, apperr.ErrForbidden)
	_, err = s.posts.Get(s.ctx, s.rita, draft.ID)
	s.ErrorIs(err, apperr.ErrForbidden)
	_, err = s.posts.Get(s.ctx, s.rita, "missing")
	s.ErrorIs(err, apperr.ErrNotFound)

	_, err = s.posts.Update(s.ctx, s.bob, draft.ID, UpdatePostInput{})
	s.ErrorIs(err, apperr.ErrForbidden)
	s.ErrorIs(s.posts.Delete(s.ctx, s.bob, draft.ID), apperr.ErrForbidden)
}

func (s *ServiceSuite) TestPublishedReadableByAll() {
	post := s.createPost(s.alice, "Hello world", entity.StatusPublished)
	for _, a := range []policy.Actor{s.alice, s.bob, s.rita} {
		got, err := s.posts.Get(s.ctx, a, post.ID)
		s.Require().NoError(err)
		s.Equal("Hello world", got.Title)
	}
	_, err := s.posts.Get(s.ctx, nil, post.ID)
	s.ErrorIs(err, apperr.ErrUnauthenticated)
}

func (s *ServiceSuite) TestCreatePostRules() {
	_, err := s.posts.Create(s.ctx, s.rita, CreatePostInput{Title: "t", Content: "c"})
	s.ErrorIs(err, apperr.ErrForbidden)

	_, err = s.posts.Create(s.ctx, s.alice, CreatePostInput{Status: "archived"})
	s.ErrorIs(err, apperr.ErrValidation)
	s.Len(apperr.Details(err), 3)

	p := s.createPost(s.alice, "Defaults", "")
	s.Equal(entity.StatusDraft, p.Status)
	s.Zero(s.queue.count(notification.KindPostPublished))
}

func (s *ServiceSuite) TestTagReferences() {
	existing, err := s.tags.Create(s.ctx, s.rita, "go")
	s.Require().NoError(err)
	_, err = s.tags.Create(s.ctx, s.alice, "go")
	s.ErrorIs(err, apperr.ErrConflict)

	p := s.createPost(s.alice, "Tagged", entity.StatusPublished, existing.ID, "systems", "go", "systems")
	s.Require().Len(p.Tags, 2)
	s.ElementsMatch([]string{"go", "systems"}, []string{p.Tags[0].Name, p.Tags[1].Name})

	_, err = s.posts.Create(s.ctx, s.alice, CreatePostInput{
		Title:   "Bad tag",
		Content: "c",
		Tags:    []string{"0b3a4e38-6c55-4c1e-9a43-2f0a3c5a9e11"},
	})
	s.ErrorIs(err, apperr.ErrValidation)
	s.Contains(apperr.Details(err), "tags")

	all, err := s.tags.List(s.ctx, s.alice)
	s.Require().NoError(err)
	s.Len(all, 2)

	cleared := []string{}
	updated, err := s.posts.Update(s.ctx, s.alice, p.ID, UpdatePostInput{Tags: &cleared})
	s.Require().NoError(err)
	s.Empty(updated.Tags)
}

func (s *ServiceSuite) TestListFiltersAndSearch() {
	goTag, err := s.tags.Create(s.ctx, s.alice, "go")
	s.Require().NoError(err)
	sysTag, err := s.tags.Create(s.ctx, s.alice, "systems")
	s.Require().NoError(err)

	s.createPost(s.alice, "Goroutines", entity.StatusPublished, goTag.ID)
	s.createPost(s.alice, "Kernels", entity.StatusPublished, sysTag.ID, goTag.ID)
	s.createPost(s.alice, "Gardening", entity.StatusPublished)
	s.createPost(s.alice, "The SCHEDULER internals", entity.StatusPublished)
	s.createPost(s.alice, "Draft on schedulers", entity.StatusDraft)
	body, err := s.posts.Create(s.ctx, s.bob, CreatePostInput{Title: "Queues", Content: "a fair scheduler", Status: entity.StatusPublished})
	s.Require().NoError(err)
	s.createPost(s.bob, "Timers", entity.StatusPublished, "Scheduler")

	page, err := s.posts.List(s.ctx, s.rita, visibility.Query{TagIDs: []string{goTag.ID, sysTag.ID}})
	s.Require().NoError(err)
	s.Equal(2, page.Count, "tag filter is OR-ed and returns each post once")

	page, err = s.posts.List(s.ctx, s.rita, visibility.Query{Search: "scheduler"})
	s.Require().NoError(err)
	s.Equal(3, page.Count)
	titles := make([]string, 0, len(page.Items))
	for _, p := range page.Items {
		titles = append(titles, p.Title)
	}
	s.ElementsMatch([]string{"The SCHEDULER internals", body.Title, "Timers"}, titles)

	page, err = s.posts.List(s.ctx, s.alice, visibility.Query{Search: "scheduler"})
	s.Require().NoError(err)
	s.Equal(2, page.Count, "authors see their own drafts and nothing of other authors")

	page, err = s.posts.List(s.ctx, s.bob, visibility.Query{})
	s.Require().NoError(err)
	s.Equal(2, page.Count)
}

func (s *ServiceSuite) TestPagination() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	i := 0
	s.store.Clock = func() time.Time {
		i++
		return base.Add(time.Duration(i) * time.Minute)
	}
	for n := 0; n < 25; n++ {
		s.createPost(s.alice, fmt.Sprintf("post %02d", n), entity.StatusPublished)
	}

	first, err := s.posts.List(s.ctx, s.rita, visibility.Query{Page: 1})
	s.Require().NoError(err)
	s.Len(first.Items, 10)
	s.Equal(25, first.Count)
	s.True(first.HasNext)
	s.False(first.HasPrevious)
	s.Equal("post 24", first.Items[0].Title)

	second, err := s.posts.List(s.ctx, s.rita, visibility.Query{Page: 2})
	s.Require().NoError(err)
	s.Len(second.Items, 10)
	s.True(second.HasNext)

	third, err := s.posts.List(s.ctx, s.rita, visibility.Query{Page: 3})
	s.Require().NoError(err)
	s.Len(third.Items, 5)
	s.False(third.HasNext)
	s.True(third.HasPrevious)
	s.Equal("post 00", third.Items[4].Title)

	_, err = s.posts.List(s.ctx, s.rita, visibility.Query{Page: 4})
	s.ErrorIs(err, apperr.ErrNotFound)
	_, err = s.posts.List(s.ctx, s.rita, visibility.Query{Page: -1})
	s.ErrorIs(err, apperr.ErrValidation)
}

func (s *ServiceSuite) TestLikeLifecycle() {
	post := s.createPost(s.alice, "Likeable", entity.StatusPublished)

	_, err := s.likes.Like(s.ctx, s.rita, post.ID)
	s.Require().NoError(err)
	_, err = s.likes.Like(s.ctx, s.rita, post.ID)
	s.ErrorIs(err, apperr.ErrConflict)
	_, err = s.likes.Like(s.ctx, s.bob, post.ID)
	s.Require().NoError(err)

	likes, err := s.likes.List(s.ctx, s.alice, post.ID)
	s.Require().NoError(err)
	s.Len(likes, 2)

	s.Require().NoError(s.likes.Unlike(s.ctx, s.rita, post.ID))
	s.ErrorIs(s.likes.Unlike(s.ctx, s.rita, post.ID), apperr.ErrNotFound)
	_, err = s.likes.Like(s.ctx, s.rita, "missing")
	s.ErrorIs(err, apperr.ErrNotFound)
}

func (s *ServiceSuite) TestComments() {
	post := s.createPost(s.alice, "Discuss", entity.StatusPublished)
	other := s.createPost(s.alice, "Elsewhere", entity.StatusPublished)

	c, err := s.comments.Create(s.ctx, s.rita, post.ID, "nice")
	s.Require().NoError(err)
	s.Equal(1, s.queue.count(notification.KindCommentCreated))

	_, err = s.comments.Create(s.ctx, s.rita, post.ID, "  ")
	s.ErrorIs(err, apperr.ErrValidation)

	_, err = s.comments.Get(s.ctx, s.bob, other.ID, c.ID)
	s.ErrorIs(err, apperr.ErrNotFound)

	_, err = s.comments.Update(s.ctx, s.bob, post.ID, c.ID, "hijack")
	s.ErrorIs(err, apperr.ErrForbidden)
	updated, err := s.comments.Update(s.ctx, s.rita, post.ID, c.ID, "very nice")
	s.Require().NoError(err)
	s.Equal("very nice", updated.Content)

	list, err := s.comments.List(s.ctx, s.bob, post.ID)
	s.Require().NoError(err)
	s.Len(list, 1)

	s.ErrorIs(s.comments.Delete(s.ctx, s.alice, post.ID, c.ID), apperr.ErrForbidden)
	s.Require().NoError(s.comments.Delete(s.ctx, s.rita, post.ID, c.ID))
}

func (s *ServiceSuite) TestDeleteCascades() {
	post := s.createPost(s.alice, "Doomed", entity.StatusPublished, "go")
	c, err := s.comments.Create(s.ctx, s.rita, post.ID, "first")
	s.Require().NoError(err)
	_, err = s.likes.Like(s.ctx, s.rita, post.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.posts.Delete(s.ctx, s.alice, post.ID))

	_, err = s.posts.Get(s.ctx, s.alice, post.ID)
	s.ErrorIs(err, apperr.ErrNotFound)
	_, err = s.store.Comments().GetByID(s.ctx, c.ID)
	s.ErrorIs(err, apperr.ErrNotFound)
	_, err = s.store.Likes().Get(s.ctx, s.rita.UserID(), post.ID)
	s.ErrorIs(err, apperr.ErrNotFound)
	_, err = s.comments.List(s.ctx, s.rita, post.ID)
	s.ErrorIs(err, apperr.ErrNotFound)
}

func (s *ServiceSuite) TestFollowerNotificationPolicy() {
	draft := s.createPost(s.alice, "Later", entity.StatusDraft)
	s.Zero(s.queue.count(notification.KindPostPublished))

	title := "Later, retitled"
	_, err := s.posts.Update(s.ctx, s.alice, draft.ID, UpdatePostInput{Title: &title})
	s.Require().NoError(err)
	s.Zero(s.queue.count(notification.KindPostPublished), "draft edits stay quiet")

	published := entity.StatusPublished
	_, err = s.posts.Update(s.ctx, s.alice, draft.ID, UpdatePostInput{Status: &published})
	s.Require().NoError(err)
	s.Equal(1, s.queue.count(notification.KindPostPublished))

	_, err = s.posts.Update(s.ctx, s.alice, draft.ID, UpdatePostInput{Title: &title})
	s.Require().NoError(err)
	s.Equal(2, s.queue.count(notification.KindPostPublished))

	s.posts.NotifyOn = NotifyOnPublish
	_, err = s.posts.Update(s.ctx, s.alice, draft.ID, UpdatePostInput{Title: &title})
	s.Require().NoError(err)
	s.Equal(2, s.queue.count(notification.KindPostPublished))
}

func (s *ServiceSuite) TestIndexingJobs() {
	s.posts.Indexing = true
	post := s.createPost(s.alice, "Indexed", entity.StatusPublished)
	s.Require().NoError(s.posts.Delete(s.ctx, s.alice, post.ID))
	s.Equal(1, s.queue.count(notification.KindPostIndex))
	s.Equal(1, s.queue.count(notification.KindPostUnindex))
}

type stubSearcher []string

func (s stubSearcher) SearchIDs(context.Context, string, int) ([]string, error) {
	return s, nil
}

func (s *ServiceSuite) TestDiscover() {
	pub := s.createPost(s.alice, "Searchable", entity.StatusPublished)
	draft := s.createPost(s.alice, "Hidden", entity.StatusDraft)

	_, err := s.posts.Discover(s.ctx, s.rita, "x", 10)
	s.Error(err)

	s.posts.Searcher = stubSearcher{pub.ID, draft.ID, "gone"}
	found, err := s.posts.Discover(s.ctx, s.rita, "searchable", 10)
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal(pub.ID, found[0].ID)

	_, err = s.posts.Discover(s.ctx, s.rita, " ", 10)
	s.ErrorIs(err, apperr.ErrValidation)
}

func (s *ServiceSuite) requestReset(email string) (uidb64, token string) {
	s.Require().NoError(s.reset.Request(s.ctx, email))
	s.queue.mu.Lock()
	job := s.queue.jobs[len(s.queue.jobs)-1]
	s.queue.mu.Unlock()
	s.Require().Equal(notification.KindPasswordReset, job.Kind)

	var payload notification.PasswordResetPayload
	s.Require().NoError(json.Unmarshal(job.Payload, &payload))
	parts := strings.Split(strings.TrimSuffix(strings.TrimPrefix(payload.ResetURL, "https://inkwell.test/reset/"), "/"), "/")
	s.Require().Len(parts, 2)
	return parts[0], parts[1]
}

func (s *ServiceSuite) TestPasswordResetConfirm() {
	uid, token := s.requestReset("rita@example.com")

	err := s.reset.Confirm(s.ctx, uid, token, "")
	s.ErrorIs(err, apperr.ErrValidation)
	s.Contains(apperr.Details(err), "new_password")

	s.Require().NoError(s.reset.Confirm(s.ctx, uid, token, "brand-new-pass"))
	_, err = s.identity.Authenticate(s.ctx, "rita@example.com", "brand-new-pass")
	s.NoError(err)

	s.ErrorIs(s.reset.Confirm(s.ctx, uid, token, "another-pass"), apperr.ErrInvalidToken, "tokens are single use")
}

func (s *ServiceSuite) TestPasswordResetInvalidatedByPasswordChange() {
	uid, token := s.requestReset("rita@example.com")
	u, err := s.store.Users().GetByID(s.ctx, s.rita.UserID())
	s.Require().NoError(err)
	hash, err := helpers.HashPassword("changed-directly")
	s.Require().NoError(err)
	s.Require().NoError(s.store.Users().UpdatePassword(s.ctx, u.ID, u.Password, hash))

	s.ErrorIs(s.reset.Confirm(s.ctx, uid, token, "whatever-pass"), apperr.ErrInvalidToken)
}

func (s *ServiceSuite) TestPasswordResetInvalidatedByLogin() {
	uid, token := s.requestReset("rita@example.com")
	_, _, err := s.identity.Login(s.ctx, "rita@example.com", "password123")
	s.Require().NoError(err)

	s.ErrorIs(s.reset.Confirm(s.ctx, uid, token, "whatever-pass"), apperr.ErrInvalidToken)
}

func (s *ServiceSuite) TestPasswordResetBadInput() {
	s.ErrorIs(s.reset.Request(s.ctx, "nobody@example.com"), apperr.ErrNotFound)

	uid, token := s.requestReset("rita@example.com")
	s.ErrorIs(s.reset.Confirm(s.ctx, "%%%", token, "whatever-pass"), apperr.ErrInvalidToken)
	s.ErrorIs(s.reset.Confirm(s.ctx, helpers.EncodeUID("missing"), token, "whatever-pass"), apperr.ErrInvalidToken)
	s.ErrorIs(s.reset.Confirm(s.ctx, helpers.EncodeUID(s.alice.UserID()), token, "whatever-pass"), apperr.ErrInvalidToken)
	s.ErrorIs(s.reset.Confirm(s.ctx, uid, token+"x", "whatever-pass"), apperr.ErrInvalidToken)
}

func (s *ServiceSuite) TestPasswordResetConcurrentConfirmSingleUse() {
	uid, token := s.requestReset("rita@example.com")
	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		invalid int
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			err := s.reset.Confirm(s.ctx, uid, token, fmt.Sprintf("new-password-%d", i))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, apperr.ErrInvalidToken):
				invalid++
			}
		}(i)
	}
	close(start)
	wg.Wait()
	s.Equal(1, ok)
	s.Equal(n-1, invalid)
}

// interleavedUsers changes the password right before the reset write lands,
// as a second confirm finishing first would.
type interleavedUsers struct {
	repo.UserRepository
	competing string
}

func (u *interleavedUsers) UpdatePassword(ctx context.Context, id, oldHash, newHash string) error {
	if err := u.UserRepository.UpdatePassword(ctx, id, oldHash, u.competing); err != nil {
		return err
	}
	return u.UserRepository.UpdatePassword(ctx, id, oldHash, newHash)
}

func (s *ServiceSuite) TestPasswordResetLosesToEarlierWrite() {
	uid, token := s.requestReset("rita@example.com")
	competing, err := helpers.HashPassword("the-winner-pass")
	s.Require().NoError(err)
	s.reset.Users = &interleavedUsers{UserRepository: s.store.Users(), competing: competing}

	s.ErrorIs(s.reset.Confirm(s.ctx, uid, token, "the-loser-pass"), apperr.ErrInvalidToken)
	_, err = s.identity.Authenticate(s.ctx, "rita@example.com", "the-winner-pass")
	s.NoError(err)
}

// orderedPosts and orderedLikes record the order of the delete steps.
type orderedPosts struct {
	repo.PostRepository
	steps *[]string
}

func (p orderedPosts) Lock(ctx context.Context, id string) error {
	*p.steps = append(*p.steps, "lock")
	return p.PostRepository.Lock(ctx, id)
}

func (p orderedPosts) Delete(ctx context.Context, id string) error {
	*p.steps = append(*p.steps, "delete post")
	return p.PostRepository.Delete(ctx, id)
}

type orderedLikes struct {
	repo.LikeRepository
	steps *[]string
}

func (l orderedLikes) DeleteByPost(ctx context.Context, postID string) (int64, error) {
	*l.steps = append(*l.steps, "delete likes")
	return l.LikeRepository.DeleteByPost(ctx, postID)
}

func (s *ServiceSuite) TestDeleteLocksPostBeforeChildren() {
	post := s.createPost(s.alice, "Locked", entity.StatusPublished)
	var steps []string
	s.posts.Posts = orderedPosts{PostRepository: s.store.Posts(), steps: &steps}
	s.posts.Likes = orderedLikes{LikeRepository: s.store.Likes(), steps: &steps}

	s.Require().NoError(s.posts.Delete(s.ctx, s.alice, post.ID))
	s.Equal([]string{"lock", "delete likes", "delete post"}, steps)
}

func (s *ServiceSuite) TestTagUpdateAndDelete() {
	goTag, err := s.tags.Create(s.ctx, s.rita, "go")
	s.Require().NoError(err)
	rust, err := s.tags.Create(s.ctx, s.rita, "rust")
	s.Require().NoError(err)
	post := s.createPost(s.alice, "Tagged", entity.StatusPublished, goTag.ID, rust.ID)

	_, err = s.tags.Update(s.ctx, s.alice, goTag.ID, "rust")
	s.ErrorIs(err, apperr.ErrConflict)
	_, err = s.tags.Update(s.ctx, s.alice, goTag.ID, " ")
	s.ErrorIs(err, apperr.ErrValidation)
	_, err = s.tags.Update(s.ctx, s.alice, "missing", "zig")
	s.ErrorIs(err, apperr.ErrNotFound)

	renamed, err := s.tags.Update(s.ctx, s.alice, goTag.ID, "golang")
	s.Require().NoError(err)
	s.Equal("golang", renamed.Name)
	same, err := s.tags.Update(s.ctx, s.alice, goTag.ID, "golang")
	s.Require().NoError(err)
	s.Equal(goTag.ID, same.ID)

	got, err := s.posts.Get(s.ctx, s.rita, post.ID)
	s.Require().NoError(err)
	s.ElementsMatch([]string{"golang", "rust"}, []string{got.Tags[0].Name, got.Tags[1].Name})

	s.Require().NoError(s.tags.Delete(s.ctx, s.rita, rust.ID))
	s.ErrorIs(s.tags.Delete(s.ctx, s.rita, rust.ID), apperr.ErrNotFound)
	got, err = s.posts.Get(s.ctx, s.rita, post.ID)
	s.Require().NoError(err)
	s.Require().Len(got.Tags, 1)
	s.Equal("golang", got.Tags[0].Name)

	page, err := s.posts.List(s.ctx, s.rita, visibility.Query{TagIDs: []string{rust.ID}})
	s.Require().NoError(err)
	s.Zero(page.Count)
}

func (s *ServiceSuite) TestDeleteAuthorProfile() {
	aid := s.authorID(s.alice)
	post := s.createPost(s.alice, "Gone soon", entity.StatusPublished, "go")
	draft := s.createPost(s.alice, "Unfinished", entity.StatusDraft)
	_, err := s.comments.Create(s.ctx, s.rita, post.ID, "nice")
	s.Require().NoError(err)
	_, err = s.likes.Like(s.ctx, s.bob, post.ID)
	s.Require().NoError(err)
	_, err = s.follows.Follow(s.ctx, s.rita, aid)
	s.Require().NoError(err)
	kept := s.createPost(s.bob, "Bob stays", entity.StatusPublished)
	s.posts.Indexing = true

	s.ErrorIs(s.identity.DeleteAuthor(s.ctx, s.bob, aid), apperr.ErrForbidden)
	s.ErrorIs(s.identity.DeleteAuthor(s.ctx, s.rita, aid), apperr.ErrForbidden)
	s.Require().NoError(s.identity.DeleteAuthor(s.ctx, s.alice, aid))
	s.ErrorIs(s.identity.DeleteAuthor(s.ctx, s.alice, aid), apperr.ErrNotFound)

	for _, id := range []string{post.ID, draft.ID} {
		_, err = s.store.Posts().GetByID(s.ctx, id)
		s.ErrorIs(err, apperr.ErrNotFound)
	}
	_, err = s.store.Likes().Get(s.ctx, s.bob.UserID(), post.ID)
	s.ErrorIs(err, apperr.ErrNotFound)
	followed, err := s.follows.ListFollowed(s.ctx, s.rita)
	s.Require().NoError(err)
	s.Empty(followed)
	_, err = s.posts.Get(s.ctx, s.rita, kept.ID)
	s.NoError(err)
	s.Equal(2, s.queue.count(notification.KindPostUnindex))

	ghost, err := s.identity.ResolveActor(s.ctx, s.alice.UserID())
	s.Require().NoError(err)
	s.Equal(policy.AuthorActor{UID: s.alice.UserID()}, ghost)
	_, err = s.posts.Create(s.ctx, ghost, CreatePostInput{Title: "t", Content: "c"})
	s.ErrorIs(err, apperr.ErrForbidden)
	profile, err := s.identity.GetProfile(s.ctx, s.alice.UserID())
	s.Require().NoError(err)
	s.Nil(profile.Author)
}

func (s *ServiceSuite) TestDeleteReaderProfile() {
	rid := s.rita.(policy.ReaderActor).ReaderID
	aid := s.authorID(s.alice)
	_, err := s.follows.Follow(s.ctx, s.rita, aid)
	s.Require().NoError(err)
	c, err := s.comments.Create(s.ctx, s.rita, s.createPost(s.alice, "Open", entity.StatusPublished).ID, "kept")
	s.Require().NoError(err)

	s.ErrorIs(s.identity.DeleteReader(s.ctx, s.alice, rid), apperr.ErrForbidden)
	s.Require().NoError(s.identity.DeleteReader(s.ctx, s.rita, rid))
	s.ErrorIs(s.identity.DeleteReader(s.ctx, s.rita, rid), apperr.ErrNotFound)

	followers, err := s.follows.ListFollowers(s.ctx, s.alice, aid)
	s.Require().NoError(err)
	s.Empty(followers)
	_, err = s.store.Comments().GetByID(s.ctx, c.ID)
	s.NoError(err, "comments belong to the account, not the profile")

	ghost, err := s.identity.ResolveActor(s.ctx, s.rita.UserID())
	s.Require().NoError(err)
	_, err = s.follows.Follow(s.ctx, ghost, aid)
	s.ErrorIs(err, apperr.ErrForbidden)
	_, err = s.identity.ListReaders(s.ctx, ghost)
	s.NoError(err)
}
