package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/inkwell/config"
	"github.com/oksasatya/inkwell/internal/container"
	"github.com/oksasatya/inkwell/internal/infrastructure/memory"
	"github.com/oksasatya/inkwell/internal/interface/middleware"
	"github.com/oksasatya/inkwell/internal/notification"
	"github.com/oksasatya/inkwell/pkg/helpers"
)

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

type discardQueue struct{}

func (discardQueue) Enqueue(notification.Job) error { return nil }

type APISuite struct {
	suite.Suite
	engine *gin.Engine

	aliceToken string
	bobToken   string
	ritaToken  string
	aliceID    string
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	helpers.PasswordCost = bcrypt.MinCost
	gin.SetMode(gin.TestMode)

	container.SetConfig(&config.Config{
		Env:               "test",
		ResetTokenSecret:  "reset-secret",
		ResetTokenTTL:     time.Hour,
		ResetPasswordURL:  "http://localhost/reset",
		NotifyFollowersOn: "all",
	})
	container.SetLogger(helpers.Quiet())
	container.SetJWT(helpers.NewJWTManager("access", "refresh", time.Hour, 2*time.Hour))
	container.SetRedis(nil)
	container.SetES(nil)

	svc := container.NewServices(container.MemoryRepositories(memory.NewStore()), discardQueue{})
	s.engine = gin.New()
	s.engine.Use(middleware.RequestIDMiddleware())
	reg := NewRegistry(s.engine)
	InitModules(reg, svc)
	reg.RegisterAll()

	var alice struct {
		AuthorID string `json:"author_id"`
	}
	s.decode(s.do(http.MethodPost, "/api/register", "", map[string]any{
		"username": "alice", "email": "alice@example.com", "password": "password123", "role": "author",
	}, http.StatusCreated), &alice)
	s.aliceID = alice.AuthorID
	s.Require().NotEmpty(s.aliceID)
	s.do(http.MethodPost, "/api/register", "", map[string]any{
		"username": "bob", "email": "bob@example.com", "password": "password123", "role": "author",
	}, http.StatusCreated)
	s.do(http.MethodPost, "/api/register", "", map[string]any{
		"username": "rita", "email": "rita@example.com", "password": "password123", "role": "reader",
	}, http.StatusCreated)

	s.aliceToken = s.login("alice@example.com")
	s.bobToken = s.login("bob@example.com")
	s.ritaToken = s.login("rita@example.com")
}

func (s *APISuite) do(method, path, token string, body any, want int) envelope {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		s.Require().NoError(err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	s.Require().Equal(want, w.Code, "%s %s: %s", method, path, w.Body.String())

	var env envelope
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func (s *APISuite) decode(env envelope, dst any) {
	s.Require().NoError(json.Unmarshal(env.Data, dst))
}

func (s *APISuite) login(email string) string {
	var out struct {
		AccessToken string `json:"access_token"`
	}
	s.decode(s.do(http.MethodPost, "/api/login", "", map[string]any{"email": email, "password": "password123"}, http.StatusOK), &out)
	s.Require().NotEmpty(out.AccessToken)
	return out.AccessToken
}

func (s *APISuite) createPost(token, title, status string) string {
	var p struct {
		ID string `json:"id"`
	}
	s.decode(s.do(http.MethodPost, "/api/posts", token, map[string]any{
		"title": title, "content": "content of " + title, "status": status, "tags": []string{"go"},
	}, http.StatusCreated), &p)
	return p.ID
}

func (s *APISuite) TestUnauthenticated() {
	s.do(http.MethodGet, "/api/posts", "", nil, http.StatusUnauthorized)
	s.do(http.MethodGet, "/api/posts", "garbage", nil, http.StatusUnauthorized)
	s.do(http.MethodGet, "/api/nowhere", "", nil, http.StatusNotFound)
}

func (s *APISuite) TestRegisterValidation() {
	env := s.do(http.MethodPost, "/api/register", "", map[string]any{"email": "nope", "role": "admin"}, http.StatusBadRequest)
	var details map[string]string
	s.Require().NoError(json.Unmarshal(env.Error, &details))
	s.Contains(details, "username")
	s.Contains(details, "email")
	s.Contains(details, "password")
	s.Equal("must be one of: author, reader", details["role"])

	s.do(http.MethodPost, "/api/register", "", map[string]any{
		"username": "alice2", "email": "alice@example.com", "password": "password123", "role": "reader",
	}, http.StatusConflict)
	s.do(http.MethodPost, "/api/login", "", map[string]any{"email": "alice@example.com", "password": "wrong-pass"}, http.StatusUnauthorized)
}

func (s *APISuite) TestDraftIsForbiddenNotHidden() {
	id := s.createPost(s.aliceToken, "Draft", "draft")

	s.do(http.MethodGet, "/api/posts/"+id, s.aliceToken, nil, http.StatusOK)
	s.do(http.MethodGet, "/api/posts/"+id, s.bobToken, nil, http.StatusForbidden)
	s.do(http.MethodGet, "/api/posts/"+id, s.ritaToken, nil, http.StatusForbidden)
	s.do(http.MethodGet, "/api/posts/does-not-exist", s.ritaToken, nil, http.StatusNotFound)
	s.do(http.MethodPut, "/api/posts/"+id, s.bobToken, map[string]any{"title": "mine"}, http.StatusForbidden)

	s.do(http.MethodPut, "/api/posts/"+id, s.aliceToken, map[string]any{"status": "published"}, http.StatusOK)
	s.do(http.MethodGet, "/api/posts/"+id, s.ritaToken, nil, http.StatusOK)
	s.do(http.MethodGet, "/api/posts/"+id, s.bobToken, nil, http.StatusOK)

	s.do(http.MethodPost, "/api/posts", s.ritaToken, map[string]any{"title": "t", "content": "c"}, http.StatusForbidden)
	s.do(http.MethodPut, "/api/posts/"+id, s.aliceToken, map[string]any{"status": "archived"}, http.StatusBadRequest)
}

func (s *APISuite) TestListPosts() {
	s.createPost(s.aliceToken, "One", "published")
	s.createPost(s.aliceToken, "Two", "draft")
	s.createPost(s.bobToken, "Three", "published")

	var page struct {
		Results []struct {
			Title string `json:"title"`
		} `json:"results"`
		Count   int  `json:"count"`
		HasNext bool `json:"has_next"`
	}
	s.decode(s.do(http.MethodGet, "/api/posts", s.ritaToken, nil, http.StatusOK), &page)
	s.Equal(2, page.Count)
	s.False(page.HasNext)

	s.decode(s.do(http.MethodGet, "/api/posts?search=two", s.aliceToken, nil, http.StatusOK), &page)
	s.Equal(1, page.Count)

	s.do(http.MethodGet, "/api/posts?page=0", s.ritaToken, nil, http.StatusBadRequest)
	s.do(http.MethodGet, "/api/posts?page=abc", s.ritaToken, nil, http.StatusBadRequest)
	s.do(http.MethodGet, "/api/posts?page=2", s.ritaToken, nil, http.StatusNotFound)
	s.do(http.MethodGet, "/api/posts?start_date=yesterday", s.ritaToken, nil, http.StatusBadRequest)
	s.do(http.MethodGet, "/api/posts?start_date=2030-01-02&end_date=2030-01-01", s.ritaToken, nil, http.StatusBadRequest)
}

func (s *APISuite) TestFollowAndLike() {
	path := "/api/authors/" + s.aliceID + "/follow"
	s.do(http.MethodPost, path, s.ritaToken, nil, http.StatusCreated)
	s.do(http.MethodPost, path, s.ritaToken, nil, http.StatusConflict)
	s.do(http.MethodPost, path, s.bobToken, nil, http.StatusForbidden)

	var following []map[string]any
	s.decode(s.do(http.MethodGet, "/api/following", s.ritaToken, nil, http.StatusOK), &following)
	s.Len(following, 1)

	s.do(http.MethodDelete, path, s.ritaToken, nil, http.StatusOK)
	s.do(http.MethodDelete, path, s.ritaToken, nil, http.StatusNotFound)
	s.do(http.MethodPost, "/api/authors/missing/follow", s.ritaToken, nil, http.StatusNotFound)

	id := s.createPost(s.aliceToken, "Likeable", "published")
	s.do(http.MethodPost, "/api/posts/"+id+"/like", s.ritaToken, nil, http.StatusCreated)
	s.do(http.MethodPost, "/api/posts/"+id+"/like", s.ritaToken, nil, http.StatusConflict)
	s.do(http.MethodDelete, "/api/posts/"+id+"/like", s.ritaToken, nil, http.StatusOK)
	s.do(http.MethodDelete, "/api/posts/"+id+"/like", s.ritaToken, nil, http.StatusNotFound)
}

func (s *APISuite) TestCommentsAndCascade() {
	id := s.createPost(s.aliceToken, "Talk", "published")
	var c struct {
		ID string `json:"id"`
	}
	s.decode(s.do(http.MethodPost, "/api/posts/"+id+"/comments", s.ritaToken, map[string]any{"content": "hi"}, http.StatusCreated), &c)
	s.do(http.MethodPost, "/api/posts/"+id+"/comments", s.ritaToken, map[string]any{}, http.StatusBadRequest)
	s.do(http.MethodPut, "/api/posts/"+id+"/comments/"+c.ID, s.bobToken, map[string]any{"content": "x"}, http.StatusForbidden)
	s.do(http.MethodGet, "/api/posts/"+id+"/comments/"+c.ID, s.bobToken, nil, http.StatusOK)

	s.do(http.MethodDelete, "/api/posts/"+id, s.bobToken, nil, http.StatusForbidden)
	s.do(http.MethodDelete, "/api/posts/"+id, s.aliceToken, nil, http.StatusOK)
	s.do(http.MethodGet, "/api/posts/"+id, s.aliceToken, nil, http.StatusNotFound)
	s.do(http.MethodGet, "/api/posts/"+id+"/comments", s.ritaToken, nil, http.StatusNotFound)
}

func (s *APISuite) TestDirectories() {
	s.do(http.MethodGet, "/api/authors", s.aliceToken, nil, http.StatusOK)
	s.do(http.MethodGet, "/api/authors", s.ritaToken, nil, http.StatusForbidden)
	s.do(http.MethodGet, "/api/readers", s.ritaToken, nil, http.StatusOK)
	s.do(http.MethodGet, "/api/readers", s.bobToken, nil, http.StatusForbidden)
	s.do(http.MethodGet, "/api/authors/"+s.aliceID, s.bobToken, nil, http.StatusForbidden)
	s.do(http.MethodPut, "/api/authors/"+s.aliceID, s.aliceToken, map[string]any{"bio": "hi"}, http.StatusOK)

	var profile struct {
		Username string  `json:"username"`
		AuthorID string  `json:"author_id"`
		Bio      *string `json:"bio"`
	}
	s.decode(s.do(http.MethodGet, "/api/profile", s.aliceToken, nil, http.StatusOK), &profile)
	s.Equal("alice", profile.Username)
	s.Equal(s.aliceID, profile.AuthorID)
	s.Require().NotNil(profile.Bio)
	s.Equal("hi", *profile.Bio)
}

func (s *APISuite) TestTags() {
	var tag struct {
		ID string `json:"id"`
	}
	s.decode(s.do(http.MethodPost, "/api/tags", s.ritaToken, map[string]any{"name": "systems"}, http.StatusCreated), &tag)
	s.do(http.MethodPost, "/api/tags", s.aliceToken, map[string]any{"name": "systems"}, http.StatusConflict)
	s.do(http.MethodGet, "/api/tags/"+tag.ID, s.aliceToken, nil, http.StatusOK)
	s.do(http.MethodGet, "/api/tags/missing", s.aliceToken, nil, http.StatusNotFound)

	s.createPost(s.aliceToken, "Tagged", "published")
	s.do(http.MethodPut, "/api/tags/"+tag.ID, s.bobToken, map[string]any{"name": "go"}, http.StatusConflict)
	s.do(http.MethodPut, "/api/tags/"+tag.ID, s.bobToken, map[string]any{}, http.StatusBadRequest)
	var renamed struct {
		Name string `json:"name"`
	}
	s.decode(s.do(http.MethodPut, "/api/tags/"+tag.ID, s.bobToken, map[string]any{"name": "kernels"}, http.StatusOK), &renamed)
	s.Equal("kernels", renamed.Name)

	s.do(http.MethodDelete, "/api/tags/"+tag.ID, s.ritaToken, nil, http.StatusOK)
	s.do(http.MethodDelete, "/api/tags/"+tag.ID, s.ritaToken, nil, http.StatusNotFound)
	s.do(http.MethodGet, "/api/tags/"+tag.ID, s.ritaToken, nil, http.StatusNotFound)
}

func (s *APISuite) TestDeleteProfiles() {
	id := s.createPost(s.aliceToken, "Farewell", "published")
	s.do(http.MethodPost, "/api/authors/"+s.aliceID+"/follow", s.ritaToken, nil, http.StatusCreated)

	s.do(http.MethodDelete, "/api/authors/"+s.aliceID, s.bobToken, nil, http.StatusForbidden)
	s.do(http.MethodDelete, "/api/authors/"+s.aliceID, s.aliceToken, nil, http.StatusOK)
	s.do(http.MethodDelete, "/api/authors/"+s.aliceID, s.aliceToken, nil, http.StatusNotFound)
	s.do(http.MethodGet, "/api/posts/"+id, s.ritaToken, nil, http.StatusNotFound)
	s.do(http.MethodPost, "/api/posts", s.aliceToken, map[string]any{"title": "t", "content": "c"}, http.StatusForbidden)

	var following []map[string]any
	s.decode(s.do(http.MethodGet, "/api/following", s.ritaToken, nil, http.StatusOK), &following)
	s.Empty(following)

	var rita struct {
		ReaderID string `json:"reader_id"`
	}
	s.decode(s.do(http.MethodGet, "/api/profile", s.ritaToken, nil, http.StatusOK), &rita)
	s.Require().NotEmpty(rita.ReaderID)
	s.do(http.MethodDelete, "/api/readers/"+rita.ReaderID, s.bobToken, nil, http.StatusForbidden)
	s.do(http.MethodDelete, "/api/readers/"+rita.ReaderID, s.ritaToken, nil, http.StatusOK)
	s.do(http.MethodGet, "/api/following", s.ritaToken, nil, http.StatusForbidden)
	s.do(http.MethodGet, "/api/profile", s.ritaToken, nil, http.StatusOK)
}

func (s *APISuite) TestPasswordReset() {
	s.do(http.MethodPost, "/api/password-reset", "", map[string]any{"email": "nobody@example.com"}, http.StatusNotFound)
	s.do(http.MethodPost, "/api/password-reset", "", map[string]any{"email": "rita@example.com"}, http.StatusOK)

	env := s.do(http.MethodPost, "/api/password-reset/"+helpers.EncodeUID("nobody")+"/bogus", "", map[string]any{"new_password": "whatever-pass"}, http.StatusBadRequest)
	s.Equal("invalid token or user id", env.Message)
}

func (s *APISuite) TestDiscoverNeedsSearchBackend() {
	env := s.do(http.MethodGet, "/api/posts/discover?q=go", s.ritaToken, nil, http.StatusInternalServerError)
	s.False(env.Success)
	s.Empty(env.Data)
}
