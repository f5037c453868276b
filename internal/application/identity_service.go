package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/inkwell/internal/domain/apperr"
	"github.com/oksasatya/inkwell/internal/domain/entity"
	"github.com/oksasatya/inkwell/internal/domain/policy"
	repo "github.com/oksasatya/inkwell/internal/domain/repository"
	"github.com/oksasatya/inkwell/pkg/helpers"
	"github.com/oksasatya/inkwell/pkg/validation"
)

var (
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthenticated)
	ErrSessionNotFound    = fmt.Errorf("session not found: %w", apperr.ErrUnauthenticated)
)

const (
	sessionTTL        = 24 * time.Hour
	minPasswordLength = 8
	maxPasswordLength = 72
)

// AuthorContent removes an author's posts when the profile goes away.
// PostService implements it.
type AuthorContent interface {
	PurgeAuthor(ctx context.Context, authorID string) ([]string, error)
	Unindex(postIDs []string)
}

// IdentityService owns registration, login sessions and role profiles.
type IdentityService struct {
	Users     repo.UserRepository
	Authors   repo.AuthorRepository
	Readers   repo.ReaderRepository
	Follows   repo.FollowRepository
	Content   AuthorContent
	Tx        repo.TxManager
	JWT       *helpers.JWTManager
	Redis     *redis.Client
	GCS       *storage.Client
	GCSBucket string
	Logger    *logrus.Logger
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func passwordProblem(pw string) string {
	switch {
	case len(pw) < minPasswordLength:
		return fmt.Sprintf("must be at least %d characters", minPasswordLength)
	case len(pw) > maxPasswordLength:
		return fmt.Sprintf("must be at most %d bytes", maxPasswordLength)
	}
	return ""
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     entity.RoleName
	Bio      string
}

// Profile is a user together with its role profile.
type Profile struct {
	User   *entity.User
	Author *entity.Author
	Reader *entity.Reader
}

type LoginResponse struct {
	UserID   string          `json:"user_id"`
	Email    string          `json:"email"`
	Username string          `json:"username"`
	Role     entity.RoleName `json:"role"`
}

// Register creates the user and its Author or Reader profile atomically.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (*Profile, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	verr := &apperr.ValidationError{}
	if in.Username == "" {
		verr.Add("username", "is required")
	}
	if !validation.IsEmail(in.Email) {
		verr.Add("email", "must be a valid email address")
	}
	if msg := passwordProblem(in.Password); msg != "" {
		verr.Add("password", msg)
	}
	if !in.Role.Valid() {
		verr.Add("role", "must be author or reader")
	}
	if !verr.Empty() {
		return nil, verr
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	out := &Profile{User: &entity.User{Username: in.Username, Email: in.Email, Password: hash, Role: in.Role}}
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Users.Create(ctx, out.User); err != nil {
			return err
		}
		switch in.Role {
		case entity.RoleAuthor:
			out.Author = &entity.Author{UserID: out.User.ID, Bio: in.Bio}
			return s.Authors.Create(ctx, out.Author)
		default:
			out.Reader = &entity.Reader{UserID: out.User.ID}
			return s.Readers.Create(ctx, out.Reader)
		}
	})
	if err != nil {
		return nil, err
	}
	s.log().WithFields(logrus.Fields{"user_id": out.User.ID, "role": in.Role}).Info("user registered")
	return out, nil
}

// Authenticate validates email/password and returns the user without issuing tokens.
func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// IssueTokens generates access/refresh tokens and records a session in Redis.
func (s *IdentityService) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, string(u.Role), sid)
	if err != nil {
		s.log().WithError(err).WithField("user_id", u.ID).Error("generate access token failed")
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, string(u.Role), sid)
	if err != nil {
		s.log().WithError(err).WithField("user_id", u.ID).Error("generate refresh token failed")
		return TokenPair{}, err
	}

	if s.Redis != nil {
		err := helpers.SaveSession(ctx, s.Redis, u.ID, map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"username":   u.Username,
			"role":       string(u.Role),
			"avatar_url": u.AvatarURL,
			"sid":        sid,
			"created_at": nowRFC3339(),
		}, sessionTTL)
		if err != nil {
			s.log().WithError(err).WithField("user_id", u.ID).Warn("save session failed")
		}
	}

	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// Login authenticates, stamps the last-login marker and issues tokens. The
// new marker invalidates every outstanding password reset token.
func (s *IdentityService) Login(ctx context.Context, email, password string) (*LoginResponse, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	if err := s.Users.TouchLastLogin(ctx, u.ID, time.Now()); err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return &LoginResponse{UserID: u.ID, Email: u.Email, Username: u.Username, Role: u.Role}, pair, nil
}

func (s *IdentityService) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	u, err := s.Users.GetByID(ctx, claims.UserID)
	if err != nil || u == nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	// Validate current session id matches the token's sid
	if s.Redis != nil {
		data, ok, rErr := helpers.LoadSession(ctx, s.Redis, u.ID)
		if rErr != nil || !ok || data["sid"] != claims.SessionID {
			return TokenPair{}, "", ErrInvalidCredentials
		}
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return TokenPair{}, "", err
	}
	return pair, u.ID, nil
}

// Logout drops the Redis session so outstanding access tokens stop working.
func (s *IdentityService) Logout(ctx context.Context, userID string) error {
	if s.Redis == nil || userID == "" {
		return nil
	}
	return helpers.DropSession(ctx, s.Redis, userID)
}

// CheckSession verifies that sid is the live session of userID. Without
// Redis every session is accepted.
func (s *IdentityService) CheckSession(ctx context.Context, userID, sid string) error {
	if s.Redis == nil {
		return nil
	}
	data, ok, err := helpers.LoadSession(ctx, s.Redis, userID)
	if err != nil || !ok {
		return ErrSessionNotFound
	}
	if sid != "" && data["sid"] != "" && data["sid"] != sid {
		return ErrSessionNotFound
	}
	return nil
}

// ResolveActor loads the user and its role profile and returns the matching actor.
func (s *IdentityService) ResolveActor(ctx context.Context, userID string) (policy.Actor, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("user %s: %w", userID, apperr.ErrUnauthenticated)
	}
	if err != nil {
		return nil, err
	}
	// A deleted profile leaves the account signed in with an empty profile id.
	var profileID string
	switch u.Role {
	case entity.RoleAuthor:
		a, err := s.Authors.GetByUserID(ctx, u.ID)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		if a != nil {
			profileID = a.ID
		}
	case entity.RoleReader:
		r, err := s.Readers.GetByUserID(ctx, u.ID)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		if r != nil {
			profileID = r.ID
		}
	}
	return policy.NewActor(u, profileID)
}

func (s *IdentityService) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	p := &Profile{User: u}
	switch u.Role {
	case entity.RoleAuthor:
		p.Author, err = s.Authors.GetByUserID(ctx, u.ID)
	case entity.RoleReader:
		p.Reader, err = s.Readers.GetByUserID(ctx, u.ID)
	}
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	return p, nil
}

type UpdateProfileInput struct {
	Username *string
	Email    *string
	Bio      *string
}

// UpdateProfile changes the caller's own account and, for authors, the bio.
func (s *IdentityService) UpdateProfile(ctx context.Context, actor policy.Actor, in UpdateProfileInput) (*Profile, error) {
	if actor == nil {
		return nil, apperr.ErrUnauthenticated
	}
	p, err := s.GetProfile(ctx, actor.UserID())
	if err != nil {
		return nil, err
	}
	verr := &apperr.ValidationError{}
	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if name == "" {
			verr.Add("username", "must not be empty")
		}
		p.User.Username = name
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if !validation.IsEmail(email) {
			verr.Add("email", "must be a valid email address")
		}
		p.User.Email = email
	}
	if in.Bio != nil && p.Author == nil {
		verr.Add("bio", "only authors have a bio")
	}
	if !verr.Empty() {
		return nil, verr
	}

	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if in.Username != nil || in.Email != nil {
			if err := s.Users.Update(ctx, p.User); err != nil {
				return err
			}
		}
		if in.Bio != nil {
			p.Author.Bio = *in.Bio
			return s.Authors.Update(ctx, p.Author)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.refreshSession(ctx, p.User)
	return p, nil
}

// UploadAvatar stores the image in GCS and records its public URL on the user.
func (s *IdentityService) UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	url, err := s.uploadImageToGCS(ctx, userID, r, filename, contentType)
	if err != nil {
		return "", err
	}
	u.AvatarURL = url
	if err := s.Users.Update(ctx, u); err != nil {
		return "", err
	}
	s.refreshSession(ctx, u)
	return url, nil
}

func (s *IdentityService) uploadImageToGCS(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	if s.GCS == nil || s.GCSBucket == "" {
		return "", errors.New("gcs not configured")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", apperr.NewValidation("avatar", "must be an image")
	}
	return helpers.UploadObject(ctx, s.GCS, s.GCSBucket, helpers.AvatarObjectPath(userID, filename), contentType, r)
}

func (s *IdentityService) refreshSession(ctx context.Context, u *entity.User) {
	if s.Redis == nil {
		return
	}
	err := helpers.TouchSession(ctx, s.Redis, u.ID, map[string]any{
		"username":   u.Username,
		"email":      u.Email,
		"avatar_url": u.AvatarURL,
		"updated_at": nowRFC3339(),
	})
	if err != nil {
		s.log().WithError(err).WithField("user_id", u.ID).Warn("refresh session failed")
	}
}

// AuthorView is an author profile joined with its username.
type AuthorView struct {
	Author   *entity.Author
	Username string
}

type ReaderView struct {
	Reader   *entity.Reader
	Username string
}

func (s *IdentityService) ListAuthors(ctx context.Context, actor policy.Actor) ([]AuthorView, error) {
	if err := policy.Authorize(actor, policy.ActionList, policy.AuthorDirectory()); err != nil {
		return nil, err
	}
	authors, err := s.Authors.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]AuthorView, 0, len(authors))
	for _, a := range authors {
		out = append(out, AuthorView{Author: a, Username: s.username(ctx, a.UserID)})
	}
	return out, nil
}

// GetAuthor returns an author profile. Only its owner may read it.
func (s *IdentityService) GetAuthor(ctx context.Context, actor policy.Actor, authorID string) (AuthorView, error) {
	a, err := s.Authors.GetByID(ctx, authorID)
	if err != nil {
		return AuthorView{}, err
	}
	if err := policy.Authorize(actor, policy.ActionRead, policy.AuthorProfileTarget(a)); err != nil {
		return AuthorView{}, err
	}
	return AuthorView{Author: a, Username: s.username(ctx, a.UserID)}, nil
}

func (s *IdentityService) UpdateAuthor(ctx context.Context, actor policy.Actor, authorID, bio string) (AuthorView, error) {
	a, err := s.Authors.GetByID(ctx, authorID)
	if err != nil {
		return AuthorView{}, err
	}
	if err := policy.Authorize(actor, policy.ActionUpdate, policy.AuthorProfileTarget(a)); err != nil {
		return AuthorView{}, err
	}
	a.Bio = bio
	if err := s.Authors.Update(ctx, a); err != nil {
		return AuthorView{}, err
	}
	return AuthorView{Author: a, Username: s.username(ctx, a.UserID)}, nil
}

// DeleteAuthor removes the caller's author profile together with its
// followers and its posts. The user account stays.
func (s *IdentityService) DeleteAuthor(ctx context.Context, actor policy.Actor, authorID string) error {
	a, err := s.Authors.GetByID(ctx, authorID)
	if err != nil {
		return err
	}
	if err := policy.Authorize(actor, policy.ActionDelete, policy.AuthorProfileTarget(a)); err != nil {
		return err
	}
	var (
		follows int64
		posts   []string
	)
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Authors.Lock(ctx, a.ID); err != nil {
			return err
		}
		var err error
		if follows, err = s.Follows.DeleteByAuthor(ctx, a.ID); err != nil {
			return err
		}
		if posts, err = s.Content.PurgeAuthor(ctx, a.ID); err != nil {
			return err
		}
		return s.Authors.Delete(ctx, a.ID)
	})
	if err != nil {
		return err
	}
	s.Content.Unindex(posts)
	s.log().WithFields(logrus.Fields{
		"author_id": a.ID,
		"user_id":   a.UserID,
		"followers": follows,
		"posts":     len(posts),
	}).Info("author profile deleted")
	return nil
}

func (s *IdentityService) ListReaders(ctx context.Context, actor policy.Actor) ([]ReaderView, error) {
	if err := policy.Authorize(actor, policy.ActionList, policy.ReaderDirectory()); err != nil {
		return nil, err
	}
	readers, err := s.Readers.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ReaderView, 0, len(readers))
	for _, r := range readers {
		out = append(out, ReaderView{Reader: r, Username: s.username(ctx, r.UserID)})
	}
	return out, nil
}

func (s *IdentityService) GetReader(ctx context.Context, actor policy.Actor, readerID string) (ReaderView, error) {
	r, err := s.Readers.GetByID(ctx, readerID)
	if err != nil {
		return ReaderView{}, err
	}
	if err := policy.Authorize(actor, policy.ActionRead, policy.ReaderProfileTarget(r)); err != nil {
		return ReaderView{}, err
	}
	return ReaderView{Reader: r, Username: s.username(ctx, r.UserID)}, nil
}

// DeleteReader removes the caller's reader profile and the follows it holds.
func (s *IdentityService) DeleteReader(ctx context.Context, actor policy.Actor, readerID string) error {
	r, err := s.Readers.GetByID(ctx, readerID)
	if err != nil {
		return err
	}
	if err := policy.Authorize(actor, policy.ActionDelete, policy.ReaderProfileTarget(r)); err != nil {
		return err
	}
	var follows int64
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Readers.Lock(ctx, r.ID); err != nil {
			return err
		}
		var err error
		if follows, err = s.Follows.DeleteByReader(ctx, r.ID); err != nil {
			return err
		}
		return s.Readers.Delete(ctx, r.ID)
	})
	if err != nil {
		return err
	}
	s.log().WithFields(logrus.Fields{"reader_id": r.ID, "user_id": r.UserID, "follows": follows}).Info("reader profile deleted")
	return nil
}

func (s *IdentityService) username(ctx context.Context, userID string) string {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return ""
	}
	return u.Username
}

func (s *IdentityService) log() *logrus.Logger {
	if s.Logger == nil {
		return logrus.StandardLogger()
	}
	return s.Logger
}
