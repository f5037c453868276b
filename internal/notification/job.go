package notification

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindCommentCreated Kind = "comment.created"
	KindPostPublished  Kind = "post.published"
	KindPasswordReset  Kind = "password.reset"
	KindPostIndex      Kind = "post.index"
	KindPostUnindex    Kind = "post.unindex"
)

// Job is a unit of background work. Delivery is at-least-once, best-effort
// and unordered: a job rejected by a full queue is lost and nothing is retried.
type Job struct {
	ID         string          `json:"id"`
	Kind       Kind            `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// NewJob marshals payload into a job of the given kind.
func NewJob(kind Kind, payload any) (Job, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Job{}, err
	}
	return Job{ID: uuid.NewString(), Kind: kind, Payload: b, EnqueuedAt: time.Now().UTC()}, nil
}

type CommentCreatedPayload struct {
	PostID    string `json:"post_id"`
	CommentID string `json:"comment_id"`
	UserID    string `json:"user_id"`
	Content   string `json:"content"`
}

type PostPublishedPayload struct {
	PostID    string `json:"post_id"`
	AuthorID  string `json:"author_id"`
	PostTitle string `json:"post_title"`
	Updated   bool   `json:"updated"`
}

type PasswordResetPayload struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	ResetURL  string    `json:"reset_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type PostIndexPayload struct {
	PostID string `json:"post_id"`
}
