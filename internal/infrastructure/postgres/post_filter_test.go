package postgres

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/oksasatya/inkwell/internal/domain/apperr"
	"github.com/oksasatya/inkwell/internal/domain/repository"
)

const (
	tagGo      = "5a0c1e1e-8f0e-4b7a-9c55-0d1a2b3c4d5e"
	tagSystems = "6b1d2f2f-9a1f-4c8b-8d66-1e2b3c4d5e6f"
	authorID   = "7c2e3a3a-0b2a-4d9c-9e77-2f3c4d5e6f70"
)

func TestBuildPostFilterEmpty(t *testing.T) {
	where, args := buildPostFilter(repository.PostFilter{})
	assert.Equal(t, "TRUE", where)
	assert.Empty(t, args)
}

func TestBuildPostFilterReader(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	where, args := buildPostFilter(repository.PostFilter{
		PublishedOnly: true,
		TagIDs:        []string{tagGo, "not-a-uuid", tagSystems},
		CreatedFrom:   &from,
		Search:        "100%_done",
	})
	assert.Contains(t, where, "p.status = 'published'")
	assert.Contains(t, where, "pt.tag_id = ANY($1::uuid[])")
	assert.Contains(t, where, "p.created_at >= $2")
	assert.Contains(t, where, "p.title ILIKE $3")
	assert.Contains(t, where, "t.name ILIKE $3")
	assert.Len(t, args, 3)
	assert.Equal(t, []string{tagGo, tagSystems}, args[0])
	assert.Equal(t, `%100\%\_done%`, args[2])
}

func TestBuildPostFilterAuthor(t *testing.T) {
	where, args := buildPostFilter(repository.PostFilter{AuthorID: authorID})
	assert.Equal(t, "p.author_id = $1", where)
	assert.Equal(t, []any{authorID}, args)

	where, args = buildPostFilter(repository.PostFilter{AuthorID: "nope"})
	assert.Equal(t, "FALSE", where)
	assert.Nil(t, args)

	where, _ = buildPostFilter(repository.PostFilter{TagIDs: []string{"nope"}})
	assert.Equal(t, "FALSE", where)
}

func TestMapErr(t *testing.T) {
	assert.NoError(t, mapErr(nil, "x"))
	assert.ErrorIs(t, mapErr(pgx.ErrNoRows, "post"), apperr.ErrNotFound)
	assert.ErrorIs(t, mapErr(&pgconn.PgError{Code: "23505", ConstraintName: "likes_user_post_key"}, "like"), apperr.ErrConflict)
	assert.ErrorIs(t, mapErr(&pgconn.PgError{Code: "23503"}, "follow"), apperr.ErrNotFound)
	assert.ErrorIs(t, mapErr(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23505"}), "tag"), apperr.ErrConflict)

	other := errors.New("connection reset")
	err := mapErr(other, "list")
	assert.ErrorIs(t, err, other)
	assert.False(t, errors.Is(err, apperr.ErrNotFound))
}
