// Package visibility turns a caller's post query into the storage filter for
// the posts that caller may see, and shapes the resulting page.
//
// Authors see every post they own, drafts included. Readers see every
// published post. Tag ids are OR-ed, date bounds are inclusive and the
// search term is matched case-insensitively against title, content and tag
// names.
package visibility

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/oksasatya/inkwell/internal/domain/apperr"
	"github.com/oksasatya/inkwell/internal/domain/entity"
	"github.com/oksasatya/inkwell/internal/domain/policy"
	"github.com/oksasatya/inkwell/internal/domain/repository"
)

const PageSize = 10

const dateLayout = "2006-01-02"

// Query is the caller-facing post list query.
type Query struct {
	TagIDs []string
	From   *time.Time
	To     *time.Time
	Search string
	Page   int
}

// ForActor returns the filter selecting the page of posts actor may see.
func ForActor(actor policy.Actor, q Query) (repository.PostFilter, error) {
	if actor == nil {
		return repository.PostFilter{}, apperr.ErrUnauthenticated
	}
	page := q.Page
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return repository.PostFilter{}, apperr.NewValidation("page", "must be a positive integer")
	}
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return repository.PostFilter{}, apperr.NewValidation("start_date", "must not be after end_date")
	}

	f := repository.PostFilter{
		TagIDs:      dedupe(q.TagIDs),
		CreatedFrom: q.From,
		CreatedTo:   q.To,
		Search:      strings.TrimSpace(q.Search),
		Offset:      (page - 1) * PageSize,
		Limit:       PageSize,
	}
	switch a := actor.(type) {
	case policy.AuthorActor:
		if a.AuthorID == "" {
			return repository.PostFilter{}, fmt.Errorf("author profile missing: %w", apperr.ErrForbidden)
		}
		f.AuthorID = a.AuthorID
	case policy.ReaderActor:
		f.PublishedOnly = true
	default:
		return repository.PostFilter{}, fmt.Errorf("unsupported actor %T: %w", actor, apperr.ErrForbidden)
	}
	return f, nil
}

// Matches reports whether p satisfies f, ignoring Offset and Limit.
func Matches(p *entity.Post, f repository.PostFilter) bool {
	if f.AuthorID != "" && p.AuthorID != f.AuthorID {
		return false
	}
	if f.PublishedOnly && !p.Published() {
		return false
	}
	if len(f.TagIDs) > 0 && !hasAnyTag(p, f.TagIDs) {
		return false
	}
	if f.CreatedFrom != nil && p.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && p.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	if f.Search != "" && !matchesSearch(p, f.Search) {
		return false
	}
	return true
}

// SortPosts orders posts newest first, ties broken by id descending.
func SortPosts(posts []*entity.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})
}

// ParseFrom parses a lower date bound. Both YYYY-MM-DD and RFC3339 are accepted.
func ParseFrom(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, apperr.NewValidation(field, "must be YYYY-MM-DD or RFC3339")
	}
	return &t, nil
}

// ParseTo parses an upper date bound. A bare date covers the whole day.
func ParseTo(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, apperr.NewValidation(field, "must be YYYY-MM-DD or RFC3339")
	}
	end := t.Add(24*time.Hour - time.Nanosecond)
	return &end, nil
}

func hasAnyTag(p *entity.Post, ids []string) bool {
	for _, t := range p.Tags {
		for _, id := range ids {
			if t.ID == id {
				return true
			}
		}
	}
	return false
}

func matchesSearch(p *entity.Post, term string) bool {
	term = strings.ToLower(term)
	if strings.Contains(strings.ToLower(p.Title), term) || strings.Contains(strings.ToLower(p.Content), term) {
		return true
	}
	for _, t := range p.Tags {
		if strings.Contains(strings.ToLower(t.Name), term) {
			return true
		}
	}
	return false
}

func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
