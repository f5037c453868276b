package entity

import "time"

type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusPublished PostStatus = "published"
)

func (s PostStatus) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

type Tag struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Post belongs to exactly one author. Drafts are only visible to that author.
type Post struct {
	ID        string
	AuthorID  string
	Title     string
	Content   string
	Status    PostStatus
	Tags      []Tag
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Post) Published() bool {
	return p.Status == StatusPublished
}

// TagIDs returns the ids of the attached tags in order.
func (p *Post) TagIDs() []string {
	ids := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		ids = append(ids, t.ID)
	}
	return ids
}

type Comment struct {
	ID        string
	PostID    string
	UserID    string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
