package entity

import "time"

// Follow is a directed edge from a reader to an author. At most one per pair.
type Follow struct {
	ID        string
	ReaderID  string
	AuthorID  string
	CreatedAt time.Time
}

// Like is at most one per (user, post).
type Like struct {
	ID        string
	PostID    string
	UserID    string
	CreatedAt time.Time
}
