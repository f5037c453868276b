package templates

import (
	"strings"
	"time"
)

// Brand holds the app-wide values every email carries.
type Brand struct {
	AppName    string
	SupportURL string
	PostURL    string // base URL; the post id is appended
}

// Option pattern
type Option func(*EmailData)

func WithResetURL(url string) Option { return func(d *EmailData) { d.ResetURL = url } }
func WithComment(c string) Option    { return func(d *EmailData) { d.Comment = c } }
func WithAuthor(name string) Option  { return func(d *EmailData) { d.AuthorName = name } }

func WithPost(id, title string) Option {
	return func(d *EmailData) {
		d.PostID = id
		d.PostTitle = title
	}
}

func WithExpiresAt(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.ExpiresAt = utc
		d.ExpiresAtText = utc.Format("02 January 2006, 15:04")
	}
}

// NewEmailData fills the brand fields, then applies the options.
func NewEmailData(b Brand, typ, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:       name,
		Email:      email,
		Type:       typ,
		AppName:    b.AppName,
		SupportURL: b.SupportURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	if b.PostURL != "" && d.PostID != "" {
		d.PostURL = strings.TrimRight(b.PostURL, "/") + "/" + d.PostID
	}
	return d
}
