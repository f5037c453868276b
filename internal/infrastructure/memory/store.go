// Package memory is an in-process implementation of every repository. It
// backs the test suites and STORE_DRIVER=memory development runs.
//
// Transactions are serialised on txMu and rolled back by restoring a
// snapshot. Writes outside a transaction also take txMu, so a rollback
// never discards someone else's write.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oksasatya/inkwell/internal/domain/apperr"
	"github.com/oksasatya/inkwell/internal/domain/entity"
	"github.com/oksasatya/inkwell/internal/domain/repository"
)

type txKey struct{}

type data struct {
	users    map[string]entity.User
	authors  map[string]entity.Author
	readers  map[string]entity.Reader
	follows  map[string]entity.Follow
	tags     map[string]entity.Tag
	posts    map[string]entity.Post
	postTags map[string][]string
	comments map[string]entity.Comment
	likes    map[string]entity.Like
}

func newData() data {
	return data{
		users:    map[string]entity.User{},
		authors:  map[string]entity.Author{},
		readers:  map[string]entity.Reader{},
		follows:  map[string]entity.Follow{},
		tags:     map[string]entity.Tag{},
		posts:    map[string]entity.Post{},
		postTags: map[string][]string{},
		comments: map[string]entity.Comment{},
		likes:    map[string]entity.Like{},
	}
}

func (d data) clone() data {
	c := newData()
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.authors {
		c.authors[k] = v
	}
	for k, v := range d.readers {
		c.readers[k] = v
	}
	for k, v := range d.follows {
		c.follows[k] = v
	}
	for k, v := range d.tags {
		c.tags[k] = v
	}
	for k, v := range d.posts {
		c.posts[k] = v
	}
	for k, v := range d.postTags {
		c.postTags[k] = append([]string(nil), v...)
	}
	for k, v := range d.comments {
		c.comments[k] = v
	}
	for k, v := range d.likes {
		c.likes[k] = v
	}
	return c
}

type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	d    data

	// Clock stamps created/updated times. Tests may replace it.
	Clock func() time.Time
}

func NewStore() *Store {
	return &Store{d: newData(), Clock: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) Users() *UserRepository       { return &UserRepository{s: s} }
func (s *Store) Authors() *AuthorRepository   { return &AuthorRepository{s: s} }
func (s *Store) Readers() *ReaderRepository   { return &ReaderRepository{s: s} }
func (s *Store) Follows() *FollowRepository   { return &FollowRepository{s: s} }
func (s *Store) Tags() *TagRepository         { return &TagRepository{s: s} }
func (s *Store) Posts() *PostRepository       { return &PostRepository{s: s} }
func (s *Store) Comments() *CommentRepository { return &CommentRepository{s: s} }
func (s *Store) Likes() *LikeRepository       { return &LikeRepository{s: s} }

// WithinTx implements repository.TxManager. Nested calls join the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snap := s.d.clone()
	s.mu.RUnlock()

	defer func() {
		if r := recover(); r != nil {
			s.restore(snap)
			panic(r)
		}
		if err != nil {
			s.restore(snap)
		}
	}()
	return fn(context.WithValue(ctx, txKey{}, s))
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

func (s *Store) restore(snap data) {
	s.mu.Lock()
	s.d = snap
	s.mu.Unlock()
}

func (s *Store) write(ctx context.Context, fn func(d *data) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.d)
}

func (s *Store) read(ctx context.Context, fn func(d *data) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&s.d)
}

func notFound(what, id string) error {
	return fmt.Errorf("%s %s: %w", what, id, apperr.ErrNotFound)
}

func conflict(what string) error {
	return fmt.Errorf("%s: %w", what, apperr.ErrConflict)
}

var _ repository.TxManager = (*Store)(nil)
