package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/oksasatya/inkwell/internal/domain/entity"
	"github.com/oksasatya/inkwell/internal/domain/repository"
	"github.com/oksasatya/inkwell/internal/domain/visibility"
)

type TagRepository struct{ s *Store }

func (r *TagRepository) Create(ctx context.Context, t *entity.Tag) error {
	return r.s.write(ctx, func(d *data) error {
		for _, other := range d.tags {
			if other.Name == t.Name {
				return conflict("tag " + t.Name + " exists")
			}
		}
		r.insert(d, t)
		return nil
	})
}

func (r *TagRepository) insert(d *data, t *entity.Tag) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = r.s.Clock()
	d.tags[t.ID] = *t
}

func (r *TagRepository) GetByID(ctx context.Context, id string) (*entity.Tag, error) {
	var out *entity.Tag
	err := r.s.read(ctx, func(d *data) error {
		t, ok := d.tags[id]
		if !ok {
			return notFound("tag", id)
		}
		out = &t
		return nil
	})
	return out, err
}

func (r *TagRepository) GetByName(ctx context.Context, name string) (*entity.Tag, error) {
	var out *entity.Tag
	err := r.s.read(ctx, func(d *data) error {
		for _, t := range d.tags {
			if t.Name == name {
				t := t
				out = &t
				return nil
			}
		}
		return notFound("tag", name)
	})
	return out, err
}

func (r *TagRepository) GetOrCreate(ctx context.Context, name string) (*entity.Tag, error) {
	var out *entity.Tag
	err := r.s.write(ctx, func(d *data) error {
		for _, t := range d.tags {
			if t.Name == name {
				t := t
				out = &t
				return nil
			}
		}
		t := &entity.Tag{Name: name}
		r.insert(d, t)
		out = t
		return nil
	})
	return out, err
}

func (r *TagRepository) List(ctx context.Context) ([]*entity.Tag, error) {
	var out []*entity.Tag
	err := r.s.read(ctx, func(d *data) error {
		for _, t := range d.tags {
			t := t
			out = append(out, &t)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (r *TagRepository) Rename(ctx context.Context, t *entity.Tag) error {
	return r.s.write(ctx, func(d *data) error {
		cur, ok := d.tags[t.ID]
		if !ok {
			return notFound("tag", t.ID)
		}
		for id, other := range d.tags {
			if id != t.ID && other.Name == t.Name {
				return conflict("tag " + t.Name + " exists")
			}
		}
		cur.Name = t.Name
		d.tags[t.ID] = cur
		*t = cur
		return nil
	})
}

func (r *TagRepository) Delete(ctx context.Context, id string) (int64, error) {
	var unlinked int64
	err := r.s.write(ctx, func(d *data) error {
		if _, ok := d.tags[id]; !ok {
			return notFound("tag", id)
		}
		for postID, ids := range d.postTags {
			kept := ids[:0:0]
			for _, tagID := range ids {
				if tagID == id {
					unlinked++
					continue
				}
				kept = append(kept, tagID)
			}
			d.postTags[postID] = kept
		}
		delete(d.tags, id)
		return nil
	})
	return unlinked, err
}

type PostRepository struct{ s *Store }

func (r *PostRepository) Create(ctx context.Context, p *entity.Post) error {
	return r.s.write(ctx, func(d *data) error {
		if _, ok := d.authors[p.AuthorID]; !ok {
			return notFound("author", p.AuthorID)
		}
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.Status == "" {
			p.Status = entity.StatusDraft
		}
		now := r.s.Clock()
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		p.UpdatedAt = now
		stored := *p
		stored.Tags = nil
		d.posts[p.ID] = stored
		p.Tags = withTags(d, p.ID)
		return nil
	})
}

func (r *PostRepository) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	var out *entity.Post
	err := r.s.read(ctx, func(d *data) error {
		p, ok := d.posts[id]
		if !ok {
			return notFound("post", id)
		}
		p.Tags = withTags(d, id)
		out = &p
		return nil
	})
	return out, err
}

func (r *PostRepository) Update(ctx context.Context, p *entity.Post) error {
	return r.s.write(ctx, func(d *data) error {
		cur, ok := d.posts[p.ID]
		if !ok {
			return notFound("post", p.ID)
		}
		cur.Title = p.Title
		cur.Content = p.Content
		cur.Status = p.Status
		cur.UpdatedAt = r.s.Clock()
		d.posts[p.ID] = cur
		cur.Tags = withTags(d, p.ID)
		*p = cur
		return nil
	})
}

func (r *PostRepository) Delete(ctx context.Context, id string) error {
	return r.s.write(ctx, func(d *data) error {
		if _, ok := d.posts[id]; !ok {
			return notFound("post", id)
		}
		delete(d.posts, id)
		return nil
	})
}

// Lock only checks existence: writers are already serialised on the store.
func (r *PostRepository) Lock(ctx context.Context, id string) error {
	return r.s.read(ctx, func(d *data) error {
		if _, ok := d.posts[id]; !ok {
			return notFound("post", id)
		}
		return nil
	})
}

func (r *PostRepository) ListIDsByAuthor(ctx context.Context, authorID string) ([]string, error) {
	var posts []*entity.Post
	err := r.s.read(ctx, func(d *data) error {
		for _, p := range d.posts {
			if p.AuthorID == authorID {
				p := p
				posts = append(posts, &p)
			}
		}
		return nil
	})
	visibility.SortPosts(posts)
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids, err
}

func (r *PostRepository) SetTags(ctx context.Context, postID string, tagIDs []string) error {
	return r.s.write(ctx, func(d *data) error {
		if _, ok := d.posts[postID]; !ok {
			return notFound("post", postID)
		}
		ids := make([]string, 0, len(tagIDs))
		seen := map[string]bool{}
		for _, id := range tagIDs {
			if _, ok := d.tags[id]; !ok {
				return notFound("tag", id)
			}
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
		d.postTags[postID] = ids
		return nil
	})
}

func (r *PostRepository) DeleteTags(ctx context.Context, postID string) error {
	return r.s.write(ctx, func(d *data) error {
		delete(d.postTags, postID)
		return nil
	})
}

func (r *PostRepository) List(ctx context.Context, f repository.PostFilter) ([]*entity.Post, int, error) {
	var matched []*entity.Post
	err := r.s.read(ctx, func(d *data) error {
		for id, p := range d.posts {
			p := p
			p.Tags = withTags(d, id)
			if visibility.Matches(&p, f) {
				matched = append(matched, &p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	visibility.SortPosts(matched)
	total := len(matched)
	if f.Offset >= total {
		return []*entity.Post{}, total, nil
	}
	end := total
	if f.Limit > 0 && f.Offset+f.Limit < total {
		end = f.Offset + f.Limit
	}
	return matched[f.Offset:end], total, nil
}

func withTags(d *data, postID string) []entity.Tag {
	ids := d.postTags[postID]
	tags := make([]entity.Tag, 0, len(ids))
	for _, id := range ids {
		if t, ok := d.tags[id]; ok {
			tags = append(tags, t)
		}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags
}

type CommentRepository struct{ s *Store }

func (r *CommentRepository) Create(ctx context.Context, c *entity.Comment) error {
	return r.s.write(ctx, func(d *data) error {
		if _, ok := d.posts[c.PostID]; !ok {
			return notFound("post", c.PostID)
		}
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		now := r.s.Clock()
		c.CreatedAt, c.UpdatedAt = now, now
		d.comments[c.ID] = *c
		return nil
	})
}

func (r *CommentRepository) GetByID(ctx context.Context, id string) (*entity.Comment, error) {
	var out *entity.Comment
	err := r.s.read(ctx, func(d *data) error {
		c, ok := d.comments[id]
		if !ok {
			return notFound("comment", id)
		}
		out = &c
		return nil
	})
	return out, err
}

func (r *CommentRepository) Update(ctx context.Context, c *entity.Comment) error {
	return r.s.write(ctx, func(d *data) error {
		cur, ok := d.comments[c.ID]
		if !ok {
			return notFound("comment", c.ID)
		}
		cur.Content = c.Content
		cur.UpdatedAt = r.s.Clock()
		d.comments[c.ID] = cur
		*c = cur
		return nil
	})
}

func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	return r.s.write(ctx, func(d *data) error {
		if _, ok := d.comments[id]; !ok {
			return notFound("comment", id)
		}
		delete(d.comments, id)
		return nil
	})
}

func (r *CommentRepository) ListByPost(ctx context.Context, postID string) ([]*entity.Comment, error) {
	var out []*entity.Comment
	err := r.s.read(ctx, func(d *data) error {
		for _, c := range d.comments {
			if c.PostID == postID {
				c := c
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) || (out[i].CreatedAt.Equal(out[j].CreatedAt) && out[i].ID < out[j].ID) })
	return out, err
}

func (r *CommentRepository) DeleteByPost(ctx context.Context, postID string) (int64, error) {
	var n int64
	err := r.s.write(ctx, func(d *data) error {
		for id, c := range d.comments {
			if c.PostID == postID {
				delete(d.comments, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

type LikeRepository struct{ s *Store }

func (r *LikeRepository) Create(ctx context.Context, l *entity.Like) error {
	return r.s.write(ctx, func(d *data) error {
		if _, ok := d.posts[l.PostID]; !ok {
			return notFound("post", l.PostID)
		}
		for _, other := range d.likes {
			if other.UserID == l.UserID && other.PostID == l.PostID {
				return conflict("already liked")
			}
		}
		if l.ID == "" {
			l.ID = uuid.NewString()
		}
		l.CreatedAt = r.s.Clock()
		d.likes[l.ID] = *l
		return nil
	})
}

func (r *LikeRepository) Get(ctx context.Context, userID, postID string) (*entity.Like, error) {
	var out *entity.Like
	err := r.s.read(ctx, func(d *data) error {
		for _, l := range d.likes {
			if l.UserID == userID && l.PostID == postID {
				l := l
				out = &l
				return nil
			}
		}
		return notFound("like on post", postID)
	})
	return out, err
}

func (r *LikeRepository) Delete(ctx context.Context, userID, postID string) error {
	return r.s.write(ctx, func(d *data) error {
		for id, l := range d.likes {
			if l.UserID == userID && l.PostID == postID {
				delete(d.likes, id)
				return nil
			}
		}
		return notFound("like on post", postID)
	})
}

func (r *LikeRepository) ListByPost(ctx context.Context, postID string) ([]*entity.Like, error) {
	var out []*entity.Like
	err := r.s.read(ctx, func(d *data) error {
		for _, l := range d.likes {
			if l.PostID == postID {
				l := l
				out = append(out, &l)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) || (out[i].CreatedAt.Equal(out[j].CreatedAt) && out[i].ID < out[j].ID) })
	return out, err
}

func (r *LikeRepository) DeleteByPost(ctx context.Context, postID string) (int64, error) {
	var n int64
	err := r.s.write(ctx, func(d *data) error {
		for id, l := range d.likes {
			if l.PostID == postID {
				delete(d.likes, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

var (
	_ repository.TagRepository     = (*TagRepository)(nil)
	_ repository.PostRepository    = (*PostRepository)(nil)
	_ repository.CommentRepository = (*CommentRepository)(nil)
	_ repository.LikeRepository    = (*LikeRepository)(nil)
)
