package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/inkwell/internal/domain/entity"
	"github.com/oksasatya/inkwell/internal/domain/repository"
)

type UserRepository struct{ s *Store }

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	return r.s.write(ctx, func(d *data) error {
		for _, other := range d.users {
			if other.Email == u.Email {
				return conflict("email already registered")
			}
			if other.Username == u.Username {
				return conflict("username taken")
			}
		}
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		now := r.s.Clock()
		u.CreatedAt, u.UpdatedAt = now, now
		d.users[u.ID] = *u
		return nil
	})
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var out *entity.User
	err := r.s.read(ctx, func(d *data) error {
		u, ok := d.users[id]
		if !ok {
			return notFound("user", id)
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.find(ctx, "email "+email, func(u entity.User) bool { return u.Email == email })
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.find(ctx, "username "+username, func(u entity.User) bool { return u.Username == username })
}

func (r *UserRepository) find(ctx context.Context, what string, match func(entity.User) bool) (*entity.User, error) {
	var out *entity.User
	err := r.s.read(ctx, func(d *data) error {
		for _, u := range d.users {
			if match(u) {
				u := u
				out = &u
				return nil
			}
		}
		return notFound("user", what)
	})
	return out, err
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	return r.s.write(ctx, func(d *data) error {
		cur, ok := d.users[u.ID]
		if !ok {
			return notFound("user", u.ID)
		}
		for id, other := range d.users {
			if id != u.ID && (other.Email == u.Email || other.Username == u.Username) {
				return conflict("email or username taken")
			}
		}
		u.Role = cur.Role
		u.CreatedAt = cur.CreatedAt
		u.UpdatedAt = r.s.Clock()
		d.users[u.ID] = *u
		return nil
	})
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, oldHash, newHash string) error {
	return r.s.write(ctx, func(d *data) error {
		u, ok := d.users[id]
		if !ok {
			return notFound("user", id)
		}
		if u.Password != oldHash {
			return conflict("password changed")
		}
		u.Password = newHash
		u.UpdatedAt = r.s.Clock()
		d.users[id] = u
		return nil
	})
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.s.write(ctx, func(d *data) error {
		u, ok := d.users[id]
		if !ok {
			return notFound("user", id)
		}
		at := at.UTC()
		u.LastLoginAt = &at
		d.users[id] = u
		return nil
	})
}

type AuthorRepository struct{ s *Store }

func (r *AuthorRepository) Create(ctx context.Context, a *entity.Author) error {
	return r.s.write(ctx, func(d *data) error {
		if _, ok := d.users[a.UserID]; !ok {
			return notFound("user", a.UserID)
		}
		for _, other := range d.authors {
			if other.UserID == a.UserID {
				return conflict("author profile exists")
			}
		}
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		now := r.s.Clock()
		a.CreatedAt, a.UpdatedAt = now, now
		d.authors[a.ID] = *a
		return nil
	})
}

func (r *AuthorRepository) GetByID(ctx context.Context, id string) (*entity.Author, error) {
	var out *entity.Author
	err := r.s.read(ctx, func(d *data) error {
		a, ok := d.authors[id]
		if !ok {
			return notFound("author", id)
		}
		out = &a
		return nil
	})
	return out, err
}

func (r *AuthorRepository) GetByUserID(ctx context.Context, userID string) (*entity.Author, error) {
	var out *entity.Author
	err := r.s.read(ctx, func(d *data) error {
		for _, a := range d.authors {
			if a.UserID == userID {
				a := a
				out = &a
				return nil
			}
		}
		return notFound("author for user", userID)
	})
	return out, err
}

func (r *AuthorRepository) Update(ctx context.Context, a *entity.Author) error {
	return r.s.write(ctx, func(d *data) error {
		cur, ok := d.authors[a.ID]
		if !ok {
			return notFound("author", a.ID)
		}
		cur.Bio = a.Bio
		cur.UpdatedAt = r.s.Clock()
		d.authors[a.ID] = cur
		*a = cur
		return nil
	})
}

func (r *AuthorRepository) Lock(ctx context.Context, id string) error {
	return r.s.read(ctx, func(d *data) error {
		if _, ok := d.authors[id]; !ok {
			return notFound("author", id)
		}
		return nil
	})
}

func (r *AuthorRepository) Delete(ctx context.Context, id string) error {
	return r.s.write(ctx, func(d *data) error {
		if _, ok := d.authors[id]; !ok {
			return notFound("author", id)
		}
		for _, f := range d.follows {
			if f.AuthorID == id {
				return conflict("author still has followers")
			}
		}
		for _, p := range d.posts {
			if p.AuthorID == id {
				return conflict("author still has posts")
			}
		}
		delete(d.authors, id)
		return nil
	})
}

func (r *AuthorRepository) List(ctx context.Context) ([]*entity.Author, error) {
	var out []*entity.Author
	err := r.s.read(ctx, func(d *data) error {
		for _, a := range d.authors {
			a := a
			out = append(out, &a)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) || (out[i].CreatedAt.Equal(out[j].CreatedAt) && out[i].ID < out[j].ID) })
	return out, err
}

type ReaderRepository struct{ s *Store }

func (r *ReaderRepository) Create(ctx context.Context, rd *entity.Reader) error {
	return r.s.write(ctx, func(d *data) error {
		if _, ok := d.users[rd.UserID]; !ok {
			return notFound("user", rd.UserID)
		}
		for _, other := range d.readers {
			if other.UserID == rd.UserID {
				return conflict("reader profile exists")
			}
		}
		if rd.ID == "" {
			rd.ID = uuid.NewString()
		}
		rd.CreatedAt = r.s.Clock()
		d.readers[rd.ID] = *rd
		return nil
	})
}

func (r *ReaderRepository) GetByID(ctx context.Context, id string) (*entity.Reader, error) {
	var out *entity.Reader
	err := r.s.read(ctx, func(d *data) error {
		rd, ok := d.readers[id]
		if !ok {
			return notFound("reader", id)
		}
		out = &rd
		return nil
	})
	return out, err
}

func (r *ReaderRepository) GetByUserID(ctx context.Context, userID string) (*entity.Reader, error) {
	var out *entity.Reader
	err := r.s.read(ctx, func(d *data) error {
		for _, rd := range d.readers {
			if rd.UserID == userID {
				rd := rd
				out = &rd
				return nil
			}
		}
		return notFound("reader for user", userID)
	})
	return out, err
}

func (r *ReaderRepository) Lock(ctx context.Context, id string) error {
	return r.s.read(ctx, func(d *data) error {
		if _, ok := d.readers[id]; !ok {
			return notFound("reader", id)
		}
		return nil
	})
}

func (r *ReaderRepository) Delete(ctx context.Context, id string) error {
	return r.s.write(ctx, func(d *data) error {
		if _, ok := d.readers[id]; !ok {
			return notFound("reader", id)
		}
		for _, f := range d.follows {
			if f.ReaderID == id {
				return conflict("reader still follows authors")
			}
		}
		delete(d.readers, id)
		return nil
	})
}

func (r *ReaderRepository) List(ctx context.Context) ([]*entity.Reader, error) {
	var out []*entity.Reader
	err := r.s.read(ctx, func(d *data) error {
		for _, rd := range d.readers {
			rd := rd
			out = append(out, &rd)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) || (out[i].CreatedAt.Equal(out[j].CreatedAt) && out[i].ID < out[j].ID) })
	return out, err
}

type FollowRepository struct{ s *Store }

func (r *FollowRepository) Create(ctx context.Context, f *entity.Follow) error {
	return r.s.write(ctx, func(d *data) error {
		if _, ok := d.readers[f.ReaderID]; !ok {
			return notFound("reader", f.ReaderID)
		}
		if _, ok := d.authors[f.AuthorID]; !ok {
			return notFound("author", f.AuthorID)
		}
		for _, other := range d.follows {
			if other.ReaderID == f.ReaderID && other.AuthorID == f.AuthorID {
				return conflict("already following")
			}
		}
		if f.ID == "" {
			f.ID = uuid.NewString()
		}
		f.CreatedAt = r.s.Clock()
		d.follows[f.ID] = *f
		return nil
	})
}

func (r *FollowRepository) Delete(ctx context.Context, readerID, authorID string) error {
	return r.s.write(ctx, func(d *data) error {
		for id, f := range d.follows {
			if f.ReaderID == readerID && f.AuthorID == authorID {
				delete(d.follows, id)
				return nil
			}
		}
		return notFound("follow of author", authorID)
	})
}

func (r *FollowRepository) DeleteByAuthor(ctx context.Context, authorID string) (int64, error) {
	return r.deleteWhere(ctx, func(f entity.Follow) bool { return f.AuthorID == authorID })
}

func (r *FollowRepository) DeleteByReader(ctx context.Context, readerID string) (int64, error) {
	return r.deleteWhere(ctx, func(f entity.Follow) bool { return f.ReaderID == readerID })
}

func (r *FollowRepository) deleteWhere(ctx context.Context, match func(entity.Follow) bool) (int64, error) {
	var n int64
	err := r.s.write(ctx, func(d *data) error {
		for id, f := range d.follows {
			if match(f) {
				delete(d.follows, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *FollowRepository) ListByAuthor(ctx context.Context, authorID string) ([]*entity.Follow, error) {
	return r.list(ctx, func(f entity.Follow) bool { return f.AuthorID == authorID })
}

func (r *FollowRepository) ListByReader(ctx context.Context, readerID string) ([]*entity.Follow, error) {
	return r.list(ctx, func(f entity.Follow) bool { return f.ReaderID == readerID })
}

func (r *FollowRepository) list(ctx context.Context, match func(entity.Follow) bool) ([]*entity.Follow, error) {
	var out []*entity.Follow
	err := r.s.read(ctx, func(d *data) error {
		for _, f := range d.follows {
			if match(f) {
				f := f
				out = append(out, &f)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) || (out[i].CreatedAt.Equal(out[j].CreatedAt) && out[i].ID < out[j].ID) })
	return out, err
}

var (
	_ repository.UserRepository   = (*UserRepository)(nil)
	_ repository.AuthorRepository = (*AuthorRepository)(nil)
	_ repository.ReaderRepository = (*ReaderRepository)(nil)
	_ repository.FollowRepository = (*FollowRepository)(nil)
)
