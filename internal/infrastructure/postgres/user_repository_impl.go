package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/inkwell/internal/domain/entity"
	"github.com/oksasatya/inkwell/internal/domain/repository"
)

const userColumns = `id, username, email, password_hash, role, avatar_url, last_login_at, created_at, updated_at`

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	var role string
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &role, &u.AvatarURL,
		&u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = entity.RoleName(role)
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.db.conn(ctx).QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, role, avatar_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, u.Username, u.Email, u.Password, string(u.Role), u.AvatarURL)

	return mapErr(row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt), "create user")
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if !validID(id) {
		return nil, notFound("user", id)
	}
	u, err := scanUser(r.db.conn(ctx).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err, "user "+id)
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, err := scanUser(r.db.conn(ctx).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, mapErr(err, "user with email")
	}
	return u, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	u, err := scanUser(r.db.conn(ctx).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		return nil, mapErr(err, "user "+username)
	}
	return u, nil
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	if !validID(u.ID) {
		return notFound("user", u.ID)
	}
	row := r.db.conn(ctx).QueryRow(ctx, `
		UPDATE users
		SET username = $1, email = $2, avatar_url = $3, updated_at = now()
		WHERE id = $4
		RETURNING updated_at
	`, u.Username, u.Email, u.AvatarURL, u.ID)
	return mapErr(row.Scan(&u.UpdatedAt), "update user "+u.ID)
}

// UpdatePassword cannot tell a missing user from a stale hash; both leave
// zero rows and report Conflict.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, oldHash, newHash string) error {
	if !validID(id) {
		return notFound("user", id)
	}
	res, err := r.db.conn(ctx).Exec(ctx, `
		UPDATE users SET password_hash = $1, updated_at = now()
		WHERE id = $2 AND password_hash = $3
	`, newHash, id, oldHash)
	if err != nil {
		return mapErr(err, "update password")
	}
	if res.RowsAffected() == 0 {
		return conflict("password of user " + id + " changed")
	}
	return nil
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	if !validID(id) {
		return notFound("user", id)
	}
	res, err := r.db.conn(ctx).Exec(ctx, `UPDATE users SET last_login_at = $1 WHERE id = $2`, at.UTC(), id)
	if err != nil {
		return mapErr(err, "touch last login")
	}
	if res.RowsAffected() == 0 {
		return notFound("user", id)
	}
	return nil
}

type AuthorRepository struct {
	db *DB
}

func NewAuthorRepository(db *DB) *AuthorRepository {
	return &AuthorRepository{db: db}
}

func (r *AuthorRepository) Create(ctx context.Context, a *entity.Author) error {
	row := r.db.conn(ctx).QueryRow(ctx, `
		INSERT INTO authors (user_id, bio) VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`, a.UserID, a.Bio)
	return mapErr(row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt), "create author")
}

func (r *AuthorRepository) get(ctx context.Context, where, arg string) (*entity.Author, error) {
	a := &entity.Author{}
	err := r.db.conn(ctx).QueryRow(ctx, `SELECT id, user_id, bio, created_at, updated_at FROM authors WHERE `+where+` = $1`, arg).
		Scan(&a.ID, &a.UserID, &a.Bio, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, mapErr(err, "author "+arg)
	}
	return a, nil
}

func (r *AuthorRepository) GetByID(ctx context.Context, id string) (*entity.Author, error) {
	if !validID(id) {
		return nil, notFound("author", id)
	}
	return r.get(ctx, "id", id)
}

func (r *AuthorRepository) GetByUserID(ctx context.Context, userID string) (*entity.Author, error) {
	if !validID(userID) {
		return nil, notFound("author for user", userID)
	}
	return r.get(ctx, "user_id", userID)
}

func (r *AuthorRepository) Update(ctx context.Context, a *entity.Author) error {
	if !validID(a.ID) {
		return notFound("author", a.ID)
	}
	row := r.db.conn(ctx).QueryRow(ctx, `
		UPDATE authors SET bio = $1, updated_at = now() WHERE id = $2
		RETURNING user_id, created_at, updated_at
	`, a.Bio, a.ID)
	return mapErr(row.Scan(&a.UserID, &a.CreatedAt, &a.UpdatedAt), "update author "+a.ID)
}

func (r *AuthorRepository) Lock(ctx context.Context, id string) error {
	return lockRow(ctx, r.db, "authors", "author", id)
}

func (r *AuthorRepository) Delete(ctx context.Context, id string) error {
	return deleteRow(ctx, r.db, "authors", "author", id)
}

func (r *AuthorRepository) List(ctx context.Context) ([]*entity.Author, error) {
	rows, err := r.db.conn(ctx).Query(ctx, `SELECT id, user_id, bio, created_at, updated_at FROM authors ORDER BY created_at, id`)
	if err != nil {
		return nil, mapErr(err, "list authors")
	}
	defer rows.Close()
	var out []*entity.Author
	for rows.Next() {
		a := &entity.Author{}
		if err := rows.Scan(&a.ID, &a.UserID, &a.Bio, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type ReaderRepository struct {
	db *DB
}

func NewReaderRepository(db *DB) *ReaderRepository {
	return &ReaderRepository{db: db}
}

func (r *ReaderRepository) Create(ctx context.Context, rd *entity.Reader) error {
	row := r.db.conn(ctx).QueryRow(ctx, `INSERT INTO readers (user_id) VALUES ($1) RETURNING id, created_at`, rd.UserID)
	return mapErr(row.Scan(&rd.ID, &rd.CreatedAt), "create reader")
}

func (r *ReaderRepository) get(ctx context.Context, where, arg string) (*entity.Reader, error) {
	rd := &entity.Reader{}
	err := r.db.conn(ctx).QueryRow(ctx, `SELECT id, user_id, created_at FROM readers WHERE `+where+` = $1`, arg).
		Scan(&rd.ID, &rd.UserID, &rd.CreatedAt)
	if err != nil {
		return nil, mapErr(err, "reader "+arg)
	}
	return rd, nil
}

func (r *ReaderRepository) GetByID(ctx context.Context, id string) (*entity.Reader, error) {
	if !validID(id) {
		return nil, notFound("reader", id)
	}
	return r.get(ctx, "id", id)
}

func (r *ReaderRepository) GetByUserID(ctx context.Context, userID string) (*entity.Reader, error) {
	if !validID(userID) {
		return nil, notFound("reader for user", userID)
	}
	return r.get(ctx, "user_id", userID)
}

func (r *ReaderRepository) Lock(ctx context.Context, id string) error {
	return lockRow(ctx, r.db, "readers", "reader", id)
}

func (r *ReaderRepository) Delete(ctx context.Context, id string) error {
	return deleteRow(ctx, r.db, "readers", "reader", id)
}

func (r *ReaderRepository) List(ctx context.Context) ([]*entity.Reader, error) {
	rows, err := r.db.conn(ctx).Query(ctx, `SELECT id, user_id, created_at FROM readers ORDER BY created_at, id`)
	if err != nil {
		return nil, mapErr(err, "list readers")
	}
	defer rows.Close()
	var out []*entity.Reader
	for rows.Next() {
		rd := &entity.Reader{}
		if err := rows.Scan(&rd.ID, &rd.UserID, &rd.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rd)
	}
	return out, rows.Err()
}

type FollowRepository struct {
	db *DB
}

func NewFollowRepository(db *DB) *FollowRepository {
	return &FollowRepository{db: db}
}

func (r *FollowRepository) Create(ctx context.Context, f *entity.Follow) error {
	if !validID(f.AuthorID) {
		return notFound("author", f.AuthorID)
	}
	row := r.db.conn(ctx).QueryRow(ctx, `
		INSERT INTO follows (reader_id, author_id) VALUES ($1, $2)
		RETURNING id, created_at
	`, f.ReaderID, f.AuthorID)
	return mapErr(row.Scan(&f.ID, &f.CreatedAt), "follow author "+f.AuthorID)
}

func (r *FollowRepository) Delete(ctx context.Context, readerID, authorID string) error {
	if !validID(authorID) || !validID(readerID) {
		return notFound("follow of author", authorID)
	}
	res, err := r.db.conn(ctx).Exec(ctx, `DELETE FROM follows WHERE reader_id = $1 AND author_id = $2`, readerID, authorID)
	if err != nil {
		return mapErr(err, "unfollow")
	}
	if res.RowsAffected() == 0 {
		return notFound("follow of author", authorID)
	}
	return nil
}

func (r *FollowRepository) DeleteByAuthor(ctx context.Context, authorID string) (int64, error) {
	return r.deleteBy(ctx, `author_id`, authorID)
}

func (r *FollowRepository) DeleteByReader(ctx context.Context, readerID string) (int64, error) {
	return r.deleteBy(ctx, `reader_id`, readerID)
}

func (r *FollowRepository) deleteBy(ctx context.Context, col, id string) (int64, error) {
	if !validID(id) {
		return 0, nil
	}
	res, err := r.db.conn(ctx).Exec(ctx, `DELETE FROM follows WHERE `+col+` = $1`, id)
	if err != nil {
		return 0, mapErr(err, "delete follows")
	}
	return res.RowsAffected(), nil
}

func (r *FollowRepository) ListByAuthor(ctx context.Context, authorID string) ([]*entity.Follow, error) {
	if !validID(authorID) {
		return nil, nil
	}
	return r.list(ctx, `author_id`, authorID)
}

func (r *FollowRepository) ListByReader(ctx context.Context, readerID string) ([]*entity.Follow, error) {
	if !validID(readerID) {
		return nil, nil
	}
	return r.list(ctx, `reader_id`, readerID)
}

func (r *FollowRepository) list(ctx context.Context, col, id string) ([]*entity.Follow, error) {
	rows, err := r.db.conn(ctx).Query(ctx,
		`SELECT id, reader_id, author_id, created_at FROM follows WHERE `+col+` = $1 ORDER BY created_at, id`, id)
	if err != nil {
		return nil, mapErr(err, "list follows")
	}
	defer rows.Close()
	var out []*entity.Follow
	for rows.Next() {
		f := &entity.Follow{}
		if err := rows.Scan(&f.ID, &f.ReaderID, &f.AuthorID, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

var (
	_ repository.UserRepository   = (*UserRepository)(nil)
	_ repository.AuthorRepository = (*AuthorRepository)(nil)
	_ repository.ReaderRepository = (*ReaderRepository)(nil)
	_ repository.FollowRepository = (*FollowRepository)(nil)
	_ repository.TxManager        = (*DB)(nil)
)
