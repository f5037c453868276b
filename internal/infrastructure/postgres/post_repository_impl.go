package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/oksasatya/inkwell/internal/domain/entity"
	"github.com/oksasatya/inkwell/internal/domain/repository"
)

type TagRepository struct {
	db *DB
}

func NewTagRepository(db *DB) *TagRepository {
	return &TagRepository{db: db}
}

func (r *TagRepository) Create(ctx context.Context, t *entity.Tag) error {
	row := r.db.conn(ctx).QueryRow(ctx, `INSERT INTO tags (name) VALUES ($1) RETURNING id, created_at`, t.Name)
	return mapErr(row.Scan(&t.ID, &t.CreatedAt), "create tag "+t.Name)
}

func (r *TagRepository) GetByID(ctx context.Context, id string) (*entity.Tag, error) {
	if !validID(id) {
		return nil, notFound("tag", id)
	}
	t := &entity.Tag{}
	err := r.db.conn(ctx).QueryRow(ctx, `SELECT id, name, created_at FROM tags WHERE id = $1`, id).Scan(&t.ID, &t.Name, &t.CreatedAt)
	if err != nil {
		return nil, mapErr(err, "tag "+id)
	}
	return t, nil
}

func (r *TagRepository) GetByName(ctx context.Context, name string) (*entity.Tag, error) {
	t := &entity.Tag{}
	err := r.db.conn(ctx).QueryRow(ctx, `SELECT id, name, created_at FROM tags WHERE name = $1`, name).Scan(&t.ID, &t.Name, &t.CreatedAt)
	if err != nil {
		return nil, mapErr(err, "tag "+name)
	}
	return t, nil
}

func (r *TagRepository) GetOrCreate(ctx context.Context, name string) (*entity.Tag, error) {
	t := &entity.Tag{}
	err := r.db.conn(ctx).QueryRow(ctx, `
		INSERT INTO tags (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, created_at
	`, name).Scan(&t.ID, &t.Name, &t.CreatedAt)
	if err != nil {
		return nil, mapErr(err, "get or create tag "+name)
	}
	return t, nil
}

func (r *TagRepository) List(ctx context.Context) ([]*entity.Tag, error) {
	rows, err := r.db.conn(ctx).Query(ctx, `SELECT id, name, created_at FROM tags ORDER BY name`)
	if err != nil {
		return nil, mapErr(err, "list tags")
	}
	defer rows.Close()
	var out []*entity.Tag
	for rows.Next() {
		t := &entity.Tag{}
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TagRepository) Rename(ctx context.Context, t *entity.Tag) error {
	if !validID(t.ID) {
		return notFound("tag", t.ID)
	}
	row := r.db.conn(ctx).QueryRow(ctx, `UPDATE tags SET name = $1 WHERE id = $2 RETURNING created_at`, t.Name, t.ID)
	return mapErr(row.Scan(&t.CreatedAt), "rename tag "+t.ID)
}

// Delete must run inside a transaction: the tag row is locked before its
// links go so SetTags cannot attach it in between.
func (r *TagRepository) Delete(ctx context.Context, id string) (int64, error) {
	if err := lockRow(ctx, r.db, "tags", "tag", id); err != nil {
		return 0, err
	}
	res, err := r.db.conn(ctx).Exec(ctx, `DELETE FROM post_tags WHERE tag_id = $1`, id)
	if err != nil {
		return 0, mapErr(err, "unlink tag "+id)
	}
	if err := deleteRow(ctx, r.db, "tags", "tag", id); err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

type PostRepository struct {
	db *DB
}

func NewPostRepository(db *DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(ctx context.Context, p *entity.Post) error {
	if p.Status == "" {
		p.Status = entity.StatusDraft
	}
	row := r.db.conn(ctx).QueryRow(ctx, `
		INSERT INTO posts (author_id, title, content, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, p.AuthorID, p.Title, p.Content, string(p.Status))
	return mapErr(row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt), "create post")
}

func (r *PostRepository) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	if !validID(id) {
		return nil, notFound("post", id)
	}
	p := &entity.Post{}
	var status string
	err := r.db.conn(ctx).QueryRow(ctx, `
		SELECT id, author_id, title, content, status, created_at, updated_at
		FROM posts WHERE id = $1
	`, id).Scan(&p.ID, &p.AuthorID, &p.Title, &p.Content, &status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapErr(err, "post "+id)
	}
	p.Status = entity.PostStatus(status)
	if err := r.attachTags(ctx, []*entity.Post{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostRepository) Update(ctx context.Context, p *entity.Post) error {
	if !validID(p.ID) {
		return notFound("post", p.ID)
	}
	row := r.db.conn(ctx).QueryRow(ctx, `
		UPDATE posts SET title = $1, content = $2, status = $3, updated_at = now()
		WHERE id = $4
		RETURNING author_id, created_at, updated_at
	`, p.Title, p.Content, string(p.Status), p.ID)
	if err := row.Scan(&p.AuthorID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return mapErr(err, "update post "+p.ID)
	}
	p.Tags = nil
	return r.attachTags(ctx, []*entity.Post{p})
}

func (r *PostRepository) Delete(ctx context.Context, id string) error {
	return deleteRow(ctx, r.db, "posts", "post", id)
}

func (r *PostRepository) Lock(ctx context.Context, id string) error {
	return lockRow(ctx, r.db, "posts", "post", id)
}

func (r *PostRepository) ListIDsByAuthor(ctx context.Context, authorID string) ([]string, error) {
	if !validID(authorID) {
		return nil, nil
	}
	rows, err := r.db.conn(ctx).Query(ctx,
		`SELECT id FROM posts WHERE author_id = $1 ORDER BY created_at DESC, id DESC`, authorID)
	if err != nil {
		return nil, mapErr(err, "list author posts")
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PostRepository) SetTags(ctx context.Context, postID string, tagIDs []string) error {
	if err := r.DeleteTags(ctx, postID); err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}
	for _, id := range tagIDs {
		if !validID(id) {
			return notFound("tag", id)
		}
	}
	_, err := r.db.conn(ctx).Exec(ctx, `
		INSERT INTO post_tags (post_id, tag_id)
		SELECT $1::uuid, unnest($2::uuid[])
		ON CONFLICT DO NOTHING
	`, postID, tagIDs)
	return mapErr(err, "set post tags")
}

func (r *PostRepository) DeleteTags(ctx context.Context, postID string) error {
	if !validID(postID) {
		return notFound("post", postID)
	}
	_, err := r.db.conn(ctx).Exec(ctx, `DELETE FROM post_tags WHERE post_id = $1`, postID)
	return mapErr(err, "delete post tags")
}

func (r *PostRepository) List(ctx context.Context, f repository.PostFilter) ([]*entity.Post, int, error) {
	where, args := buildPostFilter(f)

	var total int
	if err := r.db.conn(ctx).QueryRow(ctx, `SELECT count(*) FROM posts p WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, mapErr(err, "count posts")
	}
	if total == 0 || f.Offset >= total {
		return []*entity.Post{}, total, nil
	}

	q := `SELECT p.id, p.author_id, p.title, p.content, p.status, p.created_at, p.updated_at
		FROM posts p WHERE ` + where + ` ORDER BY p.created_at DESC, p.id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	args = append(args, f.Offset)
	q += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, 0, mapErr(err, "list posts")
	}
	defer rows.Close()
	posts := make([]*entity.Post, 0, f.Limit)
	for rows.Next() {
		p := &entity.Post{}
		var status string
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Content, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		p.Status = entity.PostStatus(status)
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := r.attachTags(ctx, posts); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// buildPostFilter renders f as a WHERE clause over posts aliased p. Tag
// conditions use EXISTS so a post never appears twice.
func buildPostFilter(f repository.PostFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.AuthorID != "" {
		if !validID(f.AuthorID) {
			return "FALSE", nil
		}
		conds = append(conds, "p.author_id = "+arg(f.AuthorID))
	}
	if f.PublishedOnly {
		conds = append(conds, "p.status = 'published'")
	}
	if len(f.TagIDs) > 0 {
		ids := validIDs(f.TagIDs)
		if len(ids) == 0 {
			return "FALSE", nil
		}
		conds = append(conds, "EXISTS (SELECT 1 FROM post_tags pt WHERE pt.post_id = p.id AND pt.tag_id = ANY("+arg(ids)+"::uuid[]))")
	}
	if f.CreatedFrom != nil {
		conds = append(conds, "p.created_at >= "+arg(*f.CreatedFrom))
	}
	if f.CreatedTo != nil {
		conds = append(conds, "p.created_at <= "+arg(*f.CreatedTo))
	}
	if f.Search != "" {
		pat := arg("%" + escapeLike(f.Search) + "%")
		conds = append(conds, "(p.title ILIKE "+pat+" OR p.content ILIKE "+pat+
			" OR EXISTS (SELECT 1 FROM post_tags st JOIN tags t ON t.id = st.tag_id WHERE st.post_id = p.id AND t.name ILIKE "+pat+"))")
	}
	if len(conds) == 0 {
		return "TRUE", args
	}
	return strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *PostRepository) attachTags(ctx context.Context, posts []*entity.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]string, 0, len(posts))
	byID := make(map[string]*entity.Post, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
		byID[p.ID] = p
		p.Tags = []entity.Tag{}
	}
	rows, err := r.db.conn(ctx).Query(ctx, `
		SELECT pt.post_id, t.id, t.name, t.created_at
		FROM post_tags pt JOIN tags t ON t.id = pt.tag_id
		WHERE pt.post_id = ANY($1::uuid[])
		ORDER BY t.name
	`, ids)
	if err != nil {
		return mapErr(err, "load post tags")
	}
	defer rows.Close()
	for rows.Next() {
		var postID string
		var t entity.Tag
		if err := rows.Scan(&postID, &t.ID, &t.Name, &t.CreatedAt); err != nil {
			return err
		}
		if p, ok := byID[postID]; ok {
			p.Tags = append(p.Tags, t)
		}
	}
	return rows.Err()
}

type CommentRepository struct {
	db *DB
}

func NewCommentRepository(db *DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, c *entity.Comment) error {
	if !validID(c.PostID) {
		return notFound("post", c.PostID)
	}
	row := r.db.conn(ctx).QueryRow(ctx, `
		INSERT INTO comments (post_id, user_id, content) VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, c.PostID, c.UserID, c.Content)
	return mapErr(row.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt), "create comment")
}

func (r *CommentRepository) GetByID(ctx context.Context, id string) (*entity.Comment, error) {
	if !validID(id) {
		return nil, notFound("comment", id)
	}
	c := &entity.Comment{}
	err := r.db.conn(ctx).QueryRow(ctx, `
		SELECT id, post_id, user_id, content, created_at, updated_at FROM comments WHERE id = $1
	`, id).Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, mapErr(err, "comment "+id)
	}
	return c, nil
}

func (r *CommentRepository) Update(ctx context.Context, c *entity.Comment) error {
	if !validID(c.ID) {
		return notFound("comment", c.ID)
	}
	row := r.db.conn(ctx).QueryRow(ctx, `
		UPDATE comments SET content = $1, updated_at = now() WHERE id = $2
		RETURNING post_id, user_id, created_at, updated_at
	`, c.Content, c.ID)
	return mapErr(row.Scan(&c.PostID, &c.UserID, &c.CreatedAt, &c.UpdatedAt), "update comment "+c.ID)
}

func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return notFound("comment", id)
	}
	res, err := r.db.conn(ctx).Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return mapErr(err, "delete comment")
	}
	if res.RowsAffected() == 0 {
		return notFound("comment", id)
	}
	return nil
}

func (r *CommentRepository) ListByPost(ctx context.Context, postID string) ([]*entity.Comment, error) {
	if !validID(postID) {
		return nil, nil
	}
	rows, err := r.db.conn(ctx).Query(ctx, `
		SELECT id, post_id, user_id, content, created_at, updated_at
		FROM comments WHERE post_id = $1 ORDER BY created_at, id
	`, postID)
	if err != nil {
		return nil, mapErr(err, "list comments")
	}
	defer rows.Close()
	var out []*entity.Comment
	for rows.Next() {
		c := &entity.Comment{}
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CommentRepository) DeleteByPost(ctx context.Context, postID string) (int64, error) {
	if !validID(postID) {
		return 0, nil
	}
	res, err := r.db.conn(ctx).Exec(ctx, `DELETE FROM comments WHERE post_id = $1`, postID)
	if err != nil {
		return 0, mapErr(err, "delete post comments")
	}
	return res.RowsAffected(), nil
}

type LikeRepository struct {
	db *DB
}

func NewLikeRepository(db *DB) *LikeRepository {
	return &LikeRepository{db: db}
}

func (r *LikeRepository) Create(ctx context.Context, l *entity.Like) error {
	if !validID(l.PostID) {
		return notFound("post", l.PostID)
	}
	row := r.db.conn(ctx).QueryRow(ctx, `
		INSERT INTO likes (post_id, user_id) VALUES ($1, $2)
		RETURNING id, created_at
	`, l.PostID, l.UserID)
	return mapErr(row.Scan(&l.ID, &l.CreatedAt), "like post "+l.PostID)
}

func (r *LikeRepository) Get(ctx context.Context, userID, postID string) (*entity.Like, error) {
	if !validID(postID) || !validID(userID) {
		return nil, notFound("like on post", postID)
	}
	l := &entity.Like{}
	err := r.db.conn(ctx).QueryRow(ctx, `
		SELECT id, post_id, user_id, created_at FROM likes WHERE user_id = $1 AND post_id = $2
	`, userID, postID).Scan(&l.ID, &l.PostID, &l.UserID, &l.CreatedAt)
	if err != nil {
		return nil, mapErr(err, "like on post "+postID)
	}
	return l, nil
}

func (r *LikeRepository) Delete(ctx context.Context, userID, postID string) error {
	if !validID(postID) || !validID(userID) {
		return notFound("like on post", postID)
	}
	res, err := r.db.conn(ctx).Exec(ctx, `DELETE FROM likes WHERE user_id = $1 AND post_id = $2`, userID, postID)
	if err != nil {
		return mapErr(err, "unlike")
	}
	if res.RowsAffected() == 0 {
		return notFound("like on post", postID)
	}
	return nil
}

func (r *LikeRepository) ListByPost(ctx context.Context, postID string) ([]*entity.Like, error) {
	if !validID(postID) {
		return nil, nil
	}
	rows, err := r.db.conn(ctx).Query(ctx, `
		SELECT id, post_id, user_id, created_at FROM likes WHERE post_id = $1 ORDER BY created_at, id
	`, postID)
	if err != nil {
		return nil, mapErr(err, "list likes")
	}
	defer rows.Close()
	var out []*entity.Like
	for rows.Next() {
		l := &entity.Like{}
		if err := rows.Scan(&l.ID, &l.PostID, &l.UserID, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *LikeRepository) DeleteByPost(ctx context.Context, postID string) (int64, error) {
	if !validID(postID) {
		return 0, nil
	}
	res, err := r.db.conn(ctx).Exec(ctx, `DELETE FROM likes WHERE post_id = $1`, postID)
	if err != nil {
		return 0, mapErr(err, "delete post likes")
	}
	return res.RowsAffected(), nil
}

var (
	_ repository.TagRepository     = (*TagRepository)(nil)
	_ repository.PostRepository    = (*PostRepository)(nil)
	_ repository.CommentRepository = (*CommentRepository)(nil)
	_ repository.LikeRepository    = (*LikeRepository)(nil)
)
