package main

import (
	"context"
	"errors"
	"log"

	"github.com/joho/godotenv"

	"github.com/oksasatya/inkwell/config"
	"github.com/oksasatya/inkwell/internal/application"
	"github.com/oksasatya/inkwell/internal/container"
	"github.com/oksasatya/inkwell/internal/domain/apperr"
	"github.com/oksasatya/inkwell/internal/domain/entity"
	"github.com/oksasatya/inkwell/internal/domain/policy"
	pginfra "github.com/oksasatya/inkwell/internal/infrastructure/postgres"
	"github.com/oksasatya/inkwell/internal/notification"
	"github.com/oksasatya/inkwell/pkg/helpers"
)

const seedPassword = "password123"

// noQueue drops jobs; seeding should not email anybody.
type noQueue struct{}

func (noQueue) Enqueue(notification.Job) error { return nil }

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), 2, 1, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetJWT(helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL))
	svc := container.NewServices(container.PostgresRepositories(pginfra.NewDB(pool)), noQueue{})

	author, err := svc.Identity.Register(ctx, application.RegisterInput{
		Username: "demo-author",
		Email:    "author@inkwell.local",
		Password: seedPassword,
		Role:     entity.RoleAuthor,
		Bio:      "Writes about Go and distributed systems.",
	})
	if errors.Is(err, apperr.ErrConflict) {
		logger.Info("seed data already present, nothing to do")
		return
	}
	if err != nil {
		log.Fatalf("seed author: %v", err)
	}
	reader, err := svc.Identity.Register(ctx, application.RegisterInput{
		Username: "demo-reader",
		Email:    "reader@inkwell.local",
		Password: seedPassword,
		Role:     entity.RoleReader,
	})
	if err != nil {
		log.Fatalf("seed reader: %v", err)
	}

	authorActor := policy.AuthorActor{UID: author.User.ID, AuthorID: author.Author.ID}
	readerActor := policy.ReaderActor{UID: reader.User.ID, ReaderID: reader.Reader.ID}

	posts := []application.CreatePostInput{
		{Title: "Hello, Inkwell", Content: "The first published post.", Status: entity.StatusPublished, Tags: []string{"announcements"}},
		{Title: "Scheduling goroutines", Content: "Notes on the Go scheduler.", Status: entity.StatusPublished, Tags: []string{"go", "runtime"}},
		{Title: "Unfinished thoughts", Content: "Only the author can see this draft.", Status: entity.StatusDraft, Tags: []string{"go"}},
	}
	for _, in := range posts {
		p, err := svc.Posts.Create(ctx, authorActor, in)
		if err != nil {
			log.Fatalf("seed post %q: %v", in.Title, err)
		}
		logger.WithField("post_id", p.ID).Infof("seeded post %q (%s)", p.Title, p.Status)
	}
	if _, err := svc.Follows.Follow(ctx, readerActor, author.Author.ID); err != nil {
		log.Fatalf("seed follow: %v", err)
	}

	logger.Infof("seeded author=%s reader=%s password=%s", author.User.Email, reader.User.Email, seedPassword)
}
