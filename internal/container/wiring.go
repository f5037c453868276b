package container

import (
	"github.com/oksasatya/inkwell/internal/application"
	repo "github.com/oksasatya/inkwell/internal/domain/repository"
	"github.com/oksasatya/inkwell/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/inkwell/internal/infrastructure/postgres"
	"github.com/oksasatya/inkwell/internal/infrastructure/search"
	"github.com/oksasatya/inkwell/internal/notification"
	"github.com/oksasatya/inkwell/pkg/helpers"
	tpl "github.com/oksasatya/inkwell/pkg/mailer/templates"
)

// Repositories is one storage backend behind the repository interfaces.
type Repositories struct {
	Users    repo.UserRepository
	Authors  repo.AuthorRepository
	Readers  repo.ReaderRepository
	Follows  repo.FollowRepository
	Tags     repo.TagRepository
	Posts    repo.PostRepository
	Comments repo.CommentRepository
	Likes    repo.LikeRepository
	Tx       repo.TxManager
}

func MemoryRepositories(s *memory.Store) Repositories {
	return Repositories{
		Users:    s.Users(),
		Authors:  s.Authors(),
		Readers:  s.Readers(),
		Follows:  s.Follows(),
		Tags:     s.Tags(),
		Posts:    s.Posts(),
		Comments: s.Comments(),
		Likes:    s.Likes(),
		Tx:       s,
	}
}

func PostgresRepositories(db *pginfra.DB) Repositories {
	return Repositories{
		Users:    pginfra.NewUserRepository(db),
		Authors:  pginfra.NewAuthorRepository(db),
		Readers:  pginfra.NewReaderRepository(db),
		Follows:  pginfra.NewFollowRepository(db),
		Tags:     pginfra.NewTagRepository(db),
		Posts:    pginfra.NewPostRepository(db),
		Comments: pginfra.NewCommentRepository(db),
		Likes:    pginfra.NewLikeRepository(db),
		Tx:       db,
	}
}

// Services groups the application services built over one set of repositories.
type Services struct {
	Identity *application.IdentityService
	Posts    *application.PostService
	Comments *application.CommentService
	Likes    *application.LikeService
	Follows  *application.FollowService
	Tags     *application.TagService
	Reset    *application.PasswordResetService
}

// PostIndexer returns the Elasticsearch indexer, or nil when ES is not configured.
func PostIndexer() *search.PostIndexer {
	if esClient == nil {
		return nil
	}
	return search.NewPostIndexer(esClient, GetConfig().ESPostsIndex, GetLogger())
}

// NewServices wires the services over r using the container singletons.
// queue receives background notification jobs.
func NewServices(r Repositories, queue notification.Enqueuer) *Services {
	c := GetConfig()
	log := GetLogger()
	ix := PostIndexer()

	posts := &application.PostService{
		Posts:    r.Posts,
		Tags:     r.Tags,
		Comments: r.Comments,
		Likes:    r.Likes,
		Tx:       r.Tx,
		Queue:    queue,
		NotifyOn: application.ParseNotifyPolicy(c.NotifyFollowersOn),
		Indexing: ix != nil,
		Logger:   log,
	}
	if ix != nil {
		posts.Searcher = ix
	}

	return &Services{
		Identity: &application.IdentityService{
			Users:     r.Users,
			Authors:   r.Authors,
			Readers:   r.Readers,
			Follows:   r.Follows,
			Content:   posts,
			Tx:        r.Tx,
			JWT:       GetJWT(),
			Redis:     redisClient,
			GCS:       gcsClient,
			GCSBucket: c.GCSBucket,
			Logger:    log,
		},
		Posts:    posts,
		Comments: &application.CommentService{Posts: r.Posts, Comments: r.Comments, Queue: queue, Logger: log},
		Likes:    &application.LikeService{Posts: r.Posts, Likes: r.Likes, Logger: log},
		Follows:  &application.FollowService{Authors: r.Authors, Follows: r.Follows, Logger: log},
		Tags:     &application.TagService{Tags: r.Tags, Tx: r.Tx, Logger: log},
		Reset: &application.PasswordResetService{
			Users:    r.Users,
			Tokens:   helpers.NewResetTokenSigner(c.ResetTokenSecret, c.ResetTokenTTL),
			Queue:    queue,
			ResetURL: c.ResetPasswordURL,
			Logger:   log,
		},
	}
}

// NotificationHandlers builds the job handlers over r. Mail goes through
// RabbitMQ when a publisher is set and sending is enabled, and is always logged.
func NotificationHandlers(r Repositories) *notification.Handlers {
	c := GetConfig()
	log := GetLogger()
	notifier := notification.Fanout{notification.LogNotifier{Logger: log}}
	if rabbitPub != nil && c.MailSendEnabled {
		notifier = append(notifier, notification.MailNotifier{Pub: rabbitPub})
	}
	h := &notification.Handlers{
		Users:    r.Users,
		Authors:  r.Authors,
		Readers:  r.Readers,
		Follows:  r.Follows,
		Posts:    r.Posts,
		Notifier: notifier,
		Brand:    tpl.Brand{AppName: c.AppName, SupportURL: c.SupportURL, PostURL: c.PostURL},
		Logger:   log,
	}
	if ix := PostIndexer(); ix != nil {
		h.Indexer = ix
	}
	return h
}
