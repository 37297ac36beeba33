// Package bootstrap wires configuration, storage, and services into a
// runnable application.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "jsonlify-backend/internal/auth"
	"jsonlify-backend/internal/files"
	"jsonlify-backend/internal/instructions"
	"jsonlify-backend/internal/jobs"
	"jsonlify-backend/internal/queue"
	"jsonlify-backend/internal/shared/config"
	"jsonlify-backend/internal/shared/server"
	"jsonlify-backend/internal/shared/storage/artifact"
	localstore "jsonlify-backend/internal/shared/storage/artifact/local"
	s3store "jsonlify-backend/internal/shared/storage/artifact/s3"
	"jsonlify-backend/internal/shared/storage/db"
	"jsonlify-backend/internal/transcribe"
	"jsonlify-backend/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  artifact.Store
	Queue  queue.Client

	JobsRepo  jobs.Repo
	UsersRepo users.Repo

	JobsService  *jobs.Service
	UsersService *users.Service

	JobsHandler *jobs.Handler
	FileHandler *files.Handler
	UserHandler *users.Handler
	GoogleAuth  *googleauth.GoogleService
}

// Build prepares shared dependencies and the HTTP router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}
	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:      app.Config,
		JobsHandler: app.JobsHandler,
		FileHandler: app.FileHandler,
		UserHandler: app.UserHandler,
		GoogleAuth:  app.GoogleAuth,
	})
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	// Production schemas move through the migrate binary; dev runs them on
	// boot for convenience.
	if isDevLike(cfg.Env) {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			log.Printf("bootstrap: migrations failed; using in-memory repositories: %v", err)
			_ = sqlDB.Close()
			return nil, nil
		}
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (artifact.Store, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir, cfg.PublicBaseURL), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.JobsQueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx)
}

func buildServices(app *App) error {
	var jobsRepo jobs.Repo
	var usersRepo users.Repo
	if app.DB != nil {
		jobsRepo = &jobs.PGRepo{DB: app.DB}
		usersRepo = &users.PGRepo{DB: app.DB}
	} else {
		jobsRepo = jobs.NewMemoryRepo()
		usersRepo = users.NewMemoryRepo()
	}

	var transcriber *transcribe.Client
	if strings.TrimSpace(app.Config.OpenAIAPIKey) != "" {
		client, err := transcribe.NewClient(app.Config.OpenAIAPIKey, app.Config.TranscribeModel)
		if err != nil {
			return err
		}
		transcriber = client
	}

	var providers []instructions.Provider
	if strings.TrimSpace(app.Config.GeminiAPIKey) != "" {
		gemini, err := instructions.NewGeminiProvider(app.Config.GeminiAPIKey, app.Config.GeminiModel)
		if err != nil {
			return err
		}
		providers = append(providers, gemini)
	}
	if strings.TrimSpace(app.Config.OpenAIAPIKey) != "" {
		openai, err := instructions.NewOpenAIProvider(app.Config.OpenAIAPIKey, app.Config.InstructModel)
		if err != nil {
			return err
		}
		providers = append(providers, openai)
	}

	var dispatcher jobs.Dispatcher
	if app.Queue != nil {
		dispatcher = &jobs.QueueDispatcher{Client: app.Queue}
	}

	jobsSvc := &jobs.Service{
		Repo:         jobsRepo,
		Store:        app.Store,
		Instructions: instructions.NewGenerator(providers...),
		Dispatcher:   dispatcher,
	}
	if transcriber != nil {
		jobsSvc.Transcriber = transcriber
	}

	usersSvc := users.NewService(usersRepo)
	googleAuth := googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		app.Config.AdminEmails,
		usersSvc,
	)

	app.JobsRepo = jobsRepo
	app.UsersRepo = usersRepo
	app.JobsService = jobsSvc
	app.UsersService = usersSvc
	app.JobsHandler = &jobs.Handler{Service: jobsSvc}
	app.FileHandler = files.NewHandler(app.Store)
	app.UserHandler = users.NewHandler(usersSvc)
	app.GoogleAuth = googleAuth
	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
