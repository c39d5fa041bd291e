package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "resume-optimizer-backend/internal/auth"
	"resume-optimizer-backend/internal/coverletters"
	"resume-optimizer-backend/internal/llm"
	openai "resume-optimizer-backend/internal/llm/openai"
	"resume-optimizer-backend/internal/shared/config"
	"resume-optimizer-backend/internal/shared/server"
	"resume-optimizer-backend/internal/shared/storage/db"
	"resume-optimizer-backend/internal/shared/storage/object"
	localstore "resume-optimizer-backend/internal/shared/storage/object/local"
	s3store "resume-optimizer-backend/internal/shared/storage/object/s3"
	"resume-optimizer-backend/internal/submissions"
	"resume-optimizer-backend/internal/users"
)

// App holds shared dependencies built once at startup.
type App struct {
	Config             config.Config
	Router             *gin.Engine
	DB                 *sql.DB
	Store              object.ObjectStore
	SubmissionsRepo    submissions.Repo
	UsersRepo          users.Repo
	SubmissionsService *submissions.Service
	CoverLetterService *coverletters.Service
	UsersService       *users.Service
	SubmissionsHandler *submissions.Handler
	CoverLetterHandler *coverletters.Handler
	UsersHandler       *users.Handler
	GoogleAuth         *googleauth.GoogleService
}

// Build prepares shared dependencies and wires the router.
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

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:       app.Config,
		Submissions:  app.SubmissionsHandler,
		CoverLetters: app.CoverLetterHandler,
		Users:        app.UsersHandler,
		GoogleAuth:   app.GoogleAuth,
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

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	var subsRepo submissions.Repo
	var userRepo users.Repo

	if app.DB != nil {
		subsRepo = &submissions.PGRepo{DB: app.DB}
		userRepo = &users.PGRepo{DB: app.DB}
	} else {
		subsRepo = submissions.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
	}

	llmClient := llm.Client(llm.PlaceholderClient{})
	if app.Config.LLMProvider == "openai" && strings.TrimSpace(os.Getenv("OPENAI_API_KEY")) != "" {
		openaiClient, err := openai.NewClient(os.Getenv("OPENAI_API_KEY"), app.Config.LLMModel)
		if err != nil {
			return err
		}
		llmClient = openaiClient
	}

	subsSvc := &submissions.Service{
		Repo:  subsRepo,
		Store: app.Store,
		LLM:   llmClient,
	}

	coverSvc := &coverletters.Service{
		Subs: subsSvc,
		LLM:  llmClient,
	}

	userSvc := users.NewService(userRepo)
	googleAuthSvc := googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		userSvc,
	)

	app.SubmissionsRepo = subsRepo
	app.UsersRepo = userRepo
	app.SubmissionsService = subsSvc
	app.CoverLetterService = coverSvc
	app.UsersService = userSvc
	app.SubmissionsHandler = submissions.NewHandler(subsSvc)
	app.CoverLetterHandler = coverletters.NewHandler(coverSvc)
	app.UsersHandler = users.NewHandler(userSvc)
	app.GoogleAuth = googleAuthSvc

	return nil
}
