package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"uptask/internal/account"
	"uptask/internal/auth"
	"uptask/internal/config"
	"uptask/internal/metrics"
	"uptask/internal/notify"
	"uptask/internal/repository"
	"uptask/internal/tokens"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/samber/oops"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const shutdownTimeout = 5 * time.Second

// Repositories is the storage the application runs on.
type Repositories struct {
	Users    repository.UserRepositoryInterface
	Tokens   repository.TokenRepositoryInterface
	Projects repository.ProjectRepositoryInterface
	Tasks    repository.TaskRepositoryInterface
	Notes    repository.NoteRepositoryInterface
}

func GormRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:    repository.NewUserRepository(db),
		Tokens:   repository.NewTokenRepository(db),
		Projects: repository.NewProjectRepository(db),
		Tasks:    repository.NewTaskRepository(db),
		Notes:    repository.NewNoteRepository(db),
	}
}

// App holds the wired services. It is independent of how storage was opened.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Repos    Repositories
	Sessions *auth.SessionIssuer
	Tokens   *tokens.Service
	Accounts *account.Service
}

func NewApp(cfg *config.Config, logger *slog.Logger, repos Repositories, notifier notify.Notifier, opts ...account.Option) *App {
	m := metrics.New()
	sessions := auth.NewSessionIssuer(cfg.JWTSecret, cfg.SessionTTL)
	tokenService := tokens.NewService(repos.Tokens, cfg.TokenTTL, cfg.TokenDigits,
		tokens.WithStrictPurpose(cfg.StrictTokenPurpose),
		tokens.WithMetrics(m),
	)
	opts = append([]account.Option{account.WithMetrics(m)}, opts...)
	accounts := account.NewService(repos.Users, tokenService, auth.NewBcryptHasher(0), sessions, notifier, logger, opts...)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Metrics:  m,
		Repos:    repos,
		Sessions: sessions,
		Tokens:   tokenService,
		Accounts: accounts,
	}
}

// Notifier picks SMTP delivery when a host is configured and logs messages
// otherwise.
func Notifier(cfg *config.Config, logger *slog.Logger) notify.Notifier {
	if cfg.SMTPHost == "" {
		logger.Warn("SMTP_HOST not set, notifications are only logged")
		return notify.NewLogNotifier(logger)
	}
	return notify.NewSMTPNotifier(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.SMTPFrom,
	}, cfg.FrontendURL, cfg.TokenTTL)
}

// OpenDB connects to Postgres through pgx with the configured connect timeout.
func OpenDB(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	connCfg, err := pgx.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").Wrapf(err, "parse DATABASE_URL")
	}
	connCfg.ConnectTimeout = cfg.DBConnectTimeout

	sqlDB := stdlib.OpenDB(*connCfg)
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DBConnectTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, oops.Code("DB_UNREACHABLE").Wrapf(err, "connect to database")
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, oops.Code("DB_UNREACHABLE").Wrapf(err, "open gorm")
	}
	return db, nil
}

type Server struct {
	*App
	Engine *gin.Engine
	DB     *gorm.DB
}

// Migrator applies schema migrations to the database at the given URL.
type Migrator func(databaseURL string) error

// Init connects to the database, applies migrations and wires the router.
func Init(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := OpenDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to database")
	return NewServer(db, cfg, logger, repository.Migrate)
}

// NewServer migrates an open database and wires the router over it. db is
// closed when migrating fails.
func NewServer(db *gorm.DB, cfg *config.Config, logger *slog.Logger, migrate Migrator) (*Server, error) {
	if err := migrate(cfg.DatabaseURL); err != nil {
		closeDB(db)
		return nil, err
	}
	logger.Info("migrations applied")

	app := NewApp(cfg, logger, GormRepositories(db), Notifier(cfg, logger))
	return &Server{App: app, Engine: app.Router(), DB: db}, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Run serves HTTP and sweeps expired tokens until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.Config.ServerPort,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.Logger.Info("server listening", "port", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return oops.Code("SERVER_LISTEN").Wrapf(err, "listen on :%s", s.Config.ServerPort)
		}
		return nil
	})
	g.Go(func() error {
		s.Tokens.RunSweeper(ctx, s.Config.TokenSweepInterval, s.Logger)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.Logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	closeDB(s.DB)
	if err == nil {
		s.Logger.Info("server exited properly")
	}
	return err
}
