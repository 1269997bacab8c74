package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"samadhan-setu/cache"
	"samadhan-setu/config"
	"samadhan-setu/controllers"
	"samadhan-setu/enrichment"
	"samadhan-setu/middlewares"
	"samadhan-setu/repository"
	"samadhan-setu/routes"
	"samadhan-setu/services"
	authUtils "samadhan-setu/utils"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

type revocationStore interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type stores struct {
	issues   repository.IssueRepository
	users    repository.UserRepository
	feedback repository.FeedbackRepository
	close    func(context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := config.NewLogger(cfg.Log)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, Environment: cfg.Env}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			logger.Warn("close store", slog.String("error", err.Error()))
		}
	}()

	tokens, err := authUtils.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	var ai enrichment.Service = enrichment.Unavailable{}
	if cfg.AI.APIKey != "" {
		ai = enrichment.NewAnthropic(logger, cfg.AI.APIKey, cfg.AI.Model)
	} else {
		logger.Warn("ANTHROPIC_API_KEY not set, AI enrichment disabled")
	}

	var (
		revocations  revocationStore
		issueLimiter gin.HandlerFunc
	)
	if cfg.Redis.Address != "" {
		rdb, err := config.ConnectRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		logger.Info("connected to Redis", slog.String("addr", cfg.Redis.Address))

		revocations = cache.NewTokenRevocations(rdb)
		limiter := cache.NewRateLimiter(rdb, cfg.Redis.IssueQueuePrefix, cfg.Redis.IssueDailyLimit, 24*time.Hour)
		issueLimiter = middlewares.IssueRateLimiter(logger, limiter)
	} else {
		logger.Warn("REDIS_ADDRESS not set, issue rate limiting and token revocation disabled")
	}

	engine := services.NewEngine(logger, st.issues, st.users, ai, services.EngineOptions{
		Strict:    cfg.Lifecycle.Strict,
		AITimeout: cfg.AI.Timeout,
	})
	reports := services.NewReports(logger, st.issues, ai, cfg.AI.Timeout)
	identity := services.NewIdentity(logger, st.users, tokens, cfg.Auth.AllowStaffSignup)
	mailbox := services.NewMailbox(logger, st.feedback)

	auth := middlewares.NewAuth(logger, tokens, revocations, identity)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := routes.NewRouter(logger, cfg.CORSOrigins, routes.Handlers{
		Auth: controllers.NewAuthController(logger, identity, revocations, controllers.CookieSettings{
			Domain:     cfg.Domain,
			Production: cfg.IsProduction(),
			MaxAge:     tokens.TTL(),
		}),
		Issues:       controllers.NewIssueController(logger, engine, reports),
		Feedback:     controllers.NewFeedbackController(logger, mailbox),
		Authenticate: auth.Middleware(),
		IssueLimiter: issueLimiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", slog.String("addr", srv.Addr), slog.Bool("strict_lifecycle", cfg.Lifecycle.Strict))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	if cfg.StoreBackend == config.BackendMemory {
		logger.Warn("using in-memory store, data is lost on restart")
		mem := repository.NewMemory()
		return &stores{
			issues:   mem.Issues(),
			users:    mem.Users(),
			feedback: mem.Feedback(),
			close:    func(context.Context) error { return nil },
		}, nil
	}

	mongo := config.NewMongo(logger, cfg.Mongo)
	db, err := mongo.EnsureConnected(ctx)
	if err != nil {
		return nil, err
	}
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		return nil, err
	}
	return &stores{
		issues:   repository.NewMongoIssues(db),
		users:    repository.NewMongoUsers(db),
		feedback: repository.NewMongoFeedback(db),
		close:    mongo.Disconnect,
	}, nil
}
