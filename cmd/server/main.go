package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_backend/internal/auth"
	"github.com/Skotchmaster/blog_backend/internal/config"
	"github.com/Skotchmaster/blog_backend/internal/db"
	"github.com/Skotchmaster/blog_backend/internal/events"
	"github.com/Skotchmaster/blog_backend/internal/hash"
	"github.com/Skotchmaster/blog_backend/internal/httpserver"
	"github.com/Skotchmaster/blog_backend/internal/logging"
	"github.com/Skotchmaster/blog_backend/internal/metrics"
	authmw "github.com/Skotchmaster/blog_backend/internal/middleware/auth"
	"github.com/Skotchmaster/blog_backend/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/blog_backend/internal/middleware/logging"
	"github.com/Skotchmaster/blog_backend/internal/repo"
	"github.com/Skotchmaster/blog_backend/internal/revocation"
	"github.com/Skotchmaster/blog_backend/internal/search"
	"github.com/Skotchmaster/blog_backend/internal/service"
	"github.com/Skotchmaster/blog_backend/internal/storage"
	"github.com/Skotchmaster/blog_backend/internal/tokens"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", "blog")
	slog.SetDefault(logger)
	ctx := logging.IntoContext(context.Background(), logger)

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	gdb, err := db.Open(openCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.Migrate(ctx, gdb); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	r := repo.New(gdb)
	hasher := hash.New(bcrypt.DefaultCost)
	files := storage.NewLocal(cfg.StaticPath)

	if err := service.Seed(ctx, r, hasher, files, service.SeedConfig{
		SuperUserName:     cfg.SuperUserName,
		SuperUserPassword: cfg.SuperUserPassword,
	}); err != nil {
		log.Fatalf("db seed: %v", err)
	}

	store := revocation.NewRedisStore(revocation.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := store.Ping(ctx); err != nil {
		logger.Warn("redis_unreachable", "addr", cfg.RedisAddr, "error", err)
	}

	codec, err := tokens.NewCodec(cfg.JWTSecret, tokens.WithAlgorithm(cfg.JWTAlgorithm), tokens.WithLeeway(cfg.Leeway))
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	dummy, err := hasher.Hash("dummy-password-for-unknown-users")
	if err != nil {
		log.Fatalf("dummy digest: %v", err)
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers)
	}

	var index search.Index
	if cfg.ESURL != "" {
		client, err := search.NewClient(search.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword})
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		es := search.NewESIndex(client, search.DefaultIndex)
		if err := es.Ping(ctx); err != nil {
			logger.Warn("elasticsearch_unreachable", "url", cfg.ESURL, "error", err)
		}
		index = es
	}

	m := metrics.New()

	gate := auth.NewGate(auth.GateConfig{
		Users:       r,
		Codec:       codec,
		Revocations: store,
		Observer:    m,
		FailOpen:    cfg.RevocationFailOpen,
	})
	authority := auth.NewAuthority(auth.AuthorityConfig{
		Gate:            gate,
		Users:           r,
		Hasher:          hasher,
		Codec:           codec,
		Revocations:     store,
		Events:          publisher,
		Observer:        m,
		AccessTTL:       cfg.AccessTTL,
		RefreshTTL:      cfg.RefreshTTL,
		RefreshRotation: cfg.RefreshRotation,
		DummyDigest:     dummy,
	})

	cookies := httpserver.Cookies{
		Enabled:  cfg.HasLocation("cookies"),
		Secure:   cfg.CookieSecure,
		SameSite: cfg.CookieSameSite,
		MaxAge:   cfg.CookieMaxAge,
	}
	images := &service.ImageService{Repo: r, Store: files, MaxBytes: cfg.MaxUploadBytes}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = httpserver.ErrorHandler
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(m.Middleware())
	e.Use(echomw.CORS())
	if cfg.CookieCSRF && cookies.Enabled {
		e.Use(csrf.Middleware(csrf.Config{
			Secure:    cfg.CookieSecure,
			SameSite:  cfg.CookieSameSite,
			SkipPaths: []string{"/auth/login", "/users", "/health/live", "/health/ready", "/metrics"},
		}))
	}

	httpserver.Register(e, &httpserver.Deps{
		Auth: &httpserver.AuthHTTP{Authority: authority, Cookies: cookies, Headers: cfg.HasLocation("headers")},
		Users: &httpserver.UsersHTTP{
			Svc: &service.UserService{
				Repo:      r,
				Hasher:    hasher,
				Authority: authority,
				Events:    publisher,
				Reserved:  cfg.ReservedUsernames,
			},
			Images:    images,
			Gate:      gate,
			Cookies:   cookies,
			AccessTTL: cfg.AccessTTL,
		},
		Roles:   &httpserver.RolesHTTP{Svc: &service.RoleService{Repo: r}},
		Posts:   &httpserver.PostsHTTP{Svc: &service.PostService{Repo: r, Gate: gate, Index: index, Events: publisher}},
		Images:  &httpserver.ImagesHTTP{Svc: images},
		Guards:  &authmw.Guards{Gate: gate, Locations: cfg.TokenLocations},
		Metrics: m,
		Ready: map[string]httpserver.ReadyCheck{
			"db":    func(ctx context.Context) error { return db.Ping(ctx, gdb) },
			"redis": store.Ping,
		},
		StaticPath:         cfg.StaticPath,
		LoginRatePerMinute: cfg.LoginRatePerMinute,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting_down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_failed", "error", err)
	}
	closeAll(logger, gdb, store, publisher)
	logger.Info("shutdown_complete")
}

func closeAll(l *slog.Logger, gdb *gorm.DB, store *revocation.RedisStore, publisher events.Publisher) {
	if err := db.Close(gdb); err != nil {
		l.Error("db_close_failed", "error", err)
	}
	if err := store.Close(); err != nil {
		l.Error("redis_close_failed", "error", err)
	}
	if err := publisher.Close(); err != nil {
		l.Error("kafka_close_failed", "error", err)
	}
}
