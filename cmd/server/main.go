package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"libraryCatalog/internal/ai"
	"libraryCatalog/internal/auth"
	"libraryCatalog/internal/config"
	"libraryCatalog/internal/db"
	grpcserver "libraryCatalog/internal/grpc"
	"libraryCatalog/internal/httpapi"
	"libraryCatalog/internal/library"
	"libraryCatalog/internal/logger"
	"libraryCatalog/internal/oauth"
	"libraryCatalog/repository"
)

func main() {
	// Load configuration
	cfg, err := config.LoadWithDefaults()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	base := logger.New(cfg.Log.Level, cfg.Log.Format)
	log := base.WithField("app", "library")
	log.Infof("configuration loaded: %v", cfg)

	// Open DB
	d, err := db.Open(cfg.Database.Driver, cfg.Database.Path)
	if err != nil {
		log.WithError(err).Fatal("open db")
	}
	defer func() {
		if err := d.Close(); err != nil {
			log.WithError(err).Error("close db")
		}
	}()

	users := repository.NewUserRepository(d)
	books := repository.NewBookRepository(d)
	loans := repository.NewLoanRepository(d)

	adapter := ai.New(cfg.AI, books, embeddingCache(cfg, log), log.WithField("component", "ai"))
	log.WithField("source", adapter.Source).Info("ai adapter selected")

	svc := library.New(users, books, loans, adapter, log.WithField("component", "library"))
	authn := auth.NewAuthenticator(cfg.Auth.Secret, users, log.WithField("component", "auth"))

	// Start gRPC
	stopGRPC, err := grpcserver.StartGRPC(cfg.GRPC.Address, svc, authn, log.WithField("component", "grpc"))
	if err != nil {
		log.WithError(err).Fatal("start grpc")
	}

	// Start HTTP
	stopHTTP, err := httpapi.StartHTTP(cfg.HTTP.Address, &httpapi.Handler{
		Svc:           svc,
		Authn:         authn,
		Providers:     providers(cfg, log),
		Log:           log.WithField("component", "http"),
		TokenTTL:      cfg.Auth.TTL,
		FrontendURL:   cfg.OAuth.FrontendURL,
		SecureCookies: strings.HasPrefix(cfg.OAuth.BackendURL, "https:"),
	})
	if err != nil {
		log.WithError(err).Fatal("start http")
	}

	// Wait for signal
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := stopHTTP(ctx); err != nil {
		log.WithError(err).Error("http shutdown")
	}
	if err := stopGRPC(ctx); err != nil {
		log.WithError(err).Error("grpc shutdown")
	}
}

// embeddingCache returns a Redis-backed cache when REDIS_ADDR is set.
func embeddingCache(cfg *config.Config, log *logrus.Entry) ai.VectorCache {
	if cfg.Redis.Addr == "" || !cfg.AI.Enabled() {
		return nil
	}
	client, err := ai.NewRedisClient(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.WithError(err).Warn("redis unavailable, embeddings will not be cached")
		return nil
	}
	return ai.NewRedisCache(client, cfg.AI.EmbeddingModel, 0)
}

func providers(cfg *config.Config, log *logrus.Entry) *oauth.Registry {
	var list []oauth.Provider
	if cfg.Google.Enabled() {
		g, err := oauth.NewGoogle(context.Background(), cfg.Google.ClientID, cfg.Google.ClientSecret,
			oauth.CallbackURL(cfg.OAuth.BackendURL, "google"))
		if err != nil {
			log.WithError(err).Warn("google sign-in disabled")
		} else {
			list = append(list, g)
		}
	}
	if cfg.GitHub.Enabled() {
		g, err := oauth.NewGitHub(cfg.GitHub.ClientID, cfg.GitHub.ClientSecret,
			oauth.CallbackURL(cfg.OAuth.BackendURL, "github"))
		if err != nil {
			log.WithError(err).Warn("github sign-in disabled")
		} else {
			list = append(list, g)
		}
	}
	reg := oauth.NewRegistry(list...)
	log.WithField("providers", reg.Names()).Info("oauth providers configured")
	return reg
}
