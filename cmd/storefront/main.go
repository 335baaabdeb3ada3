package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/kolshi/internal/catalog/flatfile"
	catalogsvc "github.com/Skotchmaster/kolshi/internal/catalog/service"
	"github.com/Skotchmaster/kolshi/internal/checkout"
	"github.com/Skotchmaster/kolshi/internal/feedback"
	"github.com/Skotchmaster/kolshi/internal/httpserver"
	"github.com/Skotchmaster/kolshi/internal/mykafka"
	"github.com/Skotchmaster/kolshi/internal/search"
	"github.com/Skotchmaster/kolshi/internal/session"
	"github.com/Skotchmaster/kolshi/pkg/config"
	"github.com/Skotchmaster/kolshi/pkg/logging"
	loggingmw "github.com/Skotchmaster/kolshi/pkg/middleware/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("dotenv_not_found", "error", err.Error())
	}

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")

	ctx := logging.IntoContext(context.Background(), logger)

	report, err := flatfile.Load(ctx, cfg.CatalogPath)
	if err != nil {
		logger.Error("catalog_load_error", "path", cfg.CatalogPath, "error", err.Error())
		os.Exit(1)
	}
	catalog := catalogsvc.New(report.Products)

	if cfg.ESURL != "" {
		initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		idx, err := search.NewClient(initCtx, search.Config{
			URL:      cfg.ESURL,
			User:     cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    cfg.ESIndex,
		})
		if err == nil {
			err = catalog.UseSearcher(initCtx, idx)
		}
		cancel()
		if err != nil {
			logger.Warn("search_backend_disabled", "error", err.Error())
		}
	}

	var (
		events checkout.Publisher = checkout.NopPublisher{}
		prod   *mykafka.Producer
	)
	if len(cfg.KafkaBrokers) > 0 {
		topicCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := mykafka.EnsureTopics(topicCtx, cfg.KafkaBrokers[0], checkout.TopicCart, checkout.TopicCheckout); err != nil {
			logger.Warn("kafka_topics_error", "error", err.Error())
		}
		cancel()

		prod, err = mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			logger.Error("kafka_producer_error", "error", err.Error())
			os.Exit(1)
		}
		events = prod
	}

	sessions := session.NewManager(cfg.JWTSecret, session.DefaultTokenTTL)
	if err := sessions.AddAccounts(cfg.Accounts); err != nil {
		logger.Error("accounts_error", "error", err.Error())
		os.Exit(1)
	}

	store := checkout.New(catalog, events)

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		Handler: &httpserver.StorefrontHTTP{
			Store:    store,
			Sessions: sessions,
			Feedback: feedback.NewLog(cfg.FeedbackPath),
		},
		Sessions: sessions,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("catalog_ready", "products", catalog.Len())
	err = serve(ctx, srv, quit)
	if prod != nil {
		if cerr := prod.Close(); cerr != nil {
			logger.Warn("kafka_close_error", "error", cerr.Error())
		}
	}
	if err != nil {
		logger.Error("server_error", "error", err.Error())
		os.Exit(1)
	}
	logger.Info("server_stopped")
}
