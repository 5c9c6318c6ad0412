package main // Entry point package

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/stock-inventory/internal/config"
	"github.com/iliyamo/stock-inventory/internal/database"
	"github.com/iliyamo/stock-inventory/internal/handler"
	"github.com/iliyamo/stock-inventory/internal/logging"
	"github.com/iliyamo/stock-inventory/internal/metrics"
	"github.com/iliyamo/stock-inventory/internal/middleware"
	"github.com/iliyamo/stock-inventory/internal/queue"
	"github.com/iliyamo/stock-inventory/internal/repository"
	"github.com/iliyamo/stock-inventory/internal/router"
	"github.com/iliyamo/stock-inventory/internal/service"
	"github.com/iliyamo/stock-inventory/internal/utils"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load() // Load environment config
	if err != nil {
		return err
	}
	log := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.DBMigrate {
		dsn := database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err := database.Migrate(dsn, log); err != nil {
			return err
		}
	}

	// Redis is optional; nil disables the shared limiter and the cache
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable, using in-process rate limiting and no product cache")
	} else {
		defer rdb.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pub service.Publisher = service.NoopPublisher{}
	if cfg.EventsEnabled {
		amqpPub := service.NewAMQPPublisher(cfg.RabbitURL, cfg.EventsQueue, log)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := amqpPub.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Warn("rabbitmq unreachable, events disabled", "err", err)
		} else {
			defer amqpPub.Close()
			pub = amqpPub
		}
	}
	if cfg.EventsConsumer {
		go func() {
			if err := queue.StartConsumer(ctx, cfg.RabbitURL, cfg.EventsQueue, log); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("event consumer stopped", "err", err)
			}
		}()
	}

	// Repositories
	store := database.NewStore(db)
	users := repository.NewUserRepo(store)
	tokens := repository.NewTokenRepo(store)
	companies := repository.NewCompanyRepo(store)
	members := repository.NewCompanyUserRepo(store)
	products := repository.NewProductRepo(store)

	// Services
	issuer := utils.NewTokenIssuer(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	cache := middleware.NewProductCache(config.LoadCacheConfig(), rdb)
	sessions := service.NewSessionService(users, tokens, issuer, cfg.BcryptCost, log)
	cookies := handler.Cookies{Secure: cfg.SecureCookies(), AccessTTL: cfg.AccessTokenTTL, RefreshTTL: cfg.RefreshTokenTTL}

	limiter, err := middleware.NewRateLimiter(config.LoadRateLimitConfig(), rdb, cfg.LoginRate)
	if err != nil {
		return err
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Validator = handler.NewValidator()

	metrics.Init()
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(logging.Middleware(log))
	e.Use(metrics.Middleware())

	router.RegisterRoutes(e, router.Deps{
		Issuer:    issuer,
		Auth:      handler.NewAuthHandler(sessions, cookies),
		Users:     handler.NewUserHandler(service.NewUserService(users, cfg.BcryptCost, pub, log)),
		Companies: handler.NewCompanyHandler(service.NewCompanyService(companies, users, cache, pub, log), sessions, cookies),
		Members:   handler.NewCompanyUserHandler(service.NewCompanyUserService(members, pub, log)),
		Products:  handler.NewProductHandler(service.NewProductService(products, cache, pub, log)),
		RateLimit: limiter,
		Cache:     cache,
		DB:        db,
	})

	addr := ":" + cfg.Port // Address string with port
	errc := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
