package app

import (
	"context"
	"fmt"
	"strings"

	"lockedin/internal/config"
	"lockedin/internal/database/migration"
	"lockedin/internal/delivery/http/handler"
	"lockedin/internal/delivery/http/middleware"
	"lockedin/internal/delivery/http/routes"
	v1 "lockedin/internal/delivery/http/routes/v1"
	"lockedin/internal/pkg/jwt"
	"lockedin/internal/ws"
	"lockedin/migrations"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
	Hub       *ws.Hub
}

// NewHTTP builds the fiber app with the global middleware and every route.
func NewHTTP(cfg config.Config, logger *zap.Logger, registry *routes.Registry) *fiber.App {
	f := fiber.New(fiber.Config{AppName: cfg.App.AppName})

	registerGlobalMiddleware(f, logger)
	registry.Register(f)

	return f
}

// Bootstrap connects the infrastructure, applies migrations and starts the
// websocket hub together with the notification channel relay. Both stop when
// ctx is done.
func Bootstrap(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, func() error, error) {
	c, err := NewContainer(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("container: %w", err)
	}

	if err := migrationRunner(cfg, logger).Run(ctx, c.DB.SQLDB()); err != nil {
		_ = c.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}

	hub := ws.NewHub(logger)
	go hub.Run(ctx)

	if c.Redis.Available() {
		go func() {
			if err := ws.Forward(ctx, c.Redis, cfg.Notifier.NotificationChannel, hub, logger); err != nil {
				logger.Error("notification relay stopped", zap.Error(err))
			}
		}()
	} else {
		logger.Warn("redis unavailable, websocket clients will not receive notifications")
	}

	registry := routes.NewRegistry(
		handler.NewHealthHandler(c.DB, c.Redis),
		middleware.NewAuthMiddleware(jwt.NewHMACService(cfg.JWT.AccessSecret)),
		v1.Handlers{
			Recommendations: handler.NewRecommendationHandler(c.Recommendations),
			SavedSearches:   handler.NewSavedSearchHandler(c.SavedSearchUC),
			Notifications:   handler.NewNotificationHandler(c.HistoryUC),
			WS:              ws.NewHandler(hub, logger),
		},
	)

	a := &App{Fiber: NewHTTP(cfg, logger, registry), Container: c, Hub: hub}
	return a, c.Close, nil
}

func migrationRunner(cfg config.Config, logger *zap.Logger) migration.Runner {
	if dir := strings.TrimSpace(cfg.App.MigrationsDir); dir != "" {
		return migration.Runner{Dir: dir, Logger: logger}
	}
	return migration.Runner{FS: migrations.FS, Logger: logger}
}

func registerGlobalMiddleware(app *fiber.App, logger *zap.Logger) {
	if app == nil {
		return
	}

	app.Use(middleware.NewAccessLogMiddleware(logger).Middleware())
	app.Use(middleware.NewErrorMiddleware(logger).Middleware())
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
