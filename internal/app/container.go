package app

import (
	"context"
	"errors"
	"time"

	"lockedin/internal/config"
	dbpostgres "lockedin/internal/database/postgres"
	"lockedin/internal/infrastructure/cache"
	"lockedin/internal/notification"
	"lockedin/internal/repository"
	"lockedin/internal/usecase"

	"go.uber.org/zap"
)

// Container owns the shared infrastructure and the use cases built on it. The
// HTTP server and the notifier build the same container.
type Container struct {
	Config config.Config
	Logger *zap.Logger
	DB     *dbpostgres.Pool
	Redis  *cache.Redis

	Candidates    repository.CandidateRepository
	Jobs          repository.JobRepository
	SavedSearches repository.SavedSearchRepository
	SearchMatches repository.SearchMatchRepository
	Notifications repository.SearchNotificationRepository

	Evaluator       *usecase.SearchEvaluator
	Tracker         *usecase.MatchTracker
	Recommendations *usecase.Recommendation
	SavedSearchUC   *usecase.SavedSearches
	HistoryUC       *usecase.NotificationHistory
	Scheduler       *usecase.NotificationScheduler
}

func NewContainer(cfg config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Redis:  cache.NewRedis(cfg.Redis, logger),

		Candidates:    repository.NewPostgresCandidateRepository(db),
		Jobs:          repository.NewPostgresJobRepository(db),
		SavedSearches: repository.NewPostgresSavedSearchRepository(db),
		SearchMatches: repository.NewPostgresSearchMatchRepository(db),
		Notifications: repository.NewPostgresSearchNotificationRepository(db),
	}

	var searchCache usecase.SearchCache
	if c.Redis.Available() {
		searchCache = c.Redis
	}

	c.Evaluator = usecase.NewSearchEvaluator(c.Candidates, logger)
	c.Tracker = usecase.NewMatchTracker(c.Evaluator, c.SearchMatches, c.SavedSearches, logger)
	c.Recommendations = usecase.NewRecommendationUsecase(c.Jobs, c.Candidates, searchCache, cfg.Notifier.RecommendationTTL, logger)
	c.SavedSearchUC = usecase.NewSavedSearchUsecase(c.SavedSearches, c.Tracker, c.Evaluator, searchCache, cache.DefaultTTL, logger)
	c.HistoryUC = usecase.NewNotificationHistoryUsecase(c.Notifications, c.SavedSearches, logger)
	c.Scheduler = usecase.NewNotificationScheduler(
		c.SavedSearches,
		c.Tracker,
		c.Notifications,
		c.deliverer(),
		cache.NewSearchLock(c.Redis, db, cfg.Notifier.LockTTL, logger),
		usecase.SchedulerOptions{
			Workers:         cfg.Notifier.Workers,
			DeliveryTimeout: cfg.Notifier.DeliveryTimeout,
		},
		logger,
	)

	return c, nil
}

// deliverer publishes to the notification channel. While Redis is
// unavailable every delivery fails and matches stay pending. Log-only
// delivery has to be switched on explicitly.
func (c *Container) deliverer() notification.Deliverer {
	if c.Config.Notifier.LogOnly {
		c.Logger.Warn("log-only delivery enabled, notifications are not sent")
		return notification.NewLogDeliverer(c.Logger)
	}
	if !c.Redis.Available() {
		c.Logger.Warn("redis unavailable, deliveries will fail until it is reachable")
	}
	return notification.NewPublishDeliverer(c.Redis, c.Config.Notifier.NotificationChannel, c.Logger)
}

// HasTransport reports whether deliveries can reach anyone.
func (c *Container) HasTransport() bool {
	return c.Config.Notifier.LogOnly || c.Redis.Available()
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
