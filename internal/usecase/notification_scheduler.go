package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lockedin/internal/domain/match"
	"lockedin/internal/domain/savedsearch"
	"lockedin/internal/domain/user"
	"lockedin/internal/notification"
	"lockedin/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SearchLocker guards the reconcile/deliver/consume unit of one saved search.
type SearchLocker interface {
	Acquire(ctx context.Context, searchID uuid.UUID) (release func(), acquired bool, err error)
}

type Outcome string

const (
	OutcomeNotified  Outcome = "notified"
	OutcomeNoPending Outcome = "no_pending"
	OutcomeNotDue    Outcome = "not_due"
	OutcomeLocked    Outcome = "locked"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeDryRun    Outcome = "dry_run"
)

type RunOptions struct {
	Now      time.Time
	DryRun   bool
	SearchID *uuid.UUID
	Actor    user.Actor
}

type SearchReport struct {
	SearchID    uuid.UUID
	Name        string
	Outcome     Outcome
	NewMatches  int
	Pending     int
	Delivered   int
	WouldNotify bool
	Err         error
}

type RunReport struct {
	StartedAt time.Time
	DryRun    bool
	Searches  []SearchReport
}

func (r RunReport) Count(o Outcome) int {
	n := 0
	for _, s := range r.Searches {
		if s.Outcome == o {
			n++
		}
	}
	return n
}

type SchedulerOptions struct {
	Workers         int
	DeliveryTimeout time.Duration
}

// NotificationScheduler decides which saved searches are due and delivers
// their pending matches. Each search is handled on its own; one failure never
// stops the batch.
type NotificationScheduler struct {
	searches      repository.SavedSearchRepository
	tracker       *MatchTracker
	notifications repository.SearchNotificationRepository
	deliverer     notification.Deliverer
	locker        SearchLocker
	workers       int
	logger        *zap.Logger
	now           func() time.Time
}

func NewNotificationScheduler(
	searches repository.SavedSearchRepository,
	tracker *MatchTracker,
	notifications repository.SearchNotificationRepository,
	deliverer notification.Deliverer,
	locker SearchLocker,
	opts SchedulerOptions,
	logger *zap.Logger,
) *NotificationScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &NotificationScheduler{
		searches:      searches,
		tracker:       tracker,
		notifications: notifications,
		deliverer:     notification.WithTimeout(deliverer, opts.DeliveryTimeout),
		locker:        locker,
		workers:       workers,
		logger:        logger.Named("scheduler"),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// RunAllDue processes every active, notifying saved search (or only
// opts.SearchID). The returned error is set only when the batch could not
// start; per-search failures are in the report.
func (s *NotificationScheduler) RunAllDue(ctx context.Context, opts RunOptions) (RunReport, error) {
	if opts.Now.IsZero() {
		opts.Now = s.now()
	}
	if opts.Actor.IsZero() {
		opts.Actor = user.SystemActor("notifier")
	}

	report := RunReport{StartedAt: opts.Now, DryRun: opts.DryRun}

	searches, err := s.searches.ListNotifiable(ctx, opts.SearchID)
	if err != nil {
		return report, fmt.Errorf("list saved searches: %w", err)
	}

	s.logger.Info("notification run started",
		zap.Int("searches", len(searches)),
		zap.Bool("dry_run", opts.DryRun),
		zap.Time("now", opts.Now),
	)

	results := make([]SearchReport, len(searches))
	g := new(errgroup.Group)
	g.SetLimit(s.workers)

	for i, ss := range searches {
		if ctx.Err() != nil {
			results[i] = SearchReport{SearchID: ss.ID, Name: ss.Name, Outcome: OutcomeSkipped, Err: ctx.Err()}
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i] = SearchReport{SearchID: ss.ID, Name: ss.Name, Outcome: OutcomeSkipped, Err: ctx.Err()}
				return nil
			}
			results[i] = s.process(ctx, ss, opts)
			return nil
		})
	}
	_ = g.Wait()

	report.Searches = results
	s.logger.Info("notification run finished",
		zap.Int("notified", report.Count(OutcomeNotified)),
		zap.Int("failed", report.Count(OutcomeFailed)),
		zap.Int("skipped", report.Count(OutcomeSkipped)),
		zap.Int("locked", report.Count(OutcomeLocked)),
		zap.Bool("dry_run", opts.DryRun),
	)
	return report, nil
}

func (s *NotificationScheduler) process(ctx context.Context, ss savedsearch.SavedSearch, opts RunOptions) SearchReport {
	rep := SearchReport{SearchID: ss.ID, Name: ss.Name}
	log := s.logger.With(zap.String("saved_search_id", ss.ID.String()), zap.String("name", ss.Name))

	if opts.DryRun {
		return s.preview(ctx, ss, opts, rep, log)
	}

	release, ok, err := s.locker.Acquire(ctx, ss.ID)
	if err != nil {
		log.Error("lock failed", zap.Error(err))
		rep.Outcome, rep.Err = OutcomeFailed, err
		return rep
	}
	if !ok {
		log.Info("search busy in another run")
		rep.Outcome = OutcomeLocked
		return rep
	}
	defer release()

	// reload under the lock; another run may have notified or deleted it
	fresh, err := s.searches.GetByID(ctx, ss.ID)
	if err != nil {
		if errors.Is(err, repository.ErrSavedSearchNotFound) {
			rep.Outcome = OutcomeSkipped
			return rep
		}
		log.Error("reload failed", zap.Error(err))
		rep.Outcome, rep.Err = OutcomeFailed, err
		return rep
	}
	ss = fresh
	if !ss.Notifiable() {
		rep.Outcome = OutcomeSkipped
		return rep
	}

	created, err := s.tracker.Reconcile(ctx, ss, opts.Now)
	if err != nil {
		log.Error("reconcile failed", zap.Error(err))
		rep.Outcome, rep.Err = OutcomeFailed, err
		return rep
	}
	rep.NewMatches = len(created)

	pending, err := s.tracker.Pending(ctx, ss.ID)
	if err != nil {
		log.Error("load pending failed", zap.Error(err))
		rep.Outcome, rep.Err = OutcomeFailed, err
		return rep
	}
	rep.Pending = len(pending)

	if !savedsearch.ShouldNotify(ss, len(pending), opts.Now) {
		rep.Outcome = idleOutcome(len(pending))
		log.Debug("not notifying",
			zap.String("state", savedsearch.StateOf(ss, len(pending), opts.Now).String()),
			zap.Int("pending", len(pending)),
		)
		return rep
	}

	d, err := notification.Build(ss, pending, opts.Now)
	if err != nil {
		log.Error("render failed", zap.Error(err))
		rep.Outcome, rep.Err = OutcomeFailed, err
		return rep
	}

	if err := s.deliverer.Deliver(ctx, d); err != nil {
		log.Warn("delivery failed, matches stay pending", zap.Int("pending", len(pending)), zap.Error(err))
		rep.Outcome, rep.Err = OutcomeFailed, err
		return rep
	}

	if _, err := s.tracker.Consume(ctx, ss, opts.Actor, opts.Now); err != nil {
		log.Error("delivered but not consumed, will be sent again", zap.Error(err))
		rep.Outcome, rep.Err = OutcomeFailed, err
		return rep
	}
	rep.Delivered = len(pending)
	rep.Outcome = OutcomeNotified

	if _, err := s.notifications.Create(ctx, match.SearchNotification{
		SavedSearchID:    ss.ID,
		NotificationType: ss.Frequency,
		SentAt:           opts.Now,
		MatchesCount:     len(pending),
		EmailSent:        true,
	}); err != nil {
		log.Error("audit row not written", zap.Error(err))
		rep.Err = err
	}

	log.Info("notification sent",
		zap.Int("matches", len(pending)),
		zap.String("template", string(d.Template)),
		zap.Stringer("actor", opts.Actor),
	)
	return rep
}

func (s *NotificationScheduler) preview(ctx context.Context, ss savedsearch.SavedSearch, opts RunOptions, rep SearchReport, log *zap.Logger) SearchReport {
	fresh, err := s.tracker.Preview(ctx, ss)
	if err != nil {
		log.Error("preview failed", zap.Error(err))
		rep.Outcome, rep.Err = OutcomeFailed, err
		return rep
	}
	pending, err := s.tracker.CountPending(ctx, ss.ID)
	if err != nil {
		log.Error("count pending failed", zap.Error(err))
		rep.Outcome, rep.Err = OutcomeFailed, err
		return rep
	}

	rep.NewMatches = len(fresh)
	rep.Pending = pending + len(fresh)
	rep.WouldNotify = savedsearch.ShouldNotify(ss, rep.Pending, opts.Now)
	rep.Outcome = OutcomeDryRun

	log.Info("dry run",
		zap.Int("new", rep.NewMatches),
		zap.Int("pending", rep.Pending),
		zap.Bool("would_notify", rep.WouldNotify),
		zap.String("template", string(notification.TemplateFor(ss.Frequency))),
	)
	return rep
}

func idleOutcome(pending int) Outcome {
	if pending == 0 {
		return OutcomeNoPending
	}
	return OutcomeNotDue
}
