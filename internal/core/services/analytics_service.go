package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/comitanigiacomo/kanso-analytics-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-analytics-engine/internal/metrics"
	"github.com/comitanigiacomo/kanso-analytics-engine/internal/platform/logger"
)

type AnalyticsOptions struct {
	// Location decides calendar days for history buckets and windows.
	Location *time.Location
	// HistoryRetentionDays > 0 prunes older history buckets on every completion.
	HistoryRetentionDays int
	MaxWriteAttempts     int
	ResetConcurrency     int
}

type AnalyticsService struct {
	repo       domain.AnalyticsRepository
	entities   domain.EntityRepository
	categories domain.CategoryRepository
	log        *logger.Logger
	opts       AnalyticsOptions
	now        func() time.Time
}

func NewAnalyticsService(
	repo domain.AnalyticsRepository,
	entities domain.EntityRepository,
	categories domain.CategoryRepository,
	log *logger.Logger,
	opts AnalyticsOptions,
) *AnalyticsService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.MaxWriteAttempts < 1 {
		opts.MaxWriteAttempts = 3
	}
	if opts.ResetConcurrency < 1 {
		opts.ResetConcurrency = 1
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &AnalyticsService{
		repo:       repo,
		entities:   entities,
		categories: categories,
		log:        log.With("component", "analytics"),
		opts:       opts,
		now:        time.Now,
	}
}

// SetClock replaces the time source. Used by tests.
func (s *AnalyticsService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *AnalyticsService) clock() time.Time {
	return s.now().In(s.opts.Location)
}

// GetAnalytics returns the record of the user, creating it with defaults on first use.
func (s *AnalyticsService) GetAnalytics(ctx context.Context, userID string) (*domain.AnalyticsRecord, error) {
	record, fresh, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !fresh {
		return record, nil
	}
	return s.mutate(ctx, userID, func(*domain.AnalyticsRecord) error { return nil })
}

// TrackCompletion reads the entity's current state and records a completion of it.
func (s *AnalyticsService) TrackCompletion(ctx context.Context, userID string, kind domain.EntityKind, entityID string) (*domain.AnalyticsRecord, error) {
	if _, err := domain.ParseEntityKind(string(kind)); err != nil {
		return nil, err
	}

	entity, err := s.entities.GetByID(ctx, kind, entityID)
	if err != nil {
		metrics.TrackingFailures.WithLabelValues(string(kind), "entity_lookup").Inc()
		return nil, fmt.Errorf("analytics: load %s %s: %w", kind, entityID, err)
	}
	if entity.UserID != userID {
		return nil, domain.ErrUnauthorized
	}

	ev := entity.NewCompletionEvent(s.clock())
	ev.CategoryName = s.categoryName(ctx, ev.CategoryID)

	return s.RecordCompletion(ctx, ev)
}

func (s *AnalyticsService) categoryName(ctx context.Context, categoryID string) string {
	if categoryID == "" || s.categories == nil {
		return ""
	}
	category, err := s.categories.GetByID(ctx, categoryID)
	if err != nil {
		if !errors.Is(err, domain.ErrCategoryNotFound) {
			s.log.Warn("category lookup failed", "category_id", categoryID, "error", err)
		}
		return ""
	}
	return category.Name
}

// RecordCompletion applies an already captured completion event to the
// owner's record.
func (s *AnalyticsService) RecordCompletion(ctx context.Context, ev domain.CompletionEvent) (*domain.AnalyticsRecord, error) {
	if ev.UserID == "" || ev.EntityID == "" {
		return nil, fmt.Errorf("analytics: completion event without user or entity: %w", domain.ErrEntityNotFound)
	}
	if _, err := domain.ParseEntityKind(string(ev.Kind)); err != nil {
		return nil, err
	}
	if ev.At.IsZero() {
		ev.At = s.clock()
	} else {
		ev.At = ev.At.In(s.opts.Location)
	}

	var res domain.ApplyResult
	record, err := s.mutate(ctx, ev.UserID, func(r *domain.AnalyticsRecord) error {
		res = r.Apply(ev, s.opts.HistoryRetentionDays)
		return nil
	})
	if err != nil {
		metrics.TrackingFailures.WithLabelValues(string(ev.Kind), "persistence").Inc()
		s.log.Error("failed to track completion",
			"user_id", ev.UserID, "kind", ev.Kind, "entity_id", ev.EntityID, "error", err)
		return nil, err
	}

	metrics.CompletionsTracked.WithLabelValues(string(ev.Kind)).Inc()
	s.log.Debug("completion tracked",
		"user_id", ev.UserID, "kind", ev.Kind, "entity_id", ev.EntityID,
		"streak", res.Streak, "streak_updated", res.StreakUpdated, "history_pruned", res.Pruned)

	return record, nil
}

func (s *AnalyticsService) ResetDaily(ctx context.Context) domain.ResetResult {
	return s.reset(ctx, domain.CadenceDaily)
}

func (s *AnalyticsService) ResetWeekly(ctx context.Context) domain.ResetResult {
	return s.reset(ctx, domain.CadenceWeekly)
}

func (s *AnalyticsService) ResetMonthly(ctx context.Context) domain.ResetResult {
	return s.reset(ctx, domain.CadenceMonthly)
}

// Reset runs the reset batch of period.
func (s *AnalyticsService) Reset(ctx context.Context, period domain.Cadence) (domain.ResetResult, error) {
	if _, err := domain.ParseCadence(string(period)); err != nil || period == "" {
		return domain.ResetResult{}, domain.ErrInvalidCadence
	}
	return s.reset(ctx, period), nil
}

func (s *AnalyticsService) reset(ctx context.Context, period domain.Cadence) domain.ResetResult {
	start := time.Now()
	defer func() {
		metrics.ResetDuration.WithLabelValues(string(period)).Observe(time.Since(start).Seconds())
	}()

	userIDs, err := s.repo.ListUserIDs(ctx)
	if err != nil {
		metrics.ResetRuns.WithLabelValues(string(period), "error").Inc()
		s.log.Error("reset batch failed", "period", period, "error", err)
		return domain.ResetResult{
			Success: false,
			Message: fmt.Sprintf("%s reset failed: %v", period, err),
			Period:  period,
			Failed:  []string{},
		}
	}

	var (
		mu        sync.Mutex
		processed int
		failed    = []string{}
	)

	g := new(errgroup.Group)
	g.SetLimit(s.opts.ResetConcurrency)

	for _, userID := range userIDs {
		g.Go(func() error {
			now := s.clock()
			_, err := s.mutate(ctx, userID, func(r *domain.AnalyticsRecord) error {
				return r.ResetPeriod(period, now)
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, userID)
				metrics.ResetUserFailures.WithLabelValues(string(period)).Inc()
				s.log.Warn("reset failed for user", "period", period, "user_id", userID, "error", err)
				return nil
			}
			processed++
			return nil
		})
	}
	_ = g.Wait()
	sort.Strings(failed)

	if err := ctx.Err(); err != nil {
		metrics.ResetRuns.WithLabelValues(string(period), "error").Inc()
		return domain.ResetResult{
			Success:   false,
			Message:   fmt.Sprintf("%s reset interrupted: %v", period, err),
			Period:    period,
			Processed: processed,
			Failed:    failed,
		}
	}

	outcome := "success"
	msg := fmt.Sprintf("%s reset completed for %d users", period, processed)
	if len(failed) > 0 {
		outcome = "partial"
		msg = fmt.Sprintf("%s, %d failed", msg, len(failed))
	}
	metrics.ResetRuns.WithLabelValues(string(period), outcome).Inc()
	s.log.Info("reset batch finished", "period", period, "processed", processed, "failed", len(failed))

	return domain.ResetResult{
		Success:   true,
		Message:   msg,
		Period:    period,
		Processed: processed,
		Failed:    failed,
	}
}

// load reads the record of the user. fresh reports a record that is not stored
// yet or replaces a malformed one; it carries the version to overwrite.
func (s *AnalyticsService) load(ctx context.Context, userID string) (record *domain.AnalyticsRecord, fresh bool, err error) {
	record, err = s.repo.Get(ctx, userID)
	if err == nil {
		record.Normalize()
		return record, false, nil
	}

	if errors.Is(err, domain.ErrAnalyticsNotFound) {
		return domain.NewAnalyticsRecord(userID, s.clock()), true, nil
	}

	var corrupt *domain.CorruptRecordError
	if errors.As(err, &corrupt) {
		metrics.RecordsReinitialized.Inc()
		s.log.Warn("malformed analytics record, reinitializing", "user_id", userID, "version", corrupt.Version, "error", corrupt.Err)
		record = domain.NewAnalyticsRecord(userID, s.clock())
		record.Version = corrupt.Version
		return record, true, nil
	}

	return nil, false, fmt.Errorf("%w: load %s: %w", domain.ErrPersistenceFailure, userID, err)
}

// mutate is the read-modify-write cycle of one record. A save lost to a
// concurrent writer is retried on a fresh read.
func (s *AnalyticsService) mutate(ctx context.Context, userID string, fn func(*domain.AnalyticsRecord) error) (*domain.AnalyticsRecord, error) {
	for attempt := 1; attempt <= s.opts.MaxWriteAttempts; attempt++ {
		record, _, err := s.load(ctx, userID)
		if err != nil {
			return nil, err
		}
		if err := fn(record); err != nil {
			return nil, err
		}

		err = s.repo.Save(ctx, record)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, domain.ErrAnalyticsConflict) {
			return nil, fmt.Errorf("%w: save %s: %w", domain.ErrPersistenceFailure, userID, err)
		}

		metrics.WriteConflicts.Inc()
		s.log.Debug("analytics write conflict, retrying", "user_id", userID, "attempt", attempt)
	}

	return nil, fmt.Errorf("%w: save %s: %w after %d attempts",
		domain.ErrPersistenceFailure, userID, domain.ErrAnalyticsConflict, s.opts.MaxWriteAttempts)
}
