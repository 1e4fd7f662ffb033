package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron"

	"github.com/comitanigiacomo/kanso-analytics-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-analytics-engine/internal/platform/logger"
)

type AnalyticsResetter interface {
	Reset(ctx context.Context, period domain.Cadence) (domain.ResetResult, error)
}

type EntityResetter interface {
	ResetDaily(ctx context.Context) (int64, error)
	DecayStreaks(ctx context.Context, cadence domain.Cadence, cutoff time.Time) (int64, error)
}

// RunGuard elects a single runner for a period across replicas.
type RunGuard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type ResetSchedule struct {
	Daily   string
	Weekly  string
	Monthly string
}

// DefaultResetSchedule runs at midnight, on weekStart and on the 1st. The
// specs carry a leading seconds field.
func DefaultResetSchedule(weekStart time.Weekday) ResetSchedule {
	return ResetSchedule{
		Daily:   "0 0 0 * * *",
		Weekly:  fmt.Sprintf("0 0 0 * * %d", int(weekStart)),
		Monthly: "0 0 0 1 * *",
	}
}

type ResetSchedulerOptions struct {
	Location   *time.Location
	WeekStart  time.Weekday
	Schedule   ResetSchedule
	RunTimeout time.Duration
}

// ResetScheduler triggers the periodic entity and analytics resets.
type ResetScheduler struct {
	analytics AnalyticsResetter
	entities  EntityResetter
	guard     RunGuard
	log       *logger.Logger
	opts      ResetSchedulerOptions
	cron      *cron.Cron
	now       func() time.Time
}

func NewResetScheduler(analytics AnalyticsResetter, entities EntityResetter, guard RunGuard, log *logger.Logger, opts ResetSchedulerOptions) *ResetScheduler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Schedule == (ResetSchedule{}) {
		opts.Schedule = DefaultResetSchedule(opts.WeekStart)
	}
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = 10 * time.Minute
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &ResetScheduler{
		analytics: analytics,
		entities:  entities,
		guard:     guard,
		log:       log.With("component", "reset_scheduler"),
		opts:      opts,
		cron:      cron.NewWithLocation(opts.Location),
		now:       time.Now,
	}
}

func (s *ResetScheduler) SetClock(now func() time.Time) {
	s.now = now
}

// Start registers the three reset jobs and runs them until ctx is done.
func (s *ResetScheduler) Start(ctx context.Context) error {
	jobs := []struct {
		spec   string
		period domain.Cadence
	}{
		{s.opts.Schedule.Daily, domain.CadenceDaily},
		{s.opts.Schedule.Weekly, domain.CadenceWeekly},
		{s.opts.Schedule.Monthly, domain.CadenceMonthly},
	}

	for _, job := range jobs {
		period := job.period
		err := s.cron.AddFunc(job.spec, func() {
			runCtx, cancel := context.WithTimeout(ctx, s.opts.RunTimeout)
			defer cancel()
			s.RunPeriod(runCtx, period)
		})
		if err != nil {
			return fmt.Errorf("reset scheduler: invalid %s schedule %q: %w", period, job.spec, err)
		}
	}

	s.cron.Start()
	s.log.Info("reset scheduler started",
		"daily", s.opts.Schedule.Daily, "weekly", s.opts.Schedule.Weekly, "monthly", s.opts.Schedule.Monthly,
		"location", s.opts.Location.String())

	go func() {
		<-ctx.Done()
		s.cron.Stop()
		s.log.Info("reset scheduler stopped")
	}()
	return nil
}

// RunPeriod performs the entity-level resets and the analytics reset batch of
// period. The entity and analytics steps are independent: a failure in one
// does not skip the other.
func (s *ResetScheduler) RunPeriod(ctx context.Context, period domain.Cadence) domain.ResetResult {
	now := s.now().In(s.opts.Location)

	held := ""
	if s.guard != nil {
		key := s.guardKey(period, now)
		acquired, err := s.guard.Acquire(ctx, key, guardTTL(period))
		switch {
		case err != nil:
			s.log.Warn("reset guard unavailable, running anyway", "period", period, "error", err)
		case !acquired:
			s.log.Info("reset already handled by another instance", "period", period, "key", key)
			return domain.ResetResult{
				Success: true,
				Message: fmt.Sprintf("%s reset already ran for this period", period),
				Period:  period,
				Failed:  []string{},
			}
		default:
			held = key
		}
	}

	s.resetEntities(ctx, period, now)

	result, err := s.analytics.Reset(ctx, period)
	if err != nil {
		s.log.Error("analytics reset rejected", "period", period, "error", err)
		result = domain.ResetResult{Success: false, Message: err.Error(), Period: period, Failed: []string{}}
	}

	// A failed run gives the period back so a retry is not skipped.
	if !result.Success && held != "" {
		if err := s.guard.Release(context.WithoutCancel(ctx), held); err != nil {
			s.log.Warn("reset guard release failed", "period", period, "key", held, "error", err)
		}
	}
	return result
}

func (s *ResetScheduler) resetEntities(ctx context.Context, period domain.Cadence, now time.Time) {
	if s.entities == nil {
		return
	}

	if period == domain.CadenceDaily {
		n, err := s.entities.ResetDaily(ctx)
		if err != nil {
			s.log.Error("entity daily reset failed", "error", err)
		} else {
			s.log.Info("entity daily state cleared", "rows", n)
		}
	}

	cutoff := domain.PreviousPeriodStart(now, period, s.opts.WeekStart)
	n, err := s.entities.DecayStreaks(ctx, period, cutoff)
	if err != nil {
		s.log.Error("streak decay failed", "cadence", period, "error", err)
		return
	}
	s.log.Info("stale streaks decayed", "cadence", period, "cutoff", cutoff, "rows", n)
}

func (s *ResetScheduler) guardKey(period domain.Cadence, now time.Time) string {
	var stamp string
	switch period {
	case domain.CadenceWeekly:
		stamp = domain.StartOfWeek(now, s.opts.WeekStart).Format("2006-01-02")
	case domain.CadenceMonthly:
		stamp = now.Format("2006-01")
	default:
		stamp = now.Format("2006-01-02")
	}
	return fmt.Sprintf("kanso:analytics:reset:%s:%s", period, stamp)
}

func guardTTL(period domain.Cadence) time.Duration {
	switch period {
	case domain.CadenceWeekly:
		return 6 * 24 * time.Hour
	case domain.CadenceMonthly:
		return 27 * 24 * time.Hour
	default:
		return 23 * time.Hour
	}
}
