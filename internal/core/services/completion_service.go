package services

import (
	"context"
	"time"

	"github.com/comitanigiacomo/kanso-analytics-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-analytics-engine/internal/core/workers"
	"github.com/comitanigiacomo/kanso-analytics-engine/internal/platform/logger"
)

// CompletionService completes habits, tasks and routines. The entity write is
// the primary operation; analytics follow asynchronously through the worker.
type CompletionService struct {
	entities domain.EntityRepository
	worker   *workers.AnalyticsWorker
	log      *logger.Logger
	loc      *time.Location
	now      func() time.Time
}

func NewCompletionService(entities domain.EntityRepository, worker *workers.AnalyticsWorker, log *logger.Logger, loc *time.Location) *CompletionService {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &CompletionService{
		entities: entities,
		worker:   worker,
		log:      log.With("component", "completion"),
		loc:      loc,
		now:      time.Now,
	}
}

func (s *CompletionService) SetClock(now func() time.Time) {
	s.now = now
}

type CompleteInput struct {
	UserID   string
	Kind     domain.EntityKind
	EntityID string
}

func (s *CompletionService) Complete(ctx context.Context, input CompleteInput) (*domain.Entity, error) {
	if _, err := domain.ParseEntityKind(string(input.Kind)); err != nil {
		return nil, err
	}

	entity, err := s.entities.GetByID(ctx, input.Kind, input.EntityID)
	if err != nil {
		return nil, err
	}
	if entity.UserID != input.UserID {
		return nil, domain.ErrUnauthorized
	}

	ev := entity.Complete(s.now().In(s.loc))

	if err := s.entities.SaveCompletion(ctx, entity); err != nil {
		return nil, err
	}

	if s.worker != nil && !s.worker.Enqueue(ev) {
		s.log.Warn("analytics skipped for completion", "user_id", ev.UserID, "entity_id", ev.EntityID)
	}

	return entity, nil
}
