package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/comitanigiacomo/kanso-analytics-engine/internal/core/domain"
)

var (
	_ domain.AnalyticsRepository = (*InMemoryAnalyticsRepository)(nil)
	_ domain.EntityRepository    = (*InMemoryEntityRepository)(nil)
	_ domain.CategoryRepository  = (*InMemoryCategoryRepository)(nil)
	_ domain.UserRepository      = (*InMemoryUserRepository)(nil)
)

type storedDocument struct {
	raw     []byte
	version int
}

// InMemoryAnalyticsRepository keeps encoded documents, so callers never share
// state with the store, and applies the same version check as Postgres.
type InMemoryAnalyticsRepository struct {
	store map[string]storedDocument

	mu sync.RWMutex
}

func NewInMemoryAnalyticsRepository() *InMemoryAnalyticsRepository {
	return &InMemoryAnalyticsRepository{
		store: make(map[string]storedDocument),
	}
}

func (r *InMemoryAnalyticsRepository) Get(ctx context.Context, userID string) (*domain.AnalyticsRecord, error) {
	r.mu.RLock()
	doc, ok := r.store[userID]
	r.mu.RUnlock()

	if !ok {
		return nil, domain.ErrAnalyticsNotFound
	}
	return decodeRecord(userID, doc.version, doc.raw)
}

func (r *InMemoryAnalyticsRepository) Save(ctx context.Context, record *domain.AnalyticsRecord) error {
	raw, err := encodeRecord(record)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.store[record.UserID].version != record.Version {
		return domain.ErrAnalyticsConflict
	}

	next := record.Version + 1
	r.store[record.UserID] = storedDocument{raw: raw, version: next}
	record.Version = next
	return nil
}

func (r *InMemoryAnalyticsRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.store))
	for id := range r.store {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// PutRaw stores a document as is, bumping the version. Used to seed fixtures.
func (r *InMemoryAnalyticsRepository) PutRaw(userID string, raw []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.store[userID] = storedDocument{raw: raw, version: r.store[userID].version + 1}
}

type InMemoryEntityRepository struct {
	store map[domain.EntityKind]map[string]*domain.Entity

	mu sync.RWMutex
}

func NewInMemoryEntityRepository() *InMemoryEntityRepository {
	return &InMemoryEntityRepository{
		store: map[domain.EntityKind]map[string]*domain.Entity{
			domain.KindHabit:   {},
			domain.KindTask:    {},
			domain.KindRoutine: {},
		},
	}
}

// Add stores a copy of the entity, starting it at version 1.
func (r *InMemoryEntityRepository) Add(entity *domain.Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *entity
	if copied.Version == 0 {
		copied.Version = 1
	}
	r.store[copied.Kind][copied.ID] = &copied
}

func (r *InMemoryEntityRepository) GetByID(ctx context.Context, kind domain.EntityKind, id string) (*domain.Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entity, ok := r.store[kind][id]
	if !ok || entity.DeletedAt != nil {
		return nil, domain.ErrEntityNotFound
	}
	copied := *entity
	return &copied, nil
}

func (r *InMemoryEntityRepository) SaveCompletion(ctx context.Context, entity *domain.Entity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.store[entity.Kind][entity.ID]
	if !ok || existing.DeletedAt != nil {
		return domain.ErrEntityNotFound
	}
	if existing.Version != entity.Version {
		return domain.ErrEntityConflict
	}

	entity.Version++
	copied := *entity
	r.store[entity.Kind][entity.ID] = &copied
	return nil
}

func (r *InMemoryEntityRepository) ResetDaily(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, entities := range r.store {
		for _, e := range entities {
			if e.DeletedAt != nil || (!e.IsCompletedToday && e.CompletedCount == 0) {
				continue
			}
			e.IsCompletedToday = false
			e.CompletedCount = 0
			e.Version++
			n++
		}
	}
	return n, nil
}

func (r *InMemoryEntityRepository) DecayStreaks(ctx context.Context, cadence domain.Cadence, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, entities := range r.store {
		for _, e := range entities {
			if e.DeletedAt != nil || e.CurrentStreak == 0 || effectiveCadence(e) != cadence {
				continue
			}
			if e.LastCompletedAt != nil && !e.LastCompletedAt.Before(cutoff) {
				continue
			}
			e.CurrentStreak = 0
			e.Version++
			n++
		}
	}
	return n, nil
}

func effectiveCadence(e *domain.Entity) domain.Cadence {
	if e.Cadence == "" {
		return domain.CadenceDaily
	}
	return e.Cadence
}

type InMemoryCategoryRepository struct {
	store map[string]*domain.Category

	mu sync.RWMutex
}

func NewInMemoryCategoryRepository() *InMemoryCategoryRepository {
	return &InMemoryCategoryRepository{
		store: make(map[string]*domain.Category),
	}
}

func (r *InMemoryCategoryRepository) Add(category *domain.Category) {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *category
	r.store[copied.ID] = &copied
}

func (r *InMemoryCategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	category, ok := r.store[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	copied := *category
	return &copied, nil
}

type InMemoryUserRepository struct {
	store map[string]*domain.User

	mu sync.RWMutex
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		store: make(map[string]*domain.User),
	}
}

func (r *InMemoryUserRepository) Add(user *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *user
	r.store[copied.ID] = &copied
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.store[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}
