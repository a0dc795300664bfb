// Package store keeps the background process's TTL bounded view of job postings.
//
// A CacheStore is created at process start and lives until the process exits. The in-memory
// cache is authoritative; the optional Storage receives a write-through copy so that a restart
// can recover entries that have not expired yet.
package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/maxaizer/job-insights/internal/config"
	"github.com/maxaizer/job-insights/internal/domain/models"
	"github.com/maxaizer/job-insights/internal/logger"
	"github.com/maxaizer/job-insights/internal/metrics"
	gocache "github.com/patrickmn/go-cache"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

type Storage interface {
	Save(ctx context.Context, item models.StorageItem) error
	Remove(ctx context.Context, key string) error
	LoadAll(ctx context.Context) ([]models.StorageItem, error)
	ReplaceAll(ctx context.Context, items []models.StorageItem) error
}

type cacheEntry struct {
	entity models.Entity
	ts     time.Time
}

type CacheStore struct {
	mu          sync.Mutex
	cache       *gocache.Cache
	history     []models.Entity
	passthrough models.Snapshot
	ttl         time.Duration
	historyMax  int
	storage     Storage
	now         func() time.Time
}

// New creates a store. storage may be nil, in which case nothing outlives the process.
func New(cfg config.CacheConfig, storage Storage) *CacheStore {
	return &CacheStore{
		cache:       gocache.New(cfg.TTL, cfg.CleanupInterval),
		history:     []models.Entity{},
		passthrough: models.Snapshot{},
		ttl:         cfg.TTL,
		historyMax:  cfg.HistoryMax,
		storage:     storage,
		now:         time.Now,
	}
}

// Get returns the cached entity or nil when it is absent or older than the TTL.
// Expired entries are removed.
func (s *CacheStore) Get(ctx context.Context, entityID string) *models.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, found := s.lookup(entityID)
	if !found {
		metrics.CacheLookupsCounter.WithLabelValues("miss").Inc()
		return nil
	}

	if s.expired(entry) {
		metrics.CacheLookupsCounter.WithLabelValues("expired").Inc()
		s.cache.Delete(entityID)
		s.removeFromStorage(ctx, models.EntityKey(entityID))
		return nil
	}

	metrics.CacheLookupsCounter.WithLabelValues("hit").Inc()
	entity := entry.entity
	return &entity
}

// Put stores counts under a fresh timestamp and moves the entity to the front of the history.
// Records without any count are not kept.
func (s *CacheStore) Put(ctx context.Context, entityID string, counts models.Counts) {
	if counts.Empty() {
		log.Debugf("ignoring empty counts for job %s", entityID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC().Truncate(time.Millisecond)
	entry := cacheEntry{entity: models.NewEntity(entityID, counts, now), ts: now}
	s.cache.Set(entityID, entry, s.ttl)
	s.pushHistory(entry.entity)

	s.persist(ctx, entityID, entry)
	s.persistHistory(ctx)
}

// History returns a copy of the recent history, most recently updated first.
func (s *CacheStore) History() []models.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]models.Entity{}, s.history...)
}

// Export returns every unexpired entry and the history as a flat snapshot.
func (s *CacheStore) Export() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := models.Snapshot{}
	for id, item := range s.cache.Items() {
		entry, ok := item.Object.(cacheEntry)
		if !ok || s.expired(entry) {
			continue
		}
		if raw, err := json.Marshal(stored(entry)); err == nil {
			snapshot[models.EntityKey(id)] = raw
		}
	}

	for key, raw := range s.passthrough {
		snapshot[key] = raw
	}
	if raw, err := json.Marshal(s.history); err == nil {
		snapshot[models.HistoryKey] = raw
	}
	return snapshot
}

// Import replaces the whole state with snapshot. Keys the store does not own are kept as they
// are and exported again; malformed job entries and history are dropped.
func (s *CacheStore) Import(ctx context.Context, snapshot models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.load(snapshot)

	if s.storage == nil {
		return nil
	}
	return s.storage.ReplaceAll(ctx, s.storageItems(snapshot))
}

// Restore loads unexpired state from storage. It is meant to run once at process start.
func (s *CacheStore) Restore(ctx context.Context) error {
	if s.storage == nil {
		return nil
	}

	items, err := s.storage.LoadAll(ctx)
	if err != nil {
		return err
	}

	snapshot := models.Snapshot{}
	for _, item := range items {
		snapshot[item.Key] = item.Value
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(snapshot)
	log.Infof("restored %d cached jobs and %d history records", s.cache.ItemCount(), len(s.history))
	return nil
}

func (s *CacheStore) load(snapshot models.Snapshot) {
	s.cache.Flush()
	s.history = []models.Entity{}
	s.passthrough = models.Snapshot{}

	for key, raw := range snapshot {
		if key == models.HistoryKey {
			var history []models.Entity
			if err := json.Unmarshal(raw, &history); err != nil {
				log.Warnf("skipping malformed history: %v", err)
				continue
			}
			s.history = lo.Slice(history, 0, s.historyMax)
			continue
		}

		id, ok := models.EntityIDFromKey(key)
		if !ok {
			s.passthrough[key] = raw
			continue
		}

		var value models.StoredEntity
		if err := json.Unmarshal(raw, &value); err != nil {
			log.Warnf("skipping malformed entry %s: %v", key, err)
			continue
		}

		entry := cacheEntry{
			entity: models.Entity{ID: id, Applies: value.Applies, Views: value.Views, LastSeen: value.LastSeen},
			ts:     value.CreatedAt(),
		}
		if remaining := s.ttl - s.now().Sub(entry.ts); remaining > 0 {
			s.cache.Set(id, entry, remaining)
		}
	}
}

func (s *CacheStore) lookup(entityID string) (cacheEntry, bool) {
	value, found := s.cache.Get(entityID)
	if !found {
		return cacheEntry{}, false
	}
	entry, ok := value.(cacheEntry)
	return entry, ok
}

func (s *CacheStore) expired(entry cacheEntry) bool {
	return s.now().Sub(entry.ts) > s.ttl
}

func (s *CacheStore) pushHistory(entity models.Entity) {
	rest := lo.Filter(s.history, func(item models.Entity, _ int) bool {
		return item.ID != entity.ID
	})
	s.history = lo.Slice(append([]models.Entity{entity}, rest...), 0, s.historyMax)
}

func (s *CacheStore) persist(ctx context.Context, entityID string, entry cacheEntry) {
	if s.storage == nil {
		return
	}

	raw, err := json.Marshal(stored(entry))
	if err != nil {
		log.Errorf("failed to encode job %s: %v", entityID, err)
		return
	}

	expiresAt := entry.ts.Add(s.ttl)
	item := models.StorageItem{Key: models.EntityKey(entityID), Value: raw, ExpiresAt: &expiresAt}
	if err = s.storage.Save(ctx, item); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeStorage).Errorf("failed to persist job %s: %v", entityID, err)
	}
}

func (s *CacheStore) persistHistory(ctx context.Context) {
	if s.storage == nil {
		return
	}

	raw, err := json.Marshal(s.history)
	if err != nil {
		log.Errorf("failed to encode history: %v", err)
		return
	}

	if err = s.storage.Save(ctx, models.StorageItem{Key: models.HistoryKey, Value: raw}); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeStorage).Errorf("failed to persist history: %v", err)
	}
}

func (s *CacheStore) removeFromStorage(ctx context.Context, key string) {
	if s.storage == nil {
		return
	}
	if err := s.storage.Remove(ctx, key); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeStorage).Errorf("failed to remove %s: %v", key, err)
	}
}

func (s *CacheStore) storageItems(snapshot models.Snapshot) []models.StorageItem {
	items := make([]models.StorageItem, 0, len(snapshot))
	for key, raw := range snapshot {
		item := models.StorageItem{Key: key, Value: raw}

		if _, ok := models.EntityIDFromKey(key); ok {
			var value models.StoredEntity
			if err := json.Unmarshal(raw, &value); err == nil {
				expiresAt := value.CreatedAt().Add(s.ttl)
				item.ExpiresAt = &expiresAt
			}
		}
		items = append(items, item)
	}
	return items
}

func stored(entry cacheEntry) models.StoredEntity {
	return models.StoredEntity{
		Applies:  entry.entity.Applies,
		Views:    entry.entity.Views,
		LastSeen: entry.entity.LastSeen,
		TS:       entry.ts.UnixMilli(),
	}
}
