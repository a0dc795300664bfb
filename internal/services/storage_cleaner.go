package services

import (
	"context"
	"time"

	"github.com/maxaizer/job-insights/internal/logger"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

type ExpiredStorageRepository interface {
	RemoveExpired(ctx context.Context, now time.Time) (int64, error)
}

// StorageCleaner periodically removes persisted entries whose TTL has passed.
type StorageCleaner struct {
	storage ExpiredStorageRepository
	cron    *cron.Cron
	now     func() time.Time
}

func NewStorageCleaner(storage ExpiredStorageRepository, schedule string) (*StorageCleaner, error) {

	sc := &StorageCleaner{
		storage: storage,
		cron:    cron.New(),
		now:     time.Now,
	}

	_, err := sc.cron.AddFunc(schedule, sc.cleanExpired)
	if err != nil {
		return nil, err
	}

	sc.cron.Start()
	log.Infof("storage cleaner started, schedule: %s", schedule)
	return sc, nil
}

func (sc *StorageCleaner) Stop() {
	<-sc.cron.Stop().Done()
}

func (sc *StorageCleaner) cleanExpired() {
	rowsAffected, err := sc.storage.RemoveExpired(context.Background(), sc.now())
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeStorage).Errorf("failed to clean expired entries: %v", err)
	} else {
		log.Infof("expired entries were cleaned at %v, affected rows: %v", sc.now(), rowsAffected)
	}
}
