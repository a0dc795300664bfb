package services

import (
	"context"
	"errors"
	"strconv"

	"github.com/maxaizer/job-insights/internal/domain/models"
	"github.com/maxaizer/job-insights/internal/logger"
	"github.com/maxaizer/job-insights/internal/messaging"
	"github.com/maxaizer/job-insights/internal/metrics"
	log "github.com/sirupsen/logrus"
)

var (
	errUnknownType     = errors.New("unknown message type")
	errMissingEntityID = errors.New("missing entity id")
	errMissingSnapshot = errors.New("missing snapshot")
)

type entityStore interface {
	Get(ctx context.Context, entityID string) *models.Entity
	Put(ctx context.Context, entityID string, counts models.Counts)
	History() []models.Entity
	Export() models.Snapshot
	Import(ctx context.Context, snapshot models.Snapshot) error
}

type interceptorInstaller interface {
	Install(ctx context.Context, contextID string) error
}

// Background serves the message channel. Every failure is answered with ok=false.
type Background struct {
	store     entityStore
	installer interceptorInstaller
}

func NewBackground(store entityStore, installer interceptorInstaller) *Background {
	return &Background{store: store, installer: installer}
}

func (b *Background) Handle(ctx context.Context, msg messaging.Message) messaging.Response {
	resp := b.dispatch(ctx, msg)
	metrics.MessagesCounter.WithLabelValues(string(msg.Type), strconv.FormatBool(resp.OK)).Inc()
	return resp
}

func (b *Background) dispatch(ctx context.Context, msg messaging.Message) messaging.Response {
	switch msg.Type {
	case messaging.GetEntityData:
		if msg.EntityID == "" {
			return messaging.Failure(errMissingEntityID)
		}
		entity := b.store.Get(ctx, msg.EntityID)
		if entity == nil {
			return messaging.Response{OK: true}
		}
		counts := entity.Counts()
		return messaging.Response{OK: true, Counts: &counts}

	case messaging.CacheEntityData:
		if msg.EntityID == "" {
			return messaging.Failure(errMissingEntityID)
		}
		b.store.Put(ctx, msg.EntityID, msg.Counts())
		return messaging.Response{OK: true}

	case messaging.GetHistory:
		return messaging.Response{OK: true, History: b.store.History()}

	case messaging.ExportData:
		return messaging.Response{OK: true, Snapshot: b.store.Export()}

	case messaging.ImportData:
		if msg.Data == nil {
			return messaging.Failure(errMissingSnapshot)
		}
		if err := b.store.Import(ctx, msg.Data); err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeStorage).Errorf("import failed: %v", err)
			return messaging.Failure(err)
		}
		log.Infof("imported %d keys", len(msg.Data))
		return messaging.Response{OK: true}

	case messaging.RequestInterceptorInstall:
		if err := b.installer.Install(ctx, msg.TargetContextID); err != nil {
			log.Warnf("interceptor install for %q rejected: %v", msg.TargetContextID, err)
			return messaging.Failure(err)
		}
		return messaging.Response{OK: true}

	default:
		log.Warnf("unknown message type %q", msg.Type)
		return messaging.Failure(errUnknownType)
	}
}
