package bridge

import (
	"github.com/maxaizer/job-insights/internal/domain/models"
	log "github.com/sirupsen/logrus"
)

// Renderer shows the state of the current job to the user.
type Renderer interface {
	Render(entityID string, counts models.Counts)
	Loading(entityID string)
	Unavailable(entityID string)
	Clear()
}

type LogRenderer struct{}

func (LogRenderer) Render(entityID string, counts models.Counts) {
	log.WithFields(log.Fields{
		"job":     entityID,
		"applies": formatCount(counts.Applies),
		"views":   formatCount(counts.Views),
	}).Info("job insights")
}

func (LogRenderer) Loading(entityID string) {
	log.Infof("loading insights for job %s", entityID)
}

func (LogRenderer) Unavailable(entityID string) {
	log.Infof("insights for job %s are unavailable", entityID)
}

func (LogRenderer) Clear() {}

// MultiRenderer fans every call out to all of its renderers in order.
type MultiRenderer []Renderer

func (m MultiRenderer) Render(entityID string, counts models.Counts) {
	for _, r := range m {
		r.Render(entityID, counts)
	}
}

func (m MultiRenderer) Loading(entityID string) {
	for _, r := range m {
		r.Loading(entityID)
	}
}

func (m MultiRenderer) Unavailable(entityID string) {
	for _, r := range m {
		r.Unavailable(entityID)
	}
}

func (m MultiRenderer) Clear() {
	for _, r := range m {
		r.Clear()
	}
}

func formatCount(value *int64) any {
	if value == nil {
		return "n/a"
	}
	return *value
}
