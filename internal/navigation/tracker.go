// Package navigation turns address changes of a single page application into entity change signals.
package navigation

import (
	"context"
	"sync"
	"time"

	"github.com/maxaizer/job-insights/internal/domain/models"
	log "github.com/sirupsen/logrus"
)

type Location interface {
	Href() string
}

// Listener receives the signals produced by Check.
type Listener interface {
	EntityChanged(entityID string)
	NavigatedAway(previousID string)
}

// Tracker remembers the last entity id seen in the address. History mutations, traversals and a
// fallback poll all end up in Check, which only dispatches when the id actually changed.
type Tracker struct {
	location     Location
	listener     Listener
	pollInterval time.Duration
	recheckDelay time.Duration

	checkMu      sync.Mutex
	lastEntityID string
}

func NewTracker(location Location, listener Listener, pollInterval, recheckDelay time.Duration) *Tracker {
	return &Tracker{
		location:     location,
		listener:     listener,
		pollInterval: pollInterval,
		recheckDelay: recheckDelay,
	}
}

func (t *Tracker) LastEntityID() string {
	t.checkMu.Lock()
	defer t.checkMu.Unlock()
	return t.lastEntityID
}

// Check compares the current address with the last known entity. Calling it redundantly is harmless.
func (t *Tracker) Check() {
	t.checkMu.Lock()
	defer t.checkMu.Unlock()

	current := models.EntityIDFromURL(t.location.Href())
	if current == t.lastEntityID {
		return
	}

	previous := t.lastEntityID
	t.lastEntityID = current

	if current == "" {
		log.Debugf("navigated away from job %s", previous)
		t.listener.NavigatedAway(previous)
		return
	}

	log.Debugf("job changed from %q to %s", previous, current)
	t.listener.EntityChanged(current)
}

// HistoryMutated is called after pushState or replaceState. The address is re-read shortly after.
func (t *Tracker) HistoryMutated() {
	time.AfterFunc(t.recheckDelay, t.Check)
}

// Traversed is called on back/forward navigation.
func (t *Tracker) Traversed() {
	t.Check()
}

// Run checks the address immediately and then polls it until ctx is done.
func (t *Tracker) Run(ctx context.Context) {
	t.Check()

	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Check()
		}
	}
}
