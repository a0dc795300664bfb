// Package bridge relays extraction events and cache lookups between a page and the background
// process, and decides what the user sees for the current job.
package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/job-insights/internal/config"
	"github.com/maxaizer/job-insights/internal/domain/events"
	"github.com/maxaizer/job-insights/internal/domain/models"
	"github.com/maxaizer/job-insights/internal/logger"
	"github.com/maxaizer/job-insights/internal/metrics"
	"github.com/maxaizer/job-insights/internal/navigation"
	log "github.com/sirupsen/logrus"
)

type cacheClient interface {
	GetEntityData(ctx context.Context, entityID string) (*models.Counts, error)
	CacheEntityData(ctx context.Context, entityID string, counts models.Counts) error
	RequestInterceptorInstall(ctx context.Context, targetContextID string) error
}

type retryLoop struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Relay is the content side of one page. Only the newest generation may render, and once a job
// is resolved nothing else renders for it until the next navigation.
type Relay struct {
	cfg       config.BridgeConfig
	bus       EventBus.Bus
	client    cacheClient
	renderer  Renderer
	location  navigation.Location
	contextID string
	tracker   *navigation.Tracker
	onEvent   func(event models.ExtractionEvent)

	mu       sync.Mutex
	gen      uint64
	entityID string
	resolved bool
	loop     *retryLoop
}

func NewRelay(cfg config.BridgeConfig, bus EventBus.Bus, client cacheClient, renderer Renderer,
	location navigation.Location, contextID string) (*Relay, error) {

	r := &Relay{
		cfg:       cfg,
		bus:       bus,
		client:    client,
		renderer:  renderer,
		location:  location,
		contextID: contextID,
	}
	r.tracker = navigation.NewTracker(location, r, cfg.PollInterval, cfg.RecheckDelay)
	r.onEvent = r.onExtraction

	if err := bus.Subscribe(events.ExtractionTopic, r.onEvent); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Relay) Tracker() *navigation.Tracker {
	return r.tracker
}

// Run installs the interceptor into the page and follows the page address until ctx is done.
func (r *Relay) Run(ctx context.Context) {
	r.requestInstall()
	r.tracker.Run(ctx)
	r.stopLoop(func() {})
}

func (r *Relay) Close() error {
	r.stopLoop(func() {})
	return r.bus.Unsubscribe(events.ExtractionTopic, r.onEvent)
}

func (r *Relay) EntityChanged(entityID string) {
	var gen uint64
	r.stopLoop(func() {
		r.gen++
		r.entityID = entityID
		r.resolved = false
		gen = r.gen
	})
	r.renderer.Clear()

	r.requestInstall()

	if counts := r.lookup(entityID); counts != nil {
		r.resolve(gen, entityID, *counts)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen || r.resolved {
		return
	}
	r.renderer.Loading(entityID)
	r.startLoop(gen, entityID)
}

func (r *Relay) NavigatedAway(string) {
	r.stopLoop(func() {
		r.gen++
		r.entityID = ""
		r.resolved = false
	})
}

// onExtraction caches the event and renders it if the page still shows the event's job and no
// other result has won yet. An event that crossed a navigation only renders when the new
// generation belongs to the same job.
func (r *Relay) onExtraction(event models.ExtractionEvent) {
	if event.EntityID == "" {
		return
	}

	r.mu.Lock()
	gen := r.gen
	r.mu.Unlock()
	if event.EntityID != models.EntityIDFromURL(r.location.Href()) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.RequestTimeout)
	defer cancel()
	if err := r.client.CacheEntityData(ctx, event.EntityID, event.Counts()); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeChannel).
			Errorf("failed to cache insights for job %s: %v", event.EntityID, err)
	}

	r.mu.Lock()
	current := models.EntityIDFromURL(r.location.Href())
	if r.resolved || event.EntityID != current || (gen != r.gen && r.entityID != event.EntityID) {
		r.mu.Unlock()
		return
	}
	r.resolved = true
	r.renderer.Render(event.EntityID, event.Counts())
	loop := r.loop
	r.loop = nil
	r.mu.Unlock()

	if loop != nil {
		loop.cancel()
	}
}

func (r *Relay) requestInstall() {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.RequestTimeout)
	defer cancel()

	if err := r.client.RequestInterceptorInstall(ctx, r.contextID); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeInstall).
			Errorf("interceptor install into %s failed: %v", r.contextID, err)
	}
}

// lookup returns nil on a miss. Channel failures count as misses.
func (r *Relay) lookup(entityID string) *models.Counts {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.RequestTimeout)
	defer cancel()

	counts, err := r.client.GetEntityData(ctx, entityID)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeChannel).
			Errorf("cache lookup for job %s failed: %v", entityID, err)
		return nil
	}
	if counts == nil || counts.Empty() {
		return nil
	}
	return counts
}

func (r *Relay) resolve(gen uint64, entityID string, counts models.Counts) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.gen || r.resolved {
		return false
	}
	r.resolved = true
	r.renderer.Render(entityID, counts)
	return true
}

func (r *Relay) unavailable(gen uint64, entityID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.gen || r.resolved {
		return
	}
	r.renderer.Unavailable(entityID)
}

// startLoop must be called with mu held.
func (r *Relay) startLoop(gen uint64, entityID string) {
	ctx, cancel := context.WithCancel(context.Background())
	loop := &retryLoop{cancel: cancel, done: make(chan struct{})}
	r.loop = loop

	go r.runLoop(ctx, loop.done, gen, entityID)
}

// stopLoop detaches the active loop, applies update under the lock and waits for the loop to exit.
func (r *Relay) stopLoop(update func()) {
	r.mu.Lock()
	loop := r.loop
	r.loop = nil
	update()
	r.mu.Unlock()

	if loop == nil {
		return
	}
	loop.cancel()
	<-loop.done
}

func (r *Relay) runLoop(ctx context.Context, done chan struct{}, gen uint64, entityID string) {
	defer close(done)

	ticker := time.NewTicker(r.cfg.RetryInterval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			metrics.RetryLoopsCounter.WithLabelValues("cancelled").Inc()
			return
		case <-ticker.C:
		}

		if models.EntityIDFromURL(r.location.Href()) != entityID {
			metrics.RetryLoopsCounter.WithLabelValues("navigated").Inc()
			return
		}

		if counts := r.lookup(entityID); counts != nil {
			if r.resolve(gen, entityID, *counts) {
				metrics.RetryLoopsCounter.WithLabelValues("resolved").Inc()
			}
			return
		}

		if attempt >= r.cfg.RetryAttempts {
			log.Infof("no insights for job %s after %d attempts", entityID, attempt)
			metrics.RetryLoopsCounter.WithLabelValues("exhausted").Inc()
			r.unavailable(gen, entityID)
			return
		}
	}
}
