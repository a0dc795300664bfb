// Package interceptor observes a page's job posting API traffic and reports the counts it finds.
package interceptor

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Install decorates the realm's fetch and XHR primitives. It is idempotent per realm and
// reports whether this call patched the realm.
func Install(realm *Realm, extractor fieldExtractor, emitter Emitter) bool {
	o := &observer{extractor: extractor, emitter: emitter}

	patched := realm.patch(
		func(base http.RoundTripper) http.RoundTripper { return &transport{base: base, observer: o} },
		func(base Doer) Doer { return &xhr{base: base, observer: o} },
	)
	if patched {
		log.Infof("interceptor installed into %s", realm.ID())
	}
	return patched
}

// Registry knows the live page realms and installs interceptors into them on request.
type Registry struct {
	mu        sync.RWMutex
	realms    map[string]*Realm
	extractor fieldExtractor
	emitter   Emitter
}

func NewRegistry(extractor fieldExtractor, emitter Emitter) *Registry {
	return &Registry{realms: make(map[string]*Realm), extractor: extractor, emitter: emitter}
}

func (r *Registry) Register(realm *Realm) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.realms[realm.ID()] = realm
}

func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.realms, id)
}

func (r *Registry) Install(_ context.Context, contextID string) error {
	if contextID == "" {
		return fmt.Errorf("no target context id")
	}

	r.mu.RLock()
	realm, ok := r.realms[contextID]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("unknown page context %q", contextID)
	}

	Install(realm, r.extractor, r.emitter)
	return nil
}
