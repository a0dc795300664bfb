package interceptor

import (
	"net/http"
	"sync"
	"sync/atomic"
)

// Doer is the XHR-style network primitive of a page.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type fetchSlot struct{ rt http.RoundTripper }
type xhrSlot struct{ doer Doer }

// Realm is one page execution context. It owns the page's network primitives, and all of the
// page's traffic goes through it so that an installed interceptor sees every call. A Realm
// lives as long as its page; the patched flag is never reset.
type Realm struct {
	id        string
	fetch     atomic.Pointer[fetchSlot]
	xhr       atomic.Pointer[xhrSlot]
	installMu sync.Mutex
	patched   bool
}

func NewRealm(id string, fetch http.RoundTripper, xhr Doer) *Realm {
	r := &Realm{id: id}
	r.fetch.Store(&fetchSlot{rt: fetch})
	r.xhr.Store(&xhrSlot{doer: xhr})
	return r
}

func (r *Realm) ID() string {
	return r.id
}

// RoundTrip makes the realm usable as the transport of the page's fetch client.
func (r *Realm) RoundTrip(req *http.Request) (*http.Response, error) {
	return r.fetch.Load().rt.RoundTrip(req)
}

// Do is the page's XHR primitive.
func (r *Realm) Do(req *http.Request) (*http.Response, error) {
	return r.xhr.Load().doer.Do(req)
}

func (r *Realm) Patched() bool {
	r.installMu.Lock()
	defer r.installMu.Unlock()
	return r.patched
}

// patch wraps both primitives once. It reports whether this call did the patching.
func (r *Realm) patch(wrapFetch func(http.RoundTripper) http.RoundTripper, wrapXHR func(Doer) Doer) bool {
	r.installMu.Lock()
	defer r.installMu.Unlock()

	if r.patched {
		return false
	}
	r.fetch.Store(&fetchSlot{rt: wrapFetch(r.fetch.Load().rt)})
	r.xhr.Store(&xhrSlot{doer: wrapXHR(r.xhr.Load().doer)})
	r.patched = true
	return true
}
