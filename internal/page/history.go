package page

import (
	"net/url"
	"sync"
)

// History is the address bar and session history of a page. Mutation listeners run after
// PushState and ReplaceState, traversal listeners after Back and Forward.
type History struct {
	mu          sync.Mutex
	entries     []string
	index       int
	onMutation  []func()
	onTraversal []func()
}

func NewHistory(initial string) *History {
	return &History{entries: []string{initial}}
}

func (h *History) Href() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.index]
}

func (h *History) OnMutation(listener func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onMutation = append(h.onMutation, listener)
}

func (h *History) OnTraversal(listener func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onTraversal = append(h.onTraversal, listener)
}

// PushState drops any forward entries and appends ref, resolved against the current address.
func (h *History) PushState(ref string) {
	h.mu.Lock()
	h.entries = append(h.entries[:h.index+1], h.resolve(ref))
	h.index++
	listeners := h.onMutation
	h.mu.Unlock()

	notify(listeners)
}

func (h *History) ReplaceState(ref string) {
	h.mu.Lock()
	h.entries[h.index] = h.resolve(ref)
	listeners := h.onMutation
	h.mu.Unlock()

	notify(listeners)
}

func (h *History) Back() bool {
	return h.traverse(-1)
}

func (h *History) Forward() bool {
	return h.traverse(1)
}

func (h *History) traverse(delta int) bool {
	h.mu.Lock()
	next := h.index + delta
	if next < 0 || next >= len(h.entries) {
		h.mu.Unlock()
		return false
	}
	h.index = next
	listeners := h.onTraversal
	h.mu.Unlock()

	notify(listeners)
	return true
}

// resolve must be called with mu held.
func (h *History) resolve(ref string) string {
	base, err := url.Parse(h.entries[h.index])
	if err != nil {
		return ref
	}
	target, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(target).String()
}

func notify(listeners []func()) {
	for _, listener := range listeners {
		listener()
	}
}
