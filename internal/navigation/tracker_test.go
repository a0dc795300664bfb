package navigation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeLocation struct {
	mu   sync.Mutex
	href string
}

func (l *fakeLocation) Href() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.href
}

func (l *fakeLocation) set(href string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.href = href
}

type recordingListener struct {
	mu      sync.Mutex
	changed []string
	away    []string
}

func (l *recordingListener) EntityChanged(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.changed = append(l.changed, id)
}

func (l *recordingListener) NavigatedAway(previous string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.away = append(l.away, previous)
}

func (l *recordingListener) snapshot() ([]string, []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.changed...), append([]string(nil), l.away...)
}

func newTestTracker(href string) (*Tracker, *fakeLocation, *recordingListener) {
	location := &fakeLocation{href: href}
	listener := &recordingListener{}
	return NewTracker(location, listener, 20*time.Millisecond, 5*time.Millisecond), location, listener
}

func Test_Check_ReportsEntityChangesOnce(t *testing.T) {
	tracker, location, listener := newTestTracker("https://www.linkedin.com/jobs/view/12345/")

	tracker.Check()
	tracker.Check()
	location.set("https://www.linkedin.com/jobs/search/?currentJobId=12345")
	tracker.Check()

	changed, away := listener.snapshot()
	assert.Equal(t, []string{"12345"}, changed)
	assert.Empty(t, away)
	assert.Equal(t, "12345", tracker.LastEntityID())
}

func Test_Check_ReportsNavigatedAway(t *testing.T) {
	tracker, location, listener := newTestTracker("https://www.linkedin.com/jobs/view/1/")
	tracker.Check()

	location.set("https://www.linkedin.com/feed/")
	tracker.Check()
	tracker.Check()

	_, away := listener.snapshot()
	assert.Equal(t, []string{"1"}, away)
	assert.Equal(t, "", tracker.LastEntityID())
}

func Test_Check_NoSignalWithoutEntity(t *testing.T) {
	tracker, _, listener := newTestTracker("https://www.linkedin.com/feed/")

	tracker.Check()

	changed, away := listener.snapshot()
	assert.Empty(t, changed)
	assert.Empty(t, away)
}

func Test_Check_SequenceABA(t *testing.T) {
	tracker, location, listener := newTestTracker("https://x/jobs/view/1/")

	tracker.Check()
	location.set("https://x/jobs/view/2/")
	tracker.Check()
	location.set("https://x/jobs/view/1/")
	tracker.Check()

	changed, _ := listener.snapshot()
	assert.Equal(t, []string{"1", "2", "1"}, changed)
}

func Test_HistoryMutated_RechecksAfterDelay(t *testing.T) {
	tracker, location, listener := newTestTracker("https://x/feed/")

	location.set("https://x/jobs/view/7/")
	tracker.HistoryMutated()

	assert.Eventually(t, func() bool {
		changed, _ := listener.snapshot()
		return len(changed) == 1 && changed[0] == "7"
	}, time.Second, 5*time.Millisecond)
}

func Test_Traversed_ChecksImmediately(t *testing.T) {
	tracker, location, listener := newTestTracker("https://x/jobs/view/1/")
	tracker.Check()

	location.set("https://x/jobs/view/2/")
	tracker.Traversed()

	changed, _ := listener.snapshot()
	assert.Equal(t, []string{"1", "2"}, changed)
}

func Test_Run_PollsUntilCancelled(t *testing.T) {
	tracker, location, listener := newTestTracker("https://x/jobs/view/1/")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		tracker.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return tracker.LastEntityID() == "1" }, time.Second, 5*time.Millisecond)

	location.set("https://x/jobs/view/3/")
	assert.Eventually(t, func() bool { return tracker.LastEntityID() == "3" }, time.Second, 5*time.Millisecond)

	cancel()
	<-done

	changed, _ := listener.snapshot()
	assert.Equal(t, []string{"1", "3"}, changed)
}
