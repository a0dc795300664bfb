package interceptor

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/job-insights/internal/domain/events"
	"github.com/maxaizer/job-insights/internal/domain/models"
	"github.com/maxaizer/job-insights/internal/extractor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const postingPayload = `{"data":{"entityUrn":"urn:li:fs_normalized_jobPosting:12345"},"included":[{"numApplicants":42,"viewCount":7}]}`

type collector struct {
	events chan models.ExtractionEvent
}

func newCollector() *collector {
	return &collector{events: make(chan models.ExtractionEvent, 10)}
}

func (c *collector) Emit(event models.ExtractionEvent) {
	c.events <- event
}

func (c *collector) next(t *testing.T) models.ExtractionEvent {
	select {
	case event := <-c.events:
		return event
	case <-time.After(time.Second):
		t.Fatal("no extraction event")
		return models.ExtractionEvent{}
	}
}

func (c *collector) assertNone(t *testing.T) {
	select {
	case event := <-c.events:
		t.Fatalf("unexpected extraction event %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func newUpstream(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func respond(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, body)
	}
}

func newInstalledRealm(emitter Emitter) *Realm {
	realm := NewRealm("page-1", http.DefaultTransport, &http.Client{})
	Install(realm, extractor.NewDefault(), emitter)
	return realm
}

func fetch(t *testing.T, realm *Realm, url string) string {
	resp, err := (&http.Client{Transport: realm}).Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func Test_Fetch_TargetResponseEmitsEvent(t *testing.T) {
	upstream := newUpstream(t, respond(postingPayload))
	events := newCollector()
	realm := newInstalledRealm(events)

	body := fetch(t, realm, upstream.URL+"/voyager/api/jobs/jobPostings/12345")

	assert.Equal(t, postingPayload, body)
	event := events.next(t)
	assert.Equal(t, "12345", event.EntityID)
	assert.Equal(t, int64(42), *event.Applies)
	assert.Equal(t, int64(7), *event.Views)
	assert.Equal(t, models.SourcePageIntercept, event.Source)
}

func Test_Fetch_GuardPrefixIsStripped(t *testing.T) {
	for _, guard := range []string{"for(;;);", "while(1);"} {
		upstream := newUpstream(t, respond(guard+`{"applies":3}`))
		events := newCollector()
		realm := newInstalledRealm(events)

		body := fetch(t, realm, upstream.URL+"/voyager/api/jobs/jobPostings/1")

		assert.Equal(t, guard+`{"applies":3}`, body)
		assert.Equal(t, int64(3), *events.next(t).Applies)
	}
}

func Test_Fetch_NonTargetIsIgnored(t *testing.T) {
	upstream := newUpstream(t, respond(`{"applies":3}`))
	events := newCollector()
	realm := newInstalledRealm(events)

	fetch(t, realm, upstream.URL+"/voyager/api/feed/updates/1")

	events.assertNone(t)
}

func Test_Fetch_InvalidJSONIsSwallowed(t *testing.T) {
	upstream := newUpstream(t, respond(`<html>oops</html>`))
	events := newCollector()
	realm := newInstalledRealm(events)

	body := fetch(t, realm, upstream.URL+"/voyager/api/jobs/jobPostings/1")

	assert.Equal(t, `<html>oops</html>`, body)
	events.assertNone(t)
}

func Test_Fetch_WithoutIDOrCountsEmitsNothing(t *testing.T) {
	upstream := newUpstream(t, respond(`{"applies":3}`))
	events := newCollector()
	realm := newInstalledRealm(events)

	fetch(t, realm, upstream.URL+"/voyager/api/jobs/jobPostings?q=search")
	events.assertNone(t)

	empty := newUpstream(t, respond(`{"title":"Go developer"}`))
	fetch(t, realm, empty.URL+"/voyager/api/jobs/jobPostings/1")
	events.assertNone(t)
}

func Test_Fetch_EarlyCloseStillObservesWholeBody(t *testing.T) {
	upstream := newUpstream(t, respond(postingPayload))
	events := newCollector()
	realm := newInstalledRealm(events)

	resp, err := (&http.Client{Transport: realm}).Get(upstream.URL + "/voyager/api/jobs/jobPostings/12345")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.Equal(t, int64(42), *events.next(t).Applies)
}

func Test_Install_IsIdempotent(t *testing.T) {
	upstream := newUpstream(t, respond(postingPayload))
	events := newCollector()
	realm := NewRealm("page-1", http.DefaultTransport, &http.Client{})

	assert.True(t, Install(realm, extractor.NewDefault(), events))
	assert.False(t, Install(realm, extractor.NewDefault(), events))
	assert.True(t, realm.Patched())

	fetch(t, realm, upstream.URL+"/voyager/api/jobs/jobPostings/12345")

	events.next(t)
	events.assertNone(t)
}

func Test_Fetch_UpstreamErrorIsReturnedUnchanged(t *testing.T) {
	events := newCollector()
	realm := newInstalledRealm(events)

	_, err := (&http.Client{Transport: realm}).Get("http://127.0.0.1:1/voyager/api/jobs/jobPostings/1")

	assert.Error(t, err)
	events.assertNone(t)
}

func Test_XHR_TargetResponseEmitsEvent(t *testing.T) {
	upstream := newUpstream(t, respond(postingPayload))
	events := newCollector()
	realm := newInstalledRealm(events)

	req, err := http.NewRequest(http.MethodGet, upstream.URL+"/voyager/api/jobs/jobPostings/12345", nil)
	require.NoError(t, err)
	resp, err := realm.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, postingPayload, string(body))
	assert.Equal(t, "12345", events.next(t).EntityID)
}

func Test_XHR_GzipBodyIsDecompressedForObservation(t *testing.T) {
	var compressed bytes.Buffer
	gz := gzip.NewWriter(&compressed)
	_, _ = gz.Write([]byte(postingPayload))
	require.NoError(t, gz.Close())

	upstream := newUpstream(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(compressed.Bytes())
	})
	events := newCollector()
	realm := newInstalledRealm(events)

	req, err := http.NewRequest(http.MethodGet, upstream.URL+"/voyager/api/jobs/jobPostings/12345", nil)
	require.NoError(t, err)
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := realm.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, compressed.Bytes(), body)
	assert.Equal(t, int64(7), *events.next(t).Views)
}

func Test_XHR_UnsupportedEncodingIsSkipped(t *testing.T) {
	upstream := newUpstream(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		_, _ = io.WriteString(w, postingPayload)
	})
	events := newCollector()
	realm := newInstalledRealm(events)

	req, err := http.NewRequest(http.MethodGet, upstream.URL+"/voyager/api/jobs/jobPostings/12345", nil)
	require.NoError(t, err)
	resp, err := realm.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, postingPayload, string(body))
	events.assertNone(t)
}

func Test_Registry_Install(t *testing.T) {
	registry := NewRegistry(extractor.NewDefault(), newCollector())
	realm := NewRealm("page-7", http.DefaultTransport, &http.Client{})
	registry.Register(realm)

	assert.Error(t, registry.Install(context.Background(), ""))
	assert.Error(t, registry.Install(context.Background(), "page-8"))

	require.NoError(t, registry.Install(context.Background(), "page-7"))
	assert.True(t, realm.Patched())
	require.NoError(t, registry.Install(context.Background(), "page-7"))

	registry.Unregister("page-7")
	assert.Error(t, registry.Install(context.Background(), "page-7"))
}

func Test_BusEmitter_PublishesOnExtractionTopic(t *testing.T) {
	bus := EventBus.New()
	received := make(chan models.ExtractionEvent, 1)
	require.NoError(t, bus.Subscribe(events.ExtractionTopic, func(event models.ExtractionEvent) {
		received <- event
	}))

	NewBusEmitter(bus).Emit(models.ExtractionEvent{EntityID: "1"})

	assert.Equal(t, "1", (<-received).EntityID)
}
