package interceptor

import (
	"bytes"
	"io"
	"net/http"
	"sync"

	"github.com/maxaizer/job-insights/internal/domain/models"
	log "github.com/sirupsen/logrus"
)

// transport decorates the fetch primitive. The caller gets the original response back
// immediately; target bodies are copied as the caller reads them and observed afterwards.
type transport struct {
	base     http.RoundTripper
	observer *observer
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil || resp == nil || resp.Body == nil {
		return resp, err
	}

	url := req.URL.String()
	if !models.IsTargetAPIURL(url) {
		return resp, nil
	}

	resp.Body = &teeBody{
		body: resp.Body,
		done: func(body []byte) { go t.observer.observe(url, body) },
	}
	return resp, nil
}

// teeBody copies what the caller reads. Closing early drains the rest in the background,
// so the observer always sees the whole body, much like reading a clone of the response.
type teeBody struct {
	body     io.ReadCloser
	buf      bytes.Buffer
	done     func([]byte)
	mu       sync.Mutex
	finished bool
}

func (b *teeBody) Read(p []byte) (int, error) {
	n, err := b.body.Read(p)

	b.mu.Lock()
	defer b.mu.Unlock()
	if n > 0 && !b.finished {
		b.buf.Write(p[:n])
	}
	if err == io.EOF {
		b.finish()
	}
	return n, err
}

func (b *teeBody) Close() error {
	b.mu.Lock()
	if b.finished {
		b.mu.Unlock()
		return b.body.Close()
	}
	b.finished = true
	b.mu.Unlock()

	go func() {
		defer b.body.Close()
		if _, err := io.Copy(&b.buf, b.body); err != nil {
			log.Debugf("interceptor could not drain response body: %v", err)
			return
		}
		b.done(b.buf.Bytes())
	}()
	return nil
}

// finish must be called with mu held.
func (b *teeBody) finish() {
	if b.finished {
		return
	}
	b.finished = true
	b.done(b.buf.Bytes())
}
