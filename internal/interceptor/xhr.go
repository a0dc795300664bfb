package interceptor

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/maxaizer/job-insights/internal/domain/models"
	log "github.com/sirupsen/logrus"
)

// xhr decorates the XHR primitive. Like a load listener it observes the fully loaded body.
type xhr struct {
	base     Doer
	observer *observer
}

func (x *xhr) Do(req *http.Request) (*http.Response, error) {
	resp, err := x.base.Do(req)
	if err != nil || resp == nil || resp.Body == nil {
		return resp, err
	}

	url := req.URL.String()
	if !models.IsTargetAPIURL(url) {
		return resp, nil
	}

	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	if encoding != "" && encoding != "identity" && encoding != "gzip" {
		log.Debugf("interceptor skipping %s: unsupported response encoding %q", url, encoding)
		return resp, nil
	}

	body, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		resp.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), &failingReader{err: readErr}))
		return resp, nil
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	go func() {
		payload := body
		if encoding == "gzip" {
			var gzErr error
			if payload, gzErr = gunzip(body); gzErr != nil {
				log.Debugf("interceptor could not decompress %s: %v", url, gzErr)
				return
			}
		}
		x.observer.observe(url, payload)
	}()
	return resp, nil
}

type failingReader struct {
	err error
}

func (r *failingReader) Read([]byte) (int, error) {
	return 0, r.err
}

func gunzip(body []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}
