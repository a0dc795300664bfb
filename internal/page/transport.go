package page

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/maxaizer/job-insights/internal/logger"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// limitedTransport holds every request of the page to the session rate limit.
type limitedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
	headers http.Header
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	if len(t.headers) > 0 {
		req = req.Clone(req.Context())
		for name, values := range t.headers {
			if req.Header.Get(name) == "" {
				req.Header[name] = values
			}
		}
	}
	return t.base.RoundTrip(req)
}

func newRetryClient(retryMax int) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = retryLogger{}
	return client
}

// retryLogger routes retryablehttp's leveled logging into logrus.
type retryLogger struct{}

func (retryLogger) Error(msg string, keysAndValues ...interface{}) {
	fields(keysAndValues).WithField(logger.ErrorTypeField, logger.ErrorTypeUpstream).Error(msg)
}

func (retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	fields(keysAndValues).Warn(msg)
}

func (retryLogger) Info(msg string, keysAndValues ...interface{}) {
	fields(keysAndValues).Info(msg)
}

func (retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	fields(keysAndValues).Debug(msg)
}

func fields(keysAndValues []interface{}) *log.Entry {
	f := log.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			f[key] = keysAndValues[i+1]
		}
	}
	return log.WithFields(f)
}
