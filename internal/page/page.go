// Package page is a headless session on the job board. It owns the address history and the
// network primitives that an interceptor can be installed into.
package page

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/maxaizer/job-insights/internal/config"
	"github.com/maxaizer/job-insights/internal/domain/models"
	"github.com/maxaizer/job-insights/internal/interceptor"
	"github.com/maxaizer/job-insights/internal/logger"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type Page struct {
	cfg     config.SessionConfig
	site    *url.URL
	api     *url.URL
	history *History
	realm   *interceptor.Realm
	fetch   *http.Client
}

func New(cfg config.SessionConfig) (*Page, error) {
	site, err := url.Parse(cfg.SiteURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid site url")
	}
	api, err := url.Parse(cfg.APIBaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid api base url")
	}

	headers := http.Header{}
	if cfg.Cookie != "" {
		headers.Set("Cookie", cfg.Cookie)
	}
	if cfg.CSRFToken != "" {
		headers.Set("Csrf-Token", cfg.CSRFToken)
	}

	limited := &limitedTransport{
		base:    &retryablehttp.RoundTripper{Client: newRetryClient(cfg.RetryMax)},
		limiter: rate.NewLimiter(rate.Limit(cfg.MaxRequestsPerSecond), 1),
		headers: headers,
	}
	realm := interceptor.NewRealm(cfg.ContextID, limited, &http.Client{Transport: limited})

	return &Page{
		cfg:     cfg,
		site:    site,
		api:     api,
		history: NewHistory(site.String()),
		realm:   realm,
		fetch:   &http.Client{Transport: realm},
	}, nil
}

func (p *Page) ID() string {
	return p.cfg.ContextID
}

func (p *Page) History() *History {
	return p.history
}

func (p *Page) Realm() *interceptor.Realm {
	return p.realm
}

// Visit opens the job's own page and loads its posting through the fetch primitive.
func (p *Page) Visit(ctx context.Context, jobID string) error {
	p.history.PushState(p.siteURL("/jobs/view/" + jobID + "/"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.postingURL(jobID), nil)
	if err != nil {
		return err
	}
	_, err = p.read(p.fetch.Do(req))
	return err
}

// Preview selects the job in the search results and loads its posting through the XHR primitive.
func (p *Page) Preview(ctx context.Context, jobID string) error {
	p.history.ReplaceState(p.siteURL("/jobs/search/?currentJobId=" + jobID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.postingURL(jobID), nil)
	if err != nil {
		return err
	}
	_, err = p.read(p.realm.Do(req))
	return err
}

// Search opens the configured search page and returns the jobs listed on it.
func (p *Page) Search(ctx context.Context) ([]string, error) {
	if p.cfg.SearchPath == "" {
		return nil, nil
	}
	p.history.PushState(p.siteURL(p.cfg.SearchPath))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.siteURL(p.cfg.SearchPath), nil)
	if err != nil {
		return nil, err
	}
	body, err := p.read(p.fetch.Do(req))
	if err != nil {
		return nil, err
	}
	return DiscoverJobIDs(bytes.NewReader(body))
}

// Browse previews every job found by the search, then opens each configured job, staying on
// every job for the configured dwell time. It ends on a page without a job.
func (p *Page) Browse(ctx context.Context) error {
	found, err := p.Search(ctx)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeUpstream).Errorf("search failed: %v", err)
	}
	log.Infof("search listed %d jobs", len(found))

	steps := make([]func() error, 0, len(found)+len(p.cfg.Jobs))
	for _, id := range found {
		steps = append(steps, func() error { return p.Preview(ctx, id) })
	}
	for _, id := range p.cfg.Jobs {
		steps = append(steps, func() error { return p.Visit(ctx, id) })
	}

	for _, step := range steps {
		if err := step(); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeUpstream).Errorf("job request failed: %v", err)
		}
		if err := sleep(ctx, p.cfg.Dwell); err != nil {
			return err
		}
	}

	p.history.PushState(p.siteURL("/feed/"))
	return nil
}

func (p *Page) read(resp *http.Response, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, resp.Request.URL)
	}
	return body, nil
}

func (p *Page) siteURL(ref string) string {
	return resolve(p.site, ref)
}

func (p *Page) postingURL(jobID string) string {
	return resolve(p.api, models.TargetAPIPath+"/"+jobID)
}

func resolve(base *url.URL, ref string) string {
	target, err := url.Parse(ref)
	if err != nil {
		return base.String() + ref
	}
	return base.ResolveReference(target).String()
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
