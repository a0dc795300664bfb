package page

import (
	"io"

	"github.com/PuerkitoBio/goquery"
	"github.com/maxaizer/job-insights/internal/domain/models"
	"github.com/samber/lo"
)

// DiscoverJobIDs collects job ids from the job cards and links of a search results page,
// in document order and without duplicates.
func DiscoverJobIDs(html io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(html)
	if err != nil {
		return nil, err
	}

	var ids []string
	doc.Find(`[data-job-id], a[href*="/jobs/view/"]`).Each(func(_ int, s *goquery.Selection) {
		if id, ok := s.Attr("data-job-id"); ok && id != "" {
			ids = append(ids, id)
			return
		}
		if href, ok := s.Attr("href"); ok {
			if id := models.EntityIDFromURL(href); id != "" {
				ids = append(ids, id)
			}
		}
	})

	return lo.Uniq(ids), nil
}
