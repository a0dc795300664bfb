// Package extractor locates applicant and view counts in response payloads of unknown shape.
package extractor

import (
	"math"

	"github.com/maxaizer/job-insights/internal/domain/models"
	"github.com/tidwall/gjson"
)

var (
	DefaultAppliesAliases = []string{
		"applies", "applicationCount", "numApplicants", "applicantCount", "totalApplications", "totalApplicantCount",
	}
	DefaultViewsAliases = []string{
		"views", "viewCount", "numViews", "totalViews", "viewers", "jobViewCount", "jobViewersCount",
	}
)

const DefaultMaxDepth = 10

// Extractor searches a payload depth first, in document order.
// Within one object the last matching alias of each list wins; the first object holding
// any alias ends the search.
type Extractor struct {
	appliesAliases []string
	viewsAliases   []string
	maxDepth       int
}

func New(appliesAliases, viewsAliases []string, maxDepth int) *Extractor {
	return &Extractor{appliesAliases: appliesAliases, viewsAliases: viewsAliases, maxDepth: maxDepth}
}

func NewDefault() *Extractor {
	return New(DefaultAppliesAliases, DefaultViewsAliases, DefaultMaxDepth)
}

// ExtractBytes parses raw JSON. Invalid input yields empty counts.
func (e *Extractor) ExtractBytes(payload []byte) models.Counts {
	if !gjson.ValidBytes(payload) {
		return models.Counts{}
	}
	return e.Extract(gjson.ParseBytes(payload))
}

func (e *Extractor) Extract(payload gjson.Result) models.Counts {
	return e.find(payload, 0)
}

func (e *Extractor) find(node gjson.Result, depth int) models.Counts {
	if depth > e.maxDepth || !(node.IsObject() || node.IsArray()) {
		return models.Counts{}
	}

	if node.IsObject() {
		if counts := e.matchNode(node); !counts.Empty() {
			return counts
		}
	}

	var found models.Counts
	node.ForEach(func(_, value gjson.Result) bool {
		found = e.find(value, depth+1)
		return found.Empty()
	})
	return found
}

func (e *Extractor) matchNode(node gjson.Result) models.Counts {
	fields := make(map[string]gjson.Result)
	node.ForEach(func(key, value gjson.Result) bool {
		fields[key.String()] = value
		return true
	})

	return models.Counts{
		Applies: lastNumber(fields, e.appliesAliases),
		Views:   lastNumber(fields, e.viewsAliases),
	}
}

// lastNumber only accepts whole numbers; a fractional value is not a count and is skipped
// like any other non-numeric value.
func lastNumber(fields map[string]gjson.Result, aliases []string) *int64 {
	var result *int64
	for _, alias := range aliases {
		if value, ok := fields[alias]; ok && isWhole(value) {
			number := value.Int()
			result = &number
		}
	}
	return result
}

func isWhole(value gjson.Result) bool {
	return value.Type == gjson.Number && value.Num == math.Trunc(value.Num)
}
