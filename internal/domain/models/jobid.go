package models

import (
	"regexp"
	"strings"
)

// TargetAPIPath marks the responses the page interceptor observes.
const TargetAPIPath = "/voyager/api/jobs/jobPostings"

// pagePatterns are tried in order, first match wins.
var pagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`jobs/view/(\d+)`),
	regexp.MustCompile(`jobPostings/(\d+)`),
	regexp.MustCompile(`currentJobId=(\d+)`),
	regexp.MustCompile(`jobId[=:](\d+)`),
}

var apiPattern = regexp.MustCompile(`jobPostings/(\d+)`)

// EntityIDFromURL returns the job id embedded in a page address or "" if there is none.
func EntityIDFromURL(url string) string {
	for _, pattern := range pagePatterns {
		if match := pattern.FindStringSubmatch(url); match != nil {
			return match[1]
		}
	}
	return ""
}

// EntityIDFromAPIURL returns the job id of an API request URL.
func EntityIDFromAPIURL(url string) string {
	if match := apiPattern.FindStringSubmatch(url); match != nil {
		return match[1]
	}
	return ""
}

func IsTargetAPIURL(url string) bool {
	return strings.Contains(url, TargetAPIPath)
}
