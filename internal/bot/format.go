package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/maxaizer/job-insights/internal/domain/models"
)

const (
	historyLimit      = 20
	internalErrorText = "Internal error!"
)

func formatCount(value *int64) string {
	if value == nil {
		return "n/a"
	}
	return strconv.FormatInt(*value, 10)
}

func formatJob(jobID string, counts models.Counts) string {
	return fmt.Sprintf("Job %s\nApplicants: %s\nViews: %s", jobID, formatCount(counts.Applies), formatCount(counts.Views))
}

func formatHistory(history []models.Entity) string {
	if len(history) == 0 {
		return "History is empty."
	}

	var sb strings.Builder
	sb.WriteString("Recently seen jobs:\n")
	for i, entity := range history {
		if i == historyLimit {
			sb.WriteString(fmt.Sprintf("...and %d more", len(history)-historyLimit))
			break
		}
		sb.WriteString(fmt.Sprintf("%d. Job %s: %s applicants, %s views (%s)\n", i+1, entity.ID,
			formatCount(entity.Applies), formatCount(entity.Views), entity.LastSeen.Local().Format("02.01 15:04")))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
