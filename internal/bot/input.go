package bot

import (
	"regexp"
	"strings"

	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/job-insights/internal/domain/models"
)

type inputHandler interface {
	InitMessage() botApi.Chattable
	HandleInput(input string) botApi.Chattable
}

var bareJobID = regexp.MustCompile(`^\d+$`)

// jobIDInput accepts either a bare job id or any job link the site uses.
type jobIDInput struct {
	chatID   int64
	onFinish func(jobID string)
}

func newJobIDInput(chatID int64, onFinish func(jobID string)) *jobIDInput {
	return &jobIDInput{chatID: chatID, onFinish: onFinish}
}

func (a *jobIDInput) InitMessage() botApi.Chattable {
	msg := botApi.NewMessage(a.chatID, "Send a job id or a link to the job.")
	msg.ReplyMarkup = keyboardWithExit()
	return msg
}

func (a *jobIDInput) HandleInput(input string) botApi.Chattable {
	jobID := parseJobID(input)
	if jobID == "" {
		return botApi.NewMessage(a.chatID, "That does not look like a job id or a job link.")
	}

	a.onFinish(jobID)
	return nil
}

func parseJobID(input string) string {
	input = strings.TrimSpace(input)
	if bareJobID.MatchString(input) {
		return input
	}
	return models.EntityIDFromURL(input)
}
