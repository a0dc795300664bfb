package bot

import (
	"context"

	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/job-insights/internal/logger"
	log "github.com/sirupsen/logrus"
)

const jobCommandName = "Job insights"

type jobCommand struct {
	api                  apiInterface
	chatID               int64
	client               popupClient
	input                inputHandler
	finishCallback       func()
	finalMessageKeyboard *botApi.ReplyKeyboardMarkup
}

func newJobCommand(api apiInterface, chatID int64, client popupClient) *jobCommand {
	cmd := &jobCommand{api: api, chatID: chatID, client: client}
	cmd.input = newJobIDInput(chatID, cmd.showJob)
	return cmd
}

func (c *jobCommand) WithFinishCallback(callback func()) {
	c.finishCallback = callback
}

func (c *jobCommand) WithKeyboardOnFinalMessage(keyboard botApi.ReplyKeyboardMarkup) {
	c.finalMessageKeyboard = &keyboard
}

func (c *jobCommand) Run() {
	_, _ = sendWithLogError(c.api, c.input.InitMessage())
}

func (c *jobCommand) OnUserInput(message *botApi.Message) {
	if msg := c.input.HandleInput(message.Text); msg != nil {
		_, _ = sendWithLogError(c.api, msg)
	}
}

func (c *jobCommand) showJob(jobID string) {

	msg := botApi.NewMessage(c.chatID, "")
	if c.finalMessageKeyboard != nil {
		msg.ReplyMarkup = c.finalMessageKeyboard
	}

	counts, err := c.client.GetEntityData(context.Background(), jobID)
	switch {
	case err != nil:
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeChannel).Errorf("lookup of job %s failed: %v", jobID, err)
		msg.Text = internalErrorText
	case counts == nil:
		msg.Text = "No insights for job " + jobID + " yet. Open the job and try again."
	default:
		msg.Text = formatJob(jobID, *counts)
	}
	_, _ = sendWithLogError(c.api, msg)

	if c.finishCallback != nil {
		c.finishCallback()
	}
}
