// Package bot is the Telegram face of job insights: it shows insights for the current job as they
// arrive and answers popup style commands for history, export and import.
package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/maxaizer/job-insights/internal/config"
	"github.com/maxaizer/job-insights/internal/domain/models"
	"github.com/maxaizer/job-insights/internal/logger"
	log "github.com/sirupsen/logrus"
)

type popupClient interface {
	GetEntityData(ctx context.Context, entityID string) (*models.Counts, error)
	History(ctx context.Context) ([]models.Entity, error)
	Export(ctx context.Context) (models.Snapshot, error)
	Import(ctx context.Context, snapshot models.Snapshot) error
}

type updatesAPI interface {
	apiInterface
	fileLinker
	GetUpdatesChan(config botApi.UpdateConfig) botApi.UpdatesChannel
	StopReceivingUpdates()
}

type Bot struct {
	api     updatesAPI
	chatID  int64
	client  popupClient
	http    *http.Client
	mu      sync.Mutex
	userCtx *userContext
}

const (
	historyCommandName    = "History"
	exportCommandName     = "Export"
	backToMenuCommandName = "Back to menu"
	exportFileName        = "job-insights-export.json"
)

var globalCommands = []string{jobCommandName, historyCommandName, exportCommandName, importCommandName, backToMenuCommandName}

func NewBot(cfg config.BotConfig, client popupClient) (*Bot, error) {

	api, err := botApi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	log.Infof("Authorized on account %s", api.Self.UserName)

	err = botApi.SetLogger(log.StandardLogger())
	if err != nil {
		return nil, err
	}

	downloads := retryablehttp.NewClient()
	downloads.RetryMax = 2
	downloads.Logger = nil
	downloads.HTTPClient.Timeout = 30 * time.Second

	return newBot(api, cfg.ChatID, client, downloads.StandardClient()), nil
}

func newBot(api updatesAPI, chatID int64, client popupClient, httpClient *http.Client) *Bot {
	return &Bot{api: api, chatID: chatID, client: client, http: httpClient, userCtx: newUserContext(chatID)}
}

func (b *Bot) Run(ctx context.Context) {

	updateConfig := botApi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(update.Message)
		}
	}
}

func (b *Bot) Render(entityID string, counts models.Counts) {
	_, _ = sendWithLogError(b.api, botApi.NewMessage(b.chatID, formatJob(entityID, counts)))
}

func (b *Bot) Unavailable(entityID string) {
	_, _ = sendWithLogError(b.api, botApi.NewMessage(b.chatID, "No insights found for job "+entityID+"."))
}

func (b *Bot) Loading(string) {}

func (b *Bot) Clear() {}

func (b *Bot) handleMessage(message *botApi.Message) {

	if message.Chat == nil || message.Chat.ID != b.chatID {
		log.Debugf("ignoring message from chat %v", message.Chat)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	cmd := message.Command()
	if cmd == "" && slices.Contains(globalCommands, message.Text) {
		cmd = message.Text
	}

	if cmd != "" {
		b.handleCommand(cmd, message.CommandArguments())
		return
	}

	if b.userCtx.HasRunningCommand() {
		b.userCtx.OnUserInput(message)
		return
	}
	_, _ = sendWithLogError(b.api, botApi.NewMessage(b.chatID, "Expected a command."))
}

func (b *Bot) handleCommand(command string, args string) {

	var response botApi.Chattable

	switch command {
	case "start", "help":
		b.userCtx.Reset()
		msg := botApi.NewMessage(b.chatID, "Job insights shows applicant and view counts of the jobs you open.")
		msg.ReplyMarkup = defaultReplyKeyboard()
		response = msg
	case "job", jobCommandName:
		cmd := newJobCommand(b.api, b.chatID, b.client)
		if args == "" {
			b.userCtx.RunCommand(cmd)
			break
		}
		cmd.OnUserInput(&botApi.Message{Text: args})
	case "history", historyCommandName:
		response = b.history()
	case "export", exportCommandName:
		response = b.export()
	case "import", importCommandName:
		b.userCtx.RunCommand(newImportCommand(b.api, b.api, b.http, b.chatID, b.client))
	case backToMenuCommandName:
		b.userCtx.Reset()
		msg := botApi.NewMessage(b.chatID, "Back in the main menu.")
		msg.ReplyMarkup = defaultReplyKeyboard()
		response = msg
	default:
		response = botApi.NewMessage(b.chatID, "Unknown command!")
	}

	if response == nil {
		return
	}

	_, _ = sendWithLogError(b.api, response)
}

func (b *Bot) history() botApi.Chattable {
	history, err := b.client.History(context.Background())
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeChannel).Errorf("failed to get history: %v", err)
		return botApi.NewMessage(b.chatID, internalErrorText)
	}
	return botApi.NewMessage(b.chatID, formatHistory(history))
}

func (b *Bot) export() botApi.Chattable {
	snapshot, err := b.client.Export(context.Background())
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeChannel).Errorf("failed to export: %v", err)
		return botApi.NewMessage(b.chatID, internalErrorText)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		log.Errorf("failed to encode export: %v", err)
		return botApi.NewMessage(b.chatID, internalErrorText)
	}
	return botApi.NewDocument(b.chatID, botApi.FileBytes{Name: exportFileName, Bytes: data})
}

func defaultReplyKeyboard() botApi.ReplyKeyboardMarkup {
	return botApi.NewReplyKeyboard(
		botApi.NewKeyboardButtonRow(
			botApi.NewKeyboardButton(jobCommandName),
			botApi.NewKeyboardButton(historyCommandName),
		),
		botApi.NewKeyboardButtonRow(
			botApi.NewKeyboardButton(exportCommandName),
			botApi.NewKeyboardButton(importCommandName),
		),
	)
}

func keyboardWithExit() botApi.ReplyKeyboardMarkup {
	return botApi.NewReplyKeyboard(
		botApi.NewKeyboardButtonRow(
			botApi.NewKeyboardButton(backToMenuCommandName),
		),
	)
}
