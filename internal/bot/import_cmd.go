package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"

	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/job-insights/internal/domain/models"
	"github.com/maxaizer/job-insights/internal/logger"
	log "github.com/sirupsen/logrus"
)

const (
	importCommandName = "Import"
	maxImportSize     = 5 << 20
)

type fileLinker interface {
	GetFileDirectURL(fileID string) (string, error)
}

type importCommand struct {
	api                  apiInterface
	files                fileLinker
	http                 *http.Client
	chatID               int64
	client               popupClient
	finishCallback       func()
	finalMessageKeyboard *botApi.ReplyKeyboardMarkup
}

func newImportCommand(api apiInterface, files fileLinker, httpClient *http.Client, chatID int64, client popupClient) *importCommand {
	return &importCommand{api: api, files: files, http: httpClient, chatID: chatID, client: client}
}

func (c *importCommand) WithFinishCallback(callback func()) {
	c.finishCallback = callback
}

func (c *importCommand) WithKeyboardOnFinalMessage(keyboard botApi.ReplyKeyboardMarkup) {
	c.finalMessageKeyboard = &keyboard
}

func (c *importCommand) Run() {
	msg := botApi.NewMessage(c.chatID, "Send the exported JSON file. Importing replaces all stored data.")
	msg.ReplyMarkup = keyboardWithExit()
	_, _ = sendWithLogError(c.api, msg)
}

func (c *importCommand) OnUserInput(message *botApi.Message) {
	if message.Document == nil {
		_, _ = sendWithLogError(c.api, botApi.NewMessage(c.chatID, "Expected a JSON document."))
		return
	}

	msg := botApi.NewMessage(c.chatID, "")
	if c.finalMessageKeyboard != nil {
		msg.ReplyMarkup = c.finalMessageKeyboard
	}

	imported, err := c.importDocument(message.Document)
	if err != nil {
		log.Warnf("import failed: %v", err)
		msg.Text = "Import failed: " + err.Error()
	} else {
		msg.Text = fmt.Sprintf("Imported %d keys.", imported)
	}
	_, _ = sendWithLogError(c.api, msg)

	if c.finishCallback != nil {
		c.finishCallback()
	}
}

func (c *importCommand) importDocument(document *botApi.Document) (int, error) {
	if document.FileSize > maxImportSize {
		return 0, fmt.Errorf("file is larger than %d bytes", maxImportSize)
	}

	data, err := c.download(document.FileID)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeTgApi).Errorf("download of %s failed: %v", document.FileID, err)
		return 0, fmt.Errorf("could not download the file")
	}

	snapshot, err := models.ParseSnapshot(data)
	if err != nil {
		return 0, err
	}

	if err := c.client.Import(context.Background(), snapshot); err != nil {
		return 0, err
	}
	return len(snapshot), nil
}

func (c *importCommand) download(fileID string) ([]byte, error) {
	link, err := c.files.GetFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Get(link)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImportSize))
}
