package bot

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

type userContext struct {
	chatID     int64
	curCommand command
}

func newUserContext(chatID int64) *userContext {
	return &userContext{chatID: chatID}
}

func (u *userContext) RunCommand(command command) {
	u.curCommand = command
	u.curCommand.WithFinishCallback(func() {
		u.curCommand = nil
	})
	u.curCommand.WithKeyboardOnFinalMessage(defaultReplyKeyboard())
	u.curCommand.Run()
}

func (u *userContext) HasRunningCommand() bool {
	return u.curCommand != nil
}

func (u *userContext) OnUserInput(message *tgbotapi.Message) {
	u.curCommand.OnUserInput(message)
}

func (u *userContext) Reset() {
	u.curCommand = nil
}
