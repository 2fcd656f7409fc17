package bot

import (
	"context"

	"consultly/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	menuAppointments = "📅 Lịch hẹn của tôi"
	menuConsultants  = "👩‍⚕️ Chuyên gia tư vấn"
	menuPublish      = "🗓 Mở khung giờ"
	menuExport       = "📊 Xuất báo cáo"
	menuLogin        = "🔑 Đăng nhập"
	menuLogout       = "🚪 Đăng xuất"
	menuHelp         = "ℹ️ Trợ giúp"
)

func (b *Bot) sendMessage(chatID int64, text string) {
	if _, err := b.tgService.SendMessage(chatID, text); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = models.ParseModeMarkdown
	if _, err := b.tgService.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func (b *Bot) sendWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = models.ParseModeMarkdown
	msg.ReplyMarkup = keyboard
	if _, err := b.tgService.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func (b *Bot) editMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	if _, err := b.tgService.EditMessage(chatID, messageID, text, keyboard); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to edit message")
	}
}

func (b *Bot) answerCallback(callbackID, text string) {
	if err := b.tgService.AnswerCallback(callbackID, text); err != nil {
		b.logger.Error().Err(err).Msg("Failed to answer callback")
	}
}

// mainMenuKeyboard shows the persistent reply keyboard. Composition
// depends on whether the chat has a session and who the user is.
func (b *Bot) mainMenuKeyboard(session *models.Session, telegramID int64) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton

	if session != nil {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuAppointments),
			tgbotapi.NewKeyboardButton(menuConsultants),
		))
		isAdmin := b.access != nil && b.access.IsAdmin(telegramID)
		if isAdmin || session.User.Role == models.RoleConsultant || session.User.Role == models.RoleAdmin {
			rows = append(rows, tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(menuPublish),
				tgbotapi.NewKeyboardButton(menuExport),
			))
		}
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(menuLogout)))
	} else {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLogin),
			tgbotapi.NewKeyboardButton(menuConsultants),
		))
	}

	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(menuHelp)))

	keyboard := tgbotapi.NewReplyKeyboard(rows...)
	keyboard.ResizeKeyboard = true
	return keyboard
}

func (b *Bot) showMainMenu(ctx context.Context, chatID, telegramID int64, text string) {
	session, err := b.sessions.Current(ctx, telegramID)
	if err != nil {
		b.logger.Error().Err(err).Int64("telegram_id", telegramID).Msg("Failed to load session")
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = b.mainMenuKeyboard(session, telegramID)
	if _, err := b.tgService.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send main menu")
	}
}

func (b *Bot) setState(ctx context.Context, userID int64, step string, data map[string]interface{}) {
	if err := b.stateService.SetUserState(ctx, userID, step, data); err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Str("step", step).Msg("Failed to set user state")
	}
}

func (b *Bot) clearState(ctx context.Context, userID int64) {
	if err := b.stateService.ClearUserState(ctx, userID); err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to clear user state")
	}
}

func stateString(state *models.UserState, key string) string {
	if state == nil || state.TempData == nil {
		return ""
	}
	if v, ok := state.TempData[key].(string); ok {
		return v
	}
	return ""
}
