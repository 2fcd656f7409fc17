package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"consultly/internal/models"
	"consultly/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var (
	errSlotFormat = errors.New("định dạng không hợp lệ, nhập theo mẫu DD.MM.YYYY HH:MM - HH:MM")
	errSlotOrder  = errors.New("giờ kết thúc phải sau giờ bắt đầu")
	errSlotInPast = errors.New("khung giờ phải nằm trong tương lai")
)

// startPublishSlot opens the slot-publishing dialog. Consultants and
// admins only; the backend enforces the same rule server-side.
func (b *Bot) startPublishSlot(ctx context.Context, chatID, userID int64) {
	session, err := b.sessions.Current(ctx, userID)
	if err != nil || session == nil {
		b.sendMessage(chatID, getErrorMessage(service.ErrNotLoggedIn))
		return
	}

	isAdmin := b.access != nil && b.access.IsAdmin(userID)
	if !isAdmin && session.User.Role != models.RoleConsultant && session.User.Role != models.RoleAdmin {
		b.sendMessage(chatID, "⛔ Chỉ chuyên gia mới có thể mở khung giờ tư vấn.")
		return
	}

	b.setState(ctx, userID, models.StatePublishSlot, nil)
	b.sendMessage(chatID, "🗓 Nhập khung giờ muốn mở theo mẫu DD.MM.YYYY HH:MM - HH:MM "+
		"(ví dụ: 25.12.2026 14:00 - 15:00). Bỏ trống phần kết thúc để mở khung 1 giờ:")
}

// handlePublishSlotInput parses the window and publishes the slot. Bad
// input keeps the dialog open so the consultant can retype it.
func (b *Bot) handlePublishSlotInput(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	window, err := parseSlotWindow(msg.Text, time.Now())
	if err != nil {
		b.sendMessage(chatID, "⚠️ Khung giờ "+err.Error()+". Vui lòng nhập lại:")
		return
	}

	session, err := b.sessions.Current(ctx, userID)
	if err != nil || session == nil {
		b.clearState(ctx, userID)
		b.sendMessage(chatID, getErrorMessage(service.ErrNotLoggedIn))
		return
	}

	schedule, err := b.directory.PublishSlot(ctx, session, window)
	if err != nil {
		b.clearState(ctx, userID)
		b.sendMessage(chatID, getErrorMessage(err))
		return
	}

	b.clearState(ctx, userID)
	b.logger.Info().
		Str("schedule_id", schedule.ID).
		Int64("telegram_id", userID).
		Msg("Slot published via dialog")
	b.sendMessage(chatID, "✅ Đã mở khung giờ "+window.StartTime.Format(timeLayout)+
		" – "+window.EndTime.Format("15:04")+". Khách hàng có thể đặt lịch ngay.")
}

// parseSlotWindow reads "DD.MM.YYYY HH:MM" with an optional "- HH:MM" end
// on the same day. Without an end the slot lasts one hour.
func parseSlotWindow(text string, now time.Time) (models.ScheduleWindow, error) {
	startPart, endPart, hasEnd := strings.Cut(text, "-")

	start, err := time.ParseInLocation(timeLayout, strings.TrimSpace(startPart), time.Local)
	if err != nil {
		return models.ScheduleWindow{}, errSlotFormat
	}

	end := start.Add(time.Hour)
	if hasEnd {
		endClock, err := time.Parse("15:04", strings.TrimSpace(endPart))
		if err != nil {
			return models.ScheduleWindow{}, errSlotFormat
		}
		end = time.Date(start.Year(), start.Month(), start.Day(),
			endClock.Hour(), endClock.Minute(), 0, 0, start.Location())
		if !end.After(start) {
			return models.ScheduleWindow{}, errSlotOrder
		}
	}

	if !start.After(now) {
		return models.ScheduleWindow{}, errSlotInPast
	}

	return models.ScheduleWindow{StartTime: start, EndTime: end}, nil
}
