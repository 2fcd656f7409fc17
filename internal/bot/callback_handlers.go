package bot

import (
	"context"
	"strconv"
	"strings"
	"time"

	"consultly/internal/lifecycle"
	"consultly/internal/models"
	"consultly/internal/platform"
	"consultly/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// reasonAction distinguishes the two reason-collecting dialogs.
type reasonAction int

const (
	actionReject reasonAction = iota
	actionCancelAppt
)

func (b *Bot) handleCallbackQuery(ctx context.Context, update tgbotapi.Update) {
	cb := update.CallbackQuery
	if cb.Message == nil {
		b.answerCallback(cb.ID, "")
		return
	}

	data := cb.Data
	userID := cb.From.ID
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID

	logger := zerolog.Ctx(ctx)
	logger.Debug().Int64("user_id", userID).Str("data", data).Msg("Processing callback")

	switch {
	case data == "back_main":
		b.answerCallback(cb.ID, "")
		b.showMainMenu(ctx, chatID, userID, "Menu chính 👇")

	case strings.HasPrefix(data, "appt_page_"):
		page, err := strconv.Atoi(strings.TrimPrefix(data, "appt_page_"))
		if err != nil {
			b.answerCallback(cb.ID, "")
			return
		}
		b.answerCallback(cb.ID, "")
		b.showAppointments(ctx, chatID, userID, page, messageID)

	case strings.HasPrefix(data, "act_"):
		b.handleAction(ctx, cb, strings.TrimPrefix(data, "act_"))

	case strings.HasPrefix(data, "appt_"):
		b.answerCallback(cb.ID, "")
		b.showAppointmentDetail(ctx, chatID, userID, strings.TrimPrefix(data, "appt_"), messageID)

	case strings.HasPrefix(data, "cons_page_"):
		page, err := strconv.Atoi(strings.TrimPrefix(data, "cons_page_"))
		if err != nil {
			b.answerCallback(cb.ID, "")
			return
		}
		b.answerCallback(cb.ID, "")
		b.showConsultants(ctx, chatID, page, messageID)

	case strings.HasPrefix(data, "cons_"):
		b.answerCallback(cb.ID, "")
		b.showConsultantSlots(ctx, chatID, strings.TrimPrefix(data, "cons_"), messageID)

	case strings.HasPrefix(data, "slot_"):
		b.startBookingNotes(ctx, cb, strings.TrimPrefix(data, "slot_"))

	case data == "skip_notes":
		b.answerCallback(cb.ID, "")
		b.finishBookingFromState(ctx, chatID, userID, "")

	default:
		b.answerCallback(cb.ID, "")
	}
}

// parseAction splits "reject_<id>" / "add_notes_<id>" into the action
// and the appointment id. Action names may themselves contain
// underscores, so match against the known set instead of splitting.
func parseAction(rest string) (lifecycle.Action, string, bool) {
	for _, action := range actionOrder {
		prefix := string(action) + "_"
		if strings.HasPrefix(rest, prefix) {
			return action, rest[len(prefix):], true
		}
	}
	return "", "", false
}

func (b *Bot) handleAction(ctx context.Context, cb *tgbotapi.CallbackQuery, rest string) {
	action, apptID, ok := parseAction(rest)
	if !ok || apptID == "" {
		b.answerCallback(cb.ID, "")
		return
	}

	userID := cb.From.ID
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID

	session, err := b.sessions.Current(ctx, userID)
	if err != nil || session == nil {
		b.answerCallback(cb.ID, "")
		b.sendMessage(chatID, getErrorMessage(service.ErrNotLoggedIn))
		return
	}

	if b.metrics != nil {
		b.metrics.ActionsTotal.WithLabelValues(string(action)).Inc()
	}

	switch action {
	case lifecycle.ActionConfirm:
		if err := b.appointments.Confirm(ctx, session, apptID, ""); err != nil {
			b.answerCallback(cb.ID, "")
			b.sendMessage(chatID, getErrorMessage(err))
			return
		}
		b.answerCallback(cb.ID, "✅ Đã xác nhận lịch hẹn")
		b.showAppointmentDetail(ctx, chatID, userID, apptID, messageID)

	case lifecycle.ActionComplete:
		if err := b.appointments.Complete(ctx, session, apptID); err != nil {
			b.answerCallback(cb.ID, "")
			b.sendMessage(chatID, getErrorMessage(err))
			return
		}
		b.answerCallback(cb.ID, "🏁 Đã hoàn thành buổi tư vấn")
		b.showAppointmentDetail(ctx, chatID, userID, apptID, messageID)

	case lifecycle.ActionReject:
		b.answerCallback(cb.ID, "")
		b.setState(ctx, userID, models.StateRejectReason, map[string]interface{}{
			"appointment_id": apptID,
		})
		b.sendMessage(chatID, "✏️ Vui lòng nhập lý do từ chối (ít nhất 5 ký tự):")

	case lifecycle.ActionCancel:
		b.answerCallback(cb.ID, "")
		b.setState(ctx, userID, models.StateCancelReason, map[string]interface{}{
			"appointment_id": apptID,
		})
		b.sendMessage(chatID, "✏️ Vui lòng nhập lý do hủy lịch (ít nhất 5 ký tự):")

	case lifecycle.ActionReschedule:
		b.answerCallback(cb.ID, "")
		b.setState(ctx, userID, models.StateRescheduleDate, map[string]interface{}{
			"appointment_id": apptID,
		})
		b.sendMessage(chatID, "🗓 Nhập thời gian mới theo định dạng DD.MM.YYYY HH:MM (ví dụ: 25.12.2026 14:00).\n"+
			"Thời gian mới phải cách hiện tại ít nhất 1 ngày.")

	case lifecycle.ActionPay:
		b.answerCallback(cb.ID, "")
		appt, err := b.appointments.GetAppointment(ctx, session, apptID)
		if err != nil {
			b.sendMessage(chatID, getErrorMessage(err))
			return
		}
		if appt.PaymentURL == "" {
			b.sendMessage(chatID, "💳 Liên kết thanh toán chưa sẵn sàng. Vui lòng thử lại sau.")
			return
		}
		text := "💳 *Thanh toán phí tư vấn*\n\n" + formatAmount(appt.Amount) + "\n" + appt.PaymentURL
		if due := platform.PaymentDeadline(appt); !due.IsZero() {
			text += "\n⏰ Hạn thanh toán: " + due.Format(timeLayout)
		}
		b.sendMarkdown(chatID, text)

	case lifecycle.ActionJoinMeeting:
		b.answerCallback(cb.ID, "")
		appt, err := b.appointments.GetAppointment(ctx, session, apptID)
		if err != nil {
			b.sendMessage(chatID, getErrorMessage(err))
			return
		}
		if appt.MeetingLink == "" {
			b.sendMessage(chatID, "📹 Phòng tư vấn chưa được mở. Vui lòng quay lại gần giờ hẹn.")
			return
		}
		b.sendMessage(chatID, "📹 Phòng tư vấn của bạn:\n"+appt.MeetingLink)

	case lifecycle.ActionAddNotes:
		b.answerCallback(cb.ID, "")
		b.setState(ctx, userID, models.StateAppointmentNotes, map[string]interface{}{
			"appointment_id": apptID,
		})
		b.sendMessage(chatID, "📝 Nhập ghi chú cho lịch hẹn:")

	default:
		b.answerCallback(cb.ID, "")
	}
}

// showAppointmentDetail renders one appointment with the buttons the
// current user is actually allowed to press.
func (b *Bot) showAppointmentDetail(ctx context.Context, chatID, userID int64, apptID string, messageID int) {
	session, err := b.sessions.Current(ctx, userID)
	if err != nil || session == nil {
		b.sendMessage(chatID, getErrorMessage(service.ErrNotLoggedIn))
		return
	}

	appt, err := b.appointments.GetAppointment(ctx, session, apptID)
	if err != nil {
		b.logger.Error().Err(err).Str("appointment_id", apptID).Msg("Failed to load appointment")
		b.sendMessage(chatID, getErrorMessage(err))
		return
	}

	actions := b.appointments.Actions(appt, &session.User, time.Now())
	text := b.formatAppointmentDetail(appt)
	keyboard := b.actionKeyboard(appt, actions)

	if messageID != 0 {
		b.editMessage(chatID, messageID, text, &keyboard)
	} else {
		b.sendWithInlineKeyboard(chatID, text, keyboard)
	}
}

// showConsultantSlots lists the consultant's free slots for the next
// two weeks.
func (b *Bot) showConsultantSlots(ctx context.Context, chatID int64, consultantID string, messageID int) {
	now := time.Now()
	slots, err := b.directory.FreeSlots(ctx, consultantID, now, now.AddDate(0, 0, 14))
	if err != nil {
		b.logger.Error().Err(err).Str("consultant_id", consultantID).Msg("Failed to load free slots")
		b.sendMessage(chatID, getErrorMessage(err))
		return
	}

	if len(slots) == 0 {
		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("⬅️ Quay lại", "cons_page_0"),
			),
		)
		b.editMessage(chatID, messageID, "📭 Chuyên gia này không còn khung giờ trống trong 2 tuần tới.", &keyboard)
		return
	}

	const maxSlots = 12
	if len(slots) > maxSlots {
		slots = slots[:maxSlots]
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, slot := range slots {
		label := slot.Window.StartTime.Format(timeLayout) + " – " + slot.Window.EndTime.Format("15:04")
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "slot_"+slot.ID),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Quay lại", "cons_page_0"),
	))

	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.editMessage(chatID, messageID, "🗓 *Chọn khung giờ trống:*", &keyboard)
}

// startBookingNotes asks for optional notes before booking the slot.
func (b *Bot) startBookingNotes(ctx context.Context, cb *tgbotapi.CallbackQuery, scheduleID string) {
	userID := cb.From.ID
	chatID := cb.Message.Chat.ID

	session, err := b.sessions.Current(ctx, userID)
	if err != nil || session == nil {
		b.answerCallback(cb.ID, "")
		b.sendMessage(chatID, getErrorMessage(service.ErrNotLoggedIn))
		return
	}

	b.answerCallback(cb.ID, "")
	b.setState(ctx, userID, models.StateBookingNotes, map[string]interface{}{
		"schedule_id": scheduleID,
	})

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏩ Bỏ qua", "skip_notes"),
		),
	)
	b.sendWithInlineKeyboard(chatID,
		"📝 Nhập ghi chú cho buổi tư vấn (triệu chứng, mong muốn...) hoặc bấm Bỏ qua:",
		keyboard)
}

// finishBookingFromState books the slot remembered in the dialog state.
func (b *Bot) finishBookingFromState(ctx context.Context, chatID, userID int64, notes string) {
	state, err := b.stateService.GetUserState(ctx, userID)
	if err != nil {
		b.sendMessage(chatID, getErrorMessage(err))
		return
	}
	scheduleID := stateString(state, "schedule_id")
	b.clearState(ctx, userID)

	session, err := b.sessions.Current(ctx, userID)
	if err != nil || session == nil {
		b.sendMessage(chatID, getErrorMessage(service.ErrNotLoggedIn))
		return
	}

	appt, err := b.appointments.Book(ctx, session, scheduleID, notes)
	if err != nil {
		b.logger.Error().Err(err).Str("schedule_id", scheduleID).Msg("Booking failed")
		b.sendMessage(chatID, getErrorMessage(err))
		return
	}

	if b.metrics != nil {
		b.metrics.BookingsCreated.Inc()
	}

	b.sendMarkdown(chatID, "🎉 *Đặt lịch thành công!*\n\n"+b.formatAppointmentDetail(appt))
	b.showMainMenu(ctx, chatID, userID, "Bạn có thể theo dõi lịch hẹn trong \""+menuAppointments+"\".")
}
