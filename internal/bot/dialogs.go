package bot

import (
	"context"
	"errors"
	"time"

	"consultly/internal/models"
	"consultly/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleReasonInput completes a reject or cancel dialog. A too-short
// reason keeps the dialog open so the user can retype it.
func (b *Bot) handleReasonInput(ctx context.Context, msg *tgbotapi.Message, state *models.UserState, kind reasonAction) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	apptID := stateString(state, "appointment_id")
	if apptID == "" {
		b.clearState(ctx, userID)
		b.showMainMenu(ctx, chatID, userID, "Phiên làm việc đã hết hạn. Vui lòng chọn lại lịch hẹn.")
		return
	}

	session, err := b.sessions.Current(ctx, userID)
	if err != nil || session == nil {
		b.clearState(ctx, userID)
		b.sendMessage(chatID, getErrorMessage(service.ErrNotLoggedIn))
		return
	}

	reason := msg.Text
	switch kind {
	case actionReject:
		err = b.appointments.Reject(ctx, session, apptID, reason)
	case actionCancelAppt:
		err = b.appointments.Cancel(ctx, session, apptID, reason)
	}

	if errors.Is(err, service.ErrReasonTooShort) {
		b.sendMessage(chatID, getErrorMessage(err))
		return
	}
	if err != nil {
		b.clearState(ctx, userID)
		b.sendMessage(chatID, getErrorMessage(err))
		return
	}

	b.clearState(ctx, userID)
	if kind == actionReject {
		b.sendMessage(chatID, "❌ Đã từ chối lịch hẹn.")
	} else {
		b.sendMessage(chatID, "🚫 Đã hủy lịch hẹn.")
	}
	b.showAppointments(ctx, chatID, userID, 0, 0)
}

// handleRescheduleInput parses the new start time and moves the
// appointment, keeping its original duration.
func (b *Bot) handleRescheduleInput(ctx context.Context, msg *tgbotapi.Message, state *models.UserState) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	apptID := stateString(state, "appointment_id")
	if apptID == "" {
		b.clearState(ctx, userID)
		b.showMainMenu(ctx, chatID, userID, "Phiên làm việc đã hết hạn. Vui lòng chọn lại lịch hẹn.")
		return
	}

	start, err := time.ParseInLocation(timeLayout, msg.Text, time.Local)
	if err != nil {
		b.sendMessage(chatID, "⚠️ Định dạng không hợp lệ. Nhập theo mẫu DD.MM.YYYY HH:MM (ví dụ: 25.12.2026 14:00):")
		return
	}

	session, err := b.sessions.Current(ctx, userID)
	if err != nil || session == nil {
		b.clearState(ctx, userID)
		b.sendMessage(chatID, getErrorMessage(service.ErrNotLoggedIn))
		return
	}

	appt, err := b.appointments.GetAppointment(ctx, session, apptID)
	if err != nil {
		b.clearState(ctx, userID)
		b.sendMessage(chatID, getErrorMessage(err))
		return
	}

	duration := appt.ScheduleWindow.EndTime.Sub(appt.ScheduleWindow.StartTime)
	if duration <= 0 {
		duration = time.Hour
	}
	window := models.ScheduleWindow{StartTime: start, EndTime: start.Add(duration)}

	err = b.appointments.Reschedule(ctx, session, apptID, window)
	if errors.Is(err, service.ErrRescheduleTooSoon) {
		b.sendMessage(chatID, getErrorMessage(err)+" Vui lòng nhập thời gian khác:")
		return
	}
	if err != nil {
		b.clearState(ctx, userID)
		b.sendMessage(chatID, getErrorMessage(err))
		return
	}

	b.clearState(ctx, userID)
	b.sendMessage(chatID, "🔄 Đã đổi lịch sang "+start.Format(timeLayout)+".")
	b.showAppointmentDetail(ctx, chatID, userID, apptID, 0)
}

func (b *Bot) handleAppointmentNotesInput(ctx context.Context, msg *tgbotapi.Message, state *models.UserState) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	apptID := stateString(state, "appointment_id")
	b.clearState(ctx, userID)
	if apptID == "" {
		b.showMainMenu(ctx, chatID, userID, "Phiên làm việc đã hết hạn. Vui lòng chọn lại lịch hẹn.")
		return
	}

	session, err := b.sessions.Current(ctx, userID)
	if err != nil || session == nil {
		b.sendMessage(chatID, getErrorMessage(service.ErrNotLoggedIn))
		return
	}

	if err := b.appointments.AddNotes(ctx, session, apptID, msg.Text); err != nil {
		b.sendMessage(chatID, getErrorMessage(err))
		return
	}

	b.sendMessage(chatID, "📝 Đã lưu ghi chú.")
	b.showAppointmentDetail(ctx, chatID, userID, apptID, 0)
}

func (b *Bot) handleBookingNotesInput(ctx context.Context, msg *tgbotapi.Message, state *models.UserState) {
	b.finishBookingFromState(ctx, msg.Chat.ID, msg.From.ID, msg.Text)
}
