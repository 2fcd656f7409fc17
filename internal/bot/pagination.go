package bot

import (
	"fmt"
	"strings"

	"consultly/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// appointmentsPage slices the already-sorted appointment list into one
// page of text plus an inline keyboard with one button per appointment.
func (b *Bot) appointmentsPage(appts []models.Appointment, page int) (string, tgbotapi.InlineKeyboardMarkup) {
	pageSize := models.DefaultAppointmentsPageSize
	totalPages := (len(appts) + pageSize - 1) / pageSize
	if page < 0 {
		page = 0
	}
	if page >= totalPages {
		page = totalPages - 1
	}

	start := page * pageSize
	end := start + pageSize
	if end > len(appts) {
		end = len(appts)
	}
	pageAppts := appts[start:end]

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 *Lịch hẹn của bạn* (trang %d/%d)\n\n", page+1, totalPages))
	for i := range pageAppts {
		sb.WriteString(b.formatAppointmentLine(&pageAppts[i]))
	}
	sb.WriteString("\nChọn một lịch hẹn để xem chi tiết:")

	var rows [][]tgbotapi.InlineKeyboardButton
	for i := range pageAppts {
		appt := &pageAppts[i]
		badge := b.statusBadge(appt.Status)
		label := fmt.Sprintf("%s %s", variantEmoji(badge.Variant), appt.ScheduleWindow.StartTime.Format(timeLayout))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "appt_"+appt.ID),
		))
	}

	if nav := navRow(page, totalPages, "appt_page_"); nav != nil {
		rows = append(rows, nav)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🏠 Menu chính", "back_main"),
	))

	return sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// consultantsPage renders one server-side page of the directory. The
// backend paginates for us, so a full next page is assumed whenever the
// current one came back full.
func (b *Bot) consultantsPage(consultants []models.Consultant, page int) (string, tgbotapi.InlineKeyboardMarkup) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("👩‍⚕️ *Chuyên gia tư vấn* (trang %d)\n\n", page+1))
	for _, c := range consultants {
		sb.WriteString("• *" + c.FullName + "*")
		if c.Specialty != "" {
			sb.WriteString(" — " + c.Specialty)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\nChọn một chuyên gia để xem khung giờ trống:")

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, c := range consultants {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(c.FullName, "cons_"+c.ID),
		))
	}

	var nav []tgbotapi.InlineKeyboardButton
	if page > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️", fmt.Sprintf("cons_page_%d", page-1)))
	}
	if len(consultants) == b.config.Bot.PaginationSize {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("➡️", fmt.Sprintf("cons_page_%d", page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🏠 Menu chính", "back_main"),
	))

	return sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func navRow(page, totalPages int, prefix string) []tgbotapi.InlineKeyboardButton {
	var nav []tgbotapi.InlineKeyboardButton
	if page > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️", fmt.Sprintf("%s%d", prefix, page-1)))
	}
	if page < totalPages-1 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("➡️", fmt.Sprintf("%s%d", prefix, page+1)))
	}
	return nav
}
