package bot

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"consultly/internal/lifecycle"
	"consultly/internal/models"
	"consultly/internal/platform"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const timeLayout = "02.01.2006 15:04"

// variantEmoji picks the list-view marker for a badge severity.
func variantEmoji(v lifecycle.Variant) string {
	switch v {
	case lifecycle.VariantDefault:
		return "✅"
	case lifecycle.VariantDestructive:
		return "❌"
	case lifecycle.VariantOutline:
		return "🏁"
	default:
		return "⏳"
	}
}

func (b *Bot) statusBadge(raw string) lifecycle.Badge {
	return b.formatter.FormatStatus(lifecycle.NormalizeStatus(raw))
}

func (b *Bot) paymentBadge(raw string) lifecycle.Badge {
	return b.formatter.FormatPaymentStatus(lifecycle.NormalizePaymentStatus(raw))
}

func (b *Bot) formatAppointmentLine(appt *models.Appointment) string {
	badge := b.statusBadge(appt.Status)
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s *%s*\n", variantEmoji(badge.Variant), badge.Label))
	if appt.ConsultantName != "" {
		sb.WriteString(fmt.Sprintf("   👩‍⚕️ %s\n", appt.ConsultantName))
	}
	sb.WriteString(fmt.Sprintf("   🗓 %s\n", appt.ScheduleWindow.StartTime.Format(timeLayout)))
	return sb.String()
}

func (b *Bot) formatAppointmentDetail(appt *models.Appointment) string {
	status := b.statusBadge(appt.Status)
	payment := b.paymentBadge(appt.PaymentStatus)

	var sb strings.Builder
	sb.WriteString("📋 *Chi tiết lịch hẹn*\n\n")
	if appt.ConsultantName != "" {
		sb.WriteString(fmt.Sprintf("👩‍⚕️ Chuyên gia: %s\n", appt.ConsultantName))
	}
	if appt.ClientName != "" {
		sb.WriteString(fmt.Sprintf("👤 Khách hàng: %s\n", appt.ClientName))
	}
	sb.WriteString(fmt.Sprintf("🗓 Thời gian: %s – %s\n",
		appt.ScheduleWindow.StartTime.Format(timeLayout),
		appt.ScheduleWindow.EndTime.Format("15:04")))
	sb.WriteString(fmt.Sprintf("📊 Trạng thái: %s %s\n", variantEmoji(status.Variant), status.Label))
	sb.WriteString(fmt.Sprintf("💳 Thanh toán: %s\n", payment.Label))
	if appt.Amount > 0 {
		sb.WriteString(fmt.Sprintf("💰 Phí tư vấn: %s\n", formatAmount(appt.Amount)))
	}
	if due := platform.PaymentDeadline(appt); !due.IsZero() {
		sb.WriteString(fmt.Sprintf("⏰ Hạn thanh toán: %s\n", due.Format(timeLayout)))
	}
	if appt.Notes != "" {
		sb.WriteString(fmt.Sprintf("📝 Ghi chú: %s\n", appt.Notes))
	}
	if appt.ReasonForCancellation != "" {
		sb.WriteString(fmt.Sprintf("🚫 Lý do hủy: %s\n", appt.ReasonForCancellation))
	}
	return sb.String()
}

var actionButtons = map[lifecycle.Action]string{
	lifecycle.ActionConfirm:     "✅ Xác nhận",
	lifecycle.ActionReject:      "❌ Từ chối",
	lifecycle.ActionCancel:      "🚫 Hủy lịch",
	lifecycle.ActionReschedule:  "🔄 Đổi lịch",
	lifecycle.ActionComplete:    "🏁 Hoàn thành",
	lifecycle.ActionPay:         "💳 Thanh toán",
	lifecycle.ActionAddNotes:    "📝 Thêm ghi chú",
	lifecycle.ActionJoinMeeting: "📹 Vào phòng tư vấn",
}

// Button ordering is fixed so the keyboard doesn't jump between renders.
var actionOrder = []lifecycle.Action{
	lifecycle.ActionConfirm,
	lifecycle.ActionReject,
	lifecycle.ActionPay,
	lifecycle.ActionJoinMeeting,
	lifecycle.ActionReschedule,
	lifecycle.ActionCancel,
	lifecycle.ActionComplete,
	lifecycle.ActionAddNotes,
}

// actionKeyboard builds the inline keyboard from the resolved action
// set. Nothing outside the set ever becomes a button.
func (b *Bot) actionKeyboard(appt *models.Appointment, actions lifecycle.ActionSet) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton

	for _, action := range actionOrder {
		if !actions.Has(action) {
			continue
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			actionButtons[action],
			fmt.Sprintf("act_%s_%s", action, appt.ID),
		))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Quay lại", "appt_page_0"),
	})

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func formatAmount(amount float64) string {
	// Whole-VND amounts with dot separators, e.g. 1.500.000 ₫.
	n := int64(amount)
	s := fmt.Sprintf("%d", n)
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return strings.Join(parts, ".") + " ₫"
}

// sortAppointments orders upcoming first, then most recent past.
func sortAppointments(appts []models.Appointment, now time.Time) {
	sort.SliceStable(appts, func(i, j int) bool {
		a, b := appts[i].ScheduleWindow.StartTime, appts[j].ScheduleWindow.StartTime
		aFuture, bFuture := a.After(now), b.After(now)
		if aFuture != bFuture {
			return aFuture
		}
		if aFuture {
			return a.Before(b)
		}
		return a.After(b)
	})
}
