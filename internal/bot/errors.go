package bot

import (
	"errors"
	"fmt"

	"consultly/internal/models"
	"consultly/internal/service"
)

// getErrorMessage maps service errors to user-facing Vietnamese text.
func getErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrNotLoggedIn):
		return "🔑 Bạn cần đăng nhập trước. Hãy dùng lệnh /login."
	case errors.Is(err, service.ErrActionNotAllowed):
		return "⛔ Thao tác này hiện không khả dụng cho lịch hẹn."
	case errors.Is(err, service.ErrReasonTooShort):
		return fmt.Sprintf("✏️ Lý do phải có ít nhất %d ký tự. Vui lòng nhập lại.", models.MinReasonLength)
	case errors.Is(err, service.ErrRescheduleTooSoon):
		return fmt.Sprintf("⏰ Thời gian mới phải cách hiện tại ít nhất %d ngày.", models.MinRescheduleNoticeDays)
	case errors.Is(err, service.ErrMissingSchedule):
		return "📅 Chưa chọn khung giờ nào. Vui lòng chọn lại từ danh sách."
	default:
		return "❌ Có lỗi xảy ra. Vui lòng thử lại sau."
	}
}
