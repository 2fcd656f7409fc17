package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"consultly/internal/models"
	"consultly/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xuri/excelize/v2"
)

// handleExport builds an Excel report of the requesting account's
// appointments and sends it back as a document. Consultants and admins
// only.
func (b *Bot) handleExport(ctx context.Context, chatID, userID int64) {
	session, err := b.sessions.Current(ctx, userID)
	if err != nil || session == nil {
		b.sendMessage(chatID, getErrorMessage(service.ErrNotLoggedIn))
		return
	}

	isAdmin := b.access != nil && b.access.IsAdmin(userID)
	if !isAdmin && session.User.Role != models.RoleConsultant && session.User.Role != models.RoleAdmin {
		b.sendMessage(chatID, "⛔ Chức năng này chỉ dành cho chuyên gia và quản trị viên.")
		return
	}

	appts, err := b.appointments.MyAppointments(ctx, session)
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to load appointments for export")
		b.sendMessage(chatID, getErrorMessage(err))
		return
	}

	if len(appts) == 0 {
		b.sendMessage(chatID, "📭 Không có lịch hẹn nào để xuất.")
		return
	}

	sortAppointments(appts, time.Now())
	filePath, err := b.exportAppointmentsToExcel(appts)
	if err != nil {
		b.logger.Error().Err(err).Msg("Excel export failed")
		b.sendMessage(chatID, getErrorMessage(err))
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(filePath))
	doc.Caption = fmt.Sprintf("📊 Báo cáo lịch hẹn (%d bản ghi)", len(appts))
	if _, err := b.tgService.Send(doc); err != nil {
		b.logger.Error().Err(err).Str("file_path", filePath).Msg("Failed to send export document")
		b.sendMessage(chatID, getErrorMessage(err))
	}
}

func (b *Bot) exportAppointmentsToExcel(appts []models.Appointment) (string, error) {
	if err := os.MkdirAll(b.config.Exports.Path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Lịch hẹn"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headers := []string{
		"Mã lịch hẹn", "Khách hàng", "Chuyên gia", "Bắt đầu", "Kết thúc",
		"Trạng thái", "Thanh toán", "Phí tư vấn", "Ghi chú", "Lý do hủy",
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i := range appts {
		appt := &appts[i]
		row := i + 2
		status := b.statusBadge(appt.Status)
		payment := b.paymentBadge(appt.PaymentStatus)

		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), appt.ID)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), appt.ClientName)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), appt.ConsultantName)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), appt.ScheduleWindow.StartTime.Format(timeLayout))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), appt.ScheduleWindow.EndTime.Format(timeLayout))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), status.Label)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), payment.Label)
		if appt.Amount > 0 {
			_ = f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), appt.Amount)
		}
		_ = f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), appt.Notes)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("J%d", row), appt.ReasonForCancellation)
	}

	_ = f.SetColWidth(sheetName, "A", "A", 30)
	_ = f.SetColWidth(sheetName, "B", "C", 25)
	_ = f.SetColWidth(sheetName, "D", "E", 18)
	_ = f.SetColWidth(sheetName, "F", "G", 16)
	_ = f.SetColWidth(sheetName, "H", "H", 14)
	_ = f.SetColWidth(sheetName, "I", "J", 35)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("appointments_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(b.config.Exports.Path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	b.logger.Info().Str("file_path", filePath).Int("rows", len(appts)).Msg("Excel file created")
	return filePath, nil
}
