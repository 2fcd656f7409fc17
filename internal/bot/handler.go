package bot

import (
	"context"
	"strings"
	"time"

	"consultly/internal/models"
	"consultly/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func (b *Bot) handleMessage(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	userID := msg.From.ID
	chatID := msg.Chat.ID

	logger := zerolog.Ctx(ctx)
	logger.Debug().
		Int64("user_id", userID).
		Str("text", msg.Text).
		Msg("Processing message")

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	// An active dialog step takes the raw text before menu routing.
	state, err := b.stateService.GetUserState(ctx, userID)
	if err != nil {
		logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to get user state")
	}
	if state != nil && state.CurrentStep != "" && state.CurrentStep != models.StateMainMenu {
		b.handleDialogStep(ctx, msg, state)
		return
	}

	switch msg.Text {
	case menuAppointments:
		b.showAppointments(ctx, chatID, userID, 0, 0)
	case menuConsultants:
		b.showConsultants(ctx, chatID, 0, 0)
	case menuPublish:
		b.startPublishSlot(ctx, chatID, userID)
	case menuExport:
		b.handleExport(ctx, chatID, userID)
	case menuLogin:
		b.startLogin(ctx, chatID, userID)
	case menuLogout:
		b.handleLogout(ctx, chatID, userID)
	case menuHelp:
		b.sendHelp(chatID)
	default:
		b.showMainMenu(ctx, chatID, userID, "Vui lòng chọn một mục trong menu. 👇")
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		b.clearState(ctx, userID)
		b.showMainMenu(ctx, chatID, userID,
			"👋 Chào mừng bạn đến với nền tảng tư vấn sức khỏe tinh thần!\n\n"+
				"Tại đây bạn có thể đặt lịch với chuyên gia, theo dõi lịch hẹn và thanh toán phí tư vấn.")
	case "help":
		b.sendHelp(chatID)
	case "login":
		b.startLogin(ctx, chatID, userID)
	case "logout":
		b.handleLogout(ctx, chatID, userID)
	case "appointments":
		b.showAppointments(ctx, chatID, userID, 0, 0)
	case "consultants":
		b.showConsultants(ctx, chatID, 0, 0)
	case "newslot":
		b.startPublishSlot(ctx, chatID, userID)
	case "export":
		b.handleExport(ctx, chatID, userID)
	case "cancel":
		b.clearState(ctx, userID)
		b.showMainMenu(ctx, chatID, userID, "Đã hủy thao tác hiện tại.")
	default:
		b.sendMessage(chatID, "Lệnh không hợp lệ. Dùng /help để xem danh sách lệnh.")
	}
}

func (b *Bot) sendHelp(chatID int64) {
	b.sendMarkdown(chatID, "*Các lệnh khả dụng:*\n\n"+
		"/start — mở menu chính\n"+
		"/login — đăng nhập tài khoản\n"+
		"/logout — đăng xuất\n"+
		"/appointments — danh sách lịch hẹn của bạn\n"+
		"/consultants — danh sách chuyên gia tư vấn\n"+
		"/cancel — hủy thao tác đang thực hiện\n"+
		"/help — trợ giúp")
}

// handleDialogStep routes free-form text into the active dialog.
func (b *Bot) handleDialogStep(ctx context.Context, msg *tgbotapi.Message, state *models.UserState) {
	switch state.CurrentStep {
	case models.StateLoginEmail:
		b.handleLoginEmail(ctx, msg)
	case models.StateLoginPassword:
		b.handleLoginPassword(ctx, msg, state)
	case models.StatePublishSlot:
		b.handlePublishSlotInput(ctx, msg)
	case models.StateRejectReason:
		b.handleReasonInput(ctx, msg, state, actionReject)
	case models.StateCancelReason:
		b.handleReasonInput(ctx, msg, state, actionCancelAppt)
	case models.StateRescheduleDate:
		b.handleRescheduleInput(ctx, msg, state)
	case models.StateAppointmentNotes:
		b.handleAppointmentNotesInput(ctx, msg, state)
	case models.StateBookingNotes:
		b.handleBookingNotesInput(ctx, msg, state)
	default:
		b.clearState(ctx, msg.From.ID)
		b.showMainMenu(ctx, msg.Chat.ID, msg.From.ID, "Vui lòng chọn một mục trong menu. 👇")
	}
}

func (b *Bot) startLogin(ctx context.Context, chatID, userID int64) {
	session, err := b.sessions.Current(ctx, userID)
	if err == nil && session != nil {
		b.sendMessage(chatID, "Bạn đã đăng nhập với tài khoản "+session.User.Email+".")
		return
	}

	b.setState(ctx, userID, models.StateLoginEmail, nil)
	b.sendMessage(chatID, "📧 Vui lòng nhập email của bạn:")
}

func (b *Bot) handleLoginEmail(ctx context.Context, msg *tgbotapi.Message) {
	email := strings.TrimSpace(msg.Text)
	if email == "" || !strings.Contains(email, "@") {
		b.sendMessage(msg.Chat.ID, "Email không hợp lệ. Vui lòng nhập lại:")
		return
	}

	b.setState(ctx, msg.From.ID, models.StateLoginPassword, map[string]interface{}{
		"email": email,
	})
	b.sendMessage(msg.Chat.ID, "🔒 Vui lòng nhập mật khẩu:")
}

func (b *Bot) handleLoginPassword(ctx context.Context, msg *tgbotapi.Message, state *models.UserState) {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	email := stateString(state, "email")
	password := msg.Text

	// Drop the password from the chat as soon as we have it.
	deleteReq := tgbotapi.NewDeleteMessage(chatID, msg.MessageID)
	if _, err := b.tgService.Request(deleteReq); err != nil {
		b.logger.Debug().Err(err).Msg("Failed to delete password message")
	}

	b.clearState(ctx, userID)

	session, err := b.sessions.Login(ctx, userID, email, password)
	if err != nil {
		b.logger.Warn().Err(err).Int64("telegram_id", userID).Msg("Login failed")
		b.sendMessage(chatID, "❌ Đăng nhập không thành công. Kiểm tra lại email và mật khẩu rồi thử /login lần nữa.")
		return
	}

	name := session.User.FullName
	if name == "" {
		name = session.User.Email
	}
	b.showMainMenu(ctx, chatID, userID, "✅ Đăng nhập thành công! Xin chào "+name+".")
}

func (b *Bot) handleLogout(ctx context.Context, chatID, userID int64) {
	b.clearState(ctx, userID)
	if err := b.sessions.Logout(ctx, userID); err != nil {
		b.logger.Error().Err(err).Int64("telegram_id", userID).Msg("Logout failed")
	}
	b.showMainMenu(ctx, chatID, userID, "👋 Bạn đã đăng xuất.")
}

// showAppointments renders a page of the user's appointments. When
// messageID is non-zero the existing message is edited in place.
func (b *Bot) showAppointments(ctx context.Context, chatID, userID int64, page, messageID int) {
	session, err := b.sessions.Current(ctx, userID)
	if err != nil {
		b.sendMessage(chatID, getErrorMessage(err))
		return
	}
	if session == nil {
		b.sendMessage(chatID, getErrorMessage(service.ErrNotLoggedIn))
		return
	}

	appts, err := b.appointments.MyAppointments(ctx, session)
	if err != nil {
		b.logger.Error().Err(err).Int64("telegram_id", userID).Msg("Failed to load appointments")
		b.sendMessage(chatID, getErrorMessage(err))
		return
	}

	if len(appts) == 0 {
		b.sendMessage(chatID, "📭 Bạn chưa có lịch hẹn nào. Hãy chọn \""+menuConsultants+"\" để đặt lịch.")
		return
	}

	sortAppointments(appts, time.Now())
	text, keyboard := b.appointmentsPage(appts, page)
	if messageID != 0 {
		b.editMessage(chatID, messageID, text, &keyboard)
	} else {
		b.sendWithInlineKeyboard(chatID, text, keyboard)
	}
}

// showConsultants renders a page of the consultant directory. Browsing
// does not require a login.
func (b *Bot) showConsultants(ctx context.Context, chatID int64, page, messageID int) {
	pageSize := b.config.Bot.PaginationSize
	consultants, err := b.directory.Consultants(ctx, page+1, pageSize)
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to load consultants")
		b.sendMessage(chatID, getErrorMessage(err))
		return
	}

	if len(consultants) == 0 && page == 0 {
		b.sendMessage(chatID, "📭 Hiện chưa có chuyên gia nào.")
		return
	}

	text, keyboard := b.consultantsPage(consultants, page)
	if messageID != 0 {
		b.editMessage(chatID, messageID, text, &keyboard)
	} else {
		b.sendWithInlineKeyboard(chatID, text, keyboard)
	}
}
