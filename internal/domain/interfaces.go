package domain

import (
	"context"
	"time"

	"consultly/internal/lifecycle"
	"consultly/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BookingAPI is the booking backend surface the services depend on.
// Implemented by platform.Client; the bearer token travels on the context.
type BookingAPI interface {
	ListAppointments(ctx context.Context, query models.AppointmentQuery) ([]models.Appointment, error)
	ListAppointmentsCached(ctx context.Context, query models.AppointmentQuery) ([]models.Appointment, error)
	MyAppointments(ctx context.Context) ([]models.Appointment, error)
	GetAppointment(ctx context.Context, id string) (*models.Appointment, error)
	ConfirmAppointment(ctx context.Context, id, notes string) error
	RejectAppointment(ctx context.Context, id, reason string) error
	CancelAppointment(ctx context.Context, id, reason string) error
	RescheduleAppointment(ctx context.Context, id string, window models.ScheduleWindow) error
	CompleteAppointment(ctx context.Context, id string) error
	AddNotes(ctx context.Context, id, notes string) error
	BookSchedule(ctx context.Context, scheduleID, notes string) (*models.Appointment, error)
	ListSchedules(ctx context.Context, consultantID string, from, to time.Time) ([]models.Schedule, error)
	CreateSchedule(ctx context.Context, window models.ScheduleWindow) (*models.Schedule, error)
	ListConsultants(ctx context.Context, pageNumber, pageSize int) ([]models.Consultant, error)
	Login(ctx context.Context, email, password string) (string, error)
}

type StateRepository interface {
	GetState(ctx context.Context, userID int64) (*models.UserState, error)
	SetState(ctx context.Context, state *models.UserState) error
	ClearState(ctx context.Context, userID int64) error
	GetSession(ctx context.Context, telegramID int64) (*models.Session, error)
	SetSession(ctx context.Context, session *models.Session) error
	ClearSession(ctx context.Context, telegramID int64) error
	ListSessions(ctx context.Context) ([]models.Session, error)
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type StateManager interface {
	GetUserState(ctx context.Context, userID int64) (*models.UserState, error)
	SetUserState(ctx context.Context, userID int64, step string, data map[string]interface{}) error
	ClearUserState(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

// SessionManager owns login/logout and the token+user pair per chat.
type SessionManager interface {
	Login(ctx context.Context, telegramID int64, email, password string) (*models.Session, error)
	Current(ctx context.Context, telegramID int64) (*models.Session, error)
	Logout(ctx context.Context, telegramID int64) error
	ListAll(ctx context.Context) ([]models.Session, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

type TelegramService interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
	SendWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) (tgbotapi.Message, error)
	SendWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	EditMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	AnswerCallback(callbackID string, text string) error
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

// CalendarWriter mirrors appointment state to an external calendar.
type CalendarWriter interface {
	UpsertAppointment(ctx context.Context, appt *models.Appointment) error
	CancelAppointment(ctx context.Context, appointmentID string) error
}

// SyncWorker accepts durable calendar sync tasks.
type SyncWorker interface {
	EnqueueUpsert(ctx context.Context, appt *models.Appointment) error
	EnqueueCancel(ctx context.Context, appointmentID string) error
}

// AppointmentService is the application-side appointment surface: it
// validates preconditions, checks action eligibility, calls the backend
// and publishes events.
type AppointmentService interface {
	MyAppointments(ctx context.Context, session *models.Session) ([]models.Appointment, error)
	UpcomingAppointments(ctx context.Context, session *models.Session) ([]models.Appointment, error)
	GetAppointment(ctx context.Context, session *models.Session, id string) (*models.Appointment, error)
	Actions(appt *models.Appointment, user *models.User, now time.Time) lifecycle.ActionSet
	Confirm(ctx context.Context, session *models.Session, id, notes string) error
	Reject(ctx context.Context, session *models.Session, id, reason string) error
	Cancel(ctx context.Context, session *models.Session, id, reason string) error
	Reschedule(ctx context.Context, session *models.Session, id string, window models.ScheduleWindow) error
	Complete(ctx context.Context, session *models.Session, id string) error
	AddNotes(ctx context.Context, session *models.Session, id, notes string) error
	Book(ctx context.Context, session *models.Session, scheduleID, notes string) (*models.Appointment, error)
}

// DirectoryService exposes consultant browsing and slot listings.
type DirectoryService interface {
	Consultants(ctx context.Context, pageNumber, pageSize int) ([]models.Consultant, error)
	FreeSlots(ctx context.Context, consultantID string, from, to time.Time) ([]models.Schedule, error)
	PublishSlot(ctx context.Context, session *models.Session, window models.ScheduleWindow) (*models.Schedule, error)
}
