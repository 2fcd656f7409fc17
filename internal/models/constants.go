package models

const (
	StateMainMenu         = "main_menu"
	StateBookingNotes     = "booking_notes"
	StatePublishSlot      = "publish_slot"
	StateRejectReason     = "reject_reason"
	StateCancelReason     = "cancel_reason"
	StateRescheduleDate   = "reschedule_date"
	StateAppointmentNotes = "appointment_notes"
	StateLoginEmail       = "login_email"
	StateLoginPassword    = "login_password"
)

const ParseModeMarkdown = "Markdown"

const (
	// DefaultRedisTTL lifetime of session and dialog state in Redis, seconds.
	DefaultRedisTTL = 24 * 60 * 60

	// DefaultPaginationSize default page size for inline lists.
	DefaultPaginationSize = 8

	// DefaultAppointmentsPageSize page size for the appointments list.
	DefaultAppointmentsPageSize = 5

	// MinReasonLength minimal length of a reject/cancel reason.
	MinReasonLength = 5

	// MinRescheduleNoticeDays minimal notice for rescheduling, in days.
	MinRescheduleNoticeDays = 1
)
