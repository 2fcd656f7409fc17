package service

import (
	"context"
	"strings"
	"time"

	"consultly/internal/domain"
	"consultly/internal/events"
	"consultly/internal/lifecycle"
	"consultly/internal/metrics"
	"consultly/internal/models"
	"consultly/internal/platform"

	"github.com/rs/zerolog"
)

// AppointmentService validates lifecycle preconditions before calling
// the booking backend, then publishes events and queues calendar sync.
type AppointmentService struct {
	api        domain.BookingAPI
	eventBus   domain.EventPublisher
	syncWorker domain.SyncWorker
	logger     *zerolog.Logger
	now        func() time.Time
}

func NewAppointmentService(api domain.BookingAPI, eventBus domain.EventPublisher, syncWorker domain.SyncWorker, logger *zerolog.Logger) *AppointmentService {
	return &AppointmentService{
		api:        api,
		eventBus:   eventBus,
		syncWorker: syncWorker,
		logger:     logger,
		now:        time.Now,
	}
}

func authed(ctx context.Context, session *models.Session) (context.Context, error) {
	if session == nil || session.Token == "" {
		return ctx, ErrNotLoggedIn
	}
	return platform.WithToken(ctx, session.Token), nil
}

func (s *AppointmentService) MyAppointments(ctx context.Context, session *models.Session) ([]models.Appointment, error) {
	ctx, err := authed(ctx, session)
	if err != nil {
		return nil, err
	}
	return s.api.MyAppointments(ctx)
}

// UpcomingAppointments lists the session user's appointments through the
// optional read cache. The reminder loop tolerates slightly stale data, so
// it uses this variant instead of hitting the backend once per session.
func (s *AppointmentService) UpcomingAppointments(ctx context.Context, session *models.Session) ([]models.Appointment, error) {
	ctx, err := authed(ctx, session)
	if err != nil {
		return nil, err
	}

	query := models.AppointmentQuery{ClientID: session.User.ID}
	if session.User.Role == models.RoleConsultant || session.User.Role == models.RoleAdmin {
		query = models.AppointmentQuery{ConsultantID: session.User.ID}
	}
	return s.api.ListAppointmentsCached(ctx, query)
}

func (s *AppointmentService) GetAppointment(ctx context.Context, session *models.Session, id string) (*models.Appointment, error) {
	ctx, err := authed(ctx, session)
	if err != nil {
		return nil, err
	}
	return s.api.GetAppointment(ctx, id)
}

// Actions resolves what the user may do with the appointment right now.
func (s *AppointmentService) Actions(appt *models.Appointment, user *models.User, now time.Time) lifecycle.ActionSet {
	return lifecycle.ResolveForAppointment(appt, user, now)
}

// requireAction loads the appointment and verifies the action is
// currently allowed for the session's user.
func (s *AppointmentService) requireAction(ctx context.Context, session *models.Session, id string, action lifecycle.Action) (*models.Appointment, error) {
	appt, err := s.api.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}

	actions := lifecycle.ResolveForAppointment(appt, &session.User, s.now())
	if !actions.Has(action) {
		s.logger.Warn().
			Str("appointment_id", id).
			Str("action", string(action)).
			Str("status", appt.Status).
			Str("user_id", session.User.ID).
			Msg("Action not allowed")
		return nil, ErrActionNotAllowed
	}

	metrics.IncAction(string(action))
	return appt, nil
}

func validReason(reason string) error {
	if len(strings.TrimSpace(reason)) < models.MinReasonLength {
		return ErrReasonTooShort
	}
	return nil
}

func (s *AppointmentService) Confirm(ctx context.Context, session *models.Session, id, notes string) error {
	ctx, err := authed(ctx, session)
	if err != nil {
		return err
	}

	appt, err := s.requireAction(ctx, session, id, lifecycle.ActionConfirm)
	if err != nil {
		return err
	}

	if err := s.api.ConfirmAppointment(ctx, id, notes); err != nil {
		return err
	}

	appt.Status = string(lifecycle.StatusApproved)
	s.publishEvent(events.EventAppointmentConfirmed, appt, session, "")
	s.enqueueUpsert(ctx, appt)
	return nil
}

func (s *AppointmentService) Reject(ctx context.Context, session *models.Session, id, reason string) error {
	if err := validReason(reason); err != nil {
		return err
	}
	ctx, err := authed(ctx, session)
	if err != nil {
		return err
	}

	appt, err := s.requireAction(ctx, session, id, lifecycle.ActionReject)
	if err != nil {
		return err
	}

	if err := s.api.RejectAppointment(ctx, id, reason); err != nil {
		return err
	}

	appt.Status = string(lifecycle.StatusRejected)
	s.publishEvent(events.EventAppointmentRejected, appt, session, reason)
	s.enqueueCancel(ctx, appt.ID)
	return nil
}

func (s *AppointmentService) Cancel(ctx context.Context, session *models.Session, id, reason string) error {
	if err := validReason(reason); err != nil {
		return err
	}
	ctx, err := authed(ctx, session)
	if err != nil {
		return err
	}

	appt, err := s.requireAction(ctx, session, id, lifecycle.ActionCancel)
	if err != nil {
		return err
	}

	if err := s.api.CancelAppointment(ctx, id, reason); err != nil {
		return err
	}

	appt.Status = string(lifecycle.StatusCancelled)
	s.publishEvent(events.EventAppointmentCancelled, appt, session, reason)
	s.enqueueCancel(ctx, appt.ID)
	return nil
}

func (s *AppointmentService) Reschedule(ctx context.Context, session *models.Session, id string, window models.ScheduleWindow) error {
	notice := time.Duration(models.MinRescheduleNoticeDays) * 24 * time.Hour
	if window.StartTime.Before(s.now().Add(notice)) {
		return ErrRescheduleTooSoon
	}
	ctx, err := authed(ctx, session)
	if err != nil {
		return err
	}

	appt, err := s.requireAction(ctx, session, id, lifecycle.ActionReschedule)
	if err != nil {
		return err
	}

	if err := s.api.RescheduleAppointment(ctx, id, window); err != nil {
		return err
	}

	appt.ScheduleWindow = window
	s.publishEvent(events.EventAppointmentRescheduled, appt, session, "")
	s.enqueueUpsert(ctx, appt)
	return nil
}

func (s *AppointmentService) Complete(ctx context.Context, session *models.Session, id string) error {
	ctx, err := authed(ctx, session)
	if err != nil {
		return err
	}

	appt, err := s.requireAction(ctx, session, id, lifecycle.ActionComplete)
	if err != nil {
		return err
	}

	if err := s.api.CompleteAppointment(ctx, id); err != nil {
		return err
	}

	appt.Status = string(lifecycle.StatusCompleted)
	s.publishEvent(events.EventAppointmentCompleted, appt, session, "")
	return nil
}

func (s *AppointmentService) AddNotes(ctx context.Context, session *models.Session, id, notes string) error {
	ctx, err := authed(ctx, session)
	if err != nil {
		return err
	}

	if _, err := s.requireAction(ctx, session, id, lifecycle.ActionAddNotes); err != nil {
		return err
	}

	return s.api.AddNotes(ctx, id, notes)
}

func (s *AppointmentService) Book(ctx context.Context, session *models.Session, scheduleID, notes string) (*models.Appointment, error) {
	if strings.TrimSpace(scheduleID) == "" {
		return nil, ErrMissingSchedule
	}
	ctx, err := authed(ctx, session)
	if err != nil {
		return nil, err
	}

	appt, err := s.api.BookSchedule(ctx, scheduleID, notes)
	if err != nil {
		return nil, err
	}

	s.publishEvent(events.EventAppointmentBooked, appt, session, "")
	return appt, nil
}

func (s *AppointmentService) publishEvent(eventType string, appt *models.Appointment, session *models.Session, reason string) {
	if s.eventBus == nil || appt == nil {
		return
	}

	payload := events.AppointmentEventPayload{
		AppointmentID:  appt.ID,
		ClientID:       appt.ClientID,
		ClientName:     appt.ClientName,
		ConsultantID:   appt.ConsultantID,
		ConsultantName: appt.ConsultantName,
		Status:         appt.Status,
		StartTime:      appt.ScheduleWindow.StartTime,
		EndTime:        appt.ScheduleWindow.EndTime,
		Reason:         reason,
		ChangedBy:      session.User.ID,
		ChangedByChat:  session.TelegramID,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("appointment_id", appt.ID).Msg("publish event error")
	}
}

func (s *AppointmentService) enqueueUpsert(ctx context.Context, appt *models.Appointment) {
	if s.syncWorker == nil {
		return
	}
	if err := s.syncWorker.EnqueueUpsert(ctx, appt); err != nil {
		s.logger.Error().Err(err).Str("appointment_id", appt.ID).Msg("calendar enqueue error")
	}
}

func (s *AppointmentService) enqueueCancel(ctx context.Context, appointmentID string) {
	if s.syncWorker == nil {
		return
	}
	if err := s.syncWorker.EnqueueCancel(ctx, appointmentID); err != nil {
		s.logger.Error().Err(err).Str("appointment_id", appointmentID).Msg("calendar enqueue error")
	}
}
