package service

import (
	"context"
	"testing"
	"time"

	"consultly/internal/events"
	"consultly/internal/lifecycle"
	"consultly/internal/models"
	"consultly/internal/platform"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBookingAPI struct {
	appointment *models.Appointment
	booked      *models.Appointment

	calls     []string
	lastToken string
	lastQuery models.AppointmentQuery
	err       error
}

func (f *fakeBookingAPI) record(ctx context.Context, call string) {
	f.calls = append(f.calls, call)
	if token, ok := platform.TokenFromContext(ctx); ok {
		f.lastToken = token
	}
}

func (f *fakeBookingAPI) ListAppointments(ctx context.Context, query models.AppointmentQuery) ([]models.Appointment, error) {
	f.record(ctx, "list")
	return nil, f.err
}

func (f *fakeBookingAPI) ListAppointmentsCached(ctx context.Context, query models.AppointmentQuery) ([]models.Appointment, error) {
	f.record(ctx, "list_cached")
	f.lastQuery = query
	if f.appointment == nil {
		return nil, f.err
	}
	return []models.Appointment{*f.appointment}, f.err
}

func (f *fakeBookingAPI) MyAppointments(ctx context.Context) ([]models.Appointment, error) {
	f.record(ctx, "my")
	if f.appointment == nil {
		return nil, f.err
	}
	return []models.Appointment{*f.appointment}, f.err
}

func (f *fakeBookingAPI) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	f.record(ctx, "get")
	return f.appointment, f.err
}

func (f *fakeBookingAPI) ConfirmAppointment(ctx context.Context, id, notes string) error {
	f.record(ctx, "confirm")
	return f.err
}

func (f *fakeBookingAPI) RejectAppointment(ctx context.Context, id, reason string) error {
	f.record(ctx, "reject")
	return f.err
}

func (f *fakeBookingAPI) CancelAppointment(ctx context.Context, id, reason string) error {
	f.record(ctx, "cancel")
	return f.err
}

func (f *fakeBookingAPI) RescheduleAppointment(ctx context.Context, id string, window models.ScheduleWindow) error {
	f.record(ctx, "reschedule")
	return f.err
}

func (f *fakeBookingAPI) CompleteAppointment(ctx context.Context, id string) error {
	f.record(ctx, "complete")
	return f.err
}

func (f *fakeBookingAPI) AddNotes(ctx context.Context, id, notes string) error {
	f.record(ctx, "notes")
	return f.err
}

func (f *fakeBookingAPI) BookSchedule(ctx context.Context, scheduleID, notes string) (*models.Appointment, error) {
	f.record(ctx, "book")
	return f.booked, f.err
}

func (f *fakeBookingAPI) ListSchedules(ctx context.Context, consultantID string, from, to time.Time) ([]models.Schedule, error) {
	f.record(ctx, "schedules")
	return nil, f.err
}

func (f *fakeBookingAPI) CreateSchedule(ctx context.Context, window models.ScheduleWindow) (*models.Schedule, error) {
	f.record(ctx, "create_schedule")
	return &models.Schedule{ID: "sch-1", Window: window}, f.err
}

func (f *fakeBookingAPI) ListConsultants(ctx context.Context, pageNumber, pageSize int) ([]models.Consultant, error) {
	f.record(ctx, "consultants")
	return nil, f.err
}

func (f *fakeBookingAPI) Login(ctx context.Context, email, password string) (string, error) {
	f.record(ctx, "login")
	return "", f.err
}

type fakeSyncWorker struct {
	upserts []string
	cancels []string
}

func (f *fakeSyncWorker) EnqueueUpsert(ctx context.Context, appt *models.Appointment) error {
	f.upserts = append(f.upserts, appt.ID)
	return nil
}

func (f *fakeSyncWorker) EnqueueCancel(ctx context.Context, appointmentID string) error {
	f.cancels = append(f.cancels, appointmentID)
	return nil
}

func pendingAppointment(start time.Time) *models.Appointment {
	return &models.Appointment{
		ID:            "apt-1",
		Status:        "pending",
		PaymentStatus: "unpaid",
		ClientID:      "client-1",
		ConsultantID:  "consultant-1",
		ScheduleWindow: models.ScheduleWindow{
			StartTime: start,
			EndTime:   start.Add(time.Hour),
		},
	}
}

func consultantSession() *models.Session {
	return &models.Session{
		TelegramID: 10,
		Token:      "consultant-token",
		User:       models.User{ID: "consultant-1", Role: models.RoleConsultant},
		ExpiresAt:  time.Now().Add(time.Hour),
	}
}

func clientSession() *models.Session {
	return &models.Session{
		TelegramID: 20,
		Token:      "client-token",
		User:       models.User{ID: "client-1", Role: models.RoleClient},
		ExpiresAt:  time.Now().Add(time.Hour),
	}
}

func newServiceForTest(api *fakeBookingAPI) (*AppointmentService, *events.EventBus, *fakeSyncWorker) {
	bus := events.NewEventBus()
	worker := &fakeSyncWorker{}
	logger := zerolog.Nop()
	return NewAppointmentService(api, bus, worker, &logger), bus, worker
}

func TestUpcomingAppointments(t *testing.T) {
	t.Run("consultant queries own schedule through cache", func(t *testing.T) {
		api := &fakeBookingAPI{appointment: pendingAppointment(time.Now().Add(48 * time.Hour))}
		svc, _, _ := newServiceForTest(api)

		appts, err := svc.UpcomingAppointments(context.Background(), consultantSession())
		require.NoError(t, err)
		assert.Len(t, appts, 1)
		assert.Equal(t, []string{"list_cached"}, api.calls)
		assert.Equal(t, "consultant-1", api.lastQuery.ConsultantID)
		assert.Empty(t, api.lastQuery.ClientID)
		assert.Equal(t, "consultant-token", api.lastToken)
	})

	t.Run("client queries own appointments", func(t *testing.T) {
		api := &fakeBookingAPI{}
		svc, _, _ := newServiceForTest(api)

		_, err := svc.UpcomingAppointments(context.Background(), clientSession())
		require.NoError(t, err)
		assert.Equal(t, "client-1", api.lastQuery.ClientID)
		assert.Empty(t, api.lastQuery.ConsultantID)
	})

	t.Run("requires login", func(t *testing.T) {
		api := &fakeBookingAPI{}
		svc, _, _ := newServiceForTest(api)

		_, err := svc.UpcomingAppointments(context.Background(), nil)
		assert.ErrorIs(t, err, ErrNotLoggedIn)
		assert.Empty(t, api.calls)
	})
}

func TestConfirm(t *testing.T) {
	ctx := context.Background()

	t.Run("ConsultantConfirmsPending", func(t *testing.T) {
		api := &fakeBookingAPI{appointment: pendingAppointment(time.Now().Add(48 * time.Hour))}
		svc, bus, worker := newServiceForTest(api)

		var published int
		bus.Subscribe(events.EventAppointmentConfirmed, func(_ *events.Event) error {
			published++
			return nil
		})

		err := svc.Confirm(ctx, consultantSession(), "apt-1", "see you then")
		require.NoError(t, err)
		assert.Contains(t, api.calls, "confirm")
		assert.Equal(t, "consultant-token", api.lastToken)
		assert.Equal(t, 1, published)
		assert.Equal(t, []string{"apt-1"}, worker.upserts)
	})

	t.Run("ClientCannotConfirmOwnRequest", func(t *testing.T) {
		api := &fakeBookingAPI{appointment: pendingAppointment(time.Now().Add(48 * time.Hour))}
		svc, _, _ := newServiceForTest(api)

		err := svc.Confirm(ctx, clientSession(), "apt-1", "")
		assert.ErrorIs(t, err, ErrActionNotAllowed)
		assert.NotContains(t, api.calls, "confirm")
	})

	t.Run("NotLoggedIn", func(t *testing.T) {
		api := &fakeBookingAPI{}
		svc, _, _ := newServiceForTest(api)

		err := svc.Confirm(ctx, nil, "apt-1", "")
		assert.ErrorIs(t, err, ErrNotLoggedIn)
		assert.Empty(t, api.calls)
	})
}

func TestReject(t *testing.T) {
	ctx := context.Background()

	t.Run("ReasonTooShort", func(t *testing.T) {
		api := &fakeBookingAPI{appointment: pendingAppointment(time.Now().Add(48 * time.Hour))}
		svc, _, _ := newServiceForTest(api)

		err := svc.Reject(ctx, consultantSession(), "apt-1", "no")
		assert.ErrorIs(t, err, ErrReasonTooShort)
		assert.Empty(t, api.calls)
	})

	t.Run("WhitespaceDoesNotCount", func(t *testing.T) {
		api := &fakeBookingAPI{appointment: pendingAppointment(time.Now().Add(48 * time.Hour))}
		svc, _, _ := newServiceForTest(api)

		err := svc.Reject(ctx, consultantSession(), "apt-1", "  ab  ")
		assert.ErrorIs(t, err, ErrReasonTooShort)
	})

	t.Run("ConsultantRejectsWithReason", func(t *testing.T) {
		api := &fakeBookingAPI{appointment: pendingAppointment(time.Now().Add(48 * time.Hour))}
		svc, _, worker := newServiceForTest(api)

		err := svc.Reject(ctx, consultantSession(), "apt-1", "lịch trùng với ca khác")
		require.NoError(t, err)
		assert.Contains(t, api.calls, "reject")
		assert.Equal(t, []string{"apt-1"}, worker.cancels)
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("ClientCancelsWithReason", func(t *testing.T) {
		api := &fakeBookingAPI{appointment: pendingAppointment(time.Now().Add(48 * time.Hour))}
		svc, bus, worker := newServiceForTest(api)

		var published int
		bus.Subscribe(events.EventAppointmentCancelled, func(_ *events.Event) error {
			published++
			return nil
		})

		err := svc.Cancel(ctx, clientSession(), "apt-1", "bận việc đột xuất")
		require.NoError(t, err)
		assert.Contains(t, api.calls, "cancel")
		assert.Equal(t, 1, published)
		assert.Equal(t, []string{"apt-1"}, worker.cancels)
	})

	t.Run("CompletedCannotBeCancelled", func(t *testing.T) {
		appt := pendingAppointment(time.Now().Add(-48 * time.Hour))
		appt.Status = "completed"
		api := &fakeBookingAPI{appointment: appt}
		svc, _, _ := newServiceForTest(api)

		err := svc.Cancel(ctx, clientSession(), "apt-1", "bận việc đột xuất")
		assert.ErrorIs(t, err, ErrActionNotAllowed)
		assert.NotContains(t, api.calls, "cancel")
	})
}

func TestReschedule(t *testing.T) {
	ctx := context.Background()

	t.Run("TooSoon", func(t *testing.T) {
		api := &fakeBookingAPI{appointment: pendingAppointment(time.Now().Add(48 * time.Hour))}
		svc, _, _ := newServiceForTest(api)

		window := models.ScheduleWindow{
			StartTime: time.Now().Add(2 * time.Hour),
			EndTime:   time.Now().Add(3 * time.Hour),
		}
		err := svc.Reschedule(ctx, clientSession(), "apt-1", window)
		assert.ErrorIs(t, err, ErrRescheduleTooSoon)
		assert.Empty(t, api.calls)
	})

	t.Run("EnoughNotice", func(t *testing.T) {
		api := &fakeBookingAPI{appointment: pendingAppointment(time.Now().Add(96 * time.Hour))}
		svc, _, worker := newServiceForTest(api)

		window := models.ScheduleWindow{
			StartTime: time.Now().Add(72 * time.Hour),
			EndTime:   time.Now().Add(73 * time.Hour),
		}
		err := svc.Reschedule(ctx, clientSession(), "apt-1", window)
		require.NoError(t, err)
		assert.Contains(t, api.calls, "reschedule")
		assert.Equal(t, []string{"apt-1"}, worker.upserts)
	})
}

func TestComplete(t *testing.T) {
	ctx := context.Background()

	t.Run("AfterSessionStart", func(t *testing.T) {
		appt := pendingAppointment(time.Now().Add(-2 * time.Hour))
		appt.Status = "confirm"
		appt.PaymentStatus = "paid"
		api := &fakeBookingAPI{appointment: appt}
		svc, _, _ := newServiceForTest(api)

		err := svc.Complete(ctx, consultantSession(), "apt-1")
		require.NoError(t, err)
		assert.Contains(t, api.calls, "complete")
	})

	t.Run("BeforeSessionStart", func(t *testing.T) {
		appt := pendingAppointment(time.Now().Add(2 * time.Hour))
		appt.Status = "approved"
		api := &fakeBookingAPI{appointment: appt}
		svc, _, _ := newServiceForTest(api)

		err := svc.Complete(ctx, consultantSession(), "apt-1")
		assert.ErrorIs(t, err, ErrActionNotAllowed)
	})
}

func TestBook(t *testing.T) {
	ctx := context.Background()

	t.Run("MissingSchedule", func(t *testing.T) {
		api := &fakeBookingAPI{}
		svc, _, _ := newServiceForTest(api)

		_, err := svc.Book(ctx, clientSession(), "  ", "")
		assert.ErrorIs(t, err, ErrMissingSchedule)
	})

	t.Run("PublishesBookedEvent", func(t *testing.T) {
		api := &fakeBookingAPI{booked: pendingAppointment(time.Now().Add(48 * time.Hour))}
		svc, bus, _ := newServiceForTest(api)

		var published int
		bus.Subscribe(events.EventAppointmentBooked, func(_ *events.Event) error {
			published++
			return nil
		})

		appt, err := svc.Book(ctx, clientSession(), "sch-1", "lần đầu tư vấn")
		require.NoError(t, err)
		assert.Equal(t, "apt-1", appt.ID)
		assert.Equal(t, 1, published)
	})
}

func TestActions(t *testing.T) {
	api := &fakeBookingAPI{}
	svc, _, _ := newServiceForTest(api)

	appt := pendingAppointment(time.Now().Add(48 * time.Hour))
	session := consultantSession()

	actions := svc.Actions(appt, &session.User, time.Now())
	assert.True(t, actions.Has(lifecycle.ActionConfirm))
	assert.True(t, actions.Has(lifecycle.ActionReject))
	assert.False(t, actions.Has(lifecycle.ActionPay))
}
