package google

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"consultly/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// CalendarService mirrors appointments into a Google Calendar owned by
// the service account. Event IDs are derived from the appointment ID so
// upserts and cancellations stay idempotent.
type CalendarService struct {
	service    *calendar.Service
	calendarID string
}

func NewCalendarService(credentialsFile, calendarID string) (*CalendarService, error) {
	ctx := context.Background()

	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %v", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %v", err)
	}

	client := config.Client(ctx)

	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar service: %v", err)
	}

	return &CalendarService{
		service:    srv,
		calendarID: calendarID,
	}, nil
}

// GetServiceAccountEmail returns the service account email, for sharing
// the calendar with it during setup.
func GetServiceAccountEmail(credentialsFile string) (string, error) {
	file, err := os.ReadFile(credentialsFile)
	if err != nil {
		return "", err
	}

	var creds struct {
		ClientEmail string `json:"client_email"`
	}

	if err := json.Unmarshal(file, &creds); err != nil {
		return "", err
	}

	return creds.ClientEmail, nil
}

// TestConnection verifies the calendar is reachable and shared.
func (s *CalendarService) TestConnection(ctx context.Context) error {
	_, err := s.service.Calendars.Get(s.calendarID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %v", err)
	}
	return nil
}

// eventID maps an appointment ID onto the calendar's base32hex ID space.
func eventID(appointmentID string) string {
	sum := sha1.Sum([]byte(appointmentID))
	return "appt" + hex.EncodeToString(sum[:])
}

func (s *CalendarService) UpsertAppointment(ctx context.Context, appt *models.Appointment) error {
	if appt == nil {
		return fmt.Errorf("appointment is nil")
	}

	event := s.buildEvent(appt)

	_, err := s.service.Events.Get(s.calendarID, event.Id).Context(ctx).Do()
	if isNotFound(err) {
		_, err = s.service.Events.Insert(s.calendarID, event).Context(ctx).Do()
		return err
	}
	if err != nil {
		return err
	}

	_, err = s.service.Events.Update(s.calendarID, event.Id, event).Context(ctx).Do()
	return err
}

func (s *CalendarService) CancelAppointment(ctx context.Context, appointmentID string) error {
	if appointmentID == "" {
		return fmt.Errorf("appointment id is required")
	}

	err := s.service.Events.Delete(s.calendarID, eventID(appointmentID)).Context(ctx).Do()
	if isNotFound(err) {
		// Already gone; nothing to do.
		return nil
	}
	return err
}

func (s *CalendarService) buildEvent(appt *models.Appointment) *calendar.Event {
	summary := "Tư vấn"
	if appt.ConsultantName != "" && appt.ClientName != "" {
		summary = fmt.Sprintf("Tư vấn: %s — %s", appt.ConsultantName, appt.ClientName)
	}

	description := fmt.Sprintf("Mã lịch hẹn: %s", appt.ID)
	if appt.Notes != "" {
		description += "\nGhi chú: " + appt.Notes
	}
	if appt.MeetingLink != "" {
		description += "\nPhòng họp: " + appt.MeetingLink
	}

	return &calendar.Event{
		Id:          eventID(appt.ID),
		Summary:     summary,
		Description: description,
		Start: &calendar.EventDateTime{
			DateTime: appt.ScheduleWindow.StartTime.Format(time.RFC3339),
		},
		End: &calendar.EventDateTime{
			DateTime: appt.ScheduleWindow.EndTime.Format(time.RFC3339),
		},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				"appointment_id": appt.ID,
				"status":         appt.Status,
			},
		},
	}
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	if apiErr, ok := err.(*googleapi.Error); ok {
		return apiErr.Code == 404 || apiErr.Code == 410
	}
	return false
}
