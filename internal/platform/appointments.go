package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"consultly/internal/models"
)

const (
	forConfirm        = "ConfirmAppointment"
	forReject         = "RejectAppointment"
	forRejectFallback = "rejectAppointment"
)

func queryValues(q models.AppointmentQuery) url.Values {
	v := url.Values{}
	if q.PageNumber > 0 {
		v.Set("pageNumber", strconv.Itoa(q.PageNumber))
	}
	if q.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.ClientID != "" {
		v.Set("clientId", q.ClientID)
	}
	if q.ConsultantID != "" {
		v.Set("consultantId", q.ConsultantID)
	}
	return v
}

// ListAppointments fetches appointments matching the query.
func (c *Client) ListAppointments(ctx context.Context, query models.AppointmentQuery) ([]models.Appointment, error) {
	endpoint := fmt.Sprintf("%s/api/appointments", c.baseURL)
	if qs := queryValues(query).Encode(); qs != "" {
		endpoint += "?" + qs
	}

	var appointments []models.Appointment
	if err := c.doGet(ctx, endpoint, &appointments); err != nil {
		return nil, err
	}
	return appointments, nil
}

// MyAppointments fetches the authenticated user's appointments. Some
// deployments restrict the endpoint to POST, so a failed GET falls back to
// POST with an empty body.
func (c *Client) MyAppointments(ctx context.Context) ([]models.Appointment, error) {
	endpoint := fmt.Sprintf("%s/api/appointments/my-appointments", c.baseURL)

	var appointments []models.Appointment
	err := c.doGet(ctx, endpoint, &appointments)
	if err == nil {
		return appointments, nil
	}

	if c.logger != nil {
		c.logger.Warn().Err(err).Msg("my-appointments GET failed, retrying as POST")
	}

	appointments = nil
	if err := c.doJSON(ctx, http.MethodPost, endpoint, nil, &appointments); err != nil {
		return nil, err
	}
	return appointments, nil
}

// GetAppointment fetches a single appointment by id.
func (c *Client) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	endpoint := fmt.Sprintf("%s/api/appointments/%s", c.baseURL, url.PathEscape(id))

	var appointment models.Appointment
	if err := c.doGet(ctx, endpoint, &appointment); err != nil {
		return nil, err
	}
	return &appointment, nil
}

// ConfirmAppointment accepts a pending request, optionally attaching notes.
func (c *Client) ConfirmAppointment(ctx context.Context, id, notes string) error {
	endpoint := fmt.Sprintf("%s/api/appointments/%s/status", c.baseURL, url.PathEscape(id))
	payload := models.StatusUpdateRequest{For: forConfirm, Notes: notes}
	return c.doJSON(ctx, http.MethodPut, endpoint, payload, nil)
}

// RejectAppointment declines a pending request. The primary payload shape
// is {for: "RejectAppointment", notes}; some deployments only accept
// {for: "rejectAppointment", reason} and answer 400 to the primary shape,
// so that one retry is attempted. The dual shape is a known backend
// inconsistency, kept until the contract is settled server-side.
func (c *Client) RejectAppointment(ctx context.Context, id, reason string) error {
	endpoint := fmt.Sprintf("%s/api/appointments/%s/status", c.baseURL, url.PathEscape(id))

	primary := models.StatusUpdateRequest{For: forReject, Notes: reason}
	err := c.doJSON(ctx, http.MethodPut, endpoint, primary, nil)
	if err == nil || !IsBadRequest(err) {
		return err
	}

	if c.logger != nil {
		c.logger.Warn().Str("appointment_id", id).Msg("reject payload rejected with 400, retrying fallback shape")
	}

	fallback := models.RejectFallbackRequest{For: forRejectFallback, Reason: reason}
	return c.doJSON(ctx, http.MethodPut, endpoint, fallback, nil)
}

// CancelAppointment cancels on behalf of either party.
func (c *Client) CancelAppointment(ctx context.Context, id, reason string) error {
	endpoint := fmt.Sprintf("%s/api/appointments/%s/cancel", c.baseURL, url.PathEscape(id))
	payload := map[string]string{"reason": reason}
	return c.doJSON(ctx, http.MethodPut, endpoint, payload, nil)
}

// RescheduleAppointment moves the appointment to a new schedule window.
func (c *Client) RescheduleAppointment(ctx context.Context, id string, window models.ScheduleWindow) error {
	endpoint := fmt.Sprintf("%s/api/appointments/%s/reschedule", c.baseURL, url.PathEscape(id))
	return c.doJSON(ctx, http.MethodPut, endpoint, window, nil)
}

// CompleteAppointment marks a past approved session as completed.
func (c *Client) CompleteAppointment(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("%s/api/appointments/%s/complete", c.baseURL, url.PathEscape(id))
	return c.doJSON(ctx, http.MethodPut, endpoint, nil, nil)
}

// AddNotes attaches consultant notes to an appointment.
func (c *Client) AddNotes(ctx context.Context, id, notes string) error {
	endpoint := fmt.Sprintf("%s/api/appointments/%s/notes", c.baseURL, url.PathEscape(id))
	payload := map[string]string{"notes": notes}
	return c.doJSON(ctx, http.MethodPut, endpoint, payload, nil)
}

// BookSchedule books a free consultant slot for the authenticated client.
func (c *Client) BookSchedule(ctx context.Context, scheduleID, notes string) (*models.Appointment, error) {
	endpoint := fmt.Sprintf("%s/api/appointments", c.baseURL)
	payload := map[string]string{"scheduleId": scheduleID, "notes": notes}

	var appointment models.Appointment
	if err := c.doJSON(ctx, http.MethodPost, endpoint, payload, &appointment); err != nil {
		return nil, err
	}
	return &appointment, nil
}

// cacheKeyAppointments is used by views that tolerate slightly stale lists.
func cacheKeyAppointments(query models.AppointmentQuery) string {
	return "appointments:" + queryValues(query).Encode()
}

// ListAppointmentsCached is ListAppointments behind the optional Redis
// cache. Mutating flows must use the uncached variant.
func (c *Client) ListAppointmentsCached(ctx context.Context, query models.AppointmentQuery) ([]models.Appointment, error) {
	key := cacheKeyAppointments(query)

	var appointments []models.Appointment
	if c.readCache(ctx, key, &appointments) {
		return appointments, nil
	}

	appointments, err := c.ListAppointments(ctx, query)
	if err != nil {
		return nil, err
	}
	c.writeCache(ctx, key, appointments)
	return appointments, nil
}

// PaymentDeadline returns the payment due date if present, else zero time.
func PaymentDeadline(appt *models.Appointment) time.Time {
	if appt == nil || appt.PaymentDueDate == nil {
		return time.Time{}
	}
	return *appt.PaymentDueDate
}
