package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consultly/internal/models"
)

func envelope(t *testing.T, w http.ResponseWriter, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	env := models.Envelope{Code: 200, Message: "OK", IsSuccess: true, Data: raw}
	require.NoError(t, json.NewEncoder(w).Encode(env))
}

func failEnvelope(t *testing.T, w http.ResponseWriter, status int, message string) {
	t.Helper()
	w.WriteHeader(status)
	env := models.Envelope{Code: status, Message: message, IsSuccess: false}
	require.NoError(t, json.NewEncoder(w).Encode(env))
}

func newTestClient(baseURL string) *Client {
	return NewClient(baseURL, 5*time.Second, 1000, 1000, nil)
}

func TestListAppointments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/appointments", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("pageNumber"))
		assert.Equal(t, "10", r.URL.Query().Get("pageSize"))
		assert.Equal(t, "Pending", r.URL.Query().Get("status"))
		assert.NotEmpty(t, r.Header.Get("x-request-id"))

		envelope(t, w, []models.Appointment{{ID: "apt-1", Status: "pending"}})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	appointments, err := client.ListAppointments(context.Background(), models.AppointmentQuery{
		PageNumber: 2,
		PageSize:   10,
		Status:     "Pending",
	})
	require.NoError(t, err)
	require.Len(t, appointments, 1)
	assert.Equal(t, "apt-1", appointments[0].ID)
}

func TestBearerTokenHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		envelope(t, w, []models.Appointment{})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	ctx := WithToken(context.Background(), "tok-123")
	_, err := client.MyAppointments(ctx)
	require.NoError(t, err)
}

func TestMyAppointmentsFallsBackToPost(t *testing.T) {
	var gets, posts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/appointments/my-appointments", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			gets++
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodPost:
			posts++
			envelope(t, w, []models.Appointment{{ID: "apt-7"}})
		}
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	appointments, err := client.MyAppointments(context.Background())
	require.NoError(t, err)
	require.Len(t, appointments, 1)
	assert.Equal(t, "apt-7", appointments[0].ID)
	assert.Equal(t, 1, gets)
	assert.Equal(t, 1, posts)
}

func TestRejectFallbackShape(t *testing.T) {
	var payloads []map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		payloads = append(payloads, payload)

		if payload["for"] == "RejectAppointment" {
			failEnvelope(t, w, http.StatusBadRequest, "invalid payload")
			return
		}
		envelope(t, w, nil)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	err := client.RejectAppointment(context.Background(), "apt-1", "not available")
	require.NoError(t, err)

	require.Len(t, payloads, 2)
	assert.Equal(t, "RejectAppointment", payloads[0]["for"])
	assert.Equal(t, "not available", payloads[0]["notes"])
	assert.Equal(t, "rejectAppointment", payloads[1]["for"])
	assert.Equal(t, "not available", payloads[1]["reason"])
}

func TestRejectNoFallbackOnOtherErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		failEnvelope(t, w, http.StatusInternalServerError, "boom")
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	err := client.RejectAppointment(context.Background(), "apt-1", "not available")
	require.Error(t, err)
	assert.Equal(t, 1, calls, "only 400 triggers the fallback shape")
}

func TestEnvelopeFailureBecomesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 200 with isSuccess=false still fails.
		env := models.Envelope{Code: 1022, Message: "Không thể cập nhật trạng thái", IsSuccess: false}
		require.NoError(t, json.NewEncoder(w).Encode(env))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	err := client.CompleteAppointment(context.Background(), "apt-1")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 1022, apiErr.Code)
	assert.Equal(t, "Không thể cập nhật trạng thái", apiErr.Message)
}

func TestIsBadRequest(t *testing.T) {
	assert.True(t, IsBadRequest(&APIError{StatusCode: http.StatusBadRequest}))
	assert.False(t, IsBadRequest(&APIError{StatusCode: http.StatusInternalServerError}))
	assert.False(t, IsBadRequest(fmt.Errorf("plain error")))
	assert.True(t, IsBadRequest(fmt.Errorf("wrapped: %w", &APIError{StatusCode: 400})))
}

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "user@example.com", payload["email"])
		envelope(t, w, LoginResult{Token: "jwt-token"})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	token, err := client.Login(context.Background(), "user@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", token)
}

func TestListConsultantsCached(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer redisClient.Close()

	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		envelope(t, w, []models.Consultant{{ID: "cons-1", FullName: "Dr. Minh"}})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	client.UseRedisCache(redisClient, time.Minute)

	ctx := context.Background()
	first, err := client.ListConsultants(ctx, 1, 10)
	require.NoError(t, err)
	second, err := client.ListConsultants(ctx, 1, 10)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, hits, "second call must come from cache")
}

func TestGetAppointment(t *testing.T) {
	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/appointments/apt-9", r.URL.Path)
		envelope(t, w, models.Appointment{
			ID:     "apt-9",
			Status: "Approved",
			ScheduleWindow: models.ScheduleWindow{
				StartTime: start,
				EndTime:   start.Add(time.Hour),
			},
			MeetingLink: "https://meet.example.com/xyz",
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	appt, err := client.GetAppointment(context.Background(), "apt-9")
	require.NoError(t, err)
	assert.Equal(t, "apt-9", appt.ID)
	assert.True(t, appt.ScheduleWindow.StartTime.Equal(start))
	assert.Equal(t, "https://meet.example.com/xyz", appt.MeetingLink)
}
