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

// ListSchedules fetches consultant slots in a date range. Cached behind
// Redis when configured, since slot browsing is the hottest read path.
func (c *Client) ListSchedules(ctx context.Context, consultantID string, from, to time.Time) ([]models.Schedule, error) {
	v := url.Values{}
	v.Set("consultantId", consultantID)
	v.Set("from", from.Format(time.RFC3339))
	v.Set("to", to.Format(time.RFC3339))
	endpoint := fmt.Sprintf("%s/api/schedules?%s", c.baseURL, v.Encode())
	cacheKey := "schedules:" + v.Encode()

	var schedules []models.Schedule
	if c.readCache(ctx, cacheKey, &schedules) {
		return schedules, nil
	}

	if err := c.doGet(ctx, endpoint, &schedules); err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKey, schedules)
	return schedules, nil
}

// CreateSchedule publishes a new bookable slot (consultant side).
func (c *Client) CreateSchedule(ctx context.Context, window models.ScheduleWindow) (*models.Schedule, error) {
	endpoint := fmt.Sprintf("%s/api/schedules", c.baseURL)

	var schedule models.Schedule
	if err := c.doJSON(ctx, http.MethodPost, endpoint, window, &schedule); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// ListConsultants fetches a page of consultant profiles.
func (c *Client) ListConsultants(ctx context.Context, pageNumber, pageSize int) ([]models.Consultant, error) {
	v := url.Values{}
	if pageNumber > 0 {
		v.Set("pageNumber", strconv.Itoa(pageNumber))
	}
	if pageSize > 0 {
		v.Set("pageSize", strconv.Itoa(pageSize))
	}
	endpoint := fmt.Sprintf("%s/api/consultants", c.baseURL)
	if qs := v.Encode(); qs != "" {
		endpoint += "?" + qs
	}
	cacheKey := "consultants:" + v.Encode()

	var consultants []models.Consultant
	if c.readCache(ctx, cacheKey, &consultants) {
		return consultants, nil
	}

	if err := c.doGet(ctx, endpoint, &consultants); err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKey, consultants)
	return consultants, nil
}

// LoginResult is the auth endpoint's data payload.
type LoginResult struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a backend JWT.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	endpoint := fmt.Sprintf("%s/api/auth/login", c.baseURL)
	payload := map[string]string{"email": email, "password": password}

	var result LoginResult
	if err := c.doJSON(ctx, http.MethodPost, endpoint, payload, &result); err != nil {
		return "", err
	}
	return result.Token, nil
}
