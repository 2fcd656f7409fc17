package service

import (
	"context"
	"time"

	"consultly/internal/domain"
	"consultly/internal/models"
	"consultly/internal/platform"

	"github.com/rs/zerolog"
)

// DirectoryService exposes the consultant catalog and free slots.
// Listings go through the cached client paths; publishing a slot
// requires a consultant session.
type DirectoryService struct {
	api    domain.BookingAPI
	logger *zerolog.Logger
}

func NewDirectoryService(api domain.BookingAPI, logger *zerolog.Logger) *DirectoryService {
	return &DirectoryService{
		api:    api,
		logger: logger,
	}
}

func (s *DirectoryService) Consultants(ctx context.Context, pageNumber, pageSize int) ([]models.Consultant, error) {
	if pageSize <= 0 {
		pageSize = models.DefaultPaginationSize
	}
	if pageNumber <= 0 {
		pageNumber = 1
	}
	return s.api.ListConsultants(ctx, pageNumber, pageSize)
}

func (s *DirectoryService) FreeSlots(ctx context.Context, consultantID string, from, to time.Time) ([]models.Schedule, error) {
	schedules, err := s.api.ListSchedules(ctx, consultantID, from, to)
	if err != nil {
		return nil, err
	}

	free := make([]models.Schedule, 0, len(schedules))
	for _, sch := range schedules {
		if !sch.IsBooked {
			free = append(free, sch)
		}
	}
	return free, nil
}

func (s *DirectoryService) PublishSlot(ctx context.Context, session *models.Session, window models.ScheduleWindow) (*models.Schedule, error) {
	if session == nil || session.Token == "" {
		return nil, ErrNotLoggedIn
	}
	if session.User.Role != models.RoleConsultant && session.User.Role != models.RoleAdmin {
		return nil, ErrActionNotAllowed
	}

	ctx = platform.WithToken(ctx, session.Token)
	schedule, err := s.api.CreateSchedule(ctx, window)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("consultant_id", session.User.ID).
		Time("start", window.StartTime).
		Msg("Slot published")

	return schedule, nil
}
