package repository

import (
	"context"
	"sync/atomic"
	"time"

	"consultly/internal/domain"
	"consultly/internal/models"

	"github.com/rs/zerolog"
)

// FailoverStateRepository serves from the primary (Redis) repository and
// falls back to the in-memory one when the primary errors, retrying the
// primary after a cooldown.
type FailoverStateRepository struct {
	primary   domain.StateRepository
	fallback  domain.StateRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverStateRepository(primary, fallback domain.StateRepository, logger *zerolog.Logger) *FailoverStateRepository {
	return &FailoverStateRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverStateRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary state repository failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck = time.Now()
}

func (r *FailoverStateRepository) recovered() bool {
	// Try to recover after 1 minute.
	return r.isDown.Load() && time.Since(r.lastCheck) > time.Minute
}

func (r *FailoverStateRepository) GetState(ctx context.Context, userID int64) (*models.UserState, error) {
	if !r.isDown.Load() {
		state, err := r.primary.GetState(ctx, userID)
		if err == nil {
			return state, nil
		}
		r.markDown(err)
	}

	if r.recovered() {
		state, err := r.primary.GetState(ctx, userID)
		if err == nil {
			r.isDown.Store(false)
			return state, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.GetState(ctx, userID)
}

func (r *FailoverStateRepository) SetState(ctx context.Context, state *models.UserState) error {
	if !r.isDown.Load() {
		err := r.primary.SetState(ctx, state)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SetState(ctx, state)
}

func (r *FailoverStateRepository) ClearState(ctx context.Context, userID int64) error {
	if !r.isDown.Load() {
		err := r.primary.ClearState(ctx, userID)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.ClearState(ctx, userID)
}

func (r *FailoverStateRepository) GetSession(ctx context.Context, telegramID int64) (*models.Session, error) {
	if !r.isDown.Load() {
		session, err := r.primary.GetSession(ctx, telegramID)
		if err == nil {
			return session, nil
		}
		r.markDown(err)
	}

	if r.recovered() {
		session, err := r.primary.GetSession(ctx, telegramID)
		if err == nil {
			r.isDown.Store(false)
			return session, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.GetSession(ctx, telegramID)
}

func (r *FailoverStateRepository) SetSession(ctx context.Context, session *models.Session) error {
	if !r.isDown.Load() {
		err := r.primary.SetSession(ctx, session)
		if err == nil {
			// Mirror into the fallback so an outage mid-session keeps
			// users logged in.
			_ = r.fallback.SetSession(ctx, session)
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SetSession(ctx, session)
}

func (r *FailoverStateRepository) ClearSession(ctx context.Context, telegramID int64) error {
	var primaryErr error
	if !r.isDown.Load() {
		primaryErr = r.primary.ClearSession(ctx, telegramID)
		if primaryErr != nil {
			r.markDown(primaryErr)
		}
	}

	return r.fallback.ClearSession(ctx, telegramID)
}

func (r *FailoverStateRepository) ListSessions(ctx context.Context) ([]models.Session, error) {
	if !r.isDown.Load() {
		sessions, err := r.primary.ListSessions(ctx)
		if err == nil {
			return sessions, nil
		}
		r.markDown(err)
	}

	return r.fallback.ListSessions(ctx)
}

func (r *FailoverStateRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, userID, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.markDown(err)
	}

	return r.fallback.CheckRateLimit(ctx, userID, limit, window)
}
