package repository

import (
	"context"
	"sync"
	"time"

	"consultly/internal/models"
)

type MemoryStateRepository struct {
	states     sync.Map
	sessions   sync.Map
	rateLimits sync.Map
	ttl        time.Duration
}

func NewMemoryStateRepository(ttl time.Duration) *MemoryStateRepository {
	return &MemoryStateRepository{
		ttl: ttl,
	}
}

func (r *MemoryStateRepository) GetState(ctx context.Context, userID int64) (*models.UserState, error) {
	val, ok := r.states.Load(userID)
	if !ok {
		return nil, nil
	}
	return val.(*models.UserState), nil
}

func (r *MemoryStateRepository) SetState(ctx context.Context, state *models.UserState) error {
	r.states.Store(state.UserID, state)
	return nil
}

func (r *MemoryStateRepository) ClearState(ctx context.Context, userID int64) error {
	r.states.Delete(userID)
	return nil
}

func (r *MemoryStateRepository) GetSession(ctx context.Context, telegramID int64) (*models.Session, error) {
	val, ok := r.sessions.Load(telegramID)
	if !ok {
		return nil, nil
	}
	session := val.(*models.Session)
	if session.Expired(time.Now()) {
		r.sessions.Delete(telegramID)
		return nil, nil
	}
	return session, nil
}

func (r *MemoryStateRepository) SetSession(ctx context.Context, session *models.Session) error {
	r.sessions.Store(session.TelegramID, session)
	return nil
}

func (r *MemoryStateRepository) ClearSession(ctx context.Context, telegramID int64) error {
	r.sessions.Delete(telegramID)
	return nil
}

func (r *MemoryStateRepository) ListSessions(ctx context.Context) ([]models.Session, error) {
	var sessions []models.Session
	now := time.Now()
	r.sessions.Range(func(key, val interface{}) bool {
		session := val.(*models.Session)
		if !session.Expired(now) {
			sessions = append(sessions, *session)
		}
		return true
	})
	return sessions, nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryStateRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, ok := r.rateLimits.Load(userID)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(userID, entry)
	return entry.count <= limit, nil
}
