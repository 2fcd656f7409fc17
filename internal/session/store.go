package session

import (
	"context"
	"fmt"
	"time"

	"consultly/internal/domain"
	"consultly/internal/models"

	"github.com/rs/zerolog"
)

// Store keeps one backend session per Telegram chat, persisted through
// the state repository so logins survive restarts.
type Store struct {
	api    domain.BookingAPI
	repo   domain.StateRepository
	logger *zerolog.Logger
}

func NewStore(api domain.BookingAPI, repo domain.StateRepository, logger *zerolog.Logger) *Store {
	return &Store{
		api:    api,
		repo:   repo,
		logger: logger,
	}
}

// Login authenticates against the backend and caches the resulting
// session keyed by Telegram chat.
func (s *Store) Login(ctx context.Context, telegramID int64, email, password string) (*models.Session, error) {
	token, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	user, expiresAt, err := ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("backend returned an unreadable token: %w", err)
	}
	user.TelegramID = telegramID
	user.LastActive = time.Now()
	if user.Email == "" {
		user.Email = email
	}

	session := &models.Session{
		TelegramID: telegramID,
		Token:      token,
		User:       *user,
		ExpiresAt:  expiresAt,
	}

	if err := s.repo.SetSession(ctx, session); err != nil {
		// Login still succeeded; the user will just have to log in
		// again after a restart.
		s.logger.Warn().Err(err).Int64("telegram_id", telegramID).Msg("Failed to persist session")
	}

	s.logger.Info().
		Int64("telegram_id", telegramID).
		Str("user_id", user.ID).
		Str("role", user.Role).
		Msg("User logged in")

	return session, nil
}

// Current returns the stored session for a chat, or nil when the user
// is not logged in or the token has expired.
func (s *Store) Current(ctx context.Context, telegramID int64) (*models.Session, error) {
	session, err := s.repo.GetSession(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, nil
	}
	if session.Expired(time.Now()) {
		_ = s.repo.ClearSession(ctx, telegramID)
		return nil, nil
	}
	return session, nil
}

// ListAll returns every live session. Used by the reminder loop to
// reach all logged-in chats.
func (s *Store) ListAll(ctx context.Context) ([]models.Session, error) {
	sessions, err := s.repo.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	now := time.Now()
	live := sessions[:0]
	for _, sess := range sessions {
		if !sess.Expired(now) {
			live = append(live, sess)
		}
	}
	return live, nil
}

func (s *Store) Logout(ctx context.Context, telegramID int64) error {
	if err := s.repo.ClearSession(ctx, telegramID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	s.logger.Info().Int64("telegram_id", telegramID).Msg("User logged out")
	return nil
}
