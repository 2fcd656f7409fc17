package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"consultly/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyRepository struct {
	*MemoryStateRepository
	failing bool
	calls   int
}

func (r *flakyRepository) GetState(ctx context.Context, userID int64) (*models.UserState, error) {
	r.calls++
	if r.failing {
		return nil, errors.New("connection refused")
	}
	return r.MemoryStateRepository.GetState(ctx, userID)
}

func (r *flakyRepository) SetState(ctx context.Context, state *models.UserState) error {
	r.calls++
	if r.failing {
		return errors.New("connection refused")
	}
	return r.MemoryStateRepository.SetState(ctx, state)
}

func (r *flakyRepository) GetSession(ctx context.Context, telegramID int64) (*models.Session, error) {
	r.calls++
	if r.failing {
		return nil, errors.New("connection refused")
	}
	return r.MemoryStateRepository.GetSession(ctx, telegramID)
}

func (r *flakyRepository) SetSession(ctx context.Context, session *models.Session) error {
	r.calls++
	if r.failing {
		return errors.New("connection refused")
	}
	return r.MemoryStateRepository.SetSession(ctx, session)
}

func newFailoverForTest() (*FailoverStateRepository, *flakyRepository, *MemoryStateRepository) {
	primary := &flakyRepository{MemoryStateRepository: NewMemoryStateRepository(time.Hour)}
	fallback := NewMemoryStateRepository(time.Hour)
	logger := zerolog.Nop()
	return NewFailoverStateRepository(primary, fallback, &logger), primary, fallback
}

func TestFailoverStateRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("UsesPrimaryWhenHealthy", func(t *testing.T) {
		repo, primary, fallback := newFailoverForTest()

		state := &models.UserState{UserID: 1, CurrentStep: models.StateMainMenu}
		require.NoError(t, repo.SetState(ctx, state))

		got, err := repo.GetState(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, models.StateMainMenu, got.CurrentStep)

		fromFallback, _ := fallback.GetState(ctx, 1)
		assert.Nil(t, fromFallback)
		assert.Greater(t, primary.calls, 0)
	})

	t.Run("FallsBackWhenPrimaryFails", func(t *testing.T) {
		repo, primary, fallback := newFailoverForTest()
		primary.failing = true

		state := &models.UserState{UserID: 2, CurrentStep: models.StateCancelReason}
		require.NoError(t, repo.SetState(ctx, state))

		got, err := repo.GetState(ctx, 2)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, models.StateCancelReason, got.CurrentStep)

		fromFallback, _ := fallback.GetState(ctx, 2)
		assert.NotNil(t, fromFallback)
	})

	t.Run("SkipsPrimaryWhileDown", func(t *testing.T) {
		repo, primary, _ := newFailoverForTest()
		primary.failing = true

		repo.SetState(ctx, &models.UserState{UserID: 3})
		callsAfterFirst := primary.calls

		repo.SetState(ctx, &models.UserState{UserID: 3})
		assert.Equal(t, callsAfterFirst, primary.calls)
	})

	t.Run("RecoversAfterCooldown", func(t *testing.T) {
		repo, primary, _ := newFailoverForTest()
		primary.failing = true

		repo.GetState(ctx, 4)
		assert.True(t, repo.isDown.Load())

		primary.failing = false
		repo.lastCheck = time.Now().Add(-2 * time.Minute)

		_, err := repo.GetState(ctx, 4)
		require.NoError(t, err)
		assert.False(t, repo.isDown.Load())
	})

	t.Run("SessionMirroredToFallback", func(t *testing.T) {
		repo, _, fallback := newFailoverForTest()

		session := &models.Session{TelegramID: 5, Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}
		require.NoError(t, repo.SetSession(ctx, session))

		mirrored, err := fallback.GetSession(ctx, 5)
		require.NoError(t, err)
		require.NotNil(t, mirrored)
		assert.Equal(t, "tok", mirrored.Token)
	})

	t.Run("SessionSurvivesPrimaryOutage", func(t *testing.T) {
		repo, primary, _ := newFailoverForTest()

		session := &models.Session{TelegramID: 6, Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}
		require.NoError(t, repo.SetSession(ctx, session))

		primary.failing = true

		got, err := repo.GetSession(ctx, 6)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "tok", got.Token)
	})
}

func TestMemoryStateRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStateRepository(time.Hour)

	t.Run("StateRoundTrip", func(t *testing.T) {
		state := &models.UserState{
			UserID:      10,
			CurrentStep: models.StateBookingNotes,
			TempData:    map[string]interface{}{"schedule_id": "sch-1"},
		}
		require.NoError(t, repo.SetState(ctx, state))

		got, err := repo.GetState(ctx, 10)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "sch-1", got.GetString("schedule_id"))

		require.NoError(t, repo.ClearState(ctx, 10))
		got, _ = repo.GetState(ctx, 10)
		assert.Nil(t, got)
	})

	t.Run("ExpiredSessionDropped", func(t *testing.T) {
		session := &models.Session{
			TelegramID: 11,
			Token:      "stale",
			ExpiresAt:  time.Now().Add(-time.Minute),
		}
		require.NoError(t, repo.SetSession(ctx, session))

		got, err := repo.GetSession(ctx, 11)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("RateLimit", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			allowed, err := repo.CheckRateLimit(ctx, 12, 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, allowed)
		}
		allowed, err := repo.CheckRateLimit(ctx, 12, 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
	})
}
