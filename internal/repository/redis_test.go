package repository

import (
	"context"
	"testing"
	"time"

	"consultly/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStateRepository(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	defer client.Close()

	repo := NewRedisStateRepository(client, time.Hour)
	ctx := context.Background()

	t.Run("SetAndGetState", func(t *testing.T) {
		state := &models.UserState{
			UserID:      123,
			CurrentStep: models.StateCancelReason,
			TempData:    map[string]interface{}{"appointment_id": "apt-1"},
		}

		err := repo.SetState(ctx, state)
		require.NoError(t, err)

		got, err := repo.GetState(ctx, 123)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, state.UserID, got.UserID)
		assert.Equal(t, state.CurrentStep, got.CurrentStep)
		assert.Equal(t, "apt-1", got.GetString("appointment_id"))
	})

	t.Run("GetNonExistentState", func(t *testing.T) {
		got, err := repo.GetState(ctx, 999)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ClearState", func(t *testing.T) {
		state := &models.UserState{UserID: 456, CurrentStep: models.StateMainMenu}
		repo.SetState(ctx, state)

		err := repo.ClearState(ctx, 456)
		require.NoError(t, err)

		got, _ := repo.GetState(ctx, 456)
		assert.Nil(t, got)
	})

	t.Run("SetAndGetSession", func(t *testing.T) {
		session := &models.Session{
			TelegramID: 777,
			Token:      "jwt-token",
			User:       models.User{ID: "u-1", Role: models.RoleClient, FullName: "An Nguyen"},
			ExpiresAt:  time.Now().Add(time.Hour),
		}

		require.NoError(t, repo.SetSession(ctx, session))

		got, err := repo.GetSession(ctx, 777)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "jwt-token", got.Token)
		assert.Equal(t, "u-1", got.User.ID)
	})

	t.Run("SessionTTLBoundedByExpiry", func(t *testing.T) {
		session := &models.Session{
			TelegramID: 778,
			Token:      "short",
			ExpiresAt:  time.Now().Add(time.Minute),
		}
		require.NoError(t, repo.SetSession(ctx, session))

		s.FastForward(2 * time.Minute)

		got, err := repo.GetSession(ctx, 778)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ClearSession", func(t *testing.T) {
		session := &models.Session{TelegramID: 779, Token: "x"}
		require.NoError(t, repo.SetSession(ctx, session))
		require.NoError(t, repo.ClearSession(ctx, 779))

		got, _ := repo.GetSession(ctx, 779)
		assert.Nil(t, got)
	})

	t.Run("ListSessions", func(t *testing.T) {
		for _, id := range []int64{801, 802} {
			require.NoError(t, repo.SetSession(ctx, &models.Session{
				TelegramID: id,
				Token:      "tok",
				ExpiresAt:  time.Now().Add(time.Hour),
			}))
		}

		sessions, err := repo.ListSessions(ctx)
		require.NoError(t, err)

		found := map[int64]bool{}
		for _, s := range sessions {
			found[s.TelegramID] = true
		}
		assert.True(t, found[801])
		assert.True(t, found[802])
	})

	t.Run("RateLimit", func(t *testing.T) {
		userID := int64(789)
		limit := 2
		window := time.Second

		allowed, err := repo.CheckRateLimit(ctx, userID, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, userID, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, userID, limit, window)
		require.NoError(t, err)
		assert.False(t, allowed)

		s.FastForward(window + time.Millisecond)

		allowed, err = repo.CheckRateLimit(ctx, userID, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("NilClient", func(t *testing.T) {
		repo := NewRedisStateRepository(nil, time.Hour)
		_, err := repo.GetState(ctx, 123)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "redis client is nil")

		_, err = repo.GetSession(ctx, 123)
		assert.Error(t, err)
	})

	t.Run("Ping", func(t *testing.T) {
		err := Ping(ctx, client)
		assert.NoError(t, err)
	})

	t.Run("Close", func(t *testing.T) {
		err := Close(client)
		assert.NoError(t, err)
	})
}
