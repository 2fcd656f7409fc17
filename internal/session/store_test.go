package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"consultly/internal/domain"
	"consultly/internal/models"
	"consultly/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoginAPI struct {
	domain.BookingAPI
	token string
	err   error
}

func (f *fakeLoginAPI) Login(ctx context.Context, email, password string) (string, error) {
	return f.token, f.err
}

func newStoreForTest(t *testing.T, api domain.BookingAPI) (*Store, domain.StateRepository) {
	t.Helper()
	repo := repository.NewMemoryStateRepository(time.Hour)
	logger := zerolog.Nop()
	return NewStore(api, repo, &logger), repo
}

func TestStoreLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{
			"sub":  "user-1",
			"role": "Client",
			"exp":  time.Now().Add(time.Hour).Unix(),
		})
		store, repo := newStoreForTest(t, &fakeLoginAPI{token: token})

		session, err := store.Login(ctx, 100, "client@example.com", "secret")
		require.NoError(t, err)
		assert.Equal(t, token, session.Token)
		assert.Equal(t, "user-1", session.User.ID)
		assert.Equal(t, int64(100), session.User.TelegramID)
		assert.Equal(t, "client@example.com", session.User.Email)

		persisted, err := repo.GetSession(ctx, 100)
		require.NoError(t, err)
		require.NotNil(t, persisted)
		assert.Equal(t, "user-1", persisted.User.ID)
	})

	t.Run("BackendRejects", func(t *testing.T) {
		store, _ := newStoreForTest(t, &fakeLoginAPI{err: errors.New("invalid credentials")})

		_, err := store.Login(ctx, 100, "client@example.com", "wrong")
		assert.Error(t, err)
	})

	t.Run("UnreadableToken", func(t *testing.T) {
		store, _ := newStoreForTest(t, &fakeLoginAPI{token: "garbage"})

		_, err := store.Login(ctx, 100, "client@example.com", "secret")
		assert.Error(t, err)
	})
}

func TestStoreCurrent(t *testing.T) {
	ctx := context.Background()

	t.Run("NotLoggedIn", func(t *testing.T) {
		store, _ := newStoreForTest(t, &fakeLoginAPI{})

		session, err := store.Current(ctx, 200)
		require.NoError(t, err)
		assert.Nil(t, session)
	})

	t.Run("ExpiredSessionCleared", func(t *testing.T) {
		store, repo := newStoreForTest(t, &fakeLoginAPI{})
		require.NoError(t, repo.SetSession(ctx, &models.Session{
			TelegramID: 201,
			Token:      "stale",
			ExpiresAt:  time.Now().Add(-time.Minute),
		}))

		session, err := store.Current(ctx, 201)
		require.NoError(t, err)
		assert.Nil(t, session)
	})

	t.Run("Logout", func(t *testing.T) {
		store, repo := newStoreForTest(t, &fakeLoginAPI{})
		require.NoError(t, repo.SetSession(ctx, &models.Session{
			TelegramID: 202,
			Token:      "tok",
			ExpiresAt:  time.Now().Add(time.Hour),
		}))

		require.NoError(t, store.Logout(ctx, 202))

		session, err := store.Current(ctx, 202)
		require.NoError(t, err)
		assert.Nil(t, session)
	})
}
