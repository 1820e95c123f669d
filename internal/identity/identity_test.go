package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/emilythestrangee/insight/backend/internal/identity/mock"
	"github.com/emilythestrangee/insight/backend/internal/models"
	"github.com/emilythestrangee/insight/backend/internal/store"
)

func TestResolve(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mock.NewMockUserGetter(ctrl)
	id := New(users)
	ctx := context.Background()

	alice := &models.User{ID: 1, Username: "alice"}
	users.EXPECT().GetUser(ctx, int64(1)).Return(alice, nil)
	users.EXPECT().GetUser(ctx, int64(2)).Return(nil, store.ErrNotFound)
	users.EXPECT().GetUser(ctx, int64(3)).Return(nil, errors.New("connection refused"))

	u, err := id.Resolve(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, alice, u)

	_, err = id.Resolve(ctx, 2)
	require.ErrorIs(t, err, ErrUnknownUser)

	_, err = id.Resolve(ctx, 3)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUnknownUser)

	_, err = id.Resolve(ctx, 0)
	require.ErrorIs(t, err, ErrUnknownUser)
}

func TestTokens(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)

	raw, err := tokens.Issue(&models.User{ID: 42, Username: "alice"})
	require.NoError(t, err)

	userID, err := tokens.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, int64(42), userID)

	_, err = NewTokens("other", time.Hour).Parse(raw)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Parse("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_Expired(t *testing.T) {
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tokens := NewTokens("secret", time.Hour)
	tokens.now = func() time.Time { return issued }

	raw, err := tokens.Issue(&models.User{ID: 1, Username: "alice"})
	require.NoError(t, err)

	tokens.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = tokens.Parse(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_RejectsOtherAlgorithms(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1})
	raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokens("secret", time.Hour).Parse(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}
