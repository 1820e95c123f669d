// Package identity resolves acting users and issues their access tokens.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/emilythestrangee/insight/backend/internal/models"
	"github.com/emilythestrangee/insight/backend/internal/store"
)

//go:generate mockgen -destination=./mock/identity.go -package=mock -source=identity.go

// ErrUnknownUser is returned when the id does not belong to a user.
var ErrUnknownUser = errors.New("unknown user")

// Identity resolves an acting user id to a current user.
type Identity interface {
	Resolve(ctx context.Context, userID int64) (*models.User, error)
}

// UserGetter ...
type UserGetter interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

type storeIdentity struct {
	users UserGetter
}

// New returns an Identity backed by the user store.
func New(users UserGetter) Identity {
	return storeIdentity{users: users}
}

func (i storeIdentity) Resolve(ctx context.Context, userID int64) (*models.User, error) {
	if userID <= 0 {
		return nil, ErrUnknownUser
	}

	u, err := i.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}
