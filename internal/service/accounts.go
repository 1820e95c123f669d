package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/emilythestrangee/insight/backend/internal/models"
	"github.com/emilythestrangee/insight/backend/internal/store"
)

// Register creates an account and signs the user in.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, ErrInvalidUsername
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &models.User{
		Username: username,
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: string(hash),
		Avatar:   req.Avatar,
	}

	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}

	log.WithField("user_id", u.ID).WithField("username", u.Username).Info("user registered")

	u.Achievements = []*models.Achievement{}
	return &models.AuthResponse{Token: token, User: u, Message: "User registered successfully"}, nil
}

// Login checks the password and issues a token.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	u, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}

	if err := s.withAchievements(ctx, u); err != nil {
		return nil, err
	}

	return &models.AuthResponse{Token: token, User: u, Message: "Login successful"}, nil
}

// Me returns the acting user.
func (s *Service) Me(ctx context.Context, actorID int64) (*models.User, error) {
	u, err := s.resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}

	if err := s.withAchievements(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

// Profile returns any user with achievements. store.ErrNotFound if unknown.
func (s *Service) Profile(ctx context.Context, userID int64) (*models.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.withAchievements(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

func (s *Service) withAchievements(ctx context.Context, u *models.User) error {
	a, err := s.store.ListAchievements(ctx, u.ID)
	if err != nil {
		return fmt.Errorf("failed to list achievements: %w", err)
	}
	if a == nil {
		a = []*models.Achievement{}
	}
	u.Achievements = a
	return nil
}
