package service

import (
	"context"
	"fmt"

	"github.com/ShadowCodeSoftware/E-sante/internal/domain"
	"github.com/ShadowCodeSoftware/E-sante/internal/storage"
)

// SessionStore is the single accessor for the logged-in user. It keeps
// the session token under userToken and the user profile under currentUser.
type SessionStore struct {
	store *storage.Store
}

// NewSessionStore creates a session store over store
func NewSessionStore(store *storage.Store) *SessionStore {
	return &SessionStore{store: store}
}

// Save records token and profile as the active session
func (s *SessionStore) Save(ctx context.Context, token string, profile domain.Profile) error {
	if err := s.store.Set(ctx, domain.KeyUserToken, token); err != nil {
		return fmt.Errorf("failed to save session token: %w", err)
	}
	if err := s.store.Set(ctx, domain.KeyCurrentUser, profile); err != nil {
		return fmt.Errorf("failed to save current user: %w", err)
	}
	return nil
}

// Current returns the profile of the active session
func (s *SessionStore) Current(ctx context.Context) (*domain.Profile, error) {
	var profile domain.Profile
	found, err := s.store.Get(ctx, domain.KeyCurrentUser, &profile)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrNoSession
	}
	return &profile, nil
}

// Token returns the token of the active session
func (s *SessionStore) Token(ctx context.Context) (string, error) {
	var token string
	found, err := s.store.Get(ctx, domain.KeyUserToken, &token)
	if err != nil {
		return "", err
	}
	if !found || token == "" {
		return "", domain.ErrNoSession
	}
	return token, nil
}

// Refresh rewrites currentUser when profile belongs to the active session
func (s *SessionStore) Refresh(ctx context.Context, profile domain.Profile) error {
	current, err := s.Current(ctx)
	if err != nil {
		return err
	}
	if current.ID != profile.ID {
		return nil
	}
	return s.store.Set(ctx, domain.KeyCurrentUser, profile)
}

// Clear ends the active session
func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.store.Remove(ctx, domain.KeyUserToken); err != nil {
		return fmt.Errorf("failed to remove session token: %w", err)
	}
	if err := s.store.Remove(ctx, domain.KeyCurrentUser); err != nil {
		return fmt.Errorf("failed to remove current user: %w", err)
	}
	return nil
}
