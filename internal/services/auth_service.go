package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"alquitones/internal/domain"
	"alquitones/internal/metrics"
	"alquitones/internal/repos"
)

const DefaultSessionKey = "alquitones:session"

// AuthService tracks the signed-in user under its own storage key,
// independent of the entity store's aggregate.
type AuthService struct {
	Users    *repos.UserRepo
	Sessions repos.Storage
	Key      string
}

func NewAuthService(users *repos.UserRepo, sessions repos.Storage, key string) *AuthService {
	if key == "" {
		key = DefaultSessionKey
	}
	return &AuthService{Users: users, Sessions: sessions, Key: key}
}

// ForSession returns a manager whose session key is namespaced by sid,
// so each browser session has its own current user.
func (s *AuthService) ForSession(sid string) *AuthService {
	return &AuthService{Users: s.Users, Sessions: s.Sessions, Key: fmt.Sprintf("%s:%s", s.Key, sid)}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, error) {
	u, err := s.Users.ByEmail(email)
	if err != nil {
		metrics.Logins.WithLabelValues("invalid").Inc()
		return domain.User{}, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		metrics.Logins.WithLabelValues("invalid").Inc()
		return domain.User{}, domain.ErrInvalidCredentials
	}
	if !u.IsActive {
		metrics.Logins.WithLabelValues("disabled").Inc()
		return domain.User{}, domain.ErrAccountDisabled
	}
	pub := u.Public()
	if err := s.store(ctx, pub); err != nil {
		return domain.User{}, err
	}
	metrics.Logins.WithLabelValues("ok").Inc()
	return pub, nil
}

// Logout clears the session key only.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.Sessions.Delete(ctx, s.Key)
}

// CurrentUser returns nil when nobody is signed in.
func (s *AuthService) CurrentUser(ctx context.Context) (*domain.User, error) {
	blob, err := s.Sessions.Get(ctx, s.Key)
	if errors.Is(err, repos.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var u domain.User
	if err := json.Unmarshal(blob, &u); err != nil {
		return nil, &domain.StorageCorruptionError{Key: s.Key, Err: err}
	}
	return &u, nil
}

func (s *AuthService) IsAdmin(ctx context.Context) bool {
	u, err := s.CurrentUser(ctx)
	return err == nil && u != nil && u.IsAdmin()
}

// Verified is CurrentUser refreshed from the store. A session whose user was
// deleted or disabled since login is cleared and reported as signed out.
func (s *AuthService) Verified(ctx context.Context) (*domain.User, error) {
	u, err := s.CurrentUser(ctx)
	if err != nil || u == nil {
		return u, err
	}
	fresh, err := s.Users.ByID(u.ID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && !fresh.IsActive) {
		return nil, s.Logout(ctx)
	}
	if err != nil {
		return nil, err
	}
	pub := fresh.Public()
	if pub != *u {
		if err := s.store(ctx, pub); err != nil {
			return nil, err
		}
	}
	return &pub, nil
}

// Register creates an active client account.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (domain.User, error) {
	u, err := s.Users.Create(ctx, domain.UserInput{
		Username: username,
		Email:    email,
		Password: password,
		Role:     domain.RoleClient,
	})
	if err != nil {
		return domain.User{}, err
	}
	return u.Public(), nil
}

func (s *AuthService) store(ctx context.Context, u domain.User) error {
	blob, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return s.Sessions.Set(ctx, s.Key, blob)
}
