package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.Authenticator = (*AuthService)(nil)

// AuthService keeps the signed-in session. Admin rights are derived
// locally from the configured admin email, never from the provider.
type AuthService struct {
	provider   port.AuthProvider
	storage    port.SessionStorage
	notifier   port.Notifier
	adminEmail string

	mu       sync.RWMutex
	session  domain.Session
	signedIn bool
}

func NewAuthService(
	provider port.AuthProvider,
	storage port.SessionStorage,
	notifier port.Notifier,
	adminEmail string,
) *AuthService {
	return &AuthService{
		provider:   provider,
		storage:    storage,
		notifier:   notifierOrNop(notifier),
		adminEmail: adminEmail,
	}
}

// Restore loads the persisted session, if any. A session whose token no
// longer verifies is cleared and the service stays signed out.
func (s *AuthService) Restore(ctx context.Context) {
	const op = "AuthService.Restore"
	log := slog.With("op", op)

	saved, ok, err := s.storage.LoadSession(ctx)
	if err != nil {
		log.Warn("failed to load session", "err", err)
		return
	}
	if !ok {
		return
	}

	user, err := s.provider.Verify(saved.Token)
	if err != nil {
		log.Warn("stored session rejected", "uid", saved.User.UID, "err", err)
		if err := s.storage.ClearSession(ctx); err != nil {
			log.Warn("failed to clear session", "err", err)
		}
		return
	}

	session := domain.Session{
		User:    user,
		Token:   saved.Token,
		IsAdmin: domain.IsAdminEmail(s.adminEmail, user.Email),
	}
	s.set(session)
	log.Info("session restored", "uid", user.UID, "admin", session.IsAdmin)
}

func (s *AuthService) SignUp(
	ctx context.Context, in domain.SignUpInput,
) (domain.Session, error) {
	const op = "AuthService.SignUp"

	if err := in.Validate(); err != nil {
		s.notifier.Notify(domain.NotifyError, domain.UserMessage(err, "Signup failed"))
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	user, token, err := s.provider.SignUp(
		ctx, strings.TrimSpace(in.Name), strings.TrimSpace(in.Email), in.Password,
	)
	if err != nil {
		s.notifier.Notify(domain.NotifyError, providerMessage(err, "Signup failed"))
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	session := s.establish(ctx, user, token)
	s.notifier.Notify(domain.NotifySuccess, "Account created successfully!")
	return session, nil
}

func (s *AuthService) SignIn(
	ctx context.Context, in domain.SignInInput,
) (domain.Session, error) {
	const op = "AuthService.SignIn"

	if err := in.Validate(); err != nil {
		s.notifier.Notify(domain.NotifyError, domain.UserMessage(err, "Login failed"))
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	user, token, err := s.provider.SignIn(ctx, strings.TrimSpace(in.Email), in.Password)
	if err != nil {
		s.notifier.Notify(domain.NotifyError, providerMessage(err, "Login failed"))
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	session := s.establish(ctx, user, token)
	s.notifier.Notify(domain.NotifySuccess, "Login successful!")
	return session, nil
}

// SignOut ends the session. On provider failure the session is kept.
func (s *AuthService) SignOut(ctx context.Context) error {
	const op = "AuthService.SignOut"
	log := slog.With("op", op)

	session, ok := s.Session()
	if !ok {
		return nil
	}

	if err := s.provider.SignOut(ctx, session.Token); err != nil {
		s.notifier.Notify(domain.NotifyError, "Failed to logout")
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.ClearSession(ctx); err != nil {
		log.Error("failed to clear stored session", "err", err)
	}

	s.mu.Lock()
	s.session = domain.Session{}
	s.signedIn = false
	s.mu.Unlock()

	s.notifier.Notify(domain.NotifySuccess, "Logged out successfully")
	return nil
}

func (s *AuthService) Session() (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session, s.signedIn
}

func (s *AuthService) RequireAdmin() error {
	session, ok := s.Session()
	if !ok {
		return domain.ErrUnauthenticated
	}
	if !session.IsAdmin {
		return domain.ErrForbidden
	}
	return nil
}

func (s *AuthService) establish(
	ctx context.Context, user domain.User, token string,
) domain.Session {
	const op = "AuthService.establish"

	session := domain.Session{
		User:    user,
		Token:   token,
		IsAdmin: domain.IsAdminEmail(s.adminEmail, user.Email),
	}

	if err := s.storage.SaveSession(ctx, session); err != nil {
		slog.Error("failed to persist session", "op", op, "err", err)
	}
	s.set(session)
	return session
}

func (s *AuthService) set(session domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
	s.signedIn = true
}

func providerMessage(err error, fallback string) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, domain.ErrEmailTaken):
		return "Email is already registered"
	default:
		return fallback
	}
}
