package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

const SessionKey = "storefront-user"

var _ port.SessionStorage = SessionRepository{}

// The admin flag is not stored, it is derived again on restore.
type sessionSnapshot struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Token       string `json:"token"`
}

type SessionRepository struct {
	kv KV
}

func NewSessionRepository(kv KV) SessionRepository {
	return SessionRepository{kv}
}

func (r SessionRepository) SaveSession(ctx context.Context, s domain.Session) error {
	const op = "SessionRepository.SaveSession"

	b, err := json.Marshal(sessionSnapshot{
		UID:         s.User.UID,
		Email:       s.User.Email,
		DisplayName: s.User.DisplayName,
		Token:       s.Token,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := r.kv.Set(ctx, SessionKey, b); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// LoadSession reports false when no session is saved. An unreadable
// session is deleted.
func (r SessionRepository) LoadSession(ctx context.Context) (domain.Session, bool, error) {
	const op = "SessionRepository.LoadSession"

	b, err := r.kv.Get(ctx, SessionKey)
	if errors.Is(err, ErrKeyNotFound) {
		return domain.Session{}, false, nil
	}
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("%s: %w", op, err)
	}

	var snap sessionSnapshot
	if err := json.Unmarshal(b, &snap); err != nil || snap.UID == "" || snap.Token == "" {
		slog.Warn("wiping unreadable session", "op", op, "err", err)
		if err := r.kv.Delete(ctx, SessionKey); err != nil {
			return domain.Session{}, false, fmt.Errorf("%s: %w", op, err)
		}
		return domain.Session{}, false, nil
	}

	return domain.Session{
		User: domain.User{
			UID:         snap.UID,
			Email:       snap.Email,
			DisplayName: snap.DisplayName,
		},
		Token: snap.Token,
	}, true, nil
}

func (r SessionRepository) ClearSession(ctx context.Context) error {
	const op = "SessionRepository.ClearSession"
	if err := r.kv.Delete(ctx, SessionKey); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
