// Package auth is the account provider: users with bcrypt password hashes
// and HS256 access tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/niksmo/storefront/internal/adapter/storage"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"golang.org/x/crypto/bcrypt"
)

const issuer = "storefront"

var _ port.AuthProvider = (*Provider)(nil)

type userStore interface {
	CreateUser(ctx context.Context, u storage.UserRecord) error
	UserByEmail(ctx context.Context, email string) (storage.UserRecord, error)
}

type claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

type Provider struct {
	users  userStore
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

type ProviderOpt func(*Provider)

// BcryptCostOpt sets the password hashing cost.
func BcryptCostOpt(cost int) ProviderOpt {
	return func(p *Provider) {
		p.cost = cost
	}
}

func NewProvider(
	users userStore, secret string, ttl time.Duration, opts ...ProviderOpt,
) *Provider {
	p := &Provider{
		users:   users,
		secret:  []byte(secret),
		ttl:     ttl,
		cost:    bcrypt.DefaultCost,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) SignUp(
	ctx context.Context, name, email, password string,
) (domain.User, string, error) {
	const op = "Provider.SignUp"

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	user := domain.User{UID: uuid.NewString(), Email: email, DisplayName: name}
	err = p.users.CreateUser(ctx, storage.UserRecord{User: user, PasswordHash: hash})
	if err != nil {
		return domain.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := p.issue(user)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("%s: %w", op, err)
	}
	slog.Info("user signed up", "op", op, "uid", user.UID)
	return user, token, nil
}

func (p *Provider) SignIn(
	ctx context.Context, email, password string,
) (domain.User, string, error) {
	const op = "Provider.SignIn"

	rec, err := p.users.UserByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, "", fmt.Errorf("%s: %w", op, domain.ErrInvalidCredentials)
	}
	if err != nil {
		return domain.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	err = bcrypt.CompareHashAndPassword(rec.PasswordHash, []byte(password))
	if err != nil {
		return domain.User{}, "", fmt.Errorf("%s: %w", op, domain.ErrInvalidCredentials)
	}

	token, err := p.issue(rec.User)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("%s: %w", op, err)
	}
	return rec.User, token, nil
}

// SignOut revokes the token until it expires. An expired token has
// nothing left to revoke.
func (p *Provider) SignOut(_ context.Context, token string) error {
	const op = "Provider.SignOut"

	c, err := p.parse(token)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.pruneLocked()
	p.revoked[c.ID] = c.ExpiresAt.Time
	return nil
}

// Verify returns the user the token was issued to.
func (p *Provider) Verify(token string) (domain.User, error) {
	const op = "Provider.Verify"

	c, err := p.parse(token)
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	p.mu.Lock()
	_, revoked := p.revoked[c.ID]
	p.mu.Unlock()
	if revoked {
		return domain.User{}, fmt.Errorf("%s: %w", op, domain.ErrUnauthenticated)
	}
	return domain.User{UID: c.Subject, Email: c.Email, DisplayName: c.Name}, nil
}

func (p *Provider) issue(u domain.User) (string, error) {
	now := p.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: u.Email,
		Name:  u.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   u.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	})
	return token.SignedString(p.secret)
}

func (p *Provider) parse(token string) (*claims, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c,
		func(*jwt.Token) (any, error) { return p.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	return &c, nil
}

func (p *Provider) pruneLocked() {
	now := p.now()
	for id, exp := range p.revoked {
		if exp.Before(now) {
			delete(p.revoked, id)
		}
	}
}
