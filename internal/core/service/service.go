// Package service orchestrates the storefront state transitions: it
// validates input, mutates state, persists it and notifies the user.
package service

import (
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

// productLookup is satisfied by *catalog.Cache.
type productLookup interface {
	Product(id string) (domain.Product, bool)
}

// adminGate is satisfied by *AuthService.
type adminGate interface {
	RequireAdmin() error
}

type nopNotifier struct{}

func (nopNotifier) Notify(domain.NotificationKind, string) {}

func notifierOrNop(n port.Notifier) port.Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
