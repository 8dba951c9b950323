package port

import (
	"context"

	"github.com/niksmo/storefront/internal/core/catalog"
	"github.com/niksmo/storefront/internal/core/domain"
)

// Inbound.

type CartManager interface {
	Cart() domain.Cart
	AddItem(ctx context.Context, productID string) (domain.Cart, error)
	RemoveItem(ctx context.Context, productID string) (domain.Cart, error)
	UpdateQuantity(ctx context.Context, productID string, quantity int) (domain.Cart, error)
	Clear(ctx context.Context) domain.Cart
}

type CatalogBrowser interface {
	View(q catalog.Query) []domain.Product
	Categories() []string
	Product(id string) (domain.Product, error)
	Status() domain.CatalogStatus
}

type CatalogRefresher interface {
	Refresh(ctx context.Context) error
}

type CatalogAdmin interface {
	CreateProduct(ctx context.Context, in domain.ProductInput) (domain.Product, error)
	UpdateProduct(ctx context.Context, id string, in domain.ProductInput) (domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type Authenticator interface {
	SignUp(ctx context.Context, in domain.SignUpInput) (domain.Session, error)
	SignIn(ctx context.Context, in domain.SignInInput) (domain.Session, error)
	SignOut(ctx context.Context) error
	Session() (domain.Session, bool)
}

type NotificationReader interface {
	Drain() []domain.Notification
}

// Outbound.

type CartStorage interface {
	SaveCart(ctx context.Context, c domain.Cart) error
	LoadCart(ctx context.Context) (domain.Cart, error)
}

type SessionStorage interface {
	SaveSession(ctx context.Context, s domain.Session) error
	LoadSession(ctx context.Context) (domain.Session, bool, error)
	ClearSession(ctx context.Context) error
}

type ProductCollection interface {
	FetchAll(ctx context.Context) ([]domain.Product, error)
	Create(ctx context.Context, p domain.Product) (domain.Product, error)
	Update(ctx context.Context, p domain.Product) (domain.Product, error)
	Delete(ctx context.Context, id string) error
}

type AuthProvider interface {
	SignIn(ctx context.Context, email, password string) (domain.User, string, error)
	SignUp(ctx context.Context, name, email, password string) (domain.User, string, error)
	SignOut(ctx context.Context, token string) error
	// Verify returns the user the token was issued to. An expired or
	// revoked token is rejected.
	Verify(token string) (domain.User, error)
}

type Notifier interface {
	Notify(kind domain.NotificationKind, msg string)
}

type ProductEventsPublisher interface {
	PublishProductEvent(ctx context.Context, evt domain.ProductEvent) error
}
