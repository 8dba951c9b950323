package service

import (
	"context"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

type MockCartStorage struct {
	mock.Mock
}

func (m *MockCartStorage) SaveCart(ctx context.Context, c domain.Cart) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCartStorage) LoadCart(ctx context.Context) (domain.Cart, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Cart), args.Error(1)
}

type MockProductCollection struct {
	mock.Mock
}

func (m *MockProductCollection) FetchAll(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	ps, _ := args.Get(0).([]domain.Product)
	return ps, args.Error(1)
}

func (m *MockProductCollection) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductCollection) Update(ctx context.Context, p domain.Product) (domain.Product, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductCollection) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishProductEvent(ctx context.Context, evt domain.ProductEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

type MockAuthProvider struct {
	mock.Mock
}

func (m *MockAuthProvider) SignIn(
	ctx context.Context, email, password string,
) (domain.User, string, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(domain.User), args.String(1), args.Error(2)
}

func (m *MockAuthProvider) SignUp(
	ctx context.Context, name, email, password string,
) (domain.User, string, error) {
	args := m.Called(ctx, name, email, password)
	return args.Get(0).(domain.User), args.String(1), args.Error(2)
}

func (m *MockAuthProvider) SignOut(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockAuthProvider) Verify(token string) (domain.User, error) {
	args := m.Called(token)
	return args.Get(0).(domain.User), args.Error(1)
}

type MockSessionStorage struct {
	mock.Mock
}

func (m *MockSessionStorage) SaveSession(ctx context.Context, s domain.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSessionStorage) LoadSession(ctx context.Context) (domain.Session, bool, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Session), args.Bool(1), args.Error(2)
}

func (m *MockSessionStorage) ClearSession(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []domain.Notification
}

func (n *recordingNotifier) Notify(kind domain.NotificationKind, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, domain.Notification{Kind: kind, Message: msg})
}

func (n *recordingNotifier) last() domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.notes) == 0 {
		return domain.Notification{}
	}
	return n.notes[len(n.notes)-1]
}

func (n *recordingNotifier) len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notes)
}

type fakeAdmin struct {
	err error
}

func (a fakeAdmin) RequireAdmin() error {
	return a.err
}
