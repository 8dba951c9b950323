// Package notify keeps the user notifications until the UI drains them.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

const DefaultCapacity = 32

var (
	_ port.Notifier           = (*Queue)(nil)
	_ port.NotificationReader = (*Queue)(nil)
)

// Queue is a bounded notification queue. When full, the oldest
// notification is dropped.
type Queue struct {
	mu    sync.Mutex
	items []domain.Notification
	size  int
	now   func() time.Time
}

func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		items: make([]domain.Notification, 0, capacity),
		size:  capacity,
		now:   time.Now,
	}
}

func (q *Queue) Notify(kind domain.NotificationKind, msg string) {
	const op = "Queue.Notify"

	n := domain.Notification{Kind: kind, Message: msg, At: q.now()}
	if kind == domain.NotifyError {
		slog.Warn("notification", "op", op, "kind", kind, "message", msg)
	} else {
		slog.Info("notification", "op", op, "kind", kind, "message", msg)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == q.size {
		copy(q.items, q.items[1:])
		q.items = q.items[:len(q.items)-1]
	}
	q.items = append(q.items, n)
}

// Drain returns the queued notifications, oldest first, and empties the
// queue.
func (q *Queue) Drain() []domain.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]domain.Notification, len(q.items))
	copy(out, q.items)
	q.items = q.items[:0]
	return out
}
