package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

const DefaultCartKey = "cartState"

var _ port.CartStorage = CartRepository{}

// errMalformed marks a snapshot that must be wiped.
var errMalformed = errors.New("malformed snapshot")

type cartSnapshot struct {
	Items       []itemSnapshot `json:"items"`
	TotalItems  int            `json:"totalItems"`
	TotalAmount json.Number    `json:"totalAmount"`
}

type itemSnapshot struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Price       json.Number `json:"price"`
	ImageURL    string      `json:"imageUrl"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Time        string      `json:"time,omitempty"`
	Quantity    int         `json:"quantity"`
}

// rawCartSnapshot keeps numbers undecoded so text values can be told
// apart from numbers.
type rawCartSnapshot struct {
	Items       []rawItemSnapshot `json:"items"`
	TotalAmount json.RawMessage   `json:"totalAmount"`
}

type rawItemSnapshot struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Price       json.RawMessage `json:"price"`
	ImageURL    string          `json:"imageUrl"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Time        json.RawMessage `json:"time"`
	Quantity    json.RawMessage `json:"quantity"`
}

// CartRepository stores the cart as a JSON snapshot under a single key.
type CartRepository struct {
	kv  KV
	key string
}

func NewCartRepository(kv KV, key string) CartRepository {
	if key == "" {
		key = DefaultCartKey
	}
	return CartRepository{kv: kv, key: key}
}

func (r CartRepository) SaveCart(ctx context.Context, c domain.Cart) error {
	const op = "CartRepository.SaveCart"

	snap := cartSnapshot{
		Items:       make([]itemSnapshot, 0, len(c.Items)),
		TotalItems:  c.TotalItems,
		TotalAmount: json.Number(c.TotalAmount.String()),
	}
	for _, it := range c.Items {
		var ts string
		if !it.CreatedAt.IsZero() {
			ts = it.CreatedAt.UTC().Format(time.RFC3339Nano)
		}
		snap.Items = append(snap.Items, itemSnapshot{
			ID:          it.ID,
			Title:       it.Title,
			Price:       json.Number(it.Price.String()),
			ImageURL:    it.ImageURL,
			Category:    it.Category,
			Description: it.Description,
			Time:        ts,
			Quantity:    it.Quantity,
		})
	}

	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := r.kv.Set(ctx, r.key, b); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// LoadCart returns the saved cart or an empty one when nothing is saved.
// A malformed snapshot is deleted and an empty cart is returned.
func (r CartRepository) LoadCart(ctx context.Context) (domain.Cart, error) {
	const op = "CartRepository.LoadCart"
	log := slog.With("op", op)

	b, err := r.kv.Get(ctx, r.key)
	if errors.Is(err, ErrKeyNotFound) {
		return domain.Cart{}, nil
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}

	items, err := decodeCart(b)
	if err != nil {
		log.Warn("wiping cart snapshot", "key", r.key, "err", err)
		if err := r.kv.Delete(ctx, r.key); err != nil {
			log.Error("failed to delete cart snapshot", "err", err)
		}
		return domain.Cart{}, nil
	}

	totalItems, totalAmount := domain.Fold(items)
	return domain.Cart{
		Items:       items,
		TotalItems:  totalItems,
		TotalAmount: totalAmount,
	}, nil
}

func decodeCart(b []byte) ([]domain.CartItem, error) {
	var raw rawCartSnapshot
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformed, err)
	}

	if len(raw.TotalAmount) != 0 {
		if _, err := strictNumber(raw.TotalAmount); err != nil {
			return nil, fmt.Errorf("%w: totalAmount: %w", errMalformed, err)
		}
	}

	items := make([]domain.CartItem, 0, len(raw.Items))
	seen := make(map[string]struct{}, len(raw.Items))
	for i, it := range raw.Items {
		item, err := decodeItem(it)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %w", errMalformed, i, err)
		}
		if _, dup := seen[item.ID]; dup {
			return nil, fmt.Errorf("%w: item %d: duplicate id %q", errMalformed, i, item.ID)
		}
		seen[item.ID] = struct{}{}
		items = append(items, item)
	}
	return items, nil
}

func decodeItem(it rawItemSnapshot) (domain.CartItem, error) {
	if it.ID == "" {
		return domain.CartItem{}, errors.New("missing id")
	}

	price, err := strictNumber(it.Price)
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("price: %w", err)
	}
	p, err := domain.ParsePrice(price)
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("price: %w", err)
	}

	q, err := strictNumber(it.Quantity)
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("quantity: %w", err)
	}
	quantity, err := strconv.Atoi(q)
	if err != nil || quantity < 1 {
		return domain.CartItem{}, fmt.Errorf("quantity: %q is not a positive integer", q)
	}

	createdAt, err := decodeTime(it.Time)
	if err != nil {
		slog.Debug("dropping item timestamp",
			"op", "storage.decodeItem", "id", it.ID, "err", err)
	}

	return domain.CartItem{
		Product: domain.Product{
			ID:          it.ID,
			Title:       it.Title,
			Price:       p,
			ImageURL:    it.ImageURL,
			Category:    it.Category,
			Description: it.Description,
			CreatedAt:   createdAt,
		},
		Quantity: quantity,
	}, nil
}

// firestoreTimestamp is the shape a serialized Firestore Timestamp takes.
type firestoreTimestamp struct {
	Seconds     *int64 `json:"seconds"`
	Nanoseconds int64  `json:"nanoseconds"`
}

// decodeTime accepts an RFC 3339 string or a {seconds, nanoseconds}
// object. Absent and null give the zero time. Any other value gives the
// zero time and an error; the item itself stays valid.
func decodeTime(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, err
		}
		if s == "" {
			return time.Time{}, nil
		}
		return time.Parse(time.RFC3339Nano, s)
	case '{':
		var ts firestoreTimestamp
		if err := json.Unmarshal(raw, &ts); err != nil {
			return time.Time{}, err
		}
		if ts.Seconds == nil {
			return time.Time{}, errors.New("timestamp without seconds")
		}
		return time.Unix(*ts.Seconds, ts.Nanoseconds).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp %s", raw)
	}
}

// strictNumber returns the literal of a JSON number. Strings, booleans,
// null and absent values are rejected.
func strictNumber(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", errors.New("missing")
	}
	if raw[0] == '"' {
		return "", errors.New("stored as text")
	}
	if raw[0] != '-' && (raw[0] < '0' || raw[0] > '9') {
		return "", fmt.Errorf("%s is not a number", raw)
	}
	return string(raw), nil
}
