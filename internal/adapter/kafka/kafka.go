// Package kafka publishes product change events and consumes them to keep
// the catalog fresh.
package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/shopspring/decimal"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/plain"
)

var (
	ErrTooFewOpts       = errors.New("too few options")
	ErrInvalidEventType = errors.New("invalid event type")
)

type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

type ConsumerClient interface {
	PollFetches(context.Context) kgo.Fetches
	CommitUncommittedOffsets(context.Context) error
	Close()
}

type Encoder interface {
	Encode(v any) ([]byte, error)
}

type Decoder interface {
	Decode(b []byte, v any) error
}

// Security holds the optional broker TLS and SASL/PLAIN settings.
type Security struct {
	TLS  *tls.Config
	User string
	Pass string
}

func (s Security) clientOpts() []kgo.Opt {
	var opts []kgo.Opt
	if s.TLS != nil {
		opts = append(opts, kgo.DialTLSConfig(s.TLS))
	}
	if s.User != "" {
		opts = append(opts, kgo.SASL(plain.Auth{
			User: s.User,
			Pass: s.Pass,
		}.AsMechanism()))
	}
	return opts
}

func makeOp(s ...string) string {
	return strings.Join(s, ".")
}

func opErr(err error, op ...string) error {
	return fmt.Errorf("%s: %w", makeOp(op...), err)
}

func eventToSchemaV1(evt domain.ProductEvent) schema.ProductEventV1 {
	p := evt.Product
	return schema.ProductEventV1{
		Type:        string(evt.Type),
		ProductID:   p.ID,
		Title:       p.Title,
		Price:       p.Price.String(),
		ImageURL:    p.ImageURL,
		Category:    p.Category,
		Description: p.Description,
		CreatedAt:   p.CreatedAt.UTC(),
		OccurredAt:  evt.OccurredAt.UTC(),
	}
}

func schemaV1ToEvent(s schema.ProductEventV1) (domain.ProductEvent, error) {
	t := domain.ProductEventType(s.Type)
	switch t {
	case domain.ProductCreated, domain.ProductUpdated, domain.ProductDeleted:
	default:
		return domain.ProductEvent{}, fmt.Errorf("%w: %q", ErrInvalidEventType, s.Type)
	}

	price, err := decimal.NewFromString(s.Price)
	if err != nil {
		return domain.ProductEvent{}, err
	}

	return domain.ProductEvent{
		Type: t,
		Product: domain.Product{
			ID:          s.ProductID,
			Title:       s.Title,
			Price:       price,
			ImageURL:    s.ImageURL,
			Category:    s.Category,
			Description: s.Description,
			CreatedAt:   s.CreatedAt,
		},
		OccurredAt: s.OccurredAt,
	}, nil
}

// slowDownDelay is the pause after a failed poll.
const slowDownDelay = time.Second
