package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

type ConsumerOpt func(*consumerOpts) error

type consumerOpts struct {
	cl        ConsumerClient
	decoder   Decoder
	refresher port.CatalogRefresher
}

func ConsumerClientOpt(
	seedBrokers []string, topic, group string, sec Security,
) ConsumerOpt {
	return func(co *consumerOpts) error {
		kopts := append([]kgo.Opt{
			kgo.SeedBrokers(seedBrokers...),
			kgo.ConsumeTopics(topic),
			kgo.ConsumerGroup(group),
			kgo.DisableAutoCommit(),
		}, sec.clientOpts()...)

		cl, err := kgo.NewClient(kopts...)
		if err != nil {
			return err
		}
		co.cl = cl
		return nil
	}
}

func consumerWithClientOpt(cl ConsumerClient) ConsumerOpt {
	return func(co *consumerOpts) error {
		co.cl = cl
		return nil
	}
}

func ConsumerDecoderOpt(decoder Decoder) ConsumerOpt {
	return func(co *consumerOpts) error {
		if decoder == nil {
			return errors.New("decoder is nil")
		}
		co.decoder = decoder
		return nil
	}
}

func ConsumerRefresherOpt(r port.CatalogRefresher) ConsumerOpt {
	return func(co *consumerOpts) error {
		if r == nil {
			return errors.New("catalog refresher is nil")
		}
		co.refresher = r
		return nil
	}
}

func (co *consumerOpts) apply(opts ...ConsumerOpt) error {
	for _, opt := range opts {
		if err := opt(co); err != nil {
			return err
		}
	}
	if co.cl == nil || co.decoder == nil || co.refresher == nil {
		return ErrTooFewOpts
	}
	return nil
}

// A ProductEventsConsumer polls product change events and refreshes the
// catalog once per non-empty fetch.
type ProductEventsConsumer struct {
	opPrefix  string
	cl        ConsumerClient
	decoder   Decoder
	refresher port.CatalogRefresher
	slowDown  time.Duration
}

func NewProductEventsConsumer(opts ...ConsumerOpt) (ProductEventsConsumer, error) {
	const op = "NewProductEventsConsumer"

	var options consumerOpts
	if err := options.apply(opts...); err != nil {
		if options.cl != nil {
			options.cl.Close()
		}
		return ProductEventsConsumer{}, opErr(err, op)
	}

	return ProductEventsConsumer{
		opPrefix:  "ProductEventsConsumer",
		cl:        options.cl,
		decoder:   options.decoder,
		refresher: options.refresher,
		slowDown:  slowDownDelay,
	}, nil
}

// Run consumes until ctx is done.
func (c ProductEventsConsumer) Run(ctx context.Context) {
	const op = "Run"
	log := slog.With("op", makeOp(c.opPrefix, op))

	log.Info("running")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		err := c.consume(ctx)
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) {
			continue
		}
		log.Error("failed to consume", "err", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.slowDown):
		}
	}
}

func (c ProductEventsConsumer) consume(ctx context.Context) error {
	const op = "consume"

	fetches, err := c.pollFetches(ctx)
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}

	if fetches.Empty() {
		return nil
	}

	events := c.toDomain(fetches)
	if len(events) != 0 {
		if err := c.refresher.Refresh(ctx); err != nil {
			return opErr(err, c.opPrefix, op)
		}
	}

	if err := c.cl.CommitUncommittedOffsets(ctx); err != nil {
		return opErr(err, c.opPrefix, op)
	}
	return nil
}

func (c ProductEventsConsumer) pollFetches(ctx context.Context) (kgo.Fetches, error) {
	const op = "pollFetches"

	fetches := c.cl.PollFetches(ctx)
	if err := fetches.Err0(); err != nil {
		return nil, opErr(err, c.opPrefix, op)
	}

	var errsMessages []string
	fetches.EachError(func(t string, p int32, err error) {
		errsMessages = append(errsMessages,
			fmt.Sprintf("topic %q partition %d: %q", t, p, err))
	})
	if len(errsMessages) != 0 {
		return nil, opErr(errors.New(strings.Join(errsMessages, "; ")), c.opPrefix, op)
	}

	return fetches, nil
}

func (c ProductEventsConsumer) toDomain(fetches kgo.Fetches) (vs []domain.ProductEvent) {
	const op = "toDomain"
	log := slog.With("op", makeOp(c.opPrefix, op))

	fetches.EachRecord(func(r *kgo.Record) {
		var s schema.ProductEventV1
		if err := c.decoder.Decode(r.Value, &s); err != nil {
			log.Error("failed to decode value", "offset", r.Offset, "err", err)
			return
		}
		evt, err := schemaV1ToEvent(s)
		if err != nil {
			log.Error("invalid product event", "offset", r.Offset, "err", err)
			return
		}
		log.Debug("product event received", "type", evt.Type, "productID", evt.Product.ID)
		vs = append(vs, evt)
	})
	return vs
}

func (c ProductEventsConsumer) Close() {
	const op = "Close"
	log := slog.With("op", makeOp(c.opPrefix, op))

	log.Info("closing consumer...")
	c.cl.Close()
	log.Info("consumer is closed")
}
