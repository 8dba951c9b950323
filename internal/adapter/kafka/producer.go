package kafka

import (
	"context"
	"errors"
	"log/slog"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ port.ProductEventsPublisher = (*ProductEventsProducer)(nil)

type ProducerOpt func(*producerOpts) error

type producerOpts struct {
	cl      ProducerClient
	encoder Encoder
}

// ProducerClientOpt connects to the brokers and checks them with a ping.
func ProducerClientOpt(
	ctx context.Context, seedBrokers []string, topic string, sec Security,
) ProducerOpt {
	return func(opts *producerOpts) error {
		kopts := append([]kgo.Opt{
			kgo.SeedBrokers(seedBrokers...),
			kgo.DefaultProduceTopicAlways(),
			kgo.DefaultProduceTopic(topic),
			kgo.RequiredAcks(kgo.AllISRAcks()),
		}, sec.clientOpts()...)

		cl, err := kgo.NewClient(kopts...)
		if err != nil {
			return err
		}

		if err := cl.Ping(ctx); err != nil {
			cl.Close()
			return err
		}
		opts.cl = cl
		return nil
	}
}

func producerWithClientOpt(cl ProducerClient) ProducerOpt {
	return func(opts *producerOpts) error {
		opts.cl = cl
		return nil
	}
}

func ProducerEncoderOpt(encoder Encoder) ProducerOpt {
	return func(opts *producerOpts) error {
		if encoder == nil {
			return errors.New("encoder is nil")
		}
		opts.encoder = encoder
		return nil
	}
}

// A ProductEventsProducer publishes [domain.ProductEvent] keyed by the
// product ID.
type ProductEventsProducer struct {
	cl       ProducerClient
	encoder  Encoder
	opPrefix string
}

func NewProductEventsProducer(
	opts ...ProducerOpt,
) (ProductEventsProducer, error) {
	const op = "NewProductEventsProducer"

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return ProductEventsProducer{}, opErr(err, op)
		}
	}
	if options.cl == nil || options.encoder == nil {
		if options.cl != nil {
			options.cl.Close()
		}
		return ProductEventsProducer{}, opErr(ErrTooFewOpts, op)
	}

	return ProductEventsProducer{
		cl:       options.cl,
		encoder:  options.encoder,
		opPrefix: "ProductEventsProducer",
	}, nil
}

func (p ProductEventsProducer) PublishProductEvent(
	ctx context.Context, evt domain.ProductEvent,
) error {
	const op = "PublishProductEvent"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	b, err := p.encoder.Encode(eventToSchemaV1(evt))
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	r := &kgo.Record{Key: []byte(evt.Product.ID), Value: b}
	if err := p.cl.ProduceSync(ctx, r).FirstErr(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	slog.Debug("product event published",
		"op", makeOp(p.opPrefix, op), "type", evt.Type, "productID", evt.Product.ID)
	return nil
}

func (p ProductEventsProducer) Close() {
	const op = "Close"
	log := slog.With("op", makeOp(p.opPrefix, op))
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}
