package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/hamba/avro/v2"
	"github.com/twmb/franz-go/pkg/sr"
)

var ErrTooFewOpts = errors.New("too few options")

// A Serde encodes values into registry framed Avro records and back.
type Serde interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

type avroSerde struct {
	schema avro.Schema
	frames sr.Serde
}

func (s *avroSerde) Encode(v any) ([]byte, error) {
	return s.frames.Encode(v)
}

func (s *avroSerde) Decode(data []byte, v any) error {
	return s.frames.Decode(data, v)
}

type Opt func(*serdeOpts) error

type serdeOpts struct {
	subject string
	si      SchemaIdentifier
}

func SubjectOpt(subject string) Opt {
	return func(so *serdeOpts) error {
		if subject == "" {
			return errors.New("subject is empty string")
		}
		so.subject = subject
		return nil
	}
}

func SchemaIdentifierOpt(si SchemaIdentifier) Opt {
	return func(so *serdeOpts) error {
		if si == nil {
			return errors.New("schema identifier is nil")
		}
		so.si = si
		return nil
	}
}

func (so *serdeOpts) apply(opts []Opt) error {
	for _, opt := range opts {
		if err := opt(so); err != nil {
			return err
		}
	}
	if so.subject == "" || so.si == nil {
		return ErrTooFewOpts
	}
	return nil
}

// registration describes one record type and its schema.
type registration struct {
	text    string
	example any
}

// NewSerdeProductEventV1 registers [ProductEventSchemaTextV1] under the
// subject and returns the serde of [ProductEventV1].
func NewSerdeProductEventV1(ctx context.Context, opts ...Opt) (Serde, error) {
	const op = "NewSerdeProductEventV1"

	s, err := register(ctx, registration{
		text:    ProductEventSchemaTextV1,
		example: ProductEventV1{},
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

func register(ctx context.Context, reg registration, opts []Opt) (*avroSerde, error) {
	var so serdeOpts
	if err := so.apply(opts); err != nil {
		return nil, err
	}

	parsed, err := avro.Parse(reg.text)
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	id, err := so.si.DetermineID(ctx, so.subject, reg.text)
	if err != nil {
		return nil, err
	}

	s := &avroSerde{schema: parsed}
	s.frames.Register(
		id,
		reg.example,
		sr.EncodeFn(func(v any) ([]byte, error) {
			return avro.Marshal(s.schema, v)
		}),
		sr.DecodeFn(func(b []byte, v any) error {
			return avro.Unmarshal(s.schema, b, v)
		}),
	)
	return s, nil
}
