// Package schema holds the Avro schemas of the broker records and the
// schema registry serdes for them.
package schema

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/sr"
)

// A SchemaIdentifier returns the registry ID of the schema text under
// subject, registering it when needed.
type SchemaIdentifier interface {
	DetermineID(ctx context.Context, subject string, avroSchemaText string) (int, error)
}

// RegistryIdentifier registers schemas in a schema registry.
type RegistryIdentifier struct {
	cl *sr.Client
}

func NewRegistryIdentifier(urls []string) (RegistryIdentifier, error) {
	const op = "NewRegistryIdentifier"

	cl, err := sr.NewClient(sr.URLs(urls...))
	if err != nil {
		return RegistryIdentifier{}, fmt.Errorf("%s: %w", op, err)
	}
	return RegistryIdentifier{cl}, nil
}

func (ri RegistryIdentifier) DetermineID(
	ctx context.Context, subject string, avroSchemaText string,
) (int, error) {
	const op = "RegistryIdentifier.DetermineID"

	ss, err := ri.cl.CreateSchema(ctx, subject, sr.Schema{
		Schema: avroSchemaText,
		Type:   sr.TypeAvro,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return ss.ID, nil
}

// TopicValueSubject returns the subject of the record values of topic.
func TopicValueSubject(topic string) string {
	return topic + "-value"
}
