package schema

import (
	"time"

	"github.com/hamba/avro/v2"
)

const ProductEventSchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront.products",
	"name": "ProductEvent",
	"fields": [
		{"name": "type", "type": {"type": "enum", "name": "ProductEventType", "symbols": ["created", "updated", "deleted"]}},
		{"name": "product_id", "type": "string"},
		{"name": "title", "type": "string"},
		{"name": "price", "type": "string"},
		{"name": "image_url", "type": "string"},
		{"name": "category", "type": "string"},
		{"name": "description", "type": "string"},
		{"name": "created_at", "type": {"type": "long", "logicalType": "timestamp-millis"}},
		{"name": "occurred_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

// ProductEventV1 is the record of an admin change to the product
// collection. Price is the decimal text of the price.
type ProductEventV1 struct {
	Type        string    `avro:"type"`
	ProductID   string    `avro:"product_id"`
	Title       string    `avro:"title"`
	Price       string    `avro:"price"`
	ImageURL    string    `avro:"image_url"`
	Category    string    `avro:"category"`
	Description string    `avro:"description"`
	CreatedAt   time.Time `avro:"created_at"`
	OccurredAt  time.Time `avro:"occurred_at"`
}

// ProductEventV1Avro returns the parsed schema. It panics if the schema
// text is invalid.
func ProductEventV1Avro() avro.Schema {
	return avro.MustParse(ProductEventSchemaTextV1)
}
