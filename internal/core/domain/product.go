package domain

import (
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string
	Title       string
	Price       decimal.Decimal
	ImageURL    string
	Category    string
	Description string
	CreatedAt   time.Time
}

// A ProductInput is the admin form. Price is kept as text until
// [NewProduct] normalizes it.
type ProductInput struct {
	Title       string
	Price       string
	ImageURL    string
	Category    string
	Description string
}

// NewProduct validates the form and returns a product without ID and
// creation time, those are assigned by the product collection.
func NewProduct(in ProductInput) (Product, error) {
	in = in.trimmed()

	if in.Title == "" || in.Price == "" || in.ImageURL == "" ||
		in.Category == "" || in.Description == "" {
		return Product{}, NewValidationError("", MsgFillAllFields, nil)
	}

	price, err := ParsePrice(in.Price)
	if err != nil || !price.IsPositive() {
		return Product{}, NewValidationError("price", MsgInvalidPrice, ErrInvalidPrice)
	}

	if !validURL(in.ImageURL) {
		return Product{}, NewValidationError("imageUrl", MsgInvalidURL, nil)
	}

	return Product{
		Title:       in.Title,
		Price:       price,
		ImageURL:    in.ImageURL,
		Category:    in.Category,
		Description: in.Description,
	}, nil
}

func (in ProductInput) trimmed() ProductInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Price = strings.TrimSpace(in.Price)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)
	return in
}

func validURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && (u.Host != "" || u.Opaque != "")
}

type ProductEventType string

const (
	ProductCreated ProductEventType = "created"
	ProductUpdated ProductEventType = "updated"
	ProductDeleted ProductEventType = "deleted"
)

type ProductEvent struct {
	Type       ProductEventType
	Product    Product
	OccurredAt time.Time
}
