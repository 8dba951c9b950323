package domain

import (
	"slices"

	"github.com/shopspring/decimal"
)

type CartItem struct {
	Product
	Quantity int
}

// Amount returns price × quantity.
func (i CartItem) Amount() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Cart struct {
	Items       []CartItem
	TotalItems  int
	TotalAmount decimal.Decimal
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Clone returns a copy that does not share the items backing array.
func (c Cart) Clone() Cart {
	c.Items = slices.Clone(c.Items)
	return c
}

// Fold recomputes both totals from items.
func Fold(items []CartItem) (totalItems int, totalAmount decimal.Decimal) {
	totalAmount = decimal.Zero
	for _, it := range items {
		totalItems += it.Quantity
		totalAmount = totalAmount.Add(it.Amount())
	}
	return totalItems, totalAmount
}
