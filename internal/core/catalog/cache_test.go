package catalog

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProduct(id, title, price, category string) domain.Product {
	return domain.Product{
		ID:       id,
		Title:    title,
		Price:    decimal.RequireFromString(price),
		Category: category,
	}
}

func shirtAndJeans() []domain.Product {
	return []domain.Product{
		newProduct("1", "Red Shirt", "500", "Shirt"),
		newProduct("2", "Blue Jeans", "1200", "Jacket"),
	}
}

func titles(ps []domain.Product) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Title
	}
	return out
}

func TestCacheView(t *testing.T) {
	c := NewCache()
	c.SetProducts(shirtAndJeans())

	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"SearchTitle", Query{Search: "red", Sort: SortAlphabetical}, []string{"Red Shirt"}},
		{"SearchCategory", Query{Search: "JACK"}, []string{"Blue Jeans"}},
		{"PriceAsc", Query{Sort: SortPriceAsc}, []string{"Red Shirt", "Blue Jeans"}},
		{"PriceDesc", Query{Sort: SortPriceDesc}, []string{"Blue Jeans", "Red Shirt"}},
		{"Alphabetical", Query{Sort: SortAlphabetical}, []string{"Blue Jeans", "Red Shirt"}},
		{"Category", Query{Category: "Shirt"}, []string{"Red Shirt"}},
		{"CategoryIsExact", Query{Category: "shirt"}, []string{}},
		{"SearchAndCategory", Query{Search: "e", Category: "Jacket"}, []string{"Blue Jeans"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := titles(c.View(tt.q))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("View(%+v) mismatch (-want +got):\n%s", tt.q, diff)
			}
		})
	}
}

func TestCacheViewDoesNotMutateSource(t *testing.T) {
	c := NewCache()
	c.SetProducts(shirtAndJeans())

	_ = c.View(Query{Sort: SortPriceDesc})
	_ = c.View(Query{Sort: SortAlphabetical})

	assert.Equal(t, []string{"Red Shirt", "Blue Jeans"}, titles(c.Products()))
}

func TestCacheViewLocaleAware(t *testing.T) {
	c := NewCache()
	c.SetProducts([]domain.Product{
		newProduct("1", "banana", "1", "Food"),
		newProduct("2", "Apple", "1", "Food"),
		newProduct("3", "Éclair", "1", "Food"),
		newProduct("4", "cherry", "1", "Food"),
	})

	got := titles(c.View(Query{Sort: SortAlphabetical}))
	assert.Equal(t, []string{"Apple", "banana", "cherry", "Éclair"}, got)
}

func TestCacheViewStableTies(t *testing.T) {
	c := NewCache()
	c.SetProducts([]domain.Product{
		newProduct("1", "A", "10", "X"),
		newProduct("2", "B", "10", "X"),
		newProduct("3", "C", "5", "X"),
	})

	got := titles(c.View(Query{Sort: SortPriceDesc}))
	assert.Equal(t, []string{"A", "B", "C"}, got)
}

func TestCacheCategories(t *testing.T) {
	c := NewCache()
	c.SetProducts(shirtAndJeans())
	assert.Equal(t, []string{"Jacket", "Shirt"}, c.Categories())

	c.Upsert(newProduct("3", "Boots", "900", "Shoes"))
	c.Upsert(newProduct("4", "Tee", "300", "Shirt"))
	assert.Equal(t, []string{"Jacket", "Shirt", "Shoes"}, c.Categories())

	c.Remove("2")
	assert.Equal(t, []string{"Shirt", "Shoes"}, c.Categories())
}

func TestCacheSequenceGuard(t *testing.T) {
	t.Run("StaleFetchDiscarded", func(t *testing.T) {
		c := NewCache()
		slow := c.Begin()
		fast := c.Begin()

		require.True(t, c.Commit(fast, shirtAndJeans()))
		assert.False(t, c.Commit(slow, nil))
		assert.Equal(t, 2, c.Len())
	})

	t.Run("InOrder", func(t *testing.T) {
		c := NewCache()
		first := c.Begin()
		second := c.Begin()

		require.True(t, c.Commit(first, nil))
		require.True(t, c.Commit(second, shirtAndJeans()))
		assert.Equal(t, 2, c.Len())
	})

	t.Run("LocalChangeWins", func(t *testing.T) {
		c := NewCache()
		ticket := c.Begin()
		c.Upsert(newProduct("9", "Hat", "100", "Fashion"))

		assert.False(t, c.Commit(ticket, shirtAndJeans()))
		p, ok := c.Product("9")
		require.True(t, ok)
		assert.Equal(t, "Hat", p.Title)
	})
}

func TestCacheUpsertReplaces(t *testing.T) {
	c := NewCache()
	c.SetProducts(shirtAndJeans())

	updated := newProduct("1", "Red Shirt XL", "650", "Shirt")
	c.Upsert(updated)

	p, ok := c.Product("1")
	require.True(t, ok)
	assert.Equal(t, "Red Shirt XL", p.Title)
	assert.Equal(t, 2, c.Len())
}

func TestParseSortKey(t *testing.T) {
	k, err := ParseSortKey("")
	require.NoError(t, err)
	assert.Equal(t, SortAlphabetical, k)

	k, err = ParseSortKey("price-high")
	require.NoError(t, err)
	assert.Equal(t, SortPriceDesc, k)

	_, err = ParseSortKey("random")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
