package catalog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/niksmo/storefront/internal/core/domain"
	"golang.org/x/text/collate"
)

type SortKey string

const (
	SortAlphabetical SortKey = "a-z"
	SortPriceAsc     SortKey = "price-low"
	SortPriceDesc    SortKey = "price-high"
)

// ParseSortKey maps the query value to a [SortKey]. Empty means
// alphabetical.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.TrimSpace(s)); k {
	case "":
		return SortAlphabetical, nil
	case SortAlphabetical, SortPriceAsc, SortPriceDesc:
		return k, nil
	default:
		return "", domain.NewValidationError(
			"sort", fmt.Sprintf("unknown sort %q", s), nil,
		)
	}
}

type Query struct {
	Search   string
	Category string
	Sort     SortKey
}

// View filters and sorts the cached products. The result is a new slice.
func (c *Cache) View(q Query) []domain.Product {
	c.mu.RLock()
	filtered := filter(c.products, q.Search, q.Category)
	lang := c.lang
	c.mu.RUnlock()

	sorted := slices.Clone(filtered)
	switch q.Sort {
	case SortPriceAsc:
		slices.SortStableFunc(sorted, func(a, b domain.Product) int {
			return a.Price.Cmp(b.Price)
		})
	case SortPriceDesc:
		slices.SortStableFunc(sorted, func(a, b domain.Product) int {
			return b.Price.Cmp(a.Price)
		})
	default:
		col := collate.New(lang)
		slices.SortStableFunc(sorted, func(a, b domain.Product) int {
			return col.CompareString(a.Title, b.Title)
		})
	}
	return sorted
}

func filter(ps []domain.Product, search, category string) []domain.Product {
	term := strings.ToLower(search)
	out := make([]domain.Product, 0, len(ps))
	for _, p := range ps {
		if term != "" &&
			!strings.Contains(strings.ToLower(p.Title), term) &&
			!strings.Contains(strings.ToLower(p.Category), term) {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		out = append(out, p)
	}
	return out
}
