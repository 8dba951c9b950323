// Package catalog keeps the fetched product list and derives filtered and
// sorted views of it.
package catalog

import (
	"slices"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"golang.org/x/text/language"
)

type Cache struct {
	mu       sync.RWMutex
	products []domain.Product
	lang     language.Tag

	issued  uint64
	applied uint64

	categories      []string
	categoriesValid bool
}

type Opt func(*Cache)

// LanguageOpt sets the collation language of the alphabetical sort.
func LanguageOpt(tag language.Tag) Opt {
	return func(c *Cache) {
		c.lang = tag
	}
}

func NewCache(opts ...Opt) *Cache {
	c := &Cache{lang: language.English}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetProducts replaces the cached list.
func (c *Cache) SetProducts(ps []domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued++
	c.applied = c.issued
	c.replace(ps)
}

// Begin hands out a ticket for a fetch about to start.
func (c *Cache) Begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued++
	return c.issued
}

// Commit applies the result of the fetch started with ticket. It reports
// false and keeps the current list when a newer fetch or a local change
// has already been applied.
func (c *Cache) Commit(ticket uint64, ps []domain.Product) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ticket <= c.applied {
		return false
	}
	c.applied = ticket
	c.replace(ps)
	return true
}

// Upsert replaces the product with the same id or appends p.
func (c *Cache) Upsert(p domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued++
	c.applied = c.issued

	ps := slices.Clone(c.products)
	i := slices.IndexFunc(ps, func(v domain.Product) bool { return v.ID == p.ID })
	if i == -1 {
		ps = append(ps, p)
	} else {
		ps[i] = p
	}
	c.products = ps
	c.categoriesValid = false
}

func (c *Cache) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued++
	c.applied = c.issued

	c.products = slices.DeleteFunc(slices.Clone(c.products), func(v domain.Product) bool {
		return v.ID == id
	})
	c.categoriesValid = false
}

func (c *Cache) Product(id string) (domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (c *Cache) Products() []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.products)
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

// Categories returns the sorted distinct categories of the cached list.
func (c *Cache) Categories() []string {
	c.mu.RLock()
	if c.categoriesValid {
		out := slices.Clone(c.categories)
		c.mu.RUnlock()
		return out
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.categoriesValid {
		c.categories = distinctCategories(c.products)
		c.categoriesValid = true
	}
	return slices.Clone(c.categories)
}

func (c *Cache) replace(ps []domain.Product) {
	c.products = slices.Clone(ps)
	c.categoriesValid = false
}

func distinctCategories(ps []domain.Product) []string {
	seen := make(map[string]struct{}, len(ps))
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	slices.Sort(out)
	return out
}
