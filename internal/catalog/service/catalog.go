package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/go-faster/errors"

	"github.com/Skotchmaster/kolshi/internal/catalog/domain"
	"github.com/Skotchmaster/kolshi/pkg/logging"
)

var ErrNotFound = errors.New("product not found")

type Sort string

const (
	SortDefault   Sort = ""
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
	SortNameAsc   Sort = "name_asc"
	SortNameDesc  Sort = "name_desc"
)

func ParseSort(v string) (Sort, bool) {
	switch s := Sort(strings.ToLower(strings.TrimSpace(v))); s {
	case SortDefault, SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc:
		return s, true
	}
	return SortDefault, false
}

// Query filters the catalog for the browse view. A zero Category means all.
type Query struct {
	Category domain.Category
	Search   string
	Sort     Sort
}

// Searcher is an external full text index over the catalog.
type Searcher interface {
	Index(ctx context.Context, products []domain.Product) error
	Search(ctx context.Context, query string, from, size int) (int64, []string, error)
}

// DealRules is the promotion copy shown next to the deals listing.
var DealRules = []string{
	"Buy 3+ Electronics items: 20% off",
	"Buy 3+ Clothing items: 20% off",
	"First purchase: 10% off all items",
}

// Catalog holds the loaded products. Reads return copies; stock changes go
// through Reserve.
type Catalog struct {
	mu       sync.RWMutex
	products []*domain.Product
	byID     map[string]*domain.Product
	searcher Searcher
}

func New(products []*domain.Product) *Catalog {
	c := &Catalog{byID: make(map[string]*domain.Product, len(products))}
	for _, p := range products {
		if _, dup := c.byID[p.ID]; dup {
			continue
		}
		c.products = append(c.products, p)
		c.byID[p.ID] = p
	}
	return c
}

// UseSearcher indexes the catalog in s and routes Search through it.
func (c *Catalog) UseSearcher(ctx context.Context, s Searcher) error {
	if err := s.Index(ctx, c.All()); err != nil {
		return errors.Wrap(err, "index catalog")
	}
	c.mu.Lock()
	c.searcher = s
	n := len(c.products)
	c.mu.Unlock()
	logging.FromContext(ctx).Info("catalog_search_backend_enabled", "products", n)
	return nil
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

func (c *Catalog) Get(id string) (domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.byID[id]
	if !ok {
		return domain.Product{}, errors.Wrapf(ErrNotFound, "id %q", id)
	}
	return *p, nil
}

func (c *Catalog) All() []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyAll(c.products)
}

func (c *Catalog) Browse(q Query) []domain.Product {
	c.mu.RLock()
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		if q.Category != 0 && p.Category() != q.Category {
			continue
		}
		if needle != "" && !matches(p, needle) {
			continue
		}
		out = append(out, *p)
	}
	c.mu.RUnlock()

	switch q.Sort {
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.GreaterThan(out[j].Price) })
	case SortNameAsc:
		sort.SliceStable(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	case SortNameDesc:
		sort.SliceStable(out, func(i, j int) bool { return strings.ToLower(out[i].Name) > strings.ToLower(out[j].Name) })
	}
	return out
}

// NewArrivals lists products by ID descending; higher IDs were added later.
func (c *Catalog) NewArrivals() []domain.Product {
	out := c.All()
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

// Deals lists every product, since any of them can trigger a discount rule.
func (c *Catalog) Deals() []domain.Product {
	return c.All()
}

// Search uses the configured Searcher and falls back to a substring match over
// name and ID.
func (c *Catalog) Search(ctx context.Context, query string, from, size int) (int64, []domain.Product, error) {
	c.mu.RLock()
	s := c.searcher
	c.mu.RUnlock()

	if s == nil {
		all := c.Browse(Query{Search: query})
		return int64(len(all)), page(all, from, size), nil
	}

	total, ids, err := s.Search(ctx, query, from, size)
	if err != nil {
		return 0, nil, errors.Wrap(err, "search catalog")
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := c.byID[id]; ok {
			out = append(out, *p)
		}
	}
	return total, out, nil
}

// Reserve takes n units of product id out of stock and returns the live
// product for the cart.
func (c *Catalog) Reserve(id string, n int) (*domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.byID[id]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "id %q", id)
	}
	if err := p.DecreaseStock(n); err != nil {
		return nil, err
	}
	return p, nil
}

func matches(p *domain.Product, needle string) bool {
	hay := strings.ToLower(p.Name + " " + p.ID)
	return strings.Contains(hay, needle)
}

func copyAll(ps []*domain.Product) []domain.Product {
	out := make([]domain.Product, len(ps))
	for i, p := range ps {
		out[i] = *p
	}
	return out
}

func page(all []domain.Product, from, size int) []domain.Product {
	if from >= len(all) {
		return []domain.Product{}
	}
	end := from + size
	if size <= 0 || end > len(all) {
		end = len(all)
	}
	return all[from:end]
}
