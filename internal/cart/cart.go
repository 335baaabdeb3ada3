package cart

import (
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/kolshi/internal/catalog/domain"
)

var ErrInvalidQuantity = errors.New("cart quantity must be positive")

// Line is a cart entry: a product and how many units of it are in the cart.
type Line struct {
	Product  *domain.Product
	Quantity int
}

func (l Line) Value() decimal.Decimal {
	return l.Product.LineValue(l.Quantity)
}

// Cart aggregates products for one session. Stock is decremented by the
// caller before AddProduct; the cart does not re-check it.
type Cart struct {
	mu    sync.RWMutex
	qty   map[string]int
	items map[string]*domain.Product
	order []string
}

func New() *Cart {
	return &Cart{
		qty:   make(map[string]int),
		items: make(map[string]*domain.Product),
	}
}

func (c *Cart) AddProduct(p *domain.Product, quantity int) error {
	if quantity <= 0 {
		return errors.Wrapf(ErrInvalidQuantity, "add %d of %s", quantity, p.ID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.qty[p.ID]; !ok {
		c.order = append(c.order, p.ID)
		c.items[p.ID] = p
	}
	c.qty[p.ID] += quantity
	return nil
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.qty = make(map[string]int)
	c.items = make(map[string]*domain.Product)
	c.order = nil
}

// Snapshot returns the entries in insertion order. The order is for display only.
func (c *Cart) Snapshot() []Line {
	c.mu.RLock()
	defer c.mu.RUnlock()

	lines := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		lines = append(lines, Line{Product: c.items[id], Quantity: c.qty[id]})
	}
	return lines
}

// Quantity reports how many units of productID are in the cart.
func (c *Cart) Quantity(productID string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.qty[productID]
}

func (c *Cart) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

func (c *Cart) TotalItems() int {
	return TotalItems(c.Snapshot())
}

func (c *Cart) TotalValue() decimal.Decimal {
	return TotalValue(c.Snapshot())
}

func TotalItems(lines []Line) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

func TotalValue(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Value())
	}
	return total
}
