package domain

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity       = errors.New("quantity must be positive")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrUnknownCategoryPrefix = errors.New("unknown category prefix")
	ErrInvalidProduct        = errors.New("invalid product")
)

// InsufficientStockError is returned by DecreaseStock when the request exceeds
// the available quantity. It matches ErrInsufficientStock.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

type Category int

const (
	Electronics Category = iota + 1
	Clothing
	Books
	HomeGarden
)

var Categories = []Category{Electronics, Clothing, Books, HomeGarden}

func (c Category) String() string {
	switch c {
	case Electronics:
		return "Electronics"
	case Clothing:
		return "Clothing"
	case Books:
		return "Books"
	case HomeGarden:
		return "Home & Garden"
	default:
		return "Unknown"
	}
}

// Prefix is the leading ID character that selects the category in the catalog file.
func (c Category) Prefix() string {
	switch c {
	case Electronics:
		return "E"
	case Clothing:
		return "C"
	case Books:
		return "B"
	case HomeGarden:
		return "H"
	default:
		return ""
	}
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// CategoryFromPrefix dispatches on the first byte of a product ID.
func CategoryFromPrefix(id string) (Category, error) {
	if id == "" {
		return 0, errors.Wrap(ErrUnknownCategoryPrefix, "empty id")
	}
	switch id[0] {
	case 'E':
		return Electronics, nil
	case 'C':
		return Clothing, nil
	case 'B':
		return Books, nil
	case 'H':
		return HomeGarden, nil
	}
	return 0, errors.Wrapf(ErrUnknownCategoryPrefix, "id %q", id)
}

// ParseCategory maps a display label back to its category, ignoring case.
func ParseCategory(label string) (Category, bool) {
	label = strings.TrimSpace(label)
	for _, c := range Categories {
		if strings.EqualFold(c.String(), label) {
			return c, true
		}
	}
	return 0, false
}

// Details is the category-specific payload of a product. The set of
// implementations is closed.
type Details interface {
	Category() Category
	Describe() string
	// Attributes returns the two trailing catalog fields in file order.
	Attributes() (string, string)
	sealed()
}

type ElectronicsDetails struct {
	Brand          string `json:"brand"`
	WarrantyMonths int    `json:"warranty_months"`
}

func (ElectronicsDetails) Category() Category { return Electronics }

func (d ElectronicsDetails) Describe() string {
	return fmt.Sprintf("Brand: %s, Warranty: %d months", d.Brand, d.WarrantyMonths)
}

func (d ElectronicsDetails) Attributes() (string, string) {
	return d.Brand, fmt.Sprint(d.WarrantyMonths)
}

func (ElectronicsDetails) sealed() {}

type ClothingDetails struct {
	Size  string `json:"size"`
	Color string `json:"color"`
}

func (ClothingDetails) Category() Category { return Clothing }

func (d ClothingDetails) Describe() string {
	return fmt.Sprintf("Size: %s, Color: %s", d.Size, d.Color)
}

func (d ClothingDetails) Attributes() (string, string) { return d.Size, d.Color }

func (ClothingDetails) sealed() {}

type BookDetails struct {
	Author string `json:"author"`
	Genre  string `json:"genre"`
}

func (BookDetails) Category() Category { return Books }

func (d BookDetails) Describe() string {
	return fmt.Sprintf("Author: %s, Genre: %s", d.Author, d.Genre)
}

func (d BookDetails) Attributes() (string, string) { return d.Author, d.Genre }

func (BookDetails) sealed() {}

type HomeGardenDetails struct {
	Material string `json:"material"`
	Room     string `json:"room"`
}

func (HomeGardenDetails) Category() Category { return HomeGarden }

func (d HomeGardenDetails) Describe() string {
	return fmt.Sprintf("Material: %s, For: %s", d.Material, d.Room)
}

func (d HomeGardenDetails) Attributes() (string, string) { return d.Material, d.Room }

func (HomeGardenDetails) sealed() {}

// Product is a catalog entry. Stock is only set by NewProduct and only goes
// down through DecreaseStock.
type Product struct {
	ID      string
	Name    string
	Price   decimal.Decimal
	Details Details

	quantity int
}

func NewProduct(id, name string, quantity int, price decimal.Decimal, details Details) (*Product, error) {
	if details == nil {
		return nil, errors.Wrap(ErrInvalidProduct, "missing details")
	}
	if quantity < 0 {
		return nil, errors.Wrapf(ErrInvalidProduct, "negative quantity %d", quantity)
	}
	if price.IsNegative() {
		return nil, errors.Wrapf(ErrInvalidProduct, "negative price %s", price)
	}
	cat, err := CategoryFromPrefix(id)
	if err != nil {
		return nil, err
	}
	if cat != details.Category() {
		return nil, errors.Wrapf(ErrInvalidProduct, "id %q does not match category %s", id, details.Category())
	}

	return &Product{
		ID:       id,
		Name:     name,
		Price:    price,
		Details:  details,
		quantity: quantity,
	}, nil
}

func (p *Product) Category() Category {
	return p.Details.Category()
}

func (p *Product) Describe() string {
	return p.Details.Describe()
}

// DecreaseStock removes amount units from stock. It either applies fully or
// leaves the product untouched.
func (p *Product) DecreaseStock(amount int) error {
	if amount <= 0 {
		return errors.Wrapf(ErrInvalidQuantity, "decrease %s by %d", p.ID, amount)
	}
	if amount > p.quantity {
		return &InsufficientStockError{ProductID: p.ID, Requested: amount, Available: p.quantity}
	}
	p.quantity -= amount
	return nil
}

// LineValue is the price of qty units at the current unit price.
func (p *Product) LineValue(qty int) decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(qty)))
}

// Quantity is the stock available for sale.
func (p *Product) Quantity() int {
	return p.quantity
}

func (p *Product) InStock() bool {
	return p.quantity > 0
}
