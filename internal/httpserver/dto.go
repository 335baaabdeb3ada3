package httpserver

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/kolshi/internal/cart"
	"github.com/Skotchmaster/kolshi/internal/catalog/domain"
	"github.com/Skotchmaster/kolshi/internal/checkout"
	"github.com/Skotchmaster/kolshi/internal/pricing"
)

type ProductView struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Category   string            `json:"category"`
	Price      decimal.Decimal   `json:"price"`
	Quantity   int               `json:"quantity"`
	InStock    bool              `json:"in_stock"`
	Details    string            `json:"details"`
	Attributes map[string]string `json:"attributes"`
}

type ProductListResponse struct {
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	Size     int           `json:"size"`
	Products []ProductView `json:"products"`
}

type DealsResponse struct {
	Rules    []string      `json:"rules"`
	Products []ProductView `json:"products"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	SessionID     uuid.UUID `json:"session_id"`
	Username      string    `json:"username"`
	PurchaseCount int       `json:"purchase_count"`
	AccessToken   string    `json:"access_token"`
	ExpiresAt     time.Time `json:"expires_at"`
}

type AddToCartRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type CartLineView struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type CartResponse struct {
	Items      []CartLineView  `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalValue decimal.Decimal `json:"total_value"`
	Pricing    pricing.Result  `json:"pricing"`
}

type CheckoutResponse struct {
	OrderID       uuid.UUID      `json:"order_id"`
	Items         []CartLineView `json:"items"`
	Pricing       pricing.Result `json:"pricing"`
	PurchaseCount int            `json:"purchase_count"`
	At            time.Time      `json:"at"`
}

var attributeLabels = map[domain.Category][2]string{
	domain.Electronics: {"brand", "warranty_months"},
	domain.Clothing:    {"size", "color"},
	domain.Books:       {"author", "genre"},
	domain.HomeGarden:  {"material", "room"},
}

func toProductView(p domain.Product) ProductView {
	v := ProductView{
		ID:       p.ID,
		Name:     p.Name,
		Category: p.Category().String(),
		Price:    p.Price,
		Quantity: p.Quantity(),
		InStock:  p.InStock(),
		Details:  p.Describe(),
	}
	a, b := p.Details.Attributes()
	labels := attributeLabels[p.Category()]
	v.Attributes = map[string]string{labels[0]: a, labels[1]: b}
	return v
}

func toProductViews(ps []domain.Product) []ProductView {
	out := make([]ProductView, len(ps))
	for i, p := range ps {
		out[i] = toProductView(p)
	}
	return out
}

func toCartLines(lines []cart.Line) []CartLineView {
	out := make([]CartLineView, len(lines))
	for i, ln := range lines {
		out[i] = CartLineView{
			ProductID: ln.Product.ID,
			Name:      ln.Product.Name,
			Category:  ln.Product.Category().String(),
			UnitPrice: ln.Product.Price,
			Quantity:  ln.Quantity,
			LineTotal: ln.Value(),
		}
	}
	return out
}

func toCartResponse(s checkout.Summary) CartResponse {
	return CartResponse{
		Items:      toCartLines(s.Lines),
		TotalItems: s.TotalItems,
		TotalValue: s.TotalValue,
		Pricing:    s.Pricing,
	}
}

func toCheckoutResponse(r *checkout.Receipt) CheckoutResponse {
	return CheckoutResponse{
		OrderID:       r.OrderID,
		Items:         toCartLines(r.Lines),
		Pricing:       r.Pricing,
		PurchaseCount: r.PurchaseCount,
		At:            r.At,
	}
}
