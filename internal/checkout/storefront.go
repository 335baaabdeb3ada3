package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/kolshi/internal/cart"
	catalogsvc "github.com/Skotchmaster/kolshi/internal/catalog/service"
	"github.com/Skotchmaster/kolshi/internal/pricing"
	"github.com/Skotchmaster/kolshi/internal/session"
	"github.com/Skotchmaster/kolshi/pkg/logging"
)

var ErrEmptyCart = errors.New("cart is empty")

const (
	TopicCart     = "cart_events"
	TopicCheckout = "checkout_events"

	publishTimeout = 5 * time.Second
)

// Publisher delivers domain events. Failures never fail the operation that
// produced the event.
type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type NopPublisher struct{}

func (NopPublisher) PublishEvent(context.Context, string, string, any) error { return nil }

type Summary struct {
	TotalItems int             `json:"total_items"`
	TotalValue decimal.Decimal `json:"total_value"`
	Lines      []cart.Line     `json:"-"`
	Pricing    pricing.Result  `json:"pricing"`
}

type Receipt struct {
	OrderID       uuid.UUID      `json:"order_id"`
	Lines         []cart.Line    `json:"-"`
	Pricing       pricing.Result `json:"pricing"`
	PurchaseCount int            `json:"purchase_count"`
	At            time.Time      `json:"at"`
}

// Storefront serializes every mutation of stock, carts and purchase counts.
type Storefront struct {
	Catalog *catalogsvc.Catalog
	Events  Publisher

	mu  sync.Mutex
	now func() time.Time
}

func New(catalog *catalogsvc.Catalog, events Publisher) *Storefront {
	if events == nil {
		events = NopPublisher{}
	}
	return &Storefront{
		Catalog: catalog,
		Events:  events,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// AddToCart takes quantity units out of stock and puts them in the session
// cart. Either both happen or neither.
func (s *Storefront) AddToCart(ctx context.Context, sess *session.Session, productID string, quantity int) (cart.Line, error) {
	l := logging.FromContext(ctx).With("svc", "storefront.add_to_cart", "session_id", sess.ID, "product_id", productID)

	if quantity <= 0 {
		return cart.Line{}, errors.Wrapf(cart.ErrInvalidQuantity, "quantity %d", quantity)
	}

	s.mu.Lock()
	p, err := s.Catalog.Reserve(productID, quantity)
	if err != nil {
		s.mu.Unlock()
		l.Warn("add_to_cart_rejected", "quantity", quantity, "error", err.Error())
		return cart.Line{}, err
	}
	if err := sess.Cart.AddProduct(p, quantity); err != nil {
		s.mu.Unlock()
		l.Error("add_to_cart_failed", "quantity", quantity, "error", err.Error())
		return cart.Line{}, err
	}
	line := cart.Line{Product: p, Quantity: sess.Cart.Quantity(productID)}
	remaining := p.Quantity()
	s.mu.Unlock()

	l.Info("add_to_cart_success", "quantity", quantity, "in_cart", line.Quantity, "stock_left", remaining)
	s.publish(ctx, TopicCart, sess, map[string]any{
		"type":      "cart_item_added",
		"sessionID": sess.ID.String(),
		"username":  sess.User.Username,
		"productID": productID,
		"quantity":  quantity,
	})
	return line, nil
}

// Quote prices the current cart with the user's current purchase count.
func (s *Storefront) Quote(sess *session.Session) pricing.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.ComputeFor(sess.Cart.Snapshot(), sess.User)
}

func (s *Storefront) Summary(sess *session.Session) Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := sess.Cart.Snapshot()
	return Summary{
		TotalItems: cart.TotalItems(lines),
		TotalValue: cart.TotalValue(lines),
		Lines:      lines,
		Pricing:    pricing.ComputeFor(lines, sess.User),
	}
}

// Checkout prices the cart with the pre-increment purchase count, empties the
// cart and then records the purchase.
func (s *Storefront) Checkout(ctx context.Context, sess *session.Session) (*Receipt, error) {
	l := logging.FromContext(ctx).With("svc", "storefront.checkout", "session_id", sess.ID)

	s.mu.Lock()
	lines := sess.Cart.Snapshot()
	if len(lines) == 0 {
		s.mu.Unlock()
		l.Warn("checkout_rejected", "reason", "empty cart")
		return nil, ErrEmptyCart
	}
	result := pricing.ComputeFor(lines, sess.User)
	sess.Cart.Clear()
	sess.User.IncrementPurchaseCount()
	receipt := &Receipt{
		OrderID:       uuid.New(),
		Lines:         lines,
		Pricing:       result,
		PurchaseCount: sess.User.PurchaseCount(),
		At:            s.now(),
	}
	s.mu.Unlock()

	l.Info("checkout_success",
		"order_id", receipt.OrderID,
		"subtotal", result.Subtotal.String(),
		"discount", result.DiscountAmount.String(),
		"rule", string(result.AppliedRule),
		"final_total", result.FinalTotal.String(),
	)

	items := make([]map[string]any, 0, len(lines))
	for _, ln := range lines {
		items = append(items, map[string]any{
			"productID": ln.Product.ID,
			"quantity":  ln.Quantity,
			"unitPrice": ln.Product.Price.String(),
		})
	}
	s.publish(ctx, TopicCheckout, sess, map[string]any{
		"type":        "checkout_completed",
		"orderID":     receipt.OrderID.String(),
		"username":    sess.User.Username,
		"items":       items,
		"subtotal":    result.Subtotal.String(),
		"discount":    result.DiscountAmount.String(),
		"rule":        string(result.AppliedRule),
		"finalTotal":  result.FinalTotal.String(),
		"purchaseNum": receipt.PurchaseCount,
	})
	return receipt, nil
}

func (s *Storefront) publish(ctx context.Context, topic string, sess *session.Session, event map[string]any) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := s.Events.PublishEvent(ctx, topic, sess.User.Username, event); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "topic", topic, "type", event["type"], "error", err.Error())
	}
}
