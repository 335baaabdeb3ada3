// Package pricing computes the discount applied to a cart at checkout.
//
// Two rules exist: a 20% category bonus when the cart holds at least three
// Electronics or three Clothing units, and a 10% first-purchase discount for
// users without a completed checkout. Only the larger of the two applies.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/kolshi/internal/cart"
	"github.com/Skotchmaster/kolshi/internal/catalog/domain"
)

type Rule string

const (
	RuleNone          Rule = ""
	RuleCategory      Rule = "category"
	RuleFirstPurchase Rule = "firstPurchase"
)

const categoryThreshold = 3

var (
	categoryRate      = decimal.New(20, -2)
	firstPurchaseRate = decimal.New(10, -2)
)

// Customer is the part of a user the engine needs.
type Customer interface {
	PurchaseCount() int
}

// Result reports every rule, including the ones that lost.
type Result struct {
	Subtotal decimal.Decimal `json:"subtotal"`

	ElectronicsQty   int             `json:"electronics_qty"`
	ClothingQty      int             `json:"clothing_qty"`
	CategoryEligible bool            `json:"category_eligible"`
	CategoryDiscount decimal.Decimal `json:"category_discount"`

	FirstPurchaseEligible bool            `json:"first_purchase_eligible"`
	FirstPurchaseDiscount decimal.Decimal `json:"first_purchase_discount"`

	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalTotal     decimal.Decimal `json:"final_total"`
	AppliedRule    Rule            `json:"applied_rule"`
}

// Compute is pure: it reads the snapshot and the purchase count and nothing else.
func Compute(lines []cart.Line, purchaseCount int) Result {
	res := Result{
		Subtotal:              decimal.Zero,
		CategoryDiscount:      decimal.Zero,
		FirstPurchaseDiscount: decimal.Zero,
		DiscountAmount:        decimal.Zero,
	}

	for _, l := range lines {
		res.Subtotal = res.Subtotal.Add(l.Value())
		switch l.Product.Category() {
		case domain.Electronics:
			res.ElectronicsQty += l.Quantity
		case domain.Clothing:
			res.ClothingQty += l.Quantity
		}
	}

	res.CategoryEligible = res.ElectronicsQty >= categoryThreshold || res.ClothingQty >= categoryThreshold
	if res.CategoryEligible {
		res.CategoryDiscount = res.Subtotal.Mul(categoryRate)
	}

	res.FirstPurchaseEligible = purchaseCount < 1
	if res.FirstPurchaseEligible {
		res.FirstPurchaseDiscount = res.Subtotal.Mul(firstPurchaseRate)
	}

	switch {
	case res.CategoryDiscount.IsPositive() && res.CategoryDiscount.GreaterThanOrEqual(res.FirstPurchaseDiscount):
		res.DiscountAmount = res.CategoryDiscount
		res.AppliedRule = RuleCategory
	case res.FirstPurchaseDiscount.IsPositive():
		res.DiscountAmount = res.FirstPurchaseDiscount
		res.AppliedRule = RuleFirstPurchase
	}

	if res.DiscountAmount.GreaterThan(res.Subtotal) {
		res.DiscountAmount = res.Subtotal
	}
	res.FinalTotal = res.Subtotal.Sub(res.DiscountAmount)
	if res.FinalTotal.IsNegative() {
		res.FinalTotal = decimal.Zero
	}
	return res
}

func ComputeFor(lines []cart.Line, c Customer) Result {
	return Compute(lines, c.PurchaseCount())
}
