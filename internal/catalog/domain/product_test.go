package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPhone(t *testing.T, qty int) *Product {
	t.Helper()
	p, err := NewProduct("E1", "Phone", qty, decimal.NewFromInt(25000), ElectronicsDetails{Brand: "Acme", WarrantyMonths: 12})
	require.NoError(t, err)
	return p
}

func TestDecreaseStock_Success(t *testing.T) {
	t.Parallel()

	p := newPhone(t, 10)
	require.NoError(t, p.DecreaseStock(4))
	assert.Equal(t, 6, p.Quantity())

	require.NoError(t, p.DecreaseStock(6))
	assert.Equal(t, 0, p.Quantity())
	assert.False(t, p.InStock())
}

func TestDecreaseStock_InsufficientLeavesQuantity(t *testing.T) {
	t.Parallel()

	p := newPhone(t, 3)
	err := p.DecreaseStock(5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "E1", stockErr.ProductID)
	assert.Equal(t, 5, stockErr.Requested)
	assert.Equal(t, 3, stockErr.Available)
	assert.Equal(t, 3, p.Quantity())
}

func TestDecreaseStock_NonPositive(t *testing.T) {
	t.Parallel()

	p := newPhone(t, 3)
	for _, n := range []int{0, -1} {
		err := p.DecreaseStock(n)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}
	assert.Equal(t, 3, p.Quantity())
}

func TestDescribeAndCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		id       string
		details  Details
		category Category
		label    string
		describe string
	}{
		{"electronics", "E7", ElectronicsDetails{Brand: "Acme", WarrantyMonths: 24}, Electronics, "Electronics", "Brand: Acme, Warranty: 24 months"},
		{"clothing", "C2", ClothingDetails{Size: "M", Color: "Blue"}, Clothing, "Clothing", "Size: M, Color: Blue"},
		{"books", "B3", BookDetails{Author: "Camus", Genre: "Novel"}, Books, "Books", "Author: Camus, Genre: Novel"},
		{"home", "H4", HomeGardenDetails{Material: "Oak", Room: "Kitchen"}, HomeGarden, "Home & Garden", "Material: Oak, For: Kitchen"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := NewProduct(tt.id, "x", 1, decimal.NewFromInt(1), tt.details)
			require.NoError(t, err)
			assert.Equal(t, tt.category, p.Category())
			assert.Equal(t, tt.label, p.Category().String())
			assert.Equal(t, tt.describe, p.Describe())
		})
	}
}

func TestNewProduct_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewProduct("C1", "Shirt", 1, decimal.NewFromInt(1), ElectronicsDetails{})
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, err = NewProduct("E1", "Phone", -1, decimal.NewFromInt(1), ElectronicsDetails{})
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, err = NewProduct("E1", "Phone", 1, decimal.NewFromInt(-1), ElectronicsDetails{})
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, err = NewProduct("X1", "Thing", 1, decimal.NewFromInt(1), ElectronicsDetails{})
	assert.ErrorIs(t, err, ErrUnknownCategoryPrefix)
}

func TestCategoryLookups(t *testing.T) {
	t.Parallel()

	c, err := CategoryFromPrefix("H12")
	require.NoError(t, err)
	assert.Equal(t, HomeGarden, c)
	assert.Equal(t, "H", c.Prefix())

	_, err = CategoryFromPrefix("")
	assert.ErrorIs(t, err, ErrUnknownCategoryPrefix)

	c, ok := ParseCategory("home & garden")
	require.True(t, ok)
	assert.Equal(t, HomeGarden, c)

	_, ok = ParseCategory("All")
	assert.False(t, ok)
}

func TestLineValue(t *testing.T) {
	t.Parallel()

	p := newPhone(t, 5)
	assert.True(t, decimal.NewFromInt(75000).Equal(p.LineValue(3)))
}
