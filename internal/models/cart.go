package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is a pending purchase intent for one product, owned by a user.
type CartLine struct {
	ID        int64
	UserID    int64
	Product   Product
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UnitPrice is the discounted price of the referenced product at read time.
func (l *CartLine) UnitPrice() decimal.Decimal {
	return l.Product.DiscountedPrice()
}

// LineTotal is UnitPrice multiplied by Quantity.
func (l *CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartLineView is the wire representation of a cart line.
type CartLineView struct {
	ID        int64           `json:"id"`
	Quantity  int             `json:"quantity"`
	CreatedAt time.Time       `json:"created_on"`
	LineTotal decimal.Decimal `json:"line_total"`
	ProductView
}

// CartView is the wire representation of a user's cart.
type CartView struct {
	Items    []CartLineView  `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// ViewCart renders lines and their subtotal.
func ViewCart(lines []*CartLine) CartView {
	view := CartView{Items: make([]CartLineView, 0, len(lines)), Subtotal: decimal.Zero}
	for _, l := range lines {
		total := l.LineTotal()
		view.Items = append(view.Items, CartLineView{
			ID:          l.ID,
			Quantity:    l.Quantity,
			CreatedAt:   l.CreatedAt,
			LineTotal:   total,
			ProductView: ViewProduct(l.Product),
		})
		view.Subtotal = view.Subtotal.Add(total)
	}
	return view
}

// MaxCartQuantity caps the units of one product a cart line may hold.
const MaxCartQuantity = 1000

// AddToCartRequest adds quantity units of a product to the caller's cart.
type AddToCartRequest struct {
	Type     ProductKind `json:"type" binding:"required"`
	ItemID   int64       `json:"item_id" binding:"required"`
	Quantity int         `json:"quantity"`
}

// UpdateCartQuantityRequest sets the quantity of an existing line; zero or less removes it.
// Quantity must be present so an omitted field is not read as zero.
type UpdateCartQuantityRequest struct {
	Type     ProductKind `json:"type" binding:"required"`
	ItemID   int64       `json:"item_id" binding:"required"`
	Quantity *int        `json:"quantity" binding:"required"`
}

type RemoveFromCartRequest struct {
	Type   ProductKind `json:"type" binding:"required"`
	ItemID int64       `json:"item_id" binding:"required"`
}
