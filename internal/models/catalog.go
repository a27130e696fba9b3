package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductKind tags which catalog a product belongs to.
type ProductKind string

const (
	ProductKindBook     ProductKind = "book"
	ProductKindMaterial ProductKind = "material"
)

// Valid reports whether k names a purchasable catalog.
func (k ProductKind) Valid() bool {
	return k == ProductKindBook || k == ProductKindMaterial
}

// ProductRef identifies a product without loading it.
type ProductRef struct {
	Kind ProductKind `json:"type"`
	ID   int64       `json:"item_id"`
}

// Product is a purchasable catalog entry. It is implemented only by *Book and
// *Material, so a cart line or order item always references exactly one of them.
type Product interface {
	Ref() ProductRef
	DisplayName() string
	ListPrice() decimal.Decimal
	DiscountPercentage() decimal.Decimal
	DiscountedPrice() decimal.Decimal
	product()
}

var hundred = decimal.NewFromInt(100)

// DiscountedPrice applies a percentage discount to price and rounds to two
// decimal places. A zero discount returns price unchanged.
func DiscountedPrice(price, discountPercentage decimal.Decimal) decimal.Decimal {
	if discountPercentage.IsZero() {
		return price
	}
	return price.Mul(hundred.Sub(discountPercentage)).Div(hundred).Round(2)
}

type Availability string

const (
	AvailabilityInStock    Availability = "in stock"
	AvailabilityOutOfStock Availability = "out of stock"
)

type Book struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	Discount          decimal.Decimal `json:"discount_percentage"`
	Description       string          `json:"description,omitempty"`
	AdditionalDetails string          `json:"additional_details,omitempty"`
	Availability      Availability    `json:"availability"`
	CreatedAt         time.Time       `json:"created_on"`
}

func (b *Book) Ref() ProductRef                     { return ProductRef{Kind: ProductKindBook, ID: b.ID} }
func (b *Book) DisplayName() string                 { return b.Name }
func (b *Book) ListPrice() decimal.Decimal          { return b.Price }
func (b *Book) DiscountPercentage() decimal.Decimal { return b.Discount }
func (b *Book) DiscountedPrice() decimal.Decimal    { return DiscountedPrice(b.Price, b.Discount) }
func (b *Book) product()                            {}

type Material struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	SupplierName string          `json:"supplier_name"`
	Title        string          `json:"title,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Discount     decimal.Decimal `json:"discount_percentage"`
	Description  string          `json:"description,omitempty"`
	Availability Availability    `json:"availability"`
	CreatedAt    time.Time       `json:"created_on"`
}

func (m *Material) Ref() ProductRef                     { return ProductRef{Kind: ProductKindMaterial, ID: m.ID} }
func (m *Material) DisplayName() string                 { return m.Name }
func (m *Material) ListPrice() decimal.Decimal          { return m.Price }
func (m *Material) DiscountPercentage() decimal.Decimal { return m.Discount }
func (m *Material) DiscountedPrice() decimal.Decimal    { return DiscountedPrice(m.Price, m.Discount) }
func (m *Material) product()                            {}

// ProductView is the wire representation of a product inside carts and orders.
type ProductView struct {
	Type               ProductKind     `json:"type"`
	ItemID             int64           `json:"item_id"`
	Name               string          `json:"name"`
	Price              decimal.Decimal `json:"price"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	DiscountedPrice    decimal.Decimal `json:"discounted_price"`
	Availability       Availability    `json:"availability"`
	SupplierName       string          `json:"supplier_name,omitempty"`
}

// ViewProduct renders p for API responses.
func ViewProduct(p Product) ProductView {
	view := ProductView{
		Type:               p.Ref().Kind,
		ItemID:             p.Ref().ID,
		Name:               p.DisplayName(),
		Price:              p.ListPrice(),
		DiscountPercentage: p.DiscountPercentage(),
		DiscountedPrice:    p.DiscountedPrice(),
	}

	switch v := p.(type) {
	case *Book:
		view.Availability = v.Availability
	case *Material:
		view.Availability = v.Availability
		view.SupplierName = v.SupplierName
	}

	return view
}
