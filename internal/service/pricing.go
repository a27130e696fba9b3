package service

import (
	"github.com/shopspring/decimal"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/models"
)

// OrderTotal is the priced form of a set of cart lines.
type OrderTotal struct {
	Items []models.OrderItem
	Total decimal.Decimal
}

// PriceCartLines snapshots the discounted unit price of every line and sums
// quantity × unit price. Items are returned without an order id.
func PriceCartLines(lines []*models.CartLine) OrderTotal {
	result := OrderTotal{
		Items: make([]models.OrderItem, 0, len(lines)),
		Total: decimal.Zero,
	}

	for _, line := range lines {
		item := models.OrderItem{
			Product:  line.Product.Ref(),
			Name:     line.Product.DisplayName(),
			Quantity: line.Quantity,
			Price:    line.UnitPrice(),
		}
		result.Items = append(result.Items, item)
		result.Total = result.Total.Add(item.Total())
	}

	return result
}

// PercentageChange compares current with previous, rounded to 2 places.
// With no previous revenue the change is 100 if anything was earned, else 0.
func PercentageChange(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		if current.GreaterThan(decimal.Zero) {
			return decimal.NewFromInt(100)
		}
		return decimal.Zero
	}

	return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(2)
}
