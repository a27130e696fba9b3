package service

import (
	"context"
	"testing"

	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/models"
)

func TestCartService_AddToCart(t *testing.T) {
	f := newCheckoutFixture()
	svc := NewCartService(f.store)
	ctx := context.Background()

	created, err := svc.AddToCart(ctx, another, &models.AddToCartRequest{Type: models.ProductKindMaterial, ItemID: 20})
	if err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if !created {
		t.Error("Expected a new line")
	}

	created, err = svc.AddToCart(ctx, another, &models.AddToCartRequest{Type: models.ProductKindMaterial, ItemID: 20, Quantity: 3})
	if err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if created {
		t.Error("Expected existing line to be incremented")
	}

	line, err := f.store.GetCartLine(ctx, another, f.matB.Ref())
	if err != nil {
		t.Fatalf("GetCartLine: %v", err)
	}
	if line.Quantity != 4 {
		t.Errorf("Expected quantity 1+3=4, got %d", line.Quantity)
	}
}

func TestCartService_AddToCartErrors(t *testing.T) {
	tests := []struct {
		name  string
		req   models.AddToCartRequest
		check func(error) bool
	}{
		{"unknown product", models.AddToCartRequest{Type: models.ProductKindBook, ItemID: 999}, apperrors.IsNotFound},
		{"bad type", models.AddToCartRequest{Type: "course", ItemID: 10}, isValidation},
		{"negative quantity", models.AddToCartRequest{Type: models.ProductKindBook, ItemID: 10, Quantity: -1}, isValidation},
		{"quantity over limit", models.AddToCartRequest{Type: models.ProductKindBook, ItemID: 10, Quantity: models.MaxCartQuantity + 1}, isValidation},
		{"merged quantity over limit", models.AddToCartRequest{Type: models.ProductKindBook, ItemID: 10, Quantity: models.MaxCartQuantity - 1}, isValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewCartService(newCheckoutFixture().store)
			if _, err := svc.AddToCart(context.Background(), buyer, &tt.req); !tt.check(err) {
				t.Errorf("Unexpected error %v", err)
			}
		})
	}
}

func TestCartService_AddToCartUpToLimit(t *testing.T) {
	f := newCheckoutFixture()
	svc := NewCartService(f.store)
	ctx := context.Background()

	// bookA already holds 2 units.
	if _, err := svc.AddToCart(ctx, buyer, &models.AddToCartRequest{Type: models.ProductKindBook, ItemID: 10, Quantity: models.MaxCartQuantity - 2}); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	line, _ := f.store.GetCartLine(ctx, buyer, f.bookA.Ref())
	if line.Quantity != models.MaxCartQuantity {
		t.Errorf("Expected quantity %d, got %d", models.MaxCartQuantity, line.Quantity)
	}

	_, err := svc.AddToCart(ctx, buyer, &models.AddToCartRequest{Type: models.ProductKindBook, ItemID: 10})
	if !isValidation(err) {
		t.Errorf("Expected validation error past the limit, got %v", err)
	}
	line, _ = f.store.GetCartLine(ctx, buyer, f.bookA.Ref())
	if line.Quantity != models.MaxCartQuantity {
		t.Errorf("Expected quantity to stay at %d, got %d", models.MaxCartQuantity, line.Quantity)
	}
}

func TestCartService_GetCart(t *testing.T) {
	f := newCheckoutFixture()
	svc := NewCartService(f.store)

	view, err := svc.GetCart(context.Background(), buyer)
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(view.Items) != 3 {
		t.Fatalf("Expected 3 lines, got %d", len(view.Items))
	}
	// 90×2 + 50×1 + 30×5
	if !view.Subtotal.Equal(dec("380")) {
		t.Errorf("Expected subtotal 380, got %s", view.Subtotal)
	}
}

func TestCartService_UpdateQuantity(t *testing.T) {
	f := newCheckoutFixture()
	svc := NewCartService(f.store)
	ctx := context.Background()

	if err := svc.UpdateQuantity(ctx, buyer, &models.UpdateCartQuantityRequest{Type: models.ProductKindBook, ItemID: 10, Quantity: intPtr(7)}); err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	line, _ := f.store.GetCartLine(ctx, buyer, f.bookA.Ref())
	if line.Quantity != 7 {
		t.Errorf("Expected quantity 7, got %d", line.Quantity)
	}

	if err := svc.UpdateQuantity(ctx, buyer, &models.UpdateCartQuantityRequest{Type: models.ProductKindBook, ItemID: 10, Quantity: intPtr(0)}); err != nil {
		t.Fatalf("UpdateQuantity to zero: %v", err)
	}
	if _, err := f.store.GetCartLine(ctx, buyer, f.bookA.Ref()); !apperrors.IsNotFound(err) {
		t.Errorf("Expected line removed at zero quantity, got %v", err)
	}

	err := svc.UpdateQuantity(ctx, buyer, &models.UpdateCartQuantityRequest{Type: models.ProductKindBook, ItemID: 10, Quantity: intPtr(1)})
	if !apperrors.IsNotFound(err) {
		t.Errorf("Expected not found for removed line, got %v", err)
	}
}

func TestCartService_UpdateQuantityRejects(t *testing.T) {
	tests := []struct {
		name     string
		quantity *int
	}{
		{"missing quantity", nil},
		{"over limit", intPtr(models.MaxCartQuantity + 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCheckoutFixture()
			svc := NewCartService(f.store)
			ctx := context.Background()

			err := svc.UpdateQuantity(ctx, buyer, &models.UpdateCartQuantityRequest{Type: models.ProductKindBook, ItemID: 10, Quantity: tt.quantity})
			if !isValidation(err) {
				t.Fatalf("Expected validation error, got %v", err)
			}

			line, err := f.store.GetCartLine(ctx, buyer, f.bookA.Ref())
			if err != nil {
				t.Fatalf("Expected line to survive a rejected update, got %v", err)
			}
			if line.Quantity != 2 {
				t.Errorf("Expected quantity 2, got %d", line.Quantity)
			}
		})
	}
}

func TestCartService_RemoveFromCart(t *testing.T) {
	f := newCheckoutFixture()
	svc := NewCartService(f.store)
	ctx := context.Background()

	if err := svc.RemoveFromCart(ctx, buyer, &models.RemoveFromCartRequest{Type: models.ProductKindMaterial, ItemID: 20}); err != nil {
		t.Fatalf("RemoveFromCart: %v", err)
	}
	if got := f.store.cartIDs(buyer); len(got) != 2 {
		t.Errorf("Expected 2 lines left, got %v", got)
	}

	err := svc.RemoveFromCart(ctx, buyer, &models.RemoveFromCartRequest{Type: models.ProductKindMaterial, ItemID: 20})
	if !apperrors.IsNotFound(err) {
		t.Errorf("Expected not found on second removal, got %v", err)
	}
}

func intPtr(v int) *int { return &v }
