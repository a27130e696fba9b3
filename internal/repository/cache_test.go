package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/models"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisOrderCache_GetSet(t *testing.T) {
	_, client := newTestRedis(t)
	cache := NewRedisOrderCache(client, time.Minute)
	ctx := context.Background()

	got, err := cache.Get(ctx, "abcd1234")
	if err != nil || got != nil {
		t.Fatalf("Expected miss, got %+v, %v", got, err)
	}

	order := &models.Order{
		ID:         "abcd1234",
		UserID:     42,
		TotalPrice: decimal.RequireFromString("230.00"),
		Status:     models.OrderStatusPending,
		Items: []models.OrderItem{
			{ID: 1, Product: models.ProductRef{Kind: models.ProductKindBook, ID: 5}, Quantity: 2, Price: decimal.NewFromInt(90)},
		},
	}
	if err := cache.Set(ctx, order); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err = cache.Get(ctx, "abcd1234")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.UserID != 42 || !got.TotalPrice.Equal(order.TotalPrice) {
		t.Errorf("Unexpected cached order: %+v", got)
	}
	if len(got.Items) != 1 || got.Items[0].Product.Kind != models.ProductKindBook {
		t.Errorf("Expected cached item to keep its product ref, got %+v", got.Items)
	}

	if err := cache.Delete(ctx, "abcd1234"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := cache.Get(ctx, "abcd1234"); got != nil {
		t.Error("Expected order to be evicted")
	}
}

func TestRedisOrderCache_Expiry(t *testing.T) {
	mr, client := newTestRedis(t)
	cache := NewRedisOrderCache(client, time.Minute)
	ctx := context.Background()

	if err := cache.Set(ctx, &models.Order{ID: "abcd1234"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if got, _ := cache.Get(ctx, "abcd1234"); got != nil {
		t.Error("Expected cached order to expire")
	}
}

func TestRedisOrderCache_UserOrders(t *testing.T) {
	_, client := newTestRedis(t)
	cache := NewRedisOrderCache(client, 0)
	ctx := context.Background()

	orders := []*models.Order{{ID: "aaaaaaaa", UserID: 42}, {ID: "bbbbbbbb", UserID: 42}}
	if err := cache.SetByUserID(ctx, 42, orders); err != nil {
		t.Fatalf("SetByUserID: %v", err)
	}

	got, err := cache.GetByUserID(ctx, 42)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 orders, got %d", len(got))
	}

	if err := cache.InvalidateByUserID(ctx, 42); err != nil {
		t.Fatalf("InvalidateByUserID: %v", err)
	}
	if got, _ := cache.GetByUserID(ctx, 42); got != nil {
		t.Errorf("Expected invalidated list, got %d orders", len(got))
	}
}

func TestRedisIdempotencyStore(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisIdempotencyStore(client, time.Hour)
	ctx := context.Background()

	ok, err := store.Acquire(ctx, "req-1")
	if err != nil || !ok {
		t.Fatalf("Expected first acquire to succeed, got %v, %v", ok, err)
	}

	ok, err = store.Acquire(ctx, "req-1")
	if err != nil || ok {
		t.Fatalf("Expected duplicate acquire to fail, got %v, %v", ok, err)
	}

	if err := store.Release(ctx, "req-1"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if ok, _ := store.Acquire(ctx, "req-1"); !ok {
		t.Error("Expected acquire after release to succeed")
	}

	mr.FastForward(2 * time.Hour)
	if ok, _ := store.Acquire(ctx, "req-1"); !ok {
		t.Error("Expected acquire after expiry to succeed")
	}
}

func TestRedisIdempotencyStore_Unavailable(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisIdempotencyStore(client, time.Hour)

	mr.Close()

	if _, err := store.Acquire(context.Background(), "req-1"); err == nil {
		t.Error("Expected error when redis is down")
	}
}
