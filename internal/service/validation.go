package service

import (
	"strings"

	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/models"
)

const (
	minPincode = 100000
	maxPincode = 999999
)

// ValidatePlaceOrderRequest checks the request shape and parses the payment method.
func ValidatePlaceOrderRequest(req *models.PlaceOrderRequest) (models.PaymentMethod, error) {
	if req.AddressID <= 0 {
		return "", apperrors.NewValidationError("address_id", "address ID is required")
	}

	method, ok := models.ParsePaymentMethod(req.PaymentType)
	if !ok {
		return "", apperrors.NewValidationError("payment_type", "payment type must be 'cash on delivery' or 'upi'")
	}

	return method, nil
}

// ValidateCreateAddressRequest validates and normalises an address request.
func ValidateCreateAddressRequest(req *models.CreateAddressRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.PhoneNo = strings.TrimSpace(req.PhoneNo)
	req.City = strings.TrimSpace(req.City)
	req.State = strings.TrimSpace(req.State)
	req.Street = strings.TrimSpace(req.Street)
	req.FlatNo = strings.TrimSpace(req.FlatNo)
	req.Landmark = strings.TrimSpace(req.Landmark)

	required := []struct {
		field string
		value string
	}{
		{"name", req.Name},
		{"phone_no", req.PhoneNo},
		{"city", req.City},
		{"state", req.State},
		{"street", req.Street},
		{"flat_no", req.FlatNo},
	}
	for _, r := range required {
		if r.value == "" {
			return apperrors.NewValidationError(r.field, r.field+" is required")
		}
	}

	if req.Pincode < minPincode || req.Pincode > maxPincode {
		return apperrors.NewValidationError("pincode", "pincode must be 6 digits")
	}

	switch req.Type {
	case "":
		req.Type = models.AddressTypeHome
	case models.AddressTypeHome, models.AddressTypeOffice, models.AddressTypeOther:
	default:
		return apperrors.NewValidationError("type", "type must be one of home, office, other")
	}

	return nil
}

// ValidateProductRef checks the item type tag and id.
func ValidateProductRef(kind models.ProductKind, itemID int64) (models.ProductRef, error) {
	if !kind.Valid() {
		return models.ProductRef{}, apperrors.NewValidationError("type", "type must be 'book' or 'material'")
	}
	if itemID <= 0 {
		return models.ProductRef{}, apperrors.NewValidationError("item_id", "item ID is required")
	}
	return models.ProductRef{Kind: kind, ID: itemID}, nil
}

// ValidateUpdateOrderStatusRequest validates a status update request.
func ValidateUpdateOrderStatusRequest(req *models.UpdateOrderStatusRequest) error {
	if req.Status == "" {
		return apperrors.NewValidationError("status", "status is required")
	}
	if !req.Status.Valid() {
		return apperrors.NewValidationError("status", "invalid order status")
	}
	return nil
}

// uniqueIDs drops duplicates and non-positive ids, keeping first-seen order.
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
