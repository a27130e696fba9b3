package service

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-marketplace-service/internal/repository"
)

// AddressService manages shipping addresses.
type AddressService struct {
	repo   repository.AddressRepository
	logger *logging.LoggerV2
}

func NewAddressService(repo repository.AddressRepository) *AddressService {
	return &AddressService{
		repo:   repo,
		logger: logging.NewLoggerV2("address-service"),
	}
}

func (s *AddressService) CreateAddress(ctx context.Context, userID int64, req *models.CreateAddressRequest) (*models.Address, error) {
	if err := ValidateCreateAddressRequest(req); err != nil {
		return nil, err
	}

	addr := &models.Address{
		UserID:    userID,
		Type:      req.Type,
		Name:      req.Name,
		PhoneNo:   req.PhoneNo,
		Pincode:   req.Pincode,
		City:      req.City,
		State:     req.State,
		Street:    req.Street,
		FlatNo:    req.FlatNo,
		Landmark:  req.Landmark,
		IsDefault: req.IsDefault,
	}

	if err := s.repo.CreateAddress(ctx, addr); err != nil {
		return nil, err
	}

	s.logger.Info("Address created", logging.Fields{
		"user_id":    userID,
		"address_id": addr.ID,
		"is_default": addr.IsDefault,
	})

	return addr, nil
}

func (s *AddressService) ListAddresses(ctx context.Context, userID int64) ([]*models.Address, error) {
	return s.repo.ListAddresses(ctx, userID)
}

func (s *AddressService) GetAddress(ctx context.Context, userID, addressID int64) (*models.Address, error) {
	return s.repo.GetAddress(ctx, userID, addressID)
}
