package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/address/repository"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"go.uber.org/zap"
)

// MaxAddresses caps the size of one user's address book.
const MaxAddresses = 20

type AddressService struct {
	repo   repository.AddressRepository
	logger *zap.Logger
}

func NewAddressService(repo repository.AddressRepository, logger *zap.Logger) *AddressService {
	return &AddressService{
		repo:   repo,
		logger: logger,
	}
}

// List returns the user's addresses with the default first.
func (s *AddressService) List(ctx context.Context, userID string) ([]*domain.Address, error) {
	addresses, err := s.repo.ListAddresses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	return addresses, nil
}

func (s *AddressService) Get(ctx context.Context, userID string, id int64) (*domain.Address, error) {
	a, err := s.repo.GetAddress(ctx, userID, id)
	if errors.Is(err, repository.ErrAddressNotFound) {
		return nil, domain.AddressNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get address: %w", err)
	}
	return a, nil
}

// Create adds an entry to the address book.
func (s *AddressService) Create(ctx context.Context, userID string, snapshot domain.AddressSnapshot, isDefault bool) (*domain.Address, error) {
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}

	n, err := s.repo.CountAddresses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count addresses: %w", err)
	}
	if n >= MaxAddresses {
		return nil, domain.InvalidAddress(fmt.Sprintf("address book is full (max %d entries)", MaxAddresses))
	}

	a := &domain.Address{
		UserID:          userID,
		AddressSnapshot: snapshot,
		IsDefault:       isDefault,
	}
	if err := s.repo.CreateAddress(ctx, a); err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}

	s.logger.Info("address created",
		zap.String("user_id", userID),
		zap.Int64("address_id", a.ID),
		zap.Bool("is_default", a.IsDefault))
	return a, nil
}

// Update replaces the fields of an existing entry. Orders placed earlier
// keep the snapshot they were created with.
func (s *AddressService) Update(ctx context.Context, userID string, id int64, snapshot domain.AddressSnapshot, isDefault bool) (*domain.Address, error) {
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}

	a := &domain.Address{
		ID:              id,
		UserID:          userID,
		AddressSnapshot: snapshot,
		IsDefault:       isDefault,
	}
	err := s.repo.UpdateAddress(ctx, a)
	if errors.Is(err, repository.ErrAddressNotFound) {
		return nil, domain.AddressNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("update address: %w", err)
	}
	return a, nil
}

func (s *AddressService) Delete(ctx context.Context, userID string, id int64) error {
	err := s.repo.DeleteAddress(ctx, userID, id)
	if errors.Is(err, repository.ErrAddressNotFound) {
		return domain.AddressNotFound(id)
	}
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}

	s.logger.Info("address deleted",
		zap.String("user_id", userID),
		zap.Int64("address_id", id))
	return nil
}
