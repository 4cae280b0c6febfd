package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// AddressService адресная книга пользователя. У пользователя не больше одного адреса по умолчанию.
type AddressService struct {
	addresses repository.AddressRepository
	tx        repository.TxManager
}

func NewAddressService(addresses repository.AddressRepository, tx repository.TxManager) *AddressService {
	return &AddressService{addresses: addresses, tx: tx}
}

// AddressPatch частичное обновление адреса
type AddressPatch struct {
	AddressLine *string
	City        *string
	State       *string
	PostalCode  *string
	Country     *string
	IsDefault   *bool
}

func validAddress(a domain.Address) bool {
	return a.AddressLine != "" && a.City != "" && a.Country != ""
}

func trimAddress(a *domain.Address) {
	a.AddressLine = strings.TrimSpace(a.AddressLine)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.TrimSpace(a.Country)
}

// Create сохраняет адрес; первый адрес пользователя становится адресом по умолчанию
func (s *AddressService) Create(ctx context.Context, p domain.Principal, a domain.Address) (*domain.Address, error) {
	trimAddress(&a)
	if !validAddress(a) {
		return nil, ErrInvalidInput
	}
	a.ID = uuid.Nil
	a.UserID = p.UserID
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.addresses.ListByUser(ctx, p.UserID)
		if err != nil {
			return err
		}
		if len(existing) == 0 {
			a.IsDefault = true
		}
		if a.IsDefault {
			if err := s.addresses.ClearDefault(ctx, p.UserID); err != nil {
				return err
			}
		}
		return s.addresses.Create(ctx, &a)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AddressService) List(ctx context.Context, p domain.Principal) ([]domain.Address, error) {
	return s.addresses.ListByUser(ctx, p.UserID)
}

// owned чужой адрес выглядит как отсутствующий
func (s *AddressService) owned(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Address, error) {
	if id == uuid.Nil {
		return nil, ErrInvalidInput
	}
	a, err := s.addresses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != p.UserID {
		return nil, ErrNotFound
	}
	return a, nil
}

func (s *AddressService) Update(ctx context.Context, p domain.Principal, id uuid.UUID, patch AddressPatch) (*domain.Address, error) {
	var updated *domain.Address
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		a, err := s.owned(ctx, p, id)
		if err != nil {
			return err
		}
		set := func(dst *string, src *string) {
			if src != nil {
				*dst = *src
			}
		}
		set(&a.AddressLine, patch.AddressLine)
		set(&a.City, patch.City)
		set(&a.State, patch.State)
		set(&a.PostalCode, patch.PostalCode)
		set(&a.Country, patch.Country)
		trimAddress(a)
		if !validAddress(*a) {
			return ErrInvalidInput
		}
		if patch.IsDefault != nil {
			if *patch.IsDefault && !a.IsDefault {
				if err := s.addresses.ClearDefault(ctx, p.UserID); err != nil {
					return err
				}
			}
			a.IsDefault = *patch.IsDefault
		}
		if err := s.addresses.Update(ctx, a); err != nil {
			return err
		}
		updated = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete адрес, на который ссылается заказ, удалить нельзя (ErrConflict)
func (s *AddressService) Delete(ctx context.Context, p domain.Principal, id uuid.UUID) error {
	if _, err := s.owned(ctx, p, id); err != nil {
		return err
	}
	return s.addresses.Delete(ctx, id)
}
