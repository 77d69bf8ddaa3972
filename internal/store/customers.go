package store

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/soufiyanbenallal/track-app-sub000/internal/models"
)

// ListCustomers returns customers sorted by name. Archived customers are
// excluded unless includeArchived is set.
func (s *Store) ListCustomers(includeArchived bool) ([]models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := loadCollection[models.Customer](s.backend, colCustomers)
	if err != nil {
		return nil, err
	}
	result := make([]models.Customer, 0, len(customers))
	for _, c := range customers {
		if c.IsArchived && !includeArchived {
			continue
		}
		result = append(result, c)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (s *Store) CreateCustomer(in models.CustomerInput) (models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkInput(in); err != nil {
		return models.Customer{}, err
	}

	now := s.now()
	customer := models.Customer{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}

	customers, err := loadCollection[models.Customer](s.backend, colCustomers)
	if err != nil {
		return models.Customer{}, err
	}
	customers = append(customers, customer)
	if err := saveCollection(s.backend, colCustomers, customers); err != nil {
		return models.Customer{}, err
	}
	return customer, nil
}

func (s *Store) UpdateCustomer(id string, patch models.CustomerPatch) (models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := loadCollection[models.Customer](s.backend, colCustomers)
	if err != nil {
		return models.Customer{}, err
	}
	for i, c := range customers {
		if c.ID != id {
			continue
		}
		if patch.Name != nil {
			c.Name = *patch.Name
		}
		if patch.Email != nil {
			c.Email = *patch.Email
		}
		if patch.Phone != nil {
			c.Phone = *patch.Phone
		}
		if patch.IsArchived != nil {
			c.IsArchived = *patch.IsArchived
		}
		c.UpdatedAt = s.now()
		customers[i] = c
		if err := saveCollection(s.backend, colCustomers, customers); err != nil {
			return models.Customer{}, err
		}
		return c, nil
	}
	return models.Customer{}, fmt.Errorf("customer %s: %w", id, ErrNotFound)
}

// DeleteCustomer removes the customer only. Tasks keep their customer id;
// the join resolves it to no customer from then on.
func (s *Store) DeleteCustomer(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := loadCollection[models.Customer](s.backend, colCustomers)
	if err != nil {
		return err
	}
	kept := make([]models.Customer, 0, len(customers))
	for _, c := range customers {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(customers) {
		return nil
	}
	return saveCollection(s.backend, colCustomers, kept)
}
