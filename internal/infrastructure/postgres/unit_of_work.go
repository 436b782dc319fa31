package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/KMK-tech-v0/fuel/internal/domain"
	"github.com/KMK-tech-v0/fuel/pkg/database"
)

// UnitOfWork runs domain transactions on a database.Client
type UnitOfWork struct {
	client *database.Client
}

// NewUnitOfWork creates a UnitOfWork
func NewUnitOfWork(client *database.Client) *UnitOfWork {
	return &UnitOfWork{client: client}
}

// Do implements domain.UnitOfWork. Errors from fn are returned unchanged; a
// failing commit or begin is classified.
func (u *UnitOfWork) Do(ctx context.Context, unit string, fn func(tx domain.Tx) error) error {
	var fnErr error
	err := u.client.Transaction(ctx, unit, func(db *gorm.DB) error {
		fnErr = fn(&txStores{
			inventory: &InventoryStore{db: db},
			movements: &MovementStore{db: db},
			prices:    &PriceStore{db: db},
		})
		return fnErr
	})
	if err != nil && fnErr == nil {
		return classify("unit of work "+unit, err)
	}
	return err
}

type txStores struct {
	inventory *InventoryStore
	movements *MovementStore
	prices    *PriceStore
}

func (t *txStores) Inventory() domain.InventoryStore { return t.inventory }
func (t *txStores) Movements() domain.MovementStore  { return t.movements }
func (t *txStores) Prices() domain.PriceStore        { return t.prices }
