package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/KMK-tech-v0/fuel/internal/domain"
)

// InventoryStore implements domain.InventoryStore on the transaction it was created with
type InventoryStore struct {
	db *gorm.DB
}

func keyScope(key domain.InventoryKey) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("fuel_type_id = ? AND location_type = ? AND location_id = ?",
			key.FuelTypeID, string(key.Location.Kind), key.Location.ID)
	}
}

// Lock reads the record with SELECT ... FOR UPDATE
func (s *InventoryStore) Lock(ctx context.Context, key domain.InventoryKey) (*domain.InventoryRecord, error) {
	var model InventoryModel
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(keyScope(key)).
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("lock inventory", err)
	}
	return toInventoryRecord(&model), nil
}

// Credit upserts the record, adding quantity to any existing stock
func (s *InventoryStore) Credit(ctx context.Context, key domain.InventoryKey, quantity decimal.Decimal) error {
	now := time.Now().UTC()
	model := &InventoryModel{
		FuelTypeID:   key.FuelTypeID,
		LocationType: string(key.Location.Kind),
		LocationID:   key.Location.ID,
		CurrentStock: quantity,
		LastUpdated:  now,
	}

	err := s.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "fuel_type_id"}, {Name: "location_type"}, {Name: "location_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"current_stock": gorm.Expr("fuel_inventory.current_stock + excluded.current_stock"),
				"last_updated":  gorm.Expr("excluded.last_updated"),
			}),
		}).
		Create(model).Error
	return classify("credit inventory", err)
}

// Debit subtracts quantity only where current_stock >= quantity
func (s *InventoryStore) Debit(ctx context.Context, key domain.InventoryKey, quantity decimal.Decimal) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&InventoryModel{}).
		Scopes(keyScope(key)).
		Where("current_stock >= ?", quantity).
		Updates(map[string]interface{}{
			"current_stock": gorm.Expr("current_stock - ?", quantity),
			"last_updated":  time.Now().UTC(),
		})
	if result.Error != nil {
		return false, classify("debit inventory", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func toInventoryRecord(m *InventoryModel) *domain.InventoryRecord {
	return &domain.InventoryRecord{
		InventoryID: m.InventoryID,
		Key: domain.InventoryKey{
			FuelTypeID: m.FuelTypeID,
			Location:   domain.Location{Kind: domain.LocationKind(m.LocationType), ID: m.LocationID},
		},
		CurrentStock: m.CurrentStock,
		LastUpdated:  m.LastUpdated,
	}
}
