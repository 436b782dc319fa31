package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/KMK-tech-v0/fuel/internal/domain"
)

// MovementStore appends to fuel_transactions
type MovementStore struct {
	db *gorm.DB
}

// Insert writes the movement and sets its TransactionID
func (s *MovementStore) Insert(ctx context.Context, movement *domain.FuelMovement) error {
	model := &MovementModel{
		UsageTransitionID:       movement.UsageTransitionID,
		TransactionType:         movement.TransactionType,
		SourceLocationType:      string(movement.Source.Kind),
		SourceLocationID:        movement.Source.ID,
		DestinationLocationType: string(movement.Destination.Kind),
		DestinationLocationID:   movement.Destination.ID,
		FuelTypeID:              movement.FuelTypeID,
		Quantity:                movement.Quantity,
		TransactionDate:         movement.TransactionDate.UTC(),
		FuelPriceID:             movement.FuelPriceID,
		TransportationCost:      movement.Costs.Transportation,
		LoadingUnloadingCost:    movement.Costs.LoadingUnloading,
		OtherCost:               movement.Costs.Other,
		TotalCost:               movement.TotalCost,
		Notes:                   movement.Notes,
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
		return classify("insert movement", err)
	}
	movement.TransactionID = model.TransactionID
	return nil
}
