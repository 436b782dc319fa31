package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/KMK-tech-v0/fuel/internal/domain"
)

// PriceStore appends to fuel_prices and price_fluctuations
type PriceStore struct {
	db *gorm.DB
}

// LockFuelType takes a row lock on fuel_types. A missing row is ErrUnknownReference.
func (s *PriceStore) LockFuelType(ctx context.Context, fuelTypeID int64) error {
	var model FuelTypeModel
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("fuel_type_id").
		Where("fuel_type_id = ?", fuelTypeID).
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("fuel type %d: %w", fuelTypeID, domain.ErrUnknownReference)
	}
	return classify("lock fuel type", err)
}

// Get loads a price. A missing row is ErrUnknownReference.
func (s *PriceStore) Get(ctx context.Context, fuelPriceID int64) (*domain.FuelPriceEntry, error) {
	var model PriceModel
	err := s.db.WithContext(ctx).Where("fuel_price_id = ?", fuelPriceID).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("fuel price %d: %w", fuelPriceID, domain.ErrUnknownReference)
	}
	if err != nil {
		return nil, classify("get price", err)
	}
	return toPriceEntry(&model), nil
}

// Insert writes the entry and sets its FuelPriceID
func (s *PriceStore) Insert(ctx context.Context, entry *domain.FuelPriceEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	model := &PriceModel{
		FuelTypeID:    entry.FuelTypeID,
		Price:         entry.Price,
		EffectiveDate: entry.EffectiveDate,
		SupplierID:    entry.SupplierID,
		TownshipID:    entry.TownshipID,
		SiteID:        entry.SiteID,
		CreatedAt:     entry.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
		return classify("insert price", err)
	}
	entry.FuelPriceID = model.FuelPriceID
	return nil
}

// Previous finds the latest entry for the fuel type dated strictly before entry.
// Same-day ties resolve to the highest id.
func (s *PriceStore) Previous(ctx context.Context, entry *domain.FuelPriceEntry) (*domain.FuelPriceEntry, error) {
	var model PriceModel
	err := s.db.WithContext(ctx).
		Where("fuel_type_id = ? AND effective_date < ?", entry.FuelTypeID, entry.EffectiveDate).
		Order("effective_date DESC").
		Order("fuel_price_id DESC").
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("previous price", err)
	}
	return toPriceEntry(&model), nil
}

// InsertFluctuation writes the fluctuation and sets its FluctuationID
func (s *PriceStore) InsertFluctuation(ctx context.Context, fluctuation *domain.PriceFluctuation) error {
	model := &FluctuationModel{
		FuelTypeID:        fluctuation.FuelTypeID,
		FluctuationDate:   fluctuation.FluctuationDate,
		CurrentPrice:      fluctuation.CurrentPrice,
		PreviousPrice:     fluctuation.PreviousPrice,
		FluctuationAmount: fluctuation.FluctuationAmount,
		FluctuationType:   string(fluctuation.FluctuationType),
		Notes:             fluctuation.Notes,
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
		return classify("insert fluctuation", err)
	}
	fluctuation.FluctuationID = model.FluctuationID
	return nil
}

func toPriceEntry(m *PriceModel) *domain.FuelPriceEntry {
	return &domain.FuelPriceEntry{
		FuelPriceID:   m.FuelPriceID,
		FuelTypeID:    m.FuelTypeID,
		Price:         m.Price,
		EffectiveDate: m.EffectiveDate,
		SupplierID:    m.SupplierID,
		TownshipID:    m.TownshipID,
		SiteID:        m.SiteID,
		CreatedAt:     m.CreatedAt,
	}
}
