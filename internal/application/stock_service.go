package application

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/KMK-tech-v0/fuel/internal/domain"
	"github.com/KMK-tech-v0/fuel/pkg/logging"
	"github.com/KMK-tech-v0/fuel/pkg/middleware"
)

// StockService exposes the ledger's stock lookup
type StockService struct {
	uow    domain.UnitOfWork
	logger *logging.Logger
}

// NewStockService creates a StockService
func NewStockService(uow domain.UnitOfWork, logger *logging.Logger) *StockService {
	return &StockService{uow: uow, logger: logger.WithComponent("stock_service")}
}

// GetStock returns the current stock for one key; an unknown key has zero stock
func (s *StockService) GetStock(ctx context.Context, query GetStockQuery) (*StockDTO, error) {
	if appErr := middleware.ValidateStruct(&query); appErr != nil {
		return nil, appErr
	}

	kind, err := domain.ParseLocationKind(query.LocationType)
	if err != nil {
		return nil, fieldError("locationType", "must be one of: Warehouse Site", err)
	}
	key, err := domain.NewInventoryKey(query.FuelTypeID.int64(), kind, query.LocationID.int64())
	if err != nil {
		return nil, toAppError(err, "get stock", "Failed to fetch stock")
	}

	stock := decimal.Zero
	err = s.uow.Do(ctx, "get_stock", func(tx domain.Tx) error {
		var err error
		stock, err = NewInventoryLedger(tx.Inventory()).GetStock(ctx, key)
		return err
	})
	if err != nil {
		appErr := toAppError(err, "get stock", "Failed to fetch stock")
		logFailure(s.logger.WithContext(ctx), appErr, "Failed to get stock", "key", key.String())
		return nil, appErr
	}

	return &StockDTO{
		FuelTypeID:   key.FuelTypeID,
		LocationType: string(key.Location.Kind),
		LocationID:   key.Location.ID,
		CurrentStock: toFloat(stock),
	}, nil
}
