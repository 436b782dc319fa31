package application

import (
	"context"

	"github.com/KMK-tech-v0/fuel/internal/infrastructure/postgres"
	"github.com/KMK-tech-v0/fuel/pkg/logging"
)

// QueryService serves the read-only list endpoints
type QueryService struct {
	reads  postgres.ReadRepository
	logger *logging.Logger
}

// NewQueryService creates a QueryService
func NewQueryService(reads postgres.ReadRepository, logger *logging.Logger) *QueryService {
	return &QueryService{reads: reads, logger: logger.WithComponent("query_service")}
}

func (s *QueryService) fail(ctx context.Context, err error, resource string) error {
	appErr := toAppError(err, "list "+resource, "Failed to fetch "+resource)
	logFailure(s.logger.WithContext(ctx), appErr, "Failed to fetch "+resource)
	return appErr
}

// InventorySnapshot lists current stock ordered by fuel type and location name
func (s *QueryService) InventorySnapshot(ctx context.Context) ([]InventoryDTO, error) {
	rows, err := s.reads.InventorySnapshot(ctx)
	if err != nil {
		return nil, s.fail(ctx, err, "inventory")
	}
	return ToInventoryDTOs(rows), nil
}

// Movements lists movements newest first
func (s *QueryService) Movements(ctx context.Context) ([]MovementDTO, error) {
	rows, err := s.reads.Movements(ctx)
	if err != nil {
		return nil, s.fail(ctx, err, "fuel transactions")
	}
	return ToMovementDTOs(rows), nil
}

// PriceFluctuations lists fluctuations newest first
func (s *QueryService) PriceFluctuations(ctx context.Context) ([]FluctuationDTO, error) {
	rows, err := s.reads.PriceFluctuations(ctx)
	if err != nil {
		return nil, s.fail(ctx, err, "price fluctuations")
	}
	return ToFluctuationDTOs(rows), nil
}

func (s *QueryService) FuelTypes(ctx context.Context) ([]FuelTypeDTO, error) {
	rows, err := s.reads.FuelTypes(ctx)
	if err != nil {
		return nil, s.fail(ctx, err, "fuel types")
	}
	return toFuelTypeDTOs(rows), nil
}

func (s *QueryService) Suppliers(ctx context.Context) ([]SupplierDTO, error) {
	rows, err := s.reads.Suppliers(ctx)
	if err != nil {
		return nil, s.fail(ctx, err, "suppliers")
	}
	return toSupplierDTOs(rows), nil
}

func (s *QueryService) Townships(ctx context.Context) ([]TownshipDTO, error) {
	rows, err := s.reads.Townships(ctx)
	if err != nil {
		return nil, s.fail(ctx, err, "townships")
	}
	return toTownshipDTOs(rows), nil
}

func (s *QueryService) Sites(ctx context.Context) ([]SiteDTO, error) {
	rows, err := s.reads.Sites(ctx)
	if err != nil {
		return nil, s.fail(ctx, err, "sites")
	}
	return toSiteDTOs(rows), nil
}

func (s *QueryService) Warehouses(ctx context.Context) ([]WarehouseDTO, error) {
	rows, err := s.reads.Warehouses(ctx)
	if err != nil {
		return nil, s.fail(ctx, err, "warehouses")
	}
	return toWarehouseDTOs(rows), nil
}
