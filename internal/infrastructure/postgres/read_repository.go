package postgres

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/KMK-tech-v0/fuel/internal/domain"
	"github.com/KMK-tech-v0/fuel/pkg/database"
)

// InventoryView is one row of the inventory snapshot
type InventoryView struct {
	InventoryID  int64
	FuelTypeID   int64
	FuelTypeName string
	LocationType string
	LocationID   int64
	LocationName string
	CurrentStock decimal.Decimal
	LastUpdated  time.Time
}

// MovementView is a movement with its location, fuel type and price resolved
type MovementView struct {
	TransactionID           int64
	UsageTransitionID       string
	TransactionType         string
	SourceLocationType      string
	SourceLocationID        int64
	SourceLocationName      string
	DestinationLocationType string
	DestinationLocationID   int64
	DestinationLocationName string
	FuelTypeName            string
	Quantity                decimal.Decimal
	TransactionDate         time.Time
	FuelPricePerUnit        *decimal.Decimal
	TransportationCost      decimal.Decimal
	LoadingUnloadingCost    decimal.Decimal
	OtherCost               decimal.Decimal
	TotalCost               *decimal.Decimal
	Notes                   string
}

// FluctuationView is a fluctuation with its fuel type name
type FluctuationView struct {
	FluctuationID     int64
	FuelTypeName      string
	FluctuationDate   time.Time
	CurrentPrice      decimal.Decimal
	PreviousPrice     *decimal.Decimal
	FluctuationAmount *decimal.Decimal
	FluctuationType   string
	Notes             string
}

// ReadRepository serves list endpoints and reconciliation inputs outside any unit of work
type ReadRepository interface {
	domain.ReconciliationSource

	InventorySnapshot(ctx context.Context) ([]InventoryView, error)
	Movements(ctx context.Context) ([]MovementView, error)
	PriceFluctuations(ctx context.Context) ([]FluctuationView, error)

	FuelTypes(ctx context.Context) ([]FuelTypeModel, error)
	Suppliers(ctx context.Context) ([]SupplierModel, error)
	Townships(ctx context.Context) ([]TownshipModel, error)
	Sites(ctx context.Context) ([]SiteModel, error)
	Warehouses(ctx context.Context) ([]WarehouseModel, error)
}

// GormReadRepository implements ReadRepository through database.Client
type GormReadRepository struct {
	client *database.Client
}

// NewReadRepository creates a GormReadRepository
func NewReadRepository(client *database.Client) *GormReadRepository {
	return &GormReadRepository{client: client}
}

func (r *GormReadRepository) query(ctx context.Context, name string, fn func(db *gorm.DB) error) error {
	return classify(name, r.client.Query(ctx, name, fn))
}

// InventorySnapshot lists every record ordered by fuel type name, then location name
func (r *GormReadRepository) InventorySnapshot(ctx context.Context) ([]InventoryView, error) {
	rows := []InventoryView{}
	err := r.query(ctx, "inventory_snapshot", func(db *gorm.DB) error {
		return db.Table("fuel_inventory AS fi").
			Select(`fi.inventory_id, fi.fuel_type_id, ft.fuel_type_name, fi.location_type, fi.location_id,
				COALESCE(w.warehouse_name, s.site_name, 'Unknown') AS location_name,
				fi.current_stock, fi.last_updated`).
			Joins("JOIN fuel_types ft ON ft.fuel_type_id = fi.fuel_type_id").
			Joins("LEFT JOIN warehouses w ON fi.location_type = ? AND w.warehouse_id = fi.location_id", string(domain.LocationWarehouse)).
			Joins("LEFT JOIN sites s ON fi.location_type = ? AND s.site_id = fi.location_id", string(domain.LocationSite)).
			Order("ft.fuel_type_name, location_name, fi.inventory_id").
			Scan(&rows).Error
	})
	return rows, err
}

// Movements lists movements newest first. Unresolved locations are named N/A.
func (r *GormReadRepository) Movements(ctx context.Context) ([]MovementView, error) {
	rows := []MovementView{}
	supplier, warehouse, site := string(domain.LocationSupplier), string(domain.LocationWarehouse), string(domain.LocationSite)
	err := r.query(ctx, "movements", func(db *gorm.DB) error {
		return db.Table("fuel_transactions AS t").
			Select(`t.transaction_id, t.usage_transition_id, t.transaction_type,
				t.source_location_type, t.source_location_id,
				COALESCE(ssup.supplier_name, sw.warehouse_name, ss.site_name, 'N/A') AS source_location_name,
				t.destination_location_type, t.destination_location_id,
				COALESCE(dw.warehouse_name, ds.site_name, 'N/A') AS destination_location_name,
				ft.fuel_type_name, t.quantity, t.transaction_date,
				fp.price AS fuel_price_per_unit,
				t.transportation_cost, t.loading_unloading_cost, t.other_cost, t.total_cost, t.notes`).
			Joins("JOIN fuel_types ft ON ft.fuel_type_id = t.fuel_type_id").
			Joins("LEFT JOIN fuel_prices fp ON fp.fuel_price_id = t.fuel_price_id").
			Joins("LEFT JOIN suppliers ssup ON t.source_location_type = ? AND ssup.supplier_id = t.source_location_id", supplier).
			Joins("LEFT JOIN warehouses sw ON t.source_location_type = ? AND sw.warehouse_id = t.source_location_id", warehouse).
			Joins("LEFT JOIN sites ss ON t.source_location_type = ? AND ss.site_id = t.source_location_id", site).
			Joins("LEFT JOIN warehouses dw ON t.destination_location_type = ? AND dw.warehouse_id = t.destination_location_id", warehouse).
			Joins("LEFT JOIN sites ds ON t.destination_location_type = ? AND ds.site_id = t.destination_location_id", site).
			Order("t.transaction_date DESC, t.transaction_id DESC").
			Scan(&rows).Error
	})
	return rows, err
}

// PriceFluctuations lists fluctuations newest first
func (r *GormReadRepository) PriceFluctuations(ctx context.Context) ([]FluctuationView, error) {
	rows := []FluctuationView{}
	err := r.query(ctx, "price_fluctuations", func(db *gorm.DB) error {
		return db.Table("price_fluctuations AS pf").
			Select(`pf.fluctuation_id, ft.fuel_type_name, pf.fluctuation_date, pf.current_price,
				pf.previous_price, pf.fluctuation_amount, pf.fluctuation_type, pf.notes`).
			Joins("JOIN fuel_types ft ON ft.fuel_type_id = pf.fuel_type_id").
			Order("pf.fluctuation_date DESC, pf.fluctuation_id DESC").
			Scan(&rows).Error
	})
	return rows, err
}

// FuelTypes lists fuel types by id
func (r *GormReadRepository) FuelTypes(ctx context.Context) ([]FuelTypeModel, error) {
	rows := []FuelTypeModel{}
	err := r.query(ctx, "fuel_types", func(db *gorm.DB) error {
		return db.Order("fuel_type_id").Find(&rows).Error
	})
	return rows, err
}

// Suppliers lists suppliers by id
func (r *GormReadRepository) Suppliers(ctx context.Context) ([]SupplierModel, error) {
	rows := []SupplierModel{}
	err := r.query(ctx, "suppliers", func(db *gorm.DB) error {
		return db.Order("supplier_id").Find(&rows).Error
	})
	return rows, err
}

// Townships lists townships by id
func (r *GormReadRepository) Townships(ctx context.Context) ([]TownshipModel, error) {
	rows := []TownshipModel{}
	err := r.query(ctx, "townships", func(db *gorm.DB) error {
		return db.Order("township_id").Find(&rows).Error
	})
	return rows, err
}

// Sites lists sites by id
func (r *GormReadRepository) Sites(ctx context.Context) ([]SiteModel, error) {
	rows := []SiteModel{}
	err := r.query(ctx, "sites", func(db *gorm.DB) error {
		return db.Order("site_id").Find(&rows).Error
	})
	return rows, err
}

// Warehouses lists warehouses by id
func (r *GormReadRepository) Warehouses(ctx context.Context) ([]WarehouseModel, error) {
	rows := []WarehouseModel{}
	err := r.query(ctx, "warehouses", func(db *gorm.DB) error {
		return db.Order("warehouse_id").Find(&rows).Error
	})
	return rows, err
}

// InventoryRecords returns every stored counter
func (r *GormReadRepository) InventoryRecords(ctx context.Context) ([]domain.InventoryRecord, error) {
	var models []InventoryModel
	err := r.query(ctx, "inventory_records", func(db *gorm.DB) error {
		return db.Order("inventory_id").Find(&models).Error
	})
	if err != nil {
		return nil, err
	}
	records := make([]domain.InventoryRecord, 0, len(models))
	for i := range models {
		records = append(records, *toInventoryRecord(&models[i]))
	}
	return records, nil
}

type flowRow struct {
	FuelTypeID   int64
	LocationType string
	LocationID   int64
	Total        decimal.Decimal
}

// StockFlows sums credits per destination and debits per metered source
func (r *GormReadRepository) StockFlows(ctx context.Context) ([]domain.StockFlow, error) {
	var credits, debits []flowRow
	err := r.query(ctx, "stock_flows", func(db *gorm.DB) error {
		err := db.Table("fuel_transactions").
			Select("fuel_type_id, destination_location_type AS location_type, destination_location_id AS location_id, SUM(quantity) AS total").
			Group("fuel_type_id, destination_location_type, destination_location_id").
			Scan(&credits).Error
		if err != nil {
			return err
		}
		return db.Table("fuel_transactions").
			Select("fuel_type_id, source_location_type AS location_type, source_location_id AS location_id, SUM(quantity) AS total").
			Where("source_location_type IN ?", []string{string(domain.LocationWarehouse), string(domain.LocationSite)}).
			Group("fuel_type_id, source_location_type, source_location_id").
			Scan(&debits).Error
	})
	if err != nil {
		return nil, err
	}

	flows := make([]domain.StockFlow, 0, len(credits)+len(debits))
	for _, row := range credits {
		flows = append(flows, domain.StockFlow{Key: row.key(), Credits: row.Total, Debits: decimal.Zero})
	}
	for _, row := range debits {
		flows = append(flows, domain.StockFlow{Key: row.key(), Credits: decimal.Zero, Debits: row.Total})
	}
	return flows, nil
}

func (f flowRow) key() domain.InventoryKey {
	return domain.InventoryKey{
		FuelTypeID: f.FuelTypeID,
		Location:   domain.Location{Kind: domain.LocationKind(f.LocationType), ID: f.LocationID},
	}
}
