package postgres

import (
	"time"

	"github.com/shopspring/decimal"
)

// FuelTypeModel maps fuel_types
type FuelTypeModel struct {
	FuelTypeID   int64  `gorm:"column:fuel_type_id;primaryKey;autoIncrement"`
	FuelTypeName string `gorm:"column:fuel_type_name;size:100;not null;uniqueIndex"`
	Description  string `gorm:"column:description;size:255"`
}

func (FuelTypeModel) TableName() string { return "fuel_types" }

// SupplierModel maps suppliers
type SupplierModel struct {
	SupplierID    int64  `gorm:"column:supplier_id;primaryKey;autoIncrement"`
	SupplierName  string `gorm:"column:supplier_name;size:150;not null"`
	ContactPerson string `gorm:"column:contact_person;size:100"`
	ContactEmail  string `gorm:"column:contact_email;size:150"`
	ContactPhone  string `gorm:"column:contact_phone;size:50"`
	Address       string `gorm:"column:address;size:255"`
	City          string `gorm:"column:city;size:100"`
	Country       string `gorm:"column:country;size:100"`
}

func (SupplierModel) TableName() string { return "suppliers" }

// TownshipModel maps townships
type TownshipModel struct {
	TownshipID    int64  `gorm:"column:township_id;primaryKey;autoIncrement"`
	TownshipName  string `gorm:"column:township_name;size:100;not null"`
	PostalCode    string `gorm:"column:postal_code;size:20"`
	StateDivision string `gorm:"column:state_division;size:100"`
}

func (TownshipModel) TableName() string { return "townships" }

// SiteModel maps sites
type SiteModel struct {
	SiteID          int64            `gorm:"column:site_id;primaryKey;autoIncrement"`
	SiteName        string           `gorm:"column:site_name;size:150;not null"`
	TownshipID      *int64           `gorm:"column:township_id"`
	Township        *TownshipModel   `gorm:"constraint:OnDelete:SET NULL"`
	LocationDetails string           `gorm:"column:location_details;size:255"`
	Latitude        *decimal.Decimal `gorm:"column:latitude;type:numeric(9,6)"`
	Longitude       *decimal.Decimal `gorm:"column:longitude;type:numeric(9,6)"`
}

func (SiteModel) TableName() string { return "sites" }

// WarehouseModel maps warehouses
type WarehouseModel struct {
	WarehouseID     int64          `gorm:"column:warehouse_id;primaryKey;autoIncrement"`
	WarehouseName   string         `gorm:"column:warehouse_name;size:150;not null"`
	WarehouseType   string         `gorm:"column:warehouse_type;size:50"`
	GeneratedIDCode string         `gorm:"column:generated_id_code;size:50"`
	LocationDetails string         `gorm:"column:location_details;size:255"`
	TownshipID      *int64         `gorm:"column:township_id"`
	Township        *TownshipModel `gorm:"constraint:OnDelete:SET NULL"`
	SiteID          *int64         `gorm:"column:site_id"`
	Site            *SiteModel     `gorm:"constraint:OnDelete:SET NULL"`
	SubOffice       string         `gorm:"column:sub_office;size:100"`
}

func (WarehouseModel) TableName() string { return "warehouses" }

// InventoryModel maps fuel_inventory. One row per (fuel type, location kind, location id).
type InventoryModel struct {
	InventoryID  int64           `gorm:"column:inventory_id;primaryKey;autoIncrement"`
	FuelTypeID   int64           `gorm:"column:fuel_type_id;not null;uniqueIndex:idx_fuel_inventory_key,priority:1"`
	FuelType     *FuelTypeModel  `gorm:"constraint:OnDelete:RESTRICT"`
	LocationType string          `gorm:"column:location_type;size:20;not null;uniqueIndex:idx_fuel_inventory_key,priority:2"`
	LocationID   int64           `gorm:"column:location_id;not null;uniqueIndex:idx_fuel_inventory_key,priority:3"`
	CurrentStock decimal.Decimal `gorm:"column:current_stock;type:numeric(18,4);not null;default:0;check:chk_fuel_inventory_non_negative,current_stock >= 0"`
	LastUpdated  time.Time       `gorm:"column:last_updated;not null"`
}

func (InventoryModel) TableName() string { return "fuel_inventory" }

// MovementModel maps fuel_transactions
type MovementModel struct {
	TransactionID           int64            `gorm:"column:transaction_id;primaryKey;autoIncrement"`
	UsageTransitionID       string           `gorm:"column:usage_transition_id;size:64;not null;uniqueIndex"`
	TransactionType         string           `gorm:"column:transaction_type;size:50;not null"`
	SourceLocationType      string           `gorm:"column:source_location_type;size:20;not null;index:idx_fuel_transactions_source,priority:2"`
	SourceLocationID        int64            `gorm:"column:source_location_id;not null;index:idx_fuel_transactions_source,priority:3"`
	DestinationLocationType string           `gorm:"column:destination_location_type;size:20;not null;index:idx_fuel_transactions_destination,priority:2"`
	DestinationLocationID   int64            `gorm:"column:destination_location_id;not null;index:idx_fuel_transactions_destination,priority:3"`
	FuelTypeID              int64            `gorm:"column:fuel_type_id;not null;index:idx_fuel_transactions_source,priority:1;index:idx_fuel_transactions_destination,priority:1"`
	FuelType                *FuelTypeModel   `gorm:"constraint:OnDelete:RESTRICT"`
	Quantity                decimal.Decimal  `gorm:"column:quantity;type:numeric(18,4);not null;check:chk_fuel_transactions_quantity,quantity > 0"`
	TransactionDate         time.Time        `gorm:"column:transaction_date;not null;index"`
	FuelPriceID             *int64           `gorm:"column:fuel_price_id"`
	FuelPrice               *PriceModel      `gorm:"constraint:OnDelete:RESTRICT"`
	TransportationCost      decimal.Decimal  `gorm:"column:transportation_cost;type:numeric(18,4);not null;default:0"`
	LoadingUnloadingCost    decimal.Decimal  `gorm:"column:loading_unloading_cost;type:numeric(18,4);not null;default:0"`
	OtherCost               decimal.Decimal  `gorm:"column:other_cost;type:numeric(18,4);not null;default:0"`
	TotalCost               *decimal.Decimal `gorm:"column:total_cost;type:numeric(18,4)"`
	Notes                   string           `gorm:"column:notes;size:500"`
}

func (MovementModel) TableName() string { return "fuel_transactions" }

// PriceModel maps fuel_prices
type PriceModel struct {
	FuelPriceID   int64           `gorm:"column:fuel_price_id;primaryKey;autoIncrement"`
	FuelTypeID    int64           `gorm:"column:fuel_type_id;not null;index:idx_fuel_prices_history,priority:1"`
	FuelType      *FuelTypeModel  `gorm:"constraint:OnDelete:RESTRICT"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(18,4);not null"`
	EffectiveDate time.Time       `gorm:"column:effective_date;type:date;not null;index:idx_fuel_prices_history,priority:2"`
	SupplierID    *int64          `gorm:"column:supplier_id"`
	Supplier      *SupplierModel  `gorm:"constraint:OnDelete:SET NULL"`
	TownshipID    *int64          `gorm:"column:township_id"`
	Township      *TownshipModel  `gorm:"constraint:OnDelete:SET NULL"`
	SiteID        *int64          `gorm:"column:site_id"`
	Site          *SiteModel      `gorm:"constraint:OnDelete:SET NULL"`
	CreatedAt     time.Time       `gorm:"column:created_at;not null"`
}

func (PriceModel) TableName() string { return "fuel_prices" }

// FluctuationModel maps price_fluctuations
type FluctuationModel struct {
	FluctuationID     int64            `gorm:"column:fluctuation_id;primaryKey;autoIncrement"`
	FuelTypeID        int64            `gorm:"column:fuel_type_id;not null;index"`
	FuelType          *FuelTypeModel   `gorm:"constraint:OnDelete:RESTRICT"`
	FluctuationDate   time.Time        `gorm:"column:fluctuation_date;type:date;not null;index"`
	CurrentPrice      decimal.Decimal  `gorm:"column:current_price;type:numeric(18,4);not null"`
	PreviousPrice     *decimal.Decimal `gorm:"column:previous_price;type:numeric(18,4)"`
	FluctuationAmount *decimal.Decimal `gorm:"column:fluctuation_amount;type:numeric(18,4)"`
	FluctuationType   string           `gorm:"column:fluctuation_type;size:20;not null"`
	Notes             string           `gorm:"column:notes;size:500"`
}

func (FluctuationModel) TableName() string { return "price_fluctuations" }

// AllModels lists every table in dependency order
func AllModels() []interface{} {
	return []interface{}{
		&FuelTypeModel{},
		&SupplierModel{},
		&TownshipModel{},
		&SiteModel{},
		&WarehouseModel{},
		&InventoryModel{},
		&PriceModel{},
		&MovementModel{},
		&FluctuationModel{},
	}
}
