package application

import "time"

// MovementResultDTO is returned after a movement commits
type MovementResultDTO struct {
	Message           string `json:"message"`
	UsageTransitionID string `json:"usageTransitionID"`
}

// PriceResultDTO is returned after a price and its fluctuation commit
type PriceResultDTO struct {
	Message           string   `json:"message"`
	FuelPriceID       int64    `json:"fuelPriceID"`
	FluctuationID     int64    `json:"fluctuationID"`
	FluctuationType   string   `json:"fluctuationType"`
	PreviousPrice     *float64 `json:"previousPrice"`
	FluctuationAmount *float64 `json:"fluctuationAmount"`
}

// StockDTO is the current stock of one inventory key
type StockDTO struct {
	FuelTypeID   int64   `json:"fuelTypeID"`
	LocationType string  `json:"locationType"`
	LocationID   int64   `json:"locationID"`
	CurrentStock float64 `json:"currentStock"`
}

// InventoryDTO is one row of the inventory snapshot
type InventoryDTO struct {
	InventoryID  int64     `json:"inventoryID"`
	FuelTypeName string    `json:"fuelTypeName"`
	LocationType string    `json:"locationType"`
	LocationName string    `json:"locationName"`
	CurrentStock float64   `json:"currentStock"`
	LastUpdated  time.Time `json:"lastUpdated"`
}

// MovementDTO is one recorded movement
type MovementDTO struct {
	TransactionID           int64     `json:"transactionID"`
	UsageTransitionID       string    `json:"usageTransitionID"`
	TransactionType         string    `json:"transactionType"`
	SourceLocationType      string    `json:"sourceLocationType"`
	SourceLocationName      string    `json:"sourceLocationName"`
	DestinationLocationType string    `json:"destinationLocationType"`
	DestinationLocationName string    `json:"destinationLocationName"`
	FuelTypeName            string    `json:"fuelTypeName"`
	Quantity                float64   `json:"quantity"`
	TransactionDate         time.Time `json:"transactionDate"`
	FuelPricePerUnit        *float64  `json:"fuelPricePerUnit"`
	TransportationCost      float64   `json:"transportationCost"`
	LoadingUnloadingCost    float64   `json:"loadingUnloadingCost"`
	OtherCost               float64   `json:"otherCost"`
	TotalCost               *float64  `json:"totalCost"`
	Notes                   string    `json:"notes"`
}

// FluctuationDTO is one price fluctuation
type FluctuationDTO struct {
	FluctuationID     int64    `json:"fluctuationID"`
	FuelTypeName      string   `json:"fuelTypeName"`
	FluctuationDate   string   `json:"fluctuationDate"`
	CurrentPrice      float64  `json:"currentPrice"`
	PreviousPrice     *float64 `json:"previousPrice"`
	FluctuationAmount *float64 `json:"fluctuationAmount"`
	FluctuationType   string   `json:"fluctuationType"`
	Notes             string   `json:"notes"`
}

// FuelTypeDTO is master data for a fuel type
type FuelTypeDTO struct {
	FuelTypeID   int64  `json:"fuelTypeID"`
	FuelTypeName string `json:"fuelTypeName"`
	Description  string `json:"description"`
}

// SupplierDTO is master data for a supplier
type SupplierDTO struct {
	SupplierID    int64  `json:"supplierID"`
	SupplierName  string `json:"supplierName"`
	ContactPerson string `json:"contactPerson"`
	ContactEmail  string `json:"contactEmail"`
	ContactPhone  string `json:"contactPhone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	Country       string `json:"country"`
}

// TownshipDTO is master data for a township
type TownshipDTO struct {
	TownshipID    int64  `json:"townshipID"`
	TownshipName  string `json:"townshipName"`
	PostalCode    string `json:"postalCode"`
	StateDivision string `json:"stateDivision"`
}

// SiteDTO is master data for a site. Coordinates are strings to keep their precision.
type SiteDTO struct {
	SiteID          int64   `json:"siteID"`
	SiteName        string  `json:"siteName"`
	TownshipID      *int64  `json:"townshipID"`
	LocationDetails string  `json:"locationDetails"`
	Latitude        *string `json:"latitude"`
	Longitude       *string `json:"longitude"`
}

// WarehouseDTO is master data for a warehouse
type WarehouseDTO struct {
	WarehouseID     int64  `json:"warehouseID"`
	WarehouseName   string `json:"warehouseName"`
	WarehouseType   string `json:"warehouseType"`
	GeneratedIDCode string `json:"generatedIDCode"`
	LocationDetails string `json:"locationDetails"`
	TownshipID      *int64 `json:"townshipID"`
	SiteID          *int64 `json:"siteID"`
	SubOffice       string `json:"subOffice"`
}

// DiscrepancyDTO is one unbalanced inventory key
type DiscrepancyDTO struct {
	FuelTypeID   int64   `json:"fuelTypeID"`
	LocationType string  `json:"locationType"`
	LocationID   int64   `json:"locationID"`
	Recorded     float64 `json:"recorded"`
	Expected     float64 `json:"expected"`
	Missing      bool    `json:"missingRecord"`
}

// ReconciliationDTO is the result of a conservation check
type ReconciliationDTO struct {
	CheckedAt     time.Time        `json:"checkedAt"`
	KeysChecked   int              `json:"keysChecked"`
	Consistent    bool             `json:"consistent"`
	Discrepancies []DiscrepancyDTO `json:"discrepancies"`
}
