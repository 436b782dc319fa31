package application

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// TransactionDateLayout is RFC 3339; fractional seconds are accepted when parsing
const TransactionDateLayout = "2006-01-02T15:04:05Z07:00"

// Number holds a numeric field as text. It decodes JSON numbers and numeric
// strings alike, and null decodes to empty.
type Number string

// UnmarshalJSON implements json.Unmarshaler
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Number(strings.TrimSpace(s))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*n = Number(num.String())
	return nil
}

func (n Number) String() string { return string(n) }

func (n Number) int64() int64 {
	v, _ := strconv.ParseInt(string(n), 10, 64)
	return v
}

// optionalInt64 returns nil for an empty number
func (n Number) optionalInt64() *int64 {
	if n == "" {
		return nil
	}
	v := n.int64()
	return &v
}

// RecordMovementCommand represents the command to move fuel between two locations
type RecordMovementCommand struct {
	TransactionType         string `json:"transactionType" validate:"required,max=50,safe_string"`
	SourceLocationType      string `json:"sourceLocationType" validate:"required,oneof=Supplier Warehouse Site"`
	SourceLocationID        Number `json:"sourceLocationID" validate:"required,positive_id"`
	DestinationLocationType string `json:"destinationLocationType" validate:"required,oneof=Warehouse Site"`
	DestinationLocationID   Number `json:"destinationLocationID" validate:"required,positive_id"`
	FuelTypeID              Number `json:"fuelTypeID" validate:"required,positive_id"`
	Quantity                Number `json:"quantity" validate:"required,positive_decimal,decimal_places=4"`
	TransactionDate         string `json:"transactionDate" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	FuelPriceID             Number `json:"fuelPriceID" validate:"omitempty,positive_id"`
	TransportationCost      Number `json:"transportationCost" validate:"omitempty,non_negative_decimal,decimal_places=4"`
	LoadingUnloadingCost    Number `json:"loadingUnloadingCost" validate:"omitempty,non_negative_decimal,decimal_places=4"`
	OtherCost               Number `json:"otherCost" validate:"omitempty,non_negative_decimal,decimal_places=4"`
	Notes                   string `json:"notes" validate:"max=500,safe_string"`
}

// RecordPriceCommand represents the command to record a new fuel price
type RecordPriceCommand struct {
	FuelTypeID    Number `json:"fuelTypeID" validate:"required,positive_id"`
	Price         Number `json:"price" validate:"required,non_negative_decimal,decimal_places=4"`
	EffectiveDate string `json:"effectiveDate" validate:"required,datetime=2006-01-02"`
	SupplierID    Number `json:"supplierID" validate:"omitempty,positive_id"`
	TownshipID    Number `json:"townshipID" validate:"omitempty,positive_id"`
	SiteID        Number `json:"siteID" validate:"omitempty,positive_id"`
	Notes         string `json:"notes" validate:"max=500,safe_string"`
}

// GetStockQuery represents a stock lookup for one inventory key
type GetStockQuery struct {
	FuelTypeID   Number `form:"fuelTypeID" json:"fuelTypeID" validate:"required,positive_id"`
	LocationType string `form:"locationType" json:"locationType" validate:"required,oneof=Warehouse Site"`
	LocationID   Number `form:"locationID" json:"locationID" validate:"required,positive_id"`
}
