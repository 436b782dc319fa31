package application

import (
	"github.com/shopspring/decimal"

	"github.com/KMK-tech-v0/fuel/internal/domain"
	"github.com/KMK-tech-v0/fuel/internal/infrastructure/postgres"
)

func toFloat(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func toOptionalFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

func toOptionalString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

// ToInventoryDTOs converts snapshot rows
func ToInventoryDTOs(rows []postgres.InventoryView) []InventoryDTO {
	dtos := make([]InventoryDTO, 0, len(rows))
	for _, r := range rows {
		dtos = append(dtos, InventoryDTO{
			InventoryID:  r.InventoryID,
			FuelTypeName: r.FuelTypeName,
			LocationType: r.LocationType,
			LocationName: r.LocationName,
			CurrentStock: toFloat(r.CurrentStock),
			LastUpdated:  r.LastUpdated.UTC(),
		})
	}
	return dtos
}

// ToMovementDTOs converts movement rows
func ToMovementDTOs(rows []postgres.MovementView) []MovementDTO {
	dtos := make([]MovementDTO, 0, len(rows))
	for _, r := range rows {
		dtos = append(dtos, MovementDTO{
			TransactionID:           r.TransactionID,
			UsageTransitionID:       r.UsageTransitionID,
			TransactionType:         r.TransactionType,
			SourceLocationType:      r.SourceLocationType,
			SourceLocationName:      r.SourceLocationName,
			DestinationLocationType: r.DestinationLocationType,
			DestinationLocationName: r.DestinationLocationName,
			FuelTypeName:            r.FuelTypeName,
			Quantity:                toFloat(r.Quantity),
			TransactionDate:         r.TransactionDate.UTC(),
			FuelPricePerUnit:        toOptionalFloat(r.FuelPricePerUnit),
			TransportationCost:      toFloat(r.TransportationCost),
			LoadingUnloadingCost:    toFloat(r.LoadingUnloadingCost),
			OtherCost:               toFloat(r.OtherCost),
			TotalCost:               toOptionalFloat(r.TotalCost),
			Notes:                   r.Notes,
		})
	}
	return dtos
}

// ToFluctuationDTOs converts fluctuation rows
func ToFluctuationDTOs(rows []postgres.FluctuationView) []FluctuationDTO {
	dtos := make([]FluctuationDTO, 0, len(rows))
	for _, r := range rows {
		dtos = append(dtos, FluctuationDTO{
			FluctuationID:     r.FluctuationID,
			FuelTypeName:      r.FuelTypeName,
			FluctuationDate:   r.FluctuationDate.UTC().Format(domain.EffectiveDateLayout),
			CurrentPrice:      toFloat(r.CurrentPrice),
			PreviousPrice:     toOptionalFloat(r.PreviousPrice),
			FluctuationAmount: toOptionalFloat(r.FluctuationAmount),
			FluctuationType:   r.FluctuationType,
			Notes:             r.Notes,
		})
	}
	return dtos
}

// ToReconciliationDTO converts a report
func ToReconciliationDTO(report *domain.ReconciliationReport) *ReconciliationDTO {
	discrepancies := make([]DiscrepancyDTO, 0, len(report.Discrepancies))
	for _, d := range report.Discrepancies {
		discrepancies = append(discrepancies, DiscrepancyDTO{
			FuelTypeID:   d.Key.FuelTypeID,
			LocationType: string(d.Key.Location.Kind),
			LocationID:   d.Key.Location.ID,
			Recorded:     toFloat(d.Recorded),
			Expected:     toFloat(d.Expected),
			Missing:      d.Missing,
		})
	}
	return &ReconciliationDTO{
		CheckedAt:     report.CheckedAt.UTC(),
		KeysChecked:   report.KeysChecked,
		Consistent:    report.Consistent(),
		Discrepancies: discrepancies,
	}
}

func toFuelTypeDTOs(rows []postgres.FuelTypeModel) []FuelTypeDTO {
	dtos := make([]FuelTypeDTO, 0, len(rows))
	for _, r := range rows {
		dtos = append(dtos, FuelTypeDTO{FuelTypeID: r.FuelTypeID, FuelTypeName: r.FuelTypeName, Description: r.Description})
	}
	return dtos
}

func toSupplierDTOs(rows []postgres.SupplierModel) []SupplierDTO {
	dtos := make([]SupplierDTO, 0, len(rows))
	for _, r := range rows {
		dtos = append(dtos, SupplierDTO{
			SupplierID:    r.SupplierID,
			SupplierName:  r.SupplierName,
			ContactPerson: r.ContactPerson,
			ContactEmail:  r.ContactEmail,
			ContactPhone:  r.ContactPhone,
			Address:       r.Address,
			City:          r.City,
			Country:       r.Country,
		})
	}
	return dtos
}

func toTownshipDTOs(rows []postgres.TownshipModel) []TownshipDTO {
	dtos := make([]TownshipDTO, 0, len(rows))
	for _, r := range rows {
		dtos = append(dtos, TownshipDTO{
			TownshipID:    r.TownshipID,
			TownshipName:  r.TownshipName,
			PostalCode:    r.PostalCode,
			StateDivision: r.StateDivision,
		})
	}
	return dtos
}

func toSiteDTOs(rows []postgres.SiteModel) []SiteDTO {
	dtos := make([]SiteDTO, 0, len(rows))
	for _, r := range rows {
		dtos = append(dtos, SiteDTO{
			SiteID:          r.SiteID,
			SiteName:        r.SiteName,
			TownshipID:      r.TownshipID,
			LocationDetails: r.LocationDetails,
			Latitude:        toOptionalString(r.Latitude),
			Longitude:       toOptionalString(r.Longitude),
		})
	}
	return dtos
}

func toWarehouseDTOs(rows []postgres.WarehouseModel) []WarehouseDTO {
	dtos := make([]WarehouseDTO, 0, len(rows))
	for _, r := range rows {
		dtos = append(dtos, WarehouseDTO{
			WarehouseID:     r.WarehouseID,
			WarehouseName:   r.WarehouseName,
			WarehouseType:   r.WarehouseType,
			GeneratedIDCode: r.GeneratedIDCode,
			LocationDetails: r.LocationDetails,
			TownshipID:      r.TownshipID,
			SiteID:          r.SiteID,
			SubOffice:       r.SubOffice,
		})
	}
	return dtos
}
