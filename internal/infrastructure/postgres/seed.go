package postgres

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedData is the master-data file layout
type SeedData struct {
	FuelTypes []struct {
		ID          int64  `yaml:"id"`
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	} `yaml:"fuelTypes"`
	Suppliers []struct {
		ID            int64  `yaml:"id"`
		Name          string `yaml:"name"`
		ContactPerson string `yaml:"contactPerson"`
		ContactEmail  string `yaml:"contactEmail"`
		ContactPhone  string `yaml:"contactPhone"`
		Address       string `yaml:"address"`
		City          string `yaml:"city"`
		Country       string `yaml:"country"`
	} `yaml:"suppliers"`
	Townships []struct {
		ID            int64  `yaml:"id"`
		Name          string `yaml:"name"`
		PostalCode    string `yaml:"postalCode"`
		StateDivision string `yaml:"stateDivision"`
	} `yaml:"townships"`
	Sites []struct {
		ID              int64  `yaml:"id"`
		Name            string `yaml:"name"`
		TownshipID      *int64 `yaml:"townshipId"`
		LocationDetails string `yaml:"locationDetails"`
	} `yaml:"sites"`
	Warehouses []struct {
		ID              int64  `yaml:"id"`
		Name            string `yaml:"name"`
		Type            string `yaml:"type"`
		Code            string `yaml:"code"`
		LocationDetails string `yaml:"locationDetails"`
		TownshipID      *int64 `yaml:"townshipId"`
		SiteID          *int64 `yaml:"siteId"`
		SubOffice       string `yaml:"subOffice"`
	} `yaml:"warehouses"`
}

// SeedCounts reports how many rows of each table were written
type SeedCounts struct {
	FuelTypes, Suppliers, Townships, Sites, Warehouses int
}

// ParseSeed decodes a YAML master-data file, rejecting unknown keys
func ParseSeed(r io.Reader) (*SeedData, error) {
	var data SeedData
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&data); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode seed file: %w", err)
	}
	return &data, nil
}

// Seed upserts master data by primary key in one transaction
func Seed(ctx context.Context, db *gorm.DB, data *SeedData) (SeedCounts, error) {
	var counts SeedCounts

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upsert := func(value interface{}) *gorm.DB {
			return tx.Omit(clause.Associations).Clauses(clause.OnConflict{UpdateAll: true}).Create(value)
		}

		for _, ft := range data.FuelTypes {
			if err := upsert(&FuelTypeModel{FuelTypeID: ft.ID, FuelTypeName: ft.Name, Description: ft.Description}).Error; err != nil {
				return fmt.Errorf("fuel type %q: %w", ft.Name, err)
			}
			counts.FuelTypes++
		}
		for _, s := range data.Suppliers {
			if err := upsert(&SupplierModel{
				SupplierID: s.ID, SupplierName: s.Name, ContactPerson: s.ContactPerson,
				ContactEmail: s.ContactEmail, ContactPhone: s.ContactPhone,
				Address: s.Address, City: s.City, Country: s.Country,
			}).Error; err != nil {
				return fmt.Errorf("supplier %q: %w", s.Name, err)
			}
			counts.Suppliers++
		}
		for _, t := range data.Townships {
			if err := upsert(&TownshipModel{
				TownshipID: t.ID, TownshipName: t.Name, PostalCode: t.PostalCode, StateDivision: t.StateDivision,
			}).Error; err != nil {
				return fmt.Errorf("township %q: %w", t.Name, err)
			}
			counts.Townships++
		}
		for _, s := range data.Sites {
			if err := upsert(&SiteModel{
				SiteID: s.ID, SiteName: s.Name, TownshipID: s.TownshipID, LocationDetails: s.LocationDetails,
			}).Error; err != nil {
				return fmt.Errorf("site %q: %w", s.Name, err)
			}
			counts.Sites++
		}
		for _, w := range data.Warehouses {
			if err := upsert(&WarehouseModel{
				WarehouseID: w.ID, WarehouseName: w.Name, WarehouseType: w.Type, GeneratedIDCode: w.Code,
				LocationDetails: w.LocationDetails, TownshipID: w.TownshipID, SiteID: w.SiteID, SubOffice: w.SubOffice,
			}).Error; err != nil {
				return fmt.Errorf("warehouse %q: %w", w.Name, err)
			}
			counts.Warehouses++
		}
		return resetSequences(tx)
	})
	if err != nil {
		return SeedCounts{}, fmt.Errorf("failed to seed master data: %w", err)
	}
	return counts, nil
}

// Explicit ids leave Postgres serial sequences behind the data
func resetSequences(tx *gorm.DB) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	for table, column := range map[string]string{
		"fuel_types": "fuel_type_id",
		"suppliers":  "supplier_id",
		"townships":  "township_id",
		"sites":      "site_id",
		"warehouses": "warehouse_id",
	} {
		sql := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', '%s'), COALESCE(MAX(%s), 0) + 1, false) FROM %s", table, column, column, table)
		if err := tx.Exec(sql).Error; err != nil {
			return fmt.Errorf("reset sequence for %s: %w", table, err)
		}
	}
	return nil
}
