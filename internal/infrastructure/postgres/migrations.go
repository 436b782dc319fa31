package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Migrate creates or updates every table, index and constraint
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// DropAll removes every table in reverse dependency order
func DropAll(ctx context.Context, db *gorm.DB) error {
	models := AllModels()
	for i := len(models) - 1; i >= 0; i-- {
		if err := db.WithContext(ctx).Migrator().DropTable(models[i]); err != nil {
			return fmt.Errorf("failed to drop %T: %w", models[i], err)
		}
	}
	return nil
}
