package database

import (
	"fmt"

	"impacto-backend/internal/domain"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AutoMigrate runs schema migrations for all domain models. Migration
// order matters because of foreign keys.
func AutoMigrate(db *gorm.DB, log *zap.Logger) error {
	models := []interface{}{
		&domain.User{},
		&domain.Client{},
		&domain.Campaign{},
		&domain.Link{},
		&domain.Click{},
	}

	log.Info("running database auto-migration", zap.Int("models", len(models)))

	for _, model := range models {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Info("database auto-migration completed")
	return nil
}
