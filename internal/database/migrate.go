package database

import (
	"fmt"

	"github.com/franciscosanchezn/gin-oauth-server/internal/models"
	"gorm.io/gorm"
)

// Models lists every table the server owns, in dependency order
func Models() []interface{} {
	return []interface{}{
		&models.Member{},
		&models.Client{},
		&models.RedirectionURL{},
		&models.Scope{},
		&models.AuthCode{},
		&models.AuthToken{},
		&models.SessionRecord{},
	}
}

// Migrate creates or updates the schema
func Migrate(db *gorm.DB) error {
	log.Info("Running schema migrations")
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}
	return nil
}
