package db_connection

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"

	models "github.com/votebridge/VoteBridge/internal/database/models"
	"github.com/votebridge/VoteBridge/internal/log"
)

var modelsToMigrate = []any{
	&models.ElectionDB{},
	&models.CandidateDB{},
	&models.VoterDB{},
	&models.BallotDB{},
}

var GlobalDB *gorm.DB = nil

func InitializeGlobalDB(dbFile string) error {
	if GlobalDB != nil {
		return nil
	}

	var err error
	GlobalDB, err = GetDatabaseConnection(dbFile)

	return err
}

func GetDatabaseConnection(dbFile string) (*gorm.DB, error) {
	dir := filepath.Dir(dbFile)
	if dir != "." {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
			log.Info(fmt.Sprintf("Created directory '%s'", dir))
		}
	}

	db, err := gorm.Open(sqlite.Open(dbFile), &gorm.Config{
		Logger: gorm_logger.Default.LogMode(gorm_logger.Silent),
	})

	if err != nil {
		return nil, err
	}

	// sqlite allows one writer at a time, concurrent connections would
	// surface busy errors instead of queueing.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(modelsToMigrate...)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func ResetDatabase(db *gorm.DB) error {
	err := db.Migrator().DropTable(modelsToMigrate...)

	if err != nil {
		return err
	}

	return db.AutoMigrate(modelsToMigrate...)
}

func CloseDatabaseConnection(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

func DeleteDatabase(dbFile string) error {
	if _, err := os.Stat(dbFile); os.IsNotExist(err) {
		log.Info(fmt.Sprintf("Database file '%s' does not exist, nothing to delete", dbFile))
		return nil
	}

	err := os.Remove(dbFile)

	if err != nil {
		return fmt.Errorf("failed to delete database file: %w", err)
	}

	log.Info(fmt.Sprintf("Database file '%s' deleted successfully", dbFile))
	return nil
}
