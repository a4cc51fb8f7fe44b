package database

import (
	"fmt"
	"time"

	"estatelink_backend/internal/model"
	"estatelink_backend/pkg/config"
	"estatelink_backend/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// Models lists every table the API owns, in dependency order.
var Models = []interface{}{
	&model.User{},
	&model.SubscriptionPlan{},
	&model.SubscribedPlan{},
	&model.Transaction{},
	&model.Property{},
	&model.PropertyImage{},
	&model.PropertyQuery{},
	&model.Review{},
	&model.Banner{},
	&model.SeoMeta{},
}

func InitDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	pgConfig := postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // pgbouncer in transaction mode rejects prepared statements
	}

	gormConfig := &gorm.Config{
		Logger:      gormlogger.Default.LogMode(gormlogger.Error),
		PrepareStmt: false,
		NowFunc:     func() time.Time { return time.Now().UTC() },
	}

	db, err := gorm.Open(postgres.New(pgConfig), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	logger.Info("database connected", "host", cfg.Host, "name", cfg.DBName)
	return db, nil
}

func GetDB() *gorm.DB {
	return DB
}

func MigrateDatabase(db *gorm.DB, models ...interface{}) error {
	for _, m := range models {
		if !db.Migrator().HasTable(m) {
			if err := db.Migrator().CreateTable(m); err != nil {
				return fmt.Errorf("create table for %T: %w", m, err)
			}
			logger.Info("created table", "model", fmt.Sprintf("%T", m))
			continue
		}
		if err := db.Migrator().AutoMigrate(m); err != nil {
			return fmt.Errorf("migrate %T: %w", m, err)
		}
		logger.Debug("updated table", "model", fmt.Sprintf("%T", m))
	}
	return nil
}
