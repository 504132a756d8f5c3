package db

import (
	"fmt"
	"os"

	"material_lending/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func DSNFromEnv() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)
}

func ConnectDB(dsn string, log *zap.Logger) (*gorm.DB, error) {
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("migrate models: %w", err)
	}
	log.Info("database connected")
	return conn, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Material{},
		&models.Request{},
		&models.RequestItem{},
		&models.RequestEvent{},
	); err != nil {
		return err
	}

	// 每个用户最多一个草稿（购物车）
	if err := db.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_one_draft_per_user
	  ON %s (user_id)
	  WHERE status = 'draft';
	`, models.RequestTable, models.RequestTable)).Error; err != nil {
		return err
	}

	// 同一草稿里每种物料只有一行
	if err := db.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_one_line_per_material
	  ON %s (request_id, material_id);
	`, models.RequestItemTable, models.RequestItemTable)).Error; err != nil {
		return err
	}

	// 计算借出数量时只看未归还的行
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_open_material
	  ON %s (material_id, request_id)
	  WHERE returned = FALSE;
	`, models.RequestItemTable, models.RequestItemTable)).Error; err != nil {
		return err
	}

	return nil
}
