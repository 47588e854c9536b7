package db

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Svamsi2006/balaveerulu/internal/domain/model"
)

// Connect はDBに接続して *gorm.DB を返す。
func Connect(dsn string, dev bool) (*gorm.DB, error) {
	level := logger.Warn
	if dev {
		level = logger.Info
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return gdb, nil
}

// Migrate はテーブルを作成・更新する
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&model.Product{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.AuditLog{},
	)
}

// 絵本カタログの初期投入
type productSeeder interface {
	Seed(ctx context.Context, products []model.Product) error
}

func SeedProducts(ctx context.Context, repo productSeeder, log *zap.Logger) error {
	products := model.DefaultProducts()
	if err := repo.Seed(ctx, products); err != nil {
		return fmt.Errorf("seed products: %w", err)
	}
	log.Info("catalog seeded", zap.Int("products", len(products)))
	return nil
}
