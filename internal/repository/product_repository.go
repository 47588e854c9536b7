package repository

import (
	"context"
	"errors"

	"github.com/Svamsi2006/balaveerulu/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 絵本カタログの取得と初期投入
type ProductRepository interface {
	ListActive(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id string) (model.Product, error)

	// 既存のslugは上書きしない
	Seed(ctx context.Context, products []model.Product) error
}
