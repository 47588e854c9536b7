package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Svamsi2006/balaveerulu/internal/domain/model"
	"github.com/Svamsi2006/balaveerulu/internal/domain/pricing"
	repo "github.com/Svamsi2006/balaveerulu/internal/repository"
)

const (
	catalogCacheKey = "catalog:products"
	catalogCacheTTL = 5 * time.Minute
)

// CatalogUsecase は絵本一覧と形態ごとの価格
type CatalogUsecase struct {
	products repo.ProductRepository
	cache    repo.SessionStore
	prices   pricing.PriceList
	log      *zap.Logger
}

func NewCatalogUsecase(products repo.ProductRepository, cache repo.SessionStore, prices pricing.PriceList, log *zap.Logger) *CatalogUsecase {
	return &CatalogUsecase{products: products, cache: cache, prices: prices, log: log}
}

type FormatPrice struct {
	Format model.Format    `json:"format"`
	Price  decimal.Decimal `json:"price"`
}

type CatalogOutput struct {
	Products []model.Product `json:"products"`
	Formats  []FormatPrice   `json:"formats"`
}

type ProductOutput struct {
	Product model.Product `json:"product"`
	Formats []FormatPrice `json:"formats"`
}

func (u *CatalogUsecase) formatPrices() []FormatPrice {
	out := make([]FormatPrice, 0, len(model.Formats))
	for _, f := range model.Formats {
		if p, err := u.prices.PriceOf(f); err == nil {
			out = append(out, FormatPrice{Format: f, Price: p})
		}
	}
	return out
}

// キャッシュが使えなくても一覧は返す
func (u *CatalogUsecase) activeProducts(ctx context.Context) ([]model.Product, error) {
	var cached []model.Product
	err := u.cache.Get(ctx, catalogCacheKey, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		u.log.Warn("catalog cache read failed", zap.Error(err))
	}

	products, err := u.products.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	if err := u.cache.Set(ctx, catalogCacheKey, products, catalogCacheTTL); err != nil {
		u.log.Warn("catalog cache write failed", zap.Error(err))
	}
	return products, nil
}

func (u *CatalogUsecase) ListProducts(ctx context.Context) (CatalogOutput, error) {
	products, err := u.activeProducts(ctx)
	if err != nil {
		return CatalogOutput{}, NewHTTPError(http.StatusInternalServerError, msgDBError)
	}
	return CatalogOutput{Products: products, Formats: u.formatPrices()}, nil
}

func (u *CatalogUsecase) GetProduct(ctx context.Context, id string) (ProductOutput, error) {
	p, err := u.FindProduct(ctx, id)
	if err != nil {
		return ProductOutput{}, err
	}
	return ProductOutput{Product: p, Formats: u.formatPrices()}, nil
}

// FindProduct は公開中の絵本を1冊返す（カートとウィザードからも使う）
func (u *CatalogUsecase) FindProduct(ctx context.Context, id string) (model.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.Product{}, NewHTTPError(http.StatusNotFound, msgNotFound)
	}

	// キャッシュにあればDBを見ない
	var cached []model.Product
	if err := u.cache.Get(ctx, catalogCacheKey, &cached); err == nil {
		for _, p := range cached {
			if p.ID == id {
				return p, nil
			}
		}
	}

	p, err := u.products.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, msgNotFound)
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, msgDBError)
	}
	return p, nil
}

// PriceOf は形態の単価
func (u *CatalogUsecase) PriceOf(f model.Format) (decimal.Decimal, error) {
	if !f.Valid() {
		return decimal.Zero, newValidationError([]FieldError{{Field: "format", Message: "choose digital, print or combo"}})
	}
	p, err := u.prices.PriceOf(f)
	if err != nil {
		return decimal.Zero, NewHTTPError(http.StatusInternalServerError, "price not configured")
	}
	return p, nil
}
