package repository

import (
	"context"

	"github.com/Svamsi2006/balaveerulu/internal/domain/model"
)

// カート明細はユーザー単位で持つ（cartsテーブルは無い）
// userIDを受け取る操作は、他人の明細には触れない。見つからなければErrNotFound。
type CartItemRepository interface {
	ListByUserID(ctx context.Context, userID string) ([]model.CartItem, error)
	// IDが空ならここで採番する
	Create(ctx context.Context, item model.CartItem) (model.CartItem, error)
	UpdateQuantity(ctx context.Context, userID string, cartItemID string, qty int) error
	DeleteByID(ctx context.Context, userID string, cartItemID string) error
	DeleteAllByUserID(ctx context.Context, userID string) error
}
