package repository

import (
	"context"
	"time"
)

// ログイン中だけ持つ状態（クーポン、ウィザード、決済待ち）とロック。
// 値はJSONで保存する。無いキーはErrNotFound。
type SessionStore interface {
	Get(ctx context.Context, key string, dst any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	// 取れたらtrue。取れなければfalse（エラーではない）
	// token は取った本人の印。Unlock は token が一致するときだけ外す
	TryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key, token string) error
}

// セッションのキー
func CouponKey(userID string) string          { return "cart:coupon:" + userID }
func WizardKey(userID string) string          { return "wizard:" + userID }
func PendingCheckoutKey(userID string) string { return "checkout:pending:" + userID }
func SubmitLockKey(userID string) string      { return "lock:submit:" + userID }
