package usecase

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	repo "github.com/Svamsi2006/balaveerulu/internal/repository"
)

// SessionUsecase はサインイン／サインアウト時のカート状態
// 認証そのものは外部（JWT発行元）が持つ。
type SessionUsecase struct {
	carts    *CartUsecase
	sessions repo.SessionStore
	log      *zap.Logger
}

func NewSessionUsecase(carts *CartUsecase, sessions repo.SessionStore, log *zap.Logger) *SessionUsecase {
	return &SessionUsecase{carts: carts, sessions: sessions, log: log}
}

// SignIn は保存済みのカートを読み込んで返す
func (u *SessionUsecase) SignIn(ctx context.Context, userID string) (CartView, error) {
	return u.carts.GetCart(ctx, userID)
}

// SignOut はクーポン・ウィザード・決済待ちを消す（カート明細はDBに残る）
func (u *SessionUsecase) SignOut(ctx context.Context, userID string) error {
	if userID == "" {
		return NewHTTPError(http.StatusUnauthorized, msgSignInRequired)
	}
	err := u.sessions.Delete(ctx,
		repo.CouponKey(userID),
		repo.WizardKey(userID),
		repo.PendingCheckoutKey(userID),
	)
	if err != nil {
		u.log.Warn("sign out cleanup failed", zap.String("user_id", userID), zap.Error(err))
		return NewHTTPError(http.StatusServiceUnavailable, msgPersistence)
	}
	return nil
}
