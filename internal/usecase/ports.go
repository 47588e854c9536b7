package usecase

import (
	"context"
	"io"
	"time"

	"github.com/Svamsi2006/balaveerulu/internal/domain/model"
)

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID() string
}

// 決済ウィジェットの初期化
type PaymentGateway interface {
	Prepare(ctx context.Context, req model.PaymentRequest) (model.PaymentOptions, error)
}

// メールAPI（送信失敗で注文を失敗させない）
type Notifier interface {
	Send(ctx context.Context, msg model.EmailMessage) error
}

// 子どもの写真の保存先。公開URLを返す
type PhotoUploader interface {
	Upload(ctx context.Context, r io.Reader, filename string) (string, error)
}

// 入力チェック（validatorパッケージが実装）
type ContactValidator interface {
	ValidateContact(ctx context.Context, in ContactInput) []FieldError
}
