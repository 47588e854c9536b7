// Package wizard は本の作成ウィザードの状態機械。
// ステップを動かすのは Fire だけ。
package wizard

import (
	"errors"
	"fmt"

	"github.com/Svamsi2006/balaveerulu/internal/domain/model"
)

var (
	// 遷移表にない操作
	ErrTransitionNotAllowed = errors.New("transition not allowed")
)

// Data は各ステップで入力した内容（戻っても消えない）
type Data struct {
	ProductID     string                `json:"product_id"`
	Format        model.Format          `json:"format"`
	CharacterName string                `json:"character_name"`
	CustomMessage string                `json:"custom_message"`
	CustomStory   string                `json:"custom_story"`
	CustomTitle   string                `json:"custom_title"`
	PhotoURL      string                `json:"photo_url"`
	Shipping      model.ShippingAddress `json:"shipping"`
	CouponCode    string                `json:"coupon_code"`
}

// Notice は支払い画面から戻ってきた理由
type Notice string

const (
	NoticeNone             Notice = ""
	NoticePaymentCancelled Notice = "payment_cancelled"
	NoticePaymentFailed    Notice = "payment_failed"
)

// Checkout は支払いウィジェットに渡した金額の控え。
// 支払い画面から戻っても残す（閉じた後に成功通知が届くことがある）。
type Checkout struct {
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
}

// Wizard は1ユーザー分の状態
type Wizard struct {
	Step        Step      `json:"step"`
	Data        Data      `json:"data"`
	Notice      Notice    `json:"notice,omitempty"`
	Checkout    *Checkout `json:"checkout,omitempty"`
	OrderNumber string    `json:"order_number,omitempty"`
}

func New() *Wizard {
	return &Wizard{Step: StepSelectProduct}
}

// Can は検証抜きで遷移表に載っているかだけを見る
func (w *Wizard) Can(ev Event) bool {
	_, ok := transitions[w.Step][ev]
	return ok
}

// Fire は唯一の遷移関数。
// next はそのステップの検証を通ったときだけ進む（支払いへは全体を再検証）。
// 失敗したときは Step もデータも変わらない。
func (w *Wizard) Fire(ev Event) error {
	to, ok := transitions[w.Step][ev]
	if !ok {
		return fmt.Errorf("%w: %s from %s", ErrTransitionNotAllowed, ev, w.Step)
	}

	if ev == EventNext {
		if err := ValidateStep(w.Step, w.Data); err != nil {
			return err
		}
		if to == StepPayment {
			if err := ValidateAll(w.Data); err != nil {
				return err
			}
		}
	}

	switch ev {
	case EventPaymentDismissed:
		w.Notice = NoticePaymentCancelled
	case EventPaymentFailed:
		w.Notice = NoticePaymentFailed
	default:
		w.Notice = NoticeNone
	}
	w.Step = to
	return nil
}

// Editable は今のステップで入力を変更できるか
func (w *Wizard) Editable() bool {
	return w.Step >= StepSelectProduct && w.Step <= StepShippingDetails
}

// Restart は入力を捨てて最初に戻す。
// 確定していない支払いの控えだけは引き継ぐ。
func (w *Wizard) Restart() *Wizard {
	fresh := New()
	if w.Step != StepConfirmed {
		fresh.Checkout = w.Checkout
	}
	return fresh
}

// AwaitingPayment は支払い結果をまだ受け取っていない控えがあるか
func (w *Wizard) AwaitingPayment() bool {
	return w.Checkout != nil && w.Step != StepConfirmed
}

// Complete は確認画面まで来たか
func (w *Wizard) Complete() bool {
	return w.Step == StepConfirmed
}
