package mailer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Svamsi2006/balaveerulu/internal/domain/model"
)

// Sender はメール送信の窓口
type Sender interface {
	Send(ctx context.Context, msg model.EmailMessage) error
}

// Async は送信を待たずに返す。失敗はログに残すだけ。
type Async struct {
	next    Sender
	log     *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAsync(next Sender, log *zap.Logger, timeout time.Duration) *Async {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Async{next: next, log: log, timeout: timeout}
}

// Send は常に nil を返す
// 呼び出し元のリクエストが終わっても送信は続ける
func (a *Async) Send(_ context.Context, msg model.EmailMessage) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		if err := a.next.Send(ctx, msg); err != nil {
			a.log.Warn("email send failed",
				zap.String("template", msg.TemplateID),
				zap.String("to", msg.To),
				zap.Error(err),
			)
			return
		}
		a.log.Debug("email sent", zap.String("template", msg.TemplateID))
	}()
	return nil
}

// Wait は送信中のメールを待つ（シャットダウン時）
func (a *Async) Wait() {
	a.wg.Wait()
}

// Noop はSMTP未設定のときに使う
type Noop struct {
	log *zap.Logger
}

func NewNoop(log *zap.Logger) *Noop {
	return &Noop{log: log}
}

func (n *Noop) Send(_ context.Context, msg model.EmailMessage) error {
	n.log.Info("email skipped (SMTP not configured)", zap.String("template", msg.TemplateID))
	return nil
}
