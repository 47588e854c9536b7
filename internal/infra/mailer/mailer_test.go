package mailer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/gomail.v2"

	"github.com/Svamsi2006/balaveerulu/internal/domain/model"
)

type captureSender struct {
	mu   sync.Mutex
	sent []*gomail.Message
	err  error
}

func (c *captureSender) DialAndSend(m ...*gomail.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, m...)
	return c.err
}

// 応答しないSMTPサーバー
type hangingSender struct{ release chan struct{} }

func (h *hangingSender) DialAndSend(m ...*gomail.Message) error {
	<-h.release
	return nil
}

func orderMessage() model.EmailMessage {
	return model.EmailMessage{
		TemplateID: model.EmailTemplateOrderNotification,
		To:         "orders@example.com",
		Vars: map[string]string{
			"name":    "Lakshmi Rao",
			"email":   "lakshmi@example.com",
			"subject": "New order ORD-1",
			"message": "Space Explorer x1",
		},
	}
}

func TestSMTP_Send(t *testing.T) {
	capture := &captureSender{}
	s := &SMTP{dialer: capture, from: "shop@example.com"}

	require.NoError(t, s.Send(context.Background(), orderMessage()))

	require.Len(t, capture.sent, 1)
	m := capture.sent[0]
	assert.Equal(t, []string{"orders@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"New order ORD-1"}, m.GetHeader("Subject"))
	assert.Equal(t, []string{"lakshmi@example.com"}, m.GetHeader("Reply-To"))
}

func TestSMTP_UnknownTemplate(t *testing.T) {
	s := &SMTP{dialer: &captureSender{}, from: "shop@example.com"}
	msg := orderMessage()
	msg.TemplateID = "welcome"

	err := s.Send(context.Background(), msg)
	assert.ErrorContains(t, err, "unknown email template")
}

func TestSMTP_DialError(t *testing.T) {
	s := &SMTP{dialer: &captureSender{err: errors.New("connection refused")}, from: "shop@example.com"}
	err := s.Send(context.Background(), orderMessage())
	assert.ErrorContains(t, err, "failed to send email")
}

func TestSMTP_HungServerHonoursDeadline(t *testing.T) {
	hang := &hangingSender{release: make(chan struct{})}
	defer close(hang.release)
	s := &SMTP{dialer: hang, from: "shop@example.com"}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := s.Send(ctx, orderMessage())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestAsync_WaitReturnsWhenSMTPHangs(t *testing.T) {
	hang := &hangingSender{release: make(chan struct{})}
	defer close(hang.release)
	core, logs := observer.New(zap.WarnLevel)
	a := NewAsync(&SMTP{dialer: hang, from: "shop@example.com"}, zap.New(core), 20*time.Millisecond)

	require.NoError(t, a.Send(context.Background(), orderMessage()))

	done := make(chan struct{})
	go func() {
		a.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait blocked on a hung SMTP server")
	}
	assert.Equal(t, 1, logs.FilterMessage("email send failed").Len())
}

func TestNewSMTP_RequiresConfig(t *testing.T) {
	_, err := NewSMTP(SMTPConfig{Host: "smtp.example.com"})
	assert.Error(t, err)
}

type funcSender func(ctx context.Context, msg model.EmailMessage) error

func (f funcSender) Send(ctx context.Context, msg model.EmailMessage) error { return f(ctx, msg) }

func TestAsync_DoesNotWaitAndLogsFailure(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	release := make(chan struct{})

	a := NewAsync(funcSender(func(ctx context.Context, msg model.EmailMessage) error {
		<-release
		return errors.New("quota exceeded")
	}), zap.New(core), time.Second)

	start := time.Now()
	assert.NoError(t, a.Send(context.Background(), orderMessage()))
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	close(release)
	a.Wait()

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "email send failed", logs.All()[0].Message)
}

func TestAsync_SurvivesCancelledCaller(t *testing.T) {
	var got error
	a := NewAsync(funcSender(func(ctx context.Context, msg model.EmailMessage) error {
		got = ctx.Err()
		return nil
	}), zap.NewNop(), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, a.Send(ctx, orderMessage()))
	a.Wait()

	assert.NoError(t, got)
}
