package usecase

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Svamsi2006/balaveerulu/internal/domain/model"
)

type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// ContactUsecase はお問い合わせフォーム
type ContactUsecase struct {
	validator ContactValidator
	notifier  Notifier
	to        string
	log       *zap.Logger
}

func NewContactUsecase(v ContactValidator, notifier Notifier, to string, log *zap.Logger) *ContactUsecase {
	return &ContactUsecase{validator: v, notifier: notifier, to: to, log: log}
}

func (u *ContactUsecase) Submit(ctx context.Context, in ContactInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)

	if fe := u.validator.ValidateContact(ctx, in); len(fe) > 0 {
		return newValidationError(fe)
	}
	if u.to == "" {
		return NewHTTPError(http.StatusServiceUnavailable, "contact form not configured")
	}

	err := u.notifier.Send(ctx, model.EmailMessage{
		TemplateID: model.EmailTemplateContactMessage,
		To:         u.to,
		Vars: map[string]string{
			"name":    in.Name,
			"email":   in.Email,
			"subject": in.Subject,
			"message": in.Message,
		},
	})
	if err != nil {
		u.log.Warn("contact email failed", zap.String("email", in.Email), zap.Error(err))
		return NewHTTPError(http.StatusBadGateway, "could not send message, please retry")
	}
	return nil
}
