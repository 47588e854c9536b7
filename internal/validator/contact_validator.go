package validator

import (
	"context"
	"regexp"
	"unicode/utf8"

	"github.com/Svamsi2006/balaveerulu/internal/usecase"
)

// 文字数の上限
const (
	maxNameLen    = 100
	maxSubjectLen = 200
	maxMessageLen = 5000
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type contactValidator struct{}

// Usecaseは interface を依存注入
func NewContactValidator() usecase.ContactValidator {
	return &contactValidator{}
}

// お問い合わせの入力を検証（空白は usecase 側で落とし済み）
func (v *contactValidator) ValidateContact(ctx context.Context, in usecase.ContactInput) []usecase.FieldError {
	var fe []usecase.FieldError

	// 必須チェック
	if in.Name == "" {
		fe = append(fe, usecase.FieldError{Field: "name", Message: "name is required"})
	} else if utf8.RuneCountInString(in.Name) > maxNameLen {
		fe = append(fe, usecase.FieldError{Field: "name", Message: "name is too long"})
	}

	// email形式
	if in.Email == "" {
		fe = append(fe, usecase.FieldError{Field: "email", Message: "email is required"})
	} else if !isEmailLike(in.Email) {
		fe = append(fe, usecase.FieldError{Field: "email", Message: "email is invalid"})
	}

	if utf8.RuneCountInString(in.Subject) > maxSubjectLen {
		fe = append(fe, usecase.FieldError{Field: "subject", Message: "subject is too long"})
	}

	if in.Message == "" {
		fe = append(fe, usecase.FieldError{Field: "message", Message: "message is required"})
	} else if utf8.RuneCountInString(in.Message) > maxMessageLen {
		fe = append(fe, usecase.FieldError{Field: "message", Message: "message is too long"})
	}

	return fe
}

// 簡易メール形式をチェック
func isEmailLike(s string) bool {
	return emailRe.MatchString(s)
}
