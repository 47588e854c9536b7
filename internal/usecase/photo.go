package usecase

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// 写真の上限（5MB）
const MaxPhotoBytes = 5 * 1024 * 1024

// readPhoto は中身を見て画像か判定する（拡張子やContent-Typeは信用しない）
func readPhoto(r io.Reader) (*bytes.Reader, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxPhotoBytes+1))
	if err != nil {
		return nil, NewHTTPError(http.StatusBadRequest, "could not read photo")
	}
	if len(data) == 0 {
		return nil, newValidationError([]FieldError{{Field: "photo", Message: "photo is required"}})
	}
	if len(data) > MaxPhotoBytes {
		return nil, newValidationError([]FieldError{{Field: "photo", Message: "photo must be 5MB or smaller"}})
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, newValidationError([]FieldError{{Field: "photo", Message: fmt.Sprintf("photo must be an image, got %s", mt.String())}})
	}
	return bytes.NewReader(data), nil
}
