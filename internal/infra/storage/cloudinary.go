// Package storage は子どもの写真をCloudinaryに保存する。
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// 実際のアップロード部分（テストで差し替える）
type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
}

type Cloudinary struct {
	api    uploadAPI
	folder string
	now    func() time.Time
}

func NewCloudinary(cloudinaryURL, folder string) (*Cloudinary, error) {
	if cloudinaryURL == "" {
		return nil, errors.New("cloudinary environment variables not set")
	}
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init from URL fail: %w", err)
	}
	return &Cloudinary{api: &cld.Upload, folder: folder, now: time.Now}, nil
}

// Upload は画像を保存して公開URLを返す（形式とサイズは呼び出し側で確認済み）
func (c *Cloudinary) Upload(ctx context.Context, r io.Reader, filename string) (string, error) {
	name := strings.TrimSuffix(strings.ReplaceAll(filename, " ", "_"), extOf(filename))
	publicID := fmt.Sprintf("%d_%s", c.now().UnixNano(), name)

	res, err := c.api.Upload(ctx, r, uploader.UploadParams{
		PublicID:     publicID,
		Folder:       c.folder,
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to cloudinary: %w", err)
	}
	if res == nil {
		return "", errors.New("cloudinary response is nil")
	}
	if res.SecureURL != "" {
		return res.SecureURL, nil
	}
	if res.URL != "" {
		return res.URL, nil
	}
	return "", errors.New("both SecureURL and URL are empty")
}

func extOf(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i:]
	}
	return ""
}
