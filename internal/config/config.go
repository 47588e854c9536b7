package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	DatabaseURL      string // あれば最優先
	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）
	PostgresSSLMode  string

	JWTSecret string // ホスト認証のJWT署名シークレット（HS256）

	GoEnv string // dev/prod
	FEURL string // フロントURL（CORSなどで使う）

	RequestTimeout time.Duration

	// Redis（空ならメモリで動かす）
	RedisURL      string
	RedisAddr     string
	RedisPassword string

	// メール
	SMTPHost          string
	SMTPPort          int
	SMTPUser          string
	SMTPPassword      string
	MailFrom          string
	OrderNotifyEmail  string // 注文通知の宛先（運営）
	ContactNotifyMail string // お問い合わせの宛先

	// 決済ウィジェット
	RazorpayKeyID string
	StoreName     string
	StoreLogoURL  string

	// 写真アップロード（空なら無効）
	CloudinaryURL    string
	CloudinaryFolder string

	// 価格と割引
	Coupons             map[string]decimal.Decimal
	FamilyPackThreshold int
	FamilyPackAmount    decimal.Decimal
	PriceDigital        decimal.Decimal
	PricePrint          decimal.Decimal
	PriceCombo          decimal.Decimal
}

// Loadは環境変数
func Load() (Config, error) {
	pgPort, err := atoiOr("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}
	smtpPort, err := atoiOr("SMTP_PORT", 587)
	if err != nil {
		return Config{}, err
	}
	threshold, err := atoiOr("FAMILY_PACK_THRESHOLD", 2)
	if err != nil {
		return Config{}, err
	}
	timeout, err := durationOr("REQUEST_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: getenv("PORT", "8080"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		GoEnv: getenv("GO_ENV", "prod"),
		FEURL: os.Getenv("FE_URL"),

		RequestTimeout: timeout,

		RedisURL:      os.Getenv("REDIS_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		SMTPHost:          os.Getenv("SMTP_HOST"),
		SMTPPort:          smtpPort,
		SMTPUser:          os.Getenv("SMTP_USER"),
		SMTPPassword:      os.Getenv("SMTP_PASSWORD"),
		MailFrom:          getenv("MAIL_FROM", os.Getenv("SMTP_USER")),
		OrderNotifyEmail:  os.Getenv("ORDER_NOTIFY_EMAIL"),
		ContactNotifyMail: getenv("CONTACT_NOTIFY_EMAIL", os.Getenv("ORDER_NOTIFY_EMAIL")),

		RazorpayKeyID: os.Getenv("RAZORPAY_KEY_ID"),
		StoreName:     getenv("STORE_NAME", "Balaveerulu"),
		StoreLogoURL:  os.Getenv("STORE_LOGO_URL"),

		CloudinaryURL:    os.Getenv("CLOUDINARY_URL"),
		CloudinaryFolder: getenv("CLOUDINARY_FOLDER", "child-photos"),

		FamilyPackThreshold: threshold,
	}

	if cfg.Coupons, err = parseCoupons(os.Getenv("COUPON_CODES")); err != nil {
		return Config{}, err
	}
	if cfg.FamilyPackAmount, err = decimalOr("FAMILY_PACK_AMOUNT", "200"); err != nil {
		return Config{}, err
	}
	if cfg.PriceDigital, err = decimalOr("PRICE_DIGITAL", "399"); err != nil {
		return Config{}, err
	}
	if cfg.PricePrint, err = decimalOr("PRICE_PRINT", "799"); err != nil {
		return Config{}, err
	}
	if cfg.PriceCombo, err = decimalOr("PRICE_COMBO", "999"); err != nil {
		return Config{}, err
	}

	//必須チェック
	if cfg.DatabaseURL == "" {
		if cfg.PostgresUser == "" {
			return Config{}, fmt.Errorf("POSTGRES_USER is required")
		}
		if cfg.PostgresPassword == "" {
			return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
		}
		if cfg.PostgresDB == "" {
			return Config{}, fmt.Errorf("POSTGRES_DB is required")
		}
		if cfg.PostgresHost == "" {
			return Config{}, fmt.Errorf("POSTGRES_HOST is required")
		}
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.RazorpayKeyID == "" {
		return Config{}, fmt.Errorf("RAZORPAY_KEY_ID is required")
	}
	if cfg.FEURL == "" {
		return Config{}, fmt.Errorf("FE_URL is required")
	}

	return cfg, nil
}

// IsDev は開発環境か
func (c Config) IsDev() bool {
	return c.GoEnv == "dev"
}

// DSN はPostgres接続文字列
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

// COUPON_CODES="HARSHI10=0.10,SIVA100=0.98"
// 空なら nil（既定の表を使う）
func parseCoupons(raw string) (map[string]decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	out := map[string]decimal.Decimal{}
	for _, pair := range strings.Split(raw, ",") {
		code, frac, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || strings.TrimSpace(code) == "" {
			return nil, fmt.Errorf("COUPON_CODES: invalid entry %q", pair)
		}
		f, err := decimal.NewFromString(strings.TrimSpace(frac))
		if err != nil {
			return nil, fmt.Errorf("COUPON_CODES: %s: %w", code, err)
		}
		out[strings.TrimSpace(code)] = f
	}
	return out, nil
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiOr(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func durationOr(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}

func decimalOr(key, def string) (decimal.Decimal, error) {
	v := getenv(key, def)
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be number: %w", key, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}
