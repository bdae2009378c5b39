package config

import (
	"fmt"
	"os"
	"strconv"

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
	DBMaxOpenConns   int // 接続プール（10）

	JWTSecret          string // JWT署名シークレット
	AdminSessionCookie string // 管理画面のセッションcookie名

	PaymentKeyID         string // 決済ゲートウェイの公開キー
	PaymentKeySecret     string // 署名検証用
	PaymentWebhookSecret string // webhook署名検証用

	Pricing Pricing

	RabbitURL      string // 空ならイベントはプロセス内で処理
	RabbitExchange string

	GoEnv     string // dev/prod
	APIDomain string // APIドメイン（cookieやCORSなどで使う）
	FEURL     string // フロントURL（CORSなどで使う）
}

// 注文金額の計算ルール
type Pricing struct {
	Currency    string
	ShippingFee decimal.Decimal
	//この金額以上は送料無料（0なら無効）
	FreeShippingThreshold decimal.Decimal
	TaxRate               decimal.Decimal
	DiscountRate          decimal.Decimal
}

// Loadは環境変数
func Load() (Config, error) {
	pgPort, err := atoiDefault("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}
	maxConns, err := atoiDefault("DB_MAX_OPEN_CONNS", 10)
	if err != nil {
		return Config{}, err
	}
	pricing, err := loadPricing()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: getenv("PORT", "8080"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     getenv("POSTGRES_USER", "postgres"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       getenv("POSTGRES_DB", "marketplace"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),
		DBMaxOpenConns:   maxConns,

		JWTSecret:          os.Getenv("JWT_SECRET"),
		AdminSessionCookie: getenv("ADMIN_SESSION_COOKIE", "admin_session"),

		PaymentKeyID:         os.Getenv("PAYMENT_KEY_ID"),
		PaymentKeySecret:     os.Getenv("PAYMENT_KEY_SECRET"),
		PaymentWebhookSecret: os.Getenv("PAYMENT_WEBHOOK_SECRET"),

		Pricing: pricing,

		RabbitURL:      os.Getenv("RABBIT_URL"),
		RabbitExchange: getenv("RABBIT_EXCHANGE", "marketplace_events"),

		GoEnv:     getenv("GO_ENV", "dev"),
		APIDomain: os.Getenv("API_DOMAIN"),
		FEURL:     getenv("FE_URL", "http://localhost:3000"),
	}

	//必須チェック
	if cfg.DatabaseURL == "" && cfg.PostgresPassword == "" {
		return Config{}, fmt.Errorf("DATABASE_URL or POSTGRES_PASSWORD is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.PaymentKeyID == "" {
		return Config{}, fmt.Errorf("PAYMENT_KEY_ID is required")
	}
	if cfg.PaymentKeySecret == "" {
		return Config{}, fmt.Errorf("PAYMENT_KEY_SECRET is required")
	}
	if cfg.PaymentWebhookSecret == "" {
		return Config{}, fmt.Errorf("PAYMENT_WEBHOOK_SECRET is required")
	}
	if cfg.DBMaxOpenConns <= 0 {
		return Config{}, fmt.Errorf("DB_MAX_OPEN_CONNS must be positive")
	}

	return cfg, nil
}

func loadPricing() (Pricing, error) {
	p := Pricing{Currency: getenv("CURRENCY", "INR")}
	if len(p.Currency) != 3 {
		return Pricing{}, fmt.Errorf("CURRENCY must be a 3-letter code")
	}

	var err error
	if p.ShippingFee, err = decimalDefault("SHIPPING_FEE", "50"); err != nil {
		return Pricing{}, err
	}
	if p.FreeShippingThreshold, err = decimalDefault("FREE_SHIPPING_THRESHOLD", "0"); err != nil {
		return Pricing{}, err
	}
	if p.TaxRate, err = decimalDefault("TAX_RATE", "0.18"); err != nil {
		return Pricing{}, err
	}
	if p.DiscountRate, err = decimalDefault("DISCOUNT_RATE", "0"); err != nil {
		return Pricing{}, err
	}

	one := decimal.NewFromInt(1)
	if p.ShippingFee.IsNegative() || p.FreeShippingThreshold.IsNegative() {
		return Pricing{}, fmt.Errorf("SHIPPING_FEE and FREE_SHIPPING_THRESHOLD must not be negative")
	}
	if p.TaxRate.IsNegative() || p.TaxRate.GreaterThan(one) {
		return Pricing{}, fmt.Errorf("TAX_RATE must be between 0 and 1")
	}
	if p.DiscountRate.IsNegative() || p.DiscountRate.GreaterThan(one) {
		return Pricing{}, fmt.Errorf("DISCOUNT_RATE must be between 0 and 1")
	}
	return p, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiDefault(key string, def int) (int, error) {
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

func decimalDefault(key string, def string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(getenv(key, def))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be decimal: %w", key, err)
	}
	return d, nil
}
