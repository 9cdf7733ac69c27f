package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Pricing       PricingConfig
	Stripe        StripeConfig
	GCP           GCPConfig
	GCS           GCSConfig
	Media         MediaConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GIFTBLOOM_APP_ENV" required:"true"`
	Port         string `envconfig:"GIFTBLOOM_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GIFTBLOOM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GIFTBLOOM_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"GIFTBLOOM_DB_DSN"`
	Driver string `envconfig:"GIFTBLOOM_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"GIFTBLOOM_DB_HOST"`
	Port     int    `envconfig:"GIFTBLOOM_DB_PORT" default:"5432"`
	User     string `envconfig:"GIFTBLOOM_DB_USER"`
	Password string `envconfig:"GIFTBLOOM_DB_PASSWORD"`
	Name     string `envconfig:"GIFTBLOOM_DB_NAME"`
	SSLMode  string `envconfig:"GIFTBLOOM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GIFTBLOOM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GIFTBLOOM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GIFTBLOOM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GIFTBLOOM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GIFTBLOOM_REDIS_URL" required:"true"`
	Password     string        `envconfig:"GIFTBLOOM_REDIS_PASSWORD"`
	DB           int           `envconfig:"GIFTBLOOM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GIFTBLOOM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GIFTBLOOM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GIFTBLOOM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GIFTBLOOM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GIFTBLOOM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"GIFTBLOOM_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GIFTBLOOM_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GIFTBLOOM_JWT_EXPIRATION_MINUTES" default:"60"`
	SessionTTLMinutes int    `envconfig:"GIFTBLOOM_SESSION_TTL_MINUTES" default:"43200"`
}

// SessionTTL returns the redis session lifetime configured in minutes.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"GIFTBLOOM_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"GIFTBLOOM_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"GIFTBLOOM_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"GIFTBLOOM_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"GIFTBLOOM_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"GIFTBLOOM_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"GIFTBLOOM_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"GIFTBLOOM_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"GIFTBLOOM_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"GIFTBLOOM_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"GIFTBLOOM_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"GIFTBLOOM_AUTO_MIGRATE" default:"false"`
}

// PricingConfig carries the storefront's fixed pricing constants. The VAT
// rate and delivery charge are decimal strings so the calculator never
// touches binary floats.
type PricingConfig struct {
	VATRate        string `envconfig:"GIFTBLOOM_PRICING_VAT_RATE" default:"0.13"`
	DeliveryCharge string `envconfig:"GIFTBLOOM_PRICING_DELIVERY_CHARGE" default:"100"`
	Currency       string `envconfig:"GIFTBLOOM_PRICING_CURRENCY" default:"npr"`
}

func (p PricingConfig) validate() error {
	rate, err := decimal.NewFromString(p.VATRate)
	if err != nil {
		return fmt.Errorf("invalid VAT rate %q: %w", p.VATRate, err)
	}
	if rate.IsNegative() {
		return fmt.Errorf("VAT rate must be non-negative")
	}
	charge, err := decimal.NewFromString(p.DeliveryCharge)
	if err != nil {
		return fmt.Errorf("invalid delivery charge %q: %w", p.DeliveryCharge, err)
	}
	if charge.IsNegative() {
		return fmt.Errorf("delivery charge must be non-negative")
	}
	if strings.TrimSpace(p.Currency) == "" {
		return fmt.Errorf("pricing currency is required")
	}
	return nil
}

// VAT returns the parsed tax rate. validate() runs at load time, so the
// parse cannot fail here.
func (p PricingConfig) VAT() decimal.Decimal {
	rate, _ := decimal.NewFromString(p.VATRate)
	return rate
}

// Delivery returns the parsed flat delivery charge.
func (p PricingConfig) Delivery() decimal.Decimal {
	charge, _ := decimal.NewFromString(p.DeliveryCharge)
	return charge
}

type StripeConfig struct {
	APIKey string `envconfig:"GIFTBLOOM_STRIPE_API_KEY"`
	Env    string `envconfig:"GIFTBLOOM_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type GCPConfig struct {
	ProjectID              string `envconfig:"GIFTBLOOM_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"GIFTBLOOM_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"GIFTBLOOM_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"GIFTBLOOM_GCS_BUCKET_NAME"`
	UploadURLExpiry   time.Duration `envconfig:"GIFTBLOOM_GCS_UPLOAD_URL_EXPIRY" default:"15m"`
	DownloadURLExpiry time.Duration `envconfig:"GIFTBLOOM_GCS_DOWNLOAD_URL_EXPIRY" default:"1h"`
}

type MediaConfig struct {
	MaxUploadMB    int `envconfig:"GIFTBLOOM_MAX_UPLOAD_MB" default:"10"`
	ImageMaxWidth  int `envconfig:"GIFTBLOOM_MEDIA_IMAGE_MAX_WIDTH" default:"1920"`
	ImageMaxHeight int `envconfig:"GIFTBLOOM_MEDIA_IMAGE_MAX_HEIGHT" default:"1080"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
