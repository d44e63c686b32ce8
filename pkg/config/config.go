package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/fx"
)

type Config struct {
	AppEnv     string `mapstructure:"APP_ENV"`
	AppName    string `mapstructure:"APP_NAME"`
	AppVersion string `mapstructure:"APP_VERSION"`
	TLS        struct {
		Enable   bool   `mapstructure:"ENABLE"`
		CertPath string `mapstructure:"CERT_PATH"`
		KeyPath  string `mapstructure:"KEY_PATH"`
	} `mapstructure:"TLS"`
	Server struct {
		Addr         string        `mapstructure:"ADDR"`
		ReadTimeout  time.Duration `mapstructure:"READ_TIMEOUT"`
		WriteTimeout time.Duration `mapstructure:"WRITE_TIMEOUT"`
		IdleTimeout  time.Duration `mapstructure:"IDLE_TIMEOUT"`
	} `mapstructure:"HTTP_SERVER"`
	Database struct {
		Type           string `mapstructure:"TYPE"`
		Host           string `mapstructure:"HOST"`
		Port           string `mapstructure:"PORT"`
		DBNAME         string `mapstructure:"DBNAME"`
		User           string `mapstructure:"USER"`
		Password       string `mapstructure:"PASSWORD"`
		SSLMode        string `mapstructure:"SSLMODE"`
		Timezone       string `mapstructure:"TIMEZONE"`
		ConnectionPool struct {
			MaxIdleConn     int           `mapstructure:"MAX_IDLE_CONN"`
			MaxOpenConns    int           `mapstructure:"MAX_OPEN_CONNS"`
			ConnMaxLifetime time.Duration `mapstructure:"CONN_MAX_LIFETIME"`
			ConnMaxIdleTime time.Duration `mapstructure:"CONN_MAX_IDLE_TIME"`
		} `mapstructure:"CONNECTION_POOL"`
	} `mapstructure:"DATABASE"`
	Redis struct {
		Addr        string        `mapstructure:"ADDR"`
		Password    string        `mapstructure:"PASSWORD"`
		DB          int           `mapstructure:"DB"`
		PoolSize    int           `mapstructure:"POOL_SIZE"`
		PoolTimeout time.Duration `mapstructure:"POOL_TIMEOUT"`
	} `mapstructure:"REDIS"`
	Minio struct {
		Endpoint   string `mapstructure:"ENDPOINT"`
		AccessKey  string `mapstructure:"ACCESS_KEY"`
		SecretKey  string `mapstructure:"SECRET_KEY"`
		Secure     bool   `mapstructure:"SECURE"`
		BucketName string `mapstructure:"BUCKET_NAME"`
	} `mapstructure:"MINIO"`
	Auth struct {
		Secret string `mapstructure:"SECRET"`
		Issuer string `mapstructure:"ISSUER"`
	} `mapstructure:"AUTH"`
	Loyalty   Loyalty   `mapstructure:"LOYALTY"`
	StampCard StampCard `mapstructure:"STAMP_CARD"`
	Wallet    struct {
		Google GoogleWallet `mapstructure:"GOOGLE"`
		Apple  AppleWallet  `mapstructure:"APPLE"`
		Sync   WalletSync   `mapstructure:"SYNC"`
	} `mapstructure:"WALLET"`
}

type Loyalty struct {
	PointsDivisor     int64 `mapstructure:"POINTS_DIVISOR"`
	StampsPerPurchase int   `mapstructure:"STAMPS_PER_PURCHASE"`
	StampsPerCard     int   `mapstructure:"STAMPS_PER_CARD"`
	LevelThreshold    int64 `mapstructure:"LEVEL_THRESHOLD"`
}

type StampCard struct {
	// Source is either "http" or "minio".
	Source      string        `mapstructure:"SOURCE"`
	LockedRef   string        `mapstructure:"LOCKED_REF"`
	RevealedRef string        `mapstructure:"REVEALED_REF"`
	SpriteURLs  []string      `mapstructure:"SPRITE_URLS"`
	CacheTTL    time.Duration `mapstructure:"CACHE_TTL"`
	Timeout     time.Duration `mapstructure:"TIMEOUT"`
	// Slots overrides the default card geometry when non-empty.
	Slots []Slot `mapstructure:"SLOTS"`
}

type Slot struct {
	Name   string `mapstructure:"NAME"`
	X      int    `mapstructure:"X"`
	Y      int    `mapstructure:"Y"`
	Radius int    `mapstructure:"RADIUS"`
}

type GoogleWallet struct {
	ServiceAccountEmail string        `mapstructure:"SERVICE_ACCOUNT_EMAIL"`
	PrivateKey          string        `mapstructure:"PRIVATE_KEY"`
	IssuerID            string        `mapstructure:"ISSUER_ID"`
	ClassID             string        `mapstructure:"CLASS_ID"`
	SaveURL             string        `mapstructure:"SAVE_URL"`
	TokenURL            string        `mapstructure:"TOKEN_URL"`
	APIBaseURL          string        `mapstructure:"API_BASE_URL"`
	Scope               string        `mapstructure:"SCOPE"`
	DefaultDisplayName  string        `mapstructure:"DEFAULT_DISPLAY_NAME"`
	ProgramName         string        `mapstructure:"PROGRAM_NAME"`
	Origins             []string      `mapstructure:"ORIGINS"`
	Timeout             time.Duration `mapstructure:"TIMEOUT"`
}

type AppleWallet struct {
	PassServiceURL string        `mapstructure:"PASS_SERVICE_URL"`
	APIKey         string        `mapstructure:"API_KEY"`
	Timeout        time.Duration `mapstructure:"TIMEOUT"`
}

type WalletSync struct {
	Queue    string        `mapstructure:"QUEUE"`
	MaxRetry int           `mapstructure:"MAX_RETRY"`
	Timeout  time.Duration `mapstructure:"TIMEOUT"`
}

var Module = fx.Module("config", fx.Provide(LoadConfig))

// LoadConfig reads ./config.yaml when present and lets environment variables
// override every key (WALLET.GOOGLE.ISSUER_ID -> WALLET_GOOGLE_ISSUER_ID).
func LoadConfig() (*Config, error) {
	return Load(".")
}

func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// every key needs a default, otherwise AutomaticEnv never sees it on Unmarshal
func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "stampcard")
	v.SetDefault("APP_VERSION", "dev")

	v.SetDefault("TLS.ENABLE", false)
	v.SetDefault("TLS.CERT_PATH", "")
	v.SetDefault("TLS.KEY_PATH", "")

	v.SetDefault("HTTP_SERVER.ADDR", "8080")
	v.SetDefault("HTTP_SERVER.READ_TIMEOUT", 15*time.Second)
	v.SetDefault("HTTP_SERVER.WRITE_TIMEOUT", 15*time.Second)
	v.SetDefault("HTTP_SERVER.IDLE_TIMEOUT", 60*time.Second)

	v.SetDefault("DATABASE.TYPE", "postgres")
	v.SetDefault("DATABASE.HOST", "localhost")
	v.SetDefault("DATABASE.PORT", "5432")
	v.SetDefault("DATABASE.DBNAME", "loyalty")
	v.SetDefault("DATABASE.USER", "postgres")
	v.SetDefault("DATABASE.PASSWORD", "")
	v.SetDefault("DATABASE.SSLMODE", "disable")
	v.SetDefault("DATABASE.TIMEZONE", "UTC")
	v.SetDefault("DATABASE.CONNECTION_POOL.MAX_IDLE_CONN", 5)
	v.SetDefault("DATABASE.CONNECTION_POOL.MAX_OPEN_CONNS", 20)
	v.SetDefault("DATABASE.CONNECTION_POOL.CONN_MAX_LIFETIME", 30*time.Minute)
	v.SetDefault("DATABASE.CONNECTION_POOL.CONN_MAX_IDLE_TIME", 5*time.Minute)

	v.SetDefault("REDIS.ADDR", "localhost:6379")
	v.SetDefault("REDIS.PASSWORD", "")
	v.SetDefault("REDIS.DB", 0)
	v.SetDefault("REDIS.POOL_SIZE", 10)
	v.SetDefault("REDIS.POOL_TIMEOUT", 4*time.Second)

	v.SetDefault("MINIO.ENDPOINT", "")
	v.SetDefault("MINIO.ACCESS_KEY", "")
	v.SetDefault("MINIO.SECRET_KEY", "")
	v.SetDefault("MINIO.SECURE", false)
	v.SetDefault("MINIO.BUCKET_NAME", "stamp-cards")

	v.SetDefault("AUTH.SECRET", "")
	v.SetDefault("AUTH.ISSUER", "")

	v.SetDefault("LOYALTY.POINTS_DIVISOR", 10)
	v.SetDefault("LOYALTY.STAMPS_PER_PURCHASE", 1)
	v.SetDefault("LOYALTY.STAMPS_PER_CARD", 8)
	v.SetDefault("LOYALTY.LEVEL_THRESHOLD", 500)

	v.SetDefault("STAMP_CARD.SOURCE", "http")
	v.SetDefault("STAMP_CARD.LOCKED_REF", "")
	v.SetDefault("STAMP_CARD.REVEALED_REF", "")
	v.SetDefault("STAMP_CARD.SPRITE_URLS", []string{})
	v.SetDefault("STAMP_CARD.CACHE_TTL", 5*time.Minute)
	v.SetDefault("STAMP_CARD.TIMEOUT", 10*time.Second)
	v.SetDefault("STAMP_CARD.SLOTS", []Slot{})

	v.SetDefault("WALLET.GOOGLE.SERVICE_ACCOUNT_EMAIL", "")
	v.SetDefault("WALLET.GOOGLE.PRIVATE_KEY", "")
	v.SetDefault("WALLET.GOOGLE.ISSUER_ID", "")
	v.SetDefault("WALLET.GOOGLE.CLASS_ID", "")
	v.SetDefault("WALLET.GOOGLE.SAVE_URL", "https://pay.google.com/gp/v/save")
	v.SetDefault("WALLET.GOOGLE.TOKEN_URL", "https://oauth2.googleapis.com/token")
	v.SetDefault("WALLET.GOOGLE.API_BASE_URL", "https://walletobjects.googleapis.com/walletobjects/v1")
	v.SetDefault("WALLET.GOOGLE.SCOPE", "https://www.googleapis.com/auth/wallet_object.issuer")
	v.SetDefault("WALLET.GOOGLE.DEFAULT_DISPLAY_NAME", "Cliente")
	v.SetDefault("WALLET.GOOGLE.PROGRAM_NAME", "Loyalty Card")
	v.SetDefault("WALLET.GOOGLE.ORIGINS", []string{})
	v.SetDefault("WALLET.GOOGLE.TIMEOUT", 10*time.Second)

	v.SetDefault("WALLET.APPLE.PASS_SERVICE_URL", "")
	v.SetDefault("WALLET.APPLE.API_KEY", "")
	v.SetDefault("WALLET.APPLE.TIMEOUT", 15*time.Second)

	v.SetDefault("WALLET.SYNC.QUEUE", "wallet")
	v.SetDefault("WALLET.SYNC.MAX_RETRY", 3)
	v.SetDefault("WALLET.SYNC.TIMEOUT", 30*time.Second)
}
