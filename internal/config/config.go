package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

const minSecretLength = 32

type Config struct {
	Server   ServerConfig   `env:",prefix=SERVER_"`
	Postgres PostgresConfig `env:",prefix=POSTGRES_"`
	Redis    RedisConfig    `env:",prefix=REDIS_"`
	JWT      JWTConfig      `env:",prefix=JWT_"`
	Security SecurityConfig `env:",prefix="`
	CORS     CORSConfig     `env:",prefix=CORS_"`
	Cache    CacheConfig    `env:",prefix=CACHE_"`
	Files    FilesConfig    `env:",prefix=FILES_"`
	OAuth    OAuthConfig    `env:",prefix=OAUTH_"`
	Sentry   SentryConfig   `env:",prefix=SENTRY_"`
	Cleanup  CleanupConfig  `env:",prefix=CLEANUP_"`
	Env      string         `env:"ENV,default=development"`
}

type ServerConfig struct {
	Port         string   `env:"PORT,default=5100"`
	Host         string   `env:"HOST,default=0.0.0.0"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=15s"`
	GlobalPrefix string   `env:"GLOBAL_PREFIX,default=/api"`
	// PublicURL is the externally reachable origin used in stored links
	PublicURL string `env:"PUBLIC_URL,default=http://localhost:5100"`
	// TrustedProxies lists proxy addresses whose X-Forwarded-For is honoured.
	// Empty means the TCP peer is the client.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

type PostgresConfig struct {
	Host        string `env:"HOST,default=localhost"`
	Port        string `env:"PORT,default=5432"`
	User        string `env:"USER,default=statboard"`
	Password    string `env:"PASSWORD,default=statboard_password"`
	DBName      string `env:"DB,default=statboard_db"`
	SSLMode     string `env:"SSLMODE,default=disable"`
	AutoMigrate bool   `env:"AUTO_MIGRATE,default=true"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

type JWTConfig struct {
	Secret             string   `env:"SECRET,required"`
	RefreshSecret      string   `env:"REFRESH_SECRET,required"`
	AccessTokenExpiry  Duration `env:"ACCESS_TOKEN_EXPIRY,default=1h"`
	RefreshTokenExpiry Duration `env:"REFRESH_TOKEN_EXPIRY,default=48h"`
}

type SecurityConfig struct {
	BCryptCost        int      `env:"BCRYPT_COST,default=10"`
	RateLimitRequests int      `env:"RATE_LIMIT_REQUESTS,default=10"`
	RateLimitWindow   Duration `env:"RATE_LIMIT_WINDOW,default=1m"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,Authorization"`
}

type CacheConfig struct {
	TTL Duration `env:"TTL,default=5s"`
}

// FilesConfig selects the avatar storage backend: "local" keeps files in
// UploadDir, "minio" puts them into a bucket.
type FilesConfig struct {
	Storage      string      `env:"STORAGE,default=local"`
	UploadDir    string      `env:"UPLOAD_DIR,default=uploads"`
	MaxSizeKiB   int64       `env:"MAX_SIZE_KIB,default=100"`
	FetchTimeout Duration    `env:"FETCH_TIMEOUT,default=5s"`
	Minio        MinioConfig `env:",prefix=MINIO_"`
}

type MinioConfig struct {
	Endpoint  string `env:"ENDPOINT,default=http://localhost:9000"`
	AccessKey string `env:"ACCESS_KEY,default="`
	SecretKey string `env:"SECRET_KEY,default="`
	Bucket    string `env:"BUCKET,default=avatars"`
}

type OAuthConfig struct {
	Timeout      Duration       `env:"TIMEOUT,default=5s"`
	DefaultRoles []string       `env:"DEFAULT_ROLES,default=Admin"`
	Google       ProviderConfig `env:",prefix=GOOGLE_"`
	GitHub       ProviderConfig `env:",prefix=GITHUB_"`
	Yandex       ProviderConfig `env:",prefix=YANDEX_"`
}

type ProviderConfig struct {
	ClientID     string `env:"CLIENT_ID,default="`
	ClientSecret string `env:"CLIENT_SECRET,default="`
	CallbackURL  string `env:"CALLBACK_URL,default="`
}

// Enabled reports whether the provider has credentials configured
func (p ProviderConfig) Enabled() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

type SentryConfig struct {
	DSN string `env:"DSN,default="`
}

type CleanupConfig struct {
	Schedule string `env:"SCHEDULE,default=@hourly"`
}

// DSN returns PostgreSQL connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// URL returns PostgreSQL connection string in URL form, as migrate expects it
func (p PostgresConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode)
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// MaxSizeBytes returns the exclusive upper bound for uploaded avatars
func (f FilesConfig) MaxSizeBytes() int64 {
	return f.MaxSizeKiB * 1024
}

// IsProduction reports whether the service runs in production mode
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var config Config

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadWithDefaults loads configuration with default context
func LoadWithDefaults() (*Config, error) {
	return Load(context.Background())
}

func (c *Config) validate() error {
	if len(c.JWT.Secret) < minSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters long", minSecretLength)
	}

	if len(c.JWT.RefreshSecret) < minSecretLength {
		return fmt.Errorf("JWT_REFRESH_SECRET must be at least %d characters long", minSecretLength)
	}

	if c.JWT.Secret == c.JWT.RefreshSecret {
		return fmt.Errorf("JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}

	switch c.Files.Storage {
	case "local", "minio":
	default:
		return fmt.Errorf("FILES_STORAGE must be one of local, minio, got %q", c.Files.Storage)
	}

	if c.Files.MaxSizeKiB <= 0 {
		return fmt.Errorf("FILES_MAX_SIZE_KIB must be positive")
	}

	return nil
}
