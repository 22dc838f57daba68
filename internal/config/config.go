package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all the configuration for the application.
type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"production"`
	SiteURL    string `yaml:"site_url" env:"SITE_URL" env-default:"http://localhost:8080"`
	HTTPServer `yaml:"http_server"`
	Database   `yaml:"database"`
	Cache      `yaml:"cache"`
	Login      `yaml:"login"`
	Maps       `yaml:"maps"`
	Blob       `yaml:"blob"`
	Moderation `yaml:"moderation"`
	SMTP       `yaml:"smtp"`
	JWT        `yaml:"jwt"`
	Cleanup    `yaml:"cleanup"`
}

// HTTPServer holds HTTP server specific configuration.
type HTTPServer struct {
	Address        string        `yaml:"address" env:"HTTP_SERVER_ADDRESS" env-default:":8080"`
	ReadTimeout    time.Duration `yaml:"read_timeout" env:"HTTP_SERVER_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"HTTP_SERVER_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env:"HTTP_SERVER_IDLE_TIMEOUT" env-default:"60s"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"HTTP_SERVER_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes" env:"HTTP_SERVER_MAX_UPLOAD_BYTES" env-default:"10485760"`
}

// Database holds PostgreSQL connection settings.
type Database struct {
	Host            string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port            int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User            string `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password        string `yaml:"password" env:"DB_PASSWORD"`
	DBName          string `yaml:"dbname" env:"DB_NAME" env-default:"maphub"`
	SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
	Timezone        string `yaml:"timezone" env:"DB_TIMEZONE" env-default:"UTC"`
	MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"100"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"1h"`
	AutoMigrate     bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"true"`
	SeedData        bool   `yaml:"seed_data" env:"DB_SEED_DATA" env-default:"false"`
	// InMemory skips PostgreSQL and keeps everything in process.
	InMemory        bool   `yaml:"in_memory" env:"DB_IN_MEMORY" env-default:"false"`
}

// Cache holds the TTL cache settings. An empty Dir keeps badger in memory.
type Cache struct {
	Dir string `yaml:"dir" env:"CACHE_DIR"`
}

// Login holds login throttle and verification settings.
type Login struct {
	MaxAttempts     int           `yaml:"max_attempts" env:"LOGIN_MAX_ATTEMPTS" env-default:"5"`
	AttemptWindow   time.Duration `yaml:"attempt_window" env:"LOGIN_ATTEMPT_WINDOW" env-default:"1m"`
	BlockDuration   time.Duration `yaml:"block_duration" env:"LOGIN_BLOCK_DURATION" env-default:"1m"`
	ResendCooldown  time.Duration `yaml:"resend_cooldown" env:"LOGIN_RESEND_COOLDOWN" env-default:"5m"`
	VerificationTTL time.Duration `yaml:"verification_ttl" env:"LOGIN_VERIFICATION_TTL" env-default:"24h"`
	ResetTTL        time.Duration `yaml:"reset_ttl" env:"LOGIN_RESET_TTL" env-default:"24h"`
}

// Maps holds map lifecycle settings.
type Maps struct {
	DailyQuota        int     `yaml:"daily_quota" env:"MAPS_DAILY_QUOTA" env-default:"5"`
	ToxicityThreshold float64 `yaml:"toxicity_threshold" env:"MAPS_TOXICITY_THRESHOLD" env-default:"0.10"`
	SearchPageSize    int     `yaml:"search_page_size" env:"MAPS_SEARCH_PAGE_SIZE" env-default:"10"`
	ListPageSize      int     `yaml:"list_page_size" env:"MAPS_LIST_PAGE_SIZE" env-default:"20"`
	PopularTags       int     `yaml:"popular_tags" env:"MAPS_POPULAR_TAGS" env-default:"50"`
}

// Blob holds local blob store settings.
type Blob struct {
	Dir           string        `yaml:"dir" env:"BLOB_DIR" env-default:"data/blobs"`
	PublicBaseURL string        `yaml:"public_base_url" env:"BLOB_PUBLIC_BASE_URL" env-default:"http://localhost:8080/media"`
	SigningSecret string        `yaml:"signing_secret" env:"BLOB_SIGNING_SECRET" env-default:"change-me-blob"`
	URLTTL        time.Duration `yaml:"url_ttl" env:"BLOB_URL_TTL" env-default:"1h"`
}

// Moderation holds content-moderation API settings. Empty keys disable the checks.
type Moderation struct {
	PerspectiveURL   string        `yaml:"perspective_url" env:"MODERATION_PERSPECTIVE_URL" env-default:"https://commentanalyzer.googleapis.com/v1alpha1/comments:analyze"`
	PerspectiveKey   string        `yaml:"perspective_key" env:"MODERATION_PERSPECTIVE_KEY"`
	VisionURL        string        `yaml:"vision_url" env:"MODERATION_VISION_URL" env-default:"https://vision.googleapis.com/v1/images:annotate"`
	VisionKey        string        `yaml:"vision_key" env:"MODERATION_VISION_KEY"`
	Timeout          time.Duration `yaml:"timeout" env:"MODERATION_TIMEOUT" env-default:"5s"`
	RequestsPerSec   float64       `yaml:"requests_per_sec" env:"MODERATION_RPS" env-default:"1"`
	Burst            int           `yaml:"burst" env:"MODERATION_BURST" env-default:"5"`
	BreakerFailures  uint32        `yaml:"breaker_failures" env:"MODERATION_BREAKER_FAILURES" env-default:"5"`
	BreakerOpenDelay time.Duration `yaml:"breaker_open_delay" env:"MODERATION_BREAKER_OPEN_DELAY" env-default:"30s"`
}

// SMTP holds mail transport settings. An empty Host logs messages instead of sending them.
type SMTP struct {
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env:"SMTP_FROM" env-default:"no-reply@maphub.local"`
}

// JWT holds access and refresh token settings.
type JWT struct {
	Secret          string        `yaml:"secret" env:"JWT_SECRET" env-default:"change-me"`
	AccessDuration  time.Duration `yaml:"access_duration" env:"JWT_ACCESS_DURATION" env-default:"15m"`
	RefreshDuration time.Duration `yaml:"refresh_duration" env:"JWT_REFRESH_DURATION" env-default:"720h"`
	Issuer          string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"maphub"`
}

// Cleanup holds the retry pool for failed blob releases.
type Cleanup struct {
	Workers    int           `yaml:"workers" env:"CLEANUP_WORKERS" env-default:"2"`
	BufferSize int           `yaml:"buffer_size" env:"CLEANUP_BUFFER_SIZE" env-default:"1000"`
	MaxRetries int           `yaml:"max_retries" env:"CLEANUP_MAX_RETRIES" env-default:"3"`
	RetryDelay time.Duration `yaml:"retry_delay" env:"CLEANUP_RETRY_DELAY" env-default:"2s"`
}

// MustLoad loads the application configuration.
func MustLoad() *Config {
	// Try to load .env file (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}

	var cfg Config

	// Check if config file path is specified
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/local.yml" // default path
	}

	// Try to load config file
	if _, err := os.Stat(configPath); err == nil {
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			log.Fatalf("cannot read config: %s", err)
		}
	} else {
		// If config file doesn't exist, use environment variables only
		log.Println("Config file not found, using environment variables only")
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("cannot read config from environment: %s", err)
		}
	}

	return &cfg
}
