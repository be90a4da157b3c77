package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/emrgen/folio/internal/cache"
	"github.com/emrgen/folio/internal/channel"
	"github.com/emrgen/folio/internal/compress"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	HTTPPort string
	LogLevel string

	DBDriver    string
	DatabaseURL string

	// RedisURL selects redis slots; SlotDir selects file slots; neither keeps
	// slots in memory.
	RedisURL        string
	SlotDir         string
	SlotTTL         time.Duration
	SlotCompression string
	PollInterval    time.Duration

	AssetBaseURL   string
	FrontendURL    string
	UploadDir      string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioSecure    bool

	KafkaBrokers string
	KafkaTopic   string

	DraftSyncCron string
	SessionIdle   time.Duration
	ChromePath    string
	CORSOrigins   []string
}

func LoadConfig() *Config {
	return &Config{
		HTTPPort: getenv("HTTP_PORT", "4001"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		DBDriver:    getenv("DB_DRIVER", "sqlite"),
		DatabaseURL: getenv("DATABASE_URL", "folio.db"),

		RedisURL:        getenv("REDIS_URL", ""),
		SlotDir:         getenv("SLOT_DIR", ""),
		SlotTTL:         getenvDuration("SLOT_TTL", 24*time.Hour),
		SlotCompression: getenv("SLOT_COMPRESSION", compress.NameNop),
		PollInterval:    getenvDuration("POLL_INTERVAL", channel.DefaultPollInterval),

		AssetBaseURL:   getenv("ASSET_BASE_URL", "http://localhost:4001"),
		FrontendURL:    getenv("FRONTEND_URL", "http://localhost:3000"),
		UploadDir:      getenv("UPLOAD_DIR", "./uploads"),
		MinioEndpoint:  getenv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "folio"),
		MinioSecure:    getenvBool("MINIO_SECURE", false),

		KafkaBrokers: getenv("KAFKA_BROKERS", ""),
		KafkaTopic:   getenv("KAFKA_TOPIC", "portfolio.published"),

		DraftSyncCron: getenv("DRAFT_SYNC_CRON", "@every 10s"),
		SessionIdle:   getenvDuration("SESSION_IDLE", 30*time.Minute),
		ChromePath:    getenv("CHROME_PATH", ""),
		CORSOrigins:   strings.Split(getenv("CORS_ORIGINS", "*"), ","),
	}
}

// SetupLogging applies the configured log level.
func (c *Config) SetupLogging() {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logrus.Warnf("unknown log level %q, using info", c.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// GetDb opens the configured database.
func GetDb(cfg *Config) *gorm.DB {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseURL)
	case "sqlite":
		dialector = sqlite.Open(cfg.DatabaseURL)
	default:
		logrus.Fatalf("unknown database driver %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err)
	}

	return db
}

// OpenSlot connects the slot transport shared by editing and preview contexts.
func (c *Config) OpenSlot() (cache.Slot, error) {
	switch {
	case c.RedisURL != "":
		slot, err := cache.NewRedisSlot(c.RedisURL, c.SlotTTL)
		if err != nil {
			return nil, err
		}
		return slot, nil
	case c.SlotDir != "":
		slot, err := cache.NewFileSlot(c.SlotDir)
		if err != nil {
			return nil, err
		}
		return slot, nil
	}

	logrus.Warn("no REDIS_URL or SLOT_DIR set, previews only work inside this process")
	return cache.NewMemorySlot(), nil
}

// Codec returns the slot codec for the configured compression.
func (c *Config) Codec() (*channel.Codec, error) {
	cmp, err := compress.FromName(c.SlotCompression)
	if err != nil {
		return nil, fmt.Errorf("SLOT_COMPRESSION: %w", err)
	}
	return channel.NewCodec(cmp), nil
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logrus.Warnf("invalid %s %q, using %v", key, value, fallback)
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
