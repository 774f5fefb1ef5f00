package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Client
	APIBaseURL        string        `env:"API_BASE_URL" envDefault:"http://localhost:8080/restful/"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	RequestsPerSecond float64       `env:"REQUESTS_PER_SECOND" envDefault:"20"`
	RequestBurst      int           `env:"REQUEST_BURST" envDefault:"10"`
	DispatchQueueSize int           `env:"DISPATCH_QUEUE_SIZE" envDefault:"256"`

	// Log view
	AdminAddr string `env:"ADMIN_ADDR" envDefault:":9091"`

	// Status stream, optional
	RedisAddr         string `env:"REDIS_ADDR"`
	RedisStatusStream string `env:"REDIS_STATUS_STREAM" envDefault:"restnav_status"`
	RedisStreamMaxLen int64  `env:"REDIS_STREAM_MAX_LEN" envDefault:"10000"`

	// Archive
	PostgresURL          string        `env:"POSTGRES_URL"`
	JournalDir           string        `env:"JOURNAL_DIR" envDefault:"./data/journal"`
	JournalSegmentSize   int64         `env:"JOURNAL_SEGMENT_SIZE_BYTES" envDefault:"10485760"`    // 10MB
	JournalMaxDiskSize   int64         `env:"JOURNAL_MAX_DISK_SIZE_BYTES" envDefault:"1073741824"` // 1GB
	ArchiveFlushInterval time.Duration `env:"ARCHIVE_FLUSH_INTERVAL" envDefault:"5s"`
	ArchiveBatchSize     int           `env:"ARCHIVE_BATCH_SIZE" envDefault:"500"`
	ArchiveRetryCount    int           `env:"ARCHIVE_RETRY_COUNT" envDefault:"3"`
	ArchiveRetryBackoff  time.Duration `env:"ARCHIVE_RETRY_BACKOFF" envDefault:"1s"`
	RedactionFields      string        `env:"REDACTION_FIELDS" envDefault:"password,email,credit_card,ssn"`

	// Tracing
	OTelEnabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTelServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"restnav"`
	OTelInsecure    bool   `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// RedactionFieldList splits RedactionFields on commas.
func (c *Config) RedactionFieldList() []string {
	var fields []string
	for _, f := range strings.Split(c.RedactionFields, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}
