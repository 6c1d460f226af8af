package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server settings
	ServerPort   string        `json:"server_port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
	Environment  string        `json:"environment"`
	Debug        bool          `json:"debug"`

	// Application paths
	LogDir  string `json:"log_dir"`
	WorkDir string `json:"work_dir"`

	// Middleware settings
	Middleware MiddlewareConfig `json:"middleware"`

	// CORS configuration
	CORS CORSConfig `json:"cors"`

	// Rate limiting
	RateLimit RateLimitConfig `json:"rate_limit"`

	// Database settings
	Database DatabaseConfig `json:"database"`

	// AWS settings shared by the S3, Transcribe and Bedrock clients
	AWS AWSConfig `json:"aws"`

	// Pipeline settings
	Pipeline PipelineConfig `json:"pipeline"`

	// Generation settings
	Generation GenerationConfig `json:"generation"`

	// Application version
	Version string `json:"version"`

	// Request and shutdown timeouts
	RequestTimeout  time.Duration `json:"request_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

type MiddlewareConfig struct {
	EnableRecover   bool `json:"enable_recover"`
	EnableRequestID bool `json:"enable_request_id"`
	EnableLogger    bool `json:"enable_logger"`
	EnableCORS      bool `json:"enable_cors"`
	EnableRateLimit bool `json:"enable_rate_limit"`
	EnableCompress  bool `json:"enable_compress"`
	EnableETag      bool `json:"enable_etag"`
}

type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	MaxAge           int      `json:"max_age"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `json:"requests_per_minute"`
}

type DatabaseConfig struct {
	Path               string        `json:"path"`
	MaxConnections     int           `json:"max_connections"`
	MaxIdleConnections int           `json:"max_idle_connections"`
	ConnMaxLifetime    time.Duration `json:"conn_max_lifetime"`
}

type AWSConfig struct {
	Region    string `json:"region"`
	AccessKey string `json:"-"`
	SecretKey string `json:"-"`
	Endpoint  string `json:"endpoint,omitempty"`
	Bucket    string `json:"bucket"`
	KeyPrefix string `json:"key_prefix"`
}

type PipelineConfig struct {
	JobPrefix          string        `json:"job_prefix"`
	PollInterval       time.Duration `json:"poll_interval"`
	MaxWait            time.Duration `json:"max_wait"`
	RunTimeout         time.Duration `json:"run_timeout"`
	DownloadsPerMinute int           `json:"downloads_per_minute"`
}

type GenerationConfig struct {
	ModelID     string  `json:"model_id"`
	MaxTokens   int32   `json:"max_tokens"`
	Temperature float32 `json:"temperature"`
}

// Load builds the configuration from the environment. A .env file in the
// working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:   getEnv("PORT", "8080"),
		ReadTimeout:  getEnvDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout: getEnvDuration("WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:  getEnvDuration("IDLE_TIMEOUT", 120*time.Second),
		Environment:  getEnv("ENVIRONMENT", "local"),
		Debug:        getEnvBool("DEBUG", false),

		LogDir:  getEnv("LOG_DIR", "./logs"),
		WorkDir: getEnv("WORK_DIR", "./audios"),

		CORS: CORSConfig{
			AllowedOrigins:   []string{getEnv("CORS_ALLOWED_ORIGINS", "*")},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		},

		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		},

		Database: DatabaseConfig{
			Path:               getEnv("DB_PATH", "./data/videos.db"),
			MaxConnections:     getEnvInt("DB_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvInt("DB_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},

		AWS: AWSConfig{
			Region:    getEnv("AWS_REGION", "us-east-1"),
			AccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:  getEnv("AWS_ENDPOINT", ""),
			Bucket:    getEnv("S3_BUCKET", "ia-libretos"),
			KeyPrefix: getEnv("S3_KEY_PREFIX", "audios/"),
		},

		Pipeline: PipelineConfig{
			JobPrefix:          getEnv("TRANSCRIPTION_JOB_PREFIX", "transcripcion-"),
			PollInterval:       getEnvDuration("TRANSCRIPTION_POLL_INTERVAL", 5*time.Second),
			MaxWait:            getEnvDuration("TRANSCRIPTION_MAX_WAIT", 30*time.Minute),
			RunTimeout:         getEnvDuration("PIPELINE_RUN_TIMEOUT", time.Hour),
			DownloadsPerMinute: getEnvInt("DOWNLOADS_PER_MINUTE", 6),
		},

		Generation: GenerationConfig{
			ModelID:     getEnv("BEDROCK_MODEL_ID", "anthropic.claude-3-5-sonnet-20240620-v1:0"),
			MaxTokens:   int32(getEnvInt("BEDROCK_MAX_TOKENS", 4096)),
			Temperature: float32(getEnvFloat("BEDROCK_TEMPERATURE", 0.7)),
		},

		Version: getEnv("APP_VERSION", "dev"),

		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if cfg.Environment == "local" || cfg.Debug {
		cfg.Middleware = defaultDevMiddleware()
	} else {
		cfg.Middleware = defaultProdMiddleware()
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultDevMiddleware() MiddlewareConfig {
	return MiddlewareConfig{
		EnableRecover:   true,
		EnableRequestID: true,
		EnableLogger:    true,
		EnableCORS:      true,
		EnableRateLimit: false,
		EnableCompress:  false,
		EnableETag:      false,
	}
}

func defaultProdMiddleware() MiddlewareConfig {
	return MiddlewareConfig{
		EnableRecover:   true,
		EnableRequestID: true,
		EnableLogger:    true,
		EnableCORS:      true,
		EnableRateLimit: true,
		EnableCompress:  true,
		EnableETag:      true,
	}
}

func (c *Config) validate() error {
	if c.AWS.Bucket == "" {
		return fmt.Errorf("S3_BUCKET must not be empty")
	}
	if c.Pipeline.PollInterval <= 0 {
		return fmt.Errorf("TRANSCRIPTION_POLL_INTERVAL must be positive")
	}
	if c.Pipeline.MaxWait <= 0 {
		return fmt.Errorf("TRANSCRIPTION_MAX_WAIT must be positive")
	}
	if c.Generation.ModelID == "" {
		return fmt.Errorf("BEDROCK_MODEL_ID must not be empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
