// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"mime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
// It is built once at startup and passed to every component that needs it.
type Config struct {
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	APIURL         string `mapstructure:"API_URL"`
	DBDriver       string `mapstructure:"DB_DRIVER"`
	DBPath         string `mapstructure:"DB_PATH"`
	DBHost         string `mapstructure:"DB_HOST"`
	DBPort         string `mapstructure:"DB_PORT"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`
	DBSSLMode      string `mapstructure:"DB_SSLMODE"`
	DBAutoMigrate  bool   `mapstructure:"DB_AUTOMIGRATE"`
	RedisURL       string `mapstructure:"REDIS_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	FeatureFlags   string `mapstructure:"FEATURE_FLAGS"`

	// Media pipeline
	UploadFolder      string        `mapstructure:"UPLOAD_FOLDER"`
	MaxFileSize       int64         `mapstructure:"MAX_FILE_SIZE"`
	AllowedImageTypes []string      `mapstructure:"ALLOWED_IMAGE_TYPES"`
	AllowedVideoTypes []string      `mapstructure:"ALLOWED_VIDEO_TYPES"`
	ThumbnailMaxDim   int           `mapstructure:"THUMBNAIL_MAX_DIM"`
	VideoFrameOffset  time.Duration `mapstructure:"VIDEO_FRAME_OFFSET"`
	FFmpegBin         string        `mapstructure:"FFMPEG_BIN"`

	RateLimitRequests int           `mapstructure:"RATE_LIMIT_REQUESTS"`
	RateLimitWindow   time.Duration `mapstructure:"RATE_LIMIT_WINDOW"`

	TracingEnabled    bool    `mapstructure:"TRACING_ENABLED"`
	TracingEndpoint   string  `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	TracingSampleRate float64 `mapstructure:"TRACING_SAMPLE_RATE"`
}

// LoadConfig loads application configuration from .env, config files and environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment overrides from .env")
	}

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env != "" && env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("PORT", "8375")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("API_URL", "http://localhost:8375")
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_PATH", "vaultbox.db")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "vaultbox")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_AUTOMIGRATE", false)
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	viper.SetDefault("FEATURE_FLAGS", "")

	viper.SetDefault("UPLOAD_FOLDER", "./uploads")
	viper.SetDefault("MAX_FILE_SIZE", int64(100*1024*1024))
	viper.SetDefault("ALLOWED_IMAGE_TYPES", DefaultImageTypes)
	viper.SetDefault("ALLOWED_VIDEO_TYPES", DefaultVideoTypes)
	viper.SetDefault("THUMBNAIL_MAX_DIM", 1024)
	viper.SetDefault("VIDEO_FRAME_OFFSET", time.Second)
	viper.SetDefault("FFMPEG_BIN", "ffmpeg")

	viper.SetDefault("RATE_LIMIT_REQUESTS", 30)
	viper.SetDefault("RATE_LIMIT_WINDOW", time.Minute)

	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLE_RATE", 1.0)
}

// DefaultImageTypes are the image MIME types accepted when none are configured.
var DefaultImageTypes = []string{"image/jpeg", "image/png", "image/gif"}

// DefaultVideoTypes are the video MIME types accepted when none are configured.
var DefaultVideoTypes = []string{"video/mp4", "video/avi", "video/mkv"}

// normalize trims and lower-cases list entries. Viper hands env lists over as a
// single comma-joined element when the value came from a yml scalar.
func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	c.AllowedImageTypes = normalizeTypes(c.AllowedImageTypes)
	c.AllowedVideoTypes = normalizeTypes(c.AllowedVideoTypes)
}

func normalizeTypes(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, raw := range in {
		for _, part := range strings.Split(raw, ",") {
			ct := strings.ToLower(strings.TrimSpace(part))
			if ct == "" {
				continue
			}
			if parsed, _, err := mime.ParseMediaType(ct); err == nil {
				ct = parsed
			}
			if _, dup := seen[ct]; dup {
				continue
			}
			seen[ct] = struct{}{}
			out = append(out, ct)
		}
	}
	return out
}

// IsProduction reports whether the config targets a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.UploadFolder == "" {
		return errors.New("UPLOAD_FOLDER is required")
	}
	if c.MaxFileSize <= 0 {
		return errors.New("MAX_FILE_SIZE must be positive")
	}
	if len(c.AllowedImageTypes) == 0 && len(c.AllowedVideoTypes) == 0 {
		return errors.New("at least one of ALLOWED_IMAGE_TYPES or ALLOWED_VIDEO_TYPES must be set")
	}
	if c.ThumbnailMaxDim < 16 || c.ThumbnailMaxDim > 8192 {
		return fmt.Errorf("THUMBNAIL_MAX_DIM must be between 16 and 8192, got %d", c.ThumbnailMaxDim)
	}
	if c.VideoFrameOffset < 0 {
		return errors.New("VIDEO_FRAME_OFFSET must not be negative")
	}
	if c.DBDriver != "" && c.DBDriver != "postgres" && c.DBDriver != "sqlite" {
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBDriver == "postgres" && (c.DBPassword == "password" || c.DBPassword == "") {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" {
			log.Println("WARNING: DB_SSLMODE is 'disable' in production. It is highly recommended to use SSL for database connections.")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
