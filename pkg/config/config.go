package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Attendance AttendanceConfig
	SMS        SMSConfig
	Calendar   CalendarConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds the verification secret. Tokens are issued by the
// central auth service; this API only validates them.
type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AttendanceConfig tunes the correction window and alerting.
type AttendanceConfig struct {
	CorrectionWindow time.Duration
	AlertThreshold   float64
	CacheEnabled     bool
	SummaryCacheTTL  time.Duration
}

// SMSConfig points at the SMS gateway used for low-attendance alerts.
type SMSConfig struct {
	Enabled    bool
	GatewayURL string
	APIKey     string
	SenderID   string
	Timeout    time.Duration
}

// CalendarConfig points at the Bikram Sambat conversion service.
// Conversion is display-only and never affects window or threshold logic.
type CalendarConfig struct {
	Enabled    bool
	ServiceURL string
	Timeout    time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	windowHours := v.GetInt("ATTENDANCE_CORRECTION_WINDOW_HOURS")
	if windowHours <= 0 {
		windowHours = 24
	}
	threshold := v.GetFloat64("ATTENDANCE_ALERT_THRESHOLD")
	if threshold <= 0 || threshold > 100 {
		threshold = 75
	}
	cfg.Attendance = AttendanceConfig{
		CorrectionWindow: time.Duration(windowHours) * time.Hour,
		AlertThreshold:   threshold,
		CacheEnabled:     v.GetBool("ATTENDANCE_CACHE_ENABLED"),
		SummaryCacheTTL:  parseDuration(v.GetString("ATTENDANCE_SUMMARY_CACHE_TTL"), 5*time.Minute),
	}

	cfg.SMS = SMSConfig{
		Enabled:    v.GetBool("SMS_ENABLED"),
		GatewayURL: v.GetString("SMS_GATEWAY_URL"),
		APIKey:     v.GetString("SMS_API_KEY"),
		SenderID:   v.GetString("SMS_SENDER_ID"),
		Timeout:    parseDuration(v.GetString("SMS_TIMEOUT"), 10*time.Second),
	}

	cfg.Calendar = CalendarConfig{
		Enabled:    v.GetBool("CALENDAR_ENABLED"),
		ServiceURL: v.GetString("CALENDAR_SERVICE_URL"),
		Timeout:    parseDuration(v.GetString("CALENDAR_TIMEOUT"), 5*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "attendance")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ATTENDANCE_CORRECTION_WINDOW_HOURS", 24)
	v.SetDefault("ATTENDANCE_ALERT_THRESHOLD", 75)
	v.SetDefault("ATTENDANCE_CACHE_ENABLED", false)
	v.SetDefault("ATTENDANCE_SUMMARY_CACHE_TTL", "5m")

	v.SetDefault("SMS_ENABLED", false)
	v.SetDefault("SMS_GATEWAY_URL", "http://localhost:9090/sms")
	v.SetDefault("SMS_API_KEY", "")
	v.SetDefault("SMS_SENDER_ID", "SCHOOL")
	v.SetDefault("SMS_TIMEOUT", "10s")

	v.SetDefault("CALENDAR_ENABLED", false)
	v.SetDefault("CALENDAR_SERVICE_URL", "http://localhost:9091/convert")
	v.SetDefault("CALENDAR_TIMEOUT", "5s")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
