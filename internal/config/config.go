package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	Attendance AttendanceConfig
}

type DatabaseConfig struct {
	Host         string        `env:"DB_HOST" validate:"required"`
	Port         int           `env:"DB_PORT" validate:"min=1,max=65535"`
	User         string        `env:"DB_USER" validate:"required"`
	Password     string        `env:"DB_PASSWORD" validate:"required"`
	Name         string        `env:"DB_NAME" validate:"required"`
	SSLMode      string        `env:"DB_SSL_MODE" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxConns     int32         `env:"DB_MAX_CONNS" validate:"min=1,max=500"`
	QueryTimeout time.Duration `env:"DB_QUERY_TIMEOUT" validate:"min=0"`
}

// JWTConfig holds the secret used to verify bearer tokens issued by the auth service
type JWTConfig struct {
	Secret string `env:"JWT_SECRET" validate:"required"`
}

// AppConfig holds application configuration
type AppConfig struct {
	Port         int      `env:"APP_PORT" validate:"min=1,max=65535"`
	Env          string   `env:"APP_ENV" validate:"oneof=development staging production test"`
	LogLevel     string   `env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	AllowOrigins []string `env:"ALLOW_ORIGIN" validate:"min=1"`
}

// AttendanceConfig tunes reconciliation.
type AttendanceConfig struct {
	// Hours past midnight a last-out may still close the previous day's shift.
	ShiftOutCutoffHours int           `env:"SHIFT_OUT_CUTOFF_HOURS" validate:"min=0,max=23"`
	InOutSwap           bool          `env:"INOUT_SWAP"`
	MappingCacheTTL     time.Duration `env:"MAPPING_CACHE_TTL" validate:"gt=0"`

	SwapSampleSize  int                  `env:"SWAP_SAMPLE_SIZE" validate:"min=1"`
	SwapMinResolved int                  `env:"SWAP_MIN_RESOLVED" validate:"min=1"`
	SwapInRatio     float64              `env:"SWAP_IN_RATIO" validate:"gt=0,lt=1"`
	SwapOutRatio    float64              `env:"SWAP_OUT_RATIO" validate:"gt=0,lt=1"`
	SwapInHours     attendance.HourRange `env:"SWAP_IN_HOURS"`
	SwapOutHours    attendance.HourRange `env:"SWAP_OUT_HOURS"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
		slog.Info("No .env file found, using process environment")
	}

	config := &Config{}
	var errs []error

	// Database configuration
	config.Database = DatabaseConfig{
		Host:         getEnv("DB_HOST", "localhost"),
		Port:         getEnvInt("DB_PORT", 5432, &errs),
		User:         getEnv("DB_USER", "postgres"),
		Password:     getEnv("DB_PASSWORD", ""),
		Name:         getEnv("DB_NAME", "attendance"),
		SSLMode:      getEnv("DB_SSL_MODE", "disable"),
		MaxConns:     int32(getEnvInt("DB_MAX_CONNS", 10, &errs)),
		QueryTimeout: getEnvDuration("DB_QUERY_TIMEOUT", 30*time.Second, &errs),
	}

	// Application configuration
	config.App = AppConfig{
		Port:         getEnvInt("APP_PORT", 8080, &errs),
		Env:          getEnv("APP_ENV", "development"),
		LogLevel:     strings.ToLower(getEnv("LOG_LEVEL", "info")),
		AllowOrigins: getEnvSlice("ALLOW_ORIGIN", []string{"*"}),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret: getEnv("JWT_SECRET", ""),
	}

	// Attendance configuration
	heuristic := attendance.DefaultHeuristicConfig()
	config.Attendance = AttendanceConfig{
		ShiftOutCutoffHours: clamp(getEnvInt("SHIFT_OUT_CUTOFF_HOURS", 12, &errs), 0, 23),
		InOutSwap:           getEnvBool("INOUT_SWAP", false, &errs),
		MappingCacheTTL:     getEnvDuration("MAPPING_CACHE_TTL", 300*time.Second, &errs),
		SwapSampleSize:      getEnvInt("SWAP_SAMPLE_SIZE", heuristic.SampleSize, &errs),
		SwapMinResolved:     getEnvInt("SWAP_MIN_RESOLVED", heuristic.MinResolved, &errs),
		SwapInRatio:         getEnvFloat("SWAP_IN_RATIO", heuristic.InRatio, &errs),
		SwapOutRatio:        getEnvFloat("SWAP_OUT_RATIO", heuristic.OutRatio, &errs),
		SwapInHours:         getEnvHourRange("SWAP_IN_HOURS", heuristic.InHours, &errs),
		SwapOutHours:        getEnvHourRange("SWAP_OUT_HOURS", heuristic.OutHours, &errs),
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid environment: %w", errors.Join(errs...))
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

var validate = newValidator()

// newValidator reports fields by their environment variable name.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("env"); name != "" {
			return name
		}
		return fld.Name
	})
	return v
}

// Validate validates the configuration
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, formatFieldError(fe))
	}
	return errors.New(strings.Join(msgs, ", "))
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min", "gt":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lt":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed validation for '%s'", fe.Field(), fe.Tag())
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) ShiftOutCutoff() time.Duration {
	return time.Duration(c.Attendance.ShiftOutCutoffHours) * time.Hour
}

func (c *Config) Heuristic() attendance.HeuristicConfig {
	return attendance.HeuristicConfig{
		SampleSize:  c.Attendance.SwapSampleSize,
		MinResolved: c.Attendance.SwapMinResolved,
		InRatio:     c.Attendance.SwapInRatio,
		OutRatio:    c.Attendance.SwapOutRatio,
		InHours:     c.Attendance.SwapInHours,
		OutHours:    c.Attendance.SwapOutHours,
	}
}

func (c *Config) SlogLevel() slog.Level {
	switch c.App.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int, errs *[]error) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64, errs *[]error) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool, errs *[]error) bool {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	switch strings.ToLower(value) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	*errs = append(*errs, fmt.Errorf("invalid %s: %q is not a boolean", key, value))
	return fallback
}

// getEnvDuration accepts a Go duration ("5m") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return d
}

// getEnvHourRange parses an inclusive "from-to" range of hours, e.g. "0-6".
func getEnvHourRange(key string, fallback attendance.HourRange, errs *[]error) attendance.HourRange {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	from, to, ok := strings.Cut(value, "-")
	if !ok {
		*errs = append(*errs, fmt.Errorf("invalid %s: %q is not a from-to range", key, value))
		return fallback
	}
	f, errFrom := strconv.Atoi(strings.TrimSpace(from))
	t, errTo := strconv.Atoi(strings.TrimSpace(to))
	if errFrom != nil || errTo != nil || f < 0 || t > 23 || f > t {
		*errs = append(*errs, fmt.Errorf("invalid %s: %q must be two hours 0-23 in order", key, value))
		return fallback
	}
	return attendance.HourRange{From: f, To: t}
}

func getEnvSlice(key string, fallback []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

func clamp(n, lo, hi int) int {
	return min(max(n, lo), hi)
}
