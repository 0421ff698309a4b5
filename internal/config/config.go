package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/ykvlv/oazis/internal/domain"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken string `envconfig:"BOT_TOKEN" required:"true" validate:"required"`
	DBPath   string `envconfig:"DB_PATH" default:"./data/oazis.db" validate:"required"`
	Timezone string `envconfig:"TIMEZONE" default:"Europe/Paris" validate:"timezone"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"` // healthz + metrics

	HydrationStartHour      int `envconfig:"HYDRATION_START_HOUR" default:"9" validate:"gte=0,lt=24"`
	HydrationEndHour        int `envconfig:"HYDRATION_END_HOUR" default:"21" validate:"gt=0,lte=24,gtfield=HydrationStartHour"`
	ReminderIntervalMinutes int `envconfig:"REMINDER_INTERVAL_MINUTES" default:"90" validate:"gt=0"`
	DefaultDailyTargetML    int `envconfig:"DEFAULT_DAILY_TARGET_ML" default:"2000" validate:"gt=0"`
	DefaultDailyGlasses     int `envconfig:"DEFAULT_DAILY_GLASSES" default:"8" validate:"gt=0"`
	GlassVolumeML           int `envconfig:"GLASS_VOLUME_ML" default:"250" validate:"gt=0"`

	DBWorkers                int     `envconfig:"DB_WORKERS" default:"4" validate:"gte=1"`
	MaxConcurrentEvaluations int     `envconfig:"MAX_CONCURRENT_EVALUATIONS" default:"16" validate:"gte=1"`
	SendRatePerSecond        float64 `envconfig:"SEND_RATE_PER_SECOND" default:"25" validate:"gt=0"`
}

// Load reads an optional .env file, then environment variables into Config,
// and validates the result. Variables already set in the environment win
// over the .env file.
func Load() (Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. A missing file is not an error.
func LoadFile(path string) (Config, error) {
	var cfg Config
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load %s: %w", path, err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if err := newValidator().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("timezone", func(fl validator.FieldLevel) bool {
		_, err := domain.ValidateTZ(fl.Field().String())
		return err == nil
	})
	return v
}

// Defaults returns the system-wide fallbacks for unset user preferences.
func (c Config) Defaults() domain.Defaults {
	return domain.Defaults{
		Timezone:        c.Timezone,
		StartHour:       c.HydrationStartHour,
		EndHour:         c.HydrationEndHour,
		IntervalMinutes: c.ReminderIntervalMinutes,
		DailyTargetML:   c.DefaultDailyTargetML,
		DailyGlasses:    c.DefaultDailyGlasses,
		GlassVolumeML:   c.GlassVolumeML,
	}
}
