// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/crombie/crombieversario/pkg/db"
	"github.com/crombie/crombieversario/pkg/logger"
	"github.com/crombie/crombieversario/pkg/mailer"
	"github.com/crombie/crombieversario/pkg/mailer/resend"
	"github.com/crombie/crombieversario/pkg/mailer/smtp"
	"github.com/crombie/crombieversario/pkg/redis"
	"github.com/crombie/crombieversario/pkg/storage"
	"github.com/crombie/crombieversario/pkg/validator"
)

var (
	ErrParse    = errors.New("config: parse environment")
	ErrInvalid  = errors.New("config: invalid")
	ErrTimezone = errors.New("config: unknown time zone")
)

// Config is the full service configuration.
type Config struct {
	Env      string `env:"APP_ENV" envDefault:"development" validate:"oneof=development staging production test"`
	Timezone string `env:"APP_TIMEZONE" envDefault:"America/Argentina/Buenos_Aires"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	// BaseURL is the public origin used in tracking pixel URLs.
	BaseURL string `env:"APP_BASE_URL" validate:"omitempty,url"`

	APIKey          string        `env:"API_KEY"`
	JWTSecret       string        `env:"JWT_SECRET,required" validate:"min=32"`
	JWTTTL          time.Duration `env:"JWT_TTL" envDefault:"12h" validate:"gt=0"`
	AuthEmailDomain string        `env:"AUTH_EMAIL_DOMAIN" envDefault:"@crombie.dev" validate:"required"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	Directory DirectoryConfig
	Batch     BatchConfig

	DB      db.Config
	Redis   redis.Config
	Storage storage.Config
	Mailer  mailer.Config
	Resend  resend.Config
	SMTP    smtp.Config
	Log     logger.Config
}

// DirectoryConfig selects the employee directory backend. URL wins over File.
type DirectoryConfig struct {
	URL      string        `env:"DIRECTORY_URL" validate:"required_without=File,omitempty,url"`
	File     string        `env:"DIRECTORY_FILE" validate:"required_without=URL"`
	Token    string        `env:"DIRECTORY_TOKEN"`
	CacheTTL time.Duration `env:"DIRECTORY_CACHE_TTL" envDefault:"10m"`
	Timeout  time.Duration `env:"DIRECTORY_TIMEOUT" envDefault:"10s"`
}

type BatchConfig struct {
	// Schedule is a five-field cron expression evaluated in Timezone.
	Schedule    string `env:"BATCH_SCHEDULE" envDefault:"0 9 * * *" validate:"required"`
	Concurrency int    `env:"DISPATCH_CONCURRENCY" envDefault:"4" validate:"gte=1,lte=64"`
	Enabled     bool   `env:"BATCH_ENABLED" envDefault:"true"`
}

// Load reads the optional .env files, parses the environment and validates
// the result. Missing .env files are ignored.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return Parse(env.Options{})
}

// Parse builds a Config from the process environment, or from opts.Environment
// when set.
func Parse(opts env.Options) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, errors.Join(ErrParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.ValidateStruct(c); err != nil {
		if verrs := validator.ExtractValidationErrors(err); verrs != nil {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field, fe.Tag))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(fields, ", "))
		}
		return errors.Join(ErrInvalid, err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrTimezone, c.Timezone)
	}
	return loc, nil
}

// Today is the current civil date in the configured zone.
func (c *Config) Today() time.Time {
	loc, err := c.Location()
	if err != nil {
		loc = time.UTC
	}
	return time.Now().In(loc)
}

// CronSchedule prefixes the batch schedule with the service time zone unless
// it already names one.
func (c *Config) CronSchedule() string {
	if strings.HasPrefix(c.Batch.Schedule, "CRON_TZ=") || strings.HasPrefix(c.Batch.Schedule, "TZ=") {
		return c.Batch.Schedule
	}
	return "CRON_TZ=" + c.Timezone + " " + c.Batch.Schedule
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
