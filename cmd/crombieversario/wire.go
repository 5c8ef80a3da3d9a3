package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/crombie/crombieversario/internal/config"
	"github.com/crombie/crombieversario/internal/directory"
	"github.com/crombie/crombieversario/internal/dispatch"
	"github.com/crombie/crombieversario/internal/metrics"
	"github.com/crombie/crombieversario/internal/render"
	"github.com/crombie/crombieversario/internal/store"
	"github.com/crombie/crombieversario/internal/store/migrations"
	"github.com/crombie/crombieversario/middlewares"
	"github.com/crombie/crombieversario/pkg/cache"
	"github.com/crombie/crombieversario/pkg/db"
	"github.com/crombie/crombieversario/pkg/job"
	"github.com/crombie/crombieversario/pkg/logger"
	"github.com/crombie/crombieversario/pkg/mailer"
	"github.com/crombie/crombieversario/pkg/mailer/resend"
	"github.com/crombie/crombieversario/pkg/mailer/smtp"
	"github.com/crombie/crombieversario/pkg/redis"
	"github.com/crombie/crombieversario/pkg/storage"
)

const (
	apiKeyBytes  = 32
	directoryKey = "crombieversario:directory:"
)

// core is what every command needs: configuration, logging and the database.
type core struct {
	cfg     *config.Config
	log     *slog.Logger
	loc     *time.Location
	pool    *pgxpool.Pool
	store   *store.Store
	closers []func(context.Context) error
}

// openCore connects to Postgres. With migrate set it also applies the schema
// and River migrations when DATABASE_AUTO_MIGRATE is on.
func openCore(ctx context.Context, load loader, migrate bool) (*core, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	log, flush := logger.FromConfig(cfg.Log, middlewares.RequestIDExtractor())
	c := &core{cfg: cfg, log: log, closers: []func(context.Context) error{flush}}

	if c.loc, err = cfg.Location(); err != nil {
		return nil, c.fail(ctx, err)
	}

	c.pool, err = db.Connect(ctx, cfg.DB, log)
	if err != nil {
		return nil, c.fail(ctx, fmt.Errorf("connect database: %w", err))
	}
	c.closers = append(c.closers, db.Shutdown(c.pool))

	if migrate && cfg.DB.AutoMigrate {
		if err := db.Migrate(ctx, c.pool, migrations.FS, cfg.DB.MigrationsTable, log); err != nil {
			return nil, c.fail(ctx, err)
		}
		if err := job.Migrate(ctx, c.pool, log); err != nil {
			return nil, c.fail(ctx, err)
		}
	}

	c.store = store.New(c.pool)
	return c, nil
}

// close runs the registered closers, latest first.
func (c *core) close(ctx context.Context) error {
	var errs []error
	for _, fn := range slices.Backward(c.closers) {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *core) fail(ctx context.Context, err error) error {
	c.log.ErrorContext(ctx, "startup failed", slog.Any("error", err))
	return errors.Join(err, c.close(ctx))
}

// today is the current time in the service zone.
func (c *core) today() time.Time { return time.Now().In(c.loc) }

// services is the batch pipeline and what the API shares with it.
type services struct {
	redis     goredis.UniversalClient
	files     storage.Storage
	directory *directory.Cached
	batch     *dispatch.Batch
	metrics   *metrics.Metrics
}

func (c *core) buildServices(ctx context.Context) (*services, error) {
	cfg := c.cfg
	s := &services{metrics: metrics.New()}

	var dirCache cache.Cache[[]directory.Employee]
	if cfg.Redis.Enabled() {
		client, err := redis.FromConfig(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		s.redis = client
		c.closers = append(c.closers, redis.Shutdown(client))
		dirCache = cache.NewRedis[[]directory.Employee](client, nil, cache.WithPrefix(directoryKey))
	} else {
		mem := cache.NewMemory[[]directory.Employee](cache.WithDefaultTTL(cfg.Directory.CacheTTL))
		c.closers = append(c.closers, func(context.Context) error { return mem.Close() })
		dirCache = mem
	}

	var source directory.Source
	if cfg.Directory.URL != "" {
		source = directory.NewHTTPSource(cfg.Directory.URL,
			directory.WithToken(cfg.Directory.Token),
			directory.WithTimeout(cfg.Directory.Timeout),
		)
	} else {
		source = directory.NewFileSource(cfg.Directory.File)
	}
	s.directory = directory.NewCached(source, dirCache, cfg.Directory.CacheTTL)

	if cfg.Storage.Bucket != "" {
		bucket, err := storage.New(cfg.Storage)
		if err != nil {
			return nil, err
		}
		s.files = bucket
	} else {
		c.log.WarnContext(ctx, "S3_BUCKET is not set, image uploads are disabled")
	}

	sender, err := newSender(cfg, c.log)
	if err != nil {
		return nil, err
	}

	if cfg.BaseURL == "" {
		c.log.WarnContext(ctx, "APP_BASE_URL is not set, emails will go out without a tracking pixel")
	}
	renderer := render.New(
		render.WithBaseURL(cfg.BaseURL),
		render.WithFallbackSubject(cfg.Mailer.FallbackSubject),
		render.WithLayout(cfg.Mailer.Layout),
		render.WithLogger(c.log),
	)

	// The batch always reads a fresh directory; the cache is refilled on the way.
	s.batch = dispatch.New(c.store, directory.SourceFunc(s.directory.Fresh), renderer, sender,
		dispatch.WithConcurrency(cfg.Batch.Concurrency),
		dispatch.WithLogger(c.log),
		dispatch.WithImages(dispatch.NewImages(s.files, nil)),
		dispatch.WithObserver(s.metrics.ObserveResult),
		dispatch.WithBatchObserver(s.metrics.ObserveBatch),
	)
	return s, nil
}

func newSender(cfg *config.Config, log *slog.Logger) (mailer.Sender, error) {
	switch cfg.Mailer.Provider {
	case "resend":
		s, err := resend.New(cfg.Resend)
		if err != nil {
			return nil, err
		}
		return mailer.Validating(s), nil
	default:
		s, err := smtp.New(cfg.SMTP, smtp.WithLogger(log))
		if err != nil {
			return nil, err
		}
		return mailer.Validating(s), nil
	}
}

// resolveAPIKey prefers API_KEY, then the stored key. When neither exists a
// random key is generated and persisted; concurrent replicas agree on the
// first one written.
func resolveAPIKey(ctx context.Context, c *core) (string, error) {
	if c.cfg.APIKey != "" {
		return c.cfg.APIKey, nil
	}
	key, err := c.store.GetSetting(ctx, store.SettingAPIKey)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("load api key: %w", err)
	}

	buf := make([]byte, apiKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	generated := hex.EncodeToString(buf)
	key, err = c.store.SetSettingIfAbsent(ctx, store.SettingAPIKey, generated)
	if err != nil {
		return "", fmt.Errorf("store api key: %w", err)
	}
	if key == generated {
		c.log.WarnContext(ctx, "generated admin API key, set API_KEY to pin it",
			slog.String("api_key", key),
		)
	}
	return key, nil
}
