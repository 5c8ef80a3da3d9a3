package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/crombie/crombieversario/internal/auth"
	"github.com/crombie/crombieversario/internal/handlers"
	"github.com/crombie/crombieversario/internal/stats"
	"github.com/crombie/crombieversario/internal/tasks"
	"github.com/crombie/crombieversario/internal/tracking"
	"github.com/crombie/crombieversario/internal/web"
	"github.com/crombie/crombieversario/middlewares"
	"github.com/crombie/crombieversario/pkg/db"
	"github.com/crombie/crombieversario/pkg/job"
	"github.com/crombie/crombieversario/pkg/jwt"
	"github.com/crombie/crombieversario/pkg/redis"
)

const (
	requestTimeout   = 30 * time.Second
	shutdownTimeout  = 30 * time.Second
	manualBatchDedup = time.Minute
	jobWorkers       = 2
	tokenIssuer      = "crombieversario"
)

func newServeCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run the scheduled batch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), load)
		},
	}
}

func serve(ctx context.Context, load loader) error {
	c, err := openCore(ctx, load, true)
	if err != nil {
		return err
	}
	cfg := c.cfg

	svc, err := c.buildServices(ctx)
	if err != nil {
		return c.fail(ctx, err)
	}

	apiKey, err := resolveAPIKey(ctx, c)
	if err != nil {
		return c.fail(ctx, err)
	}

	tokens, err := jwt.NewFromString(cfg.JWTSecret, jwt.WithIssuer(tokenIssuer), jwt.WithTTL(cfg.JWTTTL))
	if err != nil {
		return c.fail(ctx, fmt.Errorf("jwt: %w", err))
	}
	authSvc := auth.New(c.store, tokens, auth.WithEmailDomain(cfg.AuthEmailDomain))

	jobOpts := []job.Option{
		job.WithLogger(c.log),
		job.WithMaxWorkers(jobWorkers),
		job.WithTask[tasks.BatchPayload](tasks.NewBatch(svc.batch, c.loc, c.log)),
	}
	if cfg.Batch.Enabled {
		jobOpts = append(jobOpts, job.WithScheduledTask(tasks.NewDaily(svc.batch, cfg.CronSchedule(), c.today, c.log)))
	} else {
		c.log.WarnContext(ctx, "scheduled batch disabled")
	}
	jobs, err := job.NewManager(c.pool, jobOpts...)
	if err != nil {
		return c.fail(ctx, err)
	}

	requireKey := middlewares.APIKey(apiKey)
	requireToken := middlewares.JWT[auth.Claims](tokens)

	health := []web.HealthOption{
		web.WithReadinessCheck("db", db.Healthcheck(c.pool)),
		web.WithReadinessCheck("jobs", job.Healthcheck(jobs)),
	}
	if svc.redis != nil {
		health = append(health, web.WithReadinessCheck("redis", redis.Healthcheck(svc.redis)))
	}

	app := web.New(
		web.WithLogger(c.log),
		web.WithMiddleware(
			middlewares.RequestID(),
			middlewares.Recover(),
			middlewares.AccessLog(svc.metrics),
			middlewares.CORS(middlewares.WithAllowOrigins(cfg.CORSAllowedOrigins...)),
			middlewares.Timeout(requestTimeout),
		),
		web.WithHealthChecks(health...),
		web.WithMount("/metrics", svc.metrics.Handler()),
		web.WithHandlers(
			handlers.NewLogin(authSvc),
			handlers.NewConfig(c.store, requireKey),
			handlers.NewImages(c.store, svc.files, requireKey),
			handlers.NewBatch(tasks.NewQueue(jobs, manualBatchDedup), c.today, requireKey),
			handlers.NewTracking(tracking.NewTracker(c.store), svc.metrics.ObserveOpen),
			handlers.NewStats(stats.New(c.store, stats.WithLocation(c.loc)), c.store, requireToken),
			handlers.NewDirectory(svc.directory, c.today, requireToken),
		),
	)

	return app.Run(cfg.HTTPAddr,
		web.WithContext(ctx),
		web.Logger(c.log),
		web.ShutdownTimeout(shutdownTimeout),
		web.StartupHook(jobs.StartFunc()),
		web.ShutdownHook(jobs.Shutdown()),
		web.ShutdownHook(c.close),
	)
}
