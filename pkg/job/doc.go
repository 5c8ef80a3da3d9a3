// Package job runs background tasks on River, backed by the service's
// Postgres pool.
//
// Tasks are registered by structural typing. A task with a payload implements
// Name and Handle(ctx, P); a scheduled task implements Name, Schedule and
// Handle(ctx):
//
//	m, err := job.NewManager(pool,
//	    job.WithTask(tasks.NewRunBatch(dispatcher)),
//	    job.WithScheduledTask(tasks.NewDailyBatch(dispatcher, "0 9 * * *", loc)),
//	    job.WithLogger(log),
//	)
//
// River's own tables are created by Migrate, which the service runs next to
// its goose migrations.
package job
