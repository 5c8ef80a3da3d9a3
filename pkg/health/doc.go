// Package health serves liveness and readiness probes as JSON.
//
// Readiness runs every named check in parallel under a shared timeout and
// answers 503 when any of them fails:
//
//	r.Get("/health/ready", health.ReadinessHandler(health.Checks{
//	    "postgres": db.Healthcheck(pool),
//	}, health.WithLogger(log)))
package health
