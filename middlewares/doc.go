// Package middlewares provides the HTTP middleware stack of the service.
//
// The global chain, outermost first:
//
//	web.WithMiddleware(
//	    middlewares.RequestID(),
//	    middlewares.AccessLog(metrics),
//	    middlewares.Recover(),
//	    middlewares.CORS(middlewares.WithAllowOrigins(cfg.CORSAllowedOrigins...)),
//	    middlewares.Timeout(30*time.Second),
//	)
//
// # Request ID
//
// RequestID reuses X-Request-ID or X-Correlation-ID from upstream, or
// generates a UUID. Use RequestIDExtractor with the logger so every record
// made with a request context carries request_id.
//
// # Recover and Timeout
//
// Both convert failures into typed errors (PanicError, TimeoutError) that
// implement web.StatusCoder, so the JSON error handler renders 500 and 504
// without special cases.
//
// # Authentication
//
// APIKey guards administrative routes with a constant-time comparison of the
// X-API-Key header. JWT guards dashboard routes:
//
//	r.Group(func(r web.Router) {
//	    r.Use(middlewares.JWT[auth.Claims](jwtSvc))
//	    r.GET("/api/failed-emails", h.list)
//	})
//
// Handlers read the claims with GetJWTClaims[auth.Claims](c).
package middlewares
