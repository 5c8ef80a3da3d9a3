// Package web is the service's HTTP core: an App that owns a chi router,
// error-returning handlers, a small request Context, composable middleware
// and a server runner with startup and shutdown hooks.
//
// Handlers declare their routes:
//
//	type StatsHandler struct{ repo *store.SentLogs }
//
//	func (h *StatsHandler) Routes(r web.Router) {
//	    r.GET("/api/email-stats/{granularity}", h.get)
//	}
//
// A handler returns an error instead of writing one. The App's error handler
// renders it; HTTPError values keep their status, everything else becomes 500.
//
// # Context
//
// Context embeds context.Context, so it can be passed straight to repository
// and client calls. Values stored with Set are visible to later middleware and
// handlers in the same request.
//
// # Binding
//
// BindJSON decodes the body and validates it with go-playground/validator.
// Validation failures are returned as ValidationErrors, not as an error, so the
// handler decides how to answer:
//
//	var req loginRequest
//	verrs, err := c.BindJSON(&req)
//	if err != nil {
//	    return web.ErrBadRequest("invalid body", web.WithError(err))
//	}
//	if verrs != nil {
//	    return web.ErrUnprocessable("validation failed", web.WithDetails(verrs))
//	}
package web
