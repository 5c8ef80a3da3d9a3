package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// RequestIDKey stores the request ID set by the RequestID middleware.
type RequestIDKey struct{}

// JWTClaimsKey stores parsed JWT claims set by the JWT middleware.
type JWTClaimsKey struct{}

// maxJSONBody bounds BindJSON reads.
const maxJSONBody = 1 << 20

// Context provides request/response access and helper methods.
// It also implements context.Context by delegating to the request context.
type Context interface {
	context.Context

	Request() *http.Request
	Response() http.ResponseWriter

	// Param returns a chi URL parameter, or "" when absent.
	Param(name string) string
	// Query returns a query parameter, or "" when absent.
	Query(name string) string
	// FormFile returns the first file for the multipart field.
	FormFile(name string) (multipart.File, *multipart.FileHeader, error)

	Header(name string) string
	SetHeader(name, value string)

	// JSON writes v as JSON with status code.
	JSON(code int, v any) error
	// Blob writes raw bytes with the given content type.
	Blob(code int, contentType string, b []byte) error
	NoContent(code int) error

	// BindJSON decodes the body into v and validates it. Validation failures
	// come back as ValidationErrors with a nil error.
	BindJSON(v any) (ValidationErrors, error)

	// Written reports whether a response has already been written.
	Written() bool

	Logger() *slog.Logger

	// Set stores a value in the request context; Get retrieves it.
	Set(key, value any)
	Get(key any) any
	// SetContext replaces the request context, e.g. to attach a deadline.
	SetContext(ctx context.Context)
}

type requestContext struct {
	request  *http.Request
	response *ResponseWriter
	logger   *slog.Logger
}

func newContext(w http.ResponseWriter, r *http.Request, logger *slog.Logger) *requestContext {
	return &requestContext{
		request:  r,
		response: wrapResponseWriter(w),
		logger:   logger,
	}
}

func (c *requestContext) Request() *http.Request { return c.request }
func (c *requestContext) Response() http.ResponseWriter { return c.response }
func (c *requestContext) Deadline() (time.Time, bool) { return c.request.Context().Deadline() }
func (c *requestContext) Done() <-chan struct{} { return c.request.Context().Done() }
func (c *requestContext) Err() error { return c.request.Context().Err() }
func (c *requestContext) Value(key any) any { return c.request.Context().Value(key) }
func (c *requestContext) Param(name string) string { return chi.URLParam(c.request, name) }
func (c *requestContext) Query(name string) string { return c.request.URL.Query().Get(name) }
func (c *requestContext) Header(name string) string { return c.request.Header.Get(name) }
func (c *requestContext) SetHeader(name, value string) { c.response.Header().Set(name, value) }
func (c *requestContext) Written() bool { return c.response.Written() }
func (c *requestContext) Logger() *slog.Logger { return c.logger }
func (c *requestContext) Get(key any) any { return c.request.Context().Value(key) }

func (c *requestContext) FormFile(name string) (multipart.File, *multipart.FileHeader, error) {
	return c.request.FormFile(name)
}

func (c *requestContext) JSON(code int, v any) error {
	c.response.Header().Set("Content-Type", "application/json; charset=utf-8")
	c.response.WriteHeader(code)
	return json.NewEncoder(c.response).Encode(v)
}

func (c *requestContext) Blob(code int, contentType string, b []byte) error {
	c.response.Header().Set("Content-Type", contentType)
	c.response.WriteHeader(code)
	_, err := c.response.Write(b)
	return err
}

func (c *requestContext) NoContent(code int) error {
	c.response.WriteHeader(code)
	return nil
}

func (c *requestContext) BindJSON(v any) (ValidationErrors, error) {
	body := http.MaxBytesReader(c.response, c.request.Body, maxJSONBody)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("bind json: empty body")
		}
		return nil, fmt.Errorf("bind json: %w", err)
	}
	return Validate(v)
}

// Set replaces the request with one carrying the value, so handlers further
// down the chain see it.
func (c *requestContext) Set(key, value any) {
	c.request = c.request.WithContext(context.WithValue(c.request.Context(), key, value))
}

func (c *requestContext) SetContext(ctx context.Context) {
	c.request = c.request.WithContext(ctx)
}

// RequestID returns the request ID stored by the RequestID middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey{}).(string)
	return id
}
