package middlewares

import (
	"crypto/subtle"

	"github.com/crombie/crombieversario/internal/web"
)

// APIKeyHeader carries the admin API key.
const APIKeyHeader = "X-API-Key"

// APIKey rejects requests whose X-API-Key does not match key. The comparison
// is constant-time. An empty key rejects everything.
func APIKey(key string) web.Middleware {
	expected := []byte(key)
	extractor := web.NewExtractor(web.FromHeader(APIKeyHeader))

	return func(next web.HandlerFunc) web.HandlerFunc {
		return func(c web.Context) error {
			got, ok := extractor.Extract(c)
			if !ok {
				return web.ErrUnauthorized("missing API key", web.WithErrorCode("missing_api_key"))
			}
			if len(expected) == 0 || subtle.ConstantTimeCompare([]byte(got), expected) != 1 {
				return web.ErrUnauthorized("invalid API key", web.WithErrorCode("invalid_api_key"))
			}
			return next(c)
		}
	}
}
