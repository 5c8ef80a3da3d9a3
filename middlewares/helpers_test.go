package middlewares_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crombie/crombieversario/internal/web"
)

type routes func(r web.Router)

func (f routes) Routes(r web.Router) { f(r) }

// newApp mounts h at GET / behind mw.
func newApp(h web.HandlerFunc, mw ...web.Middleware) *web.App {
	return web.New(
		web.WithMiddleware(mw...),
		web.WithHandlers(routes(func(r web.Router) {
			r.GET("/", h)
			r.POST("/", h)
		})),
	)
}

func ok(c web.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}
