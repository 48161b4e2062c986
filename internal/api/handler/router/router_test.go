package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
)

func TestRouter_MiddlewaresAndInstrumentation(t *testing.T) {
	var calls []string

	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls = append(calls, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	var instrumented []string
	rt := New(
		WithInstrumentation(func(path string, next http.Handler) http.Handler {
			instrumented = append(instrumented, path)
			return next
		}),
		WithRoutes(Route{
			Path:   "/items/:id",
			Method: http.MethodGet,
			Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls = append(calls, "handler:"+httprouter.ParamsFromContext(r.Context()).ByName("id"))
			}),
			Middlewares: []func(http.Handler) http.Handler{mw("a"), mw("b")},
		}),
		WithNotFound(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})),
	)

	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/42", nil))

	assert.Equal(t, []string{"a", "b", "handler:42"}, calls)
	assert.Equal(t, []string{"/items/:id"}, instrumented)

	rec = httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/unknown", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
