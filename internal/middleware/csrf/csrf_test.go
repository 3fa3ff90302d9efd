package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, prepare func(*http.Request), method string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	e.Use(Middleware(Config{}))
	e.Any("/cart", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(method, "http://example.com/cart", nil)
	if prepare != nil {
		prepare(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSafeMethodIssuesToken(t *testing.T) {
	rec := serve(t, nil, http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-CSRF-Token"))
	require.Contains(t, rec.Header().Get("Set-Cookie"), "XSRF-TOKEN=")
}

func TestUnsafeMethod(t *testing.T) {
	withCookie := func(token string) func(*http.Request) {
		return func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "tok"})
			r.Header.Set("Origin", "http://example.com")
			if token != "" {
				r.Header.Set("X-CSRF-Token", token)
			}
		}
	}

	tests := []struct {
		name    string
		prepare func(*http.Request)
		want    int
	}{
		{"matching token", withCookie("tok"), http.StatusOK},
		{"missing token", withCookie(""), http.StatusForbidden},
		{"wrong token", withCookie("other"), http.StatusForbidden},
		{"foreign origin", func(r *http.Request) {
			withCookie("tok")(r)
			r.Header.Set("Origin", "http://evil.example")
		}, http.StatusForbidden},
		{"bearer bypasses", func(r *http.Request) {
			r.Header.Set(echo.HeaderAuthorization, "Bearer abc")
		}, http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(t, tc.prepare, http.MethodPost)
			require.Equal(t, tc.want, rec.Code)
		})
	}
}
