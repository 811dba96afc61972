package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type seen struct {
	gin string
	ctx string
}

func serve(header string) (*httptest.ResponseRecorder, seen) {
	gin.SetMode(gin.TestMode)
	var s seen
	r := gin.New()
	r.Use(Middleware())
	r.GET("/ping", func(c *gin.Context) {
		s.gin = Value(c)
		s.ctx = FromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if header != "" {
		req.Header.Set(Header, header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, s
}

func TestMiddlewareKeepsClientID(t *testing.T) {
	w, s := serve("abc-123")

	assert.Equal(t, "abc-123", s.gin)
	assert.Equal(t, "abc-123", s.ctx)
	assert.Equal(t, "abc-123", w.Header().Get(Header))
}

func TestMiddlewareReplacesUnsafeIDs(t *testing.T) {
	for _, bad := range []string{strings.Repeat("x", 200), "id with spaces", "line\nbreak"} {
		w, s := serve(bad)

		_, err := uuid.Parse(s.gin)
		assert.NoError(t, err, bad)
		assert.Equal(t, s.gin, w.Header().Get(Header))
	}
}

func TestFromContextEmpty(t *testing.T) {
	assert.Empty(t, FromContext(context.Background()))
	assert.Equal(t, "r-1", FromContext(WithID(context.Background(), "r-1")))
	assert.Empty(t, Value(nil))
}
