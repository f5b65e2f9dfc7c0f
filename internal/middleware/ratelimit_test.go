package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedRouter(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.POST("/submit", rl.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func post(r http.Handler, remote string) int {
	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiterPerClient(t *testing.T) {
	logger, hook := test.NewNullLogger()
	// effectively no refill during the test
	r := newLimitedRouter(NewRateLimiter(0.001, 2, logger))

	assert.Equal(t, http.StatusOK, post(r, "10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, post(r, "10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, post(r, "10.0.0.1:1002"))

	assert.Equal(t, http.StatusOK, post(r, "10.0.0.2:1000"), "other clients keep their own bucket")

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "rate limit exceeded", hook.LastEntry().Message)
	assert.Equal(t, "10.0.0.1", hook.LastEntry().Data["client"])
}

func TestRateLimiterCleanup(t *testing.T) {
	logger, _ := test.NewNullLogger()
	rl := NewRateLimiter(1, 1, logger)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	rl.getLimiter("a")
	clock = clock.Add(time.Hour)
	rl.getLimiter("b")

	assert.Equal(t, 1, rl.Cleanup(30*time.Minute))
	assert.Len(t, rl.limiters, 1)
	assert.Contains(t, rl.limiters, "b")
}
