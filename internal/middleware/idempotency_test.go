package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrflow/internal/middleware"
)

func idempotencyRouter(rdb *redis.Client) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/requests", middleware.Idempotency(rdb), func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"created": true})
	})
	return r
}

func postWithKey(r *gin.Engine, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/requests", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotencyPassesThroughFirstRequest(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cacheKey := "idemp:/requests::abc-123"
	mock.ExpectGet(cacheKey).RedisNil()
	mock.ExpectSetNX(cacheKey+":lock", "locked", 30*time.Second).SetVal(true)

	w := postWithKey(idempotencyRouter(rdb), "abc-123")

	assert.Equal(t, http.StatusCreated, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyReplaysCachedResponse(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cacheKey := "idemp:/requests::abc-123"
	mock.ExpectGet(cacheKey).SetVal(`{"id":"cached-request"}`)

	w := postWithKey(idempotencyRouter(rdb), "abc-123")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cached-request")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyConflictWhileInFlight(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cacheKey := "idemp:/requests::abc-123"
	mock.ExpectGet(cacheKey).RedisNil()
	mock.ExpectSetNX(cacheKey+":lock", "locked", 30*time.Second).SetVal(false)

	w := postWithKey(idempotencyRouter(rdb), "abc-123")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "PROCESSING")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencySkippedWithoutKey(t *testing.T) {
	rdb, mock := redismock.NewClientMock()

	w := postWithKey(idempotencyRouter(rdb), "")

	assert.Equal(t, http.StatusCreated, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
