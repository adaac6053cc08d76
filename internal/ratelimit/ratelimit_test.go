package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	"github.com/nekogravitycat/hotel-inventory-backend/internal/auth"
	"github.com/nekogravitycat/hotel-inventory-backend/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(mw gin.HandlerFunc, actor *domain.Actor) *httptest.ResponseRecorder {
	r := gin.New()
	r.POST("/v1/hotels/:hotel_id/bookings", func(c *gin.Context) {
		if actor != nil {
			auth.SetActor(c, *actor)
		}
		c.Next()
	}, mw, func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/hotels/h1/bookings", nil)
	r.ServeHTTP(w, req)
	return w
}

func TestMiddlewareDisabled(t *testing.T) {
	logger, _ := test.NewNullLogger()

	w := serve(Middleware(Config{Enabled: false}, nil, logger), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(Middleware(Config{Enabled: true}, nil, logger), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestMiddlewareFailsOpen(t *testing.T) {
	logger, hook := test.NewNullLogger()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	w := serve(Middleware(Config{Enabled: true, Capacity: 1}, rdb, logger), nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	if assert.NotNil(t, hook.LastEntry()) {
		assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	}
}

func TestKey(t *testing.T) {
	r := gin.New()
	var got []string
	r.POST("/v1/hotels/:hotel_id/bookings", func(c *gin.Context) {
		got = append(got, Key("rl", c))
		auth.SetActor(c, domain.Actor{ID: "u1", HotelID: "h1"})
		got = append(got, Key("rl", c))
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/hotels/h1/bookings", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, []string{
		"rl:ip:10.0.0.7:route:POST /v1/hotels/:hotel_id/bookings",
		"rl:actor:u1:route:POST /v1/hotels/:hotel_id/bookings",
	}, got)
}

func TestNormalize(t *testing.T) {
	cfg := Config{RefillInterval: 2 * time.Second}.normalize()

	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, 10*time.Second, cfg.TTL)
	assert.Equal(t, "rl", cfg.Prefix)
}
