package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/devblog/devblog-api/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func hit(r *gin.Engine, path string) int {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w.Code
}

func TestRateLimitMiddleware_AllowsUnderLimit(t *testing.T) {
	before := testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory"))

	r := gin.New()
	r.Use(RateLimitMiddleware(t.Context(), 10, 2))
	r.GET("/ok", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	require.Equal(t, http.StatusOK, hit(r, "/ok"))
	require.Equal(t, http.StatusOK, hit(r, "/ok"))

	require.Equal(t, before+2, testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory")))
}

func TestRateLimitMiddleware_BlocksWhenExceeded(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(t.Context(), 2, 1))
	r.GET("/limited", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	require.Equal(t, http.StatusOK, hit(r, "/limited"))
	require.Equal(t, http.StatusTooManyRequests, hit(r, "/limited"))

	// one token is back after 1/rps seconds
	time.Sleep(600 * time.Millisecond)
	require.Equal(t, http.StatusOK, hit(r, "/limited"))
}

func TestRateLimitMiddleware_UsesIdentityWhenPresent(t *testing.T) {
	r := gin.New()
	caller := "user-123"
	r.Use(func(c *gin.Context) {
		c.Set(identityKey, Identity{ID: caller})
		c.Next()
	})
	r.Use(RateLimitMiddleware(t.Context(), 0.5, 1))
	r.GET("/u", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	require.Equal(t, http.StatusOK, hit(r, "/u"))
	require.Equal(t, http.StatusTooManyRequests, hit(r, "/u"))

	// same IP, different subject -> separate bucket
	caller = "user-456"
	require.Equal(t, http.StatusOK, hit(r, "/u"))
}

func TestLimiterStore_PrunesIdleKeys(t *testing.T) {
	s := newLimiterStore(1, 1)
	for i := 0; i < 10000; i++ {
		s.get(fmt.Sprintf("ip:10.0.%d.%d", i/256, i%256))
	}
	require.Equal(t, 10000, s.prune(time.Now().Add(-time.Hour)))

	cutoff := time.Now()
	s.get("sub:active")
	require.Equal(t, 1, s.prune(cutoff))
}

func TestLimiterStore_SweepStopsWithContext(t *testing.T) {
	s := newLimiterStore(1, 1)
	s.get("ip:1.2.3.4")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.sweep(ctx, 5*time.Millisecond, 0)
		close(done)
	}()

	require.Eventually(t, func() bool { return s.prune(time.Time{}) == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	require.Eventually(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func hitAs(r *gin.Engine, path, bearer string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestIdentify_GivesEachCallerItsOwnBucket(t *testing.T) {
	r := gin.New()
	r.Use(Identify(&fakeVerifier{}), RateLimitMiddleware(t.Context(), 0.001, 1))
	r.GET("/p", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })
	r.GET("/private", AuthMiddleware(&fakeVerifier{}), func(c *gin.Context) {
		ident, _ := IdentityFrom(c)
		c.JSON(200, ident)
	})

	// two identities behind the same client IP
	require.Equal(t, http.StatusOK, hitAs(r, "/private", "goodtoken"))
	require.Equal(t, http.StatusOK, hitAs(r, "/private", "emailonly"))
	require.Equal(t, http.StatusTooManyRequests, hitAs(r, "/private", "goodtoken"))

	// anonymous and unverifiable callers share the IP bucket
	require.Equal(t, http.StatusOK, hitAs(r, "/p", ""))
	require.Equal(t, http.StatusTooManyRequests, hitAs(r, "/p", "forged"))
}

func TestIdentify_DoesNotReject(t *testing.T) {
	r := gin.New()
	r.Use(Identify(&fakeVerifier{}))
	r.GET("/p", func(c *gin.Context) {
		_, ok := IdentityFrom(c)
		c.JSON(200, gin.H{"identified": ok})
	})

	require.Equal(t, http.StatusOK, hitAs(r, "/p", "forged"))
	require.Equal(t, http.StatusOK, hitAs(r, "/p", ""))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer goodtoken")
	r.ServeHTTP(w, req)
	require.JSONEq(t, `{"identified":true}`, w.Body.String())
}
