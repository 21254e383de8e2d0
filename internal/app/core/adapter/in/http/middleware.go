package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/abhishek4kahol/deel-task/internal/app/core/domain"
)

const (
	// 身分由上游驗證，這裡只負責把 profile_id 標頭解析成 Profile
	profileHeader = "profile_id"

	ctxProfileKey = "requesting_profile"
)

// withProfile 解析請求者身分，失敗一律 401
func (s *Server) withProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(profileHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"ok": false, "kind": "unauthorized", "message": "user not authenticated",
			})
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err == nil {
			var profile *domain.Profile
			profile, err = s.core.GetProfile(c.Request.Context(), id)
			if err == nil {
				c.Set(ctxProfileKey, profile)
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"ok": false, "kind": "unauthorized", "message": "profile not found",
		})
	}
}

// profileFrom 取出 withProfile 放入的請求者身分
func profileFrom(c *gin.Context) *domain.Profile {
	return c.MustGet(ctxProfileKey).(*domain.Profile)
}

// requestLog 每個請求一筆結構化日誌，附帶請求 ID
func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()
		c.Writer.Header().Set("X-Request-Id", requestID)

		c.Next()

		s.log.Info("request",
			"id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}
