package middleware

import (
	"strings"
	"time"

	"bookify/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const guestIDKey = "guestID"

// GuestTokenMiddleware resolves the guest identity for the request. A
// valid bearer token carries an existing guest id; otherwise a fresh one
// is minted and returned in the X-Guest-Token response header so the
// client can keep its cart across visits.
func GuestTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var guestID string

		auth := c.GetHeader("Authorization")
		if strings.HasPrefix(auth, "Bearer ") {
			token := strings.TrimPrefix(auth, "Bearer ")
			id, err := utils.ParseGuestToken(token)
			if err != nil {
				zap.L().Debug("Invalid guest token, issuing a new one", zap.Error(err))
			} else {
				guestID = id
			}
		}

		if guestID == "" {
			guestID = uuid.NewString()
			token, err := utils.GenerateGuestToken(guestID, 30*24*time.Hour)
			if err != nil {
				zap.L().Error("Failed to mint guest token", zap.Error(err))
			} else {
				c.Header("X-Guest-Token", token)
			}
		}

		c.Set(guestIDKey, guestID)
		c.Next()
	}
}

// GuestID returns the guest identity resolved for this request.
func GuestID(c *gin.Context) string {
	if v, ok := c.Get(guestIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
