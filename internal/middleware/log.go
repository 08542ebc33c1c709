package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"finly/internal/models"
	"finly/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// maxAuditBody caps how much of a request body goes into the action column.
const maxAuditBody = 2000

// AuditMiddleware stores one AuditLog row per authenticated request. Path and action
// are encrypted with encryptKey when it is set. Must run after AuthMiddleware.
func AuditMiddleware(db *gorm.DB, encryptKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var userID uint
		if v, ok := c.Get(CurrentUserKey); ok {
			if user, ok := v.(*models.User); ok && user != nil {
				userID = user.ID
			}
		}

		var bodyBytes []byte
		if c.Request.Body != nil && c.Request.Method != http.MethodGet {
			bodyBytes, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}

		c.Next()

		if userID == 0 {
			return
		}

		path := c.Request.URL.Path
		action := c.Request.Method + " " + path
		// never persist passwords, not even encrypted
		if len(bodyBytes) > 0 && len(bodyBytes) < maxAuditBody && !strings.Contains(path, "password") {
			action += " " + string(bodyBytes)
		}

		encPath, err := util.EncryptField(encryptKey, path)
		if err != nil {
			slog.Error("encrypt audit path", "err", err)
			return
		}
		encAction, err := util.EncryptField(encryptKey, action)
		if err != nil {
			slog.Error("encrypt audit action", "err", err)
			return
		}

		entry := models.AuditLog{
			UserID:    userID,
			Method:    c.Request.Method,
			PathEnc:   encPath,
			ActionEnc: encAction,
			Status:    c.Writer.Status(),
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}
		if err := db.Create(&entry).Error; err != nil {
			slog.Error("write audit log", "user_id", userID, "err", err)
		}
	}
}
