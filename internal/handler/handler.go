// Package handler holds the gin handlers of the Finly API. Every handler that
// touches owned rows filters by the user AuthMiddleware put into the context.
package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"finly/internal/middleware"
	"finly/internal/models"
	"finly/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// currentUser returns the authenticated user or writes a 401 and returns false.
func currentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(middleware.CurrentUserKey)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
		return nil, false
	}
	user, ok := v.(*models.User)
	if !ok || user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
		return nil, false
	}
	return user, true
}

// pathID parses the :id route parameter. Gin keeps the trailing slash out of it.
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSuffix(c.Param("id"), "/"), 10, 64)
	if err != nil || id == 0 {
		util.BadRequest(c, "invalid id")
		return 0, false
	}
	return uint(id), true
}

// serverError logs err and answers with a generic 500.
func serverError(c *gin.Context, msg string, err error) {
	slog.Error(msg, "path", c.Request.URL.Path, "request_id", c.GetString("requestID"), "err", err)
	util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "internal error")
}

// findOwned loads one row of dest's table that belongs to userID. Missing and
// foreign rows both answer 404.
func findOwned(c *gin.Context, db *gorm.DB, dest interface{}, id, userID uint, what string) bool {
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(c, what+" not found")
		} else {
			serverError(c, "load "+what, err)
		}
		return false
	}
	return true
}

// ownedCategory checks that categoryID is one of userID's categories.
func ownedCategory(db *gorm.DB, categoryID, userID uint) (bool, error) {
	var count int64
	err := db.Model(&models.Category{}).
		Where("id = ? AND user_id = ?", categoryID, userID).
		Count(&count).Error
	return count > 0, err
}

// parseAmountField reads an optional JSON amount given as a string ("12.50",
// "12,50") or a number. present is false when omitted or null.
func parseAmountField(raw json.RawMessage) (present bool, amount decimal.Decimal, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return false, decimal.Zero, nil
	}
	amount, err = util.ParseAmount(strings.Trim(string(raw), `"`))
	return true, amount, err
}
