package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"finly/internal/filter"
	"finly/internal/models"
	"finly/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TransactionHandler serves /transactions/.
type TransactionHandler struct {
	DB *gorm.DB
}

func NewTransactionHandler(db *gorm.DB) *TransactionHandler {
	return &TransactionHandler{DB: db}
}

// transactionReq is shared by create, replace and partial update. Pointer fields
// are nil when omitted; Category keeps its raw form so null and absent differ.
type transactionReq struct {
	Amount      json.RawMessage  `json:"amount"`
	Type        *string          `json:"type"`
	Category    json.RawMessage  `json:"category"`
	Date        *string          `json:"date"`
	Description *string          `json:"description"`
}

type transactionResp struct {
	ID           uint      `json:"id"`
	User         uint      `json:"user"`
	Amount       string    `json:"amount"`
	Type         string    `json:"type"`
	Category     *uint     `json:"category"`
	CategoryName string    `json:"category_name,omitempty"`
	CategoryIcon string    `json:"category_icon,omitempty"`
	Date         string    `json:"date"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
}

func toTransactionResp(tx *models.Transaction) transactionResp {
	r := transactionResp{
		ID:          tx.ID,
		User:        tx.UserID,
		Amount:      util.FormatMoney(tx.Amount),
		Type:        tx.Type,
		Category:    tx.CategoryID,
		Date:        tx.Date.Format(util.DateLayout),
		Description: tx.Description,
		CreatedAt:   tx.CreatedAt,
	}
	if tx.Category != nil {
		r.CategoryName = tx.Category.Name
		r.CategoryIcon = tx.Category.Icon
	}
	return r
}

func toTransactionResps(txs []models.Transaction) []transactionResp {
	items := make([]transactionResp, 0, len(txs))
	for i := range txs {
		items = append(items, toTransactionResp(&txs[i]))
	}
	return items
}

var errCategoryRef = errors.New("category must be an integer id or null")

// parseCategoryRef reads an optional category reference. present is false when the
// field was omitted; id is nil for an explicit null.
func parseCategoryRef(raw json.RawMessage) (present bool, id *uint, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false, nil, nil
	}
	if bytes.Equal(raw, []byte("null")) {
		return true, nil, nil
	}
	s := strings.Trim(string(raw), `"`)
	if s == "" {
		return true, nil, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v == 0 {
		return true, nil, errCategoryRef
	}
	cid := uint(v)
	return true, &cid, nil
}

// applyTransactionReq validates req and copies it onto tx. With partial set,
// omitted fields keep their current value; otherwise amount and type are required
// and omitted optional fields are cleared.
func (h *TransactionHandler) applyTransactionReq(c *gin.Context, userID uint, req *transactionReq, tx *models.Transaction, partial bool) bool {
	present, amount, err := parseAmountField(req.Amount)
	if err != nil {
		util.BadRequest(c, err.Error())
		return false
	}
	if present {
		tx.Amount = amount
	} else if !partial {
		util.BadRequest(c, "amount is required")
		return false
	}

	if req.Type != nil {
		if !models.ValidType(*req.Type) {
			util.BadRequest(c, fmt.Sprintf("type must be %q or %q", models.TypeIncome, models.TypeExpense))
			return false
		}
		tx.Type = *req.Type
	} else if !partial {
		util.BadRequest(c, "type is required")
		return false
	}

	present, cid, err := parseCategoryRef(req.Category)
	if err != nil {
		util.BadRequest(c, err.Error())
		return false
	}
	if present || !partial {
		if cid != nil {
			ok, err := ownedCategory(h.DB, *cid, userID)
			if err != nil {
				serverError(c, "check category", err)
				return false
			}
			if !ok {
				util.BadRequest(c, "category not found")
				return false
			}
		}
		tx.CategoryID = cid
		tx.Category = nil
	}

	switch {
	case req.Date != nil:
		d, err := util.ParseDate(strings.TrimSpace(*req.Date))
		if err != nil {
			util.BadRequest(c, "date must be YYYY-MM-DD")
			return false
		}
		tx.Date = d
	case !partial && tx.Date.IsZero():
		tx.Date = util.Today()
	}

	if req.Description != nil {
		tx.Description = strings.TrimSpace(*req.Description)
	} else if !partial {
		tx.Description = ""
	}
	return true
}

func (h *TransactionHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req transactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, "invalid parameters")
		return
	}

	tx := models.Transaction{UserID: user.ID}
	if !h.applyTransactionReq(c, user.ID, &req, &tx, false) {
		return
	}
	if err := h.DB.Create(&tx).Error; err != nil {
		serverError(c, "create transaction", err)
		return
	}
	if err := h.DB.Preload("Category").First(&tx, tx.ID).Error; err != nil {
		serverError(c, "reload transaction", err)
		return
	}

	util.Created(c, util.Response{
		"transaction": toTransactionResp(&tx),
	})
}

// List returns the caller's transactions in default order. The optional user
// filter may only name the caller (by id or username).
func (h *TransactionHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if u := strings.TrimSpace(c.Query("user")); u != "" {
		if u != strconv.FormatUint(uint64(user.ID), 10) && !strings.EqualFold(u, user.Username) {
			util.Error(c, http.StatusForbidden, util.CodeForbidden, "you can only list your own transactions")
			return
		}
	}

	txs, err := filter.Filter{UserID: user.ID}.Find(h.DB)
	if err != nil {
		serverError(c, "list transactions", err)
		return
	}

	util.Success(c, util.Response{
		"items": toTransactionResps(txs),
		"count": len(txs),
	})
}

func (h *TransactionHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var tx models.Transaction
	if !findOwned(c, h.DB.Preload("Category"), &tx, id, user.ID, "transaction") {
		return
	}
	util.Success(c, util.Response{
		"transaction": toTransactionResp(&tx),
	})
}

// Update serves PUT (full) and PATCH (partial).
func (h *TransactionHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req transactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, "invalid parameters")
		return
	}

	var tx models.Transaction
	if !findOwned(c, h.DB, &tx, id, user.ID, "transaction") {
		return
	}
	partial := c.Request.Method == http.MethodPatch
	if !partial {
		tx.Date = time.Time{}
	}
	if !h.applyTransactionReq(c, user.ID, &req, &tx, partial) {
		return
	}

	// created_at is immutable
	if err := h.DB.Model(&tx).
		Select("amount", "type", "category_id", "date", "description").
		Updates(&tx).Error; err != nil {
		serverError(c, "update transaction", err)
		return
	}
	if err := h.DB.Preload("Category").First(&tx, tx.ID).Error; err != nil {
		serverError(c, "reload transaction", err)
		return
	}

	util.Success(c, util.Response{
		"transaction": toTransactionResp(&tx),
	})
}

func (h *TransactionHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	res := h.DB.Where("id = ? AND user_id = ?", id, user.ID).Delete(&models.Transaction{})
	if res.Error != nil {
		serverError(c, "delete transaction", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		util.NotFound(c, "transaction not found")
		return
	}

	util.Success(c, util.Response{
		"message": "deleted",
	})
}
