package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"finly/internal/models"
	"finly/internal/stats"
	"finly/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// BudgetHandler serves /budgets/.
type BudgetHandler struct {
	DB *gorm.DB
}

func NewBudgetHandler(db *gorm.DB) *BudgetHandler {
	return &BudgetHandler{DB: db}
}

type budgetReq struct {
	Category json.RawMessage  `json:"category"`
	Amount   json.RawMessage  `json:"amount"`
	Month    *string          `json:"month"`
}

func budgetResp(b *models.Budget) gin.H {
	resp := gin.H{
		"id":            b.ID,
		"category":      b.CategoryID,
		"category_name": nil,
		"amount":        util.FormatMoney(b.Amount),
		"month":         b.Month.Format(util.DateLayout),
	}
	if b.Category != nil {
		resp["category_name"] = b.Category.Name
	}
	return resp
}

// parseBudgetMonth accepts a full date or YYYY-MM (stored as the first of the month).
func parseBudgetMonth(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if d, err := util.ParseDate(s); err == nil {
		return d, true
	}
	if m, err := util.ParseMonth(s); err == nil {
		return m, true
	}
	return time.Time{}, false
}

func (h *BudgetHandler) applyBudgetReq(c *gin.Context, userID uint, req *budgetReq, b *models.Budget, partial bool) bool {
	present, amount, err := parseAmountField(req.Amount)
	if err != nil {
		util.BadRequest(c, err.Error())
		return false
	}
	if present {
		b.Amount = amount
	} else if !partial {
		util.BadRequest(c, "amount is required")
		return false
	}

	if req.Month != nil {
		m, ok := parseBudgetMonth(*req.Month)
		if !ok {
			util.BadRequest(c, "month must be YYYY-MM-DD or YYYY-MM")
			return false
		}
		b.Month = m
	} else if !partial {
		util.BadRequest(c, "month is required")
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
		b.CategoryID = cid
		b.Category = nil
	}
	return true
}

func (h *BudgetHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req budgetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, "invalid parameters")
		return
	}

	b := models.Budget{UserID: user.ID}
	if !h.applyBudgetReq(c, user.ID, &req, &b, false) {
		return
	}
	if err := h.DB.Create(&b).Error; err != nil {
		serverError(c, "create budget", err)
		return
	}
	if err := h.DB.Preload("Category").First(&b, b.ID).Error; err != nil {
		serverError(c, "reload budget", err)
		return
	}

	util.Created(c, util.Response{
		"budget": budgetResp(&b),
	})
}

func (h *BudgetHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var budgets []models.Budget
	if err := h.DB.Preload("Category").
		Where("user_id = ?", user.ID).
		Order("month DESC, id ASC").
		Find(&budgets).Error; err != nil {
		serverError(c, "list budgets", err)
		return
	}

	items := make([]gin.H, 0, len(budgets))
	for i := range budgets {
		items = append(items, budgetResp(&budgets[i]))
	}
	util.Success(c, util.Response{
		"items": items,
		"count": len(items),
	})
}

func (h *BudgetHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var b models.Budget
	if !findOwned(c, h.DB.Preload("Category"), &b, id, user.ID, "budget") {
		return
	}
	util.Success(c, util.Response{
		"budget": budgetResp(&b),
	})
}

// Update serves PUT (full) and PATCH (partial).
func (h *BudgetHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req budgetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, "invalid parameters")
		return
	}

	var b models.Budget
	if !findOwned(c, h.DB, &b, id, user.ID, "budget") {
		return
	}
	if !h.applyBudgetReq(c, user.ID, &req, &b, c.Request.Method == http.MethodPatch) {
		return
	}
	if err := h.DB.Model(&b).Select("category_id", "amount", "month").Updates(&b).Error; err != nil {
		serverError(c, "update budget", err)
		return
	}
	if err := h.DB.Preload("Category").First(&b, b.ID).Error; err != nil {
		serverError(c, "reload budget", err)
		return
	}

	util.Success(c, util.Response{
		"budget": budgetResp(&b),
	})
}

func (h *BudgetHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	res := h.DB.Where("id = ? AND user_id = ?", id, user.ID).Delete(&models.Budget{})
	if res.Error != nil {
		serverError(c, "delete budget", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		util.NotFound(c, "budget not found")
		return
	}

	util.Success(c, util.Response{
		"message": "deleted",
	})
}

// Summary compares each budget with the expenses of its category and month.
func (h *BudgetHandler) Summary(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var budgets []models.Budget
	if err := h.DB.Preload("Category").
		Where("user_id = ?", user.ID).
		Order("month DESC, id ASC").
		Find(&budgets).Error; err != nil {
		serverError(c, "list budgets", err)
		return
	}

	var expenses []models.Transaction
	if from, to, ok := stats.BudgetWindow(budgets); ok {
		if err := h.DB.Where("user_id = ? AND type = ? AND date >= ? AND date <= ?",
			user.ID, models.TypeExpense, from, to).
			Find(&expenses).Error; err != nil {
			serverError(c, "load expenses", err)
			return
		}
	}

	rows := stats.BudgetSummary(budgets, expenses)
	items := make([]gin.H, 0, len(rows))
	for _, r := range rows {
		items = append(items, gin.H{
			"budget_id":   r.BudgetID,
			"category_id": r.CategoryID,
			"category":    r.Category,
			"month":       r.Month.Format(util.DateLayout),
			"start":       r.Start.Format(util.DateLayout),
			"end":         r.End.Format(util.DateLayout),
			"budgeted":    util.FormatMoney(r.Budgeted),
			"spent":       util.FormatMoney(r.Spent),
			"remaining":   util.FormatMoney(r.Remaining),
			"over_budget": r.OverBudget,
		})
	}

	util.Success(c, util.Response{
		"items": items,
		"count": len(items),
	})
}
