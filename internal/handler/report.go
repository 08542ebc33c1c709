package handler

import (
	"errors"
	"strings"

	"finly/internal/filter"
	"finly/internal/models"
	"finly/internal/stats"
	"finly/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReportHandler serves statistics, the filtered transaction list, the category
// list and every export.
type ReportHandler struct {
	DB          *gorm.DB
	PDFFontPath string
}

func NewReportHandler(db *gorm.DB, pdfFontPath string) *ReportHandler {
	return &ReportHandler{DB: db, PDFFontPath: pdfFontPath}
}

// filtered resolves the query string for user and loads the matching rows. Invalid
// parameters answer 400 and return false.
func (h *ReportHandler) filtered(c *gin.Context, user *models.User, mode filter.Mode) ([]models.Transaction, bool) {
	f, err := filter.Resolve(user.ID, filter.ParamsFromQuery(c.Request.URL.Query()), mode)
	if err != nil {
		if errors.Is(err, filter.ErrInvalidMonth) || errors.Is(err, filter.ErrInvalidDate) {
			util.BadRequest(c, err.Error())
		} else {
			serverError(c, "resolve filter", err)
		}
		return nil, false
	}
	txs, err := f.Find(h.DB)
	if err != nil {
		serverError(c, "load transactions", err)
		return nil, false
	}
	return txs, true
}

func summaryResp(s stats.Summary) gin.H {
	return gin.H{
		"income":  util.FormatMoney(s.Income),
		"expense": util.FormatMoney(s.Expense),
		"balance": util.FormatMoney(s.Balance),
	}
}

func moneyPtr(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := util.FormatMoney(*d)
	return &s
}

// Statistics serves GET /statistics/.
func (h *ReportHandler) Statistics(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	txs, ok := h.filtered(c, user, filter.Strict)
	if !ok {
		return
	}

	totals := stats.Totals(txs)

	recent := summaryResp(stats.Recent(txs, util.Today()))
	recent["days"] = stats.RecentDays

	byCategory := gin.H{}
	for name, ct := range stats.ByCategory(txs) {
		byCategory[name] = gin.H{
			"income":  util.FormatMoney(ct.Income),
			"expense": util.FormatMoney(ct.Expense),
			"icon":    ct.Icon,
		}
	}

	byMonth := gin.H{}
	for month, mt := range stats.ByMonth(txs) {
		byMonth[month] = gin.H{
			"income":  util.FormatMoney(mt.Income),
			"expense": util.FormatMoney(mt.Expense),
		}
	}

	top := stats.TopExpenseCategory(txs)

	util.Success(c, util.Response{
		"balance":       util.FormatMoney(totals.Balance),
		"total_income":  util.FormatMoney(totals.Income),
		"total_expense": util.FormatMoney(totals.Expense),
		"recent":        recent,
		"by_category":   byCategory,
		"by_month":      byMonth,
		"top_expense_category": gin.H{
			"name":   top.Name,
			"amount": moneyPtr(top.Amount),
			"icon":   top.Icon,
		},
		"count": len(txs),
	})
}

// TransactionList serves GET /transaction-list/. Malformed dates are ignored here.
func (h *ReportHandler) TransactionList(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	txs, ok := h.filtered(c, user, filter.Lenient)
	if !ok {
		return
	}

	util.Success(c, util.Response{
		"items":  toTransactionResps(txs),
		"count":  len(txs),
		"totals": summaryResp(stats.Totals(txs)),
	})
}

// CategoryList serves GET /category-list/.
func (h *ReportHandler) CategoryList(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	txs, err := filter.Filter{UserID: user.ID}.Find(h.DB)
	if err != nil {
		serverError(c, "load transactions", err)
		return
	}

	rows, err := stats.CategoryList(txs,
		strings.TrimSpace(c.Query("order_by")),
		strings.ToLower(strings.TrimSpace(c.Query("direction"))))
	if err != nil {
		if errors.Is(err, stats.ErrInvalidSort) {
			util.BadRequest(c, err.Error())
		} else {
			serverError(c, "category list", err)
		}
		return
	}

	items := make([]gin.H, 0, len(rows))
	for _, r := range rows {
		items = append(items, gin.H{
			"id":            r.ID,
			"name":          r.Name,
			"icon":          r.Icon,
			"total_expense": util.FormatMoney(r.TotalExpense),
			"total_income":  util.FormatMoney(r.TotalIncome),
		})
	}
	util.Success(c, util.Response{
		"items": items,
		"count": len(items),
	})
}
