package handler

import (
	"net/http"
	"strings"

	"finly/internal/models"
	"finly/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const maxIconLen = 50

// CategoryHandler serves /categories/.
type CategoryHandler struct {
	DB *gorm.DB
}

func NewCategoryHandler(db *gorm.DB) *CategoryHandler {
	return &CategoryHandler{DB: db}
}

type categoryReq struct {
	Name *string `json:"name"`
	Icon *string `json:"icon"`
}

func categoryResp(cat *models.Category) gin.H {
	return gin.H{
		"id":   cat.ID,
		"name": cat.Name,
		"icon": cat.Icon,
	}
}

func applyCategoryReq(c *gin.Context, req *categoryReq, cat *models.Category, partial bool) bool {
	if req.Name != nil {
		if err := util.ValidateCategoryName(*req.Name); err != nil {
			util.BadRequest(c, err.Error())
			return false
		}
		cat.Name = strings.TrimSpace(*req.Name)
	} else if !partial {
		util.BadRequest(c, "name is required")
		return false
	}

	if req.Icon != nil {
		icon := strings.TrimSpace(*req.Icon)
		if len([]rune(icon)) > maxIconLen {
			util.BadRequest(c, "icon too long, max 50 characters")
			return false
		}
		cat.Icon = icon
	} else if !partial {
		cat.Icon = ""
	}
	return true
}

func (h *CategoryHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req categoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, "invalid parameters")
		return
	}

	cat := models.Category{UserID: user.ID}
	if !applyCategoryReq(c, &req, &cat, false) {
		return
	}
	if err := h.DB.Create(&cat).Error; err != nil {
		serverError(c, "create category", err)
		return
	}

	util.Created(c, util.Response{
		"category": categoryResp(&cat),
	})
}

func (h *CategoryHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var cats []models.Category
	if err := h.DB.Where("user_id = ?", user.ID).
		Order("name ASC, id ASC").
		Find(&cats).Error; err != nil {
		serverError(c, "list categories", err)
		return
	}

	items := make([]gin.H, 0, len(cats))
	for i := range cats {
		items = append(items, categoryResp(&cats[i]))
	}
	util.Success(c, util.Response{
		"items": items,
		"count": len(items),
	})
}

func (h *CategoryHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var cat models.Category
	if !findOwned(c, h.DB, &cat, id, user.ID, "category") {
		return
	}
	util.Success(c, util.Response{
		"category": categoryResp(&cat),
	})
}

// Update serves PUT (full) and PATCH (partial).
func (h *CategoryHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req categoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, "invalid parameters")
		return
	}

	var cat models.Category
	if !findOwned(c, h.DB, &cat, id, user.ID, "category") {
		return
	}
	if !applyCategoryReq(c, &req, &cat, c.Request.Method == http.MethodPatch) {
		return
	}
	if err := h.DB.Model(&cat).Select("name", "icon").Updates(&cat).Error; err != nil {
		serverError(c, "update category", err)
		return
	}

	util.Success(c, util.Response{
		"category": categoryResp(&cat),
	})
}

// Delete removes the category. Transactions and budgets that used it stay and
// lose their category reference.
func (h *CategoryHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var cat models.Category
	if !findOwned(c, h.DB, &cat, id, user.ID, "category") {
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Transaction{}).
			Where("user_id = ? AND category_id = ?", user.ID, cat.ID).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Budget{}).
			Where("user_id = ? AND category_id = ?", user.ID, cat.ID).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&cat).Error
	})
	if err != nil {
		serverError(c, "delete category", err)
		return
	}

	util.Success(c, util.Response{
		"message": "deleted",
	})
}
