package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"finly/internal/models"
	"finly/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// backupVersion is bumped whenever backupData changes shape.
const backupVersion = 1

// BackupHandler serves /backups/: encrypted per-user snapshots of categories,
// transactions and budgets.
type BackupHandler struct {
	DB         *gorm.DB
	EncryptKey string
	BackupDir  string
}

func NewBackupHandler(db *gorm.DB, encryptKey, backupDir string) *BackupHandler {
	return &BackupHandler{
		DB:         db,
		EncryptKey: encryptKey,
		BackupDir:  backupDir,
	}
}

type backupCategory struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

type backupTransaction struct {
	CategoryID  *uint           `json:"category_id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
}

type backupBudget struct {
	CategoryID *uint           `json:"category_id"`
	Amount     decimal.Decimal `json:"amount"`
	Month      string          `json:"month"`
}

// backupData is the plaintext written (encrypted) to the backup file.
type backupData struct {
	Version      int                 `json:"version"`
	UserID       uint                `json:"user_id"`
	Created      time.Time           `json:"created"`
	Categories   []backupCategory    `json:"categories"`
	Transactions []backupTransaction `json:"transactions"`
	Budgets      []backupBudget      `json:"budgets"`
}

func (h *BackupHandler) snapshot(userID uint) (*backupData, error) {
	var cats []models.Category
	if err := h.DB.Where("user_id = ?", userID).Order("id ASC").Find(&cats).Error; err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	var txs []models.Transaction
	if err := h.DB.Where("user_id = ?", userID).Order("date ASC, id ASC").Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	var budgets []models.Budget
	if err := h.DB.Where("user_id = ?", userID).Order("month ASC, id ASC").Find(&budgets).Error; err != nil {
		return nil, fmt.Errorf("load budgets: %w", err)
	}

	data := &backupData{
		Version:      backupVersion,
		UserID:       userID,
		Created:      time.Now().UTC(),
		Categories:   make([]backupCategory, 0, len(cats)),
		Transactions: make([]backupTransaction, 0, len(txs)),
		Budgets:      make([]backupBudget, 0, len(budgets)),
	}
	for _, c := range cats {
		data.Categories = append(data.Categories, backupCategory{ID: c.ID, Name: c.Name, Icon: c.Icon})
	}
	for _, t := range txs {
		data.Transactions = append(data.Transactions, backupTransaction{
			CategoryID:  t.CategoryID,
			Amount:      t.Amount,
			Type:        t.Type,
			Description: t.Description,
			Date:        t.Date.Format(util.DateLayout),
			CreatedAt:   t.CreatedAt,
		})
	}
	for _, b := range budgets {
		data.Budgets = append(data.Budgets, backupBudget{
			CategoryID: b.CategoryID,
			Amount:     b.Amount,
			Month:      b.Month.Format(util.DateLayout),
		})
	}
	return data, nil
}

func backupItem(b *models.Backup) gin.H {
	return gin.H{
		"id":         b.ID,
		"file_name":  b.FileName,
		"size":       b.Size,
		"created_at": b.CreatedAt,
	}
}

// CreateBackup writes an encrypted snapshot of the caller's data.
func (h *BackupHandler) CreateBackup(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	data, err := h.snapshot(user.ID)
	if err != nil {
		serverError(c, "snapshot", err)
		return
	}
	raw, err := json.Marshal(data)
	if err != nil {
		serverError(c, "marshal backup", err)
		return
	}
	enc, err := util.EncryptAES(h.EncryptKey, raw)
	if err != nil {
		serverError(c, "encrypt backup", err)
		return
	}

	if err := os.MkdirAll(h.BackupDir, 0o755); err != nil {
		serverError(c, "create backup dir", err)
		return
	}

	fileName := fmt.Sprintf("backup-%d-%s.bin", user.ID, uuid.New().String())
	filePath := filepath.Join(h.BackupDir, fileName)
	if err := os.WriteFile(filePath, enc, 0o600); err != nil {
		serverError(c, "write backup file", err)
		return
	}

	backup := models.Backup{
		UserID:   user.ID,
		FileName: fileName,
		FilePath: filePath,
		Size:     int64(len(enc)),
	}
	if err := h.DB.Create(&backup).Error; err != nil {
		_ = os.Remove(filePath)
		serverError(c, "save backup record", err)
		return
	}

	util.Created(c, util.Response{
		"backup": backupItem(&backup),
	})
}

// ListBackups lists the caller's backups, newest first.
func (h *BackupHandler) ListBackups(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var list []models.Backup
	if err := h.DB.
		Where("user_id = ?", user.ID).
		Order("created_at DESC, id DESC").
		Find(&list).Error; err != nil {
		serverError(c, "list backups", err)
		return
	}

	items := make([]gin.H, 0, len(list))
	for i := range list {
		items = append(items, backupItem(&list[i]))
	}
	util.Success(c, util.Response{
		"items": items,
	})
}

func (h *BackupHandler) ownedBackup(c *gin.Context, userID uint) (*models.Backup, bool) {
	id, ok := pathID(c)
	if !ok {
		return nil, false
	}
	var backup models.Backup
	if !findOwned(c, h.DB, &backup, id, userID, "backup") {
		return nil, false
	}
	return &backup, true
}

// DownloadBackup streams the encrypted file.
func (h *BackupHandler) DownloadBackup(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	backup, ok := h.ownedBackup(c, user.ID)
	if !ok {
		return
	}

	c.Header("Content-Type", "application/octet-stream")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", backup.FileName))
	c.File(backup.FilePath)
}

// DeleteBackup removes the file and then the record.
func (h *BackupHandler) DeleteBackup(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	backup, ok := h.ownedBackup(c, user.ID)
	if !ok {
		return
	}

	if err := os.Remove(backup.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		serverError(c, "remove backup file", err)
		return
	}
	if err := h.DB.Delete(backup).Error; err != nil {
		serverError(c, "delete backup record", err)
		return
	}

	util.Success(c, util.Response{
		"message": "deleted",
	})
}

// RestoreBackup replaces the caller's categories, transactions and budgets with
// the backup's content. Category ids are reassigned and references remapped.
func (h *BackupHandler) RestoreBackup(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	backup, ok := h.ownedBackup(c, user.ID)
	if !ok {
		return
	}

	encData, err := os.ReadFile(backup.FilePath)
	if err != nil {
		serverError(c, "read backup file", err)
		return
	}
	raw, err := util.DecryptAES(h.EncryptKey, encData)
	if err != nil {
		serverError(c, "decrypt backup", err)
		return
	}
	var data backupData
	if err := json.Unmarshal(raw, &data); err != nil {
		serverError(c, "parse backup", err)
		return
	}
	if data.UserID != 0 && data.UserID != user.ID {
		util.BadRequest(c, "backup belongs to another user")
		return
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		return restoreSnapshot(tx, user.ID, &data)
	})
	if err != nil {
		serverError(c, "restore backup", err)
		return
	}

	util.Success(c, util.Response{
		"message":            "restored",
		"categories_count":   len(data.Categories),
		"transactions_count": len(data.Transactions),
		"budgets_count":      len(data.Budgets),
	})
}

func restoreSnapshot(tx *gorm.DB, userID uint, data *backupData) error {
	for _, m := range []interface{}{&models.Transaction{}, &models.Budget{}, &models.Category{}} {
		if err := tx.Where("user_id = ?", userID).Delete(m).Error; err != nil {
			return fmt.Errorf("clear %T: %w", m, err)
		}
	}

	idMap := make(map[uint]uint, len(data.Categories))
	for _, bc := range data.Categories {
		cat := models.Category{UserID: userID, Name: bc.Name, Icon: bc.Icon}
		if err := tx.Create(&cat).Error; err != nil {
			return fmt.Errorf("restore category: %w", err)
		}
		idMap[bc.ID] = cat.ID
	}
	remap := func(old *uint) *uint {
		if old == nil {
			return nil
		}
		id, ok := idMap[*old]
		if !ok {
			return nil
		}
		return &id
	}

	for _, bt := range data.Transactions {
		d, err := util.ParseDate(bt.Date)
		if err != nil {
			return fmt.Errorf("restore transaction date: %w", err)
		}
		t := models.Transaction{
			UserID:      userID,
			CategoryID:  remap(bt.CategoryID),
			Amount:      bt.Amount,
			Type:        bt.Type,
			Description: bt.Description,
			Date:        d,
			CreatedAt:   bt.CreatedAt,
		}
		if !models.ValidType(t.Type) {
			return fmt.Errorf("restore transaction: invalid type %q", t.Type)
		}
		if err := tx.Create(&t).Error; err != nil {
			return fmt.Errorf("restore transaction: %w", err)
		}
	}

	for _, bb := range data.Budgets {
		m, err := util.ParseDate(bb.Month)
		if err != nil {
			return fmt.Errorf("restore budget month: %w", err)
		}
		b := models.Budget{UserID: userID, CategoryID: remap(bb.CategoryID), Amount: bb.Amount, Month: m}
		if err := tx.Create(&b).Error; err != nil {
			return fmt.Errorf("restore budget: %w", err)
		}
	}
	return nil
}
