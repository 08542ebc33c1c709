package router

import (
	"log/slog"

	"finly/internal/config"
	"finly/internal/handler"
	"finly/internal/middleware"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter wires the gin engine: public auth routes plus the authenticated API.
func SetupRouter(cfg *config.Config, db *gorm.DB, logger *slog.Logger) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(logger), gin.Recovery())

	authHandler := handler.NewAuthHandler(db, cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpireHours, cfg.Security.BcryptCost)
	r.POST("/register/", authHandler.Register)
	r.POST("/login/", authHandler.Login)

	protected := r.Group("")
	protected.Use(
		middleware.AuthMiddleware(cfg.JWT.Secret, db),
		middleware.AuditMiddleware(db, cfg.Security.EncryptionKey),
	)

	protected.GET("/me/", handler.GetMe)
	protected.PUT("/me/", handler.UpdateProfile(db))
	protected.POST("/me/password/", handler.ChangePassword(db, cfg.Security.BcryptCost))
	protected.GET("/users/", handler.ListUsers)
	protected.GET("/users/:id/", handler.GetUser)

	txHandler := handler.NewTransactionHandler(db)
	protected.GET("/transactions/", txHandler.List)
	protected.POST("/transactions/", txHandler.Create)
	protected.GET("/transactions/:id/", txHandler.Get)
	protected.PUT("/transactions/:id/", txHandler.Update)
	protected.PATCH("/transactions/:id/", txHandler.Update)
	protected.DELETE("/transactions/:id/", txHandler.Delete)

	catHandler := handler.NewCategoryHandler(db)
	protected.GET("/categories/", catHandler.List)
	protected.POST("/categories/", catHandler.Create)
	protected.GET("/categories/:id/", catHandler.Get)
	protected.PUT("/categories/:id/", catHandler.Update)
	protected.PATCH("/categories/:id/", catHandler.Update)
	protected.DELETE("/categories/:id/", catHandler.Delete)

	budgetHandler := handler.NewBudgetHandler(db)
	protected.GET("/budgets/", budgetHandler.List)
	protected.POST("/budgets/", budgetHandler.Create)
	protected.GET("/budgets/summary/", budgetHandler.Summary)
	protected.GET("/budgets/:id/", budgetHandler.Get)
	protected.PUT("/budgets/:id/", budgetHandler.Update)
	protected.PATCH("/budgets/:id/", budgetHandler.Update)
	protected.DELETE("/budgets/:id/", budgetHandler.Delete)

	reportHandler := handler.NewReportHandler(db, cfg.Export.PDFFontPath)
	protected.GET("/statistics/", reportHandler.Statistics)
	protected.GET("/export-csv/", reportHandler.ExportSummaryCSV)
	protected.GET("/export-pdf/", reportHandler.ExportSummaryPDF)
	protected.GET("/export-xlsx/", reportHandler.ExportSummaryXLSX)
	protected.GET("/transaction-list/", reportHandler.TransactionList)
	protected.GET("/transaction-list/export-csv/", reportHandler.ExportListCSV)
	protected.GET("/transaction-list/export-pdf/", reportHandler.ExportListPDF)
	protected.GET("/category-list/", reportHandler.CategoryList)

	backupHandler := handler.NewBackupHandler(db, cfg.Security.EncryptionKey, cfg.Backup.Dir)
	protected.POST("/backups/", backupHandler.CreateBackup)
	protected.GET("/backups/", backupHandler.ListBackups)
	protected.GET("/backups/:id/download/", backupHandler.DownloadBackup)
	protected.POST("/backups/:id/restore/", backupHandler.RestoreBackup)
	protected.DELETE("/backups/:id/", backupHandler.DeleteBackup)

	logHandler := handler.NewLogHandler(db, cfg.Security.EncryptionKey)
	protected.GET("/logs/", logHandler.ListLogs)

	return r
}
