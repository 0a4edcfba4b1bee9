package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/seat-desk-api/internal/app"
	"github.com/noah-isme/seat-desk-api/internal/handler"
	"github.com/noah-isme/seat-desk-api/internal/middleware"
	"github.com/noah-isme/seat-desk-api/internal/models"
	"github.com/noah-isme/seat-desk-api/pkg/config"
	"github.com/noah-isme/seat-desk-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/seat-desk-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/seat-desk-api/pkg/middleware/requestid"
)

// New builds the gin engine with every route of the desk API.
func New(a *app.App) *gin.Engine {
	cfg := a.Config
	log := a.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(a.Metrics, "/metrics"))

	metricsHandler := handler.NewMetricsHandler(a.Metrics)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(a.Auth)
	studentHandler := handler.NewStudentHandler(a.Seats, a.Attachments)
	seatHandler := handler.NewSeatHandler(a.Seats)
	admissionHandler := handler.NewAdmissionHandler(a.Admissions)
	deskHandler := handler.NewDeskHandler(a.Wifi, a.Announcements)
	transactionHandler := handler.NewTransactionHandler(a.Transactions, a.Exports)
	exportHandler := handler.NewExportHandler(a.Exports)
	backupHandler := handler.NewBackupHandler(a.Backups, a.Seats)
	attachmentHandler := handler.NewAttachmentHandler(a.Attachments)
	portalHandler := handler.NewPortalHandler(a.Portal)
	dashboardHandler := handler.NewDashboardHandler(a.Dashboard)

	api := r.Group(cfg.APIPrefix)

	// public
	api.POST("/auth/login", middleware.RateLimit(a.Limiter, cfg.RateLimit.LoginCapacity, log), authHandler.Login)
	api.POST("/admissions", admissionHandler.Submit)
	api.GET("/pricing", seatHandler.Catalog)
	api.GET("/pricing/quote", seatHandler.Quote)
	api.GET("/attachments/:student_id/:kind", attachmentHandler.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(a.Auth))

	member := secured.Group("")
	member.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleStudent))
	member.GET("/me", portalHandler.Me)
	member.POST("/auth/change-password", authHandler.ChangePassword)
	member.GET("/wifi", deskHandler.ListWifi)
	member.GET("/announcement", deskHandler.GetAnnouncement)
	member.GET("/transactions", transactionHandler.List)
	member.GET("/transactions/:id", transactionHandler.Get)
	member.GET("/transactions/:id/receipt", transactionHandler.Receipt)

	secured.GET("/students/:id", middleware.RBAC(string(models.RoleAdmin), "SELF"), studentHandler.Get)

	admin := secured.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))

	admin.GET("/seats", seatHandler.Status)
	admin.GET("/seats/:number/availability", seatHandler.Availability)

	admin.GET("/students", studentHandler.List)
	admin.GET("/students/expiring", studentHandler.Expiring)
	admin.POST("/students", studentHandler.Create)
	admin.PUT("/students/:id", studentHandler.Update)
	admin.PATCH("/students/:id/status", studentHandler.SetActive)
	admin.DELETE("/students/:id", studentHandler.Delete)

	admin.GET("/admissions", admissionHandler.List)
	admin.POST("/admissions/:id/approve", admissionHandler.Approve)
	admin.POST("/admissions/:id/reject", admissionHandler.Reject)
	admin.DELETE("/admissions/:id", admissionHandler.Delete)

	admin.POST("/wifi", deskHandler.CreateWifi)
	admin.DELETE("/wifi/:id", deskHandler.DeleteWifi)
	admin.PUT("/announcement", deskHandler.SetAnnouncement)

	admin.GET("/dashboard", dashboardHandler.Summary)
	admin.GET("/system/metrics", metricsHandler.System)

	admin.GET("/export/students.csv", exportHandler.StudentsCSV)
	admin.GET("/export/students.pdf", exportHandler.StudentsPDF)
	admin.GET("/export/transactions.csv", exportHandler.TransactionsCSV)

	admin.GET("/backup", backupHandler.Export)
	admin.POST("/backup", backupHandler.Import)
	admin.POST("/maintenance/cleanup", backupHandler.Cleanup)

	return r
}
