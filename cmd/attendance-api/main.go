package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/shikshalaya/attendance-api/api/swagger"
	"github.com/shikshalaya/attendance-api/internal/handler"
	"github.com/shikshalaya/attendance-api/internal/middleware"
	"github.com/shikshalaya/attendance-api/internal/models"
	"github.com/shikshalaya/attendance-api/internal/repository"
	"github.com/shikshalaya/attendance-api/internal/service"
	"github.com/shikshalaya/attendance-api/pkg/cache"
	"github.com/shikshalaya/attendance-api/pkg/calendar"
	"github.com/shikshalaya/attendance-api/pkg/config"
	"github.com/shikshalaya/attendance-api/pkg/database"
	"github.com/shikshalaya/attendance-api/pkg/logger"
	corsmiddleware "github.com/shikshalaya/attendance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/shikshalaya/attendance-api/pkg/middleware/requestid"
	"github.com/shikshalaya/attendance-api/pkg/sms"
)

// @title Attendance API
// @version 1.0.0
// @description Attendance tracking and correction service
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	attendanceRepo := repository.NewAttendanceRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	userRepo := repository.NewUserRepository(db)

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Attendance.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, summary caching disabled", "error", err)
			cacheSvc = service.NewCacheService(nil, metricsSvc, cfg.Attendance.SummaryCacheTTL, logr, false)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close()
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Attendance.SummaryCacheTTL, logr, true)
		}
	} else {
		cacheSvc = service.NewCacheService(nil, metricsSvc, cfg.Attendance.SummaryCacheTTL, logr, false)
	}

	validate := validator.New()
	policy := service.NewCorrectionPolicy(cfg.Attendance.CorrectionWindow)

	attendanceSvc := newAttendanceService(cfg, attendanceRepo, policy, validate, logr)
	reportSvc := service.NewReportService(attendanceRepo, cacheSvc, metricsSvc, logr)
	alertSvc := newAlertService(cfg, attendanceRepo, studentRepo, userRepo, logr)
	authSvc := service.NewAuthService(cfg.JWT)

	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc, reportSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	alertHandler := handler.NewAlertHandler(alertSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))

	staff := middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin, models.RoleSuperAdmin)
	admins := middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)

	attendance := api.Group("/attendance", staff)
	{
		attendance.POST("", attendanceHandler.Mark)
		attendance.GET("", attendanceHandler.ListClass)
		attendance.DELETE("/:id", attendanceHandler.Delete)
		attendance.GET("/can-correct", attendanceHandler.CanCorrect)
		attendance.POST("/bulk-present", attendanceHandler.BulkMarkPresent)
		attendance.GET("/sync/pending", attendanceHandler.ListPendingSync)
		attendance.GET("/sync/errors", attendanceHandler.ListErrorSync)
		attendance.PATCH("/sync", attendanceHandler.MarkSynced)
		attendance.PATCH("/:id/sync", attendanceHandler.UpdateSync)
		attendance.POST("/low-check", admins, alertHandler.BatchCheck)
	}

	students := api.Group("/students/:studentId/attendance", staff)
	{
		students.GET("/percentage", alertHandler.Percentage)
		students.GET("/history", reportHandler.StudentHistory)
		students.GET("/summary", reportHandler.StudentSummary)
		students.POST("/low-check", alertHandler.CheckLowAttendance)
	}

	classes := api.Group("/classes/:classId/attendance", staff)
	{
		classes.GET("/report", reportHandler.ClassReport)
		classes.GET("/report/export", reportHandler.ExportClassReport)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("shutdown error", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}

func newAttendanceService(cfg *config.Config, repo *repository.AttendanceRepository, policy service.CorrectionPolicy, validate *validator.Validate, logr *zap.Logger) *service.AttendanceService {
	if cfg.Calendar.Enabled {
		return service.NewAttendanceService(repo, policy, calendar.NewClient(cfg.Calendar), validate, logr)
	}
	return service.NewAttendanceService(repo, policy, nil, validate, logr)
}

func newAlertService(cfg *config.Config, attendanceRepo *repository.AttendanceRepository, studentRepo *repository.StudentRepository, userRepo *repository.UserRepository, logr *zap.Logger) *service.AlertService {
	if cfg.SMS.Enabled {
		sender := sms.NewClient(cfg.SMS, logr)
		return service.NewAlertService(attendanceRepo, studentRepo, userRepo, sender, cfg.Attendance.AlertThreshold, logr)
	}
	return service.NewAlertService(attendanceRepo, studentRepo, userRepo, nil, cfg.Attendance.AlertThreshold, logr)
}
