package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/school-admin-api/api/swagger"
	"github.com/noah-isme/school-admin-api/internal/handler"
	"github.com/noah-isme/school-admin-api/internal/middleware"
	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/repository"
	"github.com/noah-isme/school-admin-api/internal/service"
	"github.com/noah-isme/school-admin-api/pkg/cache"
	"github.com/noah-isme/school-admin-api/pkg/config"
	"github.com/noah-isme/school-admin-api/pkg/database"
	"github.com/noah-isme/school-admin-api/pkg/logger"
	"github.com/noah-isme/school-admin-api/pkg/mailer"
	corsmiddleware "github.com/noah-isme/school-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-admin-api/pkg/middleware/requestid"
)

// @title School Admin API
// @version 1.0.0
// @description School administration backend: users, subjects and attendance
// @BasePath /api/v1
// @schemes http

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	cacheRepo := repository.NewCacheRepository(nil, logr)
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	defer cacheRepo.Close()

	adminRepo := repository.NewAdminRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	validate := validator.New()

	metricsService := service.NewMetricsService()

	var notifications *service.NotificationService
	if cfg.Notifications.Enabled {
		notifications = service.NewNotificationService(mailer.New(cfg.SMTP), logr, cfg.Notifications)
		notifications.Start(ctx)
		defer notifications.Stop()
		metricsService.TrackQueueDepth(notifications.QueueDepth)
	}

	uniq := service.NewUniquenessChecker(adminRepo, teacherRepo, studentRepo)
	authService := service.NewAuthService(adminRepo, teacherRepo, studentRepo, auditRepo, cfg.JWT, logr)
	adminService := service.NewAdminService(adminRepo, uniq, notifications, validate, logr, cfg.BcryptCost)
	teacherService := service.NewTeacherService(teacherRepo, uniq, notifications, validate, logr, cfg.BcryptCost)
	studentService := service.NewStudentService(studentRepo, uniq, notifications, validate, logr, cfg.BcryptCost)
	subjectService := service.NewSubjectService(subjectRepo, cacheRepo, cfg.Cache, metricsService, validate, logr)
	attendanceService := service.NewAttendanceService(attendanceRepo, studentRepo, subjectRepo, validate, logr)

	authHandler := handler.NewAuthHandler(authService)
	adminHandler := handler.NewAdminHandler(adminService)
	teacherHandler := handler.NewTeacherHandler(teacherService)
	studentHandler := handler.NewStudentHandler(studentService)
	subjectHandler := handler.NewSubjectHandler(subjectService)
	attendanceHandler := handler.NewAttendanceHandler(attendanceService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))
	r.Use(middleware.Authenticate(authService, logr))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.GET("/me", authHandler.Me)
	}

	adminOnly := middleware.RequireRoles(models.RoleAdministrator)

	admins := api.Group("/admins")
	{
		admins.GET("", adminOnly, adminHandler.List)
		admins.GET("/:id", middleware.RequireRolesOrSelf(models.RoleAdministrator, models.RoleAdministrator), adminHandler.Get)
		admins.POST("", adminOnly, middleware.Audit(auditRepo, models.AuditActionCreate, "admins"), adminHandler.Create)
		admins.PUT("/:id", adminOnly, middleware.Audit(auditRepo, models.AuditActionUpdate, "admins"), adminHandler.Update)
		admins.DELETE("/:id", adminOnly, middleware.Audit(auditRepo, models.AuditActionDelete, "admins"), adminHandler.Delete)
	}

	teachers := api.Group("/teachers")
	{
		teachers.GET("", adminOnly, teacherHandler.List)
		teachers.GET("/:id", middleware.RequireRolesOrSelf(models.RoleTeacher, models.RoleAdministrator), teacherHandler.Get)
		teachers.POST("", adminOnly, middleware.Audit(auditRepo, models.AuditActionCreate, "teachers"), teacherHandler.Create)
		teachers.PUT("/:id", adminOnly, middleware.Audit(auditRepo, models.AuditActionUpdate, "teachers"), teacherHandler.Update)
		teachers.DELETE("/:id", adminOnly, middleware.Audit(auditRepo, models.AuditActionDelete, "teachers"), teacherHandler.Delete)
	}

	students := api.Group("/students")
	{
		students.GET("", middleware.RequireRoles(models.RoleAdministrator, models.RoleTeacher), studentHandler.List)
		students.GET("/:id", middleware.RequireRolesOrSelf(models.RoleStudent, models.RoleAdministrator, models.RoleTeacher), studentHandler.Get)
		students.POST("", adminOnly, middleware.Audit(auditRepo, models.AuditActionCreate, "students"), studentHandler.Create)
		students.PUT("/:id", adminOnly, middleware.Audit(auditRepo, models.AuditActionUpdate, "students"), studentHandler.Update)
		students.DELETE("/:id", adminOnly, middleware.Audit(auditRepo, models.AuditActionDelete, "students"), studentHandler.Delete)
	}

	anyRole := middleware.RequireRoles(models.RoleAdministrator, models.RoleTeacher, models.RoleStudent)

	subjects := api.Group("/subjects")
	{
		subjects.GET("", anyRole, subjectHandler.List)
		subjects.GET("/:id", anyRole, subjectHandler.Get)
		subjects.POST("", adminOnly, middleware.Audit(auditRepo, models.AuditActionCreate, "subjects"), subjectHandler.Create)
		subjects.PUT("/:id", adminOnly, middleware.Audit(auditRepo, models.AuditActionUpdate, "subjects"), subjectHandler.Update)
		subjects.DELETE("/:id", adminOnly, middleware.Audit(auditRepo, models.AuditActionDelete, "subjects"), subjectHandler.Delete)
	}

	attendanceRoles := middleware.RequireRoles(models.RoleAdministrator, models.RoleTeacher)

	attendance := api.Group("/attendance")
	{
		attendance.GET("", attendanceRoles, attendanceHandler.List)
		attendance.GET("/:id", attendanceRoles, attendanceHandler.Get)
		attendance.POST("", attendanceRoles, middleware.Audit(auditRepo, models.AuditActionCreate, "attendance"), attendanceHandler.Create)
		attendance.PUT("/:id", attendanceRoles, middleware.Audit(auditRepo, models.AuditActionUpdate, "attendance"), attendanceHandler.Update)
		attendance.DELETE("/:id", attendanceRoles, middleware.Audit(auditRepo, models.AuditActionDelete, "attendance"), attendanceHandler.Delete)
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

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
