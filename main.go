package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"TEMPO-backend/internal/area"
	"TEMPO-backend/internal/employee"
	"TEMPO-backend/internal/platform/auth"
	"TEMPO-backend/internal/platform/db"
	"TEMPO-backend/internal/platform/events"
	"TEMPO-backend/internal/platform/logger"
	"TEMPO-backend/internal/platform/middleware"
	"TEMPO-backend/internal/platform/photos"
	"TEMPO-backend/internal/property"
	"TEMPO-backend/internal/schedule"
	"TEMPO-backend/internal/timeclock"
)

func main() {
	// .env は任意（秘匿値を環境変数で渡すとき用）
	_ = godotenv.Load()

	cfg, err := db.LoadConfig("config/config.yaml")
	if err != nil {
		panic(err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer zlog.Sync()

	if cfg.Mode != "dev" && cfg.Mode != "release" {
		zlog.Fatal("mode must be dev or release", zap.String("mode", cfg.Mode))
	}
	zlog.Info("starting", zap.String("version", cfg.Version), zap.String("mode", cfg.Mode))

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		zlog.Fatal("db connect failed", zap.Error(err))
	}
	defer conn.Close()
	zlog.Info("connected to db", zap.String("dbname", cfg.DB.DBName))

	hub := events.NewHub()
	photoStore := photos.NewFSStorage(cfg.Photos.Dir)
	blacklist := auth.NewTokenBlacklist()
	secret := []byte(cfg.JWT.Secret)

	authSvc := auth.NewService(conn, secret, time.Duration(cfg.JWT.ExpiresHours)*time.Hour, blacklist)
	clockSvc := timeclock.NewService(conn, hub, photoStore)
	propertySvc := property.NewService(conn, hub)
	areaSvc := area.NewService(conn, hub)
	employeeSvc := employee.NewService(conn, hub)
	scheduleSvc := schedule.NewService(conn, hub)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(zlog))
	_ = r.SetTrustedProxies(nil)

	if cfg.Mode == "dev" {
		// CORS（開発中のみ必要）
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.HTTP.CORSOrigins,
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Last-Event-ID"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	// ヘルス
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	api := r.Group("/api/v1")

	// キオスク端末用。PIN だけで打刻するので認証なし
	timeclock.RegisterKioskRoutes(api, clockSvc)
	auth.RegisterRoutes(api, authSvc, secret, blacklist)

	protected := api.Group("", auth.RequireAuth(secret, blacklist))
	timeclock.RegisterAdminRoutes(protected, clockSvc, hub)
	property.RegisterRoutes(protected, propertySvc, hub)
	area.RegisterRoutes(protected, areaSvc, hub)
	employee.RegisterRoutes(protected, employeeSvc, hub)
	schedule.RegisterRoutes(protected, scheduleSvc, hub)

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: r,
	}

	go func() {
		zlog.Info("listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server stopped", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Fatal("shutdown failed", zap.Error(err))
	}
}
