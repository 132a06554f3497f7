package main

import (
	"context"
	"encoding/base64"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	atcore "tadbeer.com/hrms/attendance/core"
	handlers "tadbeer.com/hrms/attendance/web/handlers"
	"tadbeer.com/hrms/config"
	"tadbeer.com/hrms/core"
	"tadbeer.com/hrms/infrastructure/communication"
	"tadbeer.com/hrms/pkg/logger"
	"tadbeer.com/hrms/storage/redis"
	"tadbeer.com/hrms/web/middlewares"
)

func main() {
	config.Load()
	logger.Init()
	defer logger.Sync()

	dm, err := core.New(config.Cfg.DSN, config.Cfg.DBMaxOpenConns, core.LogLevelWarn)
	if err != nil {
		log.Fatal(err)
	}
	defer dm.Close()

	if err := core.AutoMigrate(dm.DB); err != nil {
		log.Fatal("failed to migrate:", err)
	}

	if err := redis.Init(context.Background()); err != nil {
		log.Fatal(err)
	}
	defer redis.Close()

	jwtSecret, err := base64.StdEncoding.DecodeString(config.Cfg.JWTSecret)
	if err != nil {
		log.Fatal("Failed to decode JWT secret:", err)
	}

	orch := atcore.NewOrchestrator(
		time.Duration(config.Cfg.DeviceTimeoutSeconds)*time.Second,
		atcore.Policy{RetainUnlinked: config.Cfg.RetainUnlinked},
		logger.Logger,
	)
	notifier := communication.ConnectSlack()

	if !config.Cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	protected := r.Group("/api/v1")
	protected.Use(middlewares.Authentication(jwtSecret))
	{
		handlers.Register(protected, dm, orch, notifier)
	}

	logger.Logger.Info("starting server",
		zap.String("addr", config.Cfg.ServerHost+":"+config.Cfg.ServerPort))
	if err := r.Run(config.Cfg.ServerHost + ":" + config.Cfg.ServerPort); err != nil {
		log.Fatal(err)
	}
}
