package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/goaltrack/internal/config"
	"github.com/goaltrack/internal/db"
	"github.com/goaltrack/internal/dispatch"
	"github.com/goaltrack/internal/handler"
	"github.com/goaltrack/internal/router"
	"github.com/goaltrack/internal/service"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	loc := cfg.Location()
	window, err := service.ParseTrackingWindow(cfg.TrackingStart, cfg.TrackingEnd, loc)
	if err != nil {
		log.Fatalf("invalid tracking window: %v", err)
	}

	api := handler.NewAPI(db.DB, window, loc)

	// 启动提醒派发循环
	dispatcher := dispatch.NewDispatcher(api.Reminders(), api.Goals(), nil, cfg.DispatchInterval)
	if err := dispatcher.Start(); err != nil {
		log.Fatalf("failed to start dispatcher: %v", err)
	}
	defer dispatcher.Stop()

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(api)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
