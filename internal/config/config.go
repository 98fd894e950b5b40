package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr       string
	Port             string
	DatabasePath     string
	GinMode          string
	Timezone         string
	TrackingStart    string
	TrackingEnd      string
	DispatchInterval time.Duration
}

// 追踪窗口默认值，与既有数据保持一致，可通过环境变量覆盖。
const (
	defaultTrackingStart = "2026-02-17"
	defaultTrackingEnd   = "2027-02-05"
)

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	databasePath := strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "goaltrack.db"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	timezone := strings.TrimSpace(os.Getenv("TIMEZONE"))
	if timezone == "" {
		timezone = "Asia/Tokyo"
	}

	trackingStart := strings.TrimSpace(os.Getenv("TRACKING_START"))
	if trackingStart == "" {
		trackingStart = defaultTrackingStart
	}

	trackingEnd := strings.TrimSpace(os.Getenv("TRACKING_END"))
	if trackingEnd == "" {
		trackingEnd = defaultTrackingEnd
	}

	dispatchInterval := time.Minute
	if raw := strings.TrimSpace(os.Getenv("DISPATCH_INTERVAL")); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			dispatchInterval = parsed
		}
	}

	return AppConfig{
		ListenAddr:       listenAddr,
		Port:             port,
		DatabasePath:     databasePath,
		GinMode:          ginMode,
		Timezone:         timezone,
		TrackingStart:    trackingStart,
		TrackingEnd:      trackingEnd,
		DispatchInterval: dispatchInterval,
	}
}

// Location 解析配置的时区，失败时回退到 UTC。
func (c AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
