package handler

import (
	"time"

	"github.com/goaltrack/internal/service"
	"gorm.io/gorm"
)

// 单用户看板：所有请求都归属默认 owner。
const defaultUserID uint = 1

const dateFormat = "2006-01-02"

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db        *gorm.DB
	goals     *service.GoalService
	outputs   *service.OutputService
	streaks   *service.StreakService
	reminders *service.ReminderService
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, window service.TrackingWindow, loc *time.Location) *API {
	streaks := service.NewStreakService(gdb, window, loc)

	return &API{
		db:        gdb,
		goals:     service.NewGoalService(gdb),
		outputs:   service.NewOutputService(gdb, streaks),
		streaks:   streaks,
		reminders: service.NewReminderService(gdb, loc),
	}
}

// DB exposes the underlying gorm instance for legacy paths.
func (a *API) DB() *gorm.DB {
	return a.db
}

// Reminders 暴露提醒服务，供派发器复用同一实例。
func (a *API) Reminders() *service.ReminderService {
	return a.reminders
}

// Goals 暴露目标服务，供派发器复用同一实例。
func (a *API) Goals() *service.GoalService {
	return a.goals
}
