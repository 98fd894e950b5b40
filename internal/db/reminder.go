package db

import (
	"time"

	"gorm.io/gorm"
)

// Reminder 定义目标提醒模型
// Frequency 取 daily/weekly/monthly/specific
// WeeklyDays 为逗号分隔的 ISO 星期（1=周一..7=周日），仅 weekly 使用
// MonthlyDay 为 1-31，仅 monthly 使用；非法值在调度时钳制
// SpecificDates 为逗号分隔的日期列表（2006-01-02），仅 specific 使用
// StartDate/EndDate 为可选的生效窗口，越过 EndDate 后提醒自动停用
// NextSendAt 为派生缓存字段，仅由调度器写入，供 due 查询使用
type Reminder struct {
	gorm.Model
	GoalID        uint `gorm:"index"`
	Goal          Goal `gorm:"constraint:OnDelete:CASCADE"`
	Type          string
	Frequency     string
	WeeklyDays    string
	MonthlyDay    int
	SpecificDates string
	StartDate     *time.Time
	EndDate       *time.Time
	RemindTime    string
	Message       string
	IsActive      bool `gorm:"index"`
	LastSentAt    *time.Time
	NextSendAt    *time.Time `gorm:"index"`
}
