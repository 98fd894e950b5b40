package db

import (
	"time"

	"gorm.io/gorm"
)

// DailyOutput 记录每日产出条目
// OutputDate 归一化到当天零点；一天可以有多条记录
// Status 取 planned/done/skipped，只有 done 计入连胜和热力图
// Duration 单位为分钟，Rating 可选（1-5）
type DailyOutput struct {
	gorm.Model
	UserID     uint `gorm:"index:idx_output_user_date;default:1"`
	GoalID     *uint
	Goal       *Goal     `gorm:"constraint:OnDelete:SET NULL"`
	OutputDate time.Time `gorm:"index:idx_output_user_date"`
	Title      string
	Category   string `gorm:"index"`
	Duration   int
	Note       string
	Rating     *int
	Status     string `gorm:"index"`
	SortOrder  int
}

// OutputRestDay 记录用户显式标记的休息日
// UserID + RestDate 采用唯一索引，保证同一天只能标记一次
// IsEarned 在创建时根据当时的连胜状态冻结，之后不再重算
type OutputRestDay struct {
	gorm.Model
	UserID   uint      `gorm:"index:idx_rest_user_date,unique"`
	RestDate time.Time `gorm:"index:idx_rest_user_date,unique"`
	IsEarned bool
}
