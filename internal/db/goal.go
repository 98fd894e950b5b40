package db

import (
	"time"

	"gorm.io/gorm"
)

// Goal 定义了目标模型
// Description 支持 Markdown，渲染在 handler 层完成
// Status 仅使用 active/completed/cancelled，默认 active
// TargetDate 可选，提醒调度和看板展示都会用到
type Goal struct {
	gorm.Model
	UserID      uint `gorm:"index;default:1"`
	Title       string
	Description string
	Category    string `gorm:"index"`
	Status      string `gorm:"index"`
	TargetDate  *time.Time
	Milestones  []Milestone `gorm:"constraint:OnDelete:CASCADE"`
}

// Milestone 记录目标下的里程碑
// Memo 为 Markdown 备忘，SortOrder 控制展示顺序
type Milestone struct {
	gorm.Model
	GoalID     uint `gorm:"index"`
	Title      string
	Memo       string
	TargetDate *time.Time
	IsDone     bool
	SortOrder  int
}
