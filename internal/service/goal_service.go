package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goaltrack/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrGoalNotFound 在指定目标不存在时返回
	ErrGoalNotFound = errors.New("goal not found")
	// ErrMilestoneNotFound 在指定里程碑不存在时返回
	ErrMilestoneNotFound = errors.New("milestone not found")
)

// GoalService 负责目标与里程碑的增删改查
// Status 仅使用 active/completed/cancelled，默认 active
type GoalService struct {
	db *gorm.DB
}

// GoalFilter 描述列表过滤条件
type GoalFilter struct {
	Status   string
	Category string
	Search   string
}

// GoalInput 定义创建/更新目标时可配置字段
type GoalInput struct {
	Title       string
	Description string
	Category    string
	Status      string
	TargetDate  *time.Time
}

// MilestoneInput 定义创建/更新里程碑时可配置字段
type MilestoneInput struct {
	Title      string
	Memo       string
	TargetDate *time.Time
	IsDone     bool
	SortOrder  int
}

// NewGoalService 构造 GoalService
func NewGoalService(gdb *gorm.DB) *GoalService {
	return &GoalService{db: gdb}
}

// List 返回目标集合，支持基本筛选
func (s *GoalService) List(userID uint, filter GoalFilter) ([]db.Goal, error) {
	var goals []db.Goal

	query := s.db.Model(&db.Goal{}).Where("user_id = ?", userID)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		like := fmt.Sprintf("%%%s%%", strings.TrimSpace(filter.Search))
		query = query.Where("title LIKE ? OR description LIKE ?", like, like)
	}

	if err := query.Preload("Milestones", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("sort_order ASC")
	}).Order("created_at DESC").Find(&goals).Error; err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}

	return goals, nil
}

// Get 根据 ID 获取目标（含里程碑）
func (s *GoalService) Get(userID, id uint) (*db.Goal, error) {
	var goal db.Goal
	if err := s.db.Preload("Milestones", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("sort_order ASC")
	}).Where("user_id = ?", userID).First(&goal, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, fmt.Errorf("get goal: %w", err)
	}
	return &goal, nil
}

// Create 新建目标
func (s *GoalService) Create(userID uint, input GoalInput) (*db.Goal, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("goal title is required")
	}

	goal := db.Goal{
		UserID:      userID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Category:    strings.TrimSpace(input.Category),
		Status:      normalizeGoalStatus(input.Status),
		TargetDate:  input.TargetDate,
	}

	if err := s.db.Create(&goal).Error; err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}
	return &goal, nil
}

// Update 更新目标
func (s *GoalService) Update(userID, id uint, input GoalInput) (*db.Goal, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("goal title is required")
	}

	goal, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}

	goal.Title = strings.TrimSpace(input.Title)
	goal.Description = strings.TrimSpace(input.Description)
	goal.Category = strings.TrimSpace(input.Category)
	goal.Status = normalizeGoalStatus(input.Status)
	goal.TargetDate = input.TargetDate

	if err := s.db.Save(goal).Error; err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}
	return goal, nil
}

// Delete 删除目标及其级联数据
func (s *GoalService) Delete(userID, id uint) error {
	result := s.db.Where("user_id = ?", userID).Delete(&db.Goal{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete goal: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrGoalNotFound
	}
	return nil
}

// IsFinished 判断目标是否已经完成或取消，提醒派发时会跳过这类目标
func (s *GoalService) IsFinished(goal *db.Goal) bool {
	return goal.Status == "completed" || goal.Status == "cancelled"
}

// AddMilestone 在目标下新建里程碑
func (s *GoalService) AddMilestone(userID, goalID uint, input MilestoneInput) (*db.Milestone, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("milestone title is required")
	}

	if _, err := s.Get(userID, goalID); err != nil {
		return nil, err
	}

	milestone := db.Milestone{
		GoalID:     goalID,
		Title:      strings.TrimSpace(input.Title),
		Memo:       strings.TrimSpace(input.Memo),
		TargetDate: input.TargetDate,
		IsDone:     input.IsDone,
		SortOrder:  input.SortOrder,
	}

	if err := s.db.Create(&milestone).Error; err != nil {
		return nil, fmt.Errorf("create milestone: %w", err)
	}
	return &milestone, nil
}

// UpdateMilestone 更新里程碑
func (s *GoalService) UpdateMilestone(userID, goalID, id uint, input MilestoneInput) (*db.Milestone, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("milestone title is required")
	}

	milestone, err := s.getMilestone(userID, goalID, id)
	if err != nil {
		return nil, err
	}

	milestone.Title = strings.TrimSpace(input.Title)
	milestone.Memo = strings.TrimSpace(input.Memo)
	milestone.TargetDate = input.TargetDate
	milestone.IsDone = input.IsDone
	milestone.SortOrder = input.SortOrder

	if err := s.db.Save(milestone).Error; err != nil {
		return nil, fmt.Errorf("update milestone: %w", err)
	}
	return milestone, nil
}

// DeleteMilestone 删除里程碑
func (s *GoalService) DeleteMilestone(userID, goalID, id uint) error {
	milestone, err := s.getMilestone(userID, goalID, id)
	if err != nil {
		return err
	}

	if err := s.db.Delete(milestone).Error; err != nil {
		return fmt.Errorf("delete milestone: %w", err)
	}
	return nil
}

func (s *GoalService) getMilestone(userID, goalID, id uint) (*db.Milestone, error) {
	if _, err := s.Get(userID, goalID); err != nil {
		return nil, err
	}

	var milestone db.Milestone
	if err := s.db.Where("goal_id = ?", goalID).First(&milestone, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMilestoneNotFound
		}
		return nil, fmt.Errorf("get milestone: %w", err)
	}
	return &milestone, nil
}

func normalizeGoalStatus(status string) string {
	switch strings.TrimSpace(strings.ToLower(status)) {
	case "completed":
		return "completed"
	case "cancelled":
		return "cancelled"
	default:
		return "active"
	}
}
