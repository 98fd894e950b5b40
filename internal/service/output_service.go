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
	// ErrOutputNotFound 在指定产出记录不存在时返回
	ErrOutputNotFound = errors.New("output not found")
	// ErrOutputOutsideWindow 在产出日期落在追踪窗口外时返回
	ErrOutputOutsideWindow = errors.New("output date outside tracking window")
	// ErrOutputInvalidStatus 在状态不是 planned/done/skipped 时返回
	ErrOutputInvalidStatus = errors.New("invalid output status")
)

// OutputService 负责每日产出与休息日的读写。
// 休息日的 IsEarned 在标记当下根据连胜状态冻结，由 StreakService 提供。
type OutputService struct {
	db      *gorm.DB
	streaks *StreakService
}

// OutputInput 定义创建/更新产出时可配置字段
type OutputInput struct {
	GoalID     *uint
	OutputDate time.Time
	Title      string
	Category   string
	Duration   int
	Note       string
	Rating     *int
	Status     string
}

// OutputStats 汇总追踪窗口内的整体统计
type OutputStats struct {
	TotalOutputs      int     `json:"total_outputs"`
	TotalDuration     int     `json:"total_duration"`
	ActiveDays        int     `json:"active_days"`
	CompletionRate    float64 `json:"completion_rate"`
	AvgDurationPerDay int     `json:"avg_duration_per_day"`
}

// NewOutputService 构造 OutputService
func NewOutputService(gdb *gorm.DB, streaks *StreakService) *OutputService {
	return &OutputService{db: gdb, streaks: streaks}
}

// Create 新建产出记录，日期归一化到当天并校验追踪窗口
func (s *OutputService) Create(userID uint, input OutputInput) (*db.DailyOutput, error) {
	if err := s.validateInput(&input); err != nil {
		return nil, err
	}

	date := dayOf(input.OutputDate, s.streaks.loc)

	var sortOrder int64
	if err := s.db.Model(&db.DailyOutput{}).
		Where("user_id = ? AND output_date = ?", userID, date).
		Count(&sortOrder).Error; err != nil {
		return nil, fmt.Errorf("count outputs: %w", err)
	}

	output := db.DailyOutput{
		UserID:     userID,
		GoalID:     input.GoalID,
		OutputDate: date,
		Title:      strings.TrimSpace(input.Title),
		Category:   strings.TrimSpace(input.Category),
		Duration:   input.Duration,
		Note:       strings.TrimSpace(input.Note),
		Rating:     input.Rating,
		Status:     input.Status,
		SortOrder:  int(sortOrder),
	}

	if err := s.db.Create(&output).Error; err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	return &output, nil
}

// Update 更新产出记录
func (s *OutputService) Update(userID, id uint, input OutputInput) (*db.DailyOutput, error) {
	if err := s.validateInput(&input); err != nil {
		return nil, err
	}

	existing, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}

	existing.GoalID = input.GoalID
	existing.OutputDate = dayOf(input.OutputDate, s.streaks.loc)
	existing.Title = strings.TrimSpace(input.Title)
	existing.Category = strings.TrimSpace(input.Category)
	existing.Duration = input.Duration
	existing.Note = strings.TrimSpace(input.Note)
	existing.Rating = input.Rating
	existing.Status = input.Status

	if err := s.db.Save(existing).Error; err != nil {
		return nil, fmt.Errorf("update output: %w", err)
	}
	return existing, nil
}

// Get 根据 ID 获取产出记录
func (s *OutputService) Get(userID, id uint) (*db.DailyOutput, error) {
	var output db.DailyOutput
	if err := s.db.Where("user_id = ?", userID).First(&output, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOutputNotFound
		}
		return nil, fmt.Errorf("get output: %w", err)
	}
	return &output, nil
}

// Delete 删除产出记录
func (s *OutputService) Delete(userID, id uint) error {
	result := s.db.Where("user_id = ?", userID).Delete(&db.DailyOutput{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete output: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrOutputNotFound
	}
	return nil
}

// ToggleStatus 切换单条产出的状态（planned/done/skipped）
func (s *OutputService) ToggleStatus(userID, id uint, status string) (*db.DailyOutput, error) {
	if !isValidOutputStatus(status) {
		return nil, ErrOutputInvalidStatus
	}

	output, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}

	output.Status = status
	if err := s.db.Save(output).Error; err != nil {
		return nil, fmt.Errorf("toggle output status: %w", err)
	}
	return output, nil
}

// ListWindow 返回追踪窗口内的全部产出，按日期倒序、组内按 SortOrder
func (s *OutputService) ListWindow(userID uint) ([]db.DailyOutput, error) {
	var outputs []db.DailyOutput
	w := s.streaks.Window()
	if err := s.db.Preload("Goal").
		Where("user_id = ?", userID).
		Where("output_date BETWEEN ? AND ?", w.Start, w.End).
		Order("output_date DESC").
		Order("sort_order ASC").
		Find(&outputs).Error; err != nil {
		return nil, fmt.Errorf("list outputs: %w", err)
	}
	return outputs, nil
}

// RestDates 返回窗口内已标记的休息日日期（2006-01-02 格式，升序）
func (s *OutputService) RestDates(userID uint) ([]string, error) {
	var rows []db.OutputRestDay
	w := s.streaks.Window()
	if err := s.db.Where("user_id = ?", userID).
		Where("rest_date BETWEEN ? AND ?", w.Start, w.End).
		Order("rest_date ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list rest days: %w", err)
	}

	dates := make([]string, 0, len(rows))
	for _, row := range rows {
		dates = append(dates, dayOf(row.RestDate, s.streaks.loc).Format(dayFormat))
	}
	return dates, nil
}

// RestToggleResult 描述一次休息日切换的结果
type RestToggleResult struct {
	Removed  bool
	IsEarned bool
}

// ToggleRestDay 切换某日期的休息日标记。
// 已存在则删除；否则创建，并在创建当下根据剩余额度冻结 IsEarned，
// 之后连胜怎么变都不再回头改写这个标记。
func (s *OutputService) ToggleRestDay(userID uint, date time.Time, now time.Time) (*RestToggleResult, error) {
	day := dayOf(date, s.streaks.loc)
	w := s.streaks.Window()
	if day.Before(w.Start) || day.After(w.End) {
		return nil, ErrOutputOutsideWindow
	}

	var existing db.OutputRestDay
	err := s.db.Where("user_id = ? AND rest_date = ?", userID, day).First(&existing).Error
	switch {
	case err == nil:
		if err := s.db.Delete(&existing).Error; err != nil {
			return nil, fmt.Errorf("remove rest day: %w", err)
		}
		return &RestToggleResult{Removed: true}, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("find rest day: %w", err)
	}

	snapshot, err := s.streaks.Calculate(userID, now)
	if err != nil {
		return nil, err
	}
	isEarned := snapshot.RestDaysAvailable > 0

	if err := s.db.Create(&db.OutputRestDay{
		UserID:   userID,
		RestDate: day,
		IsEarned: isEarned,
	}).Error; err != nil {
		return nil, fmt.Errorf("create rest day: %w", err)
	}

	return &RestToggleResult{IsEarned: isEarned}, nil
}

// Stats 汇总窗口内的整体统计。
// 完成率只统计到昨天：今天还在进行中，不计入分母。
func (s *OutputService) Stats(userID uint, now time.Time) (*OutputStats, error) {
	w := s.streaks.Window()

	var totalOutputs int64
	if err := s.doneInRange(userID, w.Start, w.End).Count(&totalOutputs).Error; err != nil {
		return nil, fmt.Errorf("count outputs: %w", err)
	}

	var totalDuration int64
	if err := s.doneInRange(userID, w.Start, w.End).
		Select("COALESCE(SUM(duration), 0)").
		Scan(&totalDuration).Error; err != nil {
		return nil, fmt.Errorf("sum durations: %w", err)
	}

	activeDays, err := s.countActiveDays(userID, w.Start, w.End)
	if err != nil {
		return nil, err
	}

	yesterday := minDay(dayOf(now, s.streaks.loc).AddDate(0, 0, -1), w.End)
	daysSinceStart := maxInt(1, daysBetween(w.Start, yesterday)+1)

	activeUpToYesterday, err := s.countActiveDays(userID, w.Start, yesterday)
	if err != nil {
		return nil, err
	}

	stats := &OutputStats{
		TotalOutputs:   int(totalOutputs),
		TotalDuration:  int(totalDuration),
		ActiveDays:     activeDays,
		CompletionRate: float64(activeUpToYesterday) / float64(daysSinceStart) * 100,
	}
	if activeDays > 0 {
		stats.AvgDurationPerDay = int(totalDuration) / activeDays
	}

	return stats, nil
}

func (s *OutputService) doneInRange(userID uint, start, end time.Time) *gorm.DB {
	return s.db.Model(&db.DailyOutput{}).
		Where("user_id = ? AND status = ?", userID, "done").
		Where("output_date BETWEEN ? AND ?", start, end)
}

func (s *OutputService) countActiveDays(userID uint, start, end time.Time) (int, error) {
	var count int64
	if err := s.doneInRange(userID, start, end).
		Distinct("output_date").
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count active days: %w", err)
	}
	return int(count), nil
}

func (s *OutputService) validateInput(input *OutputInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return fmt.Errorf("output title is required")
	}
	if !isValidOutputStatus(input.Status) {
		return ErrOutputInvalidStatus
	}
	if input.Duration <= 0 || input.Duration > 1440 {
		return fmt.Errorf("duration must be within 1..1440 minutes")
	}

	day := dayOf(input.OutputDate, s.streaks.loc)
	w := s.streaks.Window()
	if day.Before(w.Start) || day.After(w.End) {
		return ErrOutputOutsideWindow
	}

	return nil
}

func isValidOutputStatus(status string) bool {
	switch status {
	case "planned", "done", "skipped":
		return true
	}
	return false
}
