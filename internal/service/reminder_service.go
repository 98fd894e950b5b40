package service

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goaltrack/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrReminderNotFound 在指定提醒不存在时返回
var ErrReminderNotFound = errors.New("reminder not found")

// 提醒时间缺省值，与历史数据的 09:00:00 默认保持一致。
const defaultRemindHour = 9

// ReminderService 负责提醒的增删改查与下次触发时间的推算。
// NextSendAt 是纯派生字段：只在创建、编辑、启用和发送这些变更点重算，
// 不存在后台轮询重算的路径。
type ReminderService struct {
	db  *gorm.DB
	loc *time.Location
}

// ReminderInput 定义创建/更新提醒时可配置字段
type ReminderInput struct {
	Type          string
	Frequency     string
	WeeklyDays    string
	MonthlyDay    int
	SpecificDates string
	StartDate     *time.Time
	EndDate       *time.Time
	RemindTime    string
	Message       string
	IsActive      *bool
}

// NewReminderService 构造 ReminderService
func NewReminderService(gdb *gorm.DB, loc *time.Location) *ReminderService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReminderService{db: gdb, loc: loc}
}

// ListForGoal 返回目标下的提醒
func (s *ReminderService) ListForGoal(goalID uint) ([]db.Reminder, error) {
	var reminders []db.Reminder
	if err := s.db.Where("goal_id = ?", goalID).
		Order("created_at ASC").
		Find(&reminders).Error; err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return reminders, nil
}

// Get 根据 ID 获取提醒
func (s *ReminderService) Get(id uint) (*db.Reminder, error) {
	var reminder db.Reminder
	if err := s.db.First(&reminder, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReminderNotFound
		}
		return nil, fmt.Errorf("get reminder: %w", err)
	}
	return &reminder, nil
}

// Create 新建提醒并推算首个触发时间
func (s *ReminderService) Create(goalID uint, input ReminderInput, now time.Time) (*db.Reminder, error) {
	reminder := db.Reminder{
		GoalID:        goalID,
		Type:          normalizeReminderType(input.Type),
		Frequency:     normalizeFrequency(input.Frequency),
		WeeklyDays:    strings.TrimSpace(input.WeeklyDays),
		MonthlyDay:    input.MonthlyDay,
		SpecificDates: strings.TrimSpace(input.SpecificDates),
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
		RemindTime:    normalizeRemindTime(input.RemindTime),
		Message:       strings.TrimSpace(input.Message),
		IsActive:      true,
	}

	s.applySchedule(&reminder, now)

	if err := s.db.Create(&reminder).Error; err != nil {
		return nil, fmt.Errorf("create reminder: %w", err)
	}
	return &reminder, nil
}

// Update 更新提醒；只要仍处于启用状态就重算触发时间
func (s *ReminderService) Update(id uint, input ReminderInput, now time.Time) (*db.Reminder, error) {
	reminder, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	reminder.Type = normalizeReminderType(input.Type)
	reminder.Frequency = normalizeFrequency(input.Frequency)
	reminder.WeeklyDays = strings.TrimSpace(input.WeeklyDays)
	reminder.MonthlyDay = input.MonthlyDay
	reminder.SpecificDates = strings.TrimSpace(input.SpecificDates)
	reminder.StartDate = input.StartDate
	reminder.EndDate = input.EndDate
	reminder.RemindTime = normalizeRemindTime(input.RemindTime)
	reminder.Message = strings.TrimSpace(input.Message)
	if input.IsActive != nil {
		reminder.IsActive = *input.IsActive
	}

	if reminder.IsActive {
		s.applySchedule(reminder, now)
	} else {
		reminder.NextSendAt = nil
	}

	if err := s.db.Save(reminder).Error; err != nil {
		return nil, fmt.Errorf("update reminder: %w", err)
	}
	return reminder, nil
}

// Toggle 切换提醒启用状态，重新启用时重算触发时间
func (s *ReminderService) Toggle(id uint, now time.Time) (*db.Reminder, error) {
	reminder, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	reminder.IsActive = !reminder.IsActive
	if reminder.IsActive {
		s.applySchedule(reminder, now)
	} else {
		reminder.NextSendAt = nil
	}

	if err := s.db.Save(reminder).Error; err != nil {
		return nil, fmt.Errorf("toggle reminder: %w", err)
	}
	return reminder, nil
}

// Delete 删除提醒
func (s *ReminderService) Delete(id uint) error {
	result := s.db.Delete(&db.Reminder{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete reminder: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrReminderNotFound
	}
	return nil
}

// MarkSent 记录一次发送并推算下一次触发时间，整个读改写在单个事务内完成，
// 避免两次并发发送互相覆盖调度字段。
func (s *ReminderService) MarkSent(id uint, now time.Time) (*db.Reminder, error) {
	var reminder db.Reminder

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&reminder, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReminderNotFound
			}
			return err
		}

		sentAt := now
		reminder.LastSentAt = &sentAt
		s.applySchedule(&reminder, now)

		return tx.Save(&reminder).Error
	}); err != nil {
		return nil, err
	}

	return &reminder, nil
}

// DueBefore 返回所有已到期的启用提醒（含所属目标），供派发循环消费
func (s *ReminderService) DueBefore(now time.Time) ([]db.Reminder, error) {
	var reminders []db.Reminder
	if err := s.db.Preload("Goal").
		Where("is_active = ? AND next_send_at IS NOT NULL AND next_send_at <= ?", true, now).
		Find(&reminders).Error; err != nil {
		return nil, fmt.Errorf("list due reminders: %w", err)
	}
	return reminders, nil
}

// Deactivate 停用提醒并清空调度字段（派发循环对已完结目标使用）
func (s *ReminderService) Deactivate(id uint) error {
	if err := s.db.Model(&db.Reminder{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": false, "next_send_at": nil}).Error; err != nil {
		return fmt.Errorf("deactivate reminder: %w", err)
	}
	return nil
}

// applySchedule 把推算结果写回结构体；过期路径会顺带停用提醒。
func (s *ReminderService) applySchedule(r *db.Reminder, now time.Time) {
	next, expired := s.ComputeNextSendAt(r, now)
	if expired {
		r.NextSendAt = nil
		r.IsActive = false
		return
	}
	r.NextSendAt = next
}

// ComputeNextSendAt 推算提醒的下次触发时间，纯函数。
// 返回 (nil, true) 表示提醒已越过生效窗口，应当停用。
// 非法的星期/日号一律钳制而不报错：最坏情况是提醒静默停止触发。
func (s *ReminderService) ComputeNextSendAt(r *db.Reminder, now time.Time) (*time.Time, bool) {
	now = now.In(s.loc)
	hour, minute := parseRemindTime(r.RemindTime)

	// 生效窗口之前：直接调度到 StartDate 当天，不看频率规则
	if r.StartDate != nil {
		start := dayOf(*r.StartDate, s.loc)
		if now.Before(start) {
			next := start.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
			return s.capToEndDate(r, next)
		}
	}

	// 生效窗口之后：过期停用
	if r.EndDate != nil && now.After(endOfDay(*r.EndDate, s.loc)) {
		return nil, true
	}

	today := dayOf(now, s.loc)
	at := func(day time.Time) time.Time {
		return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	}

	var next time.Time
	switch normalizeFrequency(r.Frequency) {
	case "weekly":
		days := parseWeekdays(r.WeeklyDays)
		next = at(today.AddDate(0, 0, days[0]-isoWeekday(today)+7)) // 兜底：下周第一个选中日
		for _, d := range days {
			candidate := at(today.AddDate(0, 0, d-isoWeekday(today)))
			if candidate.After(now) {
				next = candidate
				break
			}
		}

	case "monthly":
		day := r.MonthlyDay
		if day < 1 {
			day = 1
		}
		next = at(monthDay(today, 0, day, s.loc))
		if !next.After(now) {
			next = at(monthDay(today, 1, day, s.loc))
		}

	case "specific":
		found := false
		for _, d := range parseSpecificDates(r.SpecificDates, s.loc) {
			candidate := at(d)
			if candidate.After(now) {
				next = candidate
				found = true
				break
			}
		}
		if !found {
			// 所有指定日期都已过去，视同过期
			return nil, true
		}

	default: // daily，以及一切未知频率
		next = at(today)
		if !next.After(now) {
			next = at(today.AddDate(0, 0, 1))
		}
	}

	return s.capToEndDate(r, next)
}

// capToEndDate 检查推算结果是否越过 EndDate，越过则按过期处理。
func (s *ReminderService) capToEndDate(r *db.Reminder, next time.Time) (*time.Time, bool) {
	if r.EndDate != nil && next.After(endOfDay(*r.EndDate, s.loc)) {
		return nil, true
	}
	return &next, false
}

// monthDay 取 today 偏移 deltaMonths 个月后、日号钳制到该月长度的那一天。
func monthDay(today time.Time, deltaMonths, day int, loc *time.Location) time.Time {
	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, deltaMonths, 0)
	if last := daysInMonth(first); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, loc)
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// isoWeekday 返回 ISO 星期：1=周一..7=周日。
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func endOfDay(t time.Time, loc *time.Location) time.Time {
	day := dayOf(t, loc)
	return day.AddDate(0, 0, 1).Add(-time.Second)
}

// parseRemindTime 解析 15:04 格式的提醒时间，非法值回退到 09:00。
func parseRemindTime(raw string) (hour, minute int) {
	t, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return defaultRemindHour, 0
	}
	return t.Hour(), t.Minute()
}

// parseWeekdays 解析逗号分隔的 ISO 星期列表，去重排序；
// 为空或全部非法时回退到周一。
func parseWeekdays(raw string) []int {
	seen := make(map[int]struct{})
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 || n > 7 {
			continue
		}
		seen[n] = struct{}{}
	}

	if len(seen) == 0 {
		return []int{1}
	}

	days := make([]int, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}

// parseSpecificDates 解析逗号分隔的日期列表并升序排列，非法项忽略。
func parseSpecificDates(raw string, loc *time.Location) []time.Time {
	var dates []time.Time
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := time.ParseInLocation(dayFormat, part, loc)
		if err != nil {
			continue
		}
		dates = append(dates, d)
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

func normalizeFrequency(raw string) string {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case "weekly":
		return "weekly"
	case "monthly":
		return "monthly"
	case "specific":
		return "specific"
	default:
		return "daily"
	}
}

func normalizeReminderType(raw string) string {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case "deadline":
		return "deadline"
	case "custom":
		return "custom"
	default:
		return "progress"
	}
}

func normalizeRemindTime(raw string) string {
	raw = strings.TrimSpace(raw)
	if _, err := time.Parse("15:04", raw); err != nil {
		return "09:00"
	}
	return raw
}
