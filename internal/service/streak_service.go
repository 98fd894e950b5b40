package service

import (
	"fmt"
	"time"

	"github.com/goaltrack/internal/db"
	"gorm.io/gorm"
)

const dayFormat = "2006-01-02"

// 连胜累积参数：每连续 7 个产出日挣得 1 个休息日，同时可用上限为 3。
const (
	restEarnInterval = 7
	restAvailableCap = 3
)

// TrackingWindow 表示固定的追踪区间，闭区间 [Start, End]。
type TrackingWindow struct {
	Start time.Time
	End   time.Time
}

// ParseTrackingWindow 解析 2006-01-02 格式的区间边界。
func ParseTrackingWindow(start, end string, loc *time.Location) (TrackingWindow, error) {
	s, err := time.ParseInLocation(dayFormat, start, loc)
	if err != nil {
		return TrackingWindow{}, fmt.Errorf("parse tracking start: %w", err)
	}
	e, err := time.ParseInLocation(dayFormat, end, loc)
	if err != nil {
		return TrackingWindow{}, fmt.Errorf("parse tracking end: %w", err)
	}
	if e.Before(s) {
		return TrackingWindow{}, fmt.Errorf("tracking end %s before start %s", end, start)
	}
	return TrackingWindow{Start: s, End: e}, nil
}

// TotalDays 返回区间内的天数（含两端）。
func (w TrackingWindow) TotalDays() int {
	return daysBetween(w.Start, w.End) + 1
}

// StreakSnapshot 是一次连胜计算的完整结果，每次请求基于原始记录重算。
type StreakSnapshot struct {
	CurrentStreak       int `json:"current_streak"`
	LongestStreak       int `json:"longest_streak"`
	RestDaysAvailable   int `json:"rest_days_available"`
	RestDaysEarnedTotal int `json:"rest_days_earned_total"`
	RestDaysUsed        int `json:"rest_days_used"`
	DayNumber           int `json:"day_number"`
	TotalDays           int `json:"total_days"`
}

// HeatmapCell 是日历热力图中的单日聚合，窗口内每一天都有一个（零填充）。
type HeatmapCell struct {
	Date          string `json:"date"`
	Count         int    `json:"count"`
	TotalDuration int    `json:"duration"`
	IsRestDay     bool   `json:"is_rest_day"`
}

// StreakService 负责连胜、休息日额度与热力图的计算。
// 计算本身是无状态的纯读操作，"今天"始终由调用方显式传入。
type StreakService struct {
	db     *gorm.DB
	window TrackingWindow
	loc    *time.Location

	// countUnearnedRestAsUsed 控制未挣得的休息日是否也消耗额度。
	// 历史行为是消耗（标记即占用，且当天照常中断连胜），默认保留。
	countUnearnedRestAsUsed bool
}

// NewStreakService 构造 StreakService。
func NewStreakService(gdb *gorm.DB, window TrackingWindow, loc *time.Location) *StreakService {
	if loc == nil {
		loc = time.UTC
	}
	return &StreakService{db: gdb, window: window, loc: loc, countUnearnedRestAsUsed: true}
}

// WithUnearnedRestPolicy 调整未挣得休息日的额度策略，主要供测试和灰度使用。
func (s *StreakService) WithUnearnedRestPolicy(countAsUsed bool) *StreakService {
	s.countUnearnedRestAsUsed = countAsUsed
	return s
}

// Window 暴露追踪区间，供 handler 做输入校验。
func (s *StreakService) Window() TrackingWindow {
	return s.window
}

// Location 暴露计算用时区，供 handler 解析日期参数。
func (s *StreakService) Location() *time.Location {
	return s.loc
}

// Calculate 计算指定用户截至 now 的连胜快照。
// 连胜中断只评估到昨天为止：今天尚未结束，缺少产出不提前扣分；
// 但今天一旦有 done 产出会立即计入连胜。
func (s *StreakService) Calculate(userID uint, now time.Time) (*StreakSnapshot, error) {
	realToday := dayOf(now, s.loc)
	today := minDay(realToday, s.window.End)

	snapshot := &StreakSnapshot{TotalDays: s.window.TotalDays()}
	if today.Before(s.window.Start) {
		return snapshot, nil
	}

	activeDates, err := s.distinctDates(userID, "done", s.window.Start, today)
	if err != nil {
		return nil, fmt.Errorf("load active dates: %w", err)
	}

	skippedDates, err := s.distinctDates(userID, "skipped", s.window.Start, today)
	if err != nil {
		return nil, fmt.Errorf("load skipped dates: %w", err)
	}
	// 只保留当天没有任何 done 产出的 skipped 日期
	skippedOnly := make(map[string]struct{}, len(skippedDates))
	for d := range skippedDates {
		if _, ok := activeDates[d]; !ok {
			skippedOnly[d] = struct{}{}
		}
	}

	var restRows []db.OutputRestDay
	if err := s.db.Where("user_id = ?", userID).
		Where("rest_date BETWEEN ? AND ?", s.window.Start, today).
		Find(&restRows).Error; err != nil {
		return nil, fmt.Errorf("load rest days: %w", err)
	}

	restDays := make(map[string]bool, len(restRows))
	usedRestDays := 0
	for _, row := range restRows {
		restDays[dayOf(row.RestDate, s.loc).Format(dayFormat)] = row.IsEarned
		if row.IsEarned || s.countUnearnedRestAsUsed {
			usedRestDays++
		}
	}

	yesterday := minDay(realToday.AddDate(0, 0, -1), s.window.End)
	walk := walkStreak(s.window.Start, yesterday, activeDates, skippedOnly, restDays)

	// 今天的 done 产出计入连胜，但不会因为缺席而中断
	if _, ok := activeDates[realToday.Format(dayFormat)]; ok {
		walk.applyActive()
	}

	snapshot.CurrentStreak = walk.tempStreak
	snapshot.LongestStreak = maxInt(walk.longestStreak, walk.tempStreak)
	snapshot.RestDaysEarnedTotal = walk.earnedRestDays
	snapshot.RestDaysUsed = usedRestDays
	snapshot.RestDaysAvailable = clampInt(walk.earnedRestDays-usedRestDays, 0, restAvailableCap)
	snapshot.DayNumber = daysBetween(s.window.Start, today) + 1

	return snapshot, nil
}

// Heatmap 返回整个追踪窗口的逐日聚合，升序且无空洞。
// 与连胜不同，热力图不依赖"今天"：未来日期按零值输出。
func (s *StreakService) Heatmap(userID uint) ([]HeatmapCell, error) {
	type outputAgg struct {
		OutputDate    time.Time
		Count         int
		TotalDuration int
	}

	var rows []outputAgg
	if err := s.db.Model(&db.DailyOutput{}).
		Select("output_date, COUNT(*) as count, SUM(duration) as total_duration").
		Where("user_id = ? AND status = ?", userID, "done").
		Where("output_date BETWEEN ? AND ?", s.window.Start, s.window.End).
		Group("output_date").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("aggregate outputs: %w", err)
	}

	byDate := make(map[string]outputAgg, len(rows))
	for _, row := range rows {
		byDate[dayOf(row.OutputDate, s.loc).Format(dayFormat)] = row
	}

	var restRows []db.OutputRestDay
	if err := s.db.Where("user_id = ?", userID).Find(&restRows).Error; err != nil {
		return nil, fmt.Errorf("load rest days: %w", err)
	}
	restDates := make(map[string]struct{}, len(restRows))
	for _, row := range restRows {
		restDates[dayOf(row.RestDate, s.loc).Format(dayFormat)] = struct{}{}
	}

	cells := make([]HeatmapCell, 0, s.window.TotalDays())
	for cursor := s.window.Start; !cursor.After(s.window.End); cursor = cursor.AddDate(0, 0, 1) {
		key := cursor.Format(dayFormat)
		cell := HeatmapCell{Date: key}
		if agg, ok := byDate[key]; ok {
			cell.Count = agg.Count
			cell.TotalDuration = agg.TotalDuration
		}
		if _, ok := restDates[key]; ok {
			cell.IsRestDay = true
		}
		cells = append(cells, cell)
	}

	return cells, nil
}

// distinctDates 取指定状态在区间内出现过的日期集合。
func (s *StreakService) distinctDates(userID uint, status string, start, end time.Time) (map[string]struct{}, error) {
	var dates []time.Time
	if err := s.db.Model(&db.DailyOutput{}).
		Distinct("output_date").
		Where("user_id = ? AND status = ?", userID, status).
		Where("output_date BETWEEN ? AND ?", start, end).
		Pluck("output_date", &dates).Error; err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		set[dayOf(d, s.loc).Format(dayFormat)] = struct{}{}
	}
	return set, nil
}

// streakWalk 保存逐日扫描过程中的四个计数器。
type streakWalk struct {
	tempStreak         int
	longestStreak      int
	consecutiveForEarn int
	earnedRestDays     int
}

// applyActive 应用一个产出日：连胜与挣取进度同时 +1，
// 每累计 7 个连续产出日在第 7 天当场挣得 1 个休息日。
func (w *streakWalk) applyActive() {
	w.tempStreak++
	w.consecutiveForEarn++
	if w.consecutiveForEarn%restEarnInterval == 0 {
		w.earnedRestDays++
	}
}

// applyBreak 应用一次中断：结算最长连胜并清零进度。
func (w *streakWalk) applyBreak() {
	w.longestStreak = maxInt(w.longestStreak, w.tempStreak)
	w.tempStreak = 0
	w.consecutiveForEarn = 0
}

// walkStreak 对 [start, until] 逐日套用分类器和状态机，纯函数便于测试。
// until 早于 start 时不走任何一天（例如追踪首日当天）。
func walkStreak(start, until time.Time, active, skippedOnly map[string]struct{}, restDays map[string]bool) streakWalk {
	var walk streakWalk

	for cursor := start; !cursor.After(until); cursor = cursor.AddDate(0, 0, 1) {
		key := cursor.Format(dayFormat)
		_, hasActive := active[key]
		_, isSkippedOnly := skippedOnly[key]
		earned, isRest := restDays[key]

		class := ClassifyDay(DayFacts{
			HasActive:   hasActive,
			SkippedOnly: isSkippedOnly,
			IsRest:      isRest,
			RestEarned:  earned,
		})

		switch class {
		case DayActive:
			walk.applyActive()
		case DayRestEarned:
			// 挣得的休息日延续连胜，但不推进挣取进度：休息日不生休息日
			walk.tempStreak++
		case DaySkippedOnly:
			// 只打了 skipped 的日子保持中立：不加分也不中断
		default:
			// Empty 或未挣得的休息日都视为缺席
			walk.applyBreak()
		}
	}

	return walk
}

// dayOf 将任意时间归一化到 loc 时区的当天零点。
func dayOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

func minDay(a, b time.Time) time.Time {
	if a.After(b) {
		return b
	}
	return a
}

func daysBetween(start, end time.Time) int {
	return int(end.Sub(start).Hours() / 24)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
