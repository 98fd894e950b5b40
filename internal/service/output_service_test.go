package service

import (
	"errors"
	"testing"
	"time"

	"github.com/goaltrack/internal/db"
)

func newTestOutputService() *OutputService {
	return NewOutputService(db.DB, newTestStreakService())
}

func TestCreateOutputNormalizesDate(t *testing.T) {
	cleanup := setupStreakTestDB(t)
	defer cleanup()

	svc := newTestOutputService()
	output, err := svc.Create(1, OutputInput{
		OutputDate: time.Date(2026, time.March, 5, 18, 42, 13, 0, time.UTC),
		Title:      "  实现番茄钟组件  ",
		Duration:   90,
		Status:     "done",
	})
	if err != nil {
		t.Fatalf("Create 返回错误: %v", err)
	}

	if !output.OutputDate.Equal(time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("日期应归一化到当天零点, got %v", output.OutputDate)
	}
	if output.Title != "实现番茄钟组件" {
		t.Fatalf("标题应去除首尾空白, got %q", output.Title)
	}
	if output.SortOrder != 0 {
		t.Fatalf("当天首条产出的 SortOrder 应为 0, got %d", output.SortOrder)
	}
}

func TestCreateOutputAppendsSortOrder(t *testing.T) {
	cleanup := setupStreakTestDB(t)
	defer cleanup()

	svc := newTestOutputService()
	day := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		output, err := svc.Create(1, OutputInput{OutputDate: day, Title: "写作", Duration: 30, Status: "done"})
		if err != nil {
			t.Fatalf("Create 返回错误: %v", err)
		}
		if output.SortOrder != i {
			t.Fatalf("第 %d 条产出的 SortOrder = %d", i+1, output.SortOrder)
		}
	}
}

func TestCreateOutputValidation(t *testing.T) {
	cleanup := setupStreakTestDB(t)
	defer cleanup()

	svc := newTestOutputService()
	inWindow := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		input OutputInput
		want  error
	}{
		{"窗口之前", OutputInput{OutputDate: testWindow.Start.AddDate(0, 0, -1), Title: "x", Duration: 30, Status: "done"}, ErrOutputOutsideWindow},
		{"窗口之后", OutputInput{OutputDate: testWindow.End.AddDate(0, 0, 1), Title: "x", Duration: 30, Status: "done"}, ErrOutputOutsideWindow},
		{"非法状态", OutputInput{OutputDate: inWindow, Title: "x", Duration: 30, Status: "deferred"}, ErrOutputInvalidStatus},
	}
	for _, tc := range cases {
		if _, err := svc.Create(1, tc.input); !errors.Is(err, tc.want) {
			t.Fatalf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}

	if _, err := svc.Create(1, OutputInput{OutputDate: inWindow, Title: "", Duration: 30, Status: "done"}); err == nil {
		t.Fatalf("空标题应报错")
	}
	if _, err := svc.Create(1, OutputInput{OutputDate: inWindow, Title: "x", Duration: 0, Status: "done"}); err == nil {
		t.Fatalf("非法时长应报错")
	}
}

func TestToggleStatus(t *testing.T) {
	cleanup := setupStreakTestDB(t)
	defer cleanup()

	svc := newTestOutputService()
	output, err := svc.Create(1, OutputInput{
		OutputDate: testWindow.Start,
		Title:      "晨跑",
		Duration:   30,
		Status:     "planned",
	})
	if err != nil {
		t.Fatalf("Create 返回错误: %v", err)
	}

	done, err := svc.ToggleStatus(1, output.ID, "done")
	if err != nil {
		t.Fatalf("ToggleStatus 返回错误: %v", err)
	}
	if done.Status != "done" {
		t.Fatalf("状态应为 done, got %q", done.Status)
	}

	if _, err := svc.ToggleStatus(1, output.ID, "finished"); !errors.Is(err, ErrOutputInvalidStatus) {
		t.Fatalf("非法状态应返回 ErrOutputInvalidStatus, got %v", err)
	}
	if _, err := svc.ToggleStatus(1, 9999, "done"); !errors.Is(err, ErrOutputNotFound) {
		t.Fatalf("不存在的记录应返回 ErrOutputNotFound, got %v", err)
	}
}

func TestDeleteOutput(t *testing.T) {
	cleanup := setupStreakTestDB(t)
	defer cleanup()

	svc := newTestOutputService()
	output, err := svc.Create(1, OutputInput{OutputDate: testWindow.Start, Title: "复盘", Duration: 20, Status: "done"})
	if err != nil {
		t.Fatalf("Create 返回错误: %v", err)
	}

	if err := svc.Delete(1, output.ID); err != nil {
		t.Fatalf("Delete 返回错误: %v", err)
	}
	if err := svc.Delete(1, output.ID); !errors.Is(err, ErrOutputNotFound) {
		t.Fatalf("重复删除应返回 ErrOutputNotFound, got %v", err)
	}
	// 其他用户的记录不可见
	other, err := svc.Create(1, OutputInput{OutputDate: testWindow.Start, Title: "复盘", Duration: 20, Status: "done"})
	if err != nil {
		t.Fatalf("Create 返回错误: %v", err)
	}
	if err := svc.Delete(2, other.ID); !errors.Is(err, ErrOutputNotFound) {
		t.Fatalf("跨用户删除应返回 ErrOutputNotFound, got %v", err)
	}
}

func TestToggleRestDayFreezesEarnedFlag(t *testing.T) {
	cleanup := setupStreakTestDB(t)
	defer cleanup()

	// 先攒出一个休息额度：03-02 .. 03-08 连续活跃
	seedActiveDays(t, testWindow.Start, 7)
	svc := newTestOutputService()
	now := testWindow.Start.AddDate(0, 0, 8) // 03-10
	restDate := testWindow.Start.AddDate(0, 0, 7)

	result, err := svc.ToggleRestDay(1, restDate, now)
	if err != nil {
		t.Fatalf("ToggleRestDay 返回错误: %v", err)
	}
	if result.Removed || !result.IsEarned {
		t.Fatalf("有额度时应创建 earned 标记, got %+v", result)
	}

	// 再次切换：删除
	result, err = svc.ToggleRestDay(1, restDate, now)
	if err != nil {
		t.Fatalf("ToggleRestDay 返回错误: %v", err)
	}
	if !result.Removed {
		t.Fatalf("已存在的标记应被删除, got %+v", result)
	}

	dates, err := svc.RestDates(1)
	if err != nil {
		t.Fatalf("RestDates 返回错误: %v", err)
	}
	if len(dates) != 0 {
		t.Fatalf("删除后不应残留休息日, got %v", dates)
	}
}

func TestToggleRestDayWithoutQuotaIsUnearned(t *testing.T) {
	cleanup := setupStreakTestDB(t)
	defer cleanup()

	svc := newTestOutputService()
	now := testWindow.Start.AddDate(0, 0, 3)

	result, err := svc.ToggleRestDay(1, testWindow.Start.AddDate(0, 0, 2), now)
	if err != nil {
		t.Fatalf("ToggleRestDay 返回错误: %v", err)
	}
	if result.IsEarned {
		t.Fatalf("没有额度时标记应为 unearned")
	}
}

func TestToggleRestDayOutsideWindow(t *testing.T) {
	cleanup := setupStreakTestDB(t)
	defer cleanup()

	svc := newTestOutputService()
	if _, err := svc.ToggleRestDay(1, testWindow.End.AddDate(0, 0, 1), testWindow.Start); !errors.Is(err, ErrOutputOutsideWindow) {
		t.Fatalf("窗口外日期应返回 ErrOutputOutsideWindow, got %v", err)
	}
}

func TestStats(t *testing.T) {
	cleanup := setupStreakTestDB(t)
	defer cleanup()

	// 03-02 两条 done、03-03 一条 done、一条 planned 不计
	seedOutput(t, testWindow.Start, "done", 60)
	seedOutput(t, testWindow.Start, "done", 30)
	seedOutput(t, testWindow.Start.AddDate(0, 0, 1), "done", 30)
	seedOutput(t, testWindow.Start.AddDate(0, 0, 1), "planned", 45)

	svc := newTestOutputService()
	now := testWindow.Start.AddDate(0, 0, 4) // 03-06，完成率统计到 03-05 共 4 天
	stats, err := svc.Stats(1, now)
	if err != nil {
		t.Fatalf("Stats 返回错误: %v", err)
	}

	if stats.TotalOutputs != 3 {
		t.Fatalf("TotalOutputs = %d, want 3", stats.TotalOutputs)
	}
	if stats.TotalDuration != 120 {
		t.Fatalf("TotalDuration = %d, want 120", stats.TotalDuration)
	}
	if stats.ActiveDays != 2 {
		t.Fatalf("ActiveDays = %d, want 2", stats.ActiveDays)
	}
	if stats.CompletionRate != 50 {
		t.Fatalf("CompletionRate = %v, want 50", stats.CompletionRate)
	}
	if stats.AvgDurationPerDay != 60 {
		t.Fatalf("AvgDurationPerDay = %d, want 60", stats.AvgDurationPerDay)
	}
}
