package main

import (
	"fmt"
	"log"
	"time"

	"github.com/goaltrack/internal/config"
	"github.com/goaltrack/internal/db"
	"github.com/goaltrack/internal/service"
)

// 测试数据生成器
func main() {
	// 初始化数据库
	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	loc := cfg.Location()
	window, err := service.ParseTrackingWindow(cfg.TrackingStart, cfg.TrackingEnd, loc)
	if err != nil {
		log.Fatal("追踪窗口配置非法:", err)
	}

	fmt.Println("开始生成测试数据...")

	goals := createTestGoals()
	createTestOutputs(window)
	createTestReminders(goals, loc)

	fmt.Println("测试数据生成完成！")
	fmt.Printf("目标: %d 个（含里程碑与提醒）\n", len(goals))
	fmt.Println("产出: 追踪窗口起始两周的活跃记录与休息日")
}

// 创建测试目标与里程碑
func createTestGoals() []db.Goal {
	var count int64
	db.DB.Model(&db.Goal{}).Count(&count)
	if count > 0 {
		fmt.Println("目标已存在，跳过创建")
		var existing []db.Goal
		db.DB.Find(&existing)
		return existing
	}

	svc := service.NewGoalService(db.DB)
	seeds := []struct {
		input      service.GoalInput
		milestones []service.MilestoneInput
	}{
		{
			input: service.GoalInput{
				Title:       "完成个人年度看板",
				Description: "## 目标\n把每天的产出记录下来，年底复盘。",
				Category:    "side-project",
			},
			milestones: []service.MilestoneInput{
				{Title: "搭好后端骨架", SortOrder: 1},
				{Title: "接通热力图前端", SortOrder: 2},
				{Title: "上线提醒派发", SortOrder: 3},
			},
		},
		{
			input: service.GoalInput{
				Title:       "读完十本技术书",
				Description: "从分布式系统和数据库内核开始。",
				Category:    "learning",
			},
			milestones: []service.MilestoneInput{
				{Title: "读完 DDIA", SortOrder: 1},
				{Title: "读完数据库系统内幕", SortOrder: 2},
			},
		},
		{
			input: service.GoalInput{
				Title:    "跑完半程马拉松",
				Category: "health",
			},
		},
	}

	var goals []db.Goal
	for _, seed := range seeds {
		goal, err := svc.Create(1, seed.input)
		if err != nil {
			log.Printf("创建目标失败: %v", err)
			continue
		}
		for _, m := range seed.milestones {
			if _, err := svc.AddMilestone(1, goal.ID, m); err != nil {
				log.Printf("创建里程碑失败: %v", err)
			}
		}
		goals = append(goals, *goal)
	}

	fmt.Println("✅ 测试目标创建完成")
	return goals
}

// 创建窗口起始两周的产出记录：先连续活跃七天攒出休息额度，
// 第八天休息，之后混入 planned/skipped 记录。
func createTestOutputs(window service.TrackingWindow) {
	var count int64
	db.DB.Model(&db.DailyOutput{}).Count(&count)
	if count > 0 {
		fmt.Println("产出已存在，跳过创建")
		return
	}

	titles := []string{
		"实现连胜计算",
		"写热力图聚合查询",
		"整理接口文档",
		"晨跑五公里",
		"读书笔记一章",
		"重构提醒调度",
		"复盘本周进度",
	}

	for i := 0; i < 7; i++ {
		output := db.DailyOutput{
			UserID:     1,
			OutputDate: window.Start.AddDate(0, 0, i),
			Title:      titles[i%len(titles)],
			Category:   "deep-work",
			Duration:   60 + i*15,
			Status:     "done",
		}
		if err := db.DB.Create(&output).Error; err != nil {
			log.Printf("创建产出失败: %v", err)
		}
	}

	// 第八天用挣得的额度休息
	rest := db.OutputRestDay{
		UserID:   1,
		RestDate: window.Start.AddDate(0, 0, 7),
		IsEarned: true,
	}
	if err := db.DB.Create(&rest).Error; err != nil {
		log.Printf("创建休息日失败: %v", err)
	}

	later := []db.DailyOutput{
		{UserID: 1, OutputDate: window.Start.AddDate(0, 0, 8), Title: "恢复训练", Category: "health", Duration: 45, Status: "done"},
		{UserID: 1, OutputDate: window.Start.AddDate(0, 0, 9), Title: "计划中的重构", Category: "deep-work", Duration: 90, Status: "planned"},
		{UserID: 1, OutputDate: window.Start.AddDate(0, 0, 9), Title: "临时搁置的阅读", Category: "learning", Duration: 30, Status: "skipped"},
		{UserID: 1, OutputDate: window.Start.AddDate(0, 0, 10), Title: "补上热力图样式", Category: "deep-work", Duration: 120, Status: "done"},
	}
	for i := range later {
		if err := db.DB.Create(&later[i]).Error; err != nil {
			log.Printf("创建产出失败: %v", err)
		}
	}

	fmt.Println("✅ 测试产出创建完成")
}

// 为每个目标配一条提醒，覆盖三种频率
func createTestReminders(goals []db.Goal, loc *time.Location) {
	var count int64
	db.DB.Model(&db.Reminder{}).Count(&count)
	if count > 0 {
		fmt.Println("提醒已存在，跳过创建")
		return
	}

	svc := service.NewReminderService(db.DB, loc)
	now := time.Now()

	inputs := []service.ReminderInput{
		{Frequency: "daily", RemindTime: "09:00", Message: "记录昨天的产出"},
		{Frequency: "weekly", WeeklyDays: "1,4", RemindTime: "20:30", Message: "每周同步读书进度"},
		{Frequency: "monthly", MonthlyDay: 1, RemindTime: "08:00", Message: "月初制定训练计划"},
	}

	for i, goal := range goals {
		input := inputs[i%len(inputs)]
		if _, err := svc.Create(goal.ID, input, now); err != nil {
			log.Printf("创建提醒失败: %v", err)
		}
	}

	fmt.Println("✅ 测试提醒创建完成")
}
