package service

import (
	"errors"
	"testing"

	"github.com/goaltrack/internal/db"
)

func TestGoalCRUD(t *testing.T) {
	cleanup := setupStreakTestDB(t)
	defer cleanup()

	svc := NewGoalService(db.DB)

	goal, err := svc.Create(1, GoalInput{
		Title:       "  系统学习分布式系统  ",
		Description: "从 MIT 6.824 开始",
		Category:    "learning",
		Status:      "unknown",
	})
	if err != nil {
		t.Fatalf("Create 返回错误: %v", err)
	}
	if goal.Title != "系统学习分布式系统" {
		t.Fatalf("标题应去除首尾空白, got %q", goal.Title)
	}
	if goal.Status != "active" {
		t.Fatalf("未知状态应归一化为 active, got %q", goal.Status)
	}

	updated, err := svc.Update(1, goal.ID, GoalInput{Title: "分布式系统", Status: "completed"})
	if err != nil {
		t.Fatalf("Update 返回错误: %v", err)
	}
	if updated.Status != "completed" || !svc.IsFinished(updated) {
		t.Fatalf("更新后状态应为 completed, got %q", updated.Status)
	}

	if err := svc.Delete(1, goal.ID); err != nil {
		t.Fatalf("Delete 返回错误: %v", err)
	}
	if _, err := svc.Get(1, goal.ID); !errors.Is(err, ErrGoalNotFound) {
		t.Fatalf("删除后应返回 ErrGoalNotFound, got %v", err)
	}
}

func TestGoalCreateRequiresTitle(t *testing.T) {
	cleanup := setupStreakTestDB(t)
	defer cleanup()

	svc := NewGoalService(db.DB)
	if _, err := svc.Create(1, GoalInput{Title: "   "}); err == nil {
		t.Fatalf("空标题应报错")
	}
}

func TestGoalListFilters(t *testing.T) {
	cleanup := setupStreakTestDB(t)
	defer cleanup()

	svc := NewGoalService(db.DB)
	seed := []GoalInput{
		{Title: "跑完半程马拉松", Category: "health", Status: "active"},
		{Title: "读完十本技术书", Category: "learning", Status: "active"},
		{Title: "完成开源贡献", Category: "learning", Status: "completed"},
	}
	for _, input := range seed {
		if _, err := svc.Create(1, input); err != nil {
			t.Fatalf("Create 返回错误: %v", err)
		}
	}

	goals, err := svc.List(1, GoalFilter{Category: "learning"})
	if err != nil {
		t.Fatalf("List 返回错误: %v", err)
	}
	if len(goals) != 2 {
		t.Fatalf("按分类过滤应得 2 条, got %d", len(goals))
	}

	goals, err = svc.List(1, GoalFilter{Status: "completed"})
	if err != nil {
		t.Fatalf("List 返回错误: %v", err)
	}
	if len(goals) != 1 || goals[0].Title != "完成开源贡献" {
		t.Fatalf("按状态过滤结果不符: %+v", goals)
	}

	goals, err = svc.List(1, GoalFilter{Search: "马拉松"})
	if err != nil {
		t.Fatalf("List 返回错误: %v", err)
	}
	if len(goals) != 1 {
		t.Fatalf("标题模糊搜索应得 1 条, got %d", len(goals))
	}

	// 其他用户看不到
	goals, err = svc.List(2, GoalFilter{})
	if err != nil {
		t.Fatalf("List 返回错误: %v", err)
	}
	if len(goals) != 0 {
		t.Fatalf("不同用户的目标不应互相可见, got %d", len(goals))
	}
}

func TestMilestoneLifecycle(t *testing.T) {
	cleanup := setupStreakTestDB(t)
	defer cleanup()

	svc := NewGoalService(db.DB)
	goal, err := svc.Create(1, GoalInput{Title: "读完十本技术书"})
	if err != nil {
		t.Fatalf("Create 返回错误: %v", err)
	}

	second, err := svc.AddMilestone(1, goal.ID, MilestoneInput{Title: "读完第五本", SortOrder: 2})
	if err != nil {
		t.Fatalf("AddMilestone 返回错误: %v", err)
	}
	first, err := svc.AddMilestone(1, goal.ID, MilestoneInput{Title: "读完第一本", SortOrder: 1})
	if err != nil {
		t.Fatalf("AddMilestone 返回错误: %v", err)
	}

	loaded, err := svc.Get(1, goal.ID)
	if err != nil {
		t.Fatalf("Get 返回错误: %v", err)
	}
	if len(loaded.Milestones) != 2 {
		t.Fatalf("里程碑数量 = %d, want 2", len(loaded.Milestones))
	}
	if loaded.Milestones[0].ID != first.ID {
		t.Fatalf("里程碑应按 SortOrder 升序排列")
	}

	done, err := svc.UpdateMilestone(1, goal.ID, first.ID, MilestoneInput{Title: "读完第一本", IsDone: true, SortOrder: 1})
	if err != nil {
		t.Fatalf("UpdateMilestone 返回错误: %v", err)
	}
	if !done.IsDone {
		t.Fatalf("里程碑应标记为完成")
	}

	if err := svc.DeleteMilestone(1, goal.ID, second.ID); err != nil {
		t.Fatalf("DeleteMilestone 返回错误: %v", err)
	}
	if _, err := svc.UpdateMilestone(1, goal.ID, second.ID, MilestoneInput{Title: "x"}); !errors.Is(err, ErrMilestoneNotFound) {
		t.Fatalf("删除后应返回 ErrMilestoneNotFound, got %v", err)
	}

	// 里程碑操作必须归属正确的目标
	otherGoal, err := svc.Create(1, GoalInput{Title: "另一个目标"})
	if err != nil {
		t.Fatalf("Create 返回错误: %v", err)
	}
	if _, err := svc.UpdateMilestone(1, otherGoal.ID, first.ID, MilestoneInput{Title: "x"}); !errors.Is(err, ErrMilestoneNotFound) {
		t.Fatalf("跨目标访问里程碑应返回 ErrMilestoneNotFound, got %v", err)
	}
}
