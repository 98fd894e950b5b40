package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goaltrack/internal/db"
	"github.com/goaltrack/internal/service"
)

type reminderPayload struct {
	Type          string `json:"type"`
	Frequency     string `json:"frequency"`
	WeeklyDays    string `json:"weekly_days"`
	MonthlyDay    int    `json:"monthly_day"`
	SpecificDates string `json:"specific_dates"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	RemindTime    string `json:"remind_time"`
	Message       string `json:"message"`
	IsActive      *bool  `json:"is_active"`
}

// ListReminders 返回目标下的提醒列表
func (a *API) ListReminders(c *gin.Context) {
	goal, ok := a.resolveGoal(c)
	if !ok {
		return
	}

	reminders, err := a.reminders.ListForGoal(goal.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取提醒列表失败")
		return
	}

	items := make([]gin.H, 0, len(reminders))
	for i := range reminders {
		items = append(items, reminderToPayload(&reminders[i]))
	}

	c.JSON(http.StatusOK, gin.H{"reminders": items})
}

// CreateReminder 创建提醒并推算首个触发时间
func (a *API) CreateReminder(c *gin.Context) {
	goal, ok := a.resolveGoal(c)
	if !ok {
		return
	}

	input, ok := a.parseReminderInput(c)
	if !ok {
		return
	}

	reminder, err := a.reminders.Create(goal.ID, input, time.Now())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "创建提醒失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"reminder": reminderToPayload(reminder)})
}

// UpdateReminder 更新提醒
func (a *API) UpdateReminder(c *gin.Context) {
	goal, ok := a.resolveGoal(c)
	if !ok {
		return
	}

	reminder, ok := a.resolveReminder(c, goal)
	if !ok {
		return
	}

	input, ok := a.parseReminderInput(c)
	if !ok {
		return
	}

	updated, err := a.reminders.Update(reminder.ID, input, time.Now())
	if err != nil {
		handleReminderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reminder": reminderToPayload(updated)})
}

// ToggleReminder 切换提醒启用状态
func (a *API) ToggleReminder(c *gin.Context) {
	goal, ok := a.resolveGoal(c)
	if !ok {
		return
	}

	reminder, ok := a.resolveReminder(c, goal)
	if !ok {
		return
	}

	toggled, err := a.reminders.Toggle(reminder.ID, time.Now())
	if err != nil {
		handleReminderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reminder": reminderToPayload(toggled)})
}

// DeleteReminder 删除提醒
func (a *API) DeleteReminder(c *gin.Context) {
	goal, ok := a.resolveGoal(c)
	if !ok {
		return
	}

	reminder, ok := a.resolveReminder(c, goal)
	if !ok {
		return
	}

	if err := a.reminders.Delete(reminder.ID); err != nil {
		handleReminderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// resolveGoal 解析路径中的目标并校验归属
func (a *API) resolveGoal(c *gin.Context) (*db.Goal, bool) {
	goalID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的目标ID")
		return nil, false
	}

	goal, err := a.goals.Get(defaultUserID, goalID)
	if err != nil {
		handleGoalError(c, err)
		return nil, false
	}
	return goal, true
}

// resolveReminder 解析路径中的提醒并校验与目标的归属关系
func (a *API) resolveReminder(c *gin.Context, goal *db.Goal) (*db.Reminder, bool) {
	reminderID, err := parseUintParam(c, "reminderId")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的提醒ID")
		return nil, false
	}

	reminder, err := a.reminders.Get(reminderID)
	if err != nil {
		handleReminderError(c, err)
		return nil, false
	}

	if reminder.GoalID != goal.ID {
		respondError(c, http.StatusNotFound, "提醒不存在")
		return nil, false
	}
	return reminder, true
}

func (a *API) parseReminderInput(c *gin.Context) (service.ReminderInput, bool) {
	var payload reminderPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return service.ReminderInput{}, false
	}

	loc := a.streaks.Location()
	startPtr, ok := parseOptionalDate(payload.StartDate, loc)
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的开始日期")
		return service.ReminderInput{}, false
	}
	endPtr, ok := parseOptionalDate(payload.EndDate, loc)
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的结束日期")
		return service.ReminderInput{}, false
	}

	return service.ReminderInput{
		Type:          payload.Type,
		Frequency:     payload.Frequency,
		WeeklyDays:    payload.WeeklyDays,
		MonthlyDay:    payload.MonthlyDay,
		SpecificDates: payload.SpecificDates,
		StartDate:     startPtr,
		EndDate:       endPtr,
		RemindTime:    payload.RemindTime,
		Message:       payload.Message,
		IsActive:      payload.IsActive,
	}, true
}

func reminderToPayload(reminder *db.Reminder) gin.H {
	item := gin.H{
		"id":          reminder.ID,
		"goal_id":     reminder.GoalID,
		"type":        reminder.Type,
		"frequency":   reminder.Frequency,
		"remind_time": reminder.RemindTime,
		"message":     reminder.Message,
		"is_active":   reminder.IsActive,
	}

	if reminder.WeeklyDays != "" {
		item["weekly_days"] = reminder.WeeklyDays
	}
	if reminder.MonthlyDay != 0 {
		item["monthly_day"] = reminder.MonthlyDay
	}
	if reminder.SpecificDates != "" {
		item["specific_dates"] = reminder.SpecificDates
	}
	if reminder.StartDate != nil {
		item["start_date"] = reminder.StartDate.Format(dateFormat)
	}
	if reminder.EndDate != nil {
		item["end_date"] = reminder.EndDate.Format(dateFormat)
	}
	if reminder.LastSentAt != nil {
		item["last_sent_at"] = reminder.LastSentAt.Format(time.RFC3339)
	}
	if reminder.NextSendAt != nil {
		item["next_send_at"] = reminder.NextSendAt.Format(time.RFC3339)
	}

	return item
}

func handleReminderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReminderNotFound):
		respondError(c, http.StatusNotFound, "提醒不存在")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
