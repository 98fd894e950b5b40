package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goaltrack/internal/db"
	"github.com/goaltrack/internal/service"
)

type goalPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Status      string `json:"status"`
	TargetDate  string `json:"target_date"`
}

type milestonePayload struct {
	Title      string `json:"title"`
	Memo       string `json:"memo"`
	TargetDate string `json:"target_date"`
	IsDone     bool   `json:"is_done"`
	SortOrder  int    `json:"sort_order"`
}

// ListGoals 返回目标列表 JSON
func (a *API) ListGoals(c *gin.Context) {
	filter := service.GoalFilter{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}

	goals, err := a.goals.List(defaultUserID, filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取目标列表失败")
		return
	}

	items := make([]gin.H, 0, len(goals))
	for i := range goals {
		items = append(items, goalToPayload(&goals[i]))
	}

	c.JSON(http.StatusOK, gin.H{"goals": items})
}

// GetGoal 返回单个目标详情（含里程碑与渲染后的描述）
func (a *API) GetGoal(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的目标ID")
		return
	}

	goal, err := a.goals.Get(defaultUserID, id)
	if err != nil {
		handleGoalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"goal": goalToPayload(goal)})
}

// CreateGoal 创建目标
func (a *API) CreateGoal(c *gin.Context) {
	input, ok := a.parseGoalInput(c)
	if !ok {
		return
	}

	goal, err := a.goals.Create(defaultUserID, input)
	if err != nil {
		respondError(c, http.StatusBadRequest, "创建目标失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"goal": goalToPayload(goal)})
}

// UpdateGoal 更新目标
func (a *API) UpdateGoal(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的目标ID")
		return
	}

	input, ok := a.parseGoalInput(c)
	if !ok {
		return
	}

	goal, err := a.goals.Update(defaultUserID, id, input)
	if err != nil {
		handleGoalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"goal": goalToPayload(goal)})
}

// DeleteGoal 删除目标
func (a *API) DeleteGoal(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的目标ID")
		return
	}

	if err := a.goals.Delete(defaultUserID, id); err != nil {
		handleGoalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// CreateMilestone 在目标下创建里程碑
func (a *API) CreateMilestone(c *gin.Context) {
	goalID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的目标ID")
		return
	}

	input, ok := a.parseMilestoneInput(c)
	if !ok {
		return
	}

	milestone, err := a.goals.AddMilestone(defaultUserID, goalID, input)
	if err != nil {
		handleGoalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"milestone": milestoneToPayload(milestone)})
}

// UpdateMilestone 更新里程碑
func (a *API) UpdateMilestone(c *gin.Context) {
	goalID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的目标ID")
		return
	}

	milestoneID, err := parseUintParam(c, "milestoneId")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的里程碑ID")
		return
	}

	input, ok := a.parseMilestoneInput(c)
	if !ok {
		return
	}

	milestone, err := a.goals.UpdateMilestone(defaultUserID, goalID, milestoneID, input)
	if err != nil {
		handleGoalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"milestone": milestoneToPayload(milestone)})
}

// DeleteMilestone 删除里程碑
func (a *API) DeleteMilestone(c *gin.Context) {
	goalID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的目标ID")
		return
	}

	milestoneID, err := parseUintParam(c, "milestoneId")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的里程碑ID")
		return
	}

	if err := a.goals.DeleteMilestone(defaultUserID, goalID, milestoneID); err != nil {
		handleGoalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (a *API) parseGoalInput(c *gin.Context) (service.GoalInput, bool) {
	var payload goalPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return service.GoalInput{}, false
	}

	targetPtr, ok := parseOptionalDate(payload.TargetDate, a.streaks.Location())
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的目标日期")
		return service.GoalInput{}, false
	}

	if payload.Title == "" {
		respondError(c, http.StatusBadRequest, "目标标题不能为空")
		return service.GoalInput{}, false
	}

	return service.GoalInput{
		Title:       payload.Title,
		Description: payload.Description,
		Category:    payload.Category,
		Status:      payload.Status,
		TargetDate:  targetPtr,
	}, true
}

func (a *API) parseMilestoneInput(c *gin.Context) (service.MilestoneInput, bool) {
	var payload milestonePayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return service.MilestoneInput{}, false
	}

	targetPtr, ok := parseOptionalDate(payload.TargetDate, a.streaks.Location())
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的目标日期")
		return service.MilestoneInput{}, false
	}

	if payload.Title == "" {
		respondError(c, http.StatusBadRequest, "里程碑标题不能为空")
		return service.MilestoneInput{}, false
	}

	return service.MilestoneInput{
		Title:      payload.Title,
		Memo:       payload.Memo,
		TargetDate: targetPtr,
		IsDone:     payload.IsDone,
		SortOrder:  payload.SortOrder,
	}, true
}

func goalToPayload(goal *db.Goal) gin.H {
	milestones := make([]gin.H, 0, len(goal.Milestones))
	for i := range goal.Milestones {
		milestones = append(milestones, milestoneToPayload(&goal.Milestones[i]))
	}

	item := gin.H{
		"id":               goal.ID,
		"title":            goal.Title,
		"description":      goal.Description,
		"description_html": renderMarkdown(goal.Description),
		"category":         goal.Category,
		"status":           goal.Status,
		"milestones":       milestones,
	}

	if goal.TargetDate != nil {
		item["target_date"] = goal.TargetDate.Format(dateFormat)
	}

	return item
}

func milestoneToPayload(milestone *db.Milestone) gin.H {
	item := gin.H{
		"id":         milestone.ID,
		"goal_id":    milestone.GoalID,
		"title":      milestone.Title,
		"memo":       milestone.Memo,
		"memo_html":  renderMarkdown(milestone.Memo),
		"is_done":    milestone.IsDone,
		"sort_order": milestone.SortOrder,
	}

	if milestone.TargetDate != nil {
		item["target_date"] = milestone.TargetDate.Format(dateFormat)
	}

	return item
}

func handleGoalError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrGoalNotFound):
		respondError(c, http.StatusNotFound, "目标不存在")
	case errors.Is(err, service.ErrMilestoneNotFound):
		respondError(c, http.StatusNotFound, "里程碑不存在")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
