package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goaltrack/internal/db"
	"github.com/goaltrack/internal/service"
)

type outputPayload struct {
	GoalID     *uint  `json:"goal_id"`
	OutputDate string `json:"output_date"`
	Title      string `json:"title"`
	Category   string `json:"category"`
	Duration   int    `json:"duration"`
	Note       string `json:"note"`
	Rating     *int   `json:"rating"`
	Status     string `json:"status"`
}

// ListOutputs 返回追踪窗口内的全部产出，按日期分组
func (a *API) ListOutputs(c *gin.Context) {
	outputs, err := a.outputs.ListWindow(defaultUserID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取产出列表失败")
		return
	}

	grouped := make(map[string][]gin.H)
	for i := range outputs {
		key := outputs[i].OutputDate.In(a.streaks.Location()).Format(dateFormat)
		grouped[key] = append(grouped[key], outputToPayload(&outputs[i]))
	}

	restDates, err := a.outputs.RestDates(defaultUserID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取休息日失败")
		return
	}

	window := a.streaks.Window()
	c.JSON(http.StatusOK, gin.H{
		"outputs":   grouped,
		"rest_days": restDates,
		"range": gin.H{
			"start": window.Start.Format(dateFormat),
			"end":   window.End.Format(dateFormat),
		},
	})
}

// CreateOutput 创建产出记录
func (a *API) CreateOutput(c *gin.Context) {
	input, ok := a.parseOutputInput(c)
	if !ok {
		return
	}

	output, err := a.outputs.Create(defaultUserID, input)
	if err != nil {
		handleOutputError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"output": outputToPayload(output)})
}

// UpdateOutput 更新产出记录
func (a *API) UpdateOutput(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的产出ID")
		return
	}

	input, ok := a.parseOutputInput(c)
	if !ok {
		return
	}

	output, err := a.outputs.Update(defaultUserID, id, input)
	if err != nil {
		handleOutputError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"output": outputToPayload(output)})
}

// DeleteOutput 删除产出记录
func (a *API) DeleteOutput(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的产出ID")
		return
	}

	if err := a.outputs.Delete(defaultUserID, id); err != nil {
		handleOutputError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ToggleOutputStatus 切换产出状态
func (a *API) ToggleOutputStatus(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的产出ID")
		return
	}

	var payload struct {
		Status string `json:"status"`
	}
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	output, err := a.outputs.ToggleStatus(defaultUserID, id, payload.Status)
	if err != nil {
		handleOutputError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"output": outputToPayload(output)})
}

// ToggleRestDay 切换休息日标记
func (a *API) ToggleRestDay(c *gin.Context) {
	var payload struct {
		RestDate string `json:"rest_date"`
	}
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	date, err := time.ParseInLocation(dateFormat, payload.RestDate, a.streaks.Location())
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的休息日日期")
		return
	}

	result, err := a.outputs.ToggleRestDay(defaultUserID, date, time.Now())
	if err != nil {
		handleOutputError(c, err)
		return
	}

	if result.Removed {
		c.JSON(http.StatusOK, gin.H{"removed": true})
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": false, "is_earned": result.IsEarned})
}

// GetStreak 返回当前连胜快照
func (a *API) GetStreak(c *gin.Context) {
	snapshot, err := a.streaks.Calculate(defaultUserID, time.Now())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "计算连胜失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"streak": snapshot})
}

// GetHeatmap 返回整个追踪窗口的热力图
func (a *API) GetHeatmap(c *gin.Context) {
	cells, err := a.streaks.Heatmap(defaultUserID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取热力图数据失败")
		return
	}

	window := a.streaks.Window()
	c.JSON(http.StatusOK, gin.H{
		"heatmap": cells,
		"range": gin.H{
			"start": window.Start.Format(dateFormat),
			"end":   window.End.Format(dateFormat),
		},
	})
}

// GetOutputStats 返回追踪窗口内的整体统计
func (a *API) GetOutputStats(c *gin.Context) {
	stats, err := a.outputs.Stats(defaultUserID, time.Now())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "计算统计信息失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (a *API) parseOutputInput(c *gin.Context) (service.OutputInput, bool) {
	var payload outputPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return service.OutputInput{}, false
	}

	date, err := time.ParseInLocation(dateFormat, payload.OutputDate, a.streaks.Location())
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的产出日期")
		return service.OutputInput{}, false
	}

	return service.OutputInput{
		GoalID:     payload.GoalID,
		OutputDate: date,
		Title:      payload.Title,
		Category:   payload.Category,
		Duration:   payload.Duration,
		Note:       payload.Note,
		Rating:     payload.Rating,
		Status:     payload.Status,
	}, true
}

func outputToPayload(output *db.DailyOutput) gin.H {
	item := gin.H{
		"id":          output.ID,
		"output_date": output.OutputDate.Format(dateFormat),
		"title":       output.Title,
		"category":    output.Category,
		"duration":    output.Duration,
		"note":        output.Note,
		"status":      output.Status,
		"sort_order":  output.SortOrder,
	}

	if output.GoalID != nil {
		item["goal_id"] = *output.GoalID
		if output.Goal != nil {
			item["goal_title"] = output.Goal.Title
		}
	}
	if output.Rating != nil {
		item["rating"] = *output.Rating
	}

	return item
}

func handleOutputError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOutputNotFound):
		respondError(c, http.StatusNotFound, "产出记录不存在")
	case errors.Is(err, service.ErrOutputOutsideWindow):
		respondError(c, http.StatusBadRequest, "日期超出追踪窗口")
	case errors.Is(err, service.ErrOutputInvalidStatus):
		respondError(c, http.StatusBadRequest, "无效的产出状态")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
