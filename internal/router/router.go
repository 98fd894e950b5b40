package router

import (
	"github.com/gin-gonic/gin"
	"github.com/goaltrack/internal/handler"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API) *gin.Engine {
	r := gin.Default()

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/goals", api.ListGoals)
		apiGroup.GET("/goals/:id", api.GetGoal)
		apiGroup.POST("/goals", api.CreateGoal)
		apiGroup.PUT("/goals/:id", api.UpdateGoal)
		apiGroup.DELETE("/goals/:id", api.DeleteGoal)

		apiGroup.POST("/goals/:id/milestones", api.CreateMilestone)
		apiGroup.PUT("/goals/:id/milestones/:milestoneId", api.UpdateMilestone)
		apiGroup.DELETE("/goals/:id/milestones/:milestoneId", api.DeleteMilestone)

		apiGroup.GET("/goals/:id/reminders", api.ListReminders)
		apiGroup.POST("/goals/:id/reminders", api.CreateReminder)
		apiGroup.PUT("/goals/:id/reminders/:reminderId", api.UpdateReminder)
		apiGroup.POST("/goals/:id/reminders/:reminderId/toggle", api.ToggleReminder)
		apiGroup.DELETE("/goals/:id/reminders/:reminderId", api.DeleteReminder)

		apiGroup.GET("/outputs", api.ListOutputs)
		apiGroup.POST("/outputs", api.CreateOutput)
		apiGroup.PUT("/outputs/:id", api.UpdateOutput)
		apiGroup.DELETE("/outputs/:id", api.DeleteOutput)
		apiGroup.POST("/outputs/:id/status", api.ToggleOutputStatus)
		apiGroup.POST("/outputs/rest-days", api.ToggleRestDay)

		apiGroup.GET("/streak", api.GetStreak)
		apiGroup.GET("/heatmap", api.GetHeatmap)
		apiGroup.GET("/stats", api.GetOutputStats)
	}

	return r
}
