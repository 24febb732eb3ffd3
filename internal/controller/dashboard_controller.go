package controller

import (
	"learning_aid_backend/internal/middleware"
	"learning_aid_backend/internal/service"
	"learning_aid_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	DashboardService *service.DashboardService
}

func NewDashboardController(dashboardService *service.DashboardService) *DashboardController {
	return &DashboardController{DashboardService: dashboardService}
}

// GetDashboard godoc
// @Summary 获取仪表盘数据
// @Description 当前用户资料与各类学习内容的统计；数据读取失败时返回空统计
// @Tags 仪表盘
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.Dashboard}
// @Router /dashboard [get]
func (c *DashboardController) GetDashboard(ctx *gin.Context) {
	util.Success(ctx, c.DashboardService.GetDashboard(ctx.Request.Context(), middleware.CurrentSession(ctx)))
}
