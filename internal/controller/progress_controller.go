package controller

import (
	"learning_aid_backend/internal/middleware"
	"learning_aid_backend/internal/model"
	"learning_aid_backend/internal/service"
	"learning_aid_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progressService *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

// RecordStudy godoc
// @Summary 记录学习
// @Description 记录一次学习；未登录时不做任何记录
// @Tags 学习进度
// @Produce json
// @Param itemType path string true "vocabulary | grammar | kaiwa"
// @Param itemId path string true "内容ID"
// @Success 200 {object} util.Response
// @Router /progress/{itemType}/{itemId} [post]
func (c *ProgressController) RecordStudy(ctx *gin.Context) {
	itemType, err := model.ParseItemType(ctx.Param("itemType"))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	rec := c.ProgressService.RecordStudy(ctx.Request.Context(), middleware.CurrentSession(ctx), itemType, ctx.Param("itemId"))
	util.Success(ctx, gin.H{
		"recorded": rec != nil,
		"progress": rec,
	})
}

// ListProgress godoc
// @Summary 学习进度列表
// @Tags 学习进度
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=util.ListResponse}
// @Router /progress [get]
func (c *ProgressController) ListProgress(ctx *gin.Context) {
	records, err := c.ProgressService.ListProgress(ctx.Request.Context(), middleware.CurrentSession(ctx))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.ListResponse{List: records, Total: len(records)})
}
