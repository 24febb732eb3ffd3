package controller

import (
	"errors"

	"learning_aid_backend/internal/model"
	"learning_aid_backend/internal/service"
	"learning_aid_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ContentController struct {
	ContentService *service.ContentService
	DefaultLevel   model.Level
}

func NewContentController(contentService *service.ContentService, defaultLevel model.Level) *ContentController {
	if !defaultLevel.Valid() {
		defaultLevel = model.DefaultLevel
	}
	return &ContentController{ContentService: contentService, DefaultLevel: defaultLevel}
}

func (c *ContentController) level(ctx *gin.Context) (model.Level, bool) {
	raw := ctx.Query("level")
	if raw == "" {
		return c.DefaultLevel, true
	}
	level, err := model.ParseLevel(raw)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return "", false
	}
	return level, true
}

// ListVocabulary godoc
// @Summary 词汇列表
// @Description 按等级与分类筛选词汇，按创建时间倒序；category=all 表示不过滤
// @Tags 学习内容
// @Produce json
// @Param level query string false "N3 | N2 | N1" default(N3)
// @Param category query string false "分类名称或 slug" default(all)
// @Success 200 {object} util.Response{data=service.VocabularyView}
// @Router /vocabulary [get]
func (c *ContentController) ListVocabulary(ctx *gin.Context) {
	level, ok := c.level(ctx)
	if !ok {
		return
	}
	util.Success(ctx, c.ContentService.ListVocabulary(ctx.Request.Context(), level, ctx.Query("category")))
}

// ListGrammar godoc
// @Summary 语法列表
// @Tags 学习内容
// @Produce json
// @Param level query string false "N3 | N2 | N1" default(N3)
// @Success 200 {object} util.Response{data=util.ListResponse}
// @Router /grammar [get]
func (c *ContentController) ListGrammar(ctx *gin.Context) {
	level, ok := c.level(ctx)
	if !ok {
		return
	}
	points := c.ContentService.ListGrammar(ctx.Request.Context(), level)
	util.Success(ctx, util.ListResponse{List: points, Total: len(points)})
}

// ListKaiwa godoc
// @Summary 会话场景列表
// @Tags 学习内容
// @Produce json
// @Param level query string false "N3 | N2 | N1" default(N3)
// @Success 200 {object} util.Response{data=util.ListResponse}
// @Router /kaiwa [get]
func (c *ContentController) ListKaiwa(ctx *gin.Context) {
	level, ok := c.level(ctx)
	if !ok {
		return
	}
	scenarios := c.ContentService.ListKaiwa(ctx.Request.Context(), level)
	util.Success(ctx, util.ListResponse{List: scenarios, Total: len(scenarios)})
}

func respondItem(ctx *gin.Context, item interface{}, err error) {
	switch {
	case err == nil:
		util.Success(ctx, item)
	case errors.Is(err, util.ErrNotFound):
		util.NotFound(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}

// GetVocabulary godoc
// @Summary 词汇详情
// @Tags 学习内容
// @Produce json
// @Param id path string true "词汇ID"
// @Success 200 {object} util.Response{data=model.VocabularyItem}
// @Failure 404 {object} util.Response
// @Router /vocabulary/{id} [get]
func (c *ContentController) GetVocabulary(ctx *gin.Context) {
	item, err := c.ContentService.GetVocabulary(ctx.Request.Context(), ctx.Param("id"))
	respondItem(ctx, item, err)
}

// GetGrammar godoc
// @Summary 语法详情
// @Tags 学习内容
// @Produce json
// @Param id path string true "语法ID"
// @Success 200 {object} util.Response{data=model.GrammarPoint}
// @Failure 404 {object} util.Response
// @Router /grammar/{id} [get]
func (c *ContentController) GetGrammar(ctx *gin.Context) {
	point, err := c.ContentService.GetGrammar(ctx.Request.Context(), ctx.Param("id"))
	respondItem(ctx, point, err)
}

// GetKaiwa godoc
// @Summary 会话场景详情
// @Description 包含对话与关键短语
// @Tags 学习内容
// @Produce json
// @Param id path string true "场景ID"
// @Success 200 {object} util.Response{data=model.KaiwaScenario}
// @Failure 404 {object} util.Response
// @Router /kaiwa/{id} [get]
func (c *ContentController) GetKaiwa(ctx *gin.Context) {
	scenario, err := c.ContentService.GetKaiwa(ctx.Request.Context(), ctx.Param("id"))
	respondItem(ctx, scenario, err)
}
