package controller

import (
	"errors"

	"learning_aid_backend/internal/middleware"
	"learning_aid_backend/internal/model"
	"learning_aid_backend/internal/service"
	"learning_aid_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ChatController struct {
	ChatService       *service.ChatService
	DefaultLanguage   model.Language
	MessagesPerSecond int
}

func NewChatController(chatService *service.ChatService, defaultLang model.Language, perSecond int) *ChatController {
	return &ChatController{
		ChatService:       chatService,
		DefaultLanguage:   model.ParseLanguage(string(defaultLang), model.LanguageBurmese),
		MessagesPerSecond: perSecond,
	}
}

// SendMessageRequest 聊天消息
type SendMessageRequest struct {
	Text     string `json:"message"`
	Language string `json:"language"`
}

func (c *ChatController) session(ctx *gin.Context) (*service.ChatSession, bool) {
	cs, err := c.ChatService.Session(ctx.Request.Context(), middleware.CurrentSession(ctx))
	if err != nil {
		util.Unauthorized(ctx)
		return nil, false
	}
	return cs, true
}

// GetHistory godoc
// @Summary 聊天记录
// @Description 最近的聊天记录，按时间正序
// @Tags 学习伙伴
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=util.ListResponse}
// @Router /chat/history [get]
func (c *ChatController) GetHistory(ctx *gin.Context) {
	cs, ok := c.session(ctx)
	if !ok {
		return
	}
	history := cs.History()
	util.Success(ctx, util.ListResponse{List: history, Total: len(history)})
}

// SendMessage godoc
// @Summary 发送消息
// @Description 发送一条消息并获得学习伙伴的回复；language 为 burmese | japanese | english
// @Tags 学习伙伴
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body SendMessageRequest true "消息"
// @Success 200 {object} util.Response{data=service.Exchange}
// @Failure 400 {object} util.Response "消息为空"
// @Failure 409 {object} util.Response "上一条消息仍在处理中"
// @Router /chat/messages [post]
func (c *ChatController) SendMessage(ctx *gin.Context) {
	var req SendMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	cs, ok := c.session(ctx)
	if !ok {
		return
	}

	exchange, err := cs.Send(ctx.Request.Context(), req.Text, model.ParseLanguage(req.Language, c.DefaultLanguage))
	switch {
	case err == nil:
		util.Success(ctx, exchange)
	case errors.Is(err, util.ErrEmptyMessage):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrChatBusy):
		util.Conflict(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// WebSocket godoc
// @Summary 聊天 WebSocket
// @Description 通过 ?token= 传递访问令牌；连接后首帧为历史记录
// @Tags 学习伙伴
// @Param token query string true "访问令牌"
// @Success 101 {string} string "Switching Protocols"
// @Router /chat/ws [get]
func (c *ChatController) WebSocket(ctx *gin.Context) {
	sess := middleware.CurrentSession(ctx)
	if sess == nil {
		util.Unauthorized(ctx)
		return
	}
	// 升级失败时 upgrader 已写回错误响应并记录日志
	_ = service.ServeChatWs(c.ChatService, ctx.Writer, ctx.Request, sess.UserID, c.DefaultLanguage, c.MessagesPerSecond)
}
