package controller

import (
	"errors"
	"net/http"

	"learning_aid_backend/internal/middleware"
	"learning_aid_backend/internal/model"
	"learning_aid_backend/internal/service"
	"learning_aid_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

// SignUpRequest 注册请求；字段校验由服务层完成，以便返回统一的提示文案
// swagger:model SignUpRequest
type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInRequest 登录请求
// swagger:model SignInRequest
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest 资料修改请求
type UpdateProfileRequest struct {
	Name         string `json:"name" binding:"required"`
	CurrentLevel string `json:"currentLevel" binding:"required"`
}

// authError maps service errors to responses; it reports false for unexpected errors.
func authError(ctx *gin.Context, err error) bool {
	var providerErr *service.ProviderError
	switch {
	case errors.Is(err, util.ErrWeakPassword),
		errors.Is(err, util.ErrInvalidEmail),
		errors.Is(err, util.ErrNameRequired):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrEmailRegistered):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrInvalidCredentials):
		util.Error(ctx, http.StatusUnauthorized, err.Error())
	case errors.Is(err, util.ErrIdentityProvider):
		util.Error(ctx, http.StatusBadGateway, "Authentication service unavailable")
	case errors.As(err, &providerErr):
		util.Error(ctx, providerErr.Status, providerErr.Message)
	default:
		return false
	}
	return true
}

// SignUp godoc
// @Summary 注册
// @Description 创建账号与学习者资料；密码至少 6 位
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body SignUpRequest true "注册信息"
// @Success 201 {object} util.Response{data=model.User}
// @Failure 400 {object} util.Response "Password must be at least 6 characters"
// @Failure 409 {object} util.Response "邮箱已被注册"
// @Router /auth/signup [post]
func (c *AuthController) SignUp(ctx *gin.Context) {
	var req SignUpRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.AuthService.SignUp(ctx.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if !authError(ctx, err) {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, user)
}

// SignIn godoc
// @Summary 登录
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body SignInRequest true "登录信息"
// @Success 200 {object} util.Response{data=service.AuthToken}
// @Failure 401 {object} util.Response "Invalid login credentials"
// @Router /auth/signin [post]
func (c *AuthController) SignIn(ctx *gin.Context) {
	var req SignInRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	token, err := c.AuthService.SignIn(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		if !authError(ctx, err) {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, token)
}

// SignOut godoc
// @Summary 退出登录
// @Tags 认证
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /auth/signout [post]
func (c *AuthController) SignOut(ctx *gin.Context) {
	if err := c.AuthService.SignOut(ctx.Request.Context(), middleware.CurrentSession(ctx)); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Me godoc
// @Summary 当前用户
// @Tags 认证
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.User}
// @Failure 404 {object} util.Response
// @Router /auth/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	user, err := c.AuthService.CurrentUser(ctx.Request.Context(), middleware.CurrentSession(ctx))
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// UpdateProfile godoc
// @Summary 修改资料
// @Description 修改昵称与当前 JLPT 等级
// @Tags 认证
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body UpdateProfileRequest true "资料"
// @Success 200 {object} util.Response{data=model.User}
// @Router /profile [put]
func (c *AuthController) UpdateProfile(ctx *gin.Context) {
	var req UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	level, err := model.ParseLevel(req.CurrentLevel)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.AuthService.UpdateProfile(ctx.Request.Context(), middleware.CurrentSession(ctx), req.Name, level)
	switch {
	case err == nil:
		util.Success(ctx, user)
	case errors.Is(err, util.ErrNameRequired):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrUserNotFound):
		util.NotFound(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}
