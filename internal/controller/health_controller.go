package controller

import (
	"context"
	"net/http"
	"time"

	"learning_aid_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type HealthController struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewHealthController(db *gorm.DB, rdb *redis.Client) *HealthController {
	return &HealthController{DB: db, Redis: rdb}
}

// HealthCheck godoc
// @Summary 健康检查
// @Description 检查数据库与缓存连接
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	components := gin.H{"database": "up"}
	healthy := true

	sqlDB, err := c.DB.DB()
	if err != nil || sqlDB.PingContext(pingCtx) != nil {
		components["database"] = "down"
		healthy = false
	}

	// redis 为可选组件，未启用时不影响整体状态
	if c.Redis == nil {
		components["redis"] = "disabled"
	} else if err := c.Redis.Ping(pingCtx).Err(); err != nil {
		components["redis"] = "down"
	} else {
		components["redis"] = "up"
	}

	if !healthy {
		ctx.JSON(http.StatusServiceUnavailable, util.Response{
			Code:    http.StatusServiceUnavailable,
			Message: "unavailable",
			Data:    gin.H{"status": "down", "components": components},
		})
		return
	}
	util.Success(ctx, gin.H{"status": "ok", "components": components})
}
