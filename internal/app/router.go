package app

import (
	"learning_aid_backend/docs"
	"learning_aid_backend/internal/middleware"
	"learning_aid_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	auth := a.services.auth

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/signup", c.auth.SignUp)
		public.POST("/auth/signin", c.auth.SignIn)
	}

	// 2. 学习内容：可选认证，游客可浏览，登录用户会记录进度
	browse := router.Group("/api")
	browse.Use(middleware.TryAuthMiddleware(auth))
	{
		browse.GET("/vocabulary", c.content.ListVocabulary)
		browse.GET("/vocabulary/:id", c.content.GetVocabulary)
		browse.GET("/grammar", c.content.ListGrammar)
		browse.GET("/grammar/:id", c.content.GetGrammar)
		browse.GET("/kaiwa", c.content.ListKaiwa)
		browse.GET("/kaiwa/:id", c.content.GetKaiwa)
		browse.POST("/progress/:itemType/:itemId", c.progress.RecordStudy)
	}

	// 3. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(auth))
	{
		authGroup.POST("/auth/signout", c.auth.SignOut)
		authGroup.GET("/auth/me", c.auth.Me)
		authGroup.PUT("/profile", c.auth.UpdateProfile)

		authGroup.GET("/dashboard", c.dashboard.GetDashboard)
		authGroup.GET("/progress", c.progress.ListProgress)

		authGroup.GET("/chat/history", c.chat.GetHistory)
		authGroup.POST("/chat/messages", c.chat.SendMessage)
	}

	// 4. WebSocket：浏览器无法设置请求头，仅此路由接受 ?token=
	router.GET("/api/chat/ws", middleware.WSAuthMiddleware(auth), c.chat.WebSocket)
}
