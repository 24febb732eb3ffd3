package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"learning_aid_backend/internal/config"
	"learning_aid_backend/internal/controller"
	"learning_aid_backend/internal/middleware"
	"learning_aid_backend/internal/model"
	"learning_aid_backend/internal/repository"
	"learning_aid_backend/internal/service"
	"learning_aid_backend/pkg/configwatcher"
	"learning_aid_backend/pkg/database"
	"learning_aid_backend/pkg/logger"
	"learning_aid_backend/pkg/monitoring"
	"learning_aid_backend/pkg/security"
	"learning_aid_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App 持有运行期依赖；ConfigPath 为空时不监听配置变更
type App struct {
	Config          *config.Config
	ConfigPath      string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	repos           *repositories
	services        *services
	limiter         *security.Limiter
	scheduler       *gocron.Scheduler
	shutdownTracer  func(context.Context) error
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user     *repository.UserRepository
	progress *repository.ProgressRepository
	content  *repository.ContentRepository
	chat     *repository.ChatRepository
	token    *repository.TokenRepository
}

type services struct {
	auth      *service.AuthService
	progress  *service.ProgressService
	content   *service.ContentService
	dashboard *service.DashboardService
	chat      *service.ChatService
}

type controllers struct {
	auth      *controller.AuthController
	content   *controller.ContentController
	progress  *controller.ProgressController
	dashboard *controller.DashboardController
	chat      *controller.ChatController
	health    *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// Connect opens the database and the optional redis client.
func Connect(cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode == "debug")
	if err != nil {
		return nil, nil, err
	}
	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	return db, rdb, nil
}

func initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		progress: repository.NewProgressRepository(db),
		content:  repository.NewContentRepository(db),
		chat:     repository.NewChatRepository(db),
		token:    repository.NewTokenRepository(rdb),
	}
}

func newIdentityProvider(cfg *config.Config, users service.UserStore) service.IdentityProvider {
	if cfg.Auth.Provider == config.AuthProviderLocal {
		return service.NewLocalIdentity(users, cfg.TokenSecret(), cfg.JWT.ExpireTime)
	}
	return service.NewSupabaseIdentity(cfg.Supabase.URL, cfg.Supabase.AnonKey)
}

func initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.auth = service.NewAuthService(newIdentityProvider(cfg, repos.user), repos.user, repos.token, cfg.TokenSecret())
	s.progress = service.NewProgressService(repos.progress)
	s.content = service.NewContentService(repos.content, rdb, cfg.CacheTTL())
	s.dashboard = service.NewDashboardService(repos.user, repos.progress)
	s.chat = service.NewChatService(repos.chat, cfg.Chat.HistoryLimit)

	// 退出登录时释放该用户的聊天会话
	s.auth.OnSignOut(s.chat.Close)

	return s
}

func initControllers(s *services, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth),
		content:   controller.NewContentController(s.content, model.Level(cfg.Content.DefaultLevel)),
		progress:  controller.NewProgressController(s.progress),
		dashboard: controller.NewDashboardController(s.dashboard),
		chat:      controller.NewChatController(s.chat, model.Language(cfg.Chat.DefaultLanguage), cfg.Chat.MessagesPerSecond),
		health:    controller.NewHealthController(db, rdb),
	}
}

func rateWindow(cfg *config.Config) time.Duration {
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	return window
}

func (a *App) setupMiddlewares(router *gin.Engine) {
	router.Use(security.CORS(a.Config.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(a.limiter, rateWindow(a.Config)))

	// 分布式追踪中间件
	if a.Config.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks() error {
	s := gocron.NewScheduler(time.UTC)
	idle := time.Duration(a.Config.Chat.SessionIdleMinutes) * time.Minute

	if _, err := s.Every(1).Minute().Do(func() {
		if n := a.services.chat.EvictIdle(time.Now(), idle); n > 0 {
			logger.Log.Debug("Evicted idle chat sessions", zap.Int("count", n))
		}
	}); err != nil {
		return err
	}
	if _, err := s.Every(5).Minutes().Do(func() {
		a.limiter.Cleanup(time.Now())
		a.repos.token.Prune(time.Now())
	}); err != nil {
		return err
	}

	s.StartAsync()
	a.scheduler = s
	return nil
}

func NewApp(cfg *config.Config) (*App, error) {
	db, rdb, err := Connect(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			return nil, err
		}
	}

	app := &App{
		Config:  cfg,
		DB:      db,
		Redis:   rdb,
		limiter: security.NewLimiter(cfg.RateLimit.MaxRequests, rateWindow(cfg)),
	}

	app.repos = initRepositories(db, rdb)
	app.services = initServices(app.repos, cfg, rdb)
	controllers := initControllers(app.services, cfg, db, rdb)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			return nil, err
		}
		app.shutdownTracer = tp.Shutdown
	}

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := gin.New()
	router.Use(middleware.AccessLogger(), gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router)
	app.registerRoutes(router, controllers)

	if err := app.startBackgroundTasks(); err != nil {
		return nil, err
	}

	app.RegisterConfigCallback(func(newCfg *config.Config) {
		logger.SetLevel(newCfg.Log.Level)
	})

	return app, nil
}

// NewImporter wires the content import pipeline without starting the HTTP server.
func NewImporter(cfg *config.Config) (*service.ImportService, error) {
	db, rdb, err := Connect(cfg)
	if err != nil {
		return nil, err
	}
	storage, err := service.NewStorageProvider(cfg)
	if err != nil {
		return nil, err
	}
	contentRepo := repository.NewContentRepository(db)
	return service.NewImportService(storage, contentRepo, service.NewContentService(contentRepo, rdb, cfg.CacheTTL())), nil
}

func (a *App) watchConfig(ctx context.Context) {
	if a.ConfigPath == "" {
		return
	}
	err := configwatcher.WatchConfig(ctx, a.ConfigPath, func(newCfg *config.Config) {
		for _, cb := range a.configCallbacks {
			cb(newCfg)
		}
	})
	if err != nil {
		logger.Log.Warn("Config watcher stopped", zap.Error(err))
	}
}

func (a *App) Run() error {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go a.watchConfig(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}
	logger.Log.Info("Shutting down server...")

	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if a.shutdownTracer != nil {
		if err := a.shutdownTracer(shutdownCtx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
	return nil
}
