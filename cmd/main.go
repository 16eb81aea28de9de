package main

import (
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	v1 "smartnote/api/v1"
	"smartnote/config"
	"smartnote/dao"
	"smartnote/internal/summarizer"
	"smartnote/internal/summary"
	myvalidator "smartnote/internal/validator"
	"smartnote/middleware"
	"smartnote/model"
	"smartnote/service"
)

func main() {
	// 初始化配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "../"
	}
	config.InitConfig(configPath)
	config.InitRedis()

	logger := newLogger(config.GlobalConfig.Log.Level)
	defer logger.Sync()

	if config.GlobalConfig.Server.Mode != "" {
		gin.SetMode(config.GlobalConfig.Server.Mode)
	}

	// 初始化数据库
	db, err := gorm.Open(mysql.Open(config.GlobalConfig.MySQL.DSN), &gorm.Config{})
	if err != nil {
		logger.Fatal("open mysql failed", zap.Error(err))
	}

	// 自动迁移
	if err := db.AutoMigrate(&model.User{}, &model.Note{}); err != nil {
		logger.Fatal("auto migrate failed", zap.Error(err))
	}

	// 初始化 DAO 和 Service
	userDAO := dao.NewUserDAO(db)
	userService := service.NewUserService(userDAO, config.RedisClient)
	userAPI := v1.NewUserAPI(userService)

	sum := summarizer.New(config.GlobalConfig.OpenAI)
	noteDAO := dao.NewNoteDAO(db)
	marker := summary.NewMarkerStore(config.RedisClient)
	noteService := service.NewNoteService(noteDAO, marker, sum, logger)
	noteAPI := v1.NewNoteAPI(noteService)
	summarizeAPI := v1.NewSummarizeAPI(sum)

	// 初始化路由
	r := gin.New()
	r.Use(middleware.Logger(logger), gin.Recovery())
	// 浏览器端直连，CORS 全放行（含 OPTIONS 预检）
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 注册自定义校验器
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("mobile", myvalidator.IsMobile); err != nil {
			logger.Fatal("register validator failed", zap.Error(err))
		}
	}

	// 公共路由
	public := r.Group("/api/v1")
	{
		public.POST("/users/register", userAPI.Register)
		loginLimiter := middleware.LoginRateLimiter(config.RedisClient, 5, time.Minute)
		public.POST("/users/login", loginLimiter, userAPI.Login)
		public.POST("/users/refresh", userAPI.RefreshToken)
		// 无状态摘要代理，不依赖登录态
		public.POST("/summarize", summarizeAPI.Summarize)
	}

	// 私有路由
	private := r.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(userService.Session))
	{
		private.POST("/users/logout", userAPI.Logout)
		private.GET("/notes", noteAPI.List)
		private.POST("/notes", noteAPI.Create)
		private.GET("/notes/stats", noteAPI.Stats)
		private.PUT("/notes/:id", noteAPI.Update)
		private.DELETE("/notes/:id", noteAPI.Delete)
		private.POST("/notes/:id/summarize", noteAPI.Summarize)
	}

	// 启动服务
	if err := r.Run(config.GlobalConfig.Server.Port); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil && level != "" {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
