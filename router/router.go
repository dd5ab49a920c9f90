package router

import (
	"net/http"
	"time"

	"datalens/api"
	"datalens/config"
	"datalens/database"
	_ "datalens/docs"
	"datalens/middleware"
	"datalens/repository"
	"datalens/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// AnalyzeRateLimitMessage 分析接口限流提示
const AnalyzeRateLimitMessage = "Too many analysis requests. Please wait a minute and try again."

// Dependencies 路由依赖的外部资源，测试时可替换
type Dependencies struct {
	DB               *database.Handle
	Reasoning        service.ReasoningClient
	Sleep            func(time.Duration)
	GoogleHTTPClient *http.Client
}

// NewDependencies 按配置创建生产环境依赖
func NewDependencies(cfg *config.Config) Dependencies {
	key := config.ResolveGeminiKey(cfg)
	return Dependencies{
		DB:        database.Default,
		Reasoning: service.NewGeminiClient(key.Value, cfg.Gemini.BaseURL, cfg.Gemini.Model),
	}
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	// 设置运行模式
	gin.SetMode(cfg.Server.Mode)

	r := gin.Default()

	allow := service.NewOriginAllowlist(cfg.Server.AppURL)
	r.Use(CORSMiddleware(allow))

	key := config.ResolveGeminiKey(cfg)
	reportStore := repository.NewReportStore(deps.DB)
	userStore := repository.NewUserStore(deps.DB)

	invokerOpts := []service.InvokerOption{}
	if deps.Sleep != nil {
		invokerOpts = append(invokerOpts, service.WithSleeper(deps.Sleep))
	}
	invoker := service.NewInvoker(deps.Reasoning, invokerOpts...)

	bridge := service.NewGoogleBridge(cfg, userStore)
	if deps.GoogleHTTPClient != nil {
		bridge.WithHTTPClient(deps.GoogleHTTPClient)
	}
	channel := service.NewHandoffChannel(allow)

	healthHandler := api.NewHealthHandler(cfg, deps.DB, key)
	authHandler := api.NewGoogleAuthHandler(bridge, channel, cfg.JWT.ExpireTime)
	reportHandler := api.NewReportHandler(reportStore)
	exportHandler := api.NewExportHandler(reportStore)
	analyzeHandler := api.NewAnalyzeHandler(invoker, reportStore, key)

	// Google 登录回调（浏览器弹窗直接访问）
	r.GET("/auth/google/callback", authHandler.Callback)
	r.GET("/auth/google/receiver.js", authHandler.ReceiverScript)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/health", healthHandler.Health)
		apiGroup.GET("/auth/google/url", authHandler.GetAuthURL)

		reports := apiGroup.Group("/reports")
		{
			reports.GET("", reportHandler.List)
			reports.POST("", reportHandler.Create)
			reports.GET("/export", middleware.JWTAuth(), exportHandler.ExportExcel)
		}

		apiGroup.POST("/analyze",
			middleware.RateLimit(cfg.RateLimit.AnalyzeMax, cfg.RateLimit.AnalyzeWindow, AnalyzeRateLimitMessage),
			middleware.OptionalJWT(),
			analyzeHandler.Analyze,
		)
	}

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 健康检查
	r.GET("/health", healthHandler.Live)

	return r
}

// CORSMiddleware 只允许应用地址与本地开发地址跨域访问
func CORSMiddleware(allow service.OriginAllowlist) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOriginFunc = allow.Allowed
	corsConfig.AddAllowHeaders("Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true
	return cors.New(corsConfig)
}
