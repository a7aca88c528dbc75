package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mautops/appraisal-gin/internal/auth"
	"github.com/mautops/appraisal-gin/internal/config"
	"github.com/mautops/appraisal-gin/internal/service"
)

// Services 路由依赖的业务服务
type Services struct {
	Profiles    service.ProfileService
	Intake      service.IntakeService
	Evaluations service.EvaluationService
	Decisions   service.DecisionService
	Query       service.QueryService
}

// RouterOptions 路由配置
type RouterOptions struct {
	DB         *gorm.DB
	Resolver   auth.IdentityResolver
	Services   Services
	CORS       config.CORSConfig
	RateLimit  config.RateLimitConfig
	Production bool
}

// SetupRoutes 配置路由
func SetupRoutes(opts RouterOptions) *gin.Engine {
	router := gin.New()

	// 中间件
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware())
	router.Use(SecurityHeadersMiddleware(opts.Production))
	router.Use(CORSMiddleware(opts.CORS))
	router.Use(ErrorHandlerMiddleware())

	// 健康检查与 Prometheus 指标端点不需要认证
	healthController := NewHealthController(opts.DB)
	router.GET("/health", healthController.Check)
	router.GET("/metrics", MetricsHandler)

	profileController := NewProfileController(opts.Services.Profiles)
	appraisalController := NewAppraisalController(opts.Services.Intake, opts.Services.Evaluations, opts.Services.Query)
	evaluationController := NewEvaluationController(opts.Services.Evaluations, opts.Services.Decisions, opts.Services.Query)

	// API v1 路由组
	v1 := router.Group("/api/v1")
	if opts.RateLimit.Enabled {
		v1.Use(RateLimitMiddleware(opts.RateLimit.RPS, opts.RateLimit.Burst))
	}
	v1.Use(auth.Middleware(opts.Resolver))
	{
		profiles := v1.Group("/profiles")
		{
			profiles.POST("", profileController.Register)
			profiles.GET("/me", profileController.Me)
		}

		v1.GET("/departments", profileController.ListDepartments)

		appraisals := v1.Group("/appraisals")
		{
			appraisals.POST("", appraisalController.Create)
			appraisals.GET("", appraisalController.List)
			appraisals.GET("/:id", appraisalController.Get)
			appraisals.PUT("/:id", appraisalController.Update)
			appraisals.POST("/:id/submit", appraisalController.Submit)
			appraisals.POST("/:id/discard", appraisalController.Discard)
			appraisals.GET("/:id/history", appraisalController.History)
			appraisals.POST("/:id/evaluation", appraisalController.OpenEvaluation)
			appraisals.GET("/:id/evaluation", appraisalController.GetEvaluation)
		}

		evaluations := v1.Group("/evaluations")
		{
			evaluations.GET("", evaluationController.List)
			evaluations.GET("/:id", evaluationController.Get)
			evaluations.PUT("/:id/ratings", evaluationController.Rate)
			evaluations.POST("/:id/submit", evaluationController.Submit)
			evaluations.POST("/:id/decision", evaluationController.Decide)
			evaluations.GET("/:id/decision", evaluationController.GetDecision)
		}
	}

	// 未匹配的路由返回 JSON 格式的 404
	router.NoRoute(func(c *gin.Context) {
		Error(c, http.StatusNotFound, "route not found", "the requested route does not exist")
	})

	return router
}
