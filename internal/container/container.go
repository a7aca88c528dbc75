package container

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mautops/appraisal-gin/internal/api"
	"github.com/mautops/appraisal-gin/internal/auth"
	"github.com/mautops/appraisal-gin/internal/config"
	"github.com/mautops/appraisal-gin/internal/database"
	"github.com/mautops/appraisal-gin/internal/lifecycle"
	"github.com/mautops/appraisal-gin/internal/metrics"
	"github.com/mautops/appraisal-gin/internal/repository"
	"github.com/mautops/appraisal-gin/internal/scoring"
	"github.com/mautops/appraisal-gin/internal/service"
)

// collectInterval 状态分布指标刷新间隔
const collectInterval = 30 * time.Second

// Container 依赖注入容器
// 管理数据库、仓储、权重表、业务服务和身份解析器
type Container struct {
	cfg       *config.Config
	db        *gorm.DB
	repos     *repository.Repositories
	weights   *scoring.Provider
	resolver  auth.IdentityResolver
	services  api.Services
	collector *metrics.Collector
}

// NewContainer 创建依赖注入容器
// 根据配置初始化所有依赖组件
func NewContainer(cfg *config.Config) (*Container, error) {
	// 1. 初始化数据库（带重试机制）
	db, err := database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// 执行数据库迁移
	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return newContainer(cfg, db)
}

// NewContainerWithDB 使用已有连接创建容器,不执行迁移
func NewContainerWithDB(cfg *config.Config, db *gorm.DB) (*Container, error) {
	return newContainer(cfg, db)
}

func newContainer(cfg *config.Config, db *gorm.DB) (*Container, error) {
	// 2. 权重表
	weights, err := scoring.NewProvider(cfg.Scoring)
	if err != nil {
		return nil, fmt.Errorf("failed to load scoring table: %w", err)
	}

	// 3. 仓储与服务
	repos := repository.NewRepositories(db)
	deps := service.Deps{
		DB:        db,
		Repos:     repos,
		Lifecycle: lifecycle.NewController(nil),
		Audit:     service.NewAuditLogService(repos.AuditLogs),
	}
	services := api.Services{
		Profiles:    service.NewProfileService(deps),
		Intake:      service.NewIntakeService(deps, weights),
		Evaluations: service.NewEvaluationService(deps, weights),
		Decisions:   service.NewDecisionService(deps),
		Query:       service.NewQueryService(deps),
	}

	// 4. 身份解析器
	var resolver auth.IdentityResolver
	switch cfg.Auth.Mode {
	case "header":
		resolver = auth.NewHeaderResolver()
	default:
		if cfg.Keycloak.Issuer == "" {
			return nil, fmt.Errorf("keycloak.issuer is required when auth.mode is keycloak")
		}
		resolver = auth.NewKeycloakTokenValidator(cfg.Keycloak.Issuer, cfg.Keycloak.JWKSURL, cfg.Keycloak.ClientID)
	}

	// 5. 状态分布指标收集器
	collector := metrics.NewCollector(db, collectInterval, map[string]metrics.StatusCounter{
		string(lifecycle.EntityAppraisal):  repos.Appraisals,
		string(lifecycle.EntityEvaluation): repos.Evaluations,
	})

	return &Container{
		cfg:       cfg,
		db:        db,
		repos:     repos,
		weights:   weights,
		resolver:  resolver,
		services:  services,
		collector: collector,
	}, nil
}

// DB 获取数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// Repositories 获取仓储集合
func (c *Container) Repositories() *repository.Repositories {
	return c.repos
}

// Weights 获取权重表
func (c *Container) Weights() *scoring.Provider {
	return c.weights
}

// Services 获取业务服务
func (c *Container) Services() api.Services {
	return c.services
}

// Resolver 获取身份解析器
func (c *Container) Resolver() auth.IdentityResolver {
	return c.resolver
}

// Collector 获取指标收集器
func (c *Container) Collector() *metrics.Collector {
	return c.collector
}

// Router 构建 HTTP 路由
func (c *Container) Router() *gin.Engine {
	return api.SetupRoutes(api.RouterOptions{
		DB:         c.db,
		Resolver:   c.resolver,
		Services:   c.services,
		CORS:       c.cfg.CORS,
		RateLimit:  c.cfg.RateLimit,
		Production: config.IsProduction(c.cfg),
	})
}

// ApplyConfig 应用热更新的配置,目前只有权重表支持热更新
func (c *Container) ApplyConfig(cfg *config.Config) error {
	return c.weights.Set(cfg.Scoring)
}

// Close 关闭容器,清理资源
func (c *Container) Close() error {
	return database.Close(c.db)
}
