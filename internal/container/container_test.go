package container_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mautops/appraisal-gin/internal/auth"
	"github.com/mautops/appraisal-gin/internal/config"
	"github.com/mautops/appraisal-gin/internal/container"
)

func testConfig() *config.Config {
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = ":memory:"
	cfg.Auth.Mode = "header"
	return cfg
}

// TestNewContainer 测试容器装配
func TestNewContainer(t *testing.T) {
	ctr, err := container.NewContainer(testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Close() })

	assert.NotNil(t, ctr.DB())
	assert.NotNil(t, ctr.Repositories())
	assert.NotNil(t, ctr.Services().Intake)
	assert.IsType(t, &auth.HeaderResolver{}, ctr.Resolver())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	ctr.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	ctr.Collector().CollectOnce()
}

// TestNewContainer_KeycloakRequiresIssuer 测试 keycloak 模式缺少 issuer
func TestNewContainer_KeycloakRequiresIssuer(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Mode = "keycloak"
	_, err := container.NewContainer(cfg)
	assert.Error(t, err)

	cfg.Keycloak.Issuer = "https://sso.college.edu/realms/staff"
	ctr, err := container.NewContainer(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Close() })
	assert.IsType(t, &auth.KeycloakTokenValidator{}, ctr.Resolver())
}

// TestApplyConfig 测试权重表热更新
func TestApplyConfig(t *testing.T) {
	cfg := testConfig()
	ctr, err := container.NewContainer(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Close() })

	updated := *cfg
	updated.Scoring.Research.Papers.PerUnit = 20
	require.NoError(t, ctr.ApplyConfig(&updated))
	assert.Equal(t, 20.0, ctr.Weights().Get().Research.Papers.PerUnit)

	// 非法权重表被拒绝,保留原值
	broken := *cfg
	broken.Scoring.Blend.Teaching = 1.5
	assert.Error(t, ctr.ApplyConfig(&broken))
	assert.Equal(t, 20.0, ctr.Weights().Get().Research.Papers.PerUnit)
}
