package database_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mautops/appraisal-gin/internal/config"
	"github.com/mautops/appraisal-gin/internal/database"
	"github.com/mautops/appraisal-gin/internal/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func appraisal(id, faculty, year string) *model.SelfAppraisalModel {
	return &model.SelfAppraisalModel{
		ID:           id,
		FacultyID:    faculty,
		DepartmentID: "d1",
		AcademicYear: year,
		Name:         "Test Faculty",
		Status:       "draft",
		Revision:     1,
	}
}

// TestMigrate 测试迁移创建全部表
func TestMigrate(t *testing.T) {
	db := setupTestDB(t)
	for _, m := range database.Models() {
		assert.True(t, db.Migrator().HasTable(m), "%T", m)
	}
	// 重复迁移幂等
	assert.NoError(t, database.Migrate(db))
}

// TestActiveAppraisalUniqueIndex 测试未作废自评的唯一约束
func TestActiveAppraisalUniqueIndex(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.Create(appraisal("a1", "f1", "2024-2025")).Error)

	err := db.Create(appraisal("a2", "f1", "2024-2025")).Error
	require.Error(t, err)
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))

	// 作废后可以重新创建
	now := time.Now()
	require.NoError(t, db.Model(&model.SelfAppraisalModel{}).Where("id = ?", "a1").Update("superseded_at", &now).Error)
	assert.NoError(t, db.Create(appraisal("a3", "f1", "2024-2025")).Error)

	// 其他学年不受影响
	assert.NoError(t, db.Create(appraisal("a4", "f1", "2025-2026")).Error)
}

// TestMetricsRoundTrip 测试嵌入指标与 JSON 列的读写
func TestMetricsRoundTrip(t *testing.T) {
	db := setupTestDB(t)

	a := appraisal("a1", "f1", "2024-2025")
	hours := 18
	a.Metrics.TeachingLoadHours = &hours
	require.NoError(t, db.Create(a).Error)

	var got model.SelfAppraisalModel
	require.NoError(t, db.First(&got, "id = ?", "a1").Error)
	require.NotNil(t, got.Metrics.TeachingLoadHours)
	assert.Equal(t, 18, *got.Metrics.TeachingLoadHours)
	assert.Nil(t, got.Metrics.PatentsFiled)
	assert.Empty(t, got.Metrics.Courses)
}

// TestCheckHealth 测试健康检查
func TestCheckHealth(t *testing.T) {
	db := setupTestDB(t)
	assert.True(t, database.CheckHealth(db))
	assert.False(t, database.CheckHealth(nil))
}

// TestConnect_UnsupportedDriver 测试不支持的驱动
func TestConnect_UnsupportedDriver(t *testing.T) {
	_, err := database.Connect(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

// TestGetPoolConfig 测试连接池默认值
func TestGetPoolConfig(t *testing.T) {
	pool := database.GetPoolConfig(config.DatabaseConfig{MaxOpenConns: 50})
	assert.Equal(t, 50, pool.MaxOpenConns)
	assert.Equal(t, 10, pool.MaxIdleConns)
	assert.Equal(t, 3600, pool.ConnMaxLifetime)
	assert.Equal(t, 600, pool.ConnMaxIdleTime)
}

// TestBuildDSN 测试 DSN 拼接
func TestBuildDSN(t *testing.T) {
	dsn := database.BuildDSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "appraisal", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=appraisal sslmode=disable", dsn)
}
