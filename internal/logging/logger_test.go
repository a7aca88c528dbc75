package logging_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mautops/appraisal-gin/internal/config"
	"github.com/mautops/appraisal-gin/internal/logging"
)

// TestNewLoggerFromConfig_JSON 测试 JSON 日志带服务名字段
func TestNewLoggerFromConfig_JSON(t *testing.T) {
	logger, err := logging.NewLoggerFromConfig(&config.LogConfig{Level: "debug", Format: "json", Output: "stdout", Service: "appraisal-test"})
	require.NoError(t, err)

	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.WithField("appraisal_id", "a1").Info("submitted")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "submitted", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "appraisal-test", entry["service"])
	assert.Equal(t, "a1", entry["appraisal_id"])
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
}

// TestNewLoggerFromConfig_File 测试写入日志文件
func TestNewLoggerFromConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.log")
	logger, err := logging.NewLoggerFromConfig(&config.LogConfig{Level: "bogus", Format: "text", Output: "file", File: path})
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())

	logger.Warn("disk write")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "disk write")
	assert.Contains(t, string(data), "service=appraisal-gin")
}

// TestGetLogger 测试默认日志记录器替换
func TestGetLogger(t *testing.T) {
	orig := logging.GetLogger()
	defer logging.SetLogger(orig)

	l := logging.NewLogger()
	logging.SetLogger(l)
	assert.Same(t, l, logging.GetLogger())
}
