package cmd_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mautops/appraisal-gin/cmd"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content, err := yaml.Marshal(map[string]interface{}{
		"auth": map[string]string{"mode": "header"},
		"database": map[string]string{
			"driver": "sqlite",
			"path":   filepath.Join(dir, "appraisal.db"),
		},
		"log": map[string]string{"level": "error", "output": "stdout"},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := cmd.GetRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// TestCommandsRegistered 测试子命令注册
func TestCommandsRegistered(t *testing.T) {
	root := cmd.GetRootCmd()
	for _, name := range [][]string{{"server"}, {"migrate"}, {"department", "create"}, {"department", "list"}} {
		found, _, err := root.Find(name)
		require.NoError(t, err, name)
		assert.Equal(t, name[len(name)-1], found.Name())
	}
}

// TestMigrateAndDepartments 测试迁移与部门管理命令
func TestMigrateAndDepartments(t *testing.T) {
	configPath := writeConfig(t)

	_, err := run(t, "migrate", "--config", configPath)
	require.NoError(t, err)

	out, err := run(t, "department", "create", "--config", configPath, "--name", "Computer Science", "--code", "cse")
	require.NoError(t, err)
	assert.Contains(t, out, "created department Computer Science (CSE)")

	_, err = run(t, "department", "create", "--config", configPath, "--name", "Duplicate", "--code", "CSE")
	assert.Error(t, err)

	out, err = run(t, "department", "list", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "CSE")
	assert.Contains(t, out, "Computer Science")
}

// TestMigrate_BadConfig 测试配置非法时报错
func TestMigrate_BadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  mode: basic\n"), 0o600))

	_, err := run(t, "migrate", "--config", path)
	assert.Error(t, err)
}
