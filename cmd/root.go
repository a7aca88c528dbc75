/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mautops/appraisal-gin/internal/config"
	"github.com/mautops/appraisal-gin/internal/logging"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "appraisal-gin",
	Short: "Faculty appraisal API server",
	Long: `Appraisal Gin runs the annual faculty appraisal workflow:
faculty self-appraisal, HOD evaluation and the principal's final decision,
with scoring driven by a configurable weight table.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file path (default: search in current directory, ./config, or $HOME/.appraisal-gin)")
}

// GetRootCmd 返回根命令（用于测试）
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// loadConfig 加载配置并初始化全局日志
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, "", err
	}

	logger, err := logging.NewLoggerFromConfig(&cfg.Log)
	if err != nil {
		return nil, "", err
	}
	logging.SetLogger(logger)
	return cfg, configPath, nil
}
