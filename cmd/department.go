/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mautops/appraisal-gin/internal/database"
	"github.com/mautops/appraisal-gin/internal/service"
)

// departmentCmd 部门管理
var departmentCmd = &cobra.Command{
	Use:   "department",
	Short: "Manage departments",
	Long:  `Departments are maintained by administrators, faculty and HOD profiles must reference an existing department.`,
}

var departmentCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a department",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		code, _ := cmd.Flags().GetString("code")

		profiles, closeDB, err := openProfileService(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		dept, err := profiles.CreateDepartment(cmd.Context(), &service.CreateDepartmentRequest{Name: name, Code: code})
		if err != nil {
			return fmt.Errorf("failed to create department: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created department %s (%s) id=%s\n", dept.Name, dept.Code, dept.ID)
		return nil
	},
}

var departmentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List departments",
	RunE: func(cmd *cobra.Command, args []string) error {
		profiles, closeDB, err := openProfileService(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		departments, err := profiles.ListDepartments(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list departments: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCODE\tNAME")
		for _, d := range departments {
			fmt.Fprintf(w, "%s\t%s\t%s\n", d.ID, d.Code, d.Name)
		}
		return w.Flush()
	},
}

// openProfileService 连接数据库并创建档案服务
func openProfileService(cmd *cobra.Command) (service.ProfileService, func(), error) {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect database: %w", err)
	}
	closeDB := func() { _ = database.Close(db) }
	return service.NewProfileService(service.Deps{DB: db}), closeDB, nil
}

func init() {
	departmentCreateCmd.Flags().String("name", "", "Department name")
	departmentCreateCmd.Flags().String("code", "", "Department code, alphanumeric")
	_ = departmentCreateCmd.MarkFlagRequired("name")
	_ = departmentCreateCmd.MarkFlagRequired("code")

	departmentCmd.AddCommand(departmentCreateCmd, departmentListCmd)
	rootCmd.AddCommand(departmentCmd)
}
