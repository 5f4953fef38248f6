/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/bbm-admin/apiserver/config"
	"github.com/bbm-admin/apiserver/internal/db"
	"github.com/bbm-admin/apiserver/internal/services"
	"github.com/bbm-admin/apiserver/internal/store"
	"github.com/spf13/cobra"
)

var (
	adminEmail    string
	adminPassword string
	adminInactive bool
)

// adminCmd represents the admin command.
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage administrator accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an administrator account",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		conn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("open database failed: %w", err)
		}
		defer conn.Close()

		adminService := services.NewAdminService(store.NewAdminRepository(conn))
		admin, err := adminService.CreateWithPassword(cmd.Context(), adminEmail, adminPassword, !adminInactive)
		if err != nil {
			return fmt.Errorf("create admin failed: %w", err)
		}

		fmt.Printf("created admin %s (id %d)\n", admin.Email, admin.ID)
		return nil
	},
}

var adminDeactivateCmd = &cobra.Command{
	Use:   "deactivate",
	Short: "Deactivate an administrator account",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		conn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("open database failed: %w", err)
		}
		defer conn.Close()

		adminService := services.NewAdminService(store.NewAdminRepository(conn))
		if err := adminService.SetActive(cmd.Context(), adminEmail, false); err != nil {
			return fmt.Errorf("deactivate admin failed: %w", err)
		}

		fmt.Printf("deactivated admin %s\n", adminEmail)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminCreateCmd)
	adminCmd.AddCommand(adminDeactivateCmd)

	adminCreateCmd.Flags().StringVar(&adminEmail, "email", "", "email address for the account")
	adminCreateCmd.Flags().StringVar(&adminPassword, "password", "", "password for the account")
	adminCreateCmd.Flags().BoolVar(&adminInactive, "inactive", false, "create the account without login access")
	_ = adminCreateCmd.MarkFlagRequired("email")
	_ = adminCreateCmd.MarkFlagRequired("password")

	adminDeactivateCmd.Flags().StringVar(&adminEmail, "email", "", "email address of the account")
	_ = adminDeactivateCmd.MarkFlagRequired("email")
}
