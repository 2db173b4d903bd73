package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gamepoet/blink-assetsrv/pkg/configs"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/assetstore"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/storage/db"
	"github.com/gamepoet/blink-assetsrv/pkg/log"
)

var (
	dbCmd = &cobra.Command{
		Use:   "db",
		Short: "Database related commands",
	}

	dbListCmd = &cobra.Command{
		Use:   "ls",
		Short: "list all registered database types",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered database types:")
			for _, dbType := range db.GetRegisteredDBTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), " - "+dbType)
			}
		},
	}

	// 不开服务的情况下建表，便于部署脚本预先迁移.
	dbMigrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "create or update the assets table schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := configs.InitConfig(configPath); err != nil {
				return err
			}

			log.Init()

			client, err := db.New(cmd.Context())
			if err != nil {
				return err
			}

			if err := assetstore.New(client.GetDB()).AutoMigrate(); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "assets table migrated")

			return nil
		},
	}
)

// registerDBCommands 注册数据库相关命令.
func registerDBCommands() {
	rootCmd.AddCommand(dbCmd)

	dbCmd.AddCommand(dbListCmd)
	dbCmd.AddCommand(dbMigrateCmd)
}
