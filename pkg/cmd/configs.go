package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gamepoet/blink-assetsrv/pkg/configs"
)

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configs.InitConfig(configPath)
		},
	}

	configPathCmd = &cobra.Command{
		Use:   "path",
		Short: "Print the config file in use",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := configs.GetViper()
			if v == nil || v.ConfigFileUsed() == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "no config file in use (defaults and env only)")

				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), v.ConfigFileUsed())

			return nil
		},
	}

	configShowCmd = &cobra.Command{
		Use:     "show",
		Short:   "Print the effective config values as JSON",
		Aliases: []string{"debug"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if debug {
				// viper 自带的内部状态 dump，排查覆盖来源时有用
				configs.GetViper().Debug()
			}

			b, err := json.MarshalIndent(configs.GetConfig(), "", "  ")
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(b))

			return nil
		},
	}
)

func registerConfigsCommands() {
	configCmd.AddCommand(configPathCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}
