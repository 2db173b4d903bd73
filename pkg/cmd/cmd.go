// Package cmd contains the command line applications for the project.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// configPath 配置文件或配置目录路径.
	configPath string
	// debug 打开 CLI 调试输出.
	debug bool

	rootCmd = &cobra.Command{
		Use:   "assetsrv",
		Short: "A build server for game assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./", "config file or directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")

	registerServeCommands()
	registerWorkerCommands()
	registerConfigsCommands()
	registerDBCommands()
	registerKVCommands()
	registerMQCommands()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
