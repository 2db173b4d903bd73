package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gamepoet/blink-assetsrv/pkg/internal/storage/kv"
)

var (
	kvCmd = &cobra.Command{
		Use:   "kv",
		Short: "Session store backends",
	}

	kvListCmd = &cobra.Command{
		Use:     "list",
		Short:   "List the session store backends built into this binary",
		Aliases: []string{"ls"},
		Run: func(cmd *cobra.Command, args []string) {
			for _, t := range kv.GetRegisteredKVTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), string(t))
			}
		},
	}
)

func registerKVCommands() {
	kvCmd.AddCommand(kvListCmd)
	rootCmd.AddCommand(kvCmd)
}
