package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gamepoet/blink-assetsrv/pkg/internal/storage/mq"
)

var (
	mqCmd = &cobra.Command{
		Use:   "mq",
		Short: "Job queue backends",
	}

	mqListCmd = &cobra.Command{
		Use:     "list",
		Short:   "List the job queue backends built into this binary",
		Aliases: []string{"ls"},
		Run: func(cmd *cobra.Command, args []string) {
			for _, t := range mq.GetRegisteredMQTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), string(t))
			}
		},
	}
)

func registerMQCommands() {
	mqCmd.AddCommand(mqListCmd)
	rootCmd.AddCommand(mqCmd)
}
