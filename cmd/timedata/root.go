package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "timedata",
		Short: "Network-adjusted time from peer clock samples",
		Long: `timedata estimates how far the local clock is from the time perceived by
its peers. Peers report their clock offset, the median of those reports
becomes the offset applied to the local clock, and the operator is warned
when the local clock looks wrong.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(),
		newReplayCmd(),
		newVersionCmd(),
	)

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("timedata version %s", version)
			if commit != "" {
				cmd.Printf(" (%s)", commit)
			}
			cmd.Println()
		},
	}
}
