package main

import (
	"os"

	"github.com/mavericksstream/unlock/cmd/unlock/cmd"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "unlock",
		Short:         "Pay to unlock videos from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(cmd.VideoCmd())
	rootCmd.AddCommand(cmd.LinkCmd())
	rootCmd.AddCommand(cmd.UploadCmd())
	rootCmd.AddCommand(cmd.HistoryCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
