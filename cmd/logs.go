package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/opsmaestro/maestro/internal/logging"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recent log entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("lines")
		lines, err := logging.RecentLines(viper.GetString("logging.file"), n)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			fmt.Println("No log entries yet.")
			return nil
		}
		for _, line := range lines {
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	logsCmd.Flags().Int("lines", 50, "number of recent lines to show")
	rootCmd.AddCommand(logsCmd)
}
