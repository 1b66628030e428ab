package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/opsmaestro/maestro/internal/validate"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show maestro's configuration and environment",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Output dir:    %s\n", viper.GetString("output.dir"))
		fmt.Printf("Templates dir: %s\n", viper.GetString("templates.dir"))
		fmt.Printf("Inventory dir: %s\n", viper.GetString("inventory.dir"))
		fmt.Printf("Log file:      %s\n", viper.GetString("logging.file"))
		fmt.Printf("AI provider:   %s\n", viper.GetString("ai.default_provider"))

		v := validate.NewValidator()
		if v.HasAnsible() {
			fmt.Println("Validation:    ansible-playbook --syntax-check")
		} else {
			fmt.Println("Validation:    YAML structure only (ansible-playbook not on PATH)")
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		records, err := store.List()
		if err != nil {
			return err
		}
		fmt.Printf("Playbooks:     %d stored\n", len(records))

		if repo := newRepo(); repo != nil {
			fmt.Printf("Git:           enabled, branch %s\n", viper.GetString("git.branch"))
			if viper.GetString("git.remote") != "" {
				info, err := repo.RemoteStatus(cmd.Context())
				if err != nil {
					fmt.Printf("Remote:        unreachable (%v)\n", err)
				} else {
					fmt.Printf("Remote:        %s/%s (default branch %s)\n", info.Owner, info.Name, info.DefaultBranch)
				}
			}
			if entries, err := repo.Log(cmd.Context(), 5); err == nil && len(entries) > 0 {
				fmt.Println("Recent commits:")
				for _, line := range entries {
					fmt.Printf("  %s\n", line)
				}
			}
		} else {
			fmt.Println("Git:           disabled")
		}

		if viper.GetBool("concert.enabled") {
			mode := "real"
			if viper.GetBool("concert.simulation_mode") {
				mode = "simulated"
			}
			fmt.Printf("Concert:       enabled (%s), workflow %s\n", mode, viper.GetString("concert.workflow_name"))
		} else {
			fmt.Println("Concert:       disabled")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
