package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/opsmaestro/maestro/internal/inventory"
	"github.com/opsmaestro/maestro/internal/logging"
	"github.com/opsmaestro/maestro/internal/template"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "maestro",
	Short: "Natural-language Ansible playbook generation and reuse",
	Long: `Maestro turns natural-language infrastructure requests into Ansible
playbooks. It classifies the request, extracts parameters, reuses matching
playbooks it already generated, and falls back to templates or an LLM when
nothing fits.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.maestro.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug output (shows progress + internal diagnostics)")

	// TODO: add error return here
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	viper.SetDefault("output.dir", "playbooks")
	viper.SetDefault("templates.dir", template.DefaultDir)
	viper.SetDefault("inventory.dir", inventory.DefaultDir)
	viper.SetDefault("logging.file", logging.DefaultLogFile)
	viper.SetDefault("git.branch", "main")
	viper.SetDefault("concert.enabled", true)
	viper.SetDefault("concert.simulation_mode", true)
	viper.SetDefault("concert.workflow_name", "ansible-execution")
	viper.SetDefault("ai.default_provider", "ollama")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".maestro")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("debug") {
			fmt.Println("Using config file:", viper.ConfigFileUsed())
		}
	}
}
