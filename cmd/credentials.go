package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Show which credentials are configured",
	Long: `Report where maestro finds its credentials without printing them.

Values in the config file may be literal secrets or the NAME of an
environment variable (e.g. OPENAI_API_KEY), which is resolved at use time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		printCredential("git token", "git.token")
		printCredential("concert API token", "concert.api_token")
		for _, provider := range []string{"openai", "anthropic", "gemini-api"} {
			printCredential(provider+" API key", fmt.Sprintf("ai.providers.%s.api_key", provider))
		}
		return nil
	},
}

func printCredential(label, key string) {
	value := strings.TrimSpace(viper.GetString(key))
	switch {
	case value == "":
		fmt.Printf("%-22s not configured\n", label+":")
	case strings.ToUpper(value) == value && !strings.Contains(value, " ") && os.Getenv(value) != "":
		fmt.Printf("%-22s from env %s\n", label+":", value)
	default:
		fmt.Printf("%-22s configured (%s)\n", label+":", mask(value))
	}
}

func mask(s string) string {
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "..." + s[len(s)-3:]
}

func init() {
	rootCmd.AddCommand(credentialsCmd)
}
