package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var intentsCmd = &cobra.Command{
	Use:   "intents",
	Short: "List the intents maestro understands",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog()
		if err != nil {
			return err
		}

		for _, def := range catalog.Definitions() {
			kind := "llm"
			if def.Deterministic {
				kind = "template"
			}
			fmt.Printf("%s (%s)\n", def.Name, kind)

			var triggers []string
			for _, pat := range def.Patterns {
				triggers = append(triggers, strings.Join(pat.Variants, "|"))
			}
			fmt.Printf("  triggers: %s\n", strings.Join(triggers, " + "))
			if len(def.RequiredParams) > 0 {
				fmt.Printf("  required: %s\n", strings.Join(def.RequiredParams, ", "))
			}
			if len(def.OptionalParams) > 0 {
				fmt.Printf("  optional: %s\n", strings.Join(def.OptionalParams, ", "))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(intentsCmd)
}
