package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/opsmaestro/maestro/internal/match"
)

var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "Inspect the stored playbooks",
}

var artifactsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored playbooks, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		records, err := store.List()
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No playbooks stored yet.")
			return nil
		}

		for _, rec := range records {
			fmt.Printf("%s  %-20s %-15s %-8s %s\n",
				rec.CreatedAt.Local().Format(time.DateTime),
				rec.Intent, rec.OSTarget, rec.Source, rec.Path)
			if len(rec.Params) > 0 {
				fmt.Printf("%-21s%s\n", "", formatParams(rec.Params))
			}
		}
		return nil
	},
}

var artifactsMatchCmd = &cobra.Command{
	Use:   "match <text>",
	Short: "Show how stored playbooks rank against a request",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		interp, err := newInterpreter()
		if err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		parsed := interp.Interpret(strings.Join(args, " "))
		fmt.Printf("Intent: %s (confidence %.2f), OS target: %s\n\n", parsed.Intent, parsed.Confidence, parsed.OSTarget)

		records, err := store.List()
		if err != nil {
			return err
		}
		results := match.Rank(parsed, records)
		if len(results) == 0 {
			fmt.Println("No stored playbook matches this intent.")
			return nil
		}
		for _, r := range results {
			fmt.Printf("%.3f  %s\n", r.Score, r.Artifact.Path)
		}
		return nil
	},
}

var artifactsRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the playbook index from the files on disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.Rebuild()
		if err != nil {
			return err
		}
		fmt.Printf("Indexed %d playbook(s).\n", n)
		return nil
	},
}

func formatParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	return strings.Join(pairs, " ")
}

func init() {
	artifactsCmd.AddCommand(artifactsListCmd)
	artifactsCmd.AddCommand(artifactsMatchCmd)
	artifactsCmd.AddCommand(artifactsRebuildCmd)
	rootCmd.AddCommand(artifactsCmd)
}
