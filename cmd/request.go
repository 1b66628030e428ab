package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opsmaestro/maestro/internal/agent"
	"github.com/opsmaestro/maestro/internal/decide"
	"github.com/opsmaestro/maestro/internal/intent"
)

var requestCmd = &cobra.Command{
	Use:   "request <text>",
	Short: "Turn a natural-language request into an Ansible playbook",
	Long: `Interpret a natural-language infrastructure request and serve it: reuse a
matching playbook from the store, fill a template, or ask the configured AI
provider when no template covers the intent.

Examples:
  maestro request "Install nginx on Ubuntu"
  maestro request "Open port 8080 on the firewall" --os redhat_family
  maestro request "Create user deploy with groups docker,sudo" --hosts web_servers
  maestro request "Update the config file /etc/nginx/nginx.conf" --provider openai
  maestro request "Install nginx on Ubuntu" --skip-check --execute`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRequest,
}

func init() {
	requestCmd.Flags().String("os", "", "override the detected OS target (debian_family, redhat_family, fedora, all)")
	requestCmd.Flags().String("hosts", "", "inventory group to target (default: all)")
	requestCmd.Flags().String("provider", "", "AI provider for LLM fallback (ollama, gemini, gemini-api, openai, anthropic)")
	requestCmd.Flags().Bool("yes", false, "fail instead of prompting when information is missing")
	requestCmd.Flags().Bool("show", false, "print the resulting playbook")
	requestCmd.Flags().Bool("skip-check", false, "skip the reuse check and always generate a fresh playbook")
	requestCmd.Flags().Bool("execute", false, "trigger the execution workflow for the resulting playbook")
	requestCmd.Flags().Bool("push", false, "push the playbook repo to its remote after committing")
	rootCmd.AddCommand(requestCmd)
}

func runRequest(cmd *cobra.Command, args []string) error {
	rawText := strings.Join(args, " ")
	osOverride, _ := cmd.Flags().GetString("os")
	hosts, _ := cmd.Flags().GetString("hosts")
	provider, _ := cmd.Flags().GetString("provider")
	noPrompt, _ := cmd.Flags().GetBool("yes")
	show, _ := cmd.Flags().GetBool("show")
	skipCheck, _ := cmd.Flags().GetBool("skip-check")
	execute, _ := cmd.Flags().GetBool("execute")
	push, _ := cmd.Flags().GetBool("push")

	opts := agent.Options{Hosts: hosts, SkipReuse: skipCheck, Execute: execute, Push: push}

	a, store, err := newAgent(provider)
	if err != nil {
		return err
	}
	defer store.Close()

	parsed := a.Interpret(rawText)
	if osOverride != "" {
		target, err := parseOSTarget(osOverride)
		if err != nil {
			return err
		}
		parsed.OSTarget = target
	}

	if parsed.Intent == intent.Unknown {
		fmt.Printf("Could not understand the request (confidence below threshold).\n")
		fmt.Printf("Try rephrasing, or see 'maestro intents' for what maestro understands.\n")
		return nil
	}

	fmt.Printf("Intent: %s (confidence %.2f)\n", parsed.Intent, parsed.Confidence)
	fmt.Printf("OS target: %s\n", parsed.OSTarget)
	if len(parsed.Params) > 0 {
		fmt.Println("Parameters:")
		for key, value := range parsed.Params {
			fmt.Printf("  %s: %s\n", key, value)
		}
	}

	decision, err := a.Decide(parsed, skipCheck)
	if err != nil {
		return err
	}

	if decision.Kind == decide.Clarify {
		if decision.Reason == decide.ReasonUnknownIntent {
			fmt.Println("Could not understand the request. See 'maestro intents'.")
			return nil
		}
		if noPrompt {
			return fmt.Errorf("missing required parameters: %s", strings.Join(decision.MissingParams, ", "))
		}
		if err := collectParams(parsed.Params, decision.MissingParams); err != nil {
			return err
		}
		decision, err = a.Decide(parsed, skipCheck)
		if err != nil {
			return err
		}
		if decision.Kind == decide.Clarify {
			return fmt.Errorf("still missing required parameters: %s", strings.Join(decision.MissingParams, ", "))
		}
	}

	outcome, err := a.Execute(cmd.Context(), parsed, decision, opts)
	if err != nil {
		return err
	}

	switch outcome.Decision.Kind {
	case decide.Reuse:
		fmt.Printf("\nReusing existing playbook (similarity %.2f):\n  %s\n",
			outcome.Decision.Reused.Score, outcome.Record.Path)
	case decide.GenerateTemplate:
		fmt.Printf("\nGenerated from template:\n  %s\n", outcome.Record.Path)
	case decide.GenerateLLM:
		fmt.Printf("\nGenerated by AI provider:\n  %s\n", outcome.Record.Path)
	}

	if outcome.Validation != nil {
		fmt.Printf("Validation: %s (%s)\n", okWord(outcome.Validation.Valid), outcome.Validation.Checker)
	}
	if outcome.Workflow != nil {
		mode := ""
		if outcome.Workflow.Simulated {
			mode = " [simulated]"
		}
		fmt.Printf("Workflow: %s %s%s\n", outcome.Workflow.WorkflowID, outcome.Workflow.Status, mode)
	}

	if show {
		fmt.Println("\n" + outcome.Content)
	}
	return nil
}

func okWord(ok bool) string {
	if ok {
		return "passed"
	}
	return "failed"
}

// collectParams prompts for each missing parameter on stdin and fills the
// params map in place.
func collectParams(params map[string]string, missing []string) error {
	reader := bufio.NewReader(os.Stdin)
	for _, name := range missing {
		fmt.Printf("Enter %s: ", name)
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		value := strings.TrimSpace(line)
		if value == "" {
			return fmt.Errorf("no value given for %s", name)
		}
		params[name] = value
	}
	return nil
}

func parseOSTarget(s string) (intent.OSTarget, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debian_family", "debian", "ubuntu":
		return intent.OSDebianFamily, nil
	case "redhat_family", "redhat", "rhel", "centos":
		return intent.OSRedHatFamily, nil
	case "fedora":
		return intent.OSFedora, nil
	case "all", "any":
		return intent.OSAll, nil
	case "unspecified", "":
		return intent.OSUnspecified, nil
	default:
		return "", fmt.Errorf("unknown OS target %q (want debian_family, redhat_family, fedora, or all)", s)
	}
}
