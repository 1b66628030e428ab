package cmd

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/opsmaestro/maestro/internal/agent"
	"github.com/opsmaestro/maestro/internal/ai"
	"github.com/opsmaestro/maestro/internal/artifact"
	"github.com/opsmaestro/maestro/internal/concert"
	"github.com/opsmaestro/maestro/internal/gitops"
	"github.com/opsmaestro/maestro/internal/intent"
	"github.com/opsmaestro/maestro/internal/logging"
	"github.com/opsmaestro/maestro/internal/template"
	"github.com/opsmaestro/maestro/internal/validate"
)

// loadCatalog returns the configured intent catalog, or the built-in one
// when intents.file is not set.
func loadCatalog() (*intent.Catalog, error) {
	if path := viper.GetString("intents.file"); path != "" {
		return intent.LoadCatalog(path)
	}
	return intent.DefaultCatalog(), nil
}

func newInterpreter() (*intent.Interpreter, error) {
	catalog, err := loadCatalog()
	if err != nil {
		return nil, err
	}
	return intent.NewInterpreter(catalog, viper.GetFloat64("interpret.min_confidence")), nil
}

func newLogger() (*zap.Logger, error) {
	return logging.New(viper.GetString("logging.file"), viper.GetBool("debug"))
}

func openStore() (*artifact.Store, error) {
	return artifact.NewStore(viper.GetString("output.dir"))
}

// newRepo returns the artifact git repo, or nil when versioning is disabled.
func newRepo() *gitops.Repo {
	if !viper.GetBool("git.enabled") {
		return nil
	}
	return gitops.NewRepo(
		viper.GetString("output.dir"),
		viper.GetString("git.remote"),
		viper.GetString("git.branch"),
		viper.GetString("git.token"),
	)
}

func newConcertClient() *concert.Client {
	return concert.NewClient(
		viper.GetString("concert.api_url"),
		concert.WithEnabled(viper.GetBool("concert.enabled")),
		concert.WithSimulation(viper.GetBool("concert.simulation_mode")),
		concert.WithToken(viper.GetString("concert.api_token")),
		concert.WithWorkflowName(viper.GetString("concert.workflow_name")),
	)
}

// newAgent assembles the full pipeline. The caller owns closing the returned
// store.
func newAgent(provider string) (*agent.Agent, *artifact.Store, error) {
	interp, err := newInterpreter()
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger()
	if err != nil {
		return nil, nil, err
	}
	store, err := openStore()
	if err != nil {
		return nil, nil, err
	}

	debug := viper.GetBool("debug")
	var repo agent.Committer
	if r := newRepo(); r != nil {
		repo = r
	}

	a, err := agent.New(agent.Config{
		Interp:         interp,
		ReuseThreshold: viper.GetFloat64("reuse.threshold"),
		Store:          store,
		Templates:      template.NewGenerator(viper.GetString("templates.dir")),
		LLM:            ai.NewClient(provider, "", debug),
		Validator:      validate.NewValidator(),
		Repo:           repo,
		Workflow:       newConcertClient(),
		Logger:         logger,
	})
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to assemble pipeline: %w", err)
	}
	return a, store, nil
}
