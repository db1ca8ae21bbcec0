// Command crmctl runs maintenance tasks against the CRM database.
package main

import (
	"fmt"
	"os"

	"conveycrm/internal/app"
	"conveycrm/internal/config"
	"conveycrm/internal/database"
	"conveycrm/internal/pkg/logging"
	"conveycrm/internal/repository"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verbose      bool
	workflowPath string
	logger       *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "crmctl",
	Short:         "ConveyCRM maintenance commands",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "info"
		if verbose {
			level = "debug"
		}
		var err error
		logger, err = logging.New(level, false)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&workflowPath, "workflow", "", "workflow rules file (defaults to WORKFLOW_FILE or the built-in rules)")

	rootCmd.AddCommand(seedCmd, createUserCmd, validateWorkflowCmd, markOverdueCmd, purgeTokensCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// env loads config, the workflow rules and a migrated database, then wires the app.
func env() (*app.App, *config.Workflow, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	path := workflowPath
	if path == "" {
		path = cfg.WorkflowFile
	}
	wf, err := config.LoadWorkflow(path)
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := repository.Migrate(db); err != nil {
		return nil, nil, err
	}
	return app.New(cfg, db, app.Options{Workflow: wf, Logger: logger}), wf, nil
}
