// Package cli implements the cobra command tree. Commands talk to the
// core exclusively through the driving ports; wiring happens in main.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/quern-dev/quern/internal/core/ports/driving"
	"github.com/quern-dev/quern/internal/logger"
)

// version is set at wiring time from the build.
var version = "dev"

// Services injected by main before Execute.
var (
	ingestService   driving.Ingestor
	retrieveService driving.Retriever
	answerService   driving.Assistant
	feedbackService driving.FeedbackRecorder
	documentService driving.DocumentManager
	settingsService driving.SettingsService
)

var (
	verbose bool

	// ephemeral is consumed by main before the command tree parses
	// flags; declared here so cobra accepts it.
	ephemeral bool
)

var rootCmd = &cobra.Command{
	Use:   "quern",
	Short: "Grounded Q&A over your private documents",
	Long: `Quern ingests your documents into a local knowledge base and answers
questions grounded in their content. Answers cite the passages they
came from; validated answers can be taught back into the base.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

// Services bundles everything the commands need.
type Services struct {
	Ingest   driving.Ingestor
	Retrieve driving.Retriever
	Answer   driving.Assistant
	Feedback driving.FeedbackRecorder
	Document driving.DocumentManager
	Settings driving.SettingsService
}

// SetServices injects the core services into the command tree.
func SetServices(s Services) {
	ingestService = s.Ingest
	retrieveService = s.Retrieve
	answerService = s.Answer
	feedbackService = s.Feedback
	documentService = s.Document
	settingsService = s.Settings
}

// SetVersion sets the version string printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging to stderr")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "use in-memory storage, nothing persists")
}
