// Package cli implements the mediscript command line.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"mediscript/internal/domain/services"
)

var rootCmd = &cobra.Command{
	Use:   "mediscript",
	Short: "Extract and review prescription records",
	Long: `mediscript turns scanned prescription PDFs into structured records
and takes them through pharmacist review and approval.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Services used by the commands. Set with Configure before Execute.
var (
	newIngestService func(policy services.BatchPolicy) services.IngestService
	reviewService    services.ReviewService
	environment      string
)

// Deps are the services the commands run against.
type Deps struct {
	// NewIngest builds the batch orchestrator. An empty policy selects the
	// configured default.
	NewIngest   func(policy services.BatchPolicy) services.IngestService
	Review      services.ReviewService
	Environment string
}

// Configure installs the services used by every command.
func Configure(deps Deps) {
	newIngestService = deps.NewIngest
	reviewService = deps.Review
	environment = deps.Environment
}

// Execute runs the root command with args from os.Args.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
