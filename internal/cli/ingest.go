package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mediscript/internal/domain/models/record"
	"mediscript/internal/domain/services"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]...",
	Short: "Extract records from prescription PDFs",
	Long: `Runs each file through recognition and stores the results as pending
records. Zip archives are expanded into their members. Files that are not
PDFs are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

// ingestPolicy overrides the configured batch policy.
var ingestPolicy string

func init() {
	ingestCmd.Flags().StringVar(&ingestPolicy, "policy", "", "Batch policy: fail_fast or best_effort (default from BATCH_POLICY)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if newIngestService == nil {
		return errors.New("ingest service not configured")
	}

	policy := services.BatchPolicy(ingestPolicy)
	switch policy {
	case "", services.PolicyFailFast, services.PolicyBestEffort:
	default:
		return fmt.Errorf("unknown policy %q (want fail_fast or best_effort)", ingestPolicy)
	}

	docs := make([]record.SourceDocument, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		docs = append(docs, record.SourceDocument{Name: filepath.Base(path), Data: data})
	}

	result, err := newIngestService(policy).Run(cmd.Context(), docs, func(p services.Progress) {
		status := "ok"
		if p.Error != "" {
			status = "failed: " + p.Error
		}
		cmd.Printf("[%d/%d] %s %s\n", p.Completed, p.Total, p.Document, status)
	})
	if result == nil {
		return err
	}

	for _, s := range result.Skipped {
		cmd.Printf("skipped %s: %s\n", s.Document, s.Reason)
	}
	cmd.Println()
	cmd.Printf("Ingested %d of %d documents (%s)\n", result.Succeeded, result.Total, result.Policy)
	for _, r := range result.Records {
		cmd.Printf("  %s  %s\n", r.ID, r.DocumentType)
	}

	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	return nil
}
