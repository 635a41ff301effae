package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect and approve stored records",
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List records, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRecordsList,
}

var recordsShowCmd = &cobra.Command{
	Use:   "show [record-id]",
	Short: "Print one record as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordsShow,
}

var recordsApproveCmd = &cobra.Command{
	Use:   "approve [record-id]",
	Short: "Approve a pending record as-is",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordsApprove,
}

var recordsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every record",
	Long:  `Deletes the whole record collection. Requires --yes and is refused in production.`,
	Args:  cobra.NoArgs,
	RunE:  runRecordsClear,
}

var (
	approveReviewer string
	clearConfirmed  bool
)

func init() {
	recordsApproveCmd.Flags().StringVar(&approveReviewer, "reviewer", os.Getenv("USER"), "Reviewer identity recorded in the logs")
	recordsClearCmd.Flags().BoolVar(&clearConfirmed, "yes", false, "Confirm deletion")

	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsShowCmd)
	recordsCmd.AddCommand(recordsApproveCmd)
	recordsCmd.AddCommand(recordsClearCmd)
	rootCmd.AddCommand(recordsCmd)
}

func runRecordsList(cmd *cobra.Command, args []string) error {
	if reviewService == nil {
		return errors.New("review service not configured")
	}

	records, err := reviewService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list records: %w", err)
	}
	if len(records) == 0 {
		cmd.Println("No records found")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tTYPE\tPATIENT\tMEDS\tCREATED")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			r.ID, r.Status, r.DocumentType, orDash(r.Patient.Name), len(r.Medications), r.CreatedAt.Format(time.DateTime))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	cmd.Printf("\nTotal: %d records\n", len(records))
	return nil
}

func runRecordsShow(cmd *cobra.Command, args []string) error {
	if reviewService == nil {
		return errors.New("review service not configured")
	}

	rec, err := reviewService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get record: %w", err)
	}

	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	cmd.Println(string(out))
	return nil
}

func runRecordsApprove(cmd *cobra.Command, args []string) error {
	if reviewService == nil {
		return errors.New("review service not configured")
	}
	if approveReviewer == "" {
		return errors.New("--reviewer is required")
	}

	rec, err := reviewService.Approve(cmd.Context(), args[0], nil, approveReviewer)
	if err != nil {
		return fmt.Errorf("failed to approve record: %w", err)
	}
	cmd.Printf("Approved %s (%d medications)\n", rec.ID, len(rec.Medications))
	return nil
}

func runRecordsClear(cmd *cobra.Command, args []string) error {
	if reviewService == nil {
		return errors.New("review service not configured")
	}
	if environment == "prod" {
		return errors.New("refusing to clear records in production")
	}
	if !clearConfirmed {
		return errors.New("this deletes every record; pass --yes to confirm")
	}

	if err := reviewService.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	cmd.Println("All records deleted")
	return nil
}

func orDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
