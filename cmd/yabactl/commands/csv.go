package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newImportCommand(opts *options) *cobra.Command {
	var csvPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import transactions from a CSV file",
		Long: `Import transactions from a ledger CSV file into the account.

The file needs a header row with date, description, value and tags columns.
Either every row is imported or none is.

Examples:
  yabactl import --csv ledger.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if csvPath == "" {
				return errors.New("--csv is required")
			}
			f, err := os.Open(csvPath)
			if err != nil {
				return fmt.Errorf("open csv: %w", err)
			}
			defer f.Close()

			l, err := openOwnedLedger(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer l.Close()

			summary, err := l.csv.Import(cmd.Context(), l.owner.ID, f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return json.NewEncoder(out).Encode(summary)
			}
			fmt.Fprintf(out, "Imported %d transactions (%d new tags, %d links)\n",
				summary.Rows, summary.TagsCreated, summary.Links)
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV file to import")
	return cmd
}

func newExportCommand(opts *options) *cobra.Command {
	var csvPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export transactions as CSV",
		Long: `Export every transaction in the account, oldest first, as ledger CSV.

Examples:
  yabactl export --csv ledger.csv
  yabactl export > ledger.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := openOwnedLedger(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer l.Close()

			var w io.Writer = cmd.OutOrStdout()
			if csvPath != "" {
				f, err := os.Create(csvPath)
				if err != nil {
					return fmt.Errorf("create csv: %w", err)
				}
				defer f.Close()
				w = f
			}

			n, err := l.csv.Export(cmd.Context(), l.owner.ID, w)
			if err != nil {
				return err
			}
			if csvPath != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d transactions to %s\n", n, csvPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Destination file (default: stdout)")
	return cmd
}
