package commands

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newParityCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "parity",
		Short: "List transactions whose tags and #hashtags disagree",
		Long: `Compare each transaction's tags with the #hashtags in its description.

Tag names and hashtags are compared lower-cased and sorted. The command exits
with an error when any transaction disagrees.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := openOwnedLedger(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer l.Close()

			mismatches, err := l.csv.CheckParity(cmd.Context(), l.owner.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				if err := json.NewEncoder(out).Encode(mismatches); err != nil {
					return err
				}
			} else if len(mismatches) > 0 {
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tDESCRIPTION\tTAGS\tHASHTAGS")
				for _, m := range mismatches {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.TransactionID, m.Description,
						strings.Join(m.Tags, ","), strings.Join(m.Hashtags, ","))
				}
				if err := w.Flush(); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(out, "All transactions match their hashtags")
			}

			if len(mismatches) > 0 {
				return fmt.Errorf("%d transactions out of parity", len(mismatches))
			}
			return nil
		},
	}
}

func newHashtagCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "hashtag",
		Short: "Append #tag to each tagged description",
		Long: `Append " #name" to the description of every tagged transaction, once
per attached tag. Running it twice appends the hashtags twice.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := openOwnedLedger(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer l.Close()

			updated, err := l.csv.AppendHashtags(cmd.Context(), l.owner.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d transactions\n", updated)
			return nil
		},
	}
}
