package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/owner-resolver/internal/model"
	"github.com/sells-group/owner-resolver/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded lookups",
	Long:  "Lists recorded lookups newest first, optionally for a single lot. Pass --id to print one stored report.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("store"); err != nil {
			return err
		}

		st, err := initStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if id, _ := cmd.Flags().GetString("id"); id != "" {
			report, err := st.GetLookup(ctx, id)
			if err != nil {
				return err
			}
			return writeReport(os.Stdout, report)
		}

		raw, _ := cmd.Flags().GetString("bbl")
		limit, _ := cmd.Flags().GetInt("limit")

		filter := store.LookupFilter{Limit: limit}
		if raw != "" {
			bbl, err := model.ParseBBL(raw)
			if err != nil {
				return err
			}
			filter.BBL = bbl.String()
		}

		records, err := st.ListLookups(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "history list")
		}
		if len(records) == 0 {
			fmt.Fprintln(os.Stderr, "No lookups found.")
			return nil
		}
		return printHistory(os.Stdout, records)
	},
}

// printHistory renders records as an aligned table.
func printHistory(w io.Writer, records []store.LookupRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBBL\tOWNER\tCONFIDENCE\tDISTRESS\tCREATED")
	for _, r := range records {
		owner := r.BestGuessName
		if owner == "" {
			owner = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.BBL, owner, r.Confidence, r.Distress, r.CreatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func init() {
	historyCmd.Flags().String("bbl", "", "only lookups for this borough/block/lot")
	historyCmd.Flags().String("id", "", "print the stored report with this ID")
	historyCmd.Flags().Int("limit", 20, "maximum number of lookups to list")
	rootCmd.AddCommand(historyCmd)
}
