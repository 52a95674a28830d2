package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/owner-resolver/internal/api"
	"github.com/sells-group/owner-resolver/internal/lookup"
	"github.com/sells-group/owner-resolver/internal/model"
	"github.com/sells-group/owner-resolver/internal/store"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Look up owner phones, contacts and distress for one lot",
	Example: `  owner-cli lookup --bbl 1-00123-0045
  owner-cli lookup --bbl 3001230045 --save --no-enrich`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		raw, _ := cmd.Flags().GetString("bbl")
		save, _ := cmd.Flags().GetBool("save")
		noEnrich, _ := cmd.Flags().GetBool("no-enrich")

		bbl, err := model.ParseBBL(raw)
		if err != nil {
			return err
		}

		save = save || cfg.Lookup.SaveHistory
		if save {
			cfg.Lookup.SaveHistory = true
		}
		if err := cfg.Validate("lookup"); err != nil {
			return err
		}

		env, err := initResolver(ctx, cfg, save)
		if err != nil {
			return err
		}
		defer env.Close()

		return runLookup(ctx, os.Stdout, env.Resolver, env.Store, bbl, lookup.Options{SkipEnrichment: noEnrich})
	},
}

// runLookup runs one lookup, records it when st is non-nil, and writes the
// report as indented JSON.
func runLookup(ctx context.Context, w io.Writer, l api.Lookuper, st store.Store, bbl model.BBL, opts lookup.Options) error {
	report, err := l.Lookup(ctx, bbl, opts)
	if err != nil {
		return err
	}

	if st != nil {
		if err := st.SaveLookup(ctx, report); err != nil {
			return eris.Wrap(err, "save lookup")
		}
		zap.L().Info("lookup saved", zap.String("id", report.ID), zap.String("bbl", bbl.String()))
	}

	return writeReport(w, report)
}

func writeReport(w io.Writer, report *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(report), "write report")
}

func init() {
	lookupCmd.Flags().String("bbl", "", "borough/block/lot, e.g. 1-00123-0045 or 1001230045")
	lookupCmd.Flags().Bool("save", false, "record the report in lookup history")
	lookupCmd.Flags().Bool("no-enrich", false, "skip third-party contact backfill")
	_ = lookupCmd.MarkFlagRequired("bbl")
	rootCmd.AddCommand(lookupCmd)
}
