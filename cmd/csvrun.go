package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/domain-enrich/internal/enrich"
	"github.com/sells-group/domain-enrich/internal/jobs"
	"github.com/sells-group/domain-enrich/internal/model"
	"github.com/sells-group/domain-enrich/internal/schema"
	"github.com/sells-group/domain-enrich/internal/table"
)

var (
	csvrunFile    string
	csvrunOutput  string
	csvrunWorkers int
)

var csvrunCmd = &cobra.Command{
	Use:   "csvrun",
	Short: "Enrich a local CSV or XLSX file",
	Long: `Reads a company list from a local file, enriches every row and writes
the result CSV with primary_domain, confidence_score, verification_status
and processing_time_ms columns appended.

Examples:
  # Enrich a CSV, writing companies_enriched.csv next to it
  domain-enrich csvrun --file companies.csv

  # XLSX input, explicit output, 4 concurrent rows
  domain-enrich csvrun --file companies.xlsx --output out.csv --workers 4`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("csvrun"); err != nil {
			return err
		}

		raw, err := os.ReadFile(csvrunFile)
		if err != nil {
			return eris.Wrap(err, "csvrun: read input file")
		}

		var t *table.Table
		var cols schema.Columns
		if strings.EqualFold(filepath.Ext(csvrunFile), ".xlsx") {
			parsed, parseErr := table.ParseXLSX(raw)
			if parseErr != nil {
				return eris.Wrap(parseErr, "csvrun: parse xlsx")
			}
			t, cols, err = schema.ValidateTable(parsed)
		} else {
			t, cols, err = schema.Validate(raw)
		}
		if err != nil {
			return eris.Wrap(err, "csvrun: validate input")
		}
		zap.L().Info("csvrun: parsed input",
			zap.Int("rows", len(t.Rows)),
			zap.String("company_column", cols.CompanyName),
			zap.String("location_column", cols.Location),
		)

		workers := csvrunWorkers
		if workers == 0 {
			workers = cfg.Jobs.Workers
		}

		store := jobs.NewStore(0)
		runner := jobs.NewRunner(store, enrich.NewRowEnricher(newEngine()), jobs.WithWorkers(workers))

		jobID := store.Create(t, cols)
		start := time.Now()
		runner.Start(cmd.Context(), jobID)

		done, _ := store.Done(jobID)
		<-done

		snap, _ := store.Snapshot(jobID)
		for _, msg := range snap.Errors {
			zap.L().Warn("csvrun: row error", zap.String("error", msg))
		}
		if snap.Status != model.JobStatusCompleted {
			return eris.Errorf("csvrun: job %s", snap.Status)
		}

		output, _ := store.Output(jobID)
		outPath := csvrunOutput
		if outPath == "" {
			ext := filepath.Ext(csvrunFile)
			outPath = strings.TrimSuffix(csvrunFile, ext) + "_enriched.csv"
		}
		if err := os.WriteFile(outPath, []byte(output), 0o644); err != nil {
			return eris.Wrap(err, "csvrun: write output file")
		}

		zap.L().Info("csvrun: batch complete",
			zap.Int("rows", snap.Total),
			zap.Int("errors", len(snap.Errors)),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("output", outPath),
		)
		return nil
	},
}

func init() {
	csvrunCmd.Flags().StringVar(&csvrunFile, "file", "", "path to CSV or XLSX file (required)")
	csvrunCmd.Flags().StringVar(&csvrunOutput, "output", "", "output CSV path (default: <input>_enriched.csv)")
	csvrunCmd.Flags().IntVar(&csvrunWorkers, "workers", 0, "concurrent rows (default from config)")
	_ = csvrunCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(csvrunCmd)
}
