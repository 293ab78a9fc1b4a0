package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/domain-enrich/internal/model"
)

var (
	lookupCompany  string
	lookupLocation string
	lookupOutput   string
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Find the primary domain for a single company",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("lookup"); err != nil {
			return err
		}

		engine := newEngine()
		result := engine.Enrich(cmd.Context(), model.EnrichmentRequest{
			CompanyName: lookupCompany,
			Address:     model.ParseLocation(lookupLocation),
		})

		zap.L().Info("lookup complete",
			zap.String("company", lookupCompany),
			zap.String("domain", result.PrimaryDomain),
			zap.Float64("confidence", result.ConfidenceScore),
			zap.String("verification", string(result.Verification)),
		)

		w := os.Stdout
		if lookupOutput != "" {
			f, err := os.Create(lookupOutput)
			if err != nil {
				return eris.Wrap(err, "lookup: create output file")
			}
			defer f.Close() //nolint:errcheck
			w = f
		}

		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	lookupCmd.Flags().StringVar(&lookupCompany, "company", "", "company name (required)")
	lookupCmd.Flags().StringVar(&lookupLocation, "location", "", `company location, e.g. "Austin, TX"`)
	lookupCmd.Flags().StringVar(&lookupOutput, "output", "", "write result JSON to file (default: stdout)")
	_ = lookupCmd.MarkFlagRequired("company")
	rootCmd.AddCommand(lookupCmd)
}
