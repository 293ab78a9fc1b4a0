package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/domain-enrich/internal/config"
	"github.com/sells-group/domain-enrich/internal/enrich"
	"github.com/sells-group/domain-enrich/pkg/openrouter"
	"github.com/sells-group/domain-enrich/pkg/searxng"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "domain-enrich",
	Short: "Company primary-domain enrichment service",
	Long:  "Finds the primary web domain for companies by name and location: web search, AI adjudication, reachability verification. Single lookups or batch CSV/XLSX jobs.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// newEngine builds the enrichment stack from config: search client,
// adjudicator for the configured provider, default verifier.
func newEngine() *enrich.Engine {
	search := searxng.NewClient(
		searxng.WithBaseURL(cfg.SearXNG.BaseURL),
		searxng.WithFallbacks(cfg.SearXNG.Fallbacks),
		searxng.WithRateLimit(cfg.SearXNG.RateQPS),
	)

	var adjudicator enrich.Adjudicator
	if cfg.AI.Provider == "anthropic" {
		adjudicator = enrich.NewAnthropicAdjudicator(cfg.Anthropic.Key, cfg.Anthropic.Model)
	} else {
		client := openrouter.NewClient(cfg.OpenRouter.Key,
			openrouter.WithBaseURL(cfg.OpenRouter.BaseURL),
			openrouter.WithModel(cfg.OpenRouter.Model),
		)
		adjudicator = enrich.NewOpenRouterAdjudicator(client, cfg.OpenRouter.Model)
	}

	return enrich.NewEngine(search, adjudicator, enrich.WithSearchLimit(cfg.SearXNG.ResultLimit))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
