package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rfp-scorer/internal/config"
	"github.com/sells-group/rfp-scorer/internal/fx"
	"github.com/sells-group/rfp-scorer/internal/profile"
	"github.com/sells-group/rfp-scorer/internal/scorer"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "rfp-scorer",
	Short: "Qualify and score public procurement opportunities",
	Long: `Reads procurement opportunities (JSON, CSV or XLSX), rejects the ones that
fall outside the configured profile, and scores the rest on feature alignment,
geography, budget, timeline, competition and strategic value.`,
	SilenceUsage: true,
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

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveProfilePath prefers the --profile flag over profile.path from config.
func resolveProfilePath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if cfg != nil {
		return cfg.Profile.Path
	}
	return ""
}

// engineOptions returns the scorer options derived from the app config.
func engineOptions() []scorer.Option {
	var rates map[string]float64
	if cfg != nil {
		rates = cfg.FX.Rates
	}
	return []scorer.Option{scorer.WithRates(fx.NewTable(rates))}
}

// loadEngine loads the profile at path (embedded default when empty), logs
// its warnings and compiles it.
func loadEngine(path string) (*scorer.Engine, error) {
	p, err := profile.Load(path)
	if err != nil {
		return nil, err
	}
	for _, w := range p.Warnings() {
		zap.L().Warn("profile warning", zap.String("source", p.Source), zap.String("warning", w))
	}
	return scorer.New(p, engineOptions()...)
}
