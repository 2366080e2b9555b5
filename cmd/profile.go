package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/rfp-scorer/internal/profile"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect scoring profiles",
}

var profileValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Load and validate a scoring profile",
	Long: `Load a profile (JSON, YAML or TOML), check that every required key is
present and every rule is consistent, and print its version and warnings.
Without a path, the profile from config (or the embedded default) is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := profile.Load(profileArg(args))
		if err != nil {
			return eris.Wrap(err, "profile: validate")
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Profile OK: version %s (%s)\n", p.Version, p.Source)
		fmt.Fprintf(out, "Functional areas:  %d\n", len(p.ScoringDimensions.FeatureAlignment.FunctionalAreas))
		fmt.Fprintf(out, "Competitor groups: %d\n", len(p.ScoringDimensions.CompetitiveLandscape.CompetitorGroups))
		fmt.Fprintf(out, "Weight sum:        %.3f\n", p.ScoringDimensions.WeightSum())
		for _, w := range p.Warnings() {
			fmt.Fprintf(out, "warning: %s\n", w)
		}
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Print the effective profile as YAML",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := profile.Load(profileArg(args))
		if err != nil {
			return eris.Wrap(err, "profile: show")
		}
		data, err := p.YAML()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func profileArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return resolveProfilePath("")
}

func init() {
	profileCmd.AddCommand(profileValidateCmd, profileShowCmd)
	rootCmd.AddCommand(profileCmd)
}
