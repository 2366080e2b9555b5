package profile

import (
	"bytes"
	_ "embed"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	// ErrMissingKey reports a required profile key absent from the source.
	ErrMissingKey = errors.New("missing required profile key")
	// ErrInvalidProfile reports a profile that decoded but failed validation.
	ErrInvalidProfile = errors.New("invalid profile")
)

//go:embed default_profile.json
var defaultProfileJSON []byte

// requiredKeys must be present in every profile source. Optional blocks
// (multipliers, bonus tiers, edge_case/not_applicable labels,
// rfp_type_detection) fall back to built-in defaults.
var requiredKeys = []string{
	"version",
	"qualification_filters.disqualification_signals",
	"qualification_filters.client_type.qualifying_patterns",
	"qualification_filters.client_type.edge_case_patterns",
	"qualification_filters.client_type.disqualifying_patterns",
	"qualification_filters.subject_matter.qualifying_patterns",
	"qualification_filters.geographic_scope.primary_markets",
	"qualification_filters.geographic_scope.adjacent_markets",
	"scoring_dimensions.feature_alignment.weight",
	"scoring_dimensions.feature_alignment.functional_areas",
	"scoring_dimensions.geographic_fit.weight",
	"scoring_dimensions.geographic_fit.primary_score",
	"scoring_dimensions.geographic_fit.adjacent_score",
	"scoring_dimensions.geographic_fit.other_score",
	"scoring_dimensions.budget_fit.weight",
	"scoring_dimensions.budget_fit.too_small_eur",
	"scoring_dimensions.budget_fit.acceptable_min_eur",
	"scoring_dimensions.budget_fit.sweet_spot_min_eur",
	"scoring_dimensions.budget_fit.sweet_spot_max_eur",
	"scoring_dimensions.timeline_feasibility.weight",
	"scoring_dimensions.timeline_feasibility.minimum_days_from_now",
	"scoring_dimensions.timeline_feasibility.ideal_days_from_now",
	"scoring_dimensions.competitive_landscape.weight",
	"scoring_dimensions.competitive_landscape.competitor_groups",
	"scoring_dimensions.competitive_landscape.positive_signals",
	"scoring_dimensions.strategic_value.weight",
	"scoring_dimensions.strategic_value.high_value_indicators",
	"scoring_dimensions.strategic_value.medium_value_indicators",
	"win_probability_thresholds.high.min_score",
	"win_probability_thresholds.high.label",
	"win_probability_thresholds.high.color",
	"win_probability_thresholds.medium.min_score",
	"win_probability_thresholds.medium.label",
	"win_probability_thresholds.medium.color",
	"win_probability_thresholds.low.min_score",
	"win_probability_thresholds.low.label",
	"win_probability_thresholds.low.color",
	"advisory_service_bonus.triggers",
	"advisory_service_bonus.bonus_points",
}

// Load reads a profile from path. JSON, YAML and TOML are recognized by
// extension. An empty path loads the embedded default profile. The returned
// profile is complete and validated; any problem is returned as an error and
// no profile is produced.
func Load(path string) (*Profile, error) {
	if path == "" {
		return parse(defaultProfileJSON, "json", "embedded")
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, eris.Wrapf(err, "profile: read %s", filepath.Base(path))
	}
	return decode(v, path)
}

// Parse decodes a profile from raw bytes in the given format ("json", "yaml", "toml").
func Parse(data []byte, format string) (*Profile, error) {
	return parse(data, format, "inline")
}

var defaultProfile = sync.OnceValues(func() (*Profile, error) {
	return parse(defaultProfileJSON, "json", "embedded")
})

// Default returns the embedded default profile. It panics if the embedded
// document is invalid, which the package tests rule out.
func Default() *Profile {
	p, err := defaultProfile()
	if err != nil {
		panic(err)
	}
	return p
}

func parse(data []byte, format, source string) (*Profile, error) {
	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, eris.Wrapf(err, "profile: read %s", source)
	}
	return decode(v, source)
}

func decode(v *viper.Viper, source string) (*Profile, error) {
	if missing := missingKeys(v); len(missing) > 0 {
		return nil, eris.Wrapf(ErrMissingKey, "profile: %s: %s", source, strings.Join(missing, ", "))
	}

	setDefaults(v)

	var p Profile
	if err := v.Unmarshal(&p); err != nil {
		return nil, eris.Wrapf(ErrInvalidProfile, "profile: decode %s: %s", source, err)
	}

	areas, err := decodeNamed[FunctionalArea](v, "scoring_dimensions.feature_alignment.functional_areas")
	if err != nil {
		return nil, err
	}
	p.ScoringDimensions.FeatureAlignment.FunctionalAreas = areas

	groups, err := decodeNamed[CompetitorGroup](v, "scoring_dimensions.competitive_landscape.competitor_groups")
	if err != nil {
		return nil, err
	}
	p.ScoringDimensions.CompetitiveLandscape.CompetitorGroups = groups

	if v.IsSet("scoring_dimensions.strategic_value.multipliers") {
		mults, err := decodeNamed[Multiplier](v, "scoring_dimensions.strategic_value.multipliers")
		if err != nil {
			return nil, err
		}
		p.ScoringDimensions.StrategicValue.Multipliers = mults
	}

	applyDefaults(&p)
	p.Source = source
	p.LoadedAt = time.Now().UTC()

	if err := p.Validate(); err != nil {
		return nil, eris.Wrapf(err, "profile: %s", source)
	}
	for _, w := range p.Warnings() {
		zap.L().Warn("profile: "+w, zap.String("source", source), zap.String("version", p.Version))
	}

	zap.L().Debug("profile: loaded",
		zap.String("source", source),
		zap.String("version", p.Version),
		zap.Int("functional_areas", len(areas)),
		zap.Int("competitor_groups", len(groups)),
	)
	return &p, nil
}

func missingKeys(v *viper.Viper) []string {
	var missing []string
	for _, k := range requiredKeys {
		if !v.IsSet(k) {
			missing = append(missing, k)
		}
	}
	return missing
}

// decodeNamed decodes an object of named sub-objects. Keys starting with "_"
// are comments and skipped.
func decodeNamed[T any](v *viper.Viper, key string) (map[string]T, error) {
	raw := v.GetStringMap(key)
	out := make(map[string]T, len(raw))
	for name := range raw {
		if strings.HasPrefix(name, "_") {
			continue
		}
		sub := v.Sub(key + "." + name)
		if sub == nil {
			return nil, eris.Wrapf(ErrInvalidProfile, "profile: %s.%s must be an object", key, name)
		}
		var item T
		if err := sub.Unmarshal(&item); err != nil {
			return nil, eris.Wrapf(ErrInvalidProfile, "profile: decode %s.%s: %s", key, name, err)
		}
		out[name] = item
	}
	return out, nil
}
