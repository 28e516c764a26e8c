package classifier

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/wellness-risk/internal/features"
	"github.com/danielpatrickdp/wellness-risk/internal/risk"
)

//go:embed default.yaml
var defaultYAML []byte

const weightTolerance = 1e-6

// #region config-types
// Direction says which side of zero raises risk for a scored feature.
type Direction string

const (
	DirectionHigher Direction = "higher"
	DirectionLower  Direction = "lower"
)

// Thresholds are the lower bounds of each level, evaluated high to low.
type Thresholds struct {
	Critical float64 `yaml:"critical" json:"critical"`
	High     float64 `yaml:"high" json:"high"`
	Moderate float64 `yaml:"moderate" json:"moderate"`
	Low      float64 `yaml:"low" json:"low"`
}

// ScoredFeature is one feature that contributes to its group's sub-score.
type ScoredFeature struct {
	Name        string    `yaml:"name" json:"name"`
	Weight      float64   `yaml:"weight" json:"weight"`
	Scale       float64   `yaml:"scale" json:"scale"`
	Direction   Direction `yaml:"direction" json:"direction"`
	Description string    `yaml:"description" json:"description"` // {value} is substituted
}

// GroupConfig weights one feature group in the overall score.
type GroupConfig struct {
	Name     features.Group  `yaml:"name" json:"name"`
	Weight   float64         `yaml:"weight" json:"weight"`
	Features []ScoredFeature `yaml:"features" json:"features"`
}

// TotalWeight sums the group's feature weights.
func (g GroupConfig) TotalWeight() float64 {
	var sum float64
	for _, f := range g.Features {
		sum += f.Weight
	}
	return sum
}

// ConfidenceConfig tunes how much the classifier trusts a result.
type ConfidenceConfig struct {
	Floor           float64 `yaml:"floor" json:"floor"`
	BoundaryMargin  float64 `yaml:"boundary_margin" json:"boundary_margin"`
	MinCompleteness float64 `yaml:"min_completeness" json:"min_completeness"`
	ClampPenalty    float64 `yaml:"clamp_penalty" json:"clamp_penalty"`
}

// SentimentCategory labels a row of the sentiment reply table.
type SentimentCategory string

const (
	SentimentCrisisConcern SentimentCategory = "crisis_concern"
	SentimentStruggling    SentimentCategory = "struggling"
	SentimentDifficult     SentimentCategory = "difficult"
	SentimentNeutral       SentimentCategory = "neutral"
	SentimentPositive      SentimentCategory = "positive"
)

// SentimentRule fires for scores strictly below Below.
type SentimentRule struct {
	Below    float64           `yaml:"below" json:"below"`
	Category SentimentCategory `yaml:"category" json:"category"`
	Message  string            `yaml:"message" json:"message"` // {name} is substituted
}

// Reply renders the message for a user name.
func (r SentimentRule) Reply(name string) string {
	if name == "" {
		name = "friend"
	}
	return strings.ReplaceAll(r.Message, "{name}", name)
}

// Config is the full classifier tuning.
type Config struct {
	Thresholds        Thresholds                         `yaml:"thresholds" json:"thresholds"`
	FactorThreshold   float64                            `yaml:"factor_threshold" json:"factor_threshold"`
	Groups            []GroupConfig                      `yaml:"groups" json:"groups"`
	Interventions     map[risk.Level][]risk.Intervention `yaml:"interventions" json:"interventions"`
	Confidence        ConfidenceConfig                   `yaml:"confidence" json:"confidence"`
	SentimentMessages []SentimentRule                    `yaml:"sentiment_messages" json:"sentiment_messages"`
	Schema            features.Schema                    `yaml:"schema" json:"schema"`
}

// #endregion config-types

// #region load
// DefaultConfig returns a fresh copy of the embedded tuning.
func DefaultConfig() Config {
	cfg, err := ParseConfig(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("classifier: embedded default config invalid: %v", err))
	}
	return cfg
}

// ParseConfig decodes a complete config document and validates it.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse classifier config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML override file. Top-level keys present in the file
// replace the embedded defaults; absent keys keep them. An empty path returns
// the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read classifier config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse classifier config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// #endregion load

// #region validate
// Validate rejects configs the classifier cannot apply consistently.
func (c Config) Validate() error {
	t := c.Thresholds
	if !(t.Critical > t.High && t.High > t.Moderate && t.Moderate > t.Low && t.Low > 0 && t.Critical <= 1) {
		return fmt.Errorf("classifier config: thresholds must satisfy 1 >= critical > high > moderate > low > 0, got %+v", t)
	}
	if c.FactorThreshold < 0 || c.FactorThreshold >= 1 {
		return fmt.Errorf("classifier config: factor_threshold %.4f outside [0,1)", c.FactorThreshold)
	}
	if err := c.Schema.Validate(); err != nil {
		return fmt.Errorf("classifier config: %w", err)
	}
	if err := c.validateGroups(); err != nil {
		return err
	}
	if err := c.validateInterventions(); err != nil {
		return err
	}
	cc := c.Confidence
	if cc.Floor < 0 || cc.Floor >= 0.5 {
		return fmt.Errorf("classifier config: confidence floor %.4f outside [0,0.5)", cc.Floor)
	}
	if cc.BoundaryMargin <= 0 {
		return fmt.Errorf("classifier config: boundary_margin must be positive")
	}
	if cc.MinCompleteness < 0 || cc.MinCompleteness > 1 {
		return fmt.Errorf("classifier config: min_completeness %.4f outside [0,1]", cc.MinCompleteness)
	}
	if cc.ClampPenalty <= 0 || cc.ClampPenalty > 1 {
		return fmt.Errorf("classifier config: clamp_penalty %.4f outside (0,1]", cc.ClampPenalty)
	}
	return c.validateSentiment()
}

func (c Config) validateGroups() error {
	if len(c.Groups) == 0 {
		return fmt.Errorf("classifier config: no groups")
	}
	var total float64
	seen := make(map[string]struct{})
	for _, g := range c.Groups {
		if g.Weight < 0 {
			return fmt.Errorf("classifier config: group %s has negative weight", g.Name)
		}
		total += g.Weight
		if len(g.Features) == 0 {
			return fmt.Errorf("classifier config: group %s has no features", g.Name)
		}
		for _, f := range g.Features {
			if _, dup := seen[f.Name]; dup {
				return fmt.Errorf("classifier config: feature %q scored twice", f.Name)
			}
			seen[f.Name] = struct{}{}
			if _, ok := c.Schema.Lookup(f.Name); !ok {
				return fmt.Errorf("classifier config: scored feature %q not in schema", f.Name)
			}
			if f.Weight <= 0 || f.Scale <= 0 {
				return fmt.Errorf("classifier config: feature %q needs positive weight and scale", f.Name)
			}
			if f.Direction != DirectionHigher && f.Direction != DirectionLower {
				return fmt.Errorf("classifier config: feature %q has direction %q", f.Name, f.Direction)
			}
		}
	}
	if math.Abs(total-1) > weightTolerance {
		return fmt.Errorf("classifier config: group weights sum to %.6f, want 1", total)
	}
	return nil
}

func (c Config) validateInterventions() error {
	for lvl, list := range c.Interventions {
		if risk.ParseLevel(string(lvl)) != lvl {
			return fmt.Errorf("classifier config: interventions for unknown level %q", lvl)
		}
		immediate := 0
		for _, iv := range list {
			if _, err := risk.ParseInterventionType(string(iv.Type)); err != nil {
				return fmt.Errorf("classifier config: level %s: %w", lvl, err)
			}
			if iv.Type == risk.InterventionImmediate {
				immediate++
			}
		}
		if lvl != risk.LevelCritical && immediate > 0 {
			return fmt.Errorf("classifier config: level %s may not carry immediate interventions", lvl)
		}
	}
	n := 0
	for _, iv := range c.Interventions[risk.LevelCritical] {
		if iv.Type == risk.InterventionImmediate {
			n++
		}
	}
	if n != 1 {
		return fmt.Errorf("classifier config: critical tier needs exactly one immediate intervention, got %d", n)
	}
	return nil
}

func (c Config) validateSentiment() error {
	rows := c.SentimentMessages
	if len(rows) == 0 {
		return fmt.Errorf("classifier config: empty sentiment_messages")
	}
	for i, r := range rows {
		if r.Category == "" || r.Message == "" {
			return fmt.Errorf("classifier config: sentiment row %d needs category and message", i)
		}
		if i > 0 && r.Below <= rows[i-1].Below {
			return fmt.Errorf("classifier config: sentiment bounds must ascend (row %d)", i)
		}
	}
	if last := rows[len(rows)-1].Below; last <= 1 {
		return fmt.Errorf("classifier config: last sentiment bound %.4f does not cover 1.0", last)
	}
	return nil
}

// #endregion validate

// #region sentiment
// SentimentMessage picks the reply row for a sentiment score in [-1,1].
// Out-of-range scores are clamped and NaN is treated as neutral (0).
func (c *Config) SentimentMessage(score float64) SentimentRule {
	if math.IsNaN(score) {
		score = 0
	}
	score = clamp(score, -1, 1)
	for _, r := range c.SentimentMessages {
		if score < r.Below {
			return r
		}
	}
	return c.SentimentMessages[len(c.SentimentMessages)-1]
}

// #endregion sentiment
