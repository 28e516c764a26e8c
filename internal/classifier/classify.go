package classifier

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/danielpatrickdp/wellness-risk/internal/features"
	"github.com/danielpatrickdp/wellness-risk/internal/risk"
)

// #region breakdown
// Contribution is one scored feature's share of its group sub-score.
type Contribution struct {
	Feature  string
	Group    features.Group
	Value    float64
	Signal   float64
	Weighted float64 // feature weight x signal
	Overall  float64 // group weight x weighted
}

// Breakdown exposes the intermediate values behind an assessment.
type Breakdown struct {
	Normalized    features.Vector
	Report        features.Report
	SubScores     map[features.Group]float64
	Contributions []Contribution
	Score         float64
	ScoredPresent int
	ScoredTotal   int
}

// Score runs the weighted model without classifying.
func Score(v features.Vector, cfg Config) Breakdown {
	norm, rep := cfg.Schema.Normalize(v)
	b := Breakdown{
		Normalized: norm,
		Report:     rep,
		SubScores:  make(map[features.Group]float64, len(cfg.Groups)),
	}
	var total float64
	for _, g := range cfg.Groups {
		var sub float64
		for _, f := range g.Features {
			b.ScoredTotal++
			x, ok := norm.Get(f.Name)
			if !ok {
				continue
			}
			b.ScoredPresent++
			signal := x / f.Scale
			if f.Direction == DirectionLower {
				signal = -signal
			}
			signal = clamp(signal, 0, 1)
			c := Contribution{
				Feature:  f.Name,
				Group:    g.Name,
				Value:    x,
				Signal:   signal,
				Weighted: f.Weight * signal,
			}
			c.Overall = g.Weight * c.Weighted
			sub += c.Weighted
			b.Contributions = append(b.Contributions, c)
		}
		sub = clamp(sub, 0, 1)
		b.SubScores[g.Name] = sub
		total += g.Weight * sub
	}
	b.Score = clamp(total, 0, 1)
	return b
}

// #endregion breakdown

// #region classify
// Classify maps a feature vector to an assessment. It is deterministic for a
// given vector and config, never panics and leaves ComputedAt zero.
func Classify(v features.Vector, cfg Config) risk.Assessment {
	b := Score(v, cfg)

	if b.ScoredTotal == 0 || float64(b.ScoredPresent)/float64(b.ScoredTotal) < cfg.Confidence.MinCompleteness {
		return risk.Assessment{
			Level:            risk.LevelUnknown,
			Confidence:       cfg.Confidence.Floor * b.Report.Completeness(),
			Factors:          []string{fmt.Sprintf("insufficient data: %d of %d scored features present", b.ScoredPresent, b.ScoredTotal)},
			Interventions:    []risk.Intervention{},
			LowConfidence:    true,
			InsufficientData: true,
		}
	}

	level := LevelFor(b.Score, cfg.Thresholds)
	a := risk.Assessment{
		Score:         b.Score,
		Level:         level,
		Confidence:    confidence(b, cfg),
		Factors:       factors(b, cfg, level),
		Interventions: risk.SortInterventions(cfg.Interventions[level]),
		LowConfidence: b.Report.OutOfRange(),
	}
	if a.Interventions == nil {
		a.Interventions = []risk.Intervention{}
	}
	return a
}

// LevelFor maps a score to its level. Scores on a boundary take the higher level.
func LevelFor(score float64, t Thresholds) risk.Level {
	switch {
	case math.IsNaN(score):
		return risk.LevelUnknown
	case score >= t.Critical:
		return risk.LevelCritical
	case score >= t.High:
		return risk.LevelHigh
	case score >= t.Moderate:
		return risk.LevelModerate
	case score >= t.Low:
		return risk.LevelLow
	default:
		return risk.LevelMinimal
	}
}

// #endregion classify

// #region factors
// factors lists significant contributions. A non-minimal level always gets at
// least its single largest contributor.
func factors(b Breakdown, cfg Config, level risk.Level) []string {
	type ranked struct {
		c    Contribution
		desc string
	}
	var picked []ranked
	var top *ranked
	for _, g := range cfg.Groups {
		cut := cfg.FactorThreshold * g.TotalWeight()
		for _, f := range g.Features {
			for _, c := range b.Contributions {
				if c.Feature != f.Name {
					continue
				}
				r := ranked{c: c, desc: describe(f, c.Value, cfg.Schema)}
				if c.Weighted > cut {
					picked = append(picked, r)
				}
				if c.Overall > 0 && (top == nil || c.Overall > top.c.Overall) {
					top = &r
				}
			}
		}
	}
	if len(picked) == 0 && level != risk.LevelMinimal && top != nil {
		picked = append(picked, *top)
	}
	sort.SliceStable(picked, func(i, j int) bool {
		if picked[i].c.Overall != picked[j].c.Overall {
			return picked[i].c.Overall > picked[j].c.Overall
		}
		return picked[i].c.Feature < picked[j].c.Feature
	})
	out := make([]string, len(picked))
	for i, p := range picked {
		out[i] = p.desc
	}
	return out
}

func describe(f ScoredFeature, value float64, schema features.Schema) string {
	var s string
	if sp, ok := schema.Lookup(f.Name); ok && sp.Count {
		s = strconv.FormatInt(int64(value), 10)
	} else {
		s = strconv.FormatFloat(value, 'f', 2, 64)
	}
	return strings.ReplaceAll(f.Description, "{value}", s)
}

// #endregion factors

// #region confidence
func confidence(b Breakdown, cfg Config) float64 {
	t := cfg.Thresholds
	dist := math.Inf(1)
	for _, edge := range []float64{t.Critical, t.High, t.Moderate, t.Low} {
		if d := math.Abs(b.Score - edge); d < dist {
			dist = d
		}
	}
	boundary := 0.5 + 0.5*math.Min(1, dist/cfg.Confidence.BoundaryMargin)
	conf := b.Report.Completeness() * boundary
	if b.Report.OutOfRange() {
		conf *= cfg.Confidence.ClampPenalty
	}
	return clamp(conf, 0, 1)
}

// #endregion confidence

// #region classifier
// Classifier binds a validated config and a clock.
type Classifier struct {
	cfg Config
	now func() time.Time
}

// New validates cfg and returns a classifier stamped by the wall clock.
func New(cfg Config) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{cfg: cfg, now: time.Now}, nil
}

// WithClock returns a copy that stamps assessments with now.
func (c *Classifier) WithClock(now func() time.Time) *Classifier {
	cp := *c
	cp.now = now
	return &cp
}

// Config returns the bound config.
func (c *Classifier) Config() Config { return c.cfg }

// Classify runs the pure classifier and stamps ComputedAt.
func (c *Classifier) Classify(v features.Vector) risk.Assessment {
	a := Classify(v, c.cfg)
	a.ComputedAt = c.now().UTC()
	return a
}

// #endregion classifier

func clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return lo
	}
	return math.Max(lo, math.Min(hi, x))
}
