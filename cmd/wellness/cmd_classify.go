package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/wellness-risk/internal/classifier"
	"github.com/danielpatrickdp/wellness-risk/internal/features"
	"github.com/danielpatrickdp/wellness-risk/internal/seed"
)

var (
	classifyFile      string
	classifyReference bool
	classifyExplain   bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a feature vector from a JSON file or stdin",
	Long: `Reads a JSON object of feature name to value (from -f, or stdin when -f is
"-" or omitted) and prints the resulting assessment as JSON. --reference uses
the demo account's 49-feature vector instead.`,
	RunE: runClassify,
}

func init() {
	f := classifyCmd.Flags()
	f.StringVarP(&classifyFile, "file", "f", "-", "feature JSON file, - for stdin")
	f.BoolVar(&classifyReference, "reference", false, "classify the demo reference vector")
	f.BoolVar(&classifyExplain, "explain", false, "print group sub-scores and contributions")
}

func runClassify(cmd *cobra.Command, _ []string) error {
	cls, err := loadClassifier()
	if err != nil {
		return err
	}

	var v features.Vector
	if classifyReference {
		v = seed.ReferenceFeatures()
	} else {
		v, err = readVector(cmd.InOrStdin(), classifyFile)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cls.Classify(v)); err != nil {
		return fmt.Errorf("encode assessment: %w", err)
	}
	if classifyExplain {
		explain(out, classifier.Score(v, cls.Config()))
	}
	return nil
}

func readVector(stdin io.Reader, path string) (features.Vector, error) {
	r := stdin
	if path != "-" && path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open features: %w", err)
		}
		defer f.Close()
		r = f
	}
	var v features.Vector
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		return nil, fmt.Errorf("decode features: %w", err)
	}
	return v, nil
}

func explain(w io.Writer, b classifier.Breakdown) {
	groups := make([]string, 0, len(b.SubScores))
	for g := range b.SubScores {
		groups = append(groups, string(g))
	}
	sort.Strings(groups)

	fmt.Fprintf(w, "score %.4f, %d of %d scored features present, completeness %.2f\n",
		b.Score, b.ScoredPresent, b.ScoredTotal, b.Report.Completeness())
	for _, g := range groups {
		fmt.Fprintf(w, "  %-10s %.4f\n", g, b.SubScores[features.Group(g)])
	}
	for _, c := range b.Contributions {
		fmt.Fprintf(w, "    %-30s value=%-8.3f signal=%.3f overall=%.4f\n", c.Feature, c.Value, c.Signal, c.Overall)
	}
	if len(b.Report.Clamped) > 0 {
		fmt.Fprintf(w, "  clamped: %v\n", b.Report.Clamped)
	}
	if len(b.Report.Unknown) > 0 {
		fmt.Fprintf(w, "  unknown: %v\n", b.Report.Unknown)
	}
}
