package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/wellness-risk/internal/classifier"
	"github.com/danielpatrickdp/wellness-risk/internal/features"
	"github.com/danielpatrickdp/wellness-risk/internal/store"
)

var (
	inspectUser string
	inspectLast int
	inspectID   string
	inspectJSON bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show a user's assessment history, group sub-scores and interventions",
	RunE:  runInspect,
}

func init() {
	f := inspectCmd.Flags()
	f.StringVar(&inspectUser, "user", "demo_ml_user", "user id")
	f.IntVar(&inspectLast, "last", 20, "show N most recent assessments")
	f.StringVar(&inspectID, "assessment", "", "show one assessment by id (prefix match)")
	f.BoolVar(&inspectJSON, "json", false, "output as JSON instead of a table")
}

// #region list-mode
type historyRow struct {
	ID         string  `json:"assessmentId"`
	Level      string  `json:"riskLevel"`
	Score      float64 `json:"riskScore"`
	Confidence float64 `json:"confidence"`
	Triggered  bool    `json:"interventionTriggered"`
	Method     string  `json:"method"`
	ComputedAt string  `json:"computedAt"`
}

type inspectOutput struct {
	UserID        string                     `json:"userId"`
	History       []historyRow               `json:"history"`
	SubScores     map[features.Group]float64 `json:"subScores,omitempty"`
	Interventions []store.InterventionRecord `json:"interventions,omitempty"`
}

func runInspect(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	recs, err := st.ListAssessments(ctx, inspectUser, inspectLast)
	if err != nil {
		return err
	}
	if inspectID != "" {
		return runDetail(out, recs, inspectID)
	}

	res := inspectOutput{UserID: inspectUser}
	// Newest first from the store; print chronologically.
	res.History = make([]historyRow, len(recs))
	for i, r := range recs {
		res.History[len(recs)-1-i] = historyRow{
			ID:         r.ID,
			Level:      string(r.Assessment.Level),
			Score:      r.Assessment.Score,
			Confidence: r.Assessment.Confidence,
			Triggered:  r.InterventionTriggered,
			Method:     r.Method,
			ComputedAt: r.Assessment.ComputedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	fr, err := st.GetFeatures(ctx, inspectUser)
	switch {
	case err == nil:
		cls, err := loadClassifier()
		if err != nil {
			return err
		}
		res.SubScores = classifier.Score(fr.Features, cls.Config()).SubScores
	case !errors.Is(err, store.ErrNotFound):
		return err
	}

	if res.Interventions, err = st.ListInterventions(ctx, inspectUser); err != nil {
		return err
	}

	if inspectJSON {
		return printJSON(out, res)
	}
	printHistory(out, res)
	return nil
}

func printHistory(w io.Writer, res inspectOutput) {
	if len(res.History) == 0 {
		fmt.Fprintf(w, "no assessments for %s\n", res.UserID)
	} else {
		fmt.Fprintf(w, "%-10s  %-8s  %6s  %5s  %-5s  %s\n", "ID", "Level", "Score", "Conf", "Alert", "Time")
		fmt.Fprintf(w, "%s\n", strings.Repeat("-", 60))
		for _, r := range res.History {
			fmt.Fprintf(w, "%-10s  %-8s  %6.3f  %5.2f  %-5v  %s\n",
				shortID(r.ID), r.Level, r.Score, r.Confidence, r.Triggered, r.ComputedAt)
		}
	}

	if len(res.SubScores) > 0 {
		fmt.Fprintf(w, "\nGroup sub-scores (current features):\n")
		for _, g := range []features.Group{features.GroupMood, features.GroupBehavioral, features.GroupSentiment} {
			if v, ok := res.SubScores[g]; ok {
				fmt.Fprintf(w, "  %-12s %.4f\n", g, v)
			}
		}
	}

	if len(res.Interventions) > 0 {
		fmt.Fprintf(w, "\nInterventions:\n")
		for _, iv := range res.Interventions {
			fmt.Fprintf(w, "  %s  %-8s  %.3f  %s  (expires %s)\n",
				shortID(iv.ID), iv.Level, iv.Score, strings.Join(iv.Actions, ","),
				iv.ExpiresAt.Format("2006-01-02"))
		}
	}
}

// #endregion list-mode

// #region detail-mode
func runDetail(w io.Writer, recs []store.AssessmentRecord, id string) error {
	for _, r := range recs {
		if !strings.HasPrefix(r.ID, id) {
			continue
		}
		if inspectJSON {
			return printJSON(w, r)
		}
		a := r.Assessment
		fmt.Fprintf(w, "Assessment: %s\n", r.ID)
		fmt.Fprintf(w, "Method:     %s\n", r.Method)
		fmt.Fprintf(w, "Computed:   %s\n", a.ComputedAt.Format("2006-01-02T15:04:05Z"))
		fmt.Fprintf(w, "Level:      %s\n", a.Level)
		fmt.Fprintf(w, "Score:      %.4f\n", a.Score)
		fmt.Fprintf(w, "Confidence: %.2f (low=%v, insufficient=%v)\n", a.Confidence, a.LowConfidence, a.InsufficientData)
		fmt.Fprintf(w, "\nFactors:\n")
		for _, f := range a.Factors {
			fmt.Fprintf(w, "  - %s\n", f)
		}
		fmt.Fprintf(w, "\nInterventions:\n")
		for _, iv := range a.Interventions {
			fmt.Fprintf(w, "  [%s] %s: %s\n", iv.Type, iv.Action, iv.Message)
		}
		return nil
	}
	return fmt.Errorf("assessment %q: %w", id, store.ErrNotFound)
}

// #endregion detail-mode

// #region output
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
