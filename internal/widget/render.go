package widget

import (
	"fmt"
	"strings"
	"time"

	"github.com/danielpatrickdp/wellness-risk/internal/risk"
)

const (
	interventionAlert = "Your companion has sent you a message"
	unreachableText   = "Unable to reach wellness service"
)

// #region display
// Display is the presentation for one risk level.
type Display struct {
	Icon    string
	Title   string
	Message string
	Class   string
}

// DisplayFor returns the presentation for a level. Unrecognized levels fall
// back to the unknown entry.
func DisplayFor(l risk.Level) Display {
	switch l {
	case risk.LevelMinimal:
		return Display{"😊", "Doing Great", "Your wellness indicators look positive", "status-minimal"}
	case risk.LevelLow:
		return Display{"🙂", "Doing Well", "Keep up the good self-care habits", "status-low"}
	case risk.LevelModerate:
		return Display{"😐", "Check In", "Consider some self-care activities today", "status-moderate"}
	case risk.LevelHigh:
		return Display{"😟", "Need Support", "Your companion is here to help", "status-high"}
	case risk.LevelCritical:
		return Display{"💙", "Reach Out", "Please connect with support resources", "status-critical"}
	default:
		return Display{"❓", "No Data", "Check in with your mood to get started", "status-unknown"}
	}
}

var loadingDisplay = Display{"⏳", "Loading", "Checking your wellness status", "status-loading"}

// #endregion display

// #region view
// View is everything a surface needs to draw the card.
type View struct {
	Display
	Level   risk.Level
	Score   float64
	Loading bool
	Stale   bool   // showing a prior assessment after a failed refresh
	Error   string // subdued error affordance
	Alert   string // intervention notice
	Footer  string
}

// Render derives the view from state. It has no side effects.
func Render(s State, now time.Time) View {
	if s.Last == nil {
		switch s.Status {
		case StatusError:
			return View{Display: DisplayFor(risk.LevelUnknown), Level: risk.LevelUnknown, Error: unreachableText}
		default:
			return View{Display: loadingDisplay, Loading: true}
		}
	}

	a := s.Last.Assessment
	level := risk.ParseLevel(string(a.Level))
	v := View{
		Display: DisplayFor(level),
		Level:   level,
		Score:   a.Score,
	}
	if s.Last.InterventionTriggered {
		v.Alert = interventionAlert
	}
	checked := a.ComputedAt
	if checked.IsZero() {
		checked = s.LastFetchedAt
	}
	if !checked.IsZero() {
		v.Footer = "Last checked: " + TimeAgo(checked, now)
	}
	if s.Status == StatusError {
		v.Stale = true
		v.Error = unreachableText
	}
	return v
}

// TimeAgo formats the elapsed time in whole truncated units.
func TimeAgo(then, now time.Time) string {
	d := now.Sub(then)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	}
}

// String renders the view as a terminal card.
func (v View) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", v.Icon, v.Title)
	fmt.Fprintf(&b, "  %s\n", v.Message)
	if !v.Loading && v.Level != risk.LevelUnknown && v.Level != "" {
		fmt.Fprintf(&b, "  risk: %s (%.0f%%)\n", v.Level, v.Score*100)
	}
	if v.Error != "" {
		fmt.Fprintf(&b, "  ! %s\n", v.Error)
	}
	if v.Alert != "" {
		fmt.Fprintf(&b, "  💬 %s\n", v.Alert)
	}
	if v.Footer != "" {
		fmt.Fprintf(&b, "  %s\n", v.Footer)
	}
	return b.String()
}

// #endregion view
