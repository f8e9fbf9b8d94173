package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/poiesic/rankit/core"
	"github.com/poiesic/rankit/report"
	"github.com/poiesic/rankit/source/files"
)

const (
	formatText = "text"
	formatJSON = "json"
)

func parseFormat(s string) (string, error) {
	switch s {
	case formatText, formatJSON:
		return s, nil
	default:
		return "", fmt.Errorf("invalid format %q: must be one of text, json", s)
	}
}

type rankingOutput struct {
	query     string
	runID     string
	results   []*core.ScoredCandidate
	insights  bool
	recommend bool
}

type rankingJSON struct {
	Query           string                  `json:"query"`
	RunID           string                  `json:"run_id"`
	Results         []core.Result           `json:"results"`
	Insights        *report.Insights        `json:"insights,omitempty"`
	Recommendations []report.Recommendation `json:"recommendations,omitempty"`
}

func writeRanking(w io.Writer, format string, out rankingOutput) error {
	var insights *report.Insights
	if out.insights {
		in := report.Analyze(out.results)
		insights = &in
	}
	var recs []report.Recommendation
	if out.recommend {
		recs = report.Recommend(out.results)
	}

	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rankingJSON{
			Query:           out.query,
			RunID:           out.runID,
			Results:         core.ResultsFrom(out.results),
			Insights:        insights,
			Recommendations: recs,
		})
	}

	if len(out.results) == 0 {
		fmt.Fprintln(w, "No results")
	}
	for i, r := range core.ResultsFrom(out.results) {
		fmt.Fprintf(w, "%d. %s (%s) [%.3f]\n", i+1, r.DisplayName, r.ID, r.Score)
	}

	if insights != nil {
		fmt.Fprintln(w, "\nInsights:")
		for _, line := range insights.Lines() {
			fmt.Fprintf(w, "  - %s\n", line)
		}
	}
	if out.recommend {
		fmt.Fprintln(w, "\nRecommendations:")
		for _, rec := range recs {
			fmt.Fprintf(w, "  %d. %s - %s\n", rec.Priority, rec.Name, rec.Kind)
			fmt.Fprintf(w, "     Effort: %s\n", rec.Effort)
			if len(rec.Benefits) > 0 {
				fmt.Fprintf(w, "     Benefits: %s\n", strings.Join(rec.Benefits, ", "))
			}
			for _, note := range rec.Notes {
				fmt.Fprintf(w, "     Note: %s\n", note)
			}
		}
	}
	return nil
}

func writeStatus(w io.Writer, format string, status report.Status) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	fmt.Fprintf(w, "Candidates:     %d\n", status.Candidates)
	fmt.Fprintf(w, "Embedded:       %d\n", status.Embedded)
	fmt.Fprintf(w, "Languages:      %d\n", status.Languages)
	fmt.Fprintf(w, "Patterns:       %d\n", status.Patterns)
	fmt.Fprintf(w, "Mean quality:   %.3f\n", status.MeanQuality)
	fmt.Fprintf(w, "Mean coherence: %.3f\n", status.MeanCoherence)
	if !status.LastUpdate.IsZero() {
		fmt.Fprintf(w, "Last update:    %s\n", status.LastUpdate.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func writeAnalysis(w io.Writer, format string, analyzed []*files.Metadata) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(analyzed)
	}

	for _, m := range analyzed {
		kinds := "-"
		if len(m.Kinds) > 0 {
			kinds = strings.Join(m.Kinds, ",")
		}
		fmt.Fprintf(w, "%s (%s, %s) complexity=%.2f resonance=%.2f consciousness=%.2f %s\n",
			m.Path, m.HumanSize(), kinds, m.Complexity, m.Resonance, m.Consciousness, m.Hash[:12])
	}
	return nil
}
