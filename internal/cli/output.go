package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pfrederiksen/seat-watch/internal/course"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// OutputResult is the outcome of a single check
type OutputResult struct {
	CheckedAt time.Time     `json:"checked_at"`
	Course    course.Target `json:"course"`
	Enrolled  int           `json:"enrolled"`
	Limit     int           `json:"limit"`
	Open      bool          `json:"open"`
	Spots     int           `json:"spots"`
}

func newOutputResult(target course.Target, snap course.SeatSnapshot) *OutputResult {
	return &OutputResult{
		CheckedAt: snap.ObservedAt,
		Course:    target,
		Enrolled:  snap.Enrolled,
		Limit:     snap.Limit,
		Open:      snap.Open(),
		Spots:     snap.Spots(),
	}
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	status := "FULL"
	if result.Open {
		status = fmt.Sprintf("OPEN (%d spot(s))", result.Spots)
	}

	fmt.Fprintf(w, "%s: %s\n", result.Course.String(), status)
	fmt.Fprintf(w, "Enrolled: %d / Limit: %d\n", result.Enrolled, result.Limit)

	if verbose {
		fmt.Fprintf(w, "     CRN: %s\n", result.Course.CRN)
		fmt.Fprintf(w, "     Term: %s\n", result.Course.Term)
		fmt.Fprintf(w, "     Dept: %s\n", result.Course.Dept)
		fmt.Fprintf(w, "     Checked: %s\n", result.CheckedAt.Format(time.RFC3339))
	}

	return nil
}
