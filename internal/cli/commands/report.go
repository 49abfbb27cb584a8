package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/rdfpub/generator/internal/cli/config"
	"github.com/rdfpub/generator/internal/engine"
)

// Build status values of the JSON summary.
const (
	statusSuccess = "success"
	statusErrors  = "errors"
	statusFailed  = "failed"
)

type reportError struct {
	Reason string `json:"reason"`
	Path   string `json:"path,omitempty"`
	Error  string `json:"error,omitempty"`
}

type reportJSON struct {
	Status     string        `json:"status"`
	Resources  int           `json:"resources"`
	Files      int           `json:"files"`
	Skipped    int           `json:"skipped"`
	DurationMS int64         `json:"duration_ms"`
	Errors     []reportError `json:"errors"`
	Fatal      string        `json:"fatal,omitempty"`
}

func buildStatus(err error) string {
	var fatal *engine.FatalError
	switch {
	case err == nil:
		return statusSuccess
	case errors.As(err, &fatal):
		return statusFailed
	case errors.Is(err, engine.ErrBuildFailed):
		return statusErrors
	default:
		return statusFailed
	}
}

// renderReport prints the outcome of one build.
func renderReport(w io.Writer, report *engine.Report, err error, mode string) error {
	if report == nil {
		report = &engine.Report{}
	}
	if mode == config.OutputJSON {
		return renderReportJSON(w, report, err)
	}
	renderReportText(w, report, err)
	return nil
}

func renderReportJSON(w io.Writer, report *engine.Report, err error) error {
	out := reportJSON{
		Status:     buildStatus(err),
		Resources:  len(report.Resources),
		Files:      report.Files,
		Skipped:    report.Skipped,
		DurationMS: report.Duration.Milliseconds(),
		Errors:     make([]reportError, 0, len(report.Errors)),
	}
	for _, be := range report.Errors {
		re := reportError{Reason: be.Reason, Path: be.Path}
		if be.Err != nil {
			re.Error = be.Err.Error()
		}
		out.Errors = append(out.Errors, re)
	}
	if out.Status == statusFailed {
		out.Fatal = err.Error()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func renderReportText(w io.Writer, report *engine.Report, err error) {
	// The renderer picks the color profile of w, so pipes stay plain.
	r := lipgloss.NewRenderer(w)
	ok := r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	warn := r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	fail := r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	dim := r.NewStyle().Faint(true)

	if len(report.Errors) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Reason", "Path", "Error"})
		for _, be := range report.Errors {
			detail := ""
			if be.Err != nil {
				detail = be.Err.Error()
			}
			t.AppendRow(table.Row{be.Reason, be.Path, detail})
		}
		t.Render()
	}

	counts := dim.Render(fmt.Sprintf("%d resources, %d files, %d skipped in %s",
		len(report.Resources), report.Files, report.Skipped, report.Duration.Round(time.Millisecond)))

	switch buildStatus(err) {
	case statusSuccess:
		_, _ = fmt.Fprintf(w, "%s %s\n", ok.Render("Build succeeded"), counts)
	case statusErrors:
		_, _ = fmt.Fprintf(w, "%s %s\n", warn.Render(fmt.Sprintf("Build finished with %d errors", len(report.Errors))), counts)
	default:
		_, _ = fmt.Fprintf(w, "%s %s\n", fail.Render("Build failed:"), err)
	}
}
