// Package visualize renders a generated dataset as a human-reviewable HTML
// report, grouped by source entry, either to a file or served over HTTP for
// live inspection while a long run is in progress.
package visualize

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"sort"
	"time"

	"github.com/phrazzld/docdistill/internal/domain"
)

//go:embed report.html.tmpl
var reportTemplate string

type sourceGroup struct {
	Source  string
	Records []domain.Record
}

type reportData struct {
	GeneratedAt  time.Time
	TotalRecords int
	TotalSources int
	Groups       []sourceGroup
}

// Render writes the HTML report for records to w. Records are grouped by
// source, groups sorted by source, and record order within a group is kept
// as-is. html/template escapes question and answer text, so model output
// cannot inject markup into the report.
func Render(w io.Writer, records []domain.Record) error {
	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse report template: %w", err)
	}

	if err := tmpl.Execute(w, buildReport(records)); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// RenderFile writes the HTML report for records to path.
func RenderFile(path string, records []domain.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file %s: %w", path, err)
	}

	if err := Render(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func buildReport(records []domain.Record) reportData {
	bySource := make(map[string][]domain.Record)
	var order []string
	for _, r := range records {
		if _, seen := bySource[r.Source]; !seen {
			order = append(order, r.Source)
		}
		bySource[r.Source] = append(bySource[r.Source], r)
	}
	sort.Strings(order)

	groups := make([]sourceGroup, 0, len(order))
	for _, source := range order {
		groups = append(groups, sourceGroup{Source: source, Records: bySource[source]})
	}

	return reportData{
		GeneratedAt:  time.Now(),
		TotalRecords: len(records),
		TotalSources: len(groups),
		Groups:       groups,
	}
}
