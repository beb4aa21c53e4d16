package reporting

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ReportFormat represents the report output format.
type ReportFormat string

const (
	ReportFormatHTML ReportFormat = "html"
	ReportFormatText ReportFormat = "text"
	ReportFormatJSON ReportFormat = "json"
)

// Formatter generates formatted reports from run data.
type Formatter struct {
	logger *Logger
}

// NewFormatter creates a new report formatter.
func NewFormatter(logger *Logger) *Formatter {
	return &Formatter{
		logger: logger,
	}
}

// GenerateReport generates a report in the specified format.
func (f *Formatter) GenerateReport(report *RunReport, format ReportFormat, outputPath string) error {
	switch format {
	case ReportFormatHTML:
		return f.generateHTMLReport(report, outputPath)
	case ReportFormatText:
		return f.generateTextReport(report, outputPath)
	case ReportFormatJSON:
		return fmt.Errorf("JSON format is automatically saved by storage")
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
}

// generateHTMLReport generates an HTML report.
func (f *Formatter) generateHTMLReport(report *RunReport, outputPath string) error {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatTime": func(t time.Time) string {
			return t.Format("2006-01-02 15:04:05")
		},
		"statusClass": func(success bool) string {
			if success {
				return "pass"
			}
			return "fail"
		},
		"statusIcon": func(success bool) string {
			if success {
				return "✅"
			}
			return "❌"
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse HTML template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, report); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write HTML report: %w", err)
	}

	f.logger.Info("HTML report generated", "path", outputPath)
	return nil
}

// generateTextReport generates a plain text report.
func (f *Formatter) generateTextReport(report *RunReport, outputPath string) error {
	var buf bytes.Buffer

	buf.WriteString(strings.Repeat("=", 80) + "\n")
	buf.WriteString("   LAIK RUN REPORT\n")
	buf.WriteString(strings.Repeat("=", 80) + "\n\n")

	status := "COMPLETED"
	if !report.Success {
		status = "FAILED"
	}
	if report.Status == StatusStopped {
		status = "STOPPED"
	}

	buf.WriteString("RUN SUMMARY\n")
	buf.WriteString(strings.Repeat("-", 80) + "\n")
	buf.WriteString(fmt.Sprintf("Status:       %s\n", status))
	buf.WriteString(fmt.Sprintf("Run ID:       %s\n", report.RunID))
	buf.WriteString(fmt.Sprintf("Workload:     %s\n", report.WorkloadName))
	buf.WriteString(fmt.Sprintf("Rank:         %d\n", report.Rank))
	buf.WriteString(fmt.Sprintf("Start Time:   %s\n", report.StartTime.Format("2006-01-02 15:04:05")))
	buf.WriteString(fmt.Sprintf("End Time:     %s\n", report.EndTime.Format("2006-01-02 15:04:05")))
	buf.WriteString(fmt.Sprintf("Duration:     %s\n", report.Duration))
	buf.WriteString(fmt.Sprintf("Phases:       %d\n", report.PhaseCount))
	buf.WriteString(fmt.Sprintf("Bytes sent:   %d\n", report.BytesSent))
	if report.Message != "" {
		buf.WriteString(fmt.Sprintf("Message:      %s\n", report.Message))
	}
	buf.WriteString("\n")

	if report.Reordering != nil {
		buf.WriteString("REORDERING\n")
		buf.WriteString(strings.Repeat("-", 80) + "\n")
		buf.WriteString(fmt.Sprintf("Applied:      %v\n", report.Reordering.Applied))
		if report.Reordering.Applied {
			buf.WriteString(fmt.Sprintf("Source:       %s\n", report.Reordering.Source))
			buf.WriteString(fmt.Sprintf("Mapping:      %v\n", report.Reordering.Mapping))
		}
		buf.WriteString("\n")
	}

	if len(report.Errors) > 0 {
		buf.WriteString("ERRORS\n")
		buf.WriteString(strings.Repeat("-", 80) + "\n")
		for i, err := range report.Errors {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, err))
		}
		buf.WriteString("\n")
	}

	buf.WriteString(strings.Repeat("=", 80) + "\n")
	buf.WriteString(fmt.Sprintf("Generated: %s\n", time.Now().Format("2006-01-02 15:04:05")))
	buf.WriteString(strings.Repeat("=", 80) + "\n")

	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write text report: %w", err)
	}

	f.logger.Info("Text report generated", "path", outputPath)
	return nil
}

// CompareReports generates a comparison report for multiple ranks' runs.
func (f *Formatter) CompareReports(reports []*RunReport, outputPath string) error {
	if len(reports) < 2 {
		return fmt.Errorf("need at least 2 reports to compare")
	}

	var buf bytes.Buffer

	buf.WriteString(strings.Repeat("=", 80) + "\n")
	buf.WriteString("   LAIK RUN COMPARISON\n")
	buf.WriteString(strings.Repeat("=", 80) + "\n\n")

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Rank < reports[j].Rank
	})

	buf.WriteString("RUN SUMMARY\n")
	buf.WriteString(strings.Repeat("-", 80) + "\n")
	buf.WriteString(fmt.Sprintf("%-6s %-12s %-10s %-12s\n", "Rank", "Status", "Duration", "Bytes sent"))
	buf.WriteString(strings.Repeat("-", 80) + "\n")

	for _, report := range reports {
		status := "COMPLETED"
		if !report.Success {
			status = "FAILED"
		}
		buf.WriteString(fmt.Sprintf("%-6d %-12s %-10s %d\n",
			report.Rank, status, report.Duration, report.BytesSent))
	}
	buf.WriteString("\n")

	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write comparison report: %w", err)
	}

	f.logger.Info("Comparison report generated", "path", outputPath)
	return nil
}

// GetReportPath generates a report file path based on a run report and format.
func GetReportPath(report *RunReport, format ReportFormat, outputDir string) string {
	timestamp := report.StartTime.Format("20060102-150405")
	ext := string(format)
	filename := fmt.Sprintf("run-%s-%s-r%d.%s", timestamp, report.RunID, report.Rank, ext)
	return filepath.Join(outputDir, filename)
}

// FormatCommMatrix pretty-prints a CommMatrix snapshot as an n x n table of
// byte counts, gated by callers on LAIK_DEBUG (spec §9 "peripheral
// pretty-printing helpers").
func FormatCommMatrix(m CommMatrixSnapshot) string {
	return formatSquareMatrix(m.N, m.Cells, "CommMatrix")
}

// FormatTopologyMatrix pretty-prints a TopologyMatrix snapshot the same way.
func FormatTopologyMatrix(m TopologyMatrixSnapshot) string {
	return formatSquareMatrix(m.N, m.Cells, "TopologyMatrix")
}

// FormatReordering pretty-prints a reordering mapping as "logical -> physical"
// pairs, one per line.
func FormatReordering(mapping []int) string {
	var sb strings.Builder
	sb.WriteString("Reordering:\n")
	for logical, physical := range mapping {
		sb.WriteString(fmt.Sprintf("  %d -> %d\n", logical, physical))
	}
	return sb.String()
}

func formatSquareMatrix(n int, cells []uint64, title string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s (%dx%d):\n", title, n, n))
	for a := 0; a < n; a++ {
		for c := 0; c < n; c++ {
			sb.WriteString(fmt.Sprintf("%8d", cells[a*n+c]))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// htmlTemplate renders a single RunReport as HTML.
const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>LAIK Run Report - {{.RunID}}</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 1000px;
            margin: 0 auto;
            padding: 20px;
            background-color: #f5f5f5;
        }
        .container {
            background-color: white;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
            padding: 30px;
        }
        h1, h2 {
            color: #2c3e50;
            border-bottom: 2px solid #3498db;
            padding-bottom: 10px;
        }
        .header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 30px;
            border-radius: 8px 8px 0 0;
            margin: -30px -30px 30px -30px;
        }
        .status {
            display: inline-block;
            padding: 5px 15px;
            border-radius: 4px;
            font-weight: bold;
            margin-left: 10px;
        }
        .status.pass { background-color: #27ae60; color: white; }
        .status.fail { background-color: #e74c3c; color: white; }
        .info-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(200px, 1fr));
            gap: 20px;
            margin: 20px 0;
        }
        .info-box {
            background-color: #ecf0f1;
            padding: 15px;
            border-radius: 4px;
        }
        .info-label { font-weight: bold; color: #7f8c8d; font-size: 0.9em; margin-bottom: 5px; }
        .info-value { font-size: 1.1em; color: #2c3e50; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>LAIK Run Report</h1>
            <p>{{.WorkloadName}}</p>
            <p>Run ID: {{.RunID}} &middot; Rank: {{.Rank}}</p>
        </div>

        <h2>Summary<span class="status {{statusClass .Success}}">{{if .Success}}COMPLETED{{else}}FAILED{{end}}</span></h2>
        <div class="info-grid">
            <div class="info-box">
                <div class="info-label">Start Time</div>
                <div class="info-value">{{formatTime .StartTime}}</div>
            </div>
            <div class="info-box">
                <div class="info-label">End Time</div>
                <div class="info-value">{{formatTime .EndTime}}</div>
            </div>
            <div class="info-box">
                <div class="info-label">Duration</div>
                <div class="info-value">{{.Duration}}</div>
            </div>
            <div class="info-box">
                <div class="info-label">Phases</div>
                <div class="info-value">{{.PhaseCount}}</div>
            </div>
            <div class="info-box">
                <div class="info-label">Bytes sent</div>
                <div class="info-value">{{.BytesSent}}</div>
            </div>
        </div>

        {{if .Reordering}}
        <h2>Reordering</h2>
        <p>Applied: {{.Reordering.Applied}}</p>
        {{if .Reordering.Applied}}
        <p>Source: {{.Reordering.Source}}</p>
        <p>Mapping: {{.Reordering.Mapping}}</p>
        {{end}}
        {{end}}

        {{if .Errors}}
        <h2>Errors</h2>
        <ul>
            {{range .Errors}}
            <li>{{.}}</li>
            {{end}}
        </ul>
        {{end}}

        <p style="text-align: center; color: #7f8c8d; margin-top: 30px;">
            Generated by laik &middot; {{formatTime .EndTime}}
        </p>
    </div>
</body>
</html>
`
