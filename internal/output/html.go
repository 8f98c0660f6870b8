package output

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"time"

	"github.com/wesleyorama2/swarm/internal/runner"
)

// htmlData contains all data needed to render the HTML report.
type htmlData struct {
	*Report
	Failures    []FailureReason
	GeneratedAt time.Time
}

// WriteHTML writes the result as a standalone HTML page.
func WriteHTML(w io.Writer, result *runner.Result) error {
	if result == nil {
		return fmt.Errorf("result cannot be nil")
	}

	tmpl, err := template.New("report").Funcs(templateFuncs()).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	data := htmlData{
		Report:      NewReport(result),
		GeneratedAt: time.Now(),
	}
	if result.Stats != nil {
		data.Failures = topFailures(result.Stats.Entries, DefaultTopFailures*2)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}

// GenerateHTML writes an HTML report to outputPath.
func GenerateHTML(result *runner.Result, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create HTML file: %w", err)
	}

	if err := WriteHTML(f, result); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// templateFuncs returns helper functions for the HTML template.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"ms": func(v float64) string {
			return formatDurationShort(time.Duration(v * float64(time.Millisecond)))
		},
		"percent": func(v float64) string {
			return fmt.Sprintf("%.1f%%", v*100)
		},
		"number": formatNumber,
		"duration": func(ms float64) string {
			return formatDuration(time.Duration(ms * float64(time.Millisecond)))
		},
		"rfc3339": func(t time.Time) string {
			return t.Format(time.RFC3339)
		},
		"rateClass": func(v float64) string {
			switch {
			case v > 0.05:
				return "bad"
			case v > 0.01:
				return "warn"
			default:
				return "good"
			}
		},
	}
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Name}} - swarm report</title>
<style>
  body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; margin: 2rem; color: #1f2933; }
  h1 { margin-bottom: 0.25rem; }
  .meta { color: #616e7c; margin-bottom: 1.5rem; }
  .cards { display: flex; gap: 1rem; margin-bottom: 2rem; flex-wrap: wrap; }
  .card { border: 1px solid #e4e7eb; border-radius: 6px; padding: 0.75rem 1rem; min-width: 9rem; }
  .card .label { font-size: 0.8rem; color: #616e7c; text-transform: uppercase; }
  .card .value { font-size: 1.4rem; font-weight: 600; }
  table { border-collapse: collapse; width: 100%; margin-bottom: 2rem; }
  th, td { text-align: left; padding: 0.4rem 0.6rem; border-bottom: 1px solid #e4e7eb; }
  th { background: #f5f7fa; }
  td.num { text-align: right; font-variant-numeric: tabular-nums; }
  tr.total td { font-weight: 600; }
  .good { color: #2f8132; }
  .warn { color: #b7791f; }
  .bad { color: #c53030; }
</style>
</head>
<body>
<h1>{{.Name}} {{if .Passed}}<span class="good">&#10003;</span>{{else}}<span class="bad">&#10007;</span>{{end}}</h1>
<div class="meta">{{.Host}} &middot; run {{.ID}} &middot; started {{rfc3339 .StartTime}} &middot; generated {{rfc3339 .GeneratedAt}}</div>

<div class="cards">
  <div class="card"><div class="label">Duration</div><div class="value">{{duration .DurationMs}}</div></div>
  <div class="card"><div class="label">Users</div><div class="value">{{.UsersSpawned}}</div></div>
  <div class="card"><div class="label">Requests</div><div class="value">{{number .Total.Requests}}</div></div>
  <div class="card"><div class="label">Failures</div><div class="value {{rateClass .Total.FailureRate}}">{{percent .Total.FailureRate}}</div></div>
  <div class="card"><div class="label">Setup failures</div><div class="value {{if .SetupFailures}}bad{{else}}good{{end}}">{{.SetupFailures}}</div></div>
  <div class="card"><div class="label">Teardown failures</div><div class="value {{if .TeardownFailures}}warn{{else}}good{{end}}">{{.TeardownFailures}}</div></div>
</div>

<h2>Requests</h2>
<table>
  <thead>
    <tr><th>Method</th><th>Name</th><th>Requests</th><th>Failures</th><th>Mean</th><th>P50</th><th>P90</th><th>P95</th><th>P99</th><th>Max</th></tr>
  </thead>
  <tbody>
  {{range .Entries}}
    <tr>
      <td>{{.Method}}</td><td>{{.Name}}</td>
      <td class="num">{{number .Requests}}</td>
      <td class="num {{rateClass .FailureRate}}">{{number .Failures}} ({{percent .FailureRate}})</td>
      <td class="num">{{ms .Latency.Mean}}</td><td class="num">{{ms .Latency.P50}}</td>
      <td class="num">{{ms .Latency.P90}}</td><td class="num">{{ms .Latency.P95}}</td>
      <td class="num">{{ms .Latency.P99}}</td><td class="num">{{ms .Latency.Max}}</td>
    </tr>
  {{end}}
    <tr class="total">
      <td></td><td>{{.Total.Name}}</td>
      <td class="num">{{number .Total.Requests}}</td>
      <td class="num {{rateClass .Total.FailureRate}}">{{number .Total.Failures}} ({{percent .Total.FailureRate}})</td>
      <td class="num">{{ms .Total.Latency.Mean}}</td><td class="num">{{ms .Total.Latency.P50}}</td>
      <td class="num">{{ms .Total.Latency.P90}}</td><td class="num">{{ms .Total.Latency.P95}}</td>
      <td class="num">{{ms .Total.Latency.P99}}</td><td class="num">{{ms .Total.Latency.Max}}</td>
    </tr>
  </tbody>
</table>

{{if .Failures}}
<h2>Failures</h2>
<table>
  <thead><tr><th>Count</th><th>Method</th><th>Name</th><th>Reason</th></tr></thead>
  <tbody>
  {{range .Failures}}
    <tr><td class="num">{{number .Count}}</td><td>{{.Method}}</td><td>{{.Name}}</td><td>{{.Reason}}</td></tr>
  {{end}}
  </tbody>
</table>
{{end}}
</body>
</html>
`
