package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/mwiater/manzai/internal/util"
)

type htmlView struct {
	Title   string
	Run     Run
	RunJSON template.JS
}

// HTML renders run as a standalone page. The raw run is embedded as JSON for
// anyone who wants to post-process it from the browser console.
func HTML(run Run) (string, error) {
	payload, err := json.Marshal(run)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = htmlTemplate.Execute(&buf, htmlView{
		Title:   "manzai: " + run.Character,
		Run:     run,
		RunJSON: template.JS(payload),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SaveHTML writes the HTML page for run to path.
func SaveHTML(path string, run Run) error {
	page, err := HTML(run)
	if err != nil {
		return err
	}
	return util.WriteFile(path, []byte(page))
}

var htmlTemplate = template.Must(template.New("run-report").Funcs(template.FuncMap{
	"pct": formatPct,
	"grade": func(v float64) string {
		switch {
		case v >= 0.8:
			return "text-success"
		case v >= 0.6:
			return "text-warning"
		default:
			return "text-danger"
		}
	},
}).Parse(htmlTemplateText))

func formatPct(v float64) string {
	return fmt.Sprintf("%d%%", int(v*100+0.5))
}

const htmlTemplateText = `<!DOCTYPE html>
<html lang="ja">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{ .Title }}</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/css/bootstrap.min.css">
  <style>
    body { background-color: #F1F5F9; color: #0F172A; }
    .navbar { background-color: #334155; }
    td.output { max-width: 28rem; }
  </style>
</head>
<body>
<nav class="navbar navbar-dark mb-4">
  <div class="container-fluid">
    <span class="navbar-brand">{{ .Run.Character }} <small class="text-light">{{ .Run.Role }} / {{ .Run.Tier }}</small></span>
    <span class="text-light">{{ .Run.Model }} {{ .Run.Host }} {{ .Run.GeneratedAt.Format "2006-01-02 15:04:05" }}</span>
  </div>
</nav>
<div class="container-fluid">
  <div class="row mb-4">
    {{ with .Run.Summary }}
    <div class="col"><div class="card p-3"><h6>consistency</h6><span class="fs-4 {{ grade .Averages.CharacterConsistency }}">{{ pct .Averages.CharacterConsistency }}</span></div></div>
    <div class="col"><div class="card p-3"><h6>length</h6><span class="fs-4 {{ grade .Averages.LengthCompliance }}">{{ pct .Averages.LengthCompliance }}</span></div></div>
    <div class="col"><div class="card p-3"><h6>style</h6><span class="fs-4 {{ grade .Averages.StyleAccuracy }}">{{ pct .Averages.StyleAccuracy }}</span></div></div>
    <div class="col"><div class="card p-3"><h6>quality</h6><span class="fs-4 {{ grade .Averages.ResponseQuality }}">{{ pct .Averages.ResponseQuality }}</span></div></div>
    <div class="col"><div class="card p-3"><h6>overall</h6><span class="fs-4 {{ grade .Averages.Overall }}">{{ pct .Averages.Overall }}</span></div></div>
    <div class="col"><div class="card p-3"><h6>exchanges</h6><span class="fs-4">{{ .Count }}</span><small>{{ .Failures }} failed, {{ printf "%.0f" .AvgLatencyMs }} ms avg</small></div></div>
    {{ end }}
  </div>
  {{ if .Run.Summary.TopIssues }}
  <div class="card p-3 mb-4">
    <h6>Top issues</h6>
    <ul class="mb-0">{{ range .Run.Summary.TopIssues }}<li>{{ .Issue }} ({{ .Count }})</li>{{ end }}</ul>
  </div>
  {{ end }}
  <table class="table table-striped table-bordered bg-white">
    <thead><tr><th>scenario</th><th>input</th><th>output</th><th>cons</th><th>len</th><th>style</th><th>qual</th><th>total</th><th>ms</th><th>issues</th></tr></thead>
    <tbody>
    {{ range .Run.Records }}
      <tr>
        <td>{{ .Scenario }}</td>
        <td>{{ .Input }}</td>
        <td class="output">{{ .Output }}</td>
        <td class="{{ grade .Scores.CharacterConsistency }}">{{ pct .Scores.CharacterConsistency }}</td>
        <td class="{{ grade .Scores.LengthCompliance }}">{{ pct .Scores.LengthCompliance }}</td>
        <td class="{{ grade .Scores.StyleAccuracy }}">{{ pct .Scores.StyleAccuracy }}</td>
        <td class="{{ grade .Scores.ResponseQuality }}">{{ pct .Scores.ResponseQuality }}</td>
        <td class="{{ grade .Scores.Overall }}">{{ pct .Scores.Overall }}</td>
        <td>{{ .LatencyMs }}</td>
        <td>{{ range .Issues }}<div>{{ . }}</div>{{ end }}</td>
      </tr>
    {{ end }}
    </tbody>
  </table>
</div>
<script>
  window.manzaiRun = {{ .RunJSON }};
</script>
</body>
</html>
`
